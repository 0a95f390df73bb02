package bot

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"

	"racebot/internal/domain/sync"
)

func TestSyncFailureMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "timeout",
			err:  &sync.Failure{Reason: sync.ReasonTimeout},
			want: "The team site took too long to respond. Please try again later.",
		},
		{
			name: "connection error",
			err:  &sync.Failure{Reason: sync.ReasonConnection},
			want: "Could not reach the team site. Please try again later.",
		},
		{
			name: "rejection with message",
			err:  &sync.Failure{Reason: sync.ReasonRemoteRejected, StatusCode: 500, Body: "database unavailable"},
			want: "The team site rejected the request: database unavailable",
		},
		{
			name: "rejection without message",
			err:  &sync.Failure{Reason: sync.ReasonRemoteRejected, StatusCode: 502},
			want: "The team site rejected the request (status 502).",
		},
		{
			name: "unclassified error",
			err:  errors.New("boom"),
			want: "Something went wrong. Please try again later.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, syncFailureMessage(tt.err))
		})
	}
}

func TestInteractionUserID(t *testing.T) {
	t.Run("guild interaction", func(t *testing.T) {
		i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
			Member: &discordgo.Member{User: &discordgo.User{ID: "42"}},
		}}
		assert.Equal(t, "42", interactionUserID(i))
	})

	t.Run("dm interaction", func(t *testing.T) {
		i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
			User: &discordgo.User{ID: "43"},
		}}
		assert.Equal(t, "43", interactionUserID(i))
	})

	t.Run("neither set", func(t *testing.T) {
		i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{}}
		assert.Empty(t, interactionUserID(i))
	})
}
