package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"racebot/internal/app/bot/apiclient"
)

func TestBuildProfileEmbed(t *testing.T) {
	days := 12
	profile := &apiclient.Profile{
		Zwid: 12345,
		Account: &apiclient.ProfileAccount{
			DiscordNickname: "R1d3r",
			ZwidVerified:    true,
		},
		ZwiftPower: &apiclient.ZwiftPowerStats{
			Name:   "Rider One",
			Div:    20,
			FTP:    250,
			Weight: 70.5,
		},
		ZwiftRacing: &apiclient.ZwiftRacingStats{
			RaceCurrentCategory: "Silver",
			RaceCurrentRating:   1450,
			PowerWkg300:         4.21,
		},
		Verification: map[string]apiclient.Verification{
			"weight_full": {Verified: true, DaysRemaining: &days},
			"power":       {Verified: true, IsExpired: true},
		},
	}

	embed := buildProfileEmbed(profile, "fallback")

	assert.Equal(t, "Rider One", embed.Title)
	assert.Contains(t, embed.Description, "R1d3r")
	assert.Contains(t, embed.Description, "✓")
	assert.Equal(t, "Zwift ID: 12345", embed.Footer.Text)

	require.Len(t, embed.Fields, 4)
	assert.Equal(t, "ZwiftPower", embed.Fields[0].Name)
	assert.Contains(t, embed.Fields[0].Value, "**Cat:** B")
	assert.Contains(t, embed.Fields[0].Value, "zwiftpower.com/profile.php?z=12345")
	assert.Equal(t, "ZwiftRacing", embed.Fields[1].Name)
	assert.Contains(t, embed.Fields[1].Value, "Silver (1450)")
	assert.Equal(t, "Power Curve (w/kg)", embed.Fields[2].Name)
	assert.Contains(t, embed.Fields[2].Value, "5m: 4.21")
	assert.Equal(t, "Race Ready Status", embed.Fields[3].Name)
	assert.Contains(t, embed.Fields[3].Value, "**Weight (Full):** ✅ 12 days")
	assert.Contains(t, embed.Fields[3].Value, "**Power:** ❌ Expired")
	assert.Contains(t, embed.Fields[3].Value, "**Height:** No record")
}

func TestBuildProfileEmbed_EmptySections(t *testing.T) {
	embed := buildProfileEmbed(&apiclient.Profile{Zwid: 99}, "fallback")

	assert.Equal(t, "fallback", embed.Title)
	assert.Empty(t, embed.Fields)
}
