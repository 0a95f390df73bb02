package guild

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleChanged(t *testing.T) {
	base := RoleSnapshot{
		ID:          "100",
		Name:        "Cat A",
		Color:       0xE67E22,
		Position:    4,
		Managed:     false,
		Mentionable: false,
	}

	tests := []struct {
		name   string
		before *RoleSnapshot
		after  RoleSnapshot
		want   bool
	}{
		{
			name:   "no before means newly observed",
			before: nil,
			after:  base,
			want:   true,
		},
		{
			name:   "identical snapshots",
			before: &base,
			after:  base,
			want:   false,
		},
		{
			name:   "name changed",
			before: &base,
			after:  RoleSnapshot{ID: "100", Name: "Category A", Color: base.Color, Position: base.Position},
			want:   true,
		},
		{
			name:   "color changed",
			before: &base,
			after:  RoleSnapshot{ID: "100", Name: base.Name, Color: 0x3498DB, Position: base.Position},
			want:   true,
		},
		{
			name:   "position changed",
			before: &base,
			after:  RoleSnapshot{ID: "100", Name: base.Name, Color: base.Color, Position: 7},
			want:   true,
		},
		{
			name:   "managed flipped alone",
			before: &base,
			after:  RoleSnapshot{ID: "100", Name: base.Name, Color: base.Color, Position: base.Position, Managed: true},
			want:   false,
		},
		{
			name:   "mentionable flipped alone",
			before: &base,
			after:  RoleSnapshot{ID: "100", Name: base.Name, Color: base.Color, Position: base.Position, Mentionable: true},
			want:   false,
		},
		{
			name:   "managed and mentionable flipped together",
			before: &base,
			after:  RoleSnapshot{ID: "100", Name: base.Name, Color: base.Color, Position: base.Position, Managed: true, Mentionable: true},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoleChanged(tt.before, tt.after))
		})
	}
}

func TestMemberRolesChanged(t *testing.T) {
	member := func(roles ...string) MemberSnapshot {
		return MemberSnapshot{DiscordID: "42", Username: "rider", RoleIDs: roles}
	}

	tests := []struct {
		name   string
		before *MemberSnapshot
		after  MemberSnapshot
		want   bool
	}{
		{
			name:   "no before means newly observed",
			before: nil,
			after:  member("R1"),
			want:   true,
		},
		{
			name:   "same set",
			before: ptr(member("R1", "R2")),
			after:  member("R1", "R2"),
			want:   false,
		},
		{
			name:   "same set different order",
			before: ptr(member("R2", "R1")),
			after:  member("R1", "R2"),
			want:   false,
		},
		{
			name:   "same set with duplicates",
			before: ptr(member("R1", "R1", "R2")),
			after:  member("R2", "R1"),
			want:   false,
		},
		{
			name:   "role added",
			before: ptr(member("R1")),
			after:  member("R1", "R2"),
			want:   true,
		},
		{
			name:   "role removed",
			before: ptr(member("R1", "R2")),
			after:  member("R2"),
			want:   true,
		},
		{
			name:   "both empty",
			before: ptr(member()),
			after:  member(),
			want:   false,
		},
		{
			name:   "nickname change alone is not watched",
			before: ptr(MemberSnapshot{DiscordID: "42", Nickname: "old", RoleIDs: []string{"R1"}}),
			after:  MemberSnapshot{DiscordID: "42", Nickname: "new", RoleIDs: []string{"R1"}},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MemberRolesChanged(tt.before, tt.after))
		})
	}
}

func ptr(m MemberSnapshot) *MemberSnapshot { return &m }
