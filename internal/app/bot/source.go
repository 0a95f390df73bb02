package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"racebot/internal/domain/guild"
)

const memberPageSize = 1000

// GatewaySource reads role and member snapshots from the Discord gateway.
// Roles come from the session state when populated, falling back to REST.
// Members are always paged over REST since the state cache can be partial.
type GatewaySource struct {
	session *discordgo.Session
}

func NewGatewaySource(session *discordgo.Session) *GatewaySource {
	return &GatewaySource{session: session}
}

func (g *GatewaySource) Roles(guildID string) ([]guild.RoleSnapshot, error) {
	if st, err := g.session.State.Guild(guildID); err == nil && len(st.Roles) > 0 {
		return roleSnapshots(st.Roles), nil
	}

	roles, err := g.session.GuildRoles(guildID)
	if err != nil {
		return nil, fmt.Errorf("fetch guild roles: %w", err)
	}
	return roleSnapshots(roles), nil
}

func (g *GatewaySource) Members(guildID string) ([]guild.MemberSnapshot, error) {
	var all []guild.MemberSnapshot

	after := ""
	for {
		batch, err := g.session.GuildMembers(guildID, after, memberPageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch guild members: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		for _, m := range batch {
			all = append(all, memberSnapshot(m))
		}

		after = batch[len(batch)-1].User.ID
		if len(batch) < memberPageSize {
			break
		}
	}

	return all, nil
}

func roleSnapshots(roles []*discordgo.Role) []guild.RoleSnapshot {
	out := make([]guild.RoleSnapshot, 0, len(roles))
	for _, r := range roles {
		out = append(out, roleSnapshot(r))
	}
	return out
}

func roleSnapshot(r *discordgo.Role) guild.RoleSnapshot {
	return guild.RoleSnapshot{
		ID:          r.ID,
		Name:        r.Name,
		Color:       r.Color,
		Position:    r.Position,
		Managed:     r.Managed,
		Mentionable: r.Mentionable,
	}
}

func memberSnapshot(m *discordgo.Member) guild.MemberSnapshot {
	snap := guild.MemberSnapshot{
		Nickname: m.Nick,
		RoleIDs:  m.Roles,
	}
	if m.User != nil {
		snap.DiscordID = m.User.ID
		snap.Username = m.User.Username
		snap.DisplayName = m.User.GlobalName
		if snap.DisplayName == "" {
			snap.DisplayName = m.User.Username
		}
		snap.AvatarHash = m.User.Avatar
		snap.IsBot = m.User.Bot
	}
	if !m.JoinedAt.IsZero() {
		joined := m.JoinedAt
		snap.JoinedAt = &joined
	}
	return snap
}
