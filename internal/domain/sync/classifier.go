package sync

import (
	"racebot/internal/domain/guild"
)

// RequestKind enumerates the sync work one inbound notification maps to.
type RequestKind int

const (
	// RequestNone means the notification needs no sync at all.
	RequestNone RequestKind = iota
	// RequestFullRoleSync replaces the guild's complete role list remotely.
	RequestFullRoleSync
	// RequestMemberRoleSync updates a single member's role set remotely.
	RequestMemberRoleSync
)

// Request is a classified sync request derived from a single notification.
// MemberID and RoleIDs are set only for RequestMemberRoleSync.
type Request struct {
	Kind     RequestKind
	Reason   string
	MemberID string
	RoleIDs  []string
}

// Classifier routes inbound guild mutation notifications to sync requests.
// Every notification is checked against the one statically configured guild;
// events for any other guild classify to RequestNone with no side effect.
type Classifier struct {
	guildID string
}

func NewClassifier(guildID string) *Classifier {
	return &Classifier{guildID: guildID}
}

// GuildReady fires when the gateway reports the guild available. It always
// syncs: the full role list may have drifted while the bot was offline.
func (c *Classifier) GuildReady(guildID string) Request {
	if guildID != c.guildID {
		return Request{}
	}
	return Request{Kind: RequestFullRoleSync, Reason: "guild_ready"}
}

// RoleCreated routes to a full-guild sync; there is no single-role upsert
// path on the remote side.
func (c *Classifier) RoleCreated(guildID string) Request {
	if guildID != c.guildID {
		return Request{}
	}
	return Request{Kind: RequestFullRoleSync, Reason: "role_created"}
}

// RoleDeleted routes to a full-guild sync: only the full list lets the remote
// side detect the absence.
func (c *Classifier) RoleDeleted(guildID string) Request {
	if guildID != c.guildID {
		return Request{}
	}
	return Request{Kind: RequestFullRoleSync, Reason: "role_deleted"}
}

// RoleUpdated routes to a full-guild sync only when the change is sync-worthy
// per the diff rules (name, color or position).
func (c *Classifier) RoleUpdated(guildID string, before *guild.RoleSnapshot, after guild.RoleSnapshot) Request {
	if guildID != c.guildID {
		return Request{}
	}
	if !guild.RoleChanged(before, after) {
		return Request{}
	}
	return Request{Kind: RequestFullRoleSync, Reason: "role_updated"}
}

// MemberUpdated routes to a single-member role sync when the member's role
// set changed. Profile-only updates (nickname, avatar) classify to none.
func (c *Classifier) MemberUpdated(guildID string, before *guild.MemberSnapshot, after guild.MemberSnapshot) Request {
	if guildID != c.guildID {
		return Request{}
	}
	if !guild.MemberRolesChanged(before, after) {
		return Request{}
	}
	return Request{
		Kind:     RequestMemberRoleSync,
		Reason:   "member_roles_changed",
		MemberID: after.DiscordID,
		RoleIDs:  after.RoleIDs,
	}
}
