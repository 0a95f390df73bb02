package guild

import "time"

// RoleSnapshot is a point-in-time view of a guild role as observed from the
// gateway. Identity is the ID; equality for sync purposes is attribute-wise.
type RoleSnapshot struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       int    `json:"color"`
	Position    int    `json:"position"`
	Managed     bool   `json:"managed"`
	Mentionable bool   `json:"mentionable"`
}

// MemberSnapshot is a point-in-time view of a guild member. RoleIDs only
// carries ids of roles that exist in the guild's role set at snapshot time;
// the remote store is free to drop ids it does not know about.
type MemberSnapshot struct {
	DiscordID   string
	Username    string
	DisplayName string
	Nickname    string
	AvatarHash  string
	RoleIDs     []string
	JoinedAt    *time.Time
	IsBot       bool
}
