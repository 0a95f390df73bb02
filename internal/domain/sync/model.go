package sync

import "time"

// RoleSyncResult mirrors the remote store's response to a full-guild role
// sync. Re-sending an unchanged role list yields all-zero counts; the full
// replace makes the operation idempotent.
type RoleSyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
	Total   int `json:"total"`
}

// MemberSyncResult mirrors the remote store's response to a full-guild
// member sync.
type MemberSyncResult struct {
	Created     int `json:"created"`
	Updated     int `json:"updated"`
	Rejoined    int `json:"rejoined"`
	Left        int `json:"left"`
	Linked      int `json:"linked"`
	TotalActive int `json:"total_active"`
}

// UserRoleSyncResult is the outcome of a single-member role sync. Linked is
// false when the remote store has no account for the Discord identity; that
// is an expected outcome, not an error, and carries no counts.
type UserRoleSyncResult struct {
	RolesSynced int
	// Roles maps role id to role name as recorded by the remote store.
	Roles  map[string]string
	Linked bool
}

// Status is a point-in-time view of the per-guild sync state, exposed on the
// ops surface. It is process-local and never persisted.
type Status struct {
	GuildID        string
	InProgress     bool
	LastFullSyncAt time.Time
}
