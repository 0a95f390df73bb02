package guild

// RoleChanged reports whether the transition from before to after is worth a
// sync. Only name, color and position are watched; managed and mentionable
// changes alone are deliberately not sync-worthy. A nil before means the role
// is newly observed and always syncs.
func RoleChanged(before *RoleSnapshot, after RoleSnapshot) bool {
	if before == nil {
		return true
	}
	return before.Name != after.Name ||
		before.Color != after.Color ||
		before.Position != after.Position
}

// MemberRolesChanged reports whether the member's role set differs between
// the two snapshots. The comparison is set-wise: order and duplicates are
// irrelevant. Nickname and avatar changes are not watched by the role-sync
// path. A nil before always syncs.
func MemberRolesChanged(before *MemberSnapshot, after MemberSnapshot) bool {
	if before == nil {
		return true
	}
	return !sameRoleSet(before.RoleIDs, after.RoleIDs)
}

func sameRoleSet(a, b []string) bool {
	as := make(map[string]struct{}, len(a))
	for _, id := range a {
		as[id] = struct{}{}
	}
	bs := make(map[string]struct{}, len(b))
	for _, id := range b {
		if _, ok := as[id]; !ok {
			return false
		}
		bs[id] = struct{}{}
	}
	return len(as) == len(bs)
}
