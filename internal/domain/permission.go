package domain

// These predicates gate actions in the UI. The server remains the enforcer;
// a request the server rejects is surfaced as an ordinary error.

// CanEdit reports whether the session may edit the task.
func CanEdit(s Session, t Task) bool {
	return s.IsAdmin() || (s.UserID != "" && t.CreatorID == s.UserID)
}

// CanDelete reports whether the session may delete tasks.
func CanDelete(s Session) bool {
	return s.IsAdmin()
}

// CanComment reports whether the session may comment on the task.
func CanComment(s Session, t Task) bool {
	return s.IsAdmin() || (s.Email != "" && t.AssigneeEmail == s.Email)
}

// CanViewActivity reports whether the session may open the activity log.
func CanViewActivity(s Session) bool {
	return s.IsAdmin()
}

// IsSelf reports whether a presence entry is the session's own user.
func IsSelf(s Session, p PresenceEntry) bool {
	return s.Email != "" && p.Email == s.Email
}
