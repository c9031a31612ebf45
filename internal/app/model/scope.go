package model

// Scope identifies the requester for permission-filtered reads. The same
// rule backs both list predicates and single-entity checks: anonymous
// requesters see public entities, owners additionally see their own, admins
// see everything.
type Scope struct {
	Authenticated bool
	UserID        uint
	Admin         bool
}

// AnonymousScope is the scope of an unauthenticated request.
func AnonymousScope() Scope {
	return Scope{}
}

// ScopeFor builds the scope of an authenticated user.
func ScopeFor(u *User) Scope {
	if u == nil {
		return AnonymousScope()
	}
	return Scope{
		Authenticated: true,
		UserID:        u.ID,
		Admin:         u.IsAdmin(),
	}
}

// CanView applies the visibility rule to a single entity.
func (s Scope) CanView(ownerID uint, isPublic bool) bool {
	if s.Admin {
		return true
	}
	if isPublic {
		return true
	}
	return s.Authenticated && s.UserID == ownerID
}
