package model

import "testing"

func TestScopeCanView(t *testing.T) {
	owner := &User{ID: 1, Role: RoleUser}
	other := &User{ID: 2, Role: RoleUser}
	admin := &User{ID: 3, Role: RoleAdmin}

	cases := []struct {
		name     string
		scope    Scope
		ownerID  uint
		isPublic bool
		want     bool
	}{
		{"anonymous sees public", AnonymousScope(), 1, true, true},
		{"anonymous blocked from private", AnonymousScope(), 1, false, false},
		{"owner sees own private", ScopeFor(owner), 1, false, true},
		{"other user blocked from private", ScopeFor(other), 1, false, false},
		{"other user sees public", ScopeFor(other), 1, true, true},
		{"admin sees everything", ScopeFor(admin), 1, false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.scope.CanView(tc.ownerID, tc.isPublic); got != tc.want {
				t.Fatalf("CanView(%d, %v) = %v, want %v", tc.ownerID, tc.isPublic, got, tc.want)
			}
		})
	}
}

func TestScopeForNil(t *testing.T) {
	scope := ScopeFor(nil)
	if scope.Authenticated || scope.Admin {
		t.Fatalf("nil user should produce the anonymous scope, got %+v", scope)
	}
}

func TestUserIsAdmin(t *testing.T) {
	if (&User{Role: RoleUser}).IsAdmin() {
		t.Fatal("regular user should not be admin")
	}
	if !(&User{Role: RoleAdmin}).IsAdmin() {
		t.Fatal("admin role should be admin")
	}
	if !(&User{Role: RoleSuperadmin}).IsAdmin() {
		t.Fatal("superadmin role should be admin")
	}
}
