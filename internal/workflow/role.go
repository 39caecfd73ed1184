package workflow

import "strings"

// Role is an organisational role that carries review capabilities.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleCreator      // kepala-urusan
	RoleVerifier     // wakil-kepala-sekolah
	RoleApprover     // kepala-sekolah
	RoleAdmin
)

// Role names as stored in the roles table and carried in tokens.
const (
	RoleNameAdmin    = "admin"
	RoleNameApprover = "kepala-sekolah"
	RoleNameVerifier = "wakil-kepala-sekolah"
	RoleNameCreator  = "kepala-urusan"
)

var roleByName = map[string]Role{
	RoleNameAdmin:    RoleAdmin,
	RoleNameApprover: RoleApprover,
	RoleNameVerifier: RoleVerifier,
	RoleNameCreator:  RoleCreator,
}

// ParseRole maps a role name to a Role. Unrecognised names yield RoleUnknown.
func ParseRole(name string) Role {
	return roleByName[strings.ToLower(strings.TrimSpace(name))]
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return RoleNameAdmin
	case RoleApprover:
		return RoleNameApprover
	case RoleVerifier:
		return RoleNameVerifier
	case RoleCreator:
		return RoleNameCreator
	}
	return "unknown"
}

// RoleSet is a bitset of roles held by one actor.
type RoleSet uint8

// NewRoleSet builds a set from role names, skipping names it does not know.
func NewRoleSet(names ...string) RoleSet {
	var set RoleSet
	for _, n := range names {
		set = set.With(ParseRole(n))
	}
	return set
}

// With returns a copy of the set that also contains r.
func (s RoleSet) With(r Role) RoleSet {
	if r == RoleUnknown {
		return s
	}
	return s | 1<<r
}

// Has reports whether r is in the set.
func (s RoleSet) Has(r Role) bool {
	return r != RoleUnknown && s&(1<<r) != 0
}

// HasAny reports whether at least one of roles is in the set.
func (s RoleSet) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// Roles returns the members of the set, highest privilege first.
func (s RoleSet) Roles() []Role {
	out := make([]Role, 0, 4)
	for _, r := range []Role{RoleAdmin, RoleApprover, RoleVerifier, RoleCreator} {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

// Names returns the role names of the set, highest privilege first.
func (s RoleSet) Names() []string {
	roles := s.Roles()
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.String())
	}
	return names
}

// Reviewer role labels recorded on item histories.
const (
	ReviewerAdmin    = "admin"
	ReviewerApprover = "approver"
	ReviewerVerifier = "verifier"
	ReviewerCreator  = "creator"
	ReviewerUnknown  = "unknown"
)

// ReviewerRole picks the history label for an actor. Admin outranks
// approver, which outranks verifier, which outranks creator.
func ReviewerRole(s RoleSet) string {
	switch {
	case s.Has(RoleAdmin):
		return ReviewerAdmin
	case s.Has(RoleApprover):
		return ReviewerApprover
	case s.Has(RoleVerifier):
		return ReviewerVerifier
	case s.Has(RoleCreator):
		return ReviewerCreator
	}
	return ReviewerUnknown
}
