package service

import (
	"panjar/internal/workflow"

	"github.com/google/uuid"
)

// Actor is the authenticated user performing an operation. It is resolved at
// the HTTP boundary and passed explicitly into every service call.
type Actor struct {
	UserID uuid.UUID
	UnitID *uuid.UUID
	Roles  workflow.RoleSet
}

// NewActor builds an actor from role names as stored on the user or token.
func NewActor(userID uuid.UUID, unitID *uuid.UUID, roleNames ...string) Actor {
	return Actor{
		UserID: userID,
		UnitID: unitID,
		Roles:  workflow.NewRoleSet(roleNames...),
	}
}

func (a Actor) IsAdmin() bool { return a.Roles.Has(workflow.RoleAdmin) }

// InUnit reports whether the actor belongs to the given unit.
func (a Actor) InUnit(unitID uuid.UUID) bool {
	return a.UnitID != nil && *a.UnitID == unitID
}
