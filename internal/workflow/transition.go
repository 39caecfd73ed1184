package workflow

import (
	"errors"
	"slices"
)

// ErrUnauthorizedTransition is returned when no held role permits a status change.
var ErrUnauthorizedTransition = errors.New("Invalid status transition or insufficient permissions")

type transitionKey struct {
	role Role
	from Status
}

var transitions = map[transitionKey][]Status{
	{RoleCreator, StatusPending}: {StatusPending},

	{RoleVerifier, StatusPending}:  {StatusVerified, StatusRejected, StatusRevision},
	{RoleVerifier, StatusRevision}: {StatusVerified, StatusRejected, StatusRevision},

	{RoleApprover, StatusRevision}: {StatusApproved, StatusRejected, StatusRevision},
	{RoleApprover, StatusVerified}: {StatusApproved, StatusRejected, StatusRevision},
	{RoleApprover, StatusApproved}: {StatusRejected, StatusRevision},
}

func init() {
	for _, from := range AllStatuses {
		transitions[transitionKey{RoleAdmin, from}] = AllStatuses
	}
}

// CanTransition reports whether any role in roles may move an item from one
// status to another.
func CanTransition(roles RoleSet, from, to Status) bool {
	for _, r := range roles.Roles() {
		if slices.Contains(transitions[transitionKey{r, from}], to) {
			return true
		}
	}
	return false
}

// Authorize is CanTransition returning ErrUnauthorizedTransition on denial.
func Authorize(roles RoleSet, from, to Status) error {
	if !CanTransition(roles, from, to) {
		return ErrUnauthorizedTransition
	}
	return nil
}

// AllowedTargets lists the statuses reachable from the given status for the
// role set, in AllStatuses order.
func AllowedTargets(roles RoleSet, from Status) []Status {
	out := make([]Status, 0, len(AllStatuses))
	for _, to := range AllStatuses {
		if CanTransition(roles, from, to) {
			out = append(out, to)
		}
	}
	return out
}
