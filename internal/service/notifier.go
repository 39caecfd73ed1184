package service

import (
	"panjar/internal/workflow"

	"github.com/google/uuid"
)

const (
	EventItemStatus    = "panjar.item.status"
	EventRequestStatus = "panjar.request.status"
	EventRequestSaved  = "panjar.request.saved"
)

// Event describes a committed change, pushed to connected dashboards.
type Event struct {
	Type      string          `json:"type"`
	RequestID uuid.UUID       `json:"request_id"`
	ItemID    *uuid.UUID      `json:"item_id,omitempty"`
	Status    workflow.Status `json:"status"`
	ActorID   uuid.UUID       `json:"actor_id"`
}

// Notifier publishes events after a transaction commits. Publish must not block.
type Notifier interface {
	Publish(event Event)
}

type nopNotifier struct{}

func (nopNotifier) Publish(Event) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
