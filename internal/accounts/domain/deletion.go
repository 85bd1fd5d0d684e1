package domain

import "time"

type MigrationStrategy string

const (
	StrategyTransferData MigrationStrategy = "transfer_data"
	StrategyDeleteData   MigrationStrategy = "delete_data"
)

type ActivationStatus string

const (
	StatusInvited ActivationStatus = "invited"
	StatusActive  ActivationStatus = "active"
)

func ActivationStatusOf(u User) ActivationStatus {
	if u.IsPending {
		return StatusInvited
	}
	return StatusActive
}

// DeletionEvent records a committed user deletion. It is built once after the
// transaction commits and handed to notifiers by value.
type DeletionEvent struct {
	ActorID      string            `json:"actorId"`
	TargetID     string            `json:"targetId"`
	PriorStatus  ActivationStatus  `json:"priorStatus"`
	Strategy     MigrationStrategy `json:"migrationStrategy"`
	TransfereeID string            `json:"transfereeId,omitempty"`
	OccurredAt   time.Time         `json:"occurredAt"`
}

func NewDeletionEvent(actorID string, target User, transfereeID string, at time.Time) DeletionEvent {
	strategy := StrategyDeleteData
	if transfereeID != "" {
		strategy = StrategyTransferData
	}
	return DeletionEvent{
		ActorID:      actorID,
		TargetID:     target.ID,
		PriorStatus:  ActivationStatusOf(target),
		Strategy:     strategy,
		TransfereeID: transfereeID,
		OccurredAt:   at.UTC(),
	}
}
