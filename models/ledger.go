package models

import (
	"encoding/json"
	"time"
)

// MutationOp is the kind of change recorded in the pending-mutation ledger.
type MutationOp string

const (
	OpCreate MutationOp = "create"
	OpUpdate MutationOp = "update"
	OpDelete MutationOp = "delete"
)

// MutationStatus is the lifecycle state of a ledger entry.
type MutationStatus string

const (
	MutationPending    MutationStatus = "pending"
	MutationInProgress MutationStatus = "in_progress"
	MutationFailed     MutationStatus = "failed"
	MutationCompleted  MutationStatus = "completed"
)

// EntityPatient is the only entity type the queue client records today.
const EntityPatient = "patient"

// PendingMutation is a locally applied change that has not been acknowledged
// by the server yet. Entries are flushed in creation order.
type PendingMutation struct {
	ID         string          `json:"id"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Op         MutationOp      `json:"op"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Status     MutationStatus  `json:"status"`
	Attempts   int             `json:"attempts"`
	LastError  string          `json:"last_error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
