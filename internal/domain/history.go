package domain

import "time"

// StatusHistoryEntry is an append-only audit record of one status change.
// Entries are immutable once written.
type StatusHistoryEntry struct {
	ID            string
	InteractionID string
	Kind          EntityKind
	OldStatus     Status
	NewStatus     Status
	ActorID       string
	Notes         string
	CreatedAt     time.Time
}
