package domain

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
	StatusRejected  Status = "rejected"
	StatusRefunded  Status = "refunded"
)

type EntityKind string

const (
	KindInteraction EntityKind = "interaction"
	KindOrder       EntityKind = "order"
	KindPayment     EntityKind = "payment"
)

// transitions holds the legal status edges per entity kind. A status absent
// from its kind's map is terminal.
var transitions = map[EntityKind]map[Status][]Status{
	KindInteraction: {
		StatusPending:   {StatusConfirmed, StatusCancelled, StatusFailed, StatusRejected},
		StatusConfirmed: {StatusReady, StatusCompleted, StatusCancelled},
		StatusReady:     {StatusCompleted, StatusCancelled},
	},
	KindOrder: {
		StatusPending:   {StatusConfirmed, StatusCancelled},
		StatusConfirmed: {StatusReady, StatusCompleted, StatusCancelled},
		StatusReady:     {StatusCompleted, StatusCancelled},
	},
	KindPayment: {
		StatusPending:   {StatusCompleted, StatusFailed},
		StatusCompleted: {StatusRefunded},
	},
}

// AllowedTransitions returns the statuses reachable from the given status.
// The returned slice must not be mutated.
func AllowedTransitions(kind EntityKind, from Status) []Status {
	return transitions[kind][from]
}

// ValidateTransition checks the (old, new) edge against the transition table
// for the given entity kind. Every status write on an interaction, order or
// payment must pass through here before being persisted.
func ValidateTransition(kind EntityKind, old, new Status) error {
	allowed := transitions[kind][old]
	for _, s := range allowed {
		if s == new {
			return nil
		}
	}
	return &IllegalTransitionError{Kind: kind, From: old, To: new, Allowed: allowed}
}

// Terminal reports whether a status has no outgoing transitions for its kind.
func Terminal(kind EntityKind, s Status) bool {
	return len(transitions[kind][s]) == 0
}
