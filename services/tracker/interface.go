package tracker

import (
	"context"
	"time"

	"asignaciones/models"
)

// StatusSource is the slice of the telephony provider the tracker queries.
type StatusSource interface {
	CallOutcome(ctx context.Context, callSID string) (models.Outcome, string, error)
}

// TrackerService reconciles call outcomes into the appointments' durable,
// append-only call history.
type TrackerService interface {
	// RecordCall appends a pending record to the appointment's history and
	// marks it contacted. Returns the record's stable index.
	RecordCall(ctx context.Context, appointmentID, callSID string, ts time.Time) (int, error)
	// PollOutcome repeatedly queries the provider at a fixed interval,
	// bounded by the attempt ceiling, and commits at most one outcome
	// transition. Ceiling exhaustion leaves the record pending and is not
	// an error.
	PollOutcome(ctx context.Context, appointmentID string, callIndex int, callSID string) (models.Outcome, error)
	// UpdateOutcome overrides the outcome of a history entry. Callable at
	// any time regardless of current state; out-of-range indices are
	// ignored.
	UpdateOutcome(ctx context.Context, appointmentID string, callIndex int, outcome models.Outcome) error
	// HandleWebhook ingests a provider status push for a call and returns
	// the mapped outcome.
	HandleWebhook(callSID, providerStatus string) models.Outcome
	// CallStatus returns the last known provider status and mapped outcome
	// for a call, querying the provider on cache miss.
	CallStatus(ctx context.Context, callSID string) (string, models.Outcome, error)
}
