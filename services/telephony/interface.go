package telephony

import (
	"context"
	"errors"

	"asignaciones/models"
)

// ErrCallNotFound reports that the provider does not know the call identifier.
var ErrCallNotFound = errors.New("call not found")

// CallParams describes one outbound call placement.
type CallParams struct {
	To   string
	From string
	// InstructionsURL is fetched by the provider once the call connects.
	InstructionsURL string
	// StatusCallbackURL receives provider status webhooks.
	StatusCallbackURL string
	// TimeoutSeconds stops ringing if nobody answers.
	TimeoutSeconds int
}

// Provider is the telephony collaborator boundary. Provider statuses are
// mapped to the four-valued Outcome here; nothing downstream sees raw
// provider vocabulary.
type Provider interface {
	// PlaceCall requests an outbound call and returns the provider's call
	// identifier.
	PlaceCall(ctx context.Context, params CallParams) (string, error)
	// CallOutcome queries the provider for the call's current state and
	// returns the mapped outcome along with the raw provider status.
	CallOutcome(ctx context.Context, callSID string) (models.Outcome, string, error)
	// CancelCall asks the provider to terminate an in-progress call.
	CancelCall(ctx context.Context, callSID string) error
}

// MapStatus translates a provider call status into a domain outcome:
// answered on completed media exchange, no_answer on ring-timeout or
// reject, failed on provider error or explicit cancellation, pending
// otherwise.
func MapStatus(status string) models.Outcome {
	switch status {
	case "completed", "in-progress":
		return models.OutcomeAnswered
	case "busy", "no-answer":
		return models.OutcomeNoAnswer
	case "failed", "canceled":
		return models.OutcomeFailed
	case "queued", "ringing", "initiated":
		return models.OutcomePending
	}
	return models.OutcomePending
}
