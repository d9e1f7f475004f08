package call

import (
	"context"

	"asignaciones/models"
)

// CallService is the call orchestrator: it places outbound notification
// calls, serves their per-call dynamic content back to the telephony
// provider, and exposes cancellation.
type CallService interface {
	// CreateCall validates the destination, registers a session and places
	// the outbound call. Returns the orchestrator call id and the
	// provider's call identifier.
	CreateCall(ctx context.Context, req models.CallRequest) (callID string, callSID string, err error)
	// Instructions returns the voice script for a registered call. Safe to
	// call repeatedly; the provider may re-request it.
	Instructions(ctx context.Context, callID string) (string, error)
	// Audio returns the synthesized audio for a registered call,
	// synthesizing on demand if pre-generation has not finished.
	Audio(ctx context.Context, callID string) ([]byte, error)
	// HandleResponse records the patient's DTMF response and returns the
	// closing voice script.
	HandleResponse(ctx context.Context, callID string, digits string) (string, error)
	// CancelCall asks the provider to terminate an in-progress call.
	CancelCall(ctx context.Context, callSID string) error
}
