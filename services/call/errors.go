package call

import "fmt"

// InvalidPhoneError means the destination could not be normalized to a
// valid E.164 number; no call was placed.
type InvalidPhoneError struct {
	Phone string
	Err   error
}

func (e *InvalidPhoneError) Error() string {
	return fmt.Sprintf("invalid phone number %q: %v", e.Phone, e.Err)
}

func (e *InvalidPhoneError) Unwrap() error { return e.Err }

// ProviderError means the telephony collaborator rejected the call
// placement; no session is left registered.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("telephony provider rejected call: %v", e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NotFoundError means no session exists for the given call id (unknown or
// already expired).
type NotFoundError struct {
	CallID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("call %s not found", e.CallID)
}
