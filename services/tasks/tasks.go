package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TypeCallPoll follows one placed call until its outcome resolves.
	TypeCallPoll = "call:poll"
	// TypeSyncRun executes one resolver batch against the FHIR source.
	TypeSyncRun = "sync:run"
)

// CallPollPayload identifies the history record a poller commits into.
type CallPollPayload struct {
	AppointmentID string `json:"appointmentId"`
	CallIndex     int    `json:"callIndex"`
	CallSID       string `json:"callSid"`
}

// NewCallPollTask builds the polling task for one call. The poll loop is
// internally bounded, so the task never retries: a second run could commit
// a second transition.
func NewCallPollTask(payload CallPollPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeCallPoll, b)
	opts := []asynq.Option{asynq.MaxRetry(0), asynq.Timeout(5 * time.Minute)}

	return task, opts, nil
}

// NewSyncTask builds a resolver batch run, optionally delayed.
func NewSyncTask(delay time.Duration) (*asynq.Task, []asynq.Option) {
	task := asynq.NewTask(TypeSyncRun, nil)
	opts := []asynq.Option{asynq.MaxRetry(2), asynq.Timeout(10 * time.Minute)}
	if delay > 0 {
		opts = append(opts, asynq.ProcessIn(delay))
	}
	return task, opts
}
