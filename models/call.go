package models

import "time"

// Outcome is the four-valued delivery result of a call notification attempt.
type Outcome string

const (
	OutcomePending  Outcome = "pending"
	OutcomeAnswered Outcome = "answered"
	OutcomeNoAnswer Outcome = "no_answer"
	OutcomeFailed   Outcome = "failed"
)

// Valid reports whether o is one of the four known outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomePending, OutcomeAnswered, OutcomeNoAnswer, OutcomeFailed:
		return true
	}
	return false
}

// Terminal reports whether o is a terminal outcome.
func (o Outcome) Terminal() bool {
	return o.Valid() && o != OutcomePending
}

// CallRecord is one durable entry in an appointment's call history.
// Records are appended in insertion order and never removed or reordered;
// only the outcome may be patched in place by index.
type CallRecord struct {
	// Timestamp is civil time in the clinical timezone, e.g. "2026-08-28T10:30:00".
	Timestamp string  `bson:"timestamp" json:"timestamp"`
	CallSID   string  `bson:"callSid,omitempty" json:"callSid,omitempty"`
	Outcome   Outcome `bson:"outcome,omitempty" json:"outcome,omitempty"`
}

// CallSession ties an orchestrator-issued call id to the data the telephony
// provider fetches back over its own control path. It lives only in the
// session store (redis), never in Mongo.
type CallSession struct {
	CallID          string    `json:"callId"`
	Phone           string    `json:"phone"`
	Message         string    `json:"message"`
	Audio           []byte    `json:"audio,omitempty"`
	CallSID         string    `json:"callSid,omitempty"`
	Status          string    `json:"status"`
	PatientResponse string    `json:"patientResponse,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Patient DTMF responses recorded on the session.
const (
	ResponseConfirmed  = "confirmed"
	ResponseReschedule = "reschedule"
	ResponseUnknown    = "unknown"
)

// CallRequest is the payload accepted by POST /call.
type CallRequest struct {
	Phone            string `json:"phone" binding:"required"`
	PatientName      string `json:"patient_name" binding:"required"`
	Date             string `json:"date" binding:"required"`
	Time             string `json:"time" binding:"required"`
	ServiceType      string `json:"service_type,omitempty"`
	OrganizationName string `json:"organization_name,omitempty"`
	// AppointmentID links the call to a stored appointment so the tracker
	// can append a history record and follow the outcome.
	AppointmentID string `json:"appointment_id,omitempty"`
}
