package appointmentRepo

import "asignaciones/models"

// AppointmentRepository defines methods for appointment data access.
type AppointmentRepository interface {
	// GetByID retrieves an appointment by its FHIR id.
	GetByID(id string) (*models.Appointment, error)
	// GetAll retrieves all appointments.
	GetAll() ([]models.Appointment, error)
	// Upsert inserts or replaces the appointment keyed by its FHIR id.
	// Call history and creation bookkeeping survive across upserts.
	Upsert(appt *models.Appointment) error
	// AppendCallRecord appends a record to the appointment's call history,
	// marks it contacted, and returns the record's stable index.
	AppendCallRecord(id string, record models.CallRecord) (int, error)
	// UpdateCallOutcome patches the outcome of the history entry at index.
	// The boolean reports whether a matching entry existed.
	UpdateCallOutcome(id string, index int, outcome models.Outcome) (bool, error)
}
