package sync

import (
	"context"

	"asignaciones/services/fhir"
)

// Source is the slice of the FHIR client the resolver consumes.
type Source interface {
	Authenticate(ctx context.Context) error
	GetAppointments(ctx context.Context) (*fhir.Bundle, error)
	GetPatient(ctx context.Context, id string) (*fhir.Patient, error)
	GetServiceRequest(ctx context.Context, id string) (*fhir.ServiceRequest, error)
	GetPractitionerRole(ctx context.Context, id string) (*fhir.PractitionerRole, error)
	GetOrganization(ctx context.Context, id string) (*fhir.Organization, error)
}

// SyncResult reports how many records a resolver batch touched.
type SyncResult struct {
	AppointmentsProcessed int `json:"appointmentsProcessed"`
	PatientsProcessed     int `json:"patientsProcessed"`
}

// SyncService resolves the source's appointments into normalized local records.
type SyncService interface {
	Resolve(ctx context.Context) (*SyncResult, error)
}
