package patientRepo

import "asignaciones/models"

// PatientRepository defines methods for patient data access.
type PatientRepository interface {
	// GetByID retrieves a patient by its FHIR id.
	GetByID(id string) (*models.Patient, error)
	// Upsert inserts or updates the patient keyed by its FHIR id.
	Upsert(patient *models.Patient) error
}
