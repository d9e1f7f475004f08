package sync

import (
	"context"
	"errors"
	"sync"
	"testing"

	"asignaciones/models"
	"asignaciones/services/fhir"
)

type fakeSource struct {
	authErr           error
	appointments      *fhir.Bundle
	patients          map[string]*fhir.Patient
	serviceRequests   map[string]*fhir.ServiceRequest
	practitionerRoles map[string]*fhir.PractitionerRole
	organizations     map[string]*fhir.Organization
}

var errNotOnServer = errors.New("resource not found")

func (s *fakeSource) Authenticate(ctx context.Context) error { return s.authErr }

func (s *fakeSource) GetAppointments(ctx context.Context) (*fhir.Bundle, error) {
	return s.appointments, nil
}

func (s *fakeSource) GetPatient(ctx context.Context, id string) (*fhir.Patient, error) {
	if p, ok := s.patients[id]; ok {
		return p, nil
	}
	return nil, errNotOnServer
}

func (s *fakeSource) GetServiceRequest(ctx context.Context, id string) (*fhir.ServiceRequest, error) {
	if sr, ok := s.serviceRequests[id]; ok {
		return sr, nil
	}
	return nil, errNotOnServer
}

func (s *fakeSource) GetPractitionerRole(ctx context.Context, id string) (*fhir.PractitionerRole, error) {
	if pr, ok := s.practitionerRoles[id]; ok {
		return pr, nil
	}
	return nil, errNotOnServer
}

func (s *fakeSource) GetOrganization(ctx context.Context, id string) (*fhir.Organization, error) {
	if org, ok := s.organizations[id]; ok {
		return org, nil
	}
	return nil, errNotOnServer
}

type memAppointmentRepo struct {
	mu    sync.Mutex
	items map[string]models.Appointment
}

func (r *memAppointmentRepo) GetByID(id string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if appt, ok := r.items[id]; ok {
		return &appt, nil
	}
	return nil, nil
}

func (r *memAppointmentRepo) GetAll() ([]models.Appointment, error) { return nil, nil }

func (r *memAppointmentRepo) Upsert(appt *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[appt.FHIRID] = *appt
	return nil
}

func (r *memAppointmentRepo) AppendCallRecord(id string, record models.CallRecord) (int, error) {
	return 0, nil
}

func (r *memAppointmentRepo) UpdateCallOutcome(id string, index int, outcome models.Outcome) (bool, error) {
	return false, nil
}

type memPatientRepo struct {
	mu    sync.Mutex
	items map[string]models.Patient
}

func (r *memPatientRepo) GetByID(id string) (*models.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.items[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (r *memPatientRepo) Upsert(patient *models.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[patient.FHIRID] = *patient
	return nil
}

func boolPtr(b bool) *bool { return &b }

func fullSource() *fakeSource {
	return &fakeSource{
		appointments: &fhir.Bundle{
			Total: 1,
			Entry: []fhir.BundleEntry{{
				Resource: fhir.Appointment{
					ResourceType: "Appointment",
					ID:           "appt-1",
					Status:       "booked",
					Start:        "2026-03-15T10:30:00Z",
					End:          "2026-03-15T11:00:00Z",
					Extension: []fhir.Extension{
						{
							URL: fhir.ExtContactMethod,
							ValueCodeableConcept: &fhir.CodeableConcept{
								Coding: []fhir.Coding{{Code: "3", Display: "Llamada"}},
							},
						},
						{
							URL: fhir.ExtContacted,
							Extension: []fhir.Extension{
								{URL: fhir.ExtContactedInner, ValueBoolean: boolPtr(false)},
							},
						},
					},
					ServiceType: []fhir.CodeableConcept{{
						Coding: []fhir.Coding{{Display: "Cirugía Mayor Ambulatoria"}},
					}},
					BasedOn: []fhir.Reference{{Reference: "ServiceRequest/sr-1"}},
					Participant: []fhir.Participant{
						{Actor: fhir.Reference{Reference: "Patient/pat-1", Type: "Patient"}},
						{Actor: fhir.Reference{Reference: "PractitionerRole/role-1", Type: "PractitionerRole"}},
					},
				},
			}},
		},
		patients: map[string]*fhir.Patient{
			"pat-1": {
				ResourceType: "Patient",
				ID:           "pat-1",
				Identifier:   []fhir.Identifier{{Value: "12345678-9"}},
				Name:         []fhir.HumanName{{Given: []string{"María", "José"}, Family: "González"}},
				Telecom:      []fhir.ContactPoint{{System: "phone", Value: "+56912345678"}},
				Gender:       "female",
				BirthDate:    "1985-06-12",
			},
		},
		serviceRequests: map[string]*fhir.ServiceRequest{
			"sr-1": {
				ResourceType: "ServiceRequest",
				ID:           "sr-1",
				Code:         &fhir.CodeableConcept{Coding: []fhir.Coding{{Display: "Colecistectomía laparoscópica"}}},
				Category:     []fhir.CodeableConcept{{Coding: []fhir.Coding{{Display: "Surgical procedure"}}}},
			},
		},
		practitionerRoles: map[string]*fhir.PractitionerRole{
			"role-1": {
				ResourceType: "PractitionerRole",
				ID:           "role-1",
				Organization: &fhir.Reference{Reference: "Organization/org-1"},
			},
		},
		organizations: map[string]*fhir.Organization{
			"org-1": {ResourceType: "Organization", ID: "org-1", Name: "Hospital Regional de Talca"},
		},
	}
}

func newTestResolver(source Source) (*DefaultSyncService, *memAppointmentRepo, *memPatientRepo) {
	apptRepo := &memAppointmentRepo{items: make(map[string]models.Appointment)}
	ptRepo := &memPatientRepo{items: make(map[string]models.Patient)}
	return &DefaultSyncService{
		Source:          source,
		AppointmentRepo: apptRepo,
		PatientRepo:     ptRepo,
		Workers:         2,
	}, apptRepo, ptRepo
}

func TestResolve(t *testing.T) {
	svc, apptRepo, ptRepo := newTestResolver(fullSource())

	result, err := svc.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.AppointmentsProcessed != 1 || result.PatientsProcessed != 1 {
		t.Errorf("Resolve counts = %+v, want 1 appointment and 1 patient", result)
	}

	appt := apptRepo.items["appt-1"]
	if appt.Status != "booked" {
		t.Errorf("appointment status = %q, want booked", appt.Status)
	}
	if appt.ContactMethod != "Llamada" {
		t.Errorf("contact method = %q, want Llamada", appt.ContactMethod)
	}
	if appt.Contacted {
		t.Errorf("contacted = true, want false")
	}
	if appt.ServiceType != "Cirugía Mayor Ambulatoria" {
		t.Errorf("service type = %q", appt.ServiceType)
	}
	if appt.ServiceRequest.ID != "sr-1" || appt.ServiceRequest.Code != "Colecistectomía laparoscópica" {
		t.Errorf("service request = %+v", appt.ServiceRequest)
	}
	if appt.Organization.Name != "Hospital Regional de Talca" {
		t.Errorf("organization = %+v", appt.Organization)
	}
	if appt.PatientID != "pat-1" {
		t.Errorf("patient id = %q, want pat-1", appt.PatientID)
	}

	patient := ptRepo.items["pat-1"]
	if patient.GivenName != "María José" || patient.FamilyName != "González" {
		t.Errorf("patient name = %q %q", patient.GivenName, patient.FamilyName)
	}
	if patient.Phone != "+56912345678" {
		t.Errorf("patient phone = %q", patient.Phone)
	}
	if patient.RUN != "12345678-9" {
		t.Errorf("patient run = %q", patient.RUN)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	svc, apptRepo, ptRepo := newTestResolver(fullSource())
	ctx := context.Background()

	if _, err := svc.Resolve(ctx); err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}
	first := apptRepo.items["appt-1"]

	result, err := svc.Resolve(ctx)
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}
	if result.AppointmentsProcessed != 1 {
		t.Errorf("second batch processed %d appointments, want 1", result.AppointmentsProcessed)
	}
	if len(apptRepo.items) != 1 || len(ptRepo.items) != 1 {
		t.Errorf("re-run duplicated records: %d appointments, %d patients", len(apptRepo.items), len(ptRepo.items))
	}
	if apptRepo.items["appt-1"].FHIRID != first.FHIRID {
		t.Errorf("re-run changed the appointment identity")
	}
}

func TestResolveAuthFailureAbortsBatch(t *testing.T) {
	source := fullSource()
	source.authErr = &fhir.AuthError{Err: errors.New("invalid credentials")}
	svc, apptRepo, _ := newTestResolver(source)

	_, err := svc.Resolve(context.Background())
	var authErr *fhir.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Resolve error = %v, want AuthError", err)
	}
	if len(apptRepo.items) != 0 {
		t.Errorf("records upserted despite authentication failure")
	}
}

func TestResolveNestedFailureLeavesFieldsUnset(t *testing.T) {
	source := fullSource()
	// Nothing nested resolves; the appointment shell must still land.
	source.serviceRequests = nil
	source.practitionerRoles = nil
	source.patients = nil
	svc, apptRepo, ptRepo := newTestResolver(source)

	result, err := svc.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.AppointmentsProcessed != 1 || result.PatientsProcessed != 0 {
		t.Errorf("Resolve counts = %+v, want appointment without patient", result)
	}

	appt := apptRepo.items["appt-1"]
	if appt.ServiceRequest.ID != "" {
		t.Errorf("service request set despite fetch failure: %+v", appt.ServiceRequest)
	}
	if appt.Organization.ID != "" {
		t.Errorf("organization set despite fetch failure: %+v", appt.Organization)
	}
	if appt.PatientID != "" {
		t.Errorf("patient id set despite fetch failure: %q", appt.PatientID)
	}
	if len(ptRepo.items) != 0 {
		t.Errorf("patient upserted despite fetch failure")
	}
}
