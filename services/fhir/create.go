// File: services/fhir/create.go
//
// PUT-based resource creation, used by the seeding tool to stand up demo
// Patient/ServiceRequest/Appointment triples on the source server.
package fhir

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const codeSystemSnomed = "http://snomed.info/sct"

const (
	csTipoIdentificador = "https://hl7chile.cl/fhir/ig/clcore/CodeSystem/CSTipoIdentificador"
	csTipoCirugia       = "https://interoperabilidad.minsal.cl/fhir/ig/quirurgico/CodeSystem/CSTipoCirugiaPropuesta"
	csMedioContacto     = "https://interoperabilidad.minsal.cl/fhir/ig/quirurgico/CodeSystem/CSMediodeContacto"
	csTipoServicio      = "https://interoperabilidad.minsal.cl/fhir/ig/quirurgico/CodeSystem/CSTipoServicioAgendamiento"
)

// CreatePatient creates (or replaces) a patient with the given demographics.
// An empty run gets a generated TEST- identifier.
func (c *Client) CreatePatient(ctx context.Context, id, givenName, familyName, phone, run string) (*Patient, error) {
	if id == "" {
		id = uuid.New().String()
	}
	if run == "" {
		run = "TEST-" + strings.ToUpper(uuid.New().String()[:8])
	}

	patient := Patient{
		ResourceType: "Patient",
		ID:           id,
		Meta:         &Meta{Profile: []string{ProfilePatient}},
		Identifier: []Identifier{{
			Type: &CodeableConcept{Coding: []Coding{{
				System:  csTipoIdentificador,
				Code:    "01",
				Display: "RUN",
			}}},
			Value: run,
		}},
		Name: []HumanName{{
			Use:    "official",
			Family: familyName,
			Given:  []string{givenName},
		}},
		Telecom:   []ContactPoint{{System: "phone", Value: phone}},
		Gender:    "unknown",
		BirthDate: "1990-01-01",
	}

	var created Patient
	if err := c.put(ctx, "/Patient/"+id, patient, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// CreateServiceRequest creates a surgical service request for a patient.
func (c *Client) CreateServiceRequest(ctx context.Context, id, patientID, practitionerRoleID, codeDisplay string) (*ServiceRequest, error) {
	if id == "" {
		id = uuid.New().String()
	}
	if codeDisplay == "" {
		codeDisplay = "Consulta general"
	}

	sr := ServiceRequest{
		ResourceType: "ServiceRequest",
		ID:           id,
		Meta:         &Meta{Profile: []string{ProfileServiceRequest}},
		Identifier: []Identifier{{
			Value: fmt.Sprintf("SR-%s-%s", time.Now().Format("20060102"), strings.ToUpper(uuid.New().String()[:4])),
		}},
		Status:   "active",
		Intent:   "order",
		Priority: "routine",
		Category: []CodeableConcept{{Coding: []Coding{{
			System:  csTipoCirugia,
			Code:    "1",
			Display: "Cirugía Mayor Electiva",
		}}}},
		Code: &CodeableConcept{Coding: []Coding{{
			System:  codeSystemSnomed,
			Code:    "183452005",
			Display: codeDisplay,
		}}},
		Subject:    &Reference{Reference: "Patient/" + patientID},
		AuthoredOn: time.Now().Format(time.RFC3339),
		Requester:  &Reference{Reference: "PractitionerRole/" + practitionerRoleID},
	}

	var created ServiceRequest
	if err := c.put(ctx, "/ServiceRequest/"+id, sr, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// CreateAppointment creates a booked appointment based on a service request,
// flagged for contact by call and not yet contacted.
func (c *Client) CreateAppointment(ctx context.Context, id, patientID, serviceRequestID, practitionerRoleID string, start, end time.Time) (*Appointment, error) {
	if id == "" {
		id = uuid.New().String()
	}
	if end.IsZero() {
		end = start.Add(30 * time.Minute)
	}

	notContacted := false
	appt := Appointment{
		ResourceType: "Appointment",
		ID:           id,
		Meta:         &Meta{Profile: []string{ProfileAppointment}},
		Extension: []Extension{
			{
				URL: ExtContactMethod,
				ValueCodeableConcept: &CodeableConcept{Coding: []Coding{{
					System:  csMedioContacto,
					Code:    "3",
					Display: "Llamada",
				}}},
			},
			{
				URL: ExtContacted,
				Extension: []Extension{{
					URL:          ExtContactedInner,
					ValueBoolean: &notContacted,
				}},
			},
		},
		Identifier: []Identifier{{
			Value: fmt.Sprintf("CITA-%s-%s", start.Format("20060102"), strings.ToUpper(uuid.New().String()[:4])),
		}},
		Status: "booked",
		ServiceType: []CodeableConcept{{Coding: []Coding{{
			System:  csTipoServicio,
			Code:    "1",
			Display: "Entrevista Pre Quirúrgica",
		}}}},
		Start:   start.Format("2006-01-02T15:04:05-07:00"),
		End:     end.Format("2006-01-02T15:04:05-07:00"),
		Created: time.Now().Format("2006-01-02T15:04:05-07:00"),
		BasedOn: []Reference{{Reference: "ServiceRequest/" + serviceRequestID}},
		Participant: []Participant{
			{Actor: Reference{Reference: "Patient/" + patientID, Type: "Patient"}, Status: "accepted"},
			{Actor: Reference{Reference: "PractitionerRole/" + practitionerRoleID, Type: "PractitionerRole"}, Status: "accepted"},
		},
	}

	var created Appointment
	if err := c.put(ctx, "/Appointment/"+id, appt, &created); err != nil {
		return nil, err
	}
	return &created, nil
}
