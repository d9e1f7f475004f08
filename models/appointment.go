package models

import "time"

// ServiceRequestRef is the resolved basedOn ServiceRequest of an appointment.
type ServiceRequestRef struct {
	ID       string `bson:"id,omitempty" json:"id,omitempty"`
	Code     string `bson:"code,omitempty" json:"code,omitempty"`
	Category string `bson:"category,omitempty" json:"category,omitempty"`
}

// OrganizationRef is the organization reached through the appointment's
// PractitionerRole participant.
type OrganizationRef struct {
	ID   string `bson:"id,omitempty" json:"id,omitempty"`
	Name string `bson:"name,omitempty" json:"name,omitempty"`
}

// Appointment is the normalized notification target resolved from the FHIR
// source. Exactly one document exists per FHIR id; repeated resolution is an
// upsert, never a duplicate.
type Appointment struct {
	FHIRID         string            `bson:"id" json:"id"`
	Status         string            `bson:"status" json:"status"`
	ServiceType    string            `bson:"serviceType,omitempty" json:"serviceType,omitempty"`
	Start          time.Time         `bson:"start,omitempty" json:"start,omitempty"`
	End            time.Time         `bson:"end,omitempty" json:"end,omitempty"`
	Created        time.Time         `bson:"created,omitempty" json:"created,omitempty"`
	ContactMethod  string            `bson:"contactMethod,omitempty" json:"contactMethod,omitempty"`
	Contacted      bool              `bson:"contacted" json:"contacted"`
	ServiceRequest ServiceRequestRef `bson:"serviceRequest,omitempty" json:"serviceRequest,omitempty"`
	Organization   OrganizationRef   `bson:"organization,omitempty" json:"organization,omitempty"`
	// PatientID is a weak reference by FHIR id, resolved by lookup.
	PatientID   string       `bson:"patientId,omitempty" json:"patientId,omitempty"`
	CallHistory []CallRecord `bson:"callHistory" json:"callHistory"`
	CreatedAt   time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time    `bson:"updatedAt" json:"updatedAt"`
}
