package models

import "time"

// Patient is the normalized FHIR patient. Same upsert-by-id invariant as Appointment.
type Patient struct {
	FHIRID     string    `bson:"id" json:"id"`
	RUN        string    `bson:"run,omitempty" json:"run,omitempty"`
	GivenName  string    `bson:"givenName,omitempty" json:"givenName,omitempty"`
	FamilyName string    `bson:"familyName,omitempty" json:"familyName,omitempty"`
	Phone      string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Gender     string    `bson:"gender,omitempty" json:"gender,omitempty"`
	BirthDate  string    `bson:"birthDate,omitempty" json:"birthDate,omitempty"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

// FullName joins the given and family names for spoken use.
func (p Patient) FullName() string {
	switch {
	case p.GivenName == "":
		return p.FamilyName
	case p.FamilyName == "":
		return p.GivenName
	}
	return p.GivenName + " " + p.FamilyName
}
