package fhir

import "strings"

// Stable extension URLs from the MINSAL surgical implementation guide.
// Extraction always matches these whole identifiers, never substrings.
const (
	ExtContactMethod = "https://interoperabilidad.minsal.cl/fhir/ig/quirurgico/StructureDefinition/ExtensionMediodeContacto"
	ExtContacted     = "https://interoperabilidad.minsal.cl/fhir/ig/quirurgico/StructureDefinition/Contactado"
	// ExtContactedInner is the nested boolean inside ExtContacted.
	ExtContactedInner = "Contactado"
)

// Resource profiles used when seeding demo data.
const (
	ProfilePatient        = "https://interoperabilidad.minsal.cl/fhir/ig/quirurgico/StructureDefinition/PatientLE"
	ProfileServiceRequest = "https://interoperabilidad.minsal.cl/fhir/ig/quirurgico/StructureDefinition/ServiceRequestCirugiaLE"
	ProfileAppointment    = "https://interoperabilidad.minsal.cl/fhir/ig/quirurgico/StructureDefinition/AppointmentAgendarLE"
)

// Meta carries resource profile tags.
type Meta struct {
	Profile []string `json:"profile,omitempty"`
}

// Coding is a single coded value from a code system.
type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

// CodeableConcept is a set of codings with an optional free-text label.
type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// Display returns the concept's text, or the first coding's display.
func (c CodeableConcept) Display() string {
	if c.Text != "" {
		return c.Text
	}
	if len(c.Coding) > 0 {
		return c.Coding[0].Display
	}
	return ""
}

// Extension is one node of the FHIR extension tree.
type Extension struct {
	URL                  string           `json:"url"`
	ValueBoolean         *bool            `json:"valueBoolean,omitempty"`
	ValueString          string           `json:"valueString,omitempty"`
	ValueCodeableConcept *CodeableConcept `json:"valueCodeableConcept,omitempty"`
	Extension            []Extension      `json:"extension,omitempty"`
}

// FindExtension returns the first extension whose URL equals url exactly.
func FindExtension(exts []Extension, url string) *Extension {
	for i := range exts {
		if exts[i].URL == url {
			return &exts[i]
		}
	}
	return nil
}

// Reference points at another resource, e.g. "Patient/abc".
type Reference struct {
	Reference string `json:"reference,omitempty"`
	Type      string `json:"type,omitempty"`
	Display   string `json:"display,omitempty"`
}

// ID extracts the resource id from a "ResourceType/id" reference.
func (r Reference) ID() string {
	if i := strings.LastIndex(r.Reference, "/"); i >= 0 {
		return r.Reference[i+1:]
	}
	return r.Reference
}

// Identifier is a business identifier carried by a resource.
type Identifier struct {
	Type  *CodeableConcept `json:"type,omitempty"`
	Value string           `json:"value,omitempty"`
}

// HumanName is a name split into given and family parts.
type HumanName struct {
	Use    string   `json:"use,omitempty"`
	Family string   `json:"family,omitempty"`
	Given  []string `json:"given,omitempty"`
}

// ContactPoint is a telecom entry (phone, email, ...).
type ContactPoint struct {
	System string `json:"system,omitempty"`
	Value  string `json:"value,omitempty"`
}

// Participant links an appointment to an actor resource.
type Participant struct {
	Actor  Reference `json:"actor"`
	Status string    `json:"status,omitempty"`
}

// Appointment is the FHIR appointment resource, limited to the fields the
// resolver consumes.
type Appointment struct {
	ResourceType string            `json:"resourceType"`
	ID           string            `json:"id"`
	Meta         *Meta             `json:"meta,omitempty"`
	Extension    []Extension       `json:"extension,omitempty"`
	Identifier   []Identifier      `json:"identifier,omitempty"`
	Status       string            `json:"status,omitempty"`
	ServiceType  []CodeableConcept `json:"serviceType,omitempty"`
	Start        string            `json:"start,omitempty"`
	End          string            `json:"end,omitempty"`
	Created      string            `json:"created,omitempty"`
	BasedOn      []Reference       `json:"basedOn,omitempty"`
	Participant  []Participant     `json:"participant,omitempty"`
}

// Patient is the FHIR patient resource.
type Patient struct {
	ResourceType string         `json:"resourceType"`
	ID           string         `json:"id"`
	Meta         *Meta          `json:"meta,omitempty"`
	Identifier   []Identifier   `json:"identifier,omitempty"`
	Name         []HumanName    `json:"name,omitempty"`
	Telecom      []ContactPoint `json:"telecom,omitempty"`
	Gender       string         `json:"gender,omitempty"`
	BirthDate    string         `json:"birthDate,omitempty"`
}

// ServiceRequest is the FHIR service request resource.
type ServiceRequest struct {
	ResourceType string            `json:"resourceType"`
	ID           string            `json:"id"`
	Meta         *Meta             `json:"meta,omitempty"`
	Identifier   []Identifier      `json:"identifier,omitempty"`
	Status       string            `json:"status,omitempty"`
	Intent       string            `json:"intent,omitempty"`
	Priority     string            `json:"priority,omitempty"`
	Category     []CodeableConcept `json:"category,omitempty"`
	Code         *CodeableConcept  `json:"code,omitempty"`
	Subject      *Reference        `json:"subject,omitempty"`
	AuthoredOn   string            `json:"authoredOn,omitempty"`
	Requester    *Reference        `json:"requester,omitempty"`
}

// PractitionerRole is the FHIR practitioner role resource.
type PractitionerRole struct {
	ResourceType string     `json:"resourceType"`
	ID           string     `json:"id"`
	Organization *Reference `json:"organization,omitempty"`
}

// Organization is the FHIR organization resource.
type Organization struct {
	ResourceType string `json:"resourceType"`
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
}

// BundleEntry wraps one resource inside a bundle.
type BundleEntry struct {
	Resource Appointment `json:"resource"`
}

// Bundle is a paginated collection response.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	Total        int           `json:"total"`
	Entry        []BundleEntry `json:"entry,omitempty"`
}
