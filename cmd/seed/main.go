// Seeds demo Patient/ServiceRequest/Appointment triples on the FHIR source
// so the resolver and the call pipeline can be exercised end to end.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"asignaciones/config"
	"asignaciones/services/fhir"
)

// Existing PractitionerRole on the demo server; appointments need a
// practitioner participant and the seeder does not create roles.
const defaultPractitionerRoleID = "0e5c9353-5f8e-4801-b7fc-59395f14344c"

var surgeryTypes = []string{
	"Colecistectomía laparoscópica",
	"Hernioplastia inguinal",
	"Apendicectomía",
	"Safenectomía",
	"Tiroidectomía total",
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	count := flag.Int("count", 3, "number of appointment triples to create")
	phone := flag.String("phone", "", "destination phone for every seeded patient (defaults to random Chilean mobiles)")
	practitionerRole := flag.String("practitioner-role", defaultPractitionerRoleID, "existing PractitionerRole id to attach")
	flag.Parse()

	config.LoadConfig()

	client := fhir.NewClient(fhir.ClientConfig{
		AuthURL:      config.AppConfig.FHIRAuthURL,
		BaseURL:      config.AppConfig.FHIRBaseURL,
		ClientID:     config.AppConfig.FHIRClientID,
		ClientSecret: config.AppConfig.FHIRClientSecret,
		Username:     config.AppConfig.FHIRUsername,
		Password:     config.AppConfig.FHIRPassword,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := client.Authenticate(ctx); err != nil {
		log.Fatalf("authenticate: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	for i := 0; i < *count; i++ {
		if err := seedTriple(ctx, client, *phone, *practitionerRole, i); err != nil {
			log.Fatalf("seed triple %d: %v", i+1, err)
		}
	}

	log.Printf("seed complete: %d appointments created", *count)
}

func seedTriple(ctx context.Context, client *fhir.Client, phone, practitionerRoleID string, n int) error {
	if phone == "" {
		phone = fmt.Sprintf("+569%08d", gofakeit.Number(10000000, 99999999))
	}

	patientID := uuid.New().String()
	patient, err := client.CreatePatient(ctx, patientID,
		gofakeit.FirstName(), gofakeit.LastName(), phone, "")
	if err != nil {
		return fmt.Errorf("create patient: %w", err)
	}

	surgery := surgeryTypes[gofakeit.Number(0, len(surgeryTypes)-1)]
	sr, err := client.CreateServiceRequest(ctx, uuid.New().String(),
		patient.ID, practitionerRoleID, surgery)
	if err != nil {
		return fmt.Errorf("create service request: %w", err)
	}

	// Spread the appointments over the coming days, morning slots.
	start := time.Now().AddDate(0, 0, n+1)
	start = time.Date(start.Year(), start.Month(), start.Day(),
		9+gofakeit.Number(0, 3), 0, 0, 0, start.Location())
	end := start.Add(30 * time.Minute)

	appt, err := client.CreateAppointment(ctx, uuid.New().String(),
		patient.ID, sr.ID, practitionerRoleID, start, end)
	if err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}

	log.Printf("created appointment %s for %s (%s) at %s",
		appt.ID, patient.ID, phone, start.Format(time.RFC3339))
	return nil
}
