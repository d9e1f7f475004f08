package sync

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	appointmentRepo "asignaciones/database/repository/appointment"
	patientRepo "asignaciones/database/repository/patient"
	"asignaciones/models"
	"asignaciones/services/fhir"
	"asignaciones/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultSyncService implements SyncService as a per-invocation batch
// pipeline. There is no sync cursor; correctness relies on the repositories'
// upsert idempotence, so re-running a batch over unchanged data is a no-op.
type DefaultSyncService struct {
	Source          Source
	AppointmentRepo appointmentRepo.AppointmentRepository
	PatientRepo     patientRepo.PatientRepository
	// Workers bounds parallel appointment resolution. Zero means sequential.
	Workers int
}

// Resolve authenticates, walks the appointment bundle and upserts the
// resolved targets. Authentication failure aborts the whole batch; any
// nested fetch failure only leaves the corresponding field unset.
func (s *DefaultSyncService) Resolve(ctx context.Context) (*SyncResult, error) {
	logger := utils.GetLogger()

	if err := s.Source.Authenticate(ctx); err != nil {
		return nil, err
	}

	bundle, err := s.Source.GetAppointments(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("resolving appointment bundle", zap.Int("total", bundle.Total))

	var appointments, patients int64

	g, gctx := errgroup.WithContext(ctx)
	workers := s.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for _, entry := range bundle.Entry {
		appt := entry.Resource
		g.Go(func() error {
			patientUpserted, err := s.resolveAppointment(gctx, appt)
			if err != nil {
				// Upsert failures are logged, not fatal: one broken record
				// must not block sync progress of the others.
				logger.Error("failed to resolve appointment",
					zap.String("appointmentId", appt.ID), zap.Error(err))
				return nil
			}
			atomic.AddInt64(&appointments, 1)
			if patientUpserted {
				atomic.AddInt64(&patients, 1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &SyncResult{
		AppointmentsProcessed: int(appointments),
		PatientsProcessed:     int(patients),
	}
	logger.Info("resolver batch finished",
		zap.Int("appointmentsProcessed", result.AppointmentsProcessed),
		zap.Int("patientsProcessed", result.PatientsProcessed))
	return result, nil
}

// resolveAppointment normalizes one appointment resource and upserts it with
// its patient. Nested fetches are each independently fault-tolerant.
func (s *DefaultSyncService) resolveAppointment(ctx context.Context, src fhir.Appointment) (bool, error) {
	logger := utils.GetLogger()

	appt := models.Appointment{
		FHIRID:  src.ID,
		Status:  src.Status,
		Start:   parseTime(src.Start),
		End:     parseTime(src.End),
		Created: parseTime(src.Created),
	}

	if ext := fhir.FindExtension(src.Extension, fhir.ExtContactMethod); ext != nil && ext.ValueCodeableConcept != nil {
		appt.ContactMethod = ext.ValueCodeableConcept.Display()
	}
	if ext := fhir.FindExtension(src.Extension, fhir.ExtContacted); ext != nil {
		if inner := fhir.FindExtension(ext.Extension, fhir.ExtContactedInner); inner != nil && inner.ValueBoolean != nil {
			appt.Contacted = *inner.ValueBoolean
		}
	}
	if len(src.ServiceType) > 0 {
		appt.ServiceType = src.ServiceType[0].Display()
	}

	// basedOn resolution must complete before the upsert so the service
	// request is attributed to this appointment from its first write.
	for _, ref := range src.BasedOn {
		if !strings.HasPrefix(ref.Reference, "ServiceRequest/") {
			continue
		}
		srID := ref.ID()
		sr, err := s.Source.GetServiceRequest(ctx, srID)
		if err != nil {
			logger.Warn("failed to fetch service request, leaving field unset",
				zap.String("appointmentId", src.ID), zap.String("serviceRequestId", srID), zap.Error(err))
			continue
		}
		appt.ServiceRequest = models.ServiceRequestRef{ID: sr.ID}
		if sr.Code != nil {
			appt.ServiceRequest.Code = sr.Code.Display()
		}
		if len(sr.Category) > 0 {
			appt.ServiceRequest.Category = sr.Category[0].Display()
		}
		break
	}

	var patient *models.Patient
	for _, participant := range src.Participant {
		switch participant.Actor.Type {
		case "Patient":
			id := participant.Actor.ID()
			src, err := s.Source.GetPatient(ctx, id)
			if err != nil {
				logger.Warn("failed to fetch patient, leaving field unset",
					zap.String("appointmentId", appt.FHIRID), zap.String("patientId", id), zap.Error(err))
				continue
			}
			p := normalizePatient(src)
			patient = &p
			appt.PatientID = p.FHIRID
		case "PractitionerRole":
			id := participant.Actor.ID()
			role, err := s.Source.GetPractitionerRole(ctx, id)
			if err != nil {
				logger.Warn("failed to fetch practitioner role, leaving field unset",
					zap.String("appointmentId", appt.FHIRID), zap.String("practitionerRoleId", id), zap.Error(err))
				continue
			}
			if role.Organization == nil {
				continue
			}
			orgID := role.Organization.ID()
			org, err := s.Source.GetOrganization(ctx, orgID)
			if err != nil {
				logger.Warn("failed to fetch organization, leaving field unset",
					zap.String("appointmentId", appt.FHIRID), zap.String("organizationId", orgID), zap.Error(err))
				continue
			}
			appt.Organization = models.OrganizationRef{ID: org.ID, Name: org.Name}
		}
	}

	patientUpserted := false
	if patient != nil {
		if err := s.PatientRepo.Upsert(patient); err != nil {
			return false, err
		}
		patientUpserted = true
	}
	if err := s.AppointmentRepo.Upsert(&appt); err != nil {
		return patientUpserted, err
	}
	return patientUpserted, nil
}

// normalizePatient flattens a FHIR patient: joined given names + family
// name, first phone-type contact point, first identifier value.
func normalizePatient(src *fhir.Patient) models.Patient {
	p := models.Patient{
		FHIRID:    src.ID,
		Gender:    src.Gender,
		BirthDate: src.BirthDate,
	}
	if len(src.Name) > 0 {
		p.GivenName = strings.Join(src.Name[0].Given, " ")
		p.FamilyName = src.Name[0].Family
	}
	for _, telecom := range src.Telecom {
		if telecom.System == "phone" {
			p.Phone = telecom.Value
			break
		}
	}
	if len(src.Identifier) > 0 {
		p.RUN = src.Identifier[0].Value
	}
	return p
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
