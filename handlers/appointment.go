package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appointmentRepo "asignaciones/database/repository/appointment"
	patientRepo "asignaciones/database/repository/patient"
	"asignaciones/models"
	"asignaciones/services/tracker"
	"asignaciones/utils"
)

// AppointmentHandler serves the resolved local records and the manual
// outcome override.
type AppointmentHandler struct {
	Appointments appointmentRepo.AppointmentRepository
	Patients     patientRepo.PatientRepository
	Tracker      tracker.TrackerService
}

func NewAppointmentHandler(appts appointmentRepo.AppointmentRepository, patients patientRepo.PatientRepository, trackerSvc tracker.TrackerService) *AppointmentHandler {
	return &AppointmentHandler{Appointments: appts, Patients: patients, Tracker: trackerSvc}
}

// GetAppointmentsHandler lists all resolved appointments, soonest first.
func (h *AppointmentHandler) GetAppointmentsHandler(c *gin.Context) {
	appts, err := h.Appointments.GetAll()
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to fetch appointments", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts, "count": len(appts)})
}

// GetAppointmentByIDHandler fetches one appointment by its FHIR id.
func (h *AppointmentHandler) GetAppointmentByIDHandler(c *gin.Context) {
	id := c.Param("id")
	appt, err := h.Appointments.GetByID(id)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to fetch appointment", err.Error())
		return
	}
	if appt == nil {
		utils.JSONError(c, http.StatusNotFound, "appointment not found", id)
		return
	}
	c.JSON(http.StatusOK, appt)
}

// GetPatientByIDHandler fetches one patient by its FHIR id.
func (h *AppointmentHandler) GetPatientByIDHandler(c *gin.Context) {
	id := c.Param("id")
	patient, err := h.Patients.GetByID(id)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to fetch patient", err.Error())
		return
	}
	if patient == nil {
		utils.JSONError(c, http.StatusNotFound, "patient not found", id)
		return
	}
	c.JSON(http.StatusOK, patient)
}

// UpdateCallOutcomeHandler manually overrides the outcome of a call-history
// entry, e.g. after an operator follow-up.
func (h *AppointmentHandler) UpdateCallOutcomeHandler(c *gin.Context) {
	id := c.Param("id")

	var input struct {
		Outcome models.Outcome `json:"outcome" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid call index", c.Param("index"))
		return
	}

	if !input.Outcome.Valid() {
		utils.JSONError(c, http.StatusBadRequest, "invalid outcome value", string(input.Outcome))
		return
	}

	if err := h.Tracker.UpdateOutcome(c.Request.Context(), id, index, input.Outcome); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to update outcome", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}
