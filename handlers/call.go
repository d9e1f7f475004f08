package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"asignaciones/cron"
	"asignaciones/models"
	"asignaciones/services/call"
	"asignaciones/services/tasks"
	"asignaciones/services/tracker"
	"asignaciones/utils"
)

// CallHandler exposes the call orchestrator and the telephony provider's
// control-path callbacks over HTTP.
type CallHandler struct {
	Calls   call.CallService
	Tracker tracker.TrackerService
	Logger  *zap.Logger
}

func NewCallHandler(calls call.CallService, trackerSvc tracker.TrackerService, logger *zap.Logger) *CallHandler {
	return &CallHandler{Calls: calls, Tracker: trackerSvc, Logger: logger}
}

// CreateCallHandler places an outbound notification call. When the request
// names an appointment the call is also recorded in its history and a
// background poll task follows the outcome.
func (h *CallHandler) CreateCallHandler(c *gin.Context) {
	var req models.CallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	callID, callSID, err := h.Calls.CreateCall(c.Request.Context(), req)
	if err != nil {
		var invalidPhone *call.InvalidPhoneError
		var providerErr *call.ProviderError
		switch {
		case errors.As(err, &invalidPhone):
			utils.JSONError(c, http.StatusBadRequest, "invalid phone number", err.Error())
		case errors.As(err, &providerErr):
			utils.JSONError(c, http.StatusBadGateway, "failed to place call", err.Error())
		default:
			utils.JSONError(c, http.StatusInternalServerError, "failed to place call", err.Error())
		}
		return
	}

	if req.AppointmentID != "" {
		index, recErr := h.Tracker.RecordCall(c.Request.Context(), req.AppointmentID, callSID, time.Now())
		if recErr != nil {
			h.Logger.Warn("call placed but history record failed",
				zap.String("appointmentId", req.AppointmentID),
				zap.String("callSid", callSID),
				zap.Error(recErr))
		} else if qErr := cron.EnqueueCallPoll(tasks.CallPollPayload{
			AppointmentID: req.AppointmentID,
			CallIndex:     index,
			CallSID:       callSID,
		}); qErr != nil {
			h.Logger.Warn("failed to enqueue outcome poll",
				zap.String("callSid", callSID), zap.Error(qErr))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"call_id":  callID,
		"call_sid": callSID,
		"status":   "initiated",
	})
}

// TwimlHandler serves the voice instructions the provider fetches when the
// callee picks up. The provider may re-request it on redirects.
func (h *CallHandler) TwimlHandler(c *gin.Context) {
	callID := c.Param("callId")
	twiml, err := h.Calls.Instructions(c.Request.Context(), callID)
	if err != nil {
		var notFound *call.NotFoundError
		if errors.As(err, &notFound) {
			utils.JSONError(c, http.StatusNotFound, "call not found", err.Error())
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "failed to build instructions", err.Error())
		return
	}
	c.Data(http.StatusOK, "application/xml", []byte(twiml))
}

// AudioHandler streams the synthesized voice message for a registered call.
func (h *CallHandler) AudioHandler(c *gin.Context) {
	callID := c.Param("callId")
	audio, err := h.Calls.Audio(c.Request.Context(), callID)
	if err != nil {
		var notFound *call.NotFoundError
		if errors.As(err, &notFound) {
			utils.JSONError(c, http.StatusNotFound, "call not found", err.Error())
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "failed to synthesize audio", err.Error())
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}

// HandleResponseHandler records the DTMF digit the callee pressed and
// returns the closing script.
func (h *CallHandler) HandleResponseHandler(c *gin.Context) {
	callID := c.Param("callId")
	digits := c.PostForm("Digits")

	twiml, err := h.Calls.HandleResponse(c.Request.Context(), callID, digits)
	if err != nil {
		var notFound *call.NotFoundError
		if errors.As(err, &notFound) {
			utils.JSONError(c, http.StatusNotFound, "call not found", err.Error())
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "failed to handle response", err.Error())
		return
	}
	c.Data(http.StatusOK, "application/xml", []byte(twiml))
}

// StatusWebhookHandler ingests provider status pushes so pollers and status
// reads observe call progress without extra provider round-trips.
func (h *CallHandler) StatusWebhookHandler(c *gin.Context) {
	callSID := c.PostForm("CallSid")
	callStatus := c.PostForm("CallStatus")
	if callSID == "" {
		utils.JSONError(c, http.StatusBadRequest, "missing CallSid", "")
		return
	}

	outcome := h.Tracker.HandleWebhook(callSID, callStatus)
	c.JSON(http.StatusOK, gin.H{"call_sid": callSID, "outcome": outcome})
}

// CallStatusHandler reports the last known provider status of a call.
func (h *CallHandler) CallStatusHandler(c *gin.Context) {
	callSID := c.Param("callSid")
	status, outcome, err := h.Tracker.CallStatus(c.Request.Context(), callSID)
	if err != nil {
		utils.JSONError(c, http.StatusBadGateway, "failed to query call status", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"call_sid": callSID,
		"status":   status,
		"outcome":  outcome,
	})
}

// CancelCallHandler terminates an in-progress call. A cancelled notification
// never reached the patient, so its outcome is forced to failed.
func (h *CallHandler) CancelCallHandler(c *gin.Context) {
	callSID := c.Param("callSid")
	if err := h.Calls.CancelCall(c.Request.Context(), callSID); err != nil {
		var notFound *call.NotFoundError
		if errors.As(err, &notFound) {
			utils.JSONError(c, http.StatusNotFound, "call not found", err.Error())
			return
		}
		utils.JSONError(c, http.StatusBadGateway, "failed to cancel call", err.Error())
		return
	}

	h.Tracker.HandleWebhook(callSID, "canceled")
	c.JSON(http.StatusOK, gin.H{"success": true, "call_sid": callSID})
}
