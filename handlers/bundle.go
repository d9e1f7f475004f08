package handlers

import "github.com/gin-gonic/gin"

// HandlerBundle aggregates the handler functions main wires up so route
// registration takes a single dependency.
type HandlerBundle struct {
	// Call orchestration endpoints.
	CreateCallHandler     gin.HandlerFunc
	TwimlHandler          gin.HandlerFunc
	AudioHandler          gin.HandlerFunc
	HandleResponseHandler gin.HandlerFunc
	StatusWebhookHandler  gin.HandlerFunc
	CallStatusHandler     gin.HandlerFunc
	CancelCallHandler     gin.HandlerFunc

	// Resolver endpoints.
	RunSyncHandler gin.HandlerFunc

	// Appointment and patient endpoints.
	GetAppointmentsHandler    gin.HandlerFunc
	GetAppointmentByIDHandler gin.HandlerFunc
	GetPatientByIDHandler     gin.HandlerFunc
	UpdateCallOutcomeHandler  gin.HandlerFunc
}
