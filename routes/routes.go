package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"asignaciones/handlers"
	"asignaciones/utils"
)

// RegisterCallRoutes registers the call orchestration endpoints plus the
// provider-facing control path (instructions, audio, DTMF, status pushes).
func RegisterCallRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/call", hb.CreateCallHandler)
	r.GET("/twiml/:callId", hb.TwimlHandler)
	r.POST("/twiml/:callId", hb.TwimlHandler)
	r.GET("/audio/:callId", hb.AudioHandler)
	r.POST("/handle-response/:callId", hb.HandleResponseHandler)
	r.POST("/call-status-webhook", hb.StatusWebhookHandler)
	r.GET("/call-status/:callSid", hb.CallStatusHandler)
	r.POST("/cancel-call/:callSid", hb.CancelCallHandler)
}

// RegisterAppointmentRoutes registers the resolved-record endpoints.
func RegisterAppointmentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api")
	{
		api.POST("/sync", hb.RunSyncHandler)
		api.GET("/appointments", hb.GetAppointmentsHandler)
		api.GET("/appointments/:id", hb.GetAppointmentByIDHandler)
		api.GET("/patients/:id", hb.GetPatientByIDHandler)
		api.PATCH("/appointments/:id/calls/:index", hb.UpdateCallOutcomeHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "health": utils.GetHealthStatus()})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterCallRoutes(r, hb)
	RegisterAppointmentRoutes(r, hb)
	RegisterHealthRoute(r)
}
