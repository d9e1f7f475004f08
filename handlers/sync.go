package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"asignaciones/services/fhir"
	"asignaciones/services/sync"
	"asignaciones/utils"
)

// SyncHandler triggers a resolver batch on demand.
type SyncHandler struct {
	Sync sync.SyncService
}

func NewSyncHandler(syncSvc sync.SyncService) *SyncHandler {
	return &SyncHandler{Sync: syncSvc}
}

// RunSyncHandler runs one resolver batch synchronously and reports counts.
func (h *SyncHandler) RunSyncHandler(c *gin.Context) {
	result, err := h.Sync.Resolve(c.Request.Context())
	if err != nil {
		var authErr *fhir.AuthError
		if errors.As(err, &authErr) {
			utils.JSONError(c, http.StatusBadGateway, "clinical data source authentication failed", err.Error())
			return
		}
		utils.JSONError(c, http.StatusBadGateway, "resolver batch failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}
