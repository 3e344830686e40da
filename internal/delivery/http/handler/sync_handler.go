package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/platform/netmon"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/service"
)

// SyncHandler expose l'état de synchronisation et les deux signaux poussés
// par le device: sa connectivité et sa position.
type SyncHandler struct {
	syncService service.SyncService
	geofence    service.GeofenceService
	monitor     netmon.Monitor
}

func NewSyncHandler(ss service.SyncService, gs service.GeofenceService, monitor netmon.Monitor) *SyncHandler {
	return &SyncHandler{
		syncService: ss,
		geofence:    gs,
		monitor:     monitor,
	}
}

// Status retourne le compteur pending et le résultat de la dernière passe
func (h *SyncHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.syncService.Status())
}

// ReportNetwork reçoit l'état de connectivité poussé par le device.
// Le passage offline -> online déclenche une passe de synchronisation.
func (h *SyncHandler) ReportNetwork(c *gin.Context) {
	var input struct {
		Online *bool `json:"online" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	manual, ok := h.monitor.(*netmon.Manual)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "connectivity is probe-driven on this deployment"})
		return
	}

	manual.Set(*input.Online)
	c.JSON(http.StatusOK, gin.H{"online": *input.Online})
}

// ReportLocation reçoit un échantillon de position du device et l'évalue
// contre les geofences enregistrées.
func (h *SyncHandler) ReportLocation(c *gin.Context) {
	var input struct {
		Latitude  *float64 `json:"latitude" binding:"required"`
		Longitude *float64 `json:"longitude" binding:"required"`
		Altitude  float64  `json:"altitude"`
		Accuracy  float64  `json:"accuracy"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.geofence.OnLocation(c.Request.Context(), *input.Latitude, *input.Longitude)
	c.JSON(http.StatusAccepted, gin.H{"watched": len(h.geofence.Registered())})
}
