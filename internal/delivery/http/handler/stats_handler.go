package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/service"
)

type StatsHandler struct {
	statsService service.StatsService
}

func NewStatsHandler(ss service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: ss}
}

// GetStats retourne les statistiques agrégées pour le tableau de bord
func (h *StatsHandler) GetStats(c *gin.Context) {
	stats, err := h.statsService.Aggregate(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}
