package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comptrack/comptrack-backend/internal/http/response"
	"github.com/comptrack/comptrack-backend/internal/platform/logger"
	"github.com/comptrack/comptrack-backend/internal/services"
)

type AnalyticsHandler struct {
	log       *logger.Logger
	analytics services.AnalyticsService
}

func NewAnalyticsHandler(baseLog *logger.Logger, analytics services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{log: baseLog.With("handler", "AnalyticsHandler"), analytics: analytics}
}

// GET /api/analytics/dashboard
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	stats, err := h.analytics.Dashboard(c.Request.Context())
	if err != nil {
		h.log.Error("Dashboard failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "load_dashboard_failed", err)
		return
	}
	response.RespondOK(c, stats)
}
