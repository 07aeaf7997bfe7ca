package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/comptrack/comptrack-backend/internal/http/response"
	"github.com/comptrack/comptrack-backend/internal/platform/logger"
	"github.com/comptrack/comptrack-backend/internal/services"
)

type ActivityHandler struct {
	log        *logger.Logger
	activities *services.ActivityService
}

func NewActivityHandler(baseLog *logger.Logger, activities *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{log: baseLog.With("handler", "ActivityHandler"), activities: activities}
}

// GET /api/activities
func (h *ActivityHandler) Recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rows, err := h.activities.Recent(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("Recent failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "list_activities_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"activities": rows})
}
