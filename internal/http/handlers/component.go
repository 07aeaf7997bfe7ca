package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/comptrack/comptrack-backend/internal/data/repos"
	"github.com/comptrack/comptrack-backend/internal/http/response"
	"github.com/comptrack/comptrack-backend/internal/platform/ctxutil"
	"github.com/comptrack/comptrack-backend/internal/platform/logger"
	"github.com/comptrack/comptrack-backend/internal/services"
)

type ComponentHandler struct {
	log        *logger.Logger
	components services.ComponentService
	activities *services.ActivityService
}

func NewComponentHandler(baseLog *logger.Logger, components services.ComponentService, activities *services.ActivityService) *ComponentHandler {
	return &ComponentHandler{
		log:        baseLog.With("handler", "ComponentHandler"),
		components: components,
		activities: activities,
	}
}

// GET /api/components
func (h *ComponentHandler) List(c *gin.Context) {
	filter := repos.ComponentFilter{
		Search:     c.Query("search"),
		Status:     c.Query("status"),
		Complexity: c.Query("complexity"),
	}
	if raw := c.Query("tower_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_tower_id", err)
			return
		}
		filter.TowerID = id
	}
	filter.Year, _ = strconv.Atoi(c.Query("year"))
	filter.Month, _ = strconv.Atoi(c.Query("month"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	filter.Offset, _ = strconv.Atoi(c.Query("offset"))

	comps, err := h.components.List(c.Request.Context(), filter)
	if err != nil {
		h.log.Error("List failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "list_components_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"components": comps, "count": len(comps)})
}

// GET /api/components/:id
func (h *ComponentHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_component_id", err)
		return
	}
	comp, err := h.components.Get(c.Request.Context(), id)
	if errors.Is(err, services.ErrComponentNotFound) {
		response.RespondError(c, http.StatusNotFound, "component_not_found", err)
		return
	}
	if err != nil {
		h.log.Error("Get failed", "error", err, "component_id", id)
		response.RespondError(c, http.StatusInternalServerError, "load_component_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"component": comp})
}

// GET /api/components/:id/activities
func (h *ComponentHandler) Activities(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_component_id", err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rows, err := h.activities.ForComponent(c.Request.Context(), id, limit)
	if err != nil {
		h.log.Error("Activities failed", "error", err, "component_id", id)
		response.RespondError(c, http.StatusInternalServerError, "list_activities_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"activities": rows})
}

// POST /api/components
func (h *ComponentHandler) Create(c *gin.Context) {
	var req services.ComponentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	comp, err := h.components.Create(c.Request.Context(), req, ctxutil.ActorID(c.Request.Context()))
	if err != nil {
		h.log.Error("Create failed", "error", err)
		response.RespondError(c, http.StatusBadRequest, "create_component_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"component": comp})
}

// PUT /api/components/:id
func (h *ComponentHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_component_id", err)
		return
	}
	var req services.ComponentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	comp, err := h.components.Update(c.Request.Context(), id, req, ctxutil.ActorID(c.Request.Context()))
	if errors.Is(err, services.ErrComponentNotFound) {
		response.RespondError(c, http.StatusNotFound, "component_not_found", err)
		return
	}
	if err != nil {
		h.log.Error("Update failed", "error", err, "component_id", id)
		response.RespondError(c, http.StatusInternalServerError, "update_component_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"component": comp})
}

// DELETE /api/components/:id
func (h *ComponentHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_component_id", err)
		return
	}
	err = h.components.Delete(c.Request.Context(), id, ctxutil.ActorID(c.Request.Context()))
	if errors.Is(err, services.ErrComponentNotFound) {
		response.RespondError(c, http.StatusNotFound, "component_not_found", err)
		return
	}
	if err != nil {
		h.log.Error("Delete failed", "error", err, "component_id", id)
		response.RespondError(c, http.StatusInternalServerError, "delete_component_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /api/components/export
func (h *ComponentHandler) ExportCSV(c *gin.Context) {
	filename := fmt.Sprintf("components-%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	w := csv.NewWriter(c.Writer)
	n, err := h.components.ExportCSV(c.Request.Context(), w)
	if err != nil {
		// Headers may already be out; log and bail.
		h.log.Error("ExportCSV failed", "error", err, "rows_written", n)
		return
	}
}
