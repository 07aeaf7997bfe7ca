package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/comptrack/comptrack-backend/internal/http/response"
	"github.com/comptrack/comptrack-backend/internal/platform/ctxutil"
	"github.com/comptrack/comptrack-backend/internal/platform/logger"
	"github.com/comptrack/comptrack-backend/internal/services"
)

type TowerHandler struct {
	log    *logger.Logger
	towers services.TowerService
}

func NewTowerHandler(baseLog *logger.Logger, towers services.TowerService) *TowerHandler {
	return &TowerHandler{log: baseLog.With("handler", "TowerHandler"), towers: towers}
}

// GET /api/towers
func (h *TowerHandler) List(c *gin.Context) {
	rows, err := h.towers.List(c.Request.Context())
	if err != nil {
		h.log.Error("List failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "list_towers_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"towers": rows})
}

// GET /api/towers/:id
func (h *TowerHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_tower_id", err)
		return
	}
	tower, err := h.towers.Get(c.Request.Context(), id)
	if errors.Is(err, services.ErrTowerNotFound) {
		response.RespondError(c, http.StatusNotFound, "tower_not_found", err)
		return
	}
	if err != nil {
		h.log.Error("Get failed", "error", err, "tower_id", id)
		response.RespondError(c, http.StatusInternalServerError, "load_tower_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"tower": tower})
}

// POST /api/towers
func (h *TowerHandler) Create(c *gin.Context) {
	var req services.TowerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	tower, err := h.towers.Create(c.Request.Context(), req, ctxutil.ActorID(c.Request.Context()))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "create_tower_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"tower": tower})
}

// PUT /api/towers/:id
func (h *TowerHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_tower_id", err)
		return
	}
	var req services.TowerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	tower, err := h.towers.Update(c.Request.Context(), id, req, ctxutil.ActorID(c.Request.Context()))
	if errors.Is(err, services.ErrTowerNotFound) {
		response.RespondError(c, http.StatusNotFound, "tower_not_found", err)
		return
	}
	if err != nil {
		h.log.Error("Update failed", "error", err, "tower_id", id)
		response.RespondError(c, http.StatusInternalServerError, "update_tower_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"tower": tower})
}

// DELETE /api/towers/:id
func (h *TowerHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_tower_id", err)
		return
	}
	err = h.towers.Delete(c.Request.Context(), id, ctxutil.ActorID(c.Request.Context()))
	if errors.Is(err, services.ErrTowerNotFound) {
		response.RespondError(c, http.StatusNotFound, "tower_not_found", err)
		return
	}
	if err != nil {
		h.log.Error("Delete failed", "error", err, "tower_id", id)
		response.RespondError(c, http.StatusInternalServerError, "delete_tower_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
