package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/comptrack/comptrack-backend/internal/http/response"
	"github.com/comptrack/comptrack-backend/internal/platform/ctxutil"
	"github.com/comptrack/comptrack-backend/internal/platform/logger"
	"github.com/comptrack/comptrack-backend/internal/realtime"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.Hub
}

func NewRealtimeHandler(baseLog *logger.Logger, hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{log: baseLog.With("handler", "RealtimeHandler"), hub: hub}
}

// GET /api/events/stream
func (h *RealtimeHandler) Stream(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	client := h.hub.NewClient(rd.UserID)
	h.hub.Subscribe(client, realtime.ChannelGlobal)
	h.log.Info("event stream open", "user_id", rd.UserID, "client_id", client.ID)

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	h.hub.CloseClient(client)
	h.log.Info("event stream closed", "user_id", rd.UserID, "client_id", client.ID)
}
