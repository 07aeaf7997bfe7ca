package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/comptrack/comptrack-backend/internal/http/response"
	"github.com/comptrack/comptrack-backend/internal/ingest"
	"github.com/comptrack/comptrack-backend/internal/platform/ctxutil"
	"github.com/comptrack/comptrack-backend/internal/platform/logger"
	"github.com/comptrack/comptrack-backend/internal/services"
)

type UploadHandler struct {
	log     *logger.Logger
	uploads *services.UploadService
}

func NewUploadHandler(baseLog *logger.Logger, uploads *services.UploadService) *UploadHandler {
	return &UploadHandler{log: baseLog.With("handler", "UploadHandler"), uploads: uploads}
}

type previewResponse struct {
	Success     bool            `json:"success"`
	PreviewData []ingest.Record `json:"previewData"`
	TotalRows   int             `json:"totalRows"`
	PreviewRows int             `json:"previewRows"`
	Warnings    []string        `json:"warnings"`
}

type commitResponse struct {
	Success     bool     `json:"success"`
	Created     int      `json:"created"`
	Updated     int      `json:"updated"`
	Errors      []string `json:"errors"`
	TotalErrors int      `json:"totalErrors"`
	Warnings    []string `json:"warnings"`
}

// POST /api/upload/preview
func (h *UploadHandler) Preview(c *gin.Context) {
	payload, filename, contentType, ok := h.readFile(c)
	if !ok {
		return
	}
	result, err := h.uploads.Preview(c.Request.Context(), payload, filename, contentType)
	if err != nil {
		h.respondIngestError(c, filename, err)
		return
	}
	records := result.Records
	if records == nil {
		records = []ingest.Record{}
	}
	response.RespondOK(c, previewResponse{
		Success:     true,
		PreviewData: records,
		TotalRows:   result.TotalRows,
		PreviewRows: result.PreviewRows,
		Warnings:    rowMessageStrings(result.Warnings),
	})
}

// POST /api/upload
func (h *UploadHandler) Commit(c *gin.Context) {
	payload, filename, contentType, ok := h.readFile(c)
	if !ok {
		return
	}
	result, err := h.uploads.Commit(c.Request.Context(), payload, filename, contentType, ctxutil.ActorID(c.Request.Context()))
	if err != nil {
		h.respondIngestError(c, filename, err)
		return
	}
	errs := rowMessageStrings(result.Errors)
	response.RespondOK(c, commitResponse{
		Success:     true,
		Created:     result.Created,
		Updated:     result.Updated,
		Errors:      errs,
		TotalErrors: len(errs),
		Warnings:    rowMessageStrings(result.Warnings),
	})
}

func rowMessageStrings(msgs []ingest.RowMessage) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.String())
	}
	return out
}

// GET /api/upload/history
func (h *UploadHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rows, err := h.uploads.History(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("History failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "list_uploads_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"uploads": rows})
}

func (h *UploadHandler) readFile(c *gin.Context) (payload []byte, filename, contentType string, ok bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return nil, "", "", false
	}
	f, err := fileHeader.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return nil, "", "", false
	}
	defer f.Close()

	payload, err = io.ReadAll(f)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return nil, "", "", false
	}
	return payload, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), true
}

func (h *UploadHandler) respondIngestError(c *gin.Context, filename string, err error) {
	var tooLarge *ingest.ErrPayloadTooLarge
	if ingest.IsFatalDecode(err) {
		response.RespondError(c, http.StatusUnprocessableEntity, "undecodable_file", err)
		return
	}
	if errors.As(err, &tooLarge) {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large", err)
		return
	}
	h.log.Error("upload failed", "filename", filename, "error", err)
	response.RespondError(c, http.StatusInternalServerError, "upload_failed", err)
}
