package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/comptrack/comptrack-backend/internal/data/repos"
	"github.com/comptrack/comptrack-backend/internal/data/repos/testutil"
	"github.com/comptrack/comptrack-backend/internal/http/handlers"
	"github.com/comptrack/comptrack-backend/internal/ingest"
	"github.com/comptrack/comptrack-backend/internal/realtime/bus"
	"github.com/comptrack/comptrack-backend/internal/services"
)

func newUploadRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.FreshDB(t)
	log := testutil.Logger(t)

	notifier := services.NewNotifier(log, bus.NewInprocBus(log))
	componentRepo := repos.NewComponentRepo(db, log)
	towerRepo := repos.NewTowerRepo(db, log)
	activityRepo := repos.NewActivityRepo(db, log)
	fileRepo := repos.NewUploadedFileRepo(db, log)

	activityService := services.NewActivityService(log, activityRepo, notifier)
	reconciler := ingest.NewReconciler(db, log, componentRepo, towerRepo, 0)
	ingestService := ingest.NewService(log, reconciler, notifier, 0)
	uploads := services.NewUploadService(log, ingestService, fileRepo, activityService)

	h := handlers.NewUploadHandler(log, uploads)
	r := gin.New()
	r.POST("/api/upload", h.Commit)
	r.POST("/api/upload/preview", h.Preview)
	return r
}

func multipartFile(t *testing.T, filename string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return body, w.FormDataContentType()
}

func TestUploadPreviewResponseShape(t *testing.T) {
	r := newUploadRouter(t)

	payload := []byte("componentId,name,tower,owner,status\nCOMP-W0000001,Alpha,Payments,Core,donezo\n")
	body, contentType := multipartFile(t, "batch.csv", payload)
	req := httptest.NewRequest(http.MethodPost, "/api/upload/preview", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Success     bool             `json:"success"`
		PreviewData []map[string]any `json:"previewData"`
		TotalRows   int              `json:"totalRows"`
		PreviewRows int              `json:"previewRows"`
		Warnings    []string         `json:"warnings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Success {
		t.Error("success = false, want true")
	}
	if got.TotalRows != 1 || got.PreviewRows != 1 || len(got.PreviewData) != 1 {
		t.Errorf("totalRows=%d previewRows=%d rows=%d, want 1/1/1", got.TotalRows, got.PreviewRows, len(got.PreviewData))
	}
	if got.PreviewData[0]["name"] != "Alpha" {
		t.Errorf("previewData[0].name = %v", got.PreviewData[0]["name"])
	}
	if len(got.Warnings) != 1 {
		t.Errorf("warnings = %v, want one for the unknown status", got.Warnings)
	}
}

func TestUploadCommitResponseShape(t *testing.T) {
	r := newUploadRouter(t)

	payload := []byte("componentId,name,tower,owner\nCOMP-W0000002,Alpha,Payments,Core\nCOMP-W0000003,Beta,Payments,Core\n")
	body, contentType := multipartFile(t, "batch.csv", payload)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Success     bool     `json:"success"`
		Created     int      `json:"created"`
		Updated     int      `json:"updated"`
		Errors      []string `json:"errors"`
		TotalErrors int      `json:"totalErrors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Success {
		t.Error("success = false, want true")
	}
	if got.Created != 2 || got.Updated != 0 {
		t.Errorf("created=%d updated=%d, want 2/0", got.Created, got.Updated)
	}
	if got.Errors == nil || got.TotalErrors != len(got.Errors) {
		t.Errorf("errors=%v totalErrors=%d, want empty list and matching count", got.Errors, got.TotalErrors)
	}
}

func TestUploadCommitFatalDecodeRejected(t *testing.T) {
	r := newUploadRouter(t)

	body, contentType := multipartFile(t, "batch.json", []byte(`{"broken`))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}
