package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"herdsnap/internal/logger"
	"herdsnap/internal/middleware"
	"herdsnap/internal/models"
	"herdsnap/internal/services"
	"herdsnap/internal/validator"
)

type auditEntry struct {
	userID, action, resourceID string
	source                     services.IngestSource
	result                     *services.IngestResult
}

type mockAuditService struct {
	entries []auditEntry
}

var _ services.AuditServicer = (*mockAuditService)(nil)

func (m *mockAuditService) RecordIngestion(userID, _ string, source services.IngestSource, result *services.IngestResult) {
	m.entries = append(m.entries, auditEntry{userID: userID, action: models.AuditCreateSnapshot, resourceID: result.Snapshot.ID, source: source, result: result})
}

func (m *mockAuditService) RecordDeletion(userID, _, snapshotID string) {
	m.entries = append(m.entries, auditEntry{userID: userID, action: models.AuditDeleteSnapshot, resourceID: snapshotID})
}

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

func TestGetUserID(t *testing.T) {
	t.Run("returns 401 without identity", func(t *testing.T) {
		r := gin.New()
		r.GET("/snapshots", NewSnapshotHandler(&mockSnapshotService{}, &mockIngestService{}, &mockAuditService{}, 0).ListSnapshots)

		rec := doRequest(r, "GET", "/snapshots", "")

		if rec.Code != 401 {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "UNAUTHORIZED")
	})
}
