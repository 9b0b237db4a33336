package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"herdsnap/internal/blob"
	"herdsnap/internal/census"
	"herdsnap/internal/classifier"
	"herdsnap/internal/logger"
	"herdsnap/internal/middleware"
	"herdsnap/internal/server"
	"herdsnap/internal/services"
	"herdsnap/internal/testutil"
	"herdsnap/internal/validator"
)

const (
	testSecret    = "integration-secret"
	testMetricKey = "scrape-key"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB      *gorm.DB
	Archive *blob.MemoryStore
	Router  *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupApp wires the real services over an isolated SQLite database and an
// in-memory archive. Rows with more than 20 litres yesterday are classified
// as category 1, everything else as 2.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	archive := blob.NewMemory()

	model := classifier.Func(func(_ context.Context, f census.Features) (int, error) {
		if f[5] > 20 {
			return 1, nil
		}
		return 2, nil
	})

	snapshotService := services.NewSnapshotService(db, archive, 0)
	ingestService := services.NewIngestService(snapshotService, classifier.NewGateway(model, classifier.Options{}), archive,
		services.IngestOptions{Profile: census.DefaultProfile()})

	router := server.NewRouter(server.Deps{
		Snapshots:      snapshotService,
		Ingest:         ingestService,
		Animals:        services.NewAnimalQueryService(db),
		Audit:          services.NewAuditService(db),
		JWTSecret:      []byte(testSecret),
		MetricsAPIKey:  testMetricKey,
		MaxUploadBytes: 1 << 20,
	})

	return &testApp{DB: db, Archive: archive, Router: router}
}

// tokenFor signs an access token for the given user.
func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := middleware.IssueToken([]byte(testSecret), "", userID, time.Hour)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

// request makes a JSON HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// upload posts a census file through the multipart endpoint.
func (app *testApp) upload(t *testing.T, token, name, date, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	_ = w.WriteField("name", name)
	_ = w.WriteField("snapshot_date", date)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write(content)
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/snapshots/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// errorCode extracts error.code from an error response.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseJSON(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got %s", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}
