package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appanalysis "github.com/bryanwahyu/docsense/internal/application/analysis"
	domai "github.com/bryanwahyu/docsense/internal/domain/ai"
	"github.com/bryanwahyu/docsense/internal/infra/httpserver"
	"github.com/bryanwahyu/docsense/internal/infra/ledger"
	"github.com/bryanwahyu/docsense/internal/middleware"
	"github.com/bryanwahyu/docsense/internal/settings"
)

type stubOracle struct {
	reply string
	err   error
}

func (s *stubOracle) Classify(ctx context.Context, cred domai.Credential, doc domai.Document) (string, error) {
	return s.reply, s.err
}

func (s *stubOracle) Probe(ctx context.Context, cred domai.Credential) error {
	return s.err
}

type testClock struct{}

func (testClock) Now() time.Time { return time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC) }

func newTestHandler(t *testing.T, oracle domai.Oracle, configured bool) http.Handler {
	t.Helper()
	st, err := settings.Open(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)
	if configured {
		key := "sk-test-0123456789abcdef"
		require.NoError(t, st.Apply(settings.Update{APIKey: &key}))
	}
	led, err := ledger.New(context.Background(), nil)
	require.NoError(t, err)
	svc := &appanalysis.Service{
		Oracle:   oracle,
		Ledger:   led,
		Settings: st,
		Clock:    testClock{},
	}
	return httpserver.NewRouter(svc, st, nil, middleware.HealthHandler(st, nil))
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func analyzeBody(text string) map[string]string {
	return map[string]string{
		"document_text": text,
		"filename":      "payroll.csv",
		"filetype":      "csv",
		"filesize":      "64 bytes",
	}
}

func TestBannerAndHealth(t *testing.T) {
	h := newTestHandler(t, &stubOracle{}, false)

	rec := doJSON(t, h, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var banner map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &banner))
	assert.Equal(t, "online", banner["status"])

	rec = doJSON(t, h, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var health struct {
		Status        string `json:"status"`
		APIConfigured bool   `json:"api_configured"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.False(t, health.APIConfigured)
}

func TestAnalyzeTextRequiresAPIKey(t *testing.T) {
	h := newTestHandler(t, &stubOracle{reply: "{}"}, false)

	rec := doJSON(t, h, http.MethodPost, "/api/analyze/text", analyzeBody("x"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "API key not configured")
}

func TestAnalyzeTextToIncidents(t *testing.T) {
	oracle := &stubOracle{reply: `{
		"overall_sensitivity_score": 91,
		"sensitivity_level": "CRITICAL",
		"dimension_scores": {"financial": 88},
		"department_relevance": {"Finance": "CRITICAL"}
	}`}
	h := newTestHandler(t, oracle, true)

	rec := doJSON(t, h, http.MethodPost, "/api/analyze/text", analyzeBody("salary table"))
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Level  string `json:"sensitivity_level"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "completed", result.Status)
	assert.Equal(t, "CRITICAL", result.Level)

	// the derived incident is queryable, with a lowercase severity filter
	rec = doJSON(t, h, http.MethodGet, "/api/incidents?severity=critical", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Total     int `json:"total"`
		Incidents []struct {
			ID                  string   `json:"id"`
			TopCategories       []string `json:"top_categories"`
			DepartmentsAffected []string `json:"departments_affected"`
		} `json:"incidents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Equal(t, 1, listing.Total)
	assert.Equal(t, result.ID, listing.Incidents[0].ID)
	assert.Equal(t, []string{"financial"}, listing.Incidents[0].TopCategories)
	assert.Equal(t, []string{"Finance"}, listing.Incidents[0].DepartmentsAffected)

	// single lookup and delete
	rec = doJSON(t, h, http.MethodGet, "/api/incidents/"+result.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/incidents/"+result.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/incidents/"+result.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalyzeTextDegradedOutputStillRecorded(t *testing.T) {
	h := newTestHandler(t, &stubOracle{reply: "not json"}, true)

	rec := doJSON(t, h, http.MethodPost, "/api/analyze/text", analyzeBody("doc"))
	require.Equal(t, http.StatusOK, rec.Code)
	var result struct {
		Status string `json:"status"`
		Level  string `json:"sensitivity_level"`
		Score  int    `json:"overall_sensitivity_score"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "error", result.Status)
	assert.Equal(t, "UNKNOWN", result.Level)
	assert.Zero(t, result.Score)

	rec = doJSON(t, h, http.MethodGet, "/api/incidents", nil)
	var listing struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	assert.Equal(t, 1, listing.Total)
}

func TestAnalyzeTextOracleFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{name: "bad credential", err: domai.ErrAuthentication, code: http.StatusUnauthorized},
		{name: "quota", err: domai.ErrQuotaExceeded, code: http.StatusTooManyRequests},
		{name: "transport", err: domai.ErrUnavailable, code: http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &stubOracle{err: tt.err}, true)
			rec := doJSON(t, h, http.MethodPost, "/api/analyze/text", analyzeBody("doc"))
			assert.Equal(t, tt.code, rec.Code)

			// fatal failures never leave an incident behind
			rec = doJSON(t, h, http.MethodGet, "/api/incidents", nil)
			var listing struct {
				Total int `json:"total"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
			assert.Zero(t, listing.Total)
		})
	}
}

func TestAnalyzeFileUpload(t *testing.T) {
	h := newTestHandler(t, &stubOracle{reply: `{"sensitivity_level": "LOW"}`}, true)

	var buf bytes.Buffer
	mw := newMultipart(t, &buf, "notes.txt", "meeting notes")
	req := httptest.NewRequest(http.MethodPost, "/api/analyze/file", &buf)
	req.Header.Set("Content-Type", mw)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result struct {
		Filename string `json:"filename"`
		Filetype string `json:"filetype"`
		Filesize string `json:"filesize"`
		Status   string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "notes.txt", result.Filename)
	assert.Equal(t, "txt", result.Filetype)
	assert.Equal(t, "13 bytes", result.Filesize)
	assert.Equal(t, "completed", result.Status)
}

func TestAnalyzeFileRejectsBinaryTypes(t *testing.T) {
	h := newTestHandler(t, &stubOracle{reply: "{}"}, true)

	var buf bytes.Buffer
	mw := newMultipart(t, &buf, "report.pdf", "%PDF-1.4")
	req := httptest.NewRequest(http.MethodPost, "/api/analyze/file", &buf)
	req.Header.Set("Content-Type", mw)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not directly supported")
}

func TestStatsEndpoint(t *testing.T) {
	h := newTestHandler(t, &stubOracle{reply: `{"sensitivity_level": "CRITICAL", "overall_sensitivity_score": 90}`}, true)

	rec := doJSON(t, h, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var empty struct {
		TotalScans int     `json:"total_scans"`
		AvgScore   float64 `json:"avg_score"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &empty))
	assert.Zero(t, empty.TotalScans)
	assert.Zero(t, empty.AvgScore)

	rec = doJSON(t, h, http.MethodPost, "/api/analyze/text", analyzeBody("doc"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/stats", nil)
	var stats struct {
		TotalScans int            `json:"total_scans"`
		BySeverity map[string]int `json:"by_severity"`
		AvgScore   float64        `json:"avg_score"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalScans)
	assert.Equal(t, 1, stats.BySeverity["CRITICAL"])
	assert.InDelta(t, 90.0, stats.AvgScore, 1e-9)
}

func TestSettingsEndpoints(t *testing.T) {
	h := newTestHandler(t, &stubOracle{}, false)

	rec := doJSON(t, h, http.MethodPut, "/api/settings", map[string]any{
		"api_key":    "sk-live-0123456789abcdef",
		"max_tokens": 2048,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var masked map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &masked))
	assert.Equal(t, true, masked["api_key_set"])
	assert.Equal(t, "sk-live-...cdef", masked["api_key"])
	assert.NotContains(t, rec.Body.String(), "0123456789abcdef")
}

func TestModelsEndpoint(t *testing.T) {
	h := newTestHandler(t, &stubOracle{}, false)

	rec := doJSON(t, h, http.MethodGet, "/api/models", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var models struct {
		Models []struct {
			ID string `json:"id"`
		} `json:"models"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &models))
	assert.NotEmpty(t, models.Models)
}

func TestListIncidentsRejectsBadSeverity(t *testing.T) {
	h := newTestHandler(t, &stubOracle{}, false)

	rec := doJSON(t, h, http.MethodGet, "/api/incidents?severity=banana", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid severity")
}

func newMultipart(t *testing.T, buf *bytes.Buffer, filename, content string) string {
	t.Helper()
	w := multipart.NewWriter(buf)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return w.FormDataContentType()
}
