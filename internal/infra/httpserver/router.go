package httpserver

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	appanalysis "github.com/bryanwahyu/docsense/internal/application/analysis"
	domai "github.com/bryanwahyu/docsense/internal/domain/ai"
	"github.com/bryanwahyu/docsense/internal/domain/incidents"
	"github.com/bryanwahyu/docsense/internal/infra/storage"
	"github.com/bryanwahyu/docsense/internal/middleware"
	"github.com/bryanwahyu/docsense/internal/settings"
)

const maxUploadBytes = 32 << 20

type Router struct {
	svc      *appanalysis.Service
	settings *settings.Store
	docs     *storage.Store // optional upload archive
	health   http.HandlerFunc
}

func NewRouter(svc *appanalysis.Service, st *settings.Store, docs *storage.Store, health http.HandlerFunc) http.Handler {
	r := &Router{svc: svc, settings: st, docs: docs, health: health}
	mux := chi.NewRouter()

	mux.Get("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":  "online",
			"service": "Sensitive Information Detection API",
			"version": "1.0.0",
		})
	})
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/api", func(rt chi.Router) {
		rt.Get("/health", r.health)

		rt.Get("/settings", r.wrap(r.handleGetSettings))
		rt.Put("/settings", r.wrap(r.handleUpdateSettings))
		rt.Post("/settings/test", r.wrap(r.handleTestConnection))

		rt.Post("/analyze/text", r.wrap(r.handleAnalyzeText))
		rt.Post("/analyze/file", r.wrap(r.handleAnalyzeFile))

		rt.Get("/incidents", r.wrap(r.handleListIncidents))
		rt.Get("/incidents/{id}", r.wrap(r.handleGetIncident))
		rt.Delete("/incidents/{id}", r.wrap(r.handleDeleteIncident))
		rt.Delete("/incidents", r.wrap(r.handleClearIncidents))

		rt.Get("/stats", r.wrap(r.handleStats))
		rt.Get("/models", r.wrap(r.handleModels))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			switch {
			case errors.Is(err, settings.ErrNotConfigured):
				http.Error(w, "API key not configured. Please configure in Settings.", http.StatusBadRequest)
			case errors.Is(err, domai.ErrAuthentication):
				http.Error(w, "invalid API key", http.StatusUnauthorized)
			case errors.Is(err, domai.ErrQuotaExceeded):
				http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
			case errors.Is(err, incidents.ErrNotFound):
				http.Error(w, "incident not found", http.StatusNotFound)
			case errors.Is(err, domai.ErrUnavailable):
				http.Error(w, "classification service unavailable", http.StatusBadGateway)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

// GET /api/settings
func (r *Router) handleGetSettings(w http.ResponseWriter, req *http.Request) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(r.settings.Masked())
}

// PUT /api/settings
func (r *Router) handleUpdateSettings(w http.ResponseWriter, req *http.Request) error {
	var upd settings.Update
	if err := json.NewDecoder(req.Body).Decode(&upd); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return nil
	}
	if err := r.settings.Apply(upd); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]string{
		"status":  "updated",
		"message": "Settings saved successfully",
	})
}

// POST /api/settings/test
func (r *Router) handleTestConnection(w http.ResponseWriter, req *http.Request) error {
	if err := r.svc.TestConnection(req.Context()); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]string{
		"status":  "success",
		"message": "API connection verified",
		"model":   r.settings.ModelID(),
	})
}

// POST /api/analyze/text
func (r *Router) handleAnalyzeText(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		DocumentText string `json:"document_text"`
		Filename     string `json:"filename"`
		Filetype     string `json:"filetype"`
		Filesize     string `json:"filesize"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return nil
	}
	return r.analyze(w, req, appanalysis.AnalyzeCommand{
		DocumentText: body.DocumentText,
		Filename:     body.Filename,
		Filetype:     body.Filetype,
		Filesize:     body.Filesize,
	})
}

// POST /api/analyze/file
func (r *Router) handleAnalyzeFile(w http.ResponseWriter, req *http.Request) error {
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return nil
	}
	file, header, err := req.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return nil
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return err
	}

	filename := header.Filename
	if filename == "" {
		filename = "unknown"
	}
	filetype := "unknown"
	if i := strings.LastIndex(filename, "."); i >= 0 {
		filetype = strings.ToLower(filename[i+1:])
	}
	if err := middleware.ValidateFiletype(filetype); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}

	text := decodeText(content)

	// keep a copy of the raw upload unless auto-delete is on
	if r.docs != nil && !r.settings.Current().AutoDeleteUploads {
		sum := sha256.Sum256(content)
		key := fmt.Sprintf("uploads/%x/%s", sum[:8], filename)
		if _, aerr := r.docs.PutDocument(req.Context(), key, content); aerr != nil {
			log.Printf("upload archive failed for %s: %v", filename, aerr)
		}
	}

	return r.analyze(w, req, appanalysis.AnalyzeCommand{
		DocumentText: text,
		Filename:     filename,
		Filetype:     filetype,
		Filesize:     fmt.Sprintf("%d bytes", len(content)),
	})
}

func (r *Router) analyze(w http.ResponseWriter, req *http.Request, cmd appanalysis.AnalyzeCommand) error {
	middleware.IncrementAnalyses()
	result, err := r.svc.Analyze(req.Context(), cmd)
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return err
	}
	if result.Status == "error" {
		middleware.IncrementAnalysesDegraded()
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(result)
}

// GET /api/incidents?limit=50&offset=0&severity=&department=
func (r *Router) handleListIncidents(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(req.URL.Query().Get("offset"))

	severity, err := middleware.ValidateSeverity(req.URL.Query().Get("severity"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}

	f := incidents.Filter{
		Limit:      middleware.ValidateLimit(limit),
		Offset:     middleware.ValidateOffset(offset),
		Severity:   severity,
		Department: req.URL.Query().Get("department"),
	}

	total, page, err := r.svc.Incidents(req.Context(), f)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]any{
		"total":     total,
		"offset":    f.Offset,
		"limit":     f.Limit,
		"incidents": page,
	})
}

// GET /api/incidents/{id}
func (r *Router) handleGetIncident(w http.ResponseWriter, req *http.Request) error {
	inc, err := r.svc.Incident(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(inc)
}

// DELETE /api/incidents/{id}
func (r *Router) handleDeleteIncident(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := r.svc.DeleteIncident(req.Context(), id); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]string{"status": "deleted", "id": id})
}

// DELETE /api/incidents
func (r *Router) handleClearIncidents(w http.ResponseWriter, req *http.Request) error {
	if err := r.svc.ClearIncidents(req.Context()); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]string{
		"status":  "cleared",
		"message": "All incidents deleted",
	})
}

// GET /api/stats
func (r *Router) handleStats(w http.ResponseWriter, req *http.Request) error {
	stats, err := r.svc.Stats(req.Context())
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(stats)
}

// GET /api/models
func (r *Router) handleModels(w http.ResponseWriter, req *http.Request) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]any{
		"models": []map[string]string{
			{"id": "gpt-4o-2024-08-06", "name": "GPT-4o", "description": "Fast and capable"},
			{"id": "o3-2025-04-16", "name": "o3", "description": "Deepest reasoning"},
			{"id": "gpt-4o-mini", "name": "GPT-4o mini", "description": "Fastest, most economical"},
		},
	})
}

// decodeText interprets the upload as UTF-8 when valid, otherwise falls
// back to Latin-1 so legacy exports still analyze.
func decodeText(content []byte) string {
	if utf8.Valid(content) {
		return string(content)
	}
	runes := make([]rune, len(content))
	for i, b := range content {
		runes[i] = rune(b)
	}
	return string(runes)
}
