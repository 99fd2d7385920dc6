// Package api serves the dataset, the geocode cache and the precision report
// over HTTP for map front-ends.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/kgmap/internal/export"
	"github.com/sells-group/kgmap/internal/geocache"
	"github.com/sells-group/kgmap/internal/ingest"
	"github.com/sells-group/kgmap/internal/report"
	"github.com/sells-group/kgmap/pkg/geocode"
)

// Server reads the dataset file and the cache store on every request.
type Server struct {
	datasetPath    string
	store          geocache.Store
	policy         *geocode.Policy
	allowedOrigins []string
}

// NewServer creates a Server.
func NewServer(datasetPath string, store geocache.Store, policy *geocode.Policy, allowedOrigins []string) *Server {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return &Server{
		datasetPath:    datasetPath,
		store:          store,
		policy:         policy,
		allowedOrigins: allowedOrigins,
	}
}

// Routes returns the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/kindergartens", s.handleKindergartens)
	r.Get("/geo", s.handleGeo)
	r.Get("/geo.geojson", s.handleGeoJSON)
	r.Get("/report", s.handleReport)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleKindergartens(w http.ResponseWriter, r *http.Request) {
	kgs, err := ingest.LoadDatasetIfPresent(r.Context(), s.datasetPath)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "dataset unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, kgs)
}

func (s *Server) handleGeo(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.Load(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "cache unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.Load(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "cache unavailable", err)
		return
	}
	kgs, err := ingest.LoadDatasetIfPresent(r.Context(), s.datasetPath)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "dataset unavailable", err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	if err := export.WriteGeoJSON(w, export.Join(entries, kgs, s.policy)); err != nil {
		zap.L().Error("api: write geojson", zap.Error(err))
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.Load(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "cache unavailable", err)
		return
	}
	summary := report.Summarize(entries, s.policy)

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		writeJSON(w, http.StatusOK, summary)
	case "yaml":
		w.Header().Set("Content-Type", "application/yaml")
		_ = report.WriteYAML(w, summary)
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_ = report.WriteText(w, summary)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown format " + format})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	zap.L().Error("api: "+msg,
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	writeJSON(w, status, map[string]string{"error": msg})
}
