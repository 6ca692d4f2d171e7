package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/MikeSquared-Agency/credence/internal/dataset"
	"github.com/MikeSquared-Agency/credence/internal/processor"
	"github.com/MikeSquared-Agency/credence/internal/store"
)

// maxDatasetDays bounds GET /api/v1/dataset.
const maxDatasetDays = 3650

type Options struct {
	// RateLimit is requests per second across /api/v1. Zero disables limiting.
	RateLimit   float64
	CORSOrigins []string
	// Gatherer backs /metrics. Nil uses the default gatherer.
	Gatherer prometheus.Gatherer
	// Checks are probed by /health. A failing check marks the service degraded.
	Checks []HealthCheck
}

// HealthCheck probes one optional dependency such as Postgres or NATS.
type HealthCheck struct {
	Name  string
	Probe func(ctx context.Context) error
}

type Server struct {
	router  *chi.Mux
	checks  []HealthCheck
	proc    *processor.Processor
	limiter *rate.Limiter
	http    *http.Server
}

func NewServer(port int, proc *processor.Processor, opts Options) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Length", "Content-Type"},
	}).Handler)

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		router: router,
		checks: opts.Checks,
		proc:   proc,
	}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit * 2)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	router.Get("/health", s.health)
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Post("/simulations", s.createSimulation)
		r.Post("/comparisons", s.createComparison)
		r.Get("/comparisons/default", s.defaultComparison)
		r.Get("/runs", s.listRuns)
		r.Get("/runs/{id}", s.getRun)
		r.Get("/dataset", s.getDataset)
	})

	return s
}

// Handler exposes the router, mainly for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Start() error {
	slog.Info("API server starting", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok"}
	status := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	for _, c := range s.checks {
		if err := c.Probe(ctx); err != nil {
			slog.Warn("health check failed", "dependency", c.Name, "error", err)
			body[c.Name] = "down"
			body["status"] = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		body[c.Name] = "ok"
	}
	writeJSON(w, status, body)
}

func (s *Server) createSimulation(w http.ResponseWriter, r *http.Request) {
	req := processor.DefaultSimulationRequest()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	res, err := s.proc.RunSimulation(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) createComparison(w http.ResponseWriter, r *http.Request) {
	req := processor.DefaultComparisonRequest()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	res, err := s.proc.RunComparison(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// defaultComparison runs the default scenario set. The observations and seed
// query parameters override the defaults.
func (s *Server) defaultComparison(w http.ResponseWriter, r *http.Request) {
	req := processor.DefaultComparisonRequest()
	q := r.URL.Query()
	if v := q.Get("observations"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid observations: %v", err))
			return
		}
		req.Params.Observations = n
	}
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid seed: %v", err))
			return
		}
		req.Params.Seed = seed
	}
	res, err := s.proc.RunComparison(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	res, err := s.proc.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit: %v", err))
			return
		}
		limit = n
	}
	runs, err := s.proc.ListRuns(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

type datasetResponse struct {
	Columns []string      `json:"columns"`
	Rows    []dataset.Row `json:"rows"`
}

func (s *Server) getDataset(w http.ResponseWriter, r *http.Request) {
	spec := dataset.DefaultSpec()
	q := r.URL.Query()
	if v := q.Get("days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days > maxDatasetDays {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("days must be an integer up to %d", maxDatasetDays))
			return
		}
		spec.Days = days
	}
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid seed: %v", err))
			return
		}
		spec.Seed = seed
	}
	rows, err := dataset.Generate(spec)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, datasetResponse{Columns: dataset.Columns, Rows: rows})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, processor.ErrInvalidRequest), errors.Is(err, dataset.ErrInvalidSpec):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrRunNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
