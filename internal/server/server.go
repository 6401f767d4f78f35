package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/straja-ai/winegrade/internal/bands"
	"github.com/straja-ai/winegrade/internal/config"
	"github.com/straja-ai/winegrade/internal/features"
	"github.com/straja-ai/winegrade/internal/report"
	"github.com/straja-ai/winegrade/internal/samples"
	"github.com/straja-ai/winegrade/internal/telemetry"
)

// Analyzer runs a full analysis of one vector.
type Analyzer interface {
	Analyze(ctx context.Context, v features.Vector) (*report.Analysis, error)
}

// Server wraps the HTTP server components for winegrade.
type Server struct {
	router    chi.Router
	cfg       config.ServerConfig
	analyzer  Analyzer
	telemetry *telemetry.Provider
	log       zerolog.Logger
}

// New builds the router. tel may be nil.
func New(cfg config.ServerConfig, analyzer Analyzer, tel *telemetry.Provider, log zerolog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		analyzer:  analyzer,
		telemetry: tel,
		log:       log,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/samples", s.handleSamples)
		r.Get("/samples/{index}/analysis", s.handleSampleAnalysis)
		r.Get("/bands", s.handleBands)
	})

	s.router = r
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(s.cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.WriteTimeoutSeconds) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("winegrade listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		dur := time.Since(start)
		s.telemetry.RecordRequestMetrics(route, ww.Status(), float64(dur.Microseconds())/1000.0)
		s.log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("route", route).
			Int("status", ww.Status()).
			Dur("duration", dur).
			Msg("request")
	})
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.cfg.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request_too_large", "request body too large", "")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body", "")
		return
	}

	v, err := features.FromMap(body)
	if err != nil {
		s.writeAnalyzeError(w, err)
		return
	}
	s.analyze(w, r, v)
}

func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	all, err := samples.All()
	if err != nil {
		s.log.Error().Err(err).Msg("load samples")
		writeError(w, http.StatusInternalServerError, "internal_error", "sample catalogue unavailable", "")
		return
	}
	out := make([]samples.Wine, len(all))
	for i, wine := range all {
		out[i] = wine.Rounded()
	}
	writeJSON(w, http.StatusOK, map[string]any{"samples": out})
}

func (s *Server) handleSampleAnalysis(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_index", "sample index must be an integer", "")
		return
	}
	wine, err := samples.Get(idx)
	if err != nil {
		if errors.Is(err, samples.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err.Error(), "")
			return
		}
		s.log.Error().Err(err).Msg("load samples")
		writeError(w, http.StatusInternalServerError, "internal_error", "sample catalogue unavailable", "")
		return
	}
	s.analyze(w, r, wine.Vector)
}

type bandsResponse struct {
	Tables    []bands.Table                     `json:"tables"`
	Ranges    map[features.Field]features.Range `json:"suggested_ranges"`
	Anomalies []string                          `json:"severity_anomalies,omitempty"`
}

func (s *Server) handleBands(w http.ResponseWriter, r *http.Request) {
	resp := bandsResponse{
		Tables: bands.Tables(),
		Ranges: features.SuggestedRange,
	}
	for _, tb := range resp.Tables {
		if err := bands.CheckSeverity(tb); err != nil {
			resp.Anomalies = append(resp.Anomalies, err.Error())
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request, v features.Vector) {
	a, err := s.analyzer.Analyze(r.Context(), v)
	if err != nil {
		s.writeAnalyzeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) writeAnalyzeError(w http.ResponseWriter, err error) {
	var ve *features.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, "validation_error", err.Error(), string(ve.Field))
		return
	}
	s.log.Error().Err(err).Msg("analysis failed")
	writeError(w, http.StatusInternalServerError, "internal_error", "analysis failed", "")
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeError(w http.ResponseWriter, status int, kind, message, field string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Kind: kind, Message: message, Field: field}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
