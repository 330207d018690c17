// Package server exposes the tool's tasks as an HTTP API.
//
// Every task endpoint follows the same contract: a validated request
// always gets a 200 with a full operation response, and the record's
// own return_code/success fields carry the outcome. Transport-level
// errors are reserved for requests that fail validation. Task requests
// block until the tool finishes; subscribers on /ws get lifecycle
// events in the meantime.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/visionops/yolobridge/internal/events"
	"github.com/visionops/yolobridge/internal/history"
	"github.com/visionops/yolobridge/internal/metrics"
	"github.com/visionops/yolobridge/internal/notify"
	"github.com/visionops/yolobridge/internal/runner"
	"github.com/visionops/yolobridge/internal/stats"
	"github.com/visionops/yolobridge/internal/version"
)

// OperationResponse is the body returned by every task endpoint.
type OperationResponse struct {
	RunID      string      `json:"run_id"`
	Command    string      `json:"command"`
	ReturnCode int         `json:"return_code"`
	Stdout     string      `json:"stdout"`
	Stderr     string      `json:"stderr"`
	Metrics    metrics.Map `json:"metrics"`
	Artifacts  []string    `json:"artifacts"`
	Success    bool        `json:"success"`
	Timestamp  string      `json:"timestamp"`
}

// ErrorResponse is the body returned for rejected requests.
type ErrorResponse struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// HealthResponse is the body returned by the health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// Options carries the server's collaborators and settings.
type Options struct {
	Addr         string
	Runner       *runner.Runner
	Store        *history.Store
	Notifier     *notify.Notifier
	Hub          *events.Hub
	Stats        *stats.Collector
	HistoryLimit int
	Logger       *slog.Logger
}

// Server is the HTTP front end.
type Server struct {
	runner       *runner.Runner
	store        *history.Store
	notifier     *notify.Notifier
	hub          *events.Hub
	stats        *stats.Collector
	historyLimit int
	logger       *slog.Logger
	httpSrv      *http.Server
}

// New creates a Server with its routes registered.
func New(opts Options) *Server {
	s := &Server{
		runner:       opts.Runner,
		store:        opts.Store,
		notifier:     opts.Notifier,
		hub:          opts.Hub,
		stats:        opts.Stats,
		historyLimit: opts.HistoryLimit,
		logger:       opts.Logger,
	}
	if s.historyLimit <= 0 {
		s.historyLimit = 50
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHealth)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /system", s.handleSystem)
	mux.HandleFunc("GET /runs", s.handleRuns)
	mux.HandleFunc("GET /runs/{id}", s.handleRun)
	mux.Handle("GET /ws", s.hub)

	mux.HandleFunc("POST /train", s.taskHandler("train", func() taskRequest { return &TrainRequest{} }))
	mux.HandleFunc("POST /val", s.taskHandler("val", func() taskRequest { return &ValRequest{} }))
	mux.HandleFunc("POST /predict", s.taskHandler("predict", func() taskRequest { return &PredictRequest{} }))
	mux.HandleFunc("POST /export", s.taskHandler("export", func() taskRequest { return &ExportRequest{} }))
	mux.HandleFunc("POST /track", s.taskHandler("track", func() taskRequest { return &TrackRequest{} }))
	mux.HandleFunc("POST /benchmark", s.taskHandler("benchmark", func() taskRequest { return &BenchmarkRequest{} }))
	mux.HandleFunc("POST /solution", s.taskHandler("solution", func() taskRequest { return &SolutionRequest{} }))

	s.httpSrv = &http.Server{
		Addr:    opts.Addr,
		Handler: s.logRequests(mux),
		// No WriteTimeout: task requests legitimately block for up to
		// the tool's one-hour budget.
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the server's HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// ListenAndServe runs the HTTP server until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", slog.String("addr", s.httpSrv.Addr))
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting new requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// taskHandler builds the handler for one task endpoint.
func (s *Server) taskHandler(task string, newReq func() taskRequest) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := newReq()
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		if err := req.validate(); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		runID := uuid.NewString()
		s.hub.Broadcast(events.Started(runID, task))

		// A dropped client connection must not kill a half-finished
		// training run; the tool's own timeout is the only
		// cancellation mechanism.
		res := s.runner.Execute(context.WithoutCancel(r.Context()), task, req.params())

		resp := &OperationResponse{
			RunID:      runID,
			Command:    res.Command,
			ReturnCode: res.ReturnCode,
			Stdout:     res.Stdout,
			Stderr:     res.Stderr,
			Metrics:    res.Metrics,
			Artifacts:  res.Artifacts,
			Success:    res.Success,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
		}

		s.record(runID, task, res)
		s.hub.Broadcast(events.Completed(runID, task, res.Success))

		if s.notifier != nil && s.notifier.Enabled() {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
				defer cancel()
				if err := s.notifier.Notify(ctx, resp); err != nil {
					s.logger.Warn("webhook notification failed",
						slog.String("run_id", runID),
						slog.String("error", err.Error()),
					)
				}
			}()
		}

		s.writeJSON(w, http.StatusOK, resp)
	}
}

// record persists a completed run to history.
func (s *Server) record(runID, task string, res *runner.Result) {
	if s.store == nil {
		return
	}
	rec := &history.Record{
		RunID:      runID,
		Task:       task,
		Command:    res.Command,
		ReturnCode: res.ReturnCode,
		Stdout:     res.Stdout,
		Stderr:     res.Stderr,
		Metrics:    res.Metrics,
		Artifacts:  res.Artifacts,
		Success:    res.Success,
		Timestamp:  time.Now().UTC(),
		Source:     "http",
	}
	if err := s.store.Put(rec); err != nil {
		s.logger.Error("failed to record run",
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, &HealthResponse{
		Status:    "healthy",
		Message:   "yolobridge is running",
		Version:   version.Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	snap, err := s.stats.Collect(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to collect system stats: "+err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := s.historyLimit
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n < limit {
			limit = n
		}
	}

	records, err := s.store.List(limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list runs: "+err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"runs": records})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.PathValue("id"))
	if errors.Is(err, history.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load run: "+err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, &ErrorResponse{
		Error:     msg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// logRequests wraps the mux with structured request logging.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The websocket upgrade hijacks the connection; wrapping the
		// ResponseWriter would break it.
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}
