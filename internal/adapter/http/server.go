package http

import (
	"context"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/cubesat-wildfire-twin/internal/status"
)

// StatusReader exposes the latest dashboard snapshot.
type StatusReader interface {
	Snapshot() status.Snapshot
}

// Server exposes the wildfire dashboard plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	status     StatusReader
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /, /status, /healthz, /readyz, and /metrics routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, board StatusReader, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		status: board,
		logger: logger,
	}

	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><meta http-equiv="refresh" content="2"><title>Wildfire Insurance Dashboard</title></head>
<body>
<h2>Wildfire Insurance Dashboard</h2>
<p><b>Fire Detected:</b> {{.FireDetected}}</p>
<p><b>Latitude:</b> {{.Latitude}}</p>
<p><b>Longitude:</b> {{.Longitude}}</p>
{{- if .Place}}
<p><b>Place:</b> {{.Place}}</p>
{{- end}}
<p><b>Confidence:</b> {{.Confidence}}</p>
<p><b>Payout Status:</b> {{.PayoutStatus}}</p>
<p><b>Steps Completed:</b> {{.StepsCompleted}}</p>
{{- if .VegetationRisk}}
<p><b>Vegetation Risk:</b> {{.VegetationRisk}}</p>
{{- end}}
<p><i>{{.EventLog}}</i></p>
</body>
</html>
`))

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, s.status.Snapshot()); err != nil {
		s.logger.Error("render dashboard", "error", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.status.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort status response
}
