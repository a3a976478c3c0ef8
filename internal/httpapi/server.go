package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hamed0406/netmonitor/internal/bus"
	"github.com/hamed0406/netmonitor/internal/domain"
	"github.com/hamed0406/netmonitor/internal/httpapi/middleware"
	"github.com/hamed0406/netmonitor/internal/monitor"
	"github.com/hamed0406/netmonitor/internal/repo"
	"github.com/hamed0406/netmonitor/internal/speedtest"
)

// Server exposes the monitoring core over HTTP. Writes go through the
// event caller so API clients and event clients observe identical
// semantics; reads are served straight from the service.
type Server struct {
	Logger  *zap.Logger
	Svc     *monitor.Service
	Caller  *bus.Caller
	Catalog *speedtest.Catalog
	Keys    middleware.Keys
	Limiter *middleware.Limiter
}

func NewServer(l *zap.Logger, svc *monitor.Service, caller *bus.Caller) *Server {
	return &Server{
		Logger:  l,
		Svc:     svc,
		Caller:  caller,
		Catalog: speedtest.DefaultCatalog(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)
	if s.Limiter != nil {
		r.Use(s.Limiter.Handler)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAny(s.Keys))
		r.Get("/api/targets", s.handleListTargets)
		r.Get("/api/targets/{id}", s.handleGetTarget)
		r.Get("/api/targets/{id}/results", s.handleListResults)
		r.Get("/api/monitor/active", s.handleActive)
		r.Get("/api/speedtest/sources", s.handleListSources)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(s.Keys))
		r.Post("/api/targets", s.handleAddTarget)
		r.Put("/api/targets/{id}", s.handleUpdateTarget)
		r.Delete("/api/targets/{id}", s.handleDeleteTarget)
		r.Post("/api/targets/{id}/monitor", s.handleStartMonitor)
		r.Delete("/api/targets/{id}/monitor", s.handleStopMonitor)
		r.Post("/api/targets/{id}/speedtest", s.handleRunSpeedTest)
	})

	return r
}

type addPayload struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	OwnerID string `json:"ownerId"`
}

type updatePayload struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
}

type monitorPayload struct {
	IntervalMS int64 `json:"intervalMs"`
}

func (s *Server) handleAddTarget(w http.ResponseWriter, r *http.Request) {
	var p addPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Name == "" || p.Address == "" {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	out, err := s.Caller.Call(r.Context(), bus.OpCreateTarget, &bus.TargetCreateRequest{
		Name:    p.Name,
		Address: p.Address,
		OwnerID: p.OwnerID,
	})
	if err != nil {
		s.writeCallError(w, "create_target", err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		targets []*domain.Target
		err     error
	)
	if owner := r.URL.Query().Get("ownerId"); owner != "" {
		targets, err = s.Svc.GetTargets(ctx, owner)
	} else {
		targets, err = s.Svc.GetAllTargets(ctx)
	}
	if err != nil {
		http.Error(w, "could not list targets", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, targets)
}

func (s *Server) handleGetTarget(w http.ResponseWriter, r *http.Request) {
	id := domain.TargetID(chi.URLParam(r, "id"))
	t, err := s.Svc.GetTarget(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			http.Error(w, "target not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not fetch target", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTarget(w http.ResponseWriter, r *http.Request) {
	var p updatePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || (p.Name == nil && p.Address == nil) {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	id := domain.TargetID(chi.URLParam(r, "id"))
	out, err := s.Caller.Call(r.Context(), bus.OpUpdateTarget, &bus.TargetUpdateRequest{
		ID:      id,
		Name:    p.Name,
		Address: p.Address,
	})
	if err != nil {
		s.writeCallError(w, "update_target", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteTarget(w http.ResponseWriter, r *http.Request) {
	id := domain.TargetID(chi.URLParam(r, "id"))
	if _, err := s.Caller.Call(r.Context(), bus.OpDeleteTarget, &bus.TargetDeleteRequest{ID: id}); err != nil {
		s.writeCallError(w, "delete_target", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStartMonitor(w http.ResponseWriter, r *http.Request) {
	var p monitorPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.IntervalMS <= 0 {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	id := domain.TargetID(chi.URLParam(r, "id"))
	if _, err := s.Caller.Call(r.Context(), bus.OpStartMonitoring, &bus.MonitoringStartRequest{
		TargetID:   id,
		IntervalMS: p.IntervalMS,
	}); err != nil {
		s.writeCallError(w, "start_monitoring", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"targetId": string(id)})
}

func (s *Server) handleStopMonitor(w http.ResponseWriter, r *http.Request) {
	id := domain.TargetID(chi.URLParam(r, "id"))
	if _, err := s.Caller.Call(r.Context(), bus.OpStopMonitoring, &bus.MonitoringStopRequest{TargetID: id}); err != nil {
		s.writeCallError(w, "stop_monitoring", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRunSpeedTest(w http.ResponseWriter, r *http.Request) {
	id := domain.TargetID(chi.URLParam(r, "id"))
	out, err := s.Caller.Call(r.Context(), bus.OpRunSpeedTest, &bus.SpeedTestRequest{
		Config: bus.SpeedTestConfig{TargetID: id},
	})
	if err != nil {
		s.writeCallError(w, "run_speed_test", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	id := domain.TargetID(chi.URLParam(r, "id"))
	results, err := s.Svc.TargetResults(r.Context(), id, limit)
	if err != nil {
		http.Error(w, "could not list results", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Svc.ActiveTargets())
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Catalog.Sources())
}

func (s *Server) writeCallError(w http.ResponseWriter, op string, err error) {
	s.Logger.Warn("api_call_failed", zap.String("op", op), zap.Error(err))
	status := http.StatusBadGateway
	if errors.Is(err, bus.ErrCallTimeout) {
		status = http.StatusGatewayTimeout
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
