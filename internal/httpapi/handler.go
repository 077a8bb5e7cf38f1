// Package httpapi exposes the projection engine as a small JSON API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/alexanderramin/greenpath/internal/livedata"
	"github.com/alexanderramin/greenpath/internal/metrics"
	"github.com/alexanderramin/greenpath/internal/service"
)

// Handler wires API endpoints to the services.
type Handler struct {
	projections service.ProjectionService
	snapshots   service.SnapshotService
	caseStatus  service.CaseStatusService
	logger      *zap.Logger
	metrics     *metrics.Metrics
	gatherer    prometheus.Gatherer
	now         func() time.Time
}

// New constructs the API handler. gatherer backs /metrics; nil uses the
// default registry.
func New(
	projections service.ProjectionService,
	snapshots service.SnapshotService,
	caseStatus service.CaseStatusService,
	logger *zap.Logger,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Handler{
		projections: projections,
		snapshots:   snapshots,
		caseStatus:  caseStatus,
		logger:      logger,
		metrics:     m,
		gatherer:    gatherer,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Routes builds the router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.observe)

	r.Get("/healthz", h.HandleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	r.Route("/v1", h.Register)
	return r
}

// Register mounts the versioned endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/paths", h.HandlePaths)
	r.Get("/paths/latest", h.HandleLatest)
	r.Post("/reconcile", h.HandleReconcile)
	r.Get("/velocity/{category}/{country}", h.HandleVelocity)
	r.Get("/snapshot", h.HandleSnapshot)
	r.Post("/snapshot/refresh", h.HandleRefresh)
	r.Get("/case-status/{receipt}", h.HandleCaseStatus)
}

// observe logs each request and records its latency by route pattern.
func (h *Handler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		h.metrics.ObserveHTTP(route, r.Method, strconv.Itoa(status), d)
		h.logger.Debug("http_request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int64("duration_ms", d.Milliseconds()),
		)
	})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandlePaths handles POST /v1/paths.
func (h *Handler) HandlePaths(w http.ResponseWriter, r *http.Request) {
	var body PathsRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	req, err := body.toService()
	if err != nil {
		writeError(w, err)
		return
	}
	h.project(w, r, req)
}

// HandleReconcile handles POST /v1/reconcile.
func (h *Handler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	var body ReconcileRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	req, err := body.toService(h.now())
	if err != nil {
		writeError(w, err)
		return
	}
	h.project(w, r, req)
}

func (h *Handler) project(w http.ResponseWriter, r *http.Request, req service.ProjectionRequest) {
	proj, err := h.projections.Project(r.Context(), req)
	if err != nil {
		h.logError(r, "projection failed", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromProjection(proj))
}

// HandleLatest handles GET /v1/paths/latest.
func (h *Handler) HandleLatest(w http.ResponseWriter, _ *http.Request) {
	proj, ok := h.projections.Latest()
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not_found", Description: "no projection computed yet"})
		return
	}
	writeJSON(w, http.StatusOK, FromProjection(proj))
}

// HandleVelocity handles GET /v1/velocity/{category}/{country}.
func (h *Handler) HandleVelocity(w http.ResponseWriter, r *http.Request) {
	cat, ok := domain.ParseCategory(chi.URLParam(r, "category"))
	if !ok {
		writeError(w, badRequest("category", "unknown category "+strconv.Quote(chi.URLParam(r, "category"))))
		return
	}
	ch := domain.Profile{CountryOfBirth: chi.URLParam(r, "country")}.Chargeability()
	res, err := h.projections.Velocity(r.Context(), cat, ch)
	if err != nil {
		h.logError(r, "velocity failed", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fromVelocity(res))
}

// HandleSnapshot handles GET /v1/snapshot.
func (h *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	res, err := h.snapshots.Current(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromSnapshot(res))
}

// HandleRefresh handles POST /v1/snapshot/refresh. A failed fetch still
// answers with the fallback snapshot and the error text.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.snapshots.Refresh(r.Context())
	if errors.Is(err, livedata.ErrNotConfigured) {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:       "not_configured",
			Description: "no live data endpoint is configured",
		})
		return
	}
	out := FromSnapshot(res)
	if err != nil {
		h.logger.Warn("snapshot refresh failed", zap.Error(err), zap.String("source", string(res.Source)))
		out.RefreshError = err.Error()
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleCaseStatus handles GET /v1/case-status/{receipt}.
func (h *Handler) HandleCaseStatus(w http.ResponseWriter, r *http.Request) {
	res, err := h.caseStatus.Lookup(r.Context(), chi.URLParam(r, "receipt"))
	if err != nil {
		h.logError(r, "case status lookup failed", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fromCaseStatus(res))
}

func (h *Handler) logError(r *http.Request, msg string, err error) {
	h.logger.Error(msg,
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
}

// Serve runs the API until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
