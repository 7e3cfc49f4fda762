package health

import (
	"context"
	"net/http"
	"time"

	"github.com/Thaththathirian/lifeboat-college/internal/httputil"
	"github.com/Thaththathirian/lifeboat-college/internal/metrics"

	"github.com/go-chi/chi/v5"
)

// Pinger is satisfied by *bun.DB and anything else the service cannot run
// without.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Dependency is a named Pinger checked by /ready.
type Dependency struct {
	Name   string
	Pinger Pinger
}

type Handler struct {
	deps    []Dependency
	metrics *metrics.HealthMetrics
	now     func() time.Time
}

// NewHandler builds the health endpoints. hm may be nil.
func NewHandler(hm *metrics.HealthMetrics, deps ...Dependency) *Handler {
	return &Handler{deps: deps, metrics: hm, now: time.Now}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.Health)
	router.Get("/ready", h.Ready)
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondWithJSON(w, http.StatusOK, HealthResponse{
		Status:    "OK",
		Timestamp: h.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

// Ready pings every dependency; one failure makes the service unavailable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	ready := true
	for _, dep := range h.deps {
		start := time.Now()
		err := dep.Pinger.PingContext(ctx)
		h.metrics.RecordDependencyCheck(ctx, dep.Name, time.Since(start), err)
		if err != nil {
			ready = false
		}
	}

	if !ready {
		httputil.RespondWithJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, HealthResponse{Status: "ready"})
}
