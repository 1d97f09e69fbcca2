// Package httptransport assembles the engine's HTTP surface. It should stay
// thin: routing, middleware, and health only — domain logic lives in the
// handler and service packages.
package httptransport

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apphandler "benefits/internal/application/handler"
	"benefits/internal/platform/metrics"
	"benefits/internal/platform/middleware"
	platformredis "benefits/internal/platform/redis"
	statshandler "benefits/internal/statistics/handler"
	"benefits/pkg/platform/httputil"
)

// Deps carries everything the router mounts.
type Deps struct {
	Applications *apphandler.Handler
	Statistics   *statshandler.Handler
	Metrics      *metrics.Metrics
	DB           *sql.DB
	Redis        *platformredis.Client
}

// NewRouter wires all public endpoints.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestContext)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Instrument)
	}

	deps.Applications.Register(r)
	deps.Statistics.Register(r)

	r.Get("/healthz", handleHealth(deps.DB, deps.Redis))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// handleHealth reports readiness: Postgres must answer; Redis only when
// configured, since the statistics cache is optional.
func handleHealth(db *sql.DB, rdb *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		checks := map[string]string{}
		healthy := true
		if db != nil {
			checks["postgres"] = checkStatus(db.PingContext(ctx))
			healthy = healthy && checks["postgres"] == "ok"
		}
		if rdb != nil {
			checks["redis"] = checkStatus(rdb.Health(ctx))
			healthy = healthy && checks["redis"] == "ok"
		}

		status := http.StatusOK
		state := "ok"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		httputil.WriteJSON(w, status, map[string]any{
			"status": state,
			"checks": checks,
		})
	}
}

func checkStatus(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}
