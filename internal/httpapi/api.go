// Package httpapi is the HTTP layer of the reporting service: routing,
// middleware, authentication, and the JSON handlers over the auth and report
// cores.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"svodka.org/internal/auth"
	"svodka.org/internal/obs"
	"svodka.org/internal/report"
)

// ReadyProbe — простая проверка готовности (ping БД).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API — HTTP слой.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	users   *auth.Service
	reports *report.Service
	tokens  *auth.Tokens

	rateBurst  int
	ratePerSec float64
}

func New(rp ReadyProbe, version string, users *auth.Service, reports *report.Service, tokens *auth.Tokens) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		users:      users,
		reports:    reports,
		tokens:     tokens,
		rateBurst:  40,
		ratePerSec: 20,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// auth + session
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/me", a.handleMe)

	// reports
	a.mux.HandleFunc("/v1/reports", a.handleReports)
	a.mux.HandleFunc("/v1/reports/", a.handleReportResource)

	// user management
	a.mux.HandleFunc("/v1/users", a.handleUsers)
	a.mux.HandleFunc("/v1/users/", a.handleUserResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// SetRateLimit overrides the default per-client limit. Call before Handler.
func (a *API) SetRateLimit(perSecond float64, burst int) {
	if perSecond > 0 {
		a.ratePerSec = perSecond
	}
	if burst > 0 {
		a.rateBurst = burst
	}
}

// Handler returns the full middleware chain around the mux.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = Logging(h)
	h = RequestID(h)
	h = CORS(h)
	h = SecurityHeaders(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "svodka-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "svodka-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
