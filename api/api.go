// Package api implements the hermes HTTP request layer: host, event type, and
// event resources under /api/v1, plus health and metrics endpoints.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"hermes/config"
	"hermes/core"
	"hermes/storage"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// APIPrefix is the base path of the versioned API.
const APIPrefix = "/api/v1"

// HostStorer interface for host storage
type HostStorer interface {
	CreateHost(ctx context.Context, host *core.Host) error
	GetHost(ctx context.Context, hostname string) (*core.Host, error)
	GetHosts(ctx context.Context, hostname string, offset, limit int) ([]core.Host, int64, error)
	UpdateHost(ctx context.Context, hostname, newHostname string) (*core.Host, error)
	DeleteHost(ctx context.Context, hostname string) error
}

// EventTypeStorer interface for event type storage
type EventTypeStorer interface {
	CreateEventType(ctx context.Context, et *core.EventType) error
	GetEventType(ctx context.Context, id int64) (*core.EventType, error)
	GetEventTypes(ctx context.Context, category, state string, offset, limit int) ([]core.EventType, int64, error)
	UpdateEventType(ctx context.Context, id int64, description string) (*core.EventType, error)
}

// EventStorer interface for event storage
type EventStorer interface {
	CreateEvent(ctx context.Context, event *core.Event) error
	GetEvent(ctx context.Context, id int64) (*core.Event, error)
	GetEvents(ctx context.Context, filter storage.EventFilter, offset, limit int) ([]core.Event, int64, error)
	LatestEventForHost(ctx context.Context, hostname string) (*core.Event, error)
}

// ErrorReporter receives uncaught errors from the request layer. It is
// attached only when the optional error-reporting integration is wired.
type ErrorReporter interface {
	CaptureException(err error)
}

// rateLimiterEntry holds a per-client rate limiter with last seen time.
type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// API holds the hermes request layer. It produces an http.Handler; the
// listener and serving loop are owned by the server package.
type API struct {
	router           *mux.Router
	hostStorage      HostStorer
	eventTypeStorage EventTypeStorer
	eventStorage     EventStorer
	config           *config.Config
	logger           *zap.SugaredLogger
	reporter         ErrorReporter

	rateLimiters   map[string]*rateLimiterEntry
	rateLimitersMu sync.Mutex
}

// NewAPI creates the request layer over the given storages.
func NewAPI(hostStorage HostStorer, eventTypeStorage EventTypeStorer, eventStorage EventStorer, cfg *config.Config, logger *zap.SugaredLogger) *API {
	a := &API{
		router:           mux.NewRouter(),
		hostStorage:      hostStorage,
		eventTypeStorage: eventTypeStorage,
		eventStorage:     eventStorage,
		config:           cfg,
		logger:           logger,
		rateLimiters:     make(map[string]*rateLimiterEntry),
	}
	a.setupRoutes()
	return a
}

// SetErrorReporter attaches the optional error-reporting client. Called at
// most once, during bootstrap, before the listener starts serving.
func (a *API) SetErrorReporter(reporter ErrorReporter) {
	a.reporter = reporter
}

// Handler returns the root handler for the server to serve.
func (a *API) Handler() http.Handler {
	return a.router
}

// setupRoutes sets up the API routes.
func (a *API) setupRoutes() {
	a.router.Use(a.requestIDMiddleware)
	a.router.Use(a.recoveryMiddleware)
	a.router.Use(a.loggingMiddleware)
	a.router.Use(a.rateLimitMiddleware)

	a.router.HandleFunc(APIPrefix+"/hosts", a.createHost).Methods("POST")
	a.router.HandleFunc(APIPrefix+"/hosts", a.getHosts).Methods("GET")
	a.router.HandleFunc(APIPrefix+"/hosts/{hostname}", a.getHost).Methods("GET")
	a.router.HandleFunc(APIPrefix+"/hosts/{hostname}", a.updateHost).Methods("PUT")
	a.router.HandleFunc(APIPrefix+"/hosts/{hostname}", a.deleteHost).Methods("DELETE")

	a.router.HandleFunc(APIPrefix+"/eventtypes", a.createEventType).Methods("POST")
	a.router.HandleFunc(APIPrefix+"/eventtypes", a.getEventTypes).Methods("GET")
	a.router.HandleFunc(APIPrefix+"/eventtypes/{id:[0-9]+}", a.getEventType).Methods("GET")
	a.router.HandleFunc(APIPrefix+"/eventtypes/{id:[0-9]+}", a.updateEventType).Methods("PUT")
	a.router.HandleFunc(APIPrefix+"/eventtypes/{id:[0-9]+}", a.deleteEventType).Methods("DELETE")

	a.router.HandleFunc(APIPrefix+"/events", a.createEvent).Methods("POST")
	a.router.HandleFunc(APIPrefix+"/events", a.getEvents).Methods("GET")
	a.router.HandleFunc(APIPrefix+"/events/{id:[0-9]+}", a.getEvent).Methods("GET")

	a.router.HandleFunc("/health", a.healthCheck).Methods("GET")
	a.router.Handle("/metrics", promhttp.Handler())

	if a.config.StaticPath != "" {
		a.router.PathPrefix("/static/").Handler(
			http.StripPrefix("/static/", http.FileServer(http.Dir(a.config.StaticPath))))
	}
}

// healthCheck reports liveness and verifies storage reachability.
func (a *API) healthCheck(w http.ResponseWriter, r *http.Request) {
	if _, _, err := a.hostStorage.GetHosts(r.Context(), "", 0, 1); err != nil {
		a.writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	a.success(w, map[string]interface{}{
		"healthy": true,
		"domain":  a.config.Domain,
	})
}
