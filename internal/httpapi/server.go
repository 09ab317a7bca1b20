// Package httpapi is the agent's local HTTP surface: the health probe
// and a thin read-only framing over kubectl logs for the control
// plane's log-query/stream endpoints. Per spec §1 this is explicitly
// out of the core command-execution engine — the core treats it as a
// read interface only.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deploypilot/node-agent/internal/k8sdriver"
)

// AgentStatus is the read-only registration state the health endpoint
// reports.
type AgentStatus interface {
	Registered() bool
	AgentID() string
}

// Server is the agent's local HTTP surface.
type Server struct {
	router chi.Router
	status AgentStatus
	driver *k8sdriver.Driver
	log    logr.Logger
}

// New builds a Server. driver is used only for the read-only log
// endpoints; the core dispatch path never reaches through here.
func New(status AgentStatus, driver *k8sdriver.Driver, log logr.Logger) *Server {
	s := &Server{status: status, driver: driver, log: log}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))
	r.Get("/health", s.handleHealth)
	r.Get("/api/deployments/{namespace}/{app}/logs", s.handleLogs)
	r.Handle("/metrics", promhttp.Handler())
	s.router = r

	return s
}

// Handler returns the Server's http.Handler, for http.Server.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}
