// Package httpapi implements the HTTP binding of spec.md §6.1: a thin
// translation layer over the session Service and the arbiter, with no
// game logic of its own.
package httpapi

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arbiter-games/coordinator/applications/arbiter"
	"github.com/arbiter-games/coordinator/applications/notifier"
	"github.com/arbiter-games/coordinator/domain/engine"
	"github.com/arbiter-games/coordinator/domain/identity"
	"github.com/arbiter-games/coordinator/domain/session"
	"github.com/arbiter-games/coordinator/pkg/logger"
)

// Service exposes the HTTP API and fits a Start/Stop/Ready process
// lifecycle.
type Service struct {
	addr           string
	db             *sql.DB
	identity       identity.Store
	sessions       *session.Service
	arbiter        *arbiter.Arbiter
	registry       *engine.Registry
	notify         *notifier.Notifier
	log            *logger.Logger
	requestTimeout time.Duration

	handler http.Handler

	mu      sync.Mutex
	server  *http.Server
	running bool
	bound   string
}

// Config bundles the dependencies the HTTP service translates requests
// into calls against.
type Config struct {
	Addr           string
	DB             *sql.DB
	Identity       identity.Store
	Sessions       *session.Service
	Arbiter        *arbiter.Arbiter
	Registry       *engine.Registry
	Notify         *notifier.Notifier
	Log            *logger.Logger
	RequestTimeout time.Duration
}

// NewService builds the HTTP service and its route table.
func NewService(cfg Config) *Service {
	log := cfg.Log
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 15 * time.Second
	}
	svc := &Service{
		addr:           cfg.Addr,
		db:             cfg.DB,
		identity:       cfg.Identity,
		sessions:       cfg.Sessions,
		arbiter:        cfg.Arbiter,
		registry:       cfg.Registry,
		notify:         cfg.Notify,
		log:            log,
		requestTimeout: requestTimeout,
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", svc.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/agents", svc.handleRegisterAgent).Methods(http.MethodPost)
	router.HandleFunc("/agents/{agent_id}/claim", svc.handleClaimAgent).Methods(http.MethodPost)

	protected := router.PathPrefix("").Subrouter()
	protected.Use(svc.bearerMiddleware)
	protected.HandleFunc("/sessions", svc.handleCreateSession).Methods(http.MethodPost)
	protected.HandleFunc("/sessions", svc.handleListSessions).Methods(http.MethodGet)
	protected.HandleFunc("/sessions/{id}/join", svc.handleJoinSession).Methods(http.MethodPost)
	protected.HandleFunc("/sessions/{id}/state", svc.handleReadSession).Methods(http.MethodGet)
	protected.HandleFunc("/sessions/{id}/actions", svc.handleSubmitAction).Methods(http.MethodPost)
	protected.HandleFunc("/sessions/{id}/log", svc.handleReadLog).Methods(http.MethodGet)

	// Order matters: CORS must short-circuit preflight OPTIONS requests
	// before the bearer middleware ever sees them.
	svc.handler = corsMiddleware(router)
	return svc
}

// Name identifies this service within a process supervisor.
func (s *Service) Name() string { return "httpapi" }

// Start binds the listener and begins serving in the background.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.handler,
		ReadTimeout:  s.requestTimeout,
		WriteTimeout: s.requestTimeout,
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.running = true
	s.server = server
	s.bound = ln.Addr().String()
	s.mu.Unlock()

	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Errorf("http server error: %v", err)
		}
		s.mu.Lock()
		if s.server == server {
			s.running = false
			s.bound = ""
		}
		s.mu.Unlock()
	}()
	return nil
}

// Stop gracefully shuts down the server, letting in-flight requests
// finish.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.mu.Unlock()
	if server == nil {
		return nil
	}
	err := server.Shutdown(ctx)
	s.mu.Lock()
	if s.server == server {
		s.running = false
		s.bound = ""
	}
	s.mu.Unlock()
	return err
}

// Ready reports whether the server is currently accepting connections.
func (s *Service) Ready(ctx context.Context) error {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if !running {
		return fmt.Errorf("http server not running")
	}
	return nil
}

// Addr returns the bound listen address (after Start).
func (s *Service) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bound != "" {
		return s.bound
	}
	return s.addr
}
