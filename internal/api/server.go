package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomcamp/tomcamp-core/internal/audit"
	"github.com/tomcamp/tomcamp-core/internal/auth"
	"github.com/tomcamp/tomcamp-core/internal/device"
	"github.com/tomcamp/tomcamp-core/internal/infrastructure/config"
	"github.com/tomcamp/tomcamp-core/internal/infrastructure/database"
	"github.com/tomcamp/tomcamp-core/internal/infrastructure/influxdb"
	"github.com/tomcamp/tomcamp-core/internal/infrastructure/logging"
	"github.com/tomcamp/tomcamp-core/internal/infrastructure/mqtt"
	"github.com/tomcamp/tomcamp-core/internal/journal"
	"github.com/tomcamp/tomcamp-core/internal/page"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Logger   *logging.Logger
	Auth     *auth.Service
	Journals *journal.Service
	Pages    *page.Service
	Devices  *device.Service

	// Optional.
	DB        *database.DB
	Audit     *audit.Recorder
	AuditRepo audit.Repository
	MQTT      *mqtt.Client
	Influx    *influxdb.Client
	Version   string
}

// Server is the HTTP API server for Tom.Camp Core.
//
// It is created with New() and started with Start(). Handler() exposes the
// routes without a listener, which is how tests drive it.
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	logger    *logging.Logger
	auth      *auth.Service
	journals  *journal.Service
	pages     *page.Service
	devices   *device.Service
	db        *database.DB
	audit     *audit.Recorder
	auditRepo audit.Repository
	mqtt      *mqtt.Client
	influx    *influxdb.Client
	version   string
	startTime time.Time

	hub     *Hub
	tickets *ticketStore
	server  *http.Server
	cancel  context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// It also registers the WebSocket hub as a device data sink so appended
// readings reach subscribed clients.
func New(deps Deps) (*Server, error) {
	switch {
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger is required")
	case deps.Auth == nil:
		return nil, fmt.Errorf("auth service is required")
	case deps.Journals == nil, deps.Pages == nil, deps.Devices == nil:
		return nil, fmt.Errorf("journal, page and device services are required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		logger:    deps.Logger,
		auth:      deps.Auth,
		journals:  deps.Journals,
		pages:     deps.Pages,
		devices:   deps.Devices,
		db:        deps.DB,
		audit:     deps.Audit,
		auditRepo: deps.AuditRepo,
		mqtt:      deps.MQTT,
		influx:    deps.Influx,
		version:   deps.Version,
		startTime: time.Now(),
		hub:       NewHub(deps.WS, deps.Logger),
		tickets:   newTicketStore(),
	}

	s.devices.AddSink(device.SinkFunc(s.broadcastDeviceData))

	return s, nil
}

// Handler returns the routed HTTP handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)
	go s.cleanTicketsLoop(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.Handler(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server, waiting up to
// gracefulShutdownTimeout for in-flight requests.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}

// record enqueues an audit entry attributed to the request's caller.
func (s *Server) record(r *http.Request, action, entityType, entityID string, details map[string]any) {
	if s.audit == nil {
		return
	}
	username := ""
	if u := userFromContext(r.Context()); u != nil {
		username = u.Username
	}
	s.audit.Record(audit.Entry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Username:   username,
		Source:     "api",
		Details:    details,
	})
}
