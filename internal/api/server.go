package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nerrad567/keygate/internal/audit"
	"github.com/nerrad567/keygate/internal/auth"
	"github.com/nerrad567/keygate/internal/catalog"
	"github.com/nerrad567/keygate/internal/events"
	"github.com/nerrad567/keygate/internal/infrastructure/config"
	"github.com/nerrad567/keygate/internal/infrastructure/database"
	"github.com/nerrad567/keygate/internal/infrastructure/logging"
	"github.com/nerrad567/keygate/internal/infrastructure/mqtt"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	WS      config.WebSocketConfig
	Logger  *logging.Logger
	DB      *database.DB
	MQTT    *mqtt.Client // optional, reported in /metrics
	Bus     *events.Bus  // optional, reported in /metrics
	Hub     *Hub         // optional; created by Start if nil
	Version string

	Authenticator *auth.Authenticator
	Authorizer    *auth.Authorizer
	Issuer        *auth.Issuer
	Accounts      *auth.Accounts
	Registry      *auth.Registry
	Catalog       *catalog.Service
	Audit         audit.Repository
}

// Server is the HTTP API server for keygate.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg      config.APIConfig
	wsCfg    config.WebSocketConfig
	logger   *logging.Logger
	db       *database.DB
	mqtt     *mqtt.Client
	bus      *events.Bus
	hub      *Hub
	ownHub   bool // true if Start created the hub
	version  string
	validate *validator.Validate

	authn    *auth.Authenticator
	authz    *auth.Authorizer
	issuer   *auth.Issuer
	accounts *auth.Accounts
	registry *auth.Registry
	catalog  *catalog.Service
	audit    audit.Repository

	server    *http.Server
	startTime time.Time
	cancel    context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, errors.New("logger is required")
	}
	switch {
	case deps.Authenticator == nil:
		return nil, errors.New("authenticator is required")
	case deps.Authorizer == nil:
		return nil, errors.New("authorizer is required")
	case deps.Issuer == nil:
		return nil, errors.New("issuer is required")
	case deps.Accounts == nil:
		return nil, errors.New("accounts service is required")
	case deps.Registry == nil:
		return nil, errors.New("permission registry is required")
	case deps.Catalog == nil:
		return nil, errors.New("catalog service is required")
	case deps.Audit == nil:
		return nil, errors.New("audit repository is required")
	}

	return &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		logger:    deps.Logger,
		db:        deps.DB,
		mqtt:      deps.MQTT,
		bus:       deps.Bus,
		hub:       deps.Hub,
		version:   deps.Version,
		validate:  newValidator(),
		authn:     deps.Authenticator,
		authz:     deps.Authorizer,
		issuer:    deps.Issuer,
		accounts:  deps.Accounts,
		registry:  deps.Registry,
		catalog:   deps.Catalog,
		audit:     deps.Audit,
		startTime: time.Now(),
	}, nil
}

// Handler returns the routed HTTP handler. Start uses it; tests can serve
// it directly.
func (s *Server) Handler() http.Handler {
	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
		s.ownHub = true
	}
	return s.buildRouter()
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
//
// Returns:
//   - error: If the server was already started
func (s *Server) Start(ctx context.Context) error {
	if s.server != nil {
		return errors.New("api server already started")
	}

	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	handler := s.Handler()
	if s.ownHub {
		go s.hub.Run(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           handler,
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

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return errors.New("api server not started")
	}
	return nil
}
