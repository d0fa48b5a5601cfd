// keygate - administrator credential and permission service.
//
// keygate issues each administrator a one-time client key/token pair,
// exchanges it once for a client secret, and guards every admin route
// with a role-based permission check. A small product catalog (brands,
// categories and subcategories) sits behind the same guard.
//
// Security events are written to the audit trail and, when configured,
// published over MQTT, recorded in InfluxDB and streamed over WebSocket.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	_ "github.com/nerrad567/keygate/migrations"

	"github.com/nerrad567/keygate/internal/api"
	"github.com/nerrad567/keygate/internal/audit"
	"github.com/nerrad567/keygate/internal/auth"
	"github.com/nerrad567/keygate/internal/catalog"
	"github.com/nerrad567/keygate/internal/events"
	"github.com/nerrad567/keygate/internal/infrastructure/config"
	"github.com/nerrad567/keygate/internal/infrastructure/database"
	"github.com/nerrad567/keygate/internal/infrastructure/influxdb"
	"github.com/nerrad567/keygate/internal/infrastructure/logging"
	"github.com/nerrad567/keygate/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application, separated from main for testability.
// It returns nil on clean shutdown.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting keygate",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	users := auth.NewUserRepository(db.DB)
	roles := auth.NewRoleRepository(db.DB)
	perms := auth.NewPermissionRepository(db.DB)
	auditRepo := audit.NewSQLiteRepository(db.DB)
	passwordParams := auth.PasswordParams{
		Time:    cfg.Security.Password.Time,
		Memory:  cfg.Security.Password.Memory,
		Threads: cfg.Security.Password.Threads,
	}

	if _, err := auth.Bootstrap(ctx, auth.BootstrapConfig{
		AdminName:  cfg.Security.Bootstrap.AdminName,
		AdminEmail: cfg.Security.Bootstrap.AdminEmail,
		Password:   passwordParams,
	}, users, roles, perms, log.Logger); err != nil {
		return fmt.Errorf("bootstrapping: %w", err)
	}

	// Event bus: the audit trail always, MQTT and WebSocket as configured.
	bus := events.NewBus(events.DefaultBufferSize, log.With("component", "events"))
	bus.AddSink(events.NewAuditSink(auditRepo))

	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		bus.AddSink(events.NewMQTTSink(mqttClient))
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"topic_prefix", cfg.MQTT.TopicPrefix,
		)
	} else {
		log.Info("MQTT disabled")
	}

	hooks := []auth.Option{auth.WithEvents(bus)}
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		hooks = append(hooks, auth.WithMetrics(influxClient))
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	signer, err := auth.NewSecretSigner(cfg.Security.SecretSigningKey)
	if err != nil {
		return fmt.Errorf("creating secret signer: %w", err)
	}

	hub := api.NewHub(cfg.WebSocket, log.With("component", "websocket"))
	bus.AddSink(hub)

	srv, err := api.New(api.Deps{
		Config:        cfg.API,
		WS:            cfg.WebSocket,
		Logger:        log,
		DB:            db,
		MQTT:          mqttClient,
		Bus:           bus,
		Hub:           hub,
		Version:       version,
		Authenticator: auth.NewAuthenticator(users, signer),
		Authorizer:    auth.NewAuthorizer(roles, hooks...),
		Issuer:        auth.NewIssuer(users, signer, hooks...),
		Accounts:      auth.NewAccounts(users, roles, passwordParams, hooks...),
		Registry:      auth.NewRegistry(roles, perms, hooks...),
		Catalog:       catalog.NewService(catalog.NewSQLiteRepository(db.DB), bus),
		Audit:         auditRepo,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	stopBackground := startBackground(bus, hub)

	if err := srv.Start(ctx); err != nil {
		if stopErr := stopBackground(); stopErr != nil {
			log.Error("error stopping background workers", "error", stopErr)
		}
		return fmt.Errorf("starting API server: %w", err)
	}
	log.Info("keygate ready", "address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))

	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	if err := srv.Close(); err != nil {
		log.Error("error closing API server", "error", err)
	}
	if err := stopBackground(); err != nil {
		return err
	}

	log.Info("keygate stopped")
	return nil
}

// startBackground runs the event bus and WebSocket hub on contexts of
// their own. The returned stop drains the bus and then disconnects
// WebSocket clients. Call it only after the API server has closed, so
// events published by in-flight requests are still delivered.
func startBackground(bus *events.Bus, hub *api.Hub) (stop func() error) {
	busCtx, stopBus := context.WithCancel(context.Background())
	hubCtx, stopHub := context.WithCancel(context.Background())

	var g errgroup.Group
	busDone := make(chan struct{})
	g.Go(func() error {
		defer close(busDone)
		return bus.Run(busCtx)
	})
	g.Go(func() error {
		hub.Run(hubCtx)
		return nil
	})

	return func() error {
		stopBus()
		<-busDone
		stopHub()
		return g.Wait()
	}
}

// getConfigPath returns KEYGATE_CONFIG if set, otherwise the default path.
func getConfigPath() string {
	if path := os.Getenv("KEYGATE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies every configured connection. Nil clients are
// disabled and skipped.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
