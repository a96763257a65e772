// Tom.Camp Core - personal site and IoT backend
//
// This is the main entry point for the Tom.Camp Core server. It serves the
// users, journals, pages and device API under /api, and optionally mirrors
// device readings to an MQTT broker and InfluxDB.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomcamp/tomcamp-core/internal/api"
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
	"github.com/tomcamp/tomcamp-core/internal/telemetry"
	"github.com/tomcamp/tomcamp-core/migrations"
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

// run is the application logic, separated from main for testability.
// It returns nil on clean shutdown.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence
	log := logging.Default()
	log.Info("starting Tom.Camp Core",
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
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

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

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Accounts
	tokens, err := auth.NewTokenService(cfg.Security.JWT.Secret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	authSvc, err := auth.NewService(
		auth.NewUserRepository(db.DB),
		auth.NewHasher(cfg.Security.Password.MaxConcurrent),
		tokens,
	)
	if err != nil {
		return fmt.Errorf("creating auth service: %w", err)
	}
	if _, seedErr := auth.SeedAdmin(ctx, authSvc, cfg.InitialUser, log); seedErr != nil {
		return fmt.Errorf("seeding initial admin: %w", seedErr)
	}

	// Content and devices
	journals := journal.NewService(journal.NewRepository(db.DB))
	pages := page.NewService(db.DB)
	devices := device.NewService(device.NewRepository(db.DB))
	devices.SetLogger(log.With("component", "device"))

	mqttClient, err := connectMQTT(cfg.MQTT, log)
	if err != nil {
		return err
	}
	if mqttClient != nil {
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttSink := telemetry.NewMQTTSink(mqttClient, mqttClient.QoS(), log)
		defer mqttSink.Close()
		devices.AddSink(mqttSink)
	}

	influxClient, err := connectInfluxDB(cfg.InfluxDB, log)
	if err != nil {
		return err
	}
	if influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		devices.AddSink(telemetry.NewInfluxSink(influxClient, log))
	}

	auditRepo := audit.NewSQLiteRepository(db.DB)
	recorder := audit.NewRecorder(auditRepo, log)
	defer recorder.Close()

	server, err := api.New(api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Logger:    log,
		Auth:      authSvc,
		Journals:  journals,
		Pages:     pages,
		Devices:   devices,
		DB:        db,
		Audit:     recorder,
		AuditRepo: auditRepo,
		MQTT:      mqttClient,
		Influx:    influxClient,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	// Deferred closes run in reverse: API server, audit, InfluxDB, MQTT, database.
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns TOMCAMP_CONFIG if set, otherwise the default path.
func getConfigPath() string {
	if path := os.Getenv("TOMCAMP_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// connectMQTT connects to the broker when enabled. It returns a nil client
// when MQTT is disabled.
func connectMQTT(cfg config.MQTTConfig, log *logging.Logger) (*mqtt.Client, error) {
	if !cfg.Enabled {
		log.Info("MQTT disabled")
		return nil, nil //nolint:nilnil // nil client means disabled
	}

	client, err := mqtt.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		"client_id", cfg.Broker.ClientID,
	)
	return client, nil
}

// connectInfluxDB connects the time-series writer when enabled. It returns a
// nil client when InfluxDB is disabled.
func connectInfluxDB(cfg config.InfluxDBConfig, log *logging.Logger) (*influxdb.Client, error) {
	if !cfg.Enabled {
		log.Info("InfluxDB disabled")
		return nil, nil //nolint:nilnil // nil client means disabled
	}

	client, err := influxdb.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})

	log.Info("InfluxDB connected",
		"url", cfg.URL,
		"org", cfg.Org,
		"bucket", cfg.Bucket,
	)
	return client, nil
}

// healthCheck verifies every connected dependency. Nil clients are skipped.
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
