// jellyfin-mqtt bridges a Jellyfin media server to an MQTT broker.
//
// It polls the server, publishes state under a topic tree, announces
// entities through Home Assistant MQTT discovery and turns inbound command
// messages into server actions.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nerrad567/jellyfin-mqtt/internal/api"
	"github.com/nerrad567/jellyfin-mqtt/internal/audit"
	"github.com/nerrad567/jellyfin-mqtt/internal/command"
	"github.com/nerrad567/jellyfin-mqtt/internal/discovery"
	"github.com/nerrad567/jellyfin-mqtt/internal/entity"
	"github.com/nerrad567/jellyfin-mqtt/internal/gate"
	"github.com/nerrad567/jellyfin-mqtt/internal/hardware"
	"github.com/nerrad567/jellyfin-mqtt/internal/infrastructure/config"
	"github.com/nerrad567/jellyfin-mqtt/internal/infrastructure/database"
	"github.com/nerrad567/jellyfin-mqtt/internal/infrastructure/influxdb"
	"github.com/nerrad567/jellyfin-mqtt/internal/infrastructure/logging"
	"github.com/nerrad567/jellyfin-mqtt/internal/infrastructure/mqtt"
	"github.com/nerrad567/jellyfin-mqtt/internal/jellyfin"
	"github.com/nerrad567/jellyfin-mqtt/internal/metrics"
	"github.com/nerrad567/jellyfin-mqtt/internal/reconcile"
	"github.com/nerrad567/jellyfin-mqtt/internal/scheduler"
	"github.com/nerrad567/jellyfin-mqtt/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	// configEnv names an optional YAML file.
	configEnv = "JELLYFIN_MQTT_CONFIG"

	// defaultConfigPath is used when configEnv is unset and the file exists.
	defaultConfigPath = "configs/config.yaml"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and blocks in the poll loop until ctx is
// cancelled. Returning an error lets main handle exit codes consistently.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting jellyfin-mqtt",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"level", cfg.Logging.Level,
		"poll_interval", cfg.GetPollInterval(),
	)

	registerer := prometheus.NewRegistry()
	registerer.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(registerer)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	// Remote server
	remote := jellyfin.New(cfg.Jellyfin.URL, cfg.Jellyfin.APIKey, cfg.GetJellyfinTimeout())
	if err := scheduler.WaitForRemote(ctx, remote, cfg.Bridge.StartupAttempts, cfg.GetStartupDelay(),
		log.Component("startup")); err != nil {
		return err
	}
	info, err := remote.SystemInfo(ctx)
	if err != nil {
		// The first system poll fills the version in.
		log.Warn("reading server info failed", "error", err)
	} else {
		log.Info("media server reachable", "server", info.ServerName, "version", info.Version)
	}

	// Bus
	topics := mqtt.NewTopics(cfg.MQTT.Topic, cfg.MQTT.DiscoveryPrefix, cfg.ServerID())
	bus, err := mqtt.Connect(cfg.MQTT, topics)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := bus.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	bus.SetLogger(log.Component("mqtt"))
	m.SetConnected(true)
	bus.SetOnDisconnect(func(err error) {
		m.SetConnected(false)
		log.Warn("MQTT connection lost", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Core
	g, err := gate.New(cfg.Bridge.EnabledGroups...)
	if err != nil {
		return fmt.Errorf("enabled groups: %w", err)
	}
	qos := byte(cfg.MQTT.QoS) //nolint:gosec // validated 0..2
	publisher := discovery.NewPublisher(bus, topics,
		discovery.NewDevice(cfg.ServerID(), info.Version, remote.BaseURL()),
		discovery.Options{QoS: qos, Logger: log.Component("discovery")})
	publisher.SetVersion(info.Version)
	engine := reconcile.NewEngine(remote, entity.NewRegistry(), publisher,
		reconcile.Config{Timeout: cfg.GetJellyfinTimeout(), Logger: log.Component("reconcile")})

	// Optional command audit log
	var recorder command.Recorder
	var commands audit.Repository
	checks := map[string]api.Checker{"mqtt": bus}
	if cfg.Database.Enabled {
		db, dbErr := database.Open(cfg.Database)
		if dbErr != nil {
			return fmt.Errorf("opening database: %w", dbErr)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		applied, migrateErr := db.Migrate(ctx, migrations.FS)
		if migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("command log ready", "path", cfg.Database.Path, "migrations_applied", applied)
		repo := audit.NewSQLiteRepository(db.DB)
		recorder, commands = repo, repo
		checks["database"] = db
	}

	// Optional time-series export
	var exporter scheduler.Exporter
	if cfg.InfluxDB.Enabled {
		influx, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB")
			if closeErr := influx.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influx.SetOnError(func(err error) {
			log.Warn("InfluxDB write failed", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
		exporter = influx
		checks["influxdb"] = influx
	}

	router := command.NewRouter(topics, engine.Registry(), g, remote, publisher, command.Config{
		Timeout:  cfg.GetCommandTimeout(),
		Logger:   log.Component("command"),
		Metrics:  m,
		Recorder: recorder,
	})

	opts := scheduler.Options{
		Interval:  cfg.GetPollInterval(),
		InboxSize: cfg.Bridge.InboxSize,
		Timeout:   cfg.GetJellyfinTimeout(),
		Remote:    remote,
		Engine:    engine,
		Publisher: publisher,
		Gate:      g,
		Router:    router,
		Exporter:  exporter,
		Metrics:   m,
		Logger:    log.Component("scheduler"),
	}
	if cfg.Bridge.Hardware.Enabled {
		opts.GPU = hardware.NewGPUProbe(cfg.Bridge.Hardware.NvidiaSMI, hardware.DefaultGPUTimeout)
		opts.Container = hardware.NewContainerProbe(cfg.Bridge.Hardware.CgroupRoot, cfg.Bridge.Hardware.ProcRoot)
	}
	loop, err := scheduler.New(opts)
	if err != nil {
		return fmt.Errorf("creating poll loop: %w", err)
	}

	// Every reconnect announces everything again.
	bus.SetOnConnect(func() {
		m.SetConnected(true)
		loop.RequestReannounce()
	})
	if err := bus.SubscribeAll(topics.Subscriptions(), qos, loop.Deliver); err != nil {
		return fmt.Errorf("subscribing to command topics: %w", err)
	}

	if cfg.API.Enabled {
		srv, apiErr := api.New(api.Deps{
			Config:   cfg.API,
			Logger:   log.Component("api"),
			Status:   loop,
			Gatherer: registerer,
			Commands: commands,
			Checks:   checks,
			Version:  version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := srv.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	log.Info("jellyfin-mqtt started",
		"server_id", cfg.ServerID(),
		"enabled_groups", g.EnabledCategories(),
	)

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("poll loop: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}

// getConfigPath returns the YAML file to load, or "" for environment-only
// configuration.
func getConfigPath() string {
	if path := os.Getenv(configEnv); path != "" {
		return path
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}
