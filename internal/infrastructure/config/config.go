package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the bridge.
// Values come from defaults, an optional YAML file, then environment variables.
type Config struct {
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Jellyfin JellyfinConfig `yaml:"jellyfin"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// MQTTConfig contains MQTT broker connection settings and the topic layout.
type MQTTConfig struct {
	// Enabled must be true for the bridge to start.
	Enabled   bool                `yaml:"enabled" env:"MQTT_ENABLE"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos" env:"MQTT_QOS"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// Topic is the base of the state and command tree (e.g. "jellyfin").
	Topic string `yaml:"topic" env:"MQTT_TOPIC"`

	// DiscoveryPrefix is the Home Assistant discovery prefix.
	DiscoveryPrefix string `yaml:"discovery_prefix" env:"MQTT_DISCOVERY_PREFIX"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host" env:"MQTT_HOST"`
	Port     int    `yaml:"port" env:"MQTT_PORT"`
	TLS      bool   `yaml:"tls" env:"MQTT_TLS"`
	ClientID string `yaml:"client_id" env:"MQTT_CLIENT_ID"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username" env:"MQTT_USER"`
	Password string `yaml:"password" env:"MQTT_PASSWORD"`
}

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// JellyfinConfig contains the media server endpoint and credentials.
type JellyfinConfig struct {
	URL    string `yaml:"url" env:"JELLYFIN_HOST"`
	APIKey string `yaml:"api_key" env:"JELLYFIN_API_KEY"`

	// Timeout is the per-request timeout in seconds.
	Timeout int `yaml:"timeout" env:"JELLYFIN_TIMEOUT"`
}

// BridgeConfig contains poll loop and command handling settings.
type BridgeConfig struct {
	// PollInterval is the time between ticks in seconds (minimum 1).
	PollInterval int `yaml:"poll_interval" env:"MQTT_POLL_INTERVAL"`

	// CommandTimeout bounds a single remote call made for an inbound command, in seconds.
	CommandTimeout int `yaml:"command_timeout" env:"BRIDGE_COMMAND_TIMEOUT"`

	// StartupAttempts and StartupDelay bound the initial liveness probe.
	StartupAttempts int `yaml:"startup_attempts" env:"BRIDGE_STARTUP_ATTEMPTS"`
	StartupDelay    int `yaml:"startup_delay" env:"BRIDGE_STARTUP_DELAY"`

	// InboxSize is the capacity of the inbound command queue.
	InboxSize int `yaml:"inbox_size" env:"BRIDGE_INBOX_SIZE"`

	// EnabledGroups lists content categories enabled at startup.
	// Every other content category starts disabled.
	EnabledGroups []string `yaml:"enabled_groups" env:"BRIDGE_ENABLED_GROUPS" envSeparator:","`

	// Hardware toggles the GPU and container probes.
	Hardware HardwareConfig `yaml:"hardware"`
}

// HardwareConfig contains settings for local hardware probes.
type HardwareConfig struct {
	Enabled    bool   `yaml:"enabled" env:"HARDWARE_ENABLED"`
	NvidiaSMI  string `yaml:"nvidia_smi" env:"HARDWARE_NVIDIA_SMI"`
	CgroupRoot string `yaml:"cgroup_root" env:"HARDWARE_CGROUP_ROOT"`
	ProcRoot   string `yaml:"proc_root" env:"HARDWARE_PROC_ROOT"`
}

// APIConfig contains the status and metrics HTTP server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled" env:"API_ENABLED"`
	Host     string           `yaml:"host" env:"API_HOST"`
	Port     int              `yaml:"port" env:"API_PORT"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// DatabaseConfig contains SQLite settings for the command audit log.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled" env:"DATABASE_ENABLED"`
	Path        string `yaml:"path" env:"DATABASE_PATH"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled" env:"INFLUXDB_ENABLED"`
	URL           string `yaml:"url" env:"INFLUXDB_URL"`
	Token         string `yaml:"token" env:"INFLUXDB_TOKEN"`
	Org           string `yaml:"org" env:"INFLUXDB_ORG"`
	Bucket        string `yaml:"bucket" env:"INFLUXDB_BUCKET"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
	Output string `yaml:"output" env:"LOG_OUTPUT"`
}

// Load reads configuration and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values, when path is non-empty
//  3. Environment variables
//
// Environment variable names match the ones used by existing container
// deployments of the bridge: MQTT_HOST, MQTT_PORT, MQTT_USER,
// MQTT_PASSWORD, MQTT_TOPIC, MQTT_DISCOVERY_PREFIX, MQTT_CLIENT_ID,
// MQTT_POLL_INTERVAL, JELLYFIN_HOST, JELLYFIN_API_KEY and so on.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Enabled: true,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "jellyfin-mqtt",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			Topic:           "jellyfin",
			DiscoveryPrefix: "homeassistant",
		},
		Jellyfin: JellyfinConfig{
			URL:     "http://localhost:8096",
			Timeout: 10,
		},
		Bridge: BridgeConfig{
			PollInterval:    5,
			CommandTimeout:  5,
			StartupAttempts: 30,
			StartupDelay:    2,
			InboxSize:       256,
			Hardware: HardwareConfig{
				Enabled:    true,
				NvidiaSMI:  "nvidia-smi",
				CgroupRoot: "/sys/fs/cgroup",
				ProcRoot:   "/proc",
			},
		},
		API: APIConfig{
			Enabled: false,
			Host:    "0.0.0.0",
			Port:    9108,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
		},
		Database: DatabaseConfig{
			Enabled:     false,
			Path:        "./data/jellyfin-mqtt.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides parses environment variables into cfg.
// Unset variables leave the existing value untouched.
func applyEnvOverrides(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks the configuration for errors.
//
// All problems are collected and reported together.
func (c *Config) Validate() error {
	var errs []string

	// MQTT validation
	if !c.MQTT.Enabled {
		errs = append(errs, "mqtt.enabled must be true (set MQTT_ENABLE=true)")
	}
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.Broker.ClientID == "" {
		errs = append(errs, "mqtt.broker.client_id is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Topic == "" || strings.ContainsAny(c.MQTT.Topic, "+#") {
		errs = append(errs, "mqtt.topic is required and must not contain wildcards")
	}
	if c.MQTT.DiscoveryPrefix == "" || strings.ContainsAny(c.MQTT.DiscoveryPrefix, "+#") {
		errs = append(errs, "mqtt.discovery_prefix is required and must not contain wildcards")
	}

	// Jellyfin validation
	if c.Jellyfin.URL == "" {
		errs = append(errs, "jellyfin.url is required")
	}
	if c.Jellyfin.APIKey == "" {
		errs = append(errs, "jellyfin.api_key is required (set JELLYFIN_API_KEY environment variable)")
	}
	if c.Jellyfin.Timeout < 1 {
		errs = append(errs, "jellyfin.timeout must be at least 1 second")
	}

	// Bridge validation
	if c.Bridge.PollInterval < 1 {
		errs = append(errs, "bridge.poll_interval must be at least 1 second")
	}
	if c.Bridge.CommandTimeout < 1 {
		errs = append(errs, "bridge.command_timeout must be at least 1 second")
	}
	if c.Bridge.StartupAttempts < 1 {
		errs = append(errs, "bridge.startup_attempts must be at least 1")
	}
	if c.Bridge.InboxSize < 1 {
		errs = append(errs, "bridge.inbox_size must be at least 1")
	}

	// Optional components
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when the audit log is enabled")
	}
	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url, influxdb.org and influxdb.bucket are required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
	}

	return nil
}

// ErrInvalid is returned by Validate when one or more settings are unusable.
var ErrInvalid = errors.New("configuration errors")

// ServerID returns the identifier used in discovery unique ids and topics.
// It is the MQTT client id with dashes replaced by underscores.
func (c *Config) ServerID() string {
	return strings.ReplaceAll(c.MQTT.Broker.ClientID, "-", "_")
}

// GetPollInterval returns the poll interval as a Duration.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Bridge.PollInterval) * time.Second
}

// GetCommandTimeout returns the remote call timeout for inbound commands.
func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Bridge.CommandTimeout) * time.Second
}

// GetStartupDelay returns the delay between startup liveness probes.
func (c *Config) GetStartupDelay() time.Duration {
	return time.Duration(c.Bridge.StartupDelay) * time.Second
}

// GetJellyfinTimeout returns the per-request timeout for the media server.
func (c *Config) GetJellyfinTimeout() time.Duration {
	return time.Duration(c.Jellyfin.Timeout) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
