package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// validConfig returns a configuration that passes Validate.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Jellyfin.APIKey = "test-api-key"
	return cfg
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
mqtt:
  broker:
    host: "broker.local"
    port: 1884
    client_id: "jf-test"
  topic: "media"
  discovery_prefix: "ha"
jellyfin:
  url: "http://jellyfin:8096"
  api_key: "from-file"
bridge:
  poll_interval: 10
  enabled_groups: ["sessions", "users"]
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
	if cfg.MQTT.Topic != "media" {
		t.Errorf("MQTT.Topic = %q, want %q", cfg.MQTT.Topic, "media")
	}
	if cfg.Bridge.PollInterval != 10 {
		t.Errorf("Bridge.PollInterval = %d, want 10", cfg.Bridge.PollInterval)
	}
	if len(cfg.Bridge.EnabledGroups) != 2 || cfg.Bridge.EnabledGroups[0] != "sessions" {
		t.Errorf("Bridge.EnabledGroups = %v, want [sessions users]", cfg.Bridge.EnabledGroups)
	}
	// Defaults survive for keys absent from the file.
	if cfg.Bridge.StartupAttempts != 30 {
		t.Errorf("Bridge.StartupAttempts = %d, want 30", cfg.Bridge.StartupAttempts)
	}
}

func TestLoad_EnvironmentOnly(t *testing.T) {
	t.Setenv("JELLYFIN_API_KEY", "env-key")
	t.Setenv("MQTT_HOST", "mqtt.example.com")
	t.Setenv("MQTT_POLL_INTERVAL", "3")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}

	if cfg.Jellyfin.APIKey != "env-key" {
		t.Errorf("Jellyfin.APIKey = %q, want %q", cfg.Jellyfin.APIKey, "env-key")
	}
	if cfg.GetPollInterval() != 3*time.Second {
		t.Errorf("GetPollInterval() = %v, want 3s", cfg.GetPollInterval())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_InvalidEnvValue(t *testing.T) {
	t.Setenv("MQTT_PORT", "not-a-number")

	_, err := Load("")
	if err == nil {
		t.Fatal("Load() expected error for unparsable MQTT_PORT, got nil")
	}
	if !strings.Contains(err.Error(), "parse env") {
		t.Errorf("Load() error = %v, want parse env error", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}, wantErr: false},
		{name: "bridge disabled", mutate: func(c *Config) { c.MQTT.Enabled = false }, wantErr: true},
		{name: "missing API key", mutate: func(c *Config) { c.Jellyfin.APIKey = "" }, wantErr: true},
		{name: "missing Jellyfin URL", mutate: func(c *Config) { c.Jellyfin.URL = "" }, wantErr: true},
		{name: "poll interval zero", mutate: func(c *Config) { c.Bridge.PollInterval = 0 }, wantErr: true},
		{name: "poll interval one", mutate: func(c *Config) { c.Bridge.PollInterval = 1 }, wantErr: false},
		{name: "invalid QoS", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{name: "wildcard topic", mutate: func(c *Config) { c.MQTT.Topic = "jellyfin/#" }, wantErr: true},
		{name: "empty discovery prefix", mutate: func(c *Config) { c.MQTT.DiscoveryPrefix = "" }, wantErr: true},
		{name: "broker port high", mutate: func(c *Config) { c.MQTT.Broker.Port = 70000 }, wantErr: true},
		{name: "missing client ID", mutate: func(c *Config) { c.MQTT.Broker.ClientID = "" }, wantErr: true},
		{name: "api port ignored when disabled", mutate: func(c *Config) { c.API.Port = 0 }, wantErr: false},
		{name: "api port checked when enabled", mutate: func(c *Config) { c.API.Enabled = true; c.API.Port = 0 }, wantErr: true},
		{name: "database path required when enabled", mutate: func(c *Config) { c.Database.Enabled = true; c.Database.Path = "" }, wantErr: true},
		{name: "influxdb bucket required when enabled", mutate: func(c *Config) { c.InfluxDB.Enabled = true; c.InfluxDB.URL = "http://influx:8086" }, wantErr: true},
		{name: "zero startup attempts", mutate: func(c *Config) { c.Bridge.StartupAttempts = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Jellyfin.APIKey = ""
	cfg.Bridge.PollInterval = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, want := range []string{"jellyfin.api_key", "bridge.poll_interval"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error %q does not mention %q", err, want)
		}
	}
}

func TestConfig_ServerID(t *testing.T) {
	cfg := validConfig()
	cfg.MQTT.Broker.ClientID = "jellyfin-mqtt-living-room"

	if got := cfg.ServerID(); got != "jellyfin_mqtt_living_room" {
		t.Errorf("ServerID() = %q, want %q", got, "jellyfin_mqtt_living_room")
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
		Bridge: BridgeConfig{
			CommandTimeout: 7,
			StartupDelay:   2,
		},
		Jellyfin: JellyfinConfig{Timeout: 10},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}
	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}
	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
	if got := cfg.GetCommandTimeout(); got != 7*time.Second {
		t.Errorf("GetCommandTimeout() = %v, want 7s", got)
	}
	if got := cfg.GetStartupDelay(); got != 2*time.Second {
		t.Errorf("GetStartupDelay() = %v, want 2s", got)
	}
	if got := cfg.GetJellyfinTimeout(); got != 10*time.Second {
		t.Errorf("GetJellyfinTimeout() = %v, want 10s", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("MQTT_HOST", "mqtt.example.com")
	t.Setenv("MQTT_PORT", "8883")
	t.Setenv("MQTT_USER", "testuser")
	t.Setenv("MQTT_PASSWORD", "testpass")
	t.Setenv("MQTT_TOPIC", "media")
	t.Setenv("MQTT_DISCOVERY_PREFIX", "hass")
	t.Setenv("MQTT_CLIENT_ID", "jf-bridge")
	t.Setenv("JELLYFIN_HOST", "http://jf:8096")
	t.Setenv("JELLYFIN_API_KEY", "secret")
	t.Setenv("BRIDGE_ENABLED_GROUPS", "sessions,tasks")
	t.Setenv("INFLUXDB_TOKEN", "secret-token")

	if err := applyEnvOverrides(cfg); err != nil {
		t.Fatalf("applyEnvOverrides() error = %v", err)
	}

	checks := []struct {
		name string
		got  string
		want string
	}{
		{"MQTT.Broker.Host", cfg.MQTT.Broker.Host, "mqtt.example.com"},
		{"MQTT.Auth.Username", cfg.MQTT.Auth.Username, "testuser"},
		{"MQTT.Auth.Password", cfg.MQTT.Auth.Password, "testpass"},
		{"MQTT.Topic", cfg.MQTT.Topic, "media"},
		{"MQTT.DiscoveryPrefix", cfg.MQTT.DiscoveryPrefix, "hass"},
		{"MQTT.Broker.ClientID", cfg.MQTT.Broker.ClientID, "jf-bridge"},
		{"Jellyfin.URL", cfg.Jellyfin.URL, "http://jf:8096"},
		{"Jellyfin.APIKey", cfg.Jellyfin.APIKey, "secret"},
		{"InfluxDB.Token", cfg.InfluxDB.Token, "secret-token"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}

	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker.Port = %d, want 8883", cfg.MQTT.Broker.Port)
	}
	if len(cfg.Bridge.EnabledGroups) != 2 || cfg.Bridge.EnabledGroups[1] != "tasks" {
		t.Errorf("Bridge.EnabledGroups = %v, want [sessions tasks]", cfg.Bridge.EnabledGroups)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.Topic != "jellyfin" {
		t.Errorf("defaultConfig MQTT.Topic = %q, want %q", cfg.MQTT.Topic, "jellyfin")
	}
	if cfg.MQTT.DiscoveryPrefix != "homeassistant" {
		t.Errorf("defaultConfig MQTT.DiscoveryPrefix = %q, want %q", cfg.MQTT.DiscoveryPrefix, "homeassistant")
	}
	if cfg.Bridge.PollInterval != 5 {
		t.Errorf("defaultConfig Bridge.PollInterval = %d, want 5", cfg.Bridge.PollInterval)
	}
	if len(cfg.Bridge.EnabledGroups) != 0 {
		t.Errorf("defaultConfig Bridge.EnabledGroups = %v, want none", cfg.Bridge.EnabledGroups)
	}
}
