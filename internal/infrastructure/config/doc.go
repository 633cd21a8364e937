// Package config handles loading and validating bridge configuration.
//
// This package manages:
//   - Loading configuration from an optional YAML file
//   - Overriding with environment variables (caarlos0/env)
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - The Jellyfin API key and MQTT password should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load(os.Getenv("JELLYFIN_MQTT_CONFIG"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.MQTT.Topic)
package config
