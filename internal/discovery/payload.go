package discovery

import (
	"encoding/json"
	"fmt"
)

// Home Assistant components used by the bridge.
const (
	ComponentSensor       = "sensor"
	ComponentBinarySensor = "binary_sensor"
	ComponentButton       = "button"
	ComponentSwitch       = "switch"
	ComponentNumber       = "number"
	ComponentText         = "text"
)

// Device is the Home Assistant device block shared by every entity.
type Device struct {
	Identifiers      []string `json:"identifiers"`
	Name             string   `json:"name"`
	Manufacturer     string   `json:"manufacturer"`
	Model            string   `json:"model"`
	SWVersion        string   `json:"sw_version,omitempty"`
	ConfigurationURL string   `json:"configuration_url,omitempty"`
}

// NewDevice builds the device block for a server.
func NewDevice(serverID, version, configurationURL string) Device {
	d := Device{
		Identifiers:      []string{"jellyfin_" + serverID},
		Name:             "Jellyfin Media Server",
		Manufacturer:     "Jellyfin",
		ConfigurationURL: configurationURL,
	}
	d.setVersion(version)
	return d
}

func (d *Device) setVersion(version string) {
	d.SWVersion = version
	if version == "" {
		d.Model = "Jellyfin"
		return
	}
	d.Model = "Jellyfin " + version
}

// Config is one discovery config payload.
type Config struct {
	Name              string   `json:"name"`
	UniqueID          string   `json:"unique_id"`
	StateTopic        string   `json:"state_topic,omitempty"`
	CommandTopic      string   `json:"command_topic,omitempty"`
	AvailabilityTopic string   `json:"availability_topic,omitempty"`
	PayloadPress      string   `json:"payload_press,omitempty"`
	PayloadOn         string   `json:"payload_on,omitempty"`
	PayloadOff        string   `json:"payload_off,omitempty"`
	Min               *float64 `json:"min,omitempty"`
	Max               *float64 `json:"max,omitempty"`
	Step              *float64 `json:"step,omitempty"`
	Unit              string   `json:"unit_of_measurement,omitempty"`
	DeviceClass       string   `json:"device_class,omitempty"`
	Icon              string   `json:"icon,omitempty"`
	Mode              string   `json:"mode,omitempty"`
	Device            Device   `json:"device"`
}

// Marshal renders the payload as JSON.
func (c Config) Marshal() ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding discovery config %s: %w", c.UniqueID, err)
	}
	return data, nil
}

func float(v float64) *float64 {
	return &v
}
