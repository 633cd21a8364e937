package influxdb

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/jellyfin-mqtt/internal/entity"
)

// Measurement names.
const (
	MeasurementCategory = "jellyfin_category"
	MeasurementRegistry = "jellyfin_registry"
)

// WriteCategory writes the numeric and boolean values of one category.
// Field paths like "channels/count" become field keys like
// "channels_count".
func (c *Client) WriteCategory(category string, values map[string]string) {
	if !c.IsConnected() {
		return
	}
	if p := categoryPoint(category, values, time.Now()); p != nil {
		c.writeAPI.WritePoint(p)
	}
}

// WriteRegistry writes the number of registered entities per kind.
func (c *Client) WriteRegistry(sizes map[entity.Kind]int) {
	if !c.IsConnected() {
		return
	}
	now := time.Now()
	for kind, n := range sizes {
		c.writeAPI.WritePoint(registryPoint(kind, n, now))
	}
}

// categoryPoint returns nil when no value is numeric or boolean.
func categoryPoint(category string, values map[string]string, ts time.Time) *write.Point {
	fields := make(map[string]any, len(values))
	for key, raw := range values {
		if v, ok := fieldValue(raw); ok {
			fields[strings.ReplaceAll(key, "/", "_")] = v
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return write.NewPoint(MeasurementCategory, map[string]string{"category": category}, fields, ts)
}

func registryPoint(kind entity.Kind, n int, ts time.Time) *write.Point {
	return write.NewPoint(
		MeasurementRegistry,
		map[string]string{"kind": string(kind)},
		map[string]any{"count": int64(n)},
		ts,
	)
}

// fieldValue converts a published string value to a typed field.
func fieldValue(raw string) (any, bool) {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f, true
	}
	switch raw {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return nil, false
}
