// Package influxdb exports bridge readings to InfluxDB v2.
//
// Scalar category values (system, items, livetv, media, misc, gpu,
// container, bridge) are written as one point per category in the
// jellyfin_category measurement; numeric and boolean values become fields
// and everything else is dropped. Registry sizes are written per kind to
// jellyfin_registry.
//
// Writes go through the non-blocking batched write API, so they never stall
// the poll loop. Async write errors are delivered to the SetOnError
// callback.
package influxdb
