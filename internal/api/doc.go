// Package api implements the bridge's small HTTP surface.
//
// This package provides:
//   - GET /healthz: liveness with per-dependency checks
//   - GET /metrics: Prometheus exposition
//   - GET /api/v1/status: the poll loop's latest status snapshot
//   - GET /api/v1/commands: the command audit log, newest first
//
// The server is read-only. Every state change goes through the bus.
package api
