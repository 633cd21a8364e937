// Package metrics holds the bridge's Prometheus collectors.
//
// All recording methods are safe on a nil *Metrics so components can be
// constructed without metrics in tests.
package metrics
