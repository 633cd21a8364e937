// Package hardware probes the host for GPU and container resource metrics.
//
// Each probe returns a Result with an explicit three-way status:
//
//   - Unavailable: the source does not exist here (no nvidia-smi, no cgroup
//     memory controller). Callers skip silently.
//   - Error: the source exists but reading or parsing it failed. Callers
//     log a warning and skip.
//   - Value: the reading succeeded.
//
// The GPU probe runs nvidia-smi in CSV mode. The container probe reads the
// cgroup v2 (or v1) memory and CPU accounting files and /proc/net/dev. Both
// file roots are configurable so tests can point them at a temp dir.
package hardware
