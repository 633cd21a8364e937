package scheduler

import (
	"maps"
	"time"
)

// Status is a read-only snapshot of the loop, refreshed after every tick.
type Status struct {
	Ticks           uint64          `json:"ticks"`
	LastTick        time.Time       `json:"last_tick"`
	LastDuration    time.Duration   `json:"last_duration"`
	FailedSteps     []string        `json:"failed_steps"`
	Groups          map[string]bool `json:"groups"`
	Registry        map[string]int  `json:"registry"`
	Dropped         uint64          `json:"dropped_commands"`
	PublishFailures int             `json:"publish_failures"`
}

// Status returns a copy of the latest snapshot. It is safe to call from any
// goroutine.
func (s *Scheduler) Status() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()

	st := s.status
	st.FailedSteps = append([]string(nil), s.status.FailedSteps...)
	st.Groups = maps.Clone(s.status.Groups)
	st.Registry = maps.Clone(s.status.Registry)
	st.Dropped = s.Dropped()
	return st
}

func (s *Scheduler) updateStatus(start time.Time, failed []string) {
	registry := make(map[string]int)
	for kind, n := range s.engine.Registry().Sizes() {
		registry[string(kind)] = n
	}
	groups := s.gate.Snapshot()

	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.Ticks++
	s.status.LastTick = start
	s.status.LastDuration = s.lastDuration
	s.status.FailedSteps = failed
	s.status.Groups = groups
	s.status.Registry = registry
	s.status.PublishFailures = s.publisher.Failures()
}
