package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/jellyfin-mqtt/internal/entity"
)

// DefaultTimeout bounds a single list call when Config.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// Lister fetches the current snapshot of one kind.
type Lister interface {
	List(ctx context.Context, kind entity.Kind) ([]entity.Item, error)
}

// Sink receives the events of a reconciliation pass.
//
// Register carries the full item (attributes and state). Update carries the
// same item but consumers must only republish its State. Unregister carries
// the full id of the entity to retract.
type Sink interface {
	Register(kind entity.Kind, item entity.Item)
	Update(kind entity.Kind, item entity.Item)
	Unregister(kind entity.Kind, id string)
}

// Logger defines the logging interface used by the Engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Config holds Engine settings.
type Config struct {
	// Timeout bounds each list call. Zero means DefaultTimeout.
	Timeout time.Duration

	// Logger receives debug and warning output. Nil disables logging.
	Logger Logger
}

// Result summarises one pass.
type Result struct {
	Kind entity.Kind

	// Items is the de-duplicated snapshot, in server order.
	Items []entity.Item

	Registered   int
	Updated      int
	Unregistered int

	// Skipped counts items dropped for an empty or duplicate id.
	Skipped int
}

// Engine reconciles snapshots against a Registry.
type Engine struct {
	lister   Lister
	registry *entity.Registry
	sink     Sink
	timeout  time.Duration
	logger   Logger

	// last holds the most recent item of every registered id, per kind,
	// so that registered entities can be announced again after the bus
	// lost its retained state.
	last map[entity.Kind]map[string]entity.Item
}

// NewEngine creates an Engine writing to registry and emitting to sink.
func NewEngine(lister Lister, registry *entity.Registry, sink Sink, cfg Config) *Engine {
	e := &Engine{
		lister:   lister,
		registry: registry,
		sink:     sink,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
		last:     make(map[entity.Kind]map[string]entity.Item),
	}
	if e.timeout <= 0 {
		e.timeout = DefaultTimeout
	}
	if e.logger == nil {
		e.logger = noopLogger{}
	}
	return e
}

// Registry returns the registry the engine writes to.
func (e *Engine) Registry() *entity.Registry {
	return e.registry
}

// Reconcile runs one pass for kind.
//
// On a list failure the returned error wraps ErrFetchFailed, the Registry
// is untouched and no events are emitted.
func (e *Engine) Reconcile(ctx context.Context, kind entity.Kind) (Result, error) {
	result := Result{Kind: kind}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	items, err := e.lister.List(callCtx, kind)
	cancel()
	if err != nil {
		return result, fmt.Errorf("%w: %s: %w", ErrFetchFailed, kind, err)
	}

	observed := make(map[string]struct{}, len(items))
	result.Items = make([]entity.Item, 0, len(items))
	for _, item := range items {
		if item.ID == "" {
			result.Skipped++
			continue
		}
		if _, dup := observed[item.ID]; dup {
			e.logger.Debug("duplicate id in snapshot", "kind", kind, "id", item.ID)
			result.Skipped++
			continue
		}
		observed[item.ID] = struct{}{}
		result.Items = append(result.Items, item)
	}

	cache := e.cacheFor(kind)
	for _, item := range result.Items {
		if !e.registry.Contains(kind, item.ID) {
			e.sink.Register(kind, item)
			e.registry.Add(kind, item.ID)
			result.Registered++
		} else {
			e.sink.Update(kind, item)
			result.Updated++
		}
		cache[item.ID] = item.Clone()
	}

	// Snapshot is sorted, so retractions happen in ascending id order.
	for _, id := range e.registry.Snapshot(kind) {
		if _, ok := observed[id]; ok {
			continue
		}
		e.sink.Unregister(kind, id)
		e.registry.Remove(kind, id)
		delete(cache, id)
		result.Unregistered++
	}

	if result.Registered > 0 || result.Unregistered > 0 {
		e.logger.Info("entities reconciled",
			"kind", kind,
			"registered", result.Registered,
			"unregistered", result.Unregistered,
			"total", e.registry.Len(kind),
		)
	}

	return result, nil
}

// Reannounce emits Register for every registered entity of kind using its
// most recent item. The Registry is not changed. It returns the number of
// entities announced.
func (e *Engine) Reannounce(kind entity.Kind) int {
	cache := e.last[kind]
	n := 0
	for _, id := range e.registry.Snapshot(kind) {
		item, ok := cache[id]
		if !ok {
			item = entity.Item{ID: id}
		}
		e.sink.Register(kind, item)
		n++
	}
	return n
}

// Last returns the most recent item seen for a registered id.
func (e *Engine) Last(kind entity.Kind, id string) (entity.Item, bool) {
	item, ok := e.last[kind][id]
	return item, ok
}

func (e *Engine) cacheFor(kind entity.Kind) map[string]entity.Item {
	cache, ok := e.last[kind]
	if !ok {
		cache = make(map[string]entity.Item)
		e.last[kind] = cache
	}
	return cache
}
