package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/jellyfin-mqtt/internal/entity"
	"github.com/nerrad567/jellyfin-mqtt/internal/gate"
	"github.com/nerrad567/jellyfin-mqtt/internal/hardware"
	"github.com/nerrad567/jellyfin-mqtt/internal/jellyfin"
	"github.com/nerrad567/jellyfin-mqtt/internal/metrics"
	"github.com/nerrad567/jellyfin-mqtt/internal/reconcile"
)

// Defaults.
const (
	DefaultInterval  = 30 * time.Second
	MinInterval      = time.Second
	DefaultInboxSize = 256
	DefaultTimeout   = 5 * time.Second
)

// Category names of the never-gated steps.
const (
	CategoryGPU       = "gpu"
	CategoryContainer = "container"
	CategoryBridge    = "bridge"
)

// ScalarSource fetches scalar category values.
type ScalarSource interface {
	FetchCategory(ctx context.Context, category string) (map[string]string, error)
}

// Reconciler reconciles one kind and re-announces registered entities.
type Reconciler interface {
	Reconcile(ctx context.Context, kind entity.Kind) (reconcile.Result, error)
	Reannounce(kind entity.Kind) int
	Registry() *entity.Registry
}

// Publisher publishes everything that is not a reconciliation event.
type Publisher interface {
	PublishAggregates(kind entity.Kind, items []entity.Item)
	PublishScalars(category string, values map[string]string, retained bool)
	PublishGroupStates(states map[string]bool)
	AnnounceStatic(groups []string) (int, error)
	SetVersion(version string) bool
	Failures() int
}

// Handler processes one inbound message.
type Handler interface {
	Handle(ctx context.Context, topic string, payload []byte) error
}

// GPUProbe reads GPU metrics.
type GPUProbe interface {
	Probe(ctx context.Context) hardware.Result[hardware.GPUStats]
}

// ContainerProbe reads container metrics.
type ContainerProbe interface {
	Probe() hardware.Result[hardware.ContainerStats]
}

// Exporter receives category values and registry sizes for time-series
// storage.
type Exporter interface {
	WriteCategory(category string, values map[string]string)
	WriteRegistry(sizes map[entity.Kind]int)
}

// Logger is the logging interface used by the scheduler.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Options configures a Scheduler. Remote, Engine, Publisher, Gate and
// Router are required; the rest are optional.
type Options struct {
	Interval  time.Duration
	InboxSize int
	Timeout   time.Duration

	Remote    ScalarSource
	Engine    Reconciler
	Publisher Publisher
	Gate      *gate.Gate
	Router    Handler

	GPU       GPUProbe
	Container ContainerProbe
	Exporter  Exporter
	Metrics   *metrics.Metrics
	Logger    Logger
}

type message struct {
	topic   string
	payload []byte
}

// Scheduler is the poll loop.
type Scheduler struct {
	interval time.Duration
	timeout  time.Duration

	remote    ScalarSource
	engine    Reconciler
	publisher Publisher
	gate      *gate.Gate
	router    Handler
	gpu       GPUProbe
	container ContainerProbe
	exporter  Exporter
	metrics   *metrics.Metrics
	logger    Logger

	inbox      chan message
	reannounce chan struct{}
	dropped    atomic.Uint64

	lastDuration time.Duration

	statusMu sync.RWMutex
	status   Status
}

// New creates a Scheduler.
func New(opts Options) (*Scheduler, error) {
	switch {
	case opts.Remote == nil:
		return nil, fmt.Errorf("%w: remote", ErrMissingDependency)
	case opts.Engine == nil:
		return nil, fmt.Errorf("%w: engine", ErrMissingDependency)
	case opts.Publisher == nil:
		return nil, fmt.Errorf("%w: publisher", ErrMissingDependency)
	case opts.Gate == nil:
		return nil, fmt.Errorf("%w: gate", ErrMissingDependency)
	case opts.Router == nil:
		return nil, fmt.Errorf("%w: router", ErrMissingDependency)
	}

	s := &Scheduler{
		interval:   opts.Interval,
		timeout:    opts.Timeout,
		remote:     opts.Remote,
		engine:     opts.Engine,
		publisher:  opts.Publisher,
		gate:       opts.Gate,
		router:     opts.Router,
		gpu:        opts.GPU,
		container:  opts.Container,
		exporter:   opts.Exporter,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		reannounce: make(chan struct{}, 1),
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	if s.interval < MinInterval {
		s.interval = MinInterval
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.logger == nil {
		s.logger = noopLogger{}
	}
	size := opts.InboxSize
	if size <= 0 {
		size = DefaultInboxSize
	}
	s.inbox = make(chan message, size)
	return s, nil
}

// =============================================================================
// Bus-facing entry points (any goroutine)
// =============================================================================

// Deliver queues an inbound message without blocking. It matches the bus
// client's handler signature.
func (s *Scheduler) Deliver(topic string, payload []byte) error {
	msg := message{topic: topic, payload: append([]byte(nil), payload...)}
	select {
	case s.inbox <- msg:
		return nil
	default:
		s.dropped.Add(1)
		s.metrics.CommandDropped()
		return fmt.Errorf("%w: %s", ErrInboxFull, topic)
	}
}

// RequestReannounce asks the loop to announce everything again. Repeated
// requests before the loop runs coalesce into one.
func (s *Scheduler) RequestReannounce() {
	select {
	case s.reannounce <- struct{}{}:
	default:
	}
}

// Dropped returns the number of messages dropped at the inbox.
func (s *Scheduler) Dropped() uint64 {
	return s.dropped.Load()
}

// =============================================================================
// Loop
// =============================================================================

// Run announces, then ticks every interval until ctx is done. Inbound
// messages and reannounce requests are handled between ticks. It returns
// nil on cancellation.
func (s *Scheduler) Run(ctx context.Context) error {
	// A reconnect signal raised before the loop started is covered by the
	// announcement below.
	select {
	case <-s.reannounce:
	default:
	}
	s.Reannounce()

	s.Tick(ctx)
	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("poll loop stopped")
			return nil
		case msg := <-s.inbox:
			s.handle(ctx, msg)
		case <-s.reannounce:
			s.Reannounce()
		case <-timer.C:
			s.Tick(ctx)
			timer.Reset(s.interval)
		}
	}
}

func (s *Scheduler) handle(ctx context.Context, msg message) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("command handler panicked", "topic", msg.topic, "panic", r)
		}
	}()
	_ = s.router.Handle(ctx, msg.topic, msg.payload) //nolint:errcheck // router logs and counts
}

// Reannounce publishes static discovery, group states and every registered
// entity again. The registry is not changed.
func (s *Scheduler) Reannounce() {
	if _, err := s.publisher.AnnounceStatic(gate.ContentCategories); err != nil {
		s.logger.Warn("static announcement incomplete", "error", err)
	}
	s.publisher.PublishGroupStates(s.gate.Snapshot())

	total := 0
	for _, kind := range entity.ReconcileOrder {
		total += s.engine.Reannounce(kind)
	}
	s.logger.Info("announced", "entities", total)
}

// Tick runs one full poll pass.
func (s *Scheduler) Tick(ctx context.Context) {
	start := time.Now()
	var failed []string

	run := func(category string, fn func(context.Context) error) {
		if ctx.Err() != nil {
			return
		}
		if err := s.step(ctx, category, fn); err != nil {
			failed = append(failed, category)
		}
	}

	if s.gate.Enabled(jellyfin.CategorySystem) {
		run(jellyfin.CategorySystem, s.pollSystem)
	}
	for _, kind := range entity.ReconcileOrder {
		if !s.gate.Enabled(kind.Category()) {
			continue
		}
		run(kind.Category(), func(ctx context.Context) error { return s.reconcileKind(ctx, kind) })
	}
	for _, category := range jellyfin.ScalarCategories {
		if !s.gate.Enabled(category) {
			continue
		}
		run(category, func(ctx context.Context) error { return s.pollScalar(ctx, category) })
	}
	run(CategoryGPU, s.pollGPU)
	run(CategoryContainer, s.pollContainer)
	run(CategoryBridge, func(context.Context) error { return s.publishBridge(start) })

	s.lastDuration = time.Since(start)
	s.metrics.ObserveTick(s.lastDuration, time.Now())
	s.metrics.SetPublishFailures(uint64(s.publisher.Failures())) //nolint:gosec // never negative
	s.updateStatus(start, failed)
}

// step runs fn and converts an error or panic into a warning.
func (s *Scheduler) step(ctx context.Context, category string, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStepPanicked, r)
		}
		if err != nil {
			s.metrics.CategoryFailed(category)
			s.logger.Warn("poll step failed", "category", category, "error", err)
		}
	}()
	return fn(ctx)
}

// =============================================================================
// Steps
// =============================================================================

func (s *Scheduler) pollSystem(ctx context.Context) error {
	values, err := s.fetch(ctx, jellyfin.CategorySystem)
	if values == nil {
		return err
	}
	s.publisher.PublishScalars(jellyfin.CategorySystem, values, true)
	s.export(jellyfin.CategorySystem, values)

	if version := values["version"]; s.publisher.SetVersion(version) {
		s.logger.Info("server version changed, announcing again", "version", version)
		s.Reannounce()
	}
	return err
}

func (s *Scheduler) reconcileKind(ctx context.Context, kind entity.Kind) error {
	res, err := s.engine.Reconcile(ctx, kind)
	s.metrics.ObserveReconcile(string(kind), res.Registered, res.Updated, res.Unregistered, err)
	if err != nil {
		return err
	}
	s.publisher.PublishAggregates(kind, res.Items)
	s.metrics.SetRegistered(string(kind), s.engine.Registry().Len(kind))
	if res.Registered+res.Unregistered > 0 {
		s.logger.Debug("reconciled", "kind", kind,
			"registered", res.Registered, "updated", res.Updated, "unregistered", res.Unregistered)
	}
	return nil
}

func (s *Scheduler) pollScalar(ctx context.Context, category string) error {
	values, err := s.fetch(ctx, category)
	if values != nil {
		s.publisher.PublishScalars(category, values, false)
		s.export(category, values)
	}
	return err
}

func (s *Scheduler) fetch(ctx context.Context, category string) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.remote.FetchCategory(ctx, category)
}

func (s *Scheduler) pollGPU(ctx context.Context) error {
	if s.gpu == nil {
		return nil
	}
	return publishResult(s, CategoryGPU, s.gpu.Probe(ctx), hardware.GPUStats.Fields)
}

func (s *Scheduler) pollContainer(context.Context) error {
	if s.container == nil {
		return nil
	}
	return publishResult(s, CategoryContainer, s.container.Probe(), hardware.ContainerStats.Fields)
}

// publishResult publishes a Value, skips Unavailable silently and returns
// the error of an Error.
func publishResult[T any](s *Scheduler, category string, res hardware.Result[T], fields func(T) map[string]string) error {
	switch res.Status {
	case hardware.StatusValue:
		values := fields(res.Value)
		s.publisher.PublishScalars(category, values, false)
		s.export(category, values)
		return nil
	case hardware.StatusError:
		return res.Err
	default:
		return nil
	}
}

func (s *Scheduler) publishBridge(start time.Time) error {
	sizes := s.engine.Registry().Sizes()
	total := 0
	for _, n := range sizes {
		total += n
	}
	values := map[string]string{
		"registered_entities": strconv.Itoa(total),
		"last_poll":           start.UTC().Format(time.RFC3339),
		"poll_duration":       strconv.FormatInt(s.lastDuration.Milliseconds(), 10),
		"dropped_commands":    strconv.FormatUint(s.Dropped(), 10),
	}
	s.publisher.PublishScalars(CategoryBridge, values, false)
	s.export(CategoryBridge, values)
	if s.exporter != nil {
		s.exporter.WriteRegistry(sizes)
	}
	return nil
}

func (s *Scheduler) export(category string, values map[string]string) {
	if s.exporter != nil {
		s.exporter.WriteCategory(category, values)
	}
}
