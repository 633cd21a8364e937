package scheduler

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/jellyfin-mqtt/internal/entity"
	"github.com/nerrad567/jellyfin-mqtt/internal/gate"
	"github.com/nerrad567/jellyfin-mqtt/internal/hardware"
	"github.com/nerrad567/jellyfin-mqtt/internal/jellyfin"
	"github.com/nerrad567/jellyfin-mqtt/internal/reconcile"
)

// ============================================================================
// Mocks
// ============================================================================

type MockLister struct {
	mu     sync.Mutex
	items  map[entity.Kind][]entity.Item
	errs   map[entity.Kind]error
	panics map[entity.Kind]bool
	calls  map[entity.Kind]int
}

func newMockLister() *MockLister {
	return &MockLister{
		items:  make(map[entity.Kind][]entity.Item),
		errs:   make(map[entity.Kind]error),
		panics: make(map[entity.Kind]bool),
		calls:  make(map[entity.Kind]int),
	}
}

func (m *MockLister) List(_ context.Context, kind entity.Kind) ([]entity.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[kind]++
	if m.panics[kind] {
		panic("lister exploded")
	}
	if err := m.errs[kind]; err != nil {
		return nil, err
	}
	return m.items[kind], nil
}

type MockRemote struct {
	values map[string]map[string]string
	errs   map[string]error
	calls  []string
}

func (m *MockRemote) FetchCategory(_ context.Context, category string) (map[string]string, error) {
	m.calls = append(m.calls, category)
	return m.values[category], m.errs[category]
}

type event struct {
	op   string
	kind entity.Kind
	id   string
}

// MockPublisher is both the reconciliation sink and the scheduler's
// publisher.
type MockPublisher struct {
	mu         sync.Mutex
	events     []event
	scalars    map[string]map[string]string
	retained   map[string]bool
	aggregates map[entity.Kind]int
	groups     map[string]bool
	announces  int
	version    string
}

func newMockPublisher() *MockPublisher {
	return &MockPublisher{
		scalars:    make(map[string]map[string]string),
		retained:   make(map[string]bool),
		aggregates: make(map[entity.Kind]int),
	}
}

func (m *MockPublisher) Register(kind entity.Kind, item entity.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event{"register", kind, item.ID})
}

func (m *MockPublisher) Update(kind entity.Kind, item entity.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event{"update", kind, item.ID})
}

func (m *MockPublisher) Unregister(kind entity.Kind, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event{"unregister", kind, id})
}

func (m *MockPublisher) PublishAggregates(kind entity.Kind, items []entity.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aggregates[kind] = len(items)
}

func (m *MockPublisher) PublishScalars(category string, values map[string]string, retained bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scalars[category] = values
	m.retained[category] = retained
}

func (m *MockPublisher) PublishGroupStates(states map[string]bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups = states
}

func (m *MockPublisher) AnnounceStatic([]string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.announces++
	return 1, nil
}

func (m *MockPublisher) SetVersion(v string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v == "" || v == m.version {
		return false
	}
	m.version = v
	return true
}

func (m *MockPublisher) Failures() int { return 0 }

func (m *MockPublisher) count(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.op == op {
			n++
		}
	}
	return n
}

func (m *MockPublisher) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

type MockRouter struct {
	mu     sync.Mutex
	topics []string
	got    chan struct{}
}

func (m *MockRouter) Handle(_ context.Context, topic string, _ []byte) error {
	m.mu.Lock()
	m.topics = append(m.topics, topic)
	m.mu.Unlock()
	if m.got != nil {
		m.got <- struct{}{}
	}
	return nil
}

type fakeGPU struct{ res hardware.Result[hardware.GPUStats] }

func (f fakeGPU) Probe(context.Context) hardware.Result[hardware.GPUStats] { return f.res }

type fakeContainer struct{ res hardware.Result[hardware.ContainerStats] }

func (f fakeContainer) Probe() hardware.Result[hardware.ContainerStats] { return f.res }

type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(string, ...any)  {}
func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

// ============================================================================
// Fixture
// ============================================================================

type fixture struct {
	s         *Scheduler
	lister    *MockLister
	remote    *MockRemote
	publisher *MockPublisher
	router    *MockRouter
	gate      *gate.Gate
	registry  *entity.Registry
	logger    *recordingLogger
}

func newFixture(t *testing.T, opts Options, enabled ...string) *fixture {
	t.Helper()
	g, err := gate.New(enabled...)
	if err != nil {
		t.Fatalf("gate.New() error = %v", err)
	}
	f := &fixture{
		lister:    newMockLister(),
		remote:    &MockRemote{values: map[string]map[string]string{}, errs: map[string]error{}},
		publisher: newMockPublisher(),
		router:    &MockRouter{},
		gate:      g,
		registry:  entity.NewRegistry(),
		logger:    &recordingLogger{},
	}
	engine := reconcile.NewEngine(f.lister, f.registry, f.publisher, reconcile.Config{})

	opts.Remote = f.remote
	opts.Engine = engine
	opts.Publisher = f.publisher
	opts.Gate = g
	opts.Router = f.router
	opts.Logger = f.logger
	f.s, err = New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return f
}

func items(ids ...string) []entity.Item {
	out := make([]entity.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, entity.Item{ID: id, Name: id, State: map[string]string{"name": id}})
	}
	return out
}

// ============================================================================
// Tick
// ============================================================================

func TestNew_RequiresDependencies(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, ErrMissingDependency) {
		t.Errorf("New() error = %v, want ErrMissingDependency", err)
	}
}

func TestTick_TaskFailureIsIsolated(t *testing.T) {
	f := newFixture(t, Options{}, gate.ContentCategories...)
	for _, kind := range entity.ReconcileOrder {
		f.lister.items[kind] = items(string(kind) + "-1")
	}
	f.lister.errs[entity.KindTask] = errors.New("connection reset")

	f.s.Tick(context.Background())

	if f.registry.Len(entity.KindTask) != 0 {
		t.Error("failed kind must leave the registry untouched")
	}
	for _, kind := range []entity.Kind{entity.KindDevice, entity.KindPlugin, entity.KindPlaylist, entity.KindSyncGroup} {
		if f.registry.Len(kind) != 1 {
			t.Errorf("%s reconciled %d entities, want 1 (runs after the failed task step)", kind, f.registry.Len(kind))
		}
	}
	st := f.s.Status()
	if !slices.Contains(st.FailedSteps, "tasks") {
		t.Errorf("FailedSteps = %v, want tasks", st.FailedSteps)
	}
	if len(f.logger.warns) == 0 {
		t.Error("expected a warning for the failed step")
	}
	if _, ok := f.publisher.aggregates[entity.KindTask]; ok {
		t.Error("aggregates must not be published for a failed kind")
	}
	if f.publisher.aggregates[entity.KindDevice] != 1 {
		t.Error("aggregates should follow a successful reconcile")
	}
}

func TestTick_PanicIsContained(t *testing.T) {
	f := newFixture(t, Options{}, "users", "devices")
	f.lister.panics[entity.KindUser] = true
	f.lister.items[entity.KindDevice] = items("d1")

	f.s.Tick(context.Background())

	if f.registry.Len(entity.KindDevice) != 1 {
		t.Error("devices should reconcile after the users step panicked")
	}
	if !slices.Contains(f.s.Status().FailedSteps, "users") {
		t.Error("users should be reported as failed")
	}
}

func TestTick_GatedCategoriesSkipped(t *testing.T) {
	f := newFixture(t, Options{}, "sessions")
	f.lister.items[entity.KindSession] = items("s1")
	f.lister.items[entity.KindUser] = items("u1")

	f.s.Tick(context.Background())

	if f.lister.calls[entity.KindUser] != 0 {
		t.Error("disabled users category was polled")
	}
	if f.lister.calls[entity.KindSession] != 1 {
		t.Error("enabled sessions category was not polled")
	}
	if slices.Contains(f.remote.calls, jellyfin.CategorySystem) {
		t.Error("disabled system category was fetched")
	}
	if _, ok := f.publisher.scalars[CategoryBridge]; !ok {
		t.Error("bridge category is never gated")
	}
}

func TestTick_SwitchOnlyCategoriesPollNothing(t *testing.T) {
	f := newFixture(t, Options{}, "playstate", "images")

	f.s.Tick(context.Background())

	if len(f.remote.calls) != 0 {
		t.Errorf("fetched %v, want nothing", f.remote.calls)
	}
	for _, kind := range entity.ReconcileOrder {
		if f.lister.calls[kind] != 0 {
			t.Errorf("%s polled", kind)
		}
	}
	if failed := f.s.Status().FailedSteps; len(failed) != 0 {
		t.Errorf("FailedSteps = %v, want none", failed)
	}
	if got := f.s.Status().Groups; !got["playstate"] || !got["images"] {
		t.Errorf("Groups = %v, want both enabled", got)
	}
}

func TestTick_DisablingKeepsRegistry(t *testing.T) {
	f := newFixture(t, Options{}, "sessions")
	f.lister.items[entity.KindSession] = items("s1", "s2")
	f.s.Tick(context.Background())
	if f.registry.Len(entity.KindSession) != 2 {
		t.Fatalf("registered = %d, want 2", f.registry.Len(entity.KindSession))
	}

	if err := f.gate.SetEnabled("sessions", false); err != nil {
		t.Fatal(err)
	}
	f.lister.items[entity.KindSession] = nil
	f.publisher.reset()
	f.s.Tick(context.Background())

	if f.registry.Len(entity.KindSession) != 2 {
		t.Error("disabling must keep the registry")
	}
	if n := f.publisher.count("unregister"); n != 0 {
		t.Errorf("unregister events = %d, want 0", n)
	}
}

func TestTick_SystemRetainedAndVersionReannounce(t *testing.T) {
	f := newFixture(t, Options{}, "system", "sessions")
	f.lister.items[entity.KindSession] = items("s1")
	f.remote.values[jellyfin.CategorySystem] = map[string]string{"version": "10.9.0"}

	f.s.Tick(context.Background())
	if !f.publisher.retained[jellyfin.CategorySystem] {
		t.Error("system values should be retained")
	}
	if f.publisher.announces != 1 {
		t.Errorf("announces = %d, want 1 after the first version", f.publisher.announces)
	}

	f.s.Tick(context.Background())
	if f.publisher.announces != 1 {
		t.Error("unchanged version must not announce again")
	}

	f.remote.values[jellyfin.CategorySystem] = map[string]string{"version": "10.10.0"}
	f.publisher.reset()
	f.s.Tick(context.Background())
	if f.publisher.announces != 2 {
		t.Errorf("announces = %d, want 2 after a version change", f.publisher.announces)
	}
	if f.publisher.count("register") != 1 {
		t.Error("registered session should be announced again")
	}
}

func TestTick_PartialScalarsPublished(t *testing.T) {
	f := newFixture(t, Options{}, "livetv")
	f.remote.values[jellyfin.CategoryLiveTV] = map[string]string{"channels/count": "4"}
	f.remote.errs[jellyfin.CategoryLiveTV] = errors.New("timers endpoint failed")

	f.s.Tick(context.Background())

	if f.publisher.scalars[jellyfin.CategoryLiveTV]["channels/count"] != "4" {
		t.Error("partial values should still be published")
	}
	if !slices.Contains(f.s.Status().FailedSteps, jellyfin.CategoryLiveTV) {
		t.Error("partial failure should be reported")
	}
}

func TestTick_Hardware(t *testing.T) {
	tests := []struct {
		name          string
		gpu           hardware.Result[hardware.GPUStats]
		wantPublished bool
		wantFailed    bool
	}{
		{"unavailable is silent", hardware.Unavailable[hardware.GPUStats](), false, false},
		{"error warns", hardware.Failed[hardware.GPUStats](errors.New("nvidia-smi crashed")), false, true},
		{"value publishes", hardware.Ok(hardware.GPUStats{Name: "RTX"}), true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{
				GPU:       fakeGPU{tt.gpu},
				Container: fakeContainer{hardware.Unavailable[hardware.ContainerStats]()},
			})
			f.s.Tick(context.Background())

			_, published := f.publisher.scalars[CategoryGPU]
			if published != tt.wantPublished {
				t.Errorf("published = %v, want %v", published, tt.wantPublished)
			}
			failed := slices.Contains(f.s.Status().FailedSteps, CategoryGPU)
			if failed != tt.wantFailed {
				t.Errorf("failed = %v, want %v", failed, tt.wantFailed)
			}
			if _, ok := f.publisher.scalars[CategoryContainer]; ok {
				t.Error("unavailable container must not publish")
			}
		})
	}
}

// ============================================================================
// Inbox and reannounce
// ============================================================================

func TestDeliver_FullInboxDrops(t *testing.T) {
	f := newFixture(t, Options{InboxSize: 2})

	done := make(chan struct{})
	var errs []error
	go func() {
		defer close(done)
		for range 3 {
			errs = append(errs, f.s.Deliver("jellyfin/sessions/a/command", []byte("pause")))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Deliver blocked on a full inbox")
	}

	if errs[0] != nil || errs[1] != nil {
		t.Errorf("first two deliveries failed: %v", errs)
	}
	if !errors.Is(errs[2], ErrInboxFull) {
		t.Errorf("third delivery error = %v, want ErrInboxFull", errs[2])
	}
	if f.s.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", f.s.Dropped())
	}
}

func TestReannounce_EmitsRegisterWithoutRegistryChange(t *testing.T) {
	f := newFixture(t, Options{}, "sessions", "users")
	f.lister.items[entity.KindSession] = items("s1", "s2")
	f.lister.items[entity.KindUser] = items("u1")
	f.s.Tick(context.Background())

	f.publisher.reset()
	f.s.Reannounce()

	if n := f.publisher.count("register"); n != 3 {
		t.Errorf("register events = %d, want 3", n)
	}
	if f.publisher.count("unregister") != 0 {
		t.Error("reannounce must not retract")
	}
	if f.registry.Len(entity.KindSession) != 2 || f.registry.Len(entity.KindUser) != 1 {
		t.Error("reannounce must not change the registry")
	}
	if !f.publisher.groups["sessions"] || f.publisher.groups["library"] {
		t.Errorf("group states = %v", f.publisher.groups)
	}
}

func TestRun_HandlesMessagesAndStops(t *testing.T) {
	f := newFixture(t, Options{Interval: time.Hour})
	f.router.got = make(chan struct{}, 1)

	if err := f.s.Deliver("jellyfin/system/command", []byte("restart")); err != nil {
		t.Fatal(err)
	}
	f.s.RequestReannounce()
	f.s.RequestReannounce()

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() { stopped <- f.s.Run(ctx) }()

	select {
	case <-f.router.got:
	case <-time.After(2 * time.Second):
		t.Fatal("queued message was not handled")
	}

	cancel()
	select {
	case err := <-stopped:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}

	if f.s.Status().Ticks != 1 {
		t.Errorf("Ticks = %d, want 1", f.s.Status().Ticks)
	}
	f.publisher.mu.Lock()
	defer f.publisher.mu.Unlock()
	if f.publisher.announces != 1 {
		t.Errorf("announces = %d, want 1 (pending signals coalesce into the start-up announcement)", f.publisher.announces)
	}
}
