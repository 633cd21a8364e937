package discovery

import (
	"fmt"
	"maps"
	"slices"

	"github.com/nerrad567/jellyfin-mqtt/internal/entity"
	"github.com/nerrad567/jellyfin-mqtt/internal/gate"
	"github.com/nerrad567/jellyfin-mqtt/internal/infrastructure/mqtt"
)

// Binary sensor payloads. State values are published in the same form.
const (
	payloadTrue  = "true"
	payloadFalse = "false"
)

// Bus publishes messages. *mqtt.Client satisfies it.
type Bus interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger defines the logging interface used by the Publisher.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Options holds Publisher settings.
type Options struct {
	QoS    byte
	Logger Logger
}

// Publisher announces, updates and retracts entities on the bus.
//
// It is driven by the scheduler loop and is not safe for concurrent use.
// Publish failures are logged and counted; they never stop a pass, since the
// next tick republishes state anyway.
type Publisher struct {
	bus      Bus
	topics   mqtt.Topics
	device   Device
	qos      byte
	logger   Logger
	failures int

	// holders maps kind and short id to the full ids announced under it.
	// Entities whose ids share a short id share their discovery objects.
	holders map[entity.Kind]map[string]map[string]entity.Item
}

// NewPublisher creates a Publisher.
func NewPublisher(bus Bus, topics mqtt.Topics, device Device, opts Options) *Publisher {
	p := &Publisher{
		bus:     bus,
		topics:  topics,
		device:  device,
		qos:     opts.QoS,
		logger:  opts.Logger,
		holders: make(map[entity.Kind]map[string]map[string]entity.Item),
	}
	if p.logger == nil {
		p.logger = noopLogger{}
	}
	return p
}

// Device returns the current device block.
func (p *Publisher) Device() Device {
	return p.device
}

// SetVersion updates the server version in the device block. It returns
// true when the version changed, in which case callers should announce
// again so Home Assistant picks up the new model.
func (p *Publisher) SetVersion(version string) bool {
	if version == "" || version == p.device.SWVersion {
		return false
	}
	p.device.setVersion(version)
	return true
}

// Failures returns the number of publish calls that failed so far.
func (p *Publisher) Failures() int {
	return p.failures
}

// =============================================================================
// Reconciliation sink
// =============================================================================

// Register announces every discovery object of the entity and publishes
// its state.
func (p *Publisher) Register(kind entity.Kind, item entity.Item) {
	p.hold(kind, item)
	p.announceEntity(kind, item)
}

func (p *Publisher) announceEntity(kind entity.Kind, item entity.Item) {
	category := kind.Category()
	short := item.ShortID()
	display := item.Name
	if display == "" {
		display = short
	}

	for _, d := range Descriptors[kind] {
		cfg := p.baseConfig(ObjectID(kind, item.ID, d), display+" "+d.Name, d.Icon)
		switch d.Component {
		case ComponentButton:
			cfg.CommandTopic = p.topics.EntityCommand(category, short)
			cfg.PayloadPress = d.Command
		case ComponentNumber:
			cfg.StateTopic = p.topics.State(category, short, d.Field)
			cfg.CommandTopic = p.topics.FieldSet(category, short, d.SetField)
			cfg.Min, cfg.Max, cfg.Step = float(d.Min), float(d.Max), float(d.Step)
		case ComponentText:
			cfg.CommandTopic = p.topics.FieldSet(category, short, d.SetField)
			cfg.Mode = "text"
		case ComponentBinarySensor:
			cfg.StateTopic = p.topics.State(category, short, d.Field)
			cfg.PayloadOn, cfg.PayloadOff = payloadTrue, payloadFalse
		default:
			cfg.StateTopic = p.topics.State(category, short, d.Field)
		}
		cfg.Unit = d.Unit
		p.announce(d.Component, ObjectID(kind, item.ID, d), cfg)
	}

	p.publishState(category, short, item.State)
}

// Update republishes the entity's state values only.
func (p *Publisher) Update(kind entity.Kind, item entity.Item) {
	if byID := p.holders[kind][item.ShortID()]; byID != nil {
		if _, ok := byID[item.ID]; ok {
			byID[item.ID] = item.Clone()
		}
	}
	p.publishState(kind.Category(), item.ShortID(), item.State)
}

// Unregister retracts every discovery object of the entity. While another
// entity of the same kind still holds the short id, the objects are kept
// and announced again for that entity instead.
func (p *Publisher) Unregister(kind entity.Kind, id string) {
	short := entity.ShortID(id)
	byID := p.holders[kind][short]
	delete(byID, id)
	if len(byID) > 0 {
		survivor := byID[slices.Min(slices.Collect(maps.Keys(byID)))]
		p.logger.Debug("short id still in use, keeping discovery objects",
			"kind", kind, "short_id", short, "removed", id, "holder", survivor.ID)
		p.announceEntity(kind, survivor)
		return
	}
	delete(p.holders[kind], short)

	for _, d := range Descriptors[kind] {
		p.publish(p.topics.Discovery(d.Component, ObjectID(kind, id, d)), []byte{}, true)
	}
}

func (p *Publisher) hold(kind entity.Kind, item entity.Item) {
	byShort := p.holders[kind]
	if byShort == nil {
		byShort = make(map[string]map[string]entity.Item)
		p.holders[kind] = byShort
	}
	short := item.ShortID()
	if byShort[short] == nil {
		byShort[short] = make(map[string]entity.Item)
	}
	byShort[short][item.ID] = item.Clone()
}

func (p *Publisher) publishState(category, short string, state map[string]string) {
	for _, field := range slices.Sorted(maps.Keys(state)) {
		p.publish(p.topics.State(category, short, field), []byte(state[field]), false)
	}
}

// =============================================================================
// Category values
// =============================================================================

// PublishAggregates publishes the counts of a kind after a successful pass.
func (p *Publisher) PublishAggregates(kind entity.Kind, items []entity.Item) {
	p.PublishScalars(kind.Category(), Aggregates(kind, items), false)
}

// PublishScalars publishes category-level values under <base>/<category>/.
func (p *Publisher) PublishScalars(category string, values map[string]string, retained bool) {
	for _, field := range slices.Sorted(maps.Keys(values)) {
		p.publish(p.topics.Scalar(category, field), []byte(values[field]), retained)
	}
}

// PublishGroupState publishes the retained switch state of a gate category.
func (p *Publisher) PublishGroupState(category string, enabled bool) {
	p.publish(p.topics.GroupState(category), []byte(gate.StatePayload(enabled)), true)
}

// PublishGroupStates publishes every gate category state.
func (p *Publisher) PublishGroupStates(states map[string]bool) {
	for _, category := range slices.Sorted(maps.Keys(states)) {
		p.PublishGroupState(category, states[category])
	}
}

// =============================================================================
// Static entities
// =============================================================================

// AnnounceStatic announces every object that does not belong to a remote
// entity: aggregate, scalar, hardware and bridge sensors, category buttons,
// the bridge connectivity sensor and one switch per gate category in
// groups. It returns the number of configs published.
func (p *Publisher) AnnounceStatic(groups []string) (int, error) {
	before := p.failures
	n := 0

	groupsOf := [][]staticEntity{aggregateEntities, scalarEntities, hardwareEntities, bridgeEntities, buttonEntities}
	for _, set := range groupsOf {
		for _, e := range set {
			p.announceStatic(e)
			n++
		}
	}

	status := p.baseConfig("bridge_status", "Bridge Status", "mdi:lan-connect")
	status.StateTopic = p.topics.Status()
	status.PayloadOn, status.PayloadOff = mqtt.StatusOnline, mqtt.StatusOffline
	status.DeviceClass = "connectivity"
	status.AvailabilityTopic = ""
	p.announce(ComponentBinarySensor, "bridge_status", status)
	n++

	for _, category := range groups {
		objectID := "group_" + category
		cfg := p.baseConfig(objectID, "Group "+category, "mdi:toggle-switch")
		cfg.StateTopic = p.topics.GroupState(category)
		cfg.CommandTopic = p.topics.GroupSet(category)
		cfg.PayloadOn, cfg.PayloadOff = gate.StatePayload(true), gate.StatePayload(false)
		p.announce(ComponentSwitch, objectID, cfg)
		n++
	}

	if failed := p.failures - before; failed > 0 {
		return n, fmt.Errorf("%w: %d of %d static configs", ErrPublishFailed, failed, n)
	}
	return n, nil
}

func (p *Publisher) announceStatic(e staticEntity) {
	cfg := p.baseConfig(e.objectID, e.name, e.icon)
	switch e.component {
	case ComponentButton:
		cfg.CommandTopic = p.topics.CategoryCommand(e.category)
		cfg.PayloadPress = e.command
	case ComponentBinarySensor:
		cfg.StateTopic = p.topics.Scalar(e.category, e.field)
		cfg.PayloadOn, cfg.PayloadOff = payloadTrue, payloadFalse
	default:
		cfg.StateTopic = p.topics.Scalar(e.category, e.field)
	}
	cfg.Unit = e.unit
	cfg.DeviceClass = e.deviceClass
	p.announce(e.component, e.objectID, cfg)
}

// =============================================================================
// Helpers
// =============================================================================

func (p *Publisher) baseConfig(objectID, name, icon string) Config {
	return Config{
		Name:              name,
		UniqueID:          p.topics.NodeID(objectID),
		AvailabilityTopic: p.topics.Status(),
		Icon:              icon,
		Device:            p.device,
	}
}

func (p *Publisher) announce(component, objectID string, cfg Config) {
	payload, err := cfg.Marshal()
	if err != nil {
		p.failures++
		p.logger.Warn("discovery config not encoded", "object_id", objectID, "error", err)
		return
	}
	p.publish(p.topics.Discovery(component, objectID), payload, true)
}

func (p *Publisher) publish(topic string, payload []byte, retained bool) {
	if err := p.bus.Publish(topic, payload, p.qos, retained); err != nil {
		p.failures++
		p.logger.Warn("publish failed", "topic", topic, "error", err)
	}
}
