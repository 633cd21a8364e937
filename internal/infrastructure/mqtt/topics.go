package mqtt

import (
	"fmt"
	"strings"
)

// Topic keywords shared by the outbound tree and the inbound command grammar.
const (
	// KeywordCommand terminates a command topic.
	KeywordCommand = "command"

	// KeywordSet terminates a settable-value topic.
	KeywordSet = "set"

	// KeywordState terminates a group state topic.
	KeywordState = "state"

	// SegmentGroups is the category segment for group toggles.
	SegmentGroups = "groups"

	// StatusOnline and StatusOffline are the liveness payloads.
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Topics builds every topic the bridge publishes or subscribes to.
//
// Base is the root of the state and command tree (e.g. "jellyfin"),
// DiscoveryPrefix the Home Assistant discovery root and ServerID the
// instance suffix used in discovery node ids.
//
//	topics := mqtt.NewTopics("jellyfin", "homeassistant", "jellyfin_mqtt")
//	topics.State("sessions", "12345678", "state")
//	// Returns: "jellyfin/sessions/12345678/state"
type Topics struct {
	Base            string
	DiscoveryPrefix string
	ServerID        string
}

// NewTopics creates a topic builder. Trailing slashes are trimmed.
func NewTopics(base, discoveryPrefix, serverID string) Topics {
	return Topics{
		Base:            strings.TrimRight(base, "/"),
		DiscoveryPrefix: strings.TrimRight(discoveryPrefix, "/"),
		ServerID:        serverID,
	}
}

// =============================================================================
// Outbound
// =============================================================================

// Status returns the liveness topic.
//
// Example: jellyfin/status
func (t Topics) Status() string {
	return t.Base + "/status"
}

// State returns the per-entity field topic.
//
// Example: jellyfin/sessions/12345678/media/title
func (t Topics) State(category, shortID, field string) string {
	return fmt.Sprintf("%s/%s/%s/%s", t.Base, category, shortID, field)
}

// Scalar returns a category-level value topic.
//
// Example: jellyfin/sessions/playing_count
func (t Topics) Scalar(category, field string) string {
	return fmt.Sprintf("%s/%s/%s", t.Base, category, field)
}

// GroupState returns the retained gate state topic for a category.
//
// Example: jellyfin/groups/sessions/state
func (t Topics) GroupState(category string) string {
	return fmt.Sprintf("%s/%s/%s/%s", t.Base, SegmentGroups, category, KeywordState)
}

// NodeID returns the discovery node id for an object.
//
// Example: jellyfin_jellyfin_mqtt_session_12345678_state
func (t Topics) NodeID(objectID string) string {
	return fmt.Sprintf("jellyfin_%s_%s", t.ServerID, objectID)
}

// Discovery returns the Home Assistant config topic for an object.
//
// Example: homeassistant/sensor/jellyfin_jellyfin_mqtt_session_12345678_state/config
func (t Topics) Discovery(component, objectID string) string {
	return fmt.Sprintf("%s/%s/%s/config", t.DiscoveryPrefix, component, t.NodeID(objectID))
}

// =============================================================================
// Inbound
// =============================================================================

// CategoryCommand returns the category-global command topic.
//
// Example: jellyfin/system/command
func (t Topics) CategoryCommand(category string) string {
	return fmt.Sprintf("%s/%s/%s", t.Base, category, KeywordCommand)
}

// EntityCommand returns the per-entity command topic.
//
// Example: jellyfin/sessions/12345678/command
func (t Topics) EntityCommand(category, shortID string) string {
	return fmt.Sprintf("%s/%s/%s/%s", t.Base, category, shortID, KeywordCommand)
}

// FieldSet returns the per-entity settable value topic.
//
// Example: jellyfin/sessions/12345678/volume/set
func (t Topics) FieldSet(category, shortID, field string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", t.Base, category, shortID, field, KeywordSet)
}

// GroupSet returns the gate toggle topic for a category.
//
// Example: jellyfin/groups/sessions/set
func (t Topics) GroupSet(category string) string {
	return fmt.Sprintf("%s/%s/%s/%s", t.Base, SegmentGroups, category, KeywordSet)
}

// Subscriptions returns every wildcard pattern the bridge listens on.
func (t Topics) Subscriptions() []string {
	return []string{
		fmt.Sprintf("%s/+/%s", t.Base, KeywordCommand),
		fmt.Sprintf("%s/+/%s", t.Base, KeywordSet),
		fmt.Sprintf("%s/+/+/%s", t.Base, KeywordCommand),
		fmt.Sprintf("%s/+/+/+/%s", t.Base, KeywordSet),
		fmt.Sprintf("%s/%s/+/%s", t.Base, SegmentGroups, KeywordSet),
	}
}

// Relative strips the base prefix from topic and splits the rest on "/".
// It returns false when topic is not under Base.
func (t Topics) Relative(topic string) ([]string, bool) {
	rest, ok := strings.CutPrefix(topic, t.Base+"/")
	if !ok || rest == "" {
		return nil, false
	}
	return strings.Split(rest, "/"), true
}
