// Package gate holds the per-category enable/disable table that decides
// which categories the bridge polls and publishes.
//
// Content categories start disabled. The hardware and bridge status
// categories are not in the table and are always enabled. Disabling a
// category only pauses polling and publication; it never clears registered
// entities or retracts their announcements.
package gate

import (
	"errors"
	"fmt"
	"maps"
)

// ErrUnknownCategory is returned by SetEnabled for a category that is not in
// the table.
var ErrUnknownCategory = errors.New("gate: unknown category")

// ContentCategories is the gated table, in publication order. playstate and
// images have no poll step; their switches exist so the groups/<category>
// topics stay the same for existing Home Assistant setups.
var ContentCategories = []string{
	"system",
	"sessions",
	"library",
	"items",
	"users",
	"playstate",
	"tasks",
	"devices",
	"plugins",
	"livetv",
	"syncplay",
	"playlists",
	"media",
	"images",
	"misc",
}

// AlwaysOn lists the categories that are never gated.
var AlwaysOn = []string{"gpu", "container", "bridge"}

// Gate is the category table. It is owned by the scheduler loop and is not
// safe for concurrent use.
type Gate struct {
	enabled map[string]bool
}

// New creates a gate with every content category disabled, then enables the
// categories in preEnabled. Unknown names are returned as an error.
func New(preEnabled ...string) (*Gate, error) {
	g := &Gate{enabled: make(map[string]bool, len(ContentCategories))}
	for _, c := range ContentCategories {
		g.enabled[c] = false
	}

	var errs []error
	for _, c := range preEnabled {
		if err := g.SetEnabled(c, true); err != nil {
			errs = append(errs, err)
		}
	}
	return g, errors.Join(errs...)
}

// Enabled reports whether category should be polled. Always-on categories
// are enabled; names in neither set are not.
func (g *Gate) Enabled(category string) bool {
	if v, ok := g.enabled[category]; ok {
		return v
	}
	return IsAlwaysOn(category)
}

// SetEnabled changes one content category.
func (g *Gate) SetEnabled(category string, enabled bool) error {
	if _, ok := g.enabled[category]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	g.enabled[category] = enabled
	return nil
}

// Known reports whether category is a gated content category.
func (g *Gate) Known(category string) bool {
	_, ok := g.enabled[category]
	return ok
}

// Snapshot returns a copy of the table.
func (g *Gate) Snapshot() map[string]bool {
	return maps.Clone(g.enabled)
}

// EnabledCategories returns the enabled content categories in table order.
func (g *Gate) EnabledCategories() []string {
	var out []string
	for _, c := range ContentCategories {
		if g.enabled[c] {
			out = append(out, c)
		}
	}
	return out
}

// IsAlwaysOn reports whether category is never gated.
func IsAlwaysOn(category string) bool {
	for _, c := range AlwaysOn {
		if c == category {
			return true
		}
	}
	return false
}

// StatePayload renders an enabled flag as a switch state.
func StatePayload(enabled bool) string {
	if enabled {
		return "ON"
	}
	return "OFF"
}
