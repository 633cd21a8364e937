package gate

import (
	"errors"
	"reflect"
	"testing"
)

func TestNew_AllContentDisabled(t *testing.T) {
	g, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for _, c := range ContentCategories {
		if g.Enabled(c) {
			t.Errorf("Enabled(%q) = true on a fresh gate", c)
		}
	}
	if len(g.Snapshot()) != len(ContentCategories) {
		t.Errorf("len(Snapshot()) = %d, want %d", len(g.Snapshot()), len(ContentCategories))
	}
}

func TestSetEnabled_OnlyChangesOneCategory(t *testing.T) {
	g, _ := New()
	before := g.Snapshot()

	if err := g.SetEnabled("sessions", true); err != nil {
		t.Fatalf("SetEnabled() error = %v", err)
	}

	after := g.Snapshot()
	if !after["sessions"] {
		t.Error("sessions not enabled")
	}
	for c, v := range before {
		if c != "sessions" && after[c] != v {
			t.Errorf("%q changed from %v to %v", c, v, after[c])
		}
	}

	if err := g.SetEnabled("sessions", false); err != nil {
		t.Fatalf("SetEnabled(false) error = %v", err)
	}
	if g.Enabled("sessions") {
		t.Error("sessions still enabled after disable")
	}
}

func TestSetEnabled_UnknownCategory(t *testing.T) {
	g, _ := New()

	for _, c := range []string{"gpu", "bogus", ""} {
		if err := g.SetEnabled(c, true); !errors.Is(err, ErrUnknownCategory) {
			t.Errorf("SetEnabled(%q) error = %v, want ErrUnknownCategory", c, err)
		}
	}
}

func TestEnabled_AlwaysOnAndUnknown(t *testing.T) {
	g, _ := New()

	for _, c := range AlwaysOn {
		if !g.Enabled(c) {
			t.Errorf("Enabled(%q) = false, want true", c)
		}
		if g.Known(c) {
			t.Errorf("Known(%q) = true, always-on categories are not in the table", c)
		}
	}
	if g.Enabled("bogus") {
		t.Error("Enabled(bogus) = true, want false")
	}
}

func TestNew_PreEnabled(t *testing.T) {
	g, err := New("tasks", "plugins")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !reflect.DeepEqual(g.EnabledCategories(), []string{"tasks", "plugins"}) {
		t.Errorf("EnabledCategories() = %v, want [tasks plugins]", g.EnabledCategories())
	}

	g, err = New("sessions", "nope")
	if !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("New(nope) error = %v, want ErrUnknownCategory", err)
	}
	if !g.Enabled("sessions") {
		t.Error("valid pre-enabled category dropped alongside an invalid one")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	g, _ := New()
	snap := g.Snapshot()
	snap["system"] = true

	if g.Enabled("system") {
		t.Error("mutating snapshot changed gate")
	}
}

func TestStatePayload(t *testing.T) {
	if StatePayload(true) != "ON" || StatePayload(false) != "OFF" {
		t.Error("StatePayload() mismatch")
	}
}
