package keybind

import (
	"context"
	"testing"
	"time"

	"github.com/dshills/inputproc/internal/plog"
)

func TestEnabled(t *testing.T) {
	tests := []struct {
		name         string
		p            Params
		behaviorsLen int
		want         bool
	}{
		{"disabled flag", Params{Enabled: false, Count: 1}, 4, false},
		{"zero count", Params{Enabled: true, Count: 0}, 4, false},
		{"no behaviors", Params{Enabled: true, Count: 1}, 0, false},
		{"all set", Params{Enabled: true, Count: 1}, 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Enabled(tt.p, tt.behaviorsLen); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEffectiveCount(t *testing.T) {
	tests := []struct {
		count, behaviorsLen, want int
	}{
		{4, 8, 4},
		{8, 4, 4},
		{20, 20, MaxDirections},
	}
	for _, tt := range tests {
		got := EffectiveCount(Params{Count: tt.count}, tt.behaviorsLen)
		if got != tt.want {
			t.Errorf("EffectiveCount(count=%d, len=%d) = %d, want %d", tt.count, tt.behaviorsLen, got, tt.want)
		}
	}
}

func TestFires(t *testing.T) {
	tests := []struct {
		name  string
		a     Accum
		tick  uint16
		fires bool
	}{
		{"below threshold", Accum{X: 3, Y: 4}, 10, false},
		{"exactly at threshold", Accum{X: 3, Y: 4}, 5, true},
		{"above threshold", Accum{X: 30, Y: 40}, 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fires(tt.a, tt.tick); got != tt.fires {
				t.Errorf("Fires(%+v, %d) = %v, want %v", tt.a, tt.tick, got, tt.fires)
			}
		})
	}
}

func TestDirection_SingleDirectionAlwaysZero(t *testing.T) {
	if got := Direction(Accum{X: 100, Y: -50}, 0, 1); got != 0 {
		t.Errorf("Direction with k=1 = %d, want 0", got)
	}
}

// TestDirection_OffsetExampleAgreesWithSource pins idx=1 for a 45deg
// offset applied to a (10,10) vector (45deg raw angle), following
// original_source's angle_deg += degree_offset; idx = floor((adjusted +
// segment/2) / segment) formula rather than the spec text's worked
// example, which disagrees with its own source.
func TestDirection_OffsetExampleAgreesWithSource(t *testing.T) {
	got := Direction(Accum{X: 10, Y: 10}, 45, 4)
	if got != 1 {
		t.Errorf("Direction((10,10), offset=45, k=4) = %d, want 1", got)
	}
}

func TestDirection_WrapsAroundZero(t *testing.T) {
	// A vector pointing due right at 0deg, with an offset that pushes it
	// just past the wrap boundary, must still resolve to a valid index.
	got := Direction(Accum{X: 100, Y: 0}, 350, 8)
	if got < 0 || got >= 8 {
		t.Errorf("Direction wrapped out of range: %d", got)
	}
}

type stubRegistry struct {
	handlers map[string]bool
	invoked  []bool
}

func (s *stubRegistry) Lookup(name string) (Handler, bool) {
	if !s.handlers[name] {
		return nil, false
	}
	return name, true
}

func (s *stubRegistry) Invoke(_ context.Context, _ Handler, _ InvokeParams, pressed bool) error {
	s.invoked = append(s.invoked, pressed)
	return nil
}

func TestDispatcher_Process_AccumulatesBelowThreshold(t *testing.T) {
	reg := &stubRegistry{handlers: map[string]bool{"UP": true}}
	d := &Dispatcher{Registry: reg, Log: plog.Discard()}

	var accum Accum
	params := Params{Enabled: true, Count: 4, Tick: 100}
	behaviors := []string{"UP", "RIGHT", "DOWN", "LEFT"}

	consumed, fired := d.Process(&accum, params, behaviors, true, 5, 0, time.Now())
	if !consumed {
		t.Error("expected event to be consumed while keybind stage is enabled")
	}
	if fired != nil {
		t.Error("expected no fire below threshold")
	}
	if len(reg.invoked) != 0 {
		t.Error("expected no invocation before threshold crossed")
	}
}

func TestDispatcher_Process_FiresAndResetsAccum(t *testing.T) {
	reg := &stubRegistry{handlers: map[string]bool{"UP": true, "RIGHT": true, "DOWN": true, "LEFT": true}}
	d := &Dispatcher{Registry: reg, Log: plog.Discard()}

	var accum Accum
	params := Params{Enabled: true, Count: 4, Tick: 10}
	behaviors := []string{"UP", "RIGHT", "DOWN", "LEFT"}

	consumed, fired := d.Process(&accum, params, behaviors, true, 100, 0, time.Now())
	if !consumed {
		t.Error("expected event to be consumed")
	}
	if fired == nil || !fired.Invoked {
		t.Fatalf("expected a fire with a successful invocation, got %+v", fired)
	}
	if accum.X != 0 || accum.Y != 0 {
		t.Errorf("accum after fire = %+v, want zeroed", accum)
	}
	if len(reg.invoked) != 2 || !reg.invoked[0] || reg.invoked[1] {
		t.Errorf("expected press then release, got %+v", reg.invoked)
	}
}

func TestDispatcher_Process_DisabledPassesThrough(t *testing.T) {
	reg := &stubRegistry{}
	d := &Dispatcher{Registry: reg, Log: plog.Discard()}

	var accum Accum
	consumed, fired := d.Process(&accum, Params{Enabled: false}, nil, true, 5, 0, time.Now())
	if consumed || fired != nil {
		t.Errorf("disabled stage should not consume: consumed=%v fired=%+v", consumed, fired)
	}
}

func TestDispatcher_Process_UnknownBehaviorDisablesDirection(t *testing.T) {
	reg := &stubRegistry{handlers: map[string]bool{}}
	d := &Dispatcher{Registry: reg, Log: plog.Discard()}

	var accum Accum
	params := Params{Enabled: true, Count: 1, Tick: 10}
	consumed, fired := d.Process(&accum, params, []string{"MISSING"}, true, 100, 0, time.Now())
	if !consumed {
		t.Error("expected event still consumed on unresolved behavior")
	}
	if fired == nil || fired.Invoked {
		t.Errorf("expected fired.Invoked=false for unresolved behavior, got %+v", fired)
	}
}
