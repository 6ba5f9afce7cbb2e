package rpcview

import (
	"testing"
	"time"

	"github.com/dshills/inputproc/internal/instance"
	"github.com/dshills/inputproc/internal/ioevent"
	"github.com/dshills/inputproc/internal/keymap"
	"github.com/dshills/inputproc/internal/plog"
	"github.com/dshills/inputproc/internal/sched"
)

type fakeLayerAPI struct{}

func (fakeLayerAPI) Activate(int) error   { return nil }
func (fakeLayerAPI) Deactivate(int) error { return nil }
func (fakeLayerAPI) Active(int) bool      { return false }
func (fakeLayerAPI) HighestActive() int   { return -1 }
func (fakeLayerAPI) BindingAt(int, keymap.Position) (keymap.Binding, bool) {
	return keymap.Binding{}, false
}
func (fakeLayerAPI) IsModifier(uint8, uint16) bool { return false }

type fakeStore struct{}

func (fakeStore) Save(string, []byte) error            { return nil }
func (fakeStore) Load(string) ([]byte, bool, error) { return nil, false, nil }

type noopExecutor struct{}

func (noopExecutor) Schedule(time.Duration, func()) sched.Handle             { return sched.Handle{} }
func (noopExecutor) Reschedule(sched.Handle, time.Duration, func()) sched.Handle { return sched.Handle{} }
func (noopExecutor) Cancel(sched.Handle)                                     {}

func newTestInstance(name string) *instance.Instance {
	cfg := instance.NewConfig(instance.Config{
		Name:            name,
		Type:            ioevent.TypeRelative,
		XCodes:          []ioevent.Code{0x00},
		YCodes:          []ioevent.Code{0x01},
		InitialScaleMul: 2,
		InitialScaleDiv: 1,
	})
	return instance.New(cfg, instance.Deps{
		LayerAPI: fakeLayerAPI{},
		Store:    fakeStore{},
		Executor: noopExecutor{},
		Log:      plog.Discard(),
	})
}

type fakeLookup struct {
	instances map[string]*instance.Instance
}

func (f fakeLookup) Get(name string) (*instance.Instance, bool) {
	in, ok := f.instances[name]
	return in, ok
}

func TestFromInstance_MirrorsCurrentTunables(t *testing.T) {
	in := newTestInstance("left")
	view := FromInstance(in)
	if view.Name != "left" || view.ScaleMul != 2 || view.ScaleDiv != 1 {
		t.Errorf("FromInstance = %+v, want name=left scale_mul=2 scale_div=1", view)
	}
}

func TestSnapshot_FoundAndNotFound(t *testing.T) {
	in := newTestInstance("left")
	lookup := fakeLookup{instances: map[string]*instance.Instance{"left": in}}

	view, ok := Snapshot(lookup, "left")
	if !ok || view.Name != "left" {
		t.Errorf("Snapshot(left) = (%+v, %v), want found", view, ok)
	}

	_, ok = Snapshot(lookup, "missing")
	if ok {
		t.Error("expected ok=false for an unregistered instance")
	}
}
