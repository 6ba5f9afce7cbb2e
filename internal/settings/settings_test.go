package settings

import (
	"sync"
	"testing"
	"time"

	"github.com/dshills/inputproc/internal/pipeline"
	"github.com/dshills/inputproc/internal/plog"
	"github.com/dshills/inputproc/internal/sched"
)

func sampleValues() Values {
	return Values{
		ScaleMul:            3,
		ScaleDiv:            2,
		RotationDeg:         -45,
		TempLayerEnabled:    true,
		TempLayerLayer:      4,
		TempLayerActMs:      200,
		TempLayerDeactMs:    500,
		ActiveLayers:        0b1010,
		AxisSnapMode:        pipeline.SnapY,
		AxisSnapThreshold:   100,
		AxisSnapTimeoutMs:   1000,
		XYToScroll:          false,
		XYSwap:              true,
		XInvert:             true,
		YInvert:             false,
		KeybindEnabled:      true,
		KeybindCount:        4,
		KeybindDegreeOffset: 45,
		KeybindTick:         50,
	}
}

func TestEncode_ProducesExactSize(t *testing.T) {
	data := Encode(sampleValues())
	if len(data) != Size {
		t.Fatalf("Encode produced %d bytes, want %d", len(data), Size)
	}
}

func TestEncodeDecode_RoundTrips(t *testing.T) {
	want := sampleValues()
	data := Encode(want)
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if got != want {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestDecode_RejectsWrongSize(t *testing.T) {
	if _, err := Decode(make([]byte, Size-1)); err == nil {
		t.Error("expected error decoding short record")
	}
	if _, err := Decode(make([]byte, Size+1)); err == nil {
		t.Error("expected error decoding long record")
	}
}

type memStore struct {
	data map[string][]byte
}

func (m *memStore) Save(key string, data []byte) error {
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = data
	return nil
}

func (m *memStore) Load(key string) ([]byte, bool, error) {
	data, ok := m.data[key]
	return data, ok, nil
}

func TestLoad_MissingKeyIsNotFound(t *testing.T) {
	store := &memStore{}
	_, ok := Load(store, "missing", plog.Discard())
	if ok {
		t.Error("expected ok=false for missing key")
	}
}

func TestLoad_SizeMismatchTreatedAsNotFound(t *testing.T) {
	store := &memStore{data: map[string][]byte{"k": {1, 2, 3}}}
	_, ok := Load(store, "k", plog.Discard())
	if ok {
		t.Error("expected ok=false for a size-mismatched record")
	}
}

func TestLoad_RoundTripsThroughStore(t *testing.T) {
	want := sampleValues()
	store := &memStore{data: map[string][]byte{"k": Encode(want)}}
	got, ok := Load(store, "k", plog.Discard())
	if !ok {
		t.Fatal("expected ok=true")
	}
	if got != want {
		t.Errorf("Load result = %+v, want %+v", got, want)
	}
}

type countingExecutor struct {
	scheduleCalls   int
	rescheduleCalls int
	fn              func()
}

func (e *countingExecutor) Schedule(_ time.Duration, fn func()) sched.Handle {
	e.scheduleCalls++
	e.fn = fn
	return sched.Handle{}
}

func (e *countingExecutor) Reschedule(_ sched.Handle, _ time.Duration, fn func()) sched.Handle {
	e.rescheduleCalls++
	e.fn = fn
	return sched.Handle{}
}

func (e *countingExecutor) Cancel(sched.Handle) {}

func TestDebouncer_RequestSave_CoalescesIntoOneScheduleCall(t *testing.T) {
	exec := &countingExecutor{}
	store := &memStore{}
	values := sampleValues()

	d := NewDebouncer(&sync.Mutex{}, store, exec, plog.Discard(), "k", 50, func() Values { return values })

	d.RequestSave()
	d.RequestSave()
	d.RequestSave()

	if exec.scheduleCalls != 1 {
		t.Errorf("scheduleCalls = %d, want 1", exec.scheduleCalls)
	}
	if exec.rescheduleCalls != 2 {
		t.Errorf("rescheduleCalls = %d, want 2", exec.rescheduleCalls)
	}
}

func TestDebouncer_Fire_SavesEncodedValues(t *testing.T) {
	exec := &countingExecutor{}
	store := &memStore{}
	values := sampleValues()

	d := NewDebouncer(&sync.Mutex{}, store, exec, plog.Discard(), "k", 50, func() Values { return values })
	d.RequestSave()
	exec.fn()

	got, ok := Load(store, "k", plog.Discard())
	if !ok {
		t.Fatal("expected a saved record after fire")
	}
	if got != values {
		t.Errorf("saved values = %+v, want %+v", got, values)
	}
}
