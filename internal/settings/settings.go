// Package settings encodes and decodes an Instance's persisted tunables
// as the fixed packed binary record spec §6 defines, and drives the
// debounced save that follows a persistent control-surface change.
package settings

import (
	"bytes"
	"encoding/binary"
	"sync"
	"time"

	"github.com/dshills/inputproc/internal/errs"
	"github.com/dshills/inputproc/internal/pipeline"
	"github.com/dshills/inputproc/internal/plog"
	"github.com/dshills/inputproc/internal/sched"
)

// Values is the full set of persisted tunables for one instance (spec
// §6 "Persisted blob"), in the field order the wire layout requires.
type Values struct {
	ScaleMul            uint32
	ScaleDiv            uint32
	RotationDeg         int32
	TempLayerEnabled    bool
	TempLayerLayer      uint8
	TempLayerActMs      uint16
	TempLayerDeactMs    uint16
	ActiveLayers        uint32
	AxisSnapMode        pipeline.AxisSnapMode
	AxisSnapThreshold   uint16
	AxisSnapTimeoutMs   uint16
	XYToScroll          bool
	XYSwap              bool
	XInvert             bool
	YInvert             bool
	KeybindEnabled      bool
	KeybindCount        uint8
	KeybindDegreeOffset uint16
	KeybindTick         uint16
}

// Size is the exact wire size of an encoded Values record. A stored
// record of any other size is rejected on load (spec §6 "a
// size-mismatching record is rejected").
const Size = 4 + 4 + 4 + 1 + 1 + 2 + 2 + 4 + 1 + 2 + 2 + 1 + 1 + 1 + 1 + 1 + 1 + 2 + 2

// Encode packs v into the wire layout, field order fixed by spec §6.
func Encode(v Values) []byte {
	buf := new(bytes.Buffer)
	buf.Grow(Size)
	_ = binary.Write(buf, binary.LittleEndian, v.ScaleMul)
	_ = binary.Write(buf, binary.LittleEndian, v.ScaleDiv)
	_ = binary.Write(buf, binary.LittleEndian, v.RotationDeg)
	writeBool(buf, v.TempLayerEnabled)
	_ = binary.Write(buf, binary.LittleEndian, v.TempLayerLayer)
	_ = binary.Write(buf, binary.LittleEndian, v.TempLayerActMs)
	_ = binary.Write(buf, binary.LittleEndian, v.TempLayerDeactMs)
	_ = binary.Write(buf, binary.LittleEndian, v.ActiveLayers)
	_ = binary.Write(buf, binary.LittleEndian, uint8(v.AxisSnapMode))
	_ = binary.Write(buf, binary.LittleEndian, v.AxisSnapThreshold)
	_ = binary.Write(buf, binary.LittleEndian, v.AxisSnapTimeoutMs)
	writeBool(buf, v.XYToScroll)
	writeBool(buf, v.XYSwap)
	writeBool(buf, v.XInvert)
	writeBool(buf, v.YInvert)
	writeBool(buf, v.KeybindEnabled)
	_ = binary.Write(buf, binary.LittleEndian, v.KeybindCount)
	_ = binary.Write(buf, binary.LittleEndian, v.KeybindDegreeOffset)
	_ = binary.Write(buf, binary.LittleEndian, v.KeybindTick)
	return buf.Bytes()
}

// Decode unpacks a wire record into Values. A record whose length
// differs from Size is rejected (spec §6).
func Decode(data []byte) (Values, error) {
	if len(data) != Size {
		return Values{}, errs.Invalid("settings: record size %d, want %d", len(data), Size)
	}
	r := bytes.NewReader(data)
	var v Values
	_ = binary.Read(r, binary.LittleEndian, &v.ScaleMul)
	_ = binary.Read(r, binary.LittleEndian, &v.ScaleDiv)
	_ = binary.Read(r, binary.LittleEndian, &v.RotationDeg)
	v.TempLayerEnabled = readBool(r)
	_ = binary.Read(r, binary.LittleEndian, &v.TempLayerLayer)
	_ = binary.Read(r, binary.LittleEndian, &v.TempLayerActMs)
	_ = binary.Read(r, binary.LittleEndian, &v.TempLayerDeactMs)
	_ = binary.Read(r, binary.LittleEndian, &v.ActiveLayers)
	var mode uint8
	_ = binary.Read(r, binary.LittleEndian, &mode)
	v.AxisSnapMode = pipeline.AxisSnapMode(mode)
	_ = binary.Read(r, binary.LittleEndian, &v.AxisSnapThreshold)
	_ = binary.Read(r, binary.LittleEndian, &v.AxisSnapTimeoutMs)
	v.XYToScroll = readBool(r)
	v.XYSwap = readBool(r)
	v.XInvert = readBool(r)
	v.YInvert = readBool(r)
	v.KeybindEnabled = readBool(r)
	_ = binary.Read(r, binary.LittleEndian, &v.KeybindCount)
	_ = binary.Read(r, binary.LittleEndian, &v.KeybindDegreeOffset)
	_ = binary.Read(r, binary.LittleEndian, &v.KeybindTick)
	return v, nil
}

func writeBool(buf *bytes.Buffer, b bool) {
	if b {
		buf.WriteByte(1)
		return
	}
	buf.WriteByte(0)
}

func readBool(r *bytes.Reader) bool {
	b, err := r.ReadByte()
	if err != nil {
		return false
	}
	return b != 0
}

// Store is the key/value backing store for persisted records: Save
// writes a record under key, and Load returns it (ok is false when no
// record exists). Store itself does not debounce; Debouncer does.
type Store interface {
	Save(key string, data []byte) error
	Load(key string) (data []byte, ok bool, err error)
}

// Debouncer coalesces repeated persistent changes for one instance into
// a single Store.Save call, fired debounceMs after the last request
// (spec §5 "settings save (debounced by a configured interval;
// repeated calls coalesce)").
type Debouncer struct {
	// mu is the owning Instance's mutex. fire touches valuesFn's closed-
	// over Instance state and hasPending, and runs on the executor's own
	// goroutine, so it must take mu before doing either (spec §5).
	mu          *sync.Mutex
	store       Store
	exec        sched.Executor
	log         plog.Logger
	debounceMs  uint32
	key         string
	pending     sched.Handle
	hasPending  bool
	valuesFn    func() Values
}

// NewDebouncer builds a Debouncer that saves under key using valuesFn to
// snapshot the persistent tunables at the moment the debounce fires. mu
// must be the same mutex the owning Instance serializes its own state
// under.
func NewDebouncer(mu *sync.Mutex, store Store, exec sched.Executor, log plog.Logger, key string, debounceMs uint32, valuesFn func() Values) *Debouncer {
	return &Debouncer{mu: mu, store: store, exec: exec, log: log, key: key, debounceMs: debounceMs, valuesFn: valuesFn}
}

// locked wraps fn so it takes d.mu before running. Every closure handed
// to d.exec.Schedule/Reschedule must go through this.
func (d *Debouncer) locked(fn func()) func() {
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		fn()
	}
}

// RequestSave coalesces a save request; a save not yet fired is
// rescheduled rather than duplicated.
func (d *Debouncer) RequestSave() {
	delay := time.Duration(d.debounceMs) * time.Millisecond
	if d.hasPending {
		d.pending = d.exec.Reschedule(d.pending, delay, d.locked(d.fire))
		return
	}
	d.pending = d.exec.Schedule(delay, d.locked(d.fire))
	d.hasPending = true
}

func (d *Debouncer) fire() {
	d.hasPending = false
	data := Encode(d.valuesFn())
	if err := d.store.Save(d.key, data); err != nil {
		d.log.Error("settings save failed", "key", d.key, "error", err)
	}
}

// Load reads and decodes key from store. A missing key is not an error;
// ok reports whether a record was found. A size-mismatched record is
// treated the same as absent, per spec §6.
func Load(store Store, key string, log plog.Logger) (Values, bool) {
	data, ok, err := store.Load(key)
	if err != nil {
		log.Warn("settings load failed", "key", key, "error", err)
		return Values{}, false
	}
	if !ok {
		return Values{}, false
	}
	v, err := Decode(data)
	if err != nil {
		log.Warn("settings record rejected", "key", key, "error", err)
		return Values{}, false
	}
	return v, true
}
