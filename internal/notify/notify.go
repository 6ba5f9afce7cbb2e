// Package notify provides change notification for an instance's
// persistent settings (spec §6 "Persistent-change notification").
// Components that care about a value only when it is changed
// persistently (rather than every transient control-surface call)
// subscribe here.
package notify

import "sync"

// Field names a persisted setting group an observer can scope to.
type Field string

const (
	FieldScaling    Field = "scaling"
	FieldRotation   Field = "rotation"
	FieldTempLayer  Field = "temp_layer"
	FieldAxisSnap   Field = "axis_snap"
	FieldRemap      Field = "remap"
	FieldInvert     Field = "invert"
	FieldKeybind    Field = "keybind"
	FieldActiveLyrs Field = "active_layers"
)

// Change describes one persistent control-surface update: the instance
// name and the settings group that changed. It is raised synchronously by
// the persistent setter, before the debounced save writes the record; it
// does not carry the new values.
type Change struct {
	Instance string
	Field    Field
}

// Observer is called when a persisted change fires.
type Observer func(Change)

// Subscription is a live registration returned by Subscribe/SubscribeField.
type Subscription struct {
	id       uint64
	field    Field
	scoped   bool
	notifier *Notifier
}

// Unsubscribe removes this subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.unsubscribe(s)
		s.notifier = nil
	}
}

// Notifier fans out persisted-settings changes to subscribers.
type Notifier struct {
	mu             sync.RWMutex
	global         map[uint64]Observer
	fieldObservers map[Field]map[uint64]Observer
	nextID         uint64
}

// New creates an empty Notifier.
func New() *Notifier {
	return &Notifier{
		global:         make(map[uint64]Observer),
		fieldObservers: make(map[Field]map[uint64]Observer),
	}
}

// Subscribe registers an observer for every persisted change.
func (n *Notifier) Subscribe(obs Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.global[id] = obs
	return &Subscription{id: id, notifier: n}
}

// SubscribeField registers an observer for changes to one settings field.
func (n *Notifier) SubscribeField(f Field, obs Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	if n.fieldObservers[f] == nil {
		n.fieldObservers[f] = make(map[uint64]Observer)
	}
	n.fieldObservers[f][id] = obs
	return &Subscription{id: id, field: f, scoped: true, notifier: n}
}

// Notify delivers change to all matching observers, outside any lock.
func (n *Notifier) Notify(change Change) {
	n.mu.RLock()
	observers := make([]Observer, 0, len(n.global))
	for _, obs := range n.global {
		observers = append(observers, obs)
	}
	for _, obs := range n.fieldObservers[change.Field] {
		observers = append(observers, obs)
	}
	n.mu.RUnlock()

	for _, obs := range observers {
		obs(change)
	}
}

func (n *Notifier) unsubscribe(s *Subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if s.scoped {
		delete(n.fieldObservers[s.field], s.id)
		if len(n.fieldObservers[s.field]) == 0 {
			delete(n.fieldObservers, s.field)
		}
		return
	}
	delete(n.global, s.id)
}
