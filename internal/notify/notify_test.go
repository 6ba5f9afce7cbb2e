package notify

import (
	"sync/atomic"
	"testing"
)

func TestNotifier_Subscribe_ReceivesAllFields(t *testing.T) {
	n := New()

	var count atomic.Int32
	sub := n.Subscribe(func(Change) {
		count.Add(1)
	})
	defer sub.Unsubscribe()

	n.Notify(Change{Instance: "left", Field: FieldScaling})
	n.Notify(Change{Instance: "left", Field: FieldRotation})

	if got := count.Load(); got != 2 {
		t.Errorf("global subscriber got %d notifications, want 2", got)
	}
}

func TestNotifier_SubscribeField_FiltersByField(t *testing.T) {
	n := New()

	var scaling, rotation atomic.Int32
	subA := n.SubscribeField(FieldScaling, func(Change) { scaling.Add(1) })
	subB := n.SubscribeField(FieldRotation, func(Change) { rotation.Add(1) })
	defer subA.Unsubscribe()
	defer subB.Unsubscribe()

	n.Notify(Change{Instance: "left", Field: FieldScaling})

	if scaling.Load() != 1 {
		t.Errorf("scaling observer got %d, want 1", scaling.Load())
	}
	if rotation.Load() != 0 {
		t.Errorf("rotation observer got %d, want 0", rotation.Load())
	}
}

func TestSubscription_Unsubscribe_StopsDelivery(t *testing.T) {
	n := New()

	var count atomic.Int32
	sub := n.Subscribe(func(Change) { count.Add(1) })

	n.Notify(Change{Instance: "left", Field: FieldScaling})
	sub.Unsubscribe()
	n.Notify(Change{Instance: "left", Field: FieldScaling})

	if got := count.Load(); got != 1 {
		t.Errorf("count after unsubscribe = %d, want 1", got)
	}
}

func TestNotifier_Notify_DeliveredSynchronously(t *testing.T) {
	n := New()

	var delivered bool
	sub := n.Subscribe(func(Change) { delivered = true })
	defer sub.Unsubscribe()

	n.Notify(Change{Instance: "left", Field: FieldAxisSnap})
	if !delivered {
		t.Error("expected observer to run synchronously within Notify")
	}
}
