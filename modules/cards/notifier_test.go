package cards_test

import (
	"reflect"
	"testing"

	"github.com/guarzo/bcards/modules/cards"
)

func TestNotifier_OrderAndUnsubscribe(t *testing.T) {
	n := cards.NewNotifier()

	var order []string
	a := n.Subscribe(func() { order = append(order, "a") })
	b := n.Subscribe(func() { order = append(order, "b") })
	n.Subscribe(func() { order = append(order, "c") })

	n.Broadcast()
	if !reflect.DeepEqual(order, []string{"a", "b", "c"}) {
		t.Errorf("expected registration order, got %v", order)
	}

	order = nil
	b.Unsubscribe()
	b.Unsubscribe()
	n.Broadcast()
	if !reflect.DeepEqual(order, []string{"a", "c"}) {
		t.Errorf("expected b removed, got %v", order)
	}
	if n.Len() != 2 {
		t.Errorf("expected 2 listeners, got %d", n.Len())
	}

	a.Unsubscribe()
	if n.Len() != 1 {
		t.Errorf("expected 1 listener, got %d", n.Len())
	}
}

func TestNotifier_ListenerMayUnsubscribeItself(t *testing.T) {
	n := cards.NewNotifier()

	calls := 0
	var sub *cards.Subscription
	sub = n.Subscribe(func() {
		calls++
		sub.Unsubscribe()
	})

	n.Broadcast()
	n.Broadcast()
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestNotifier_PanickingListenerDoesNotStopOthers(t *testing.T) {
	n := cards.NewNotifier()

	reached := false
	n.Subscribe(func() { panic("boom") })
	n.Subscribe(func() { reached = true })

	n.Broadcast()
	if !reached {
		t.Error("expected the second listener to run")
	}
}

func TestSubscription_NilUnsubscribe(t *testing.T) {
	var sub *cards.Subscription
	sub.Unsubscribe()
}
