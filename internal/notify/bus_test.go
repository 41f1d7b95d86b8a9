package notify

import "testing"

func TestPublishFiltersByKind(t *testing.T) {
	bus := NewBus(nil)
	all := bus.Subscribe()
	created := bus.Subscribe(BranchCreated)

	bus.Publish(ThreadUpdated, "t1")
	bus.Publish(BranchCreated, "t2")

	if ev := <-all.Events(); ev.Kind != ThreadUpdated || ev.ThreadID != "t1" {
		t.Fatalf("first event: got %+v", ev)
	}
	if ev := <-all.Events(); ev.Kind != BranchCreated {
		t.Fatalf("second event: got %+v", ev)
	}
	if ev := <-created.Events(); ev.Kind != BranchCreated || ev.ThreadID != "t2" {
		t.Fatalf("filtered event: got %+v", ev)
	}
	select {
	case ev := <-created.Events():
		t.Fatalf("unexpected event: %+v", ev)
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus(nil)
	sub := bus.Subscribe()
	sub.Unsubscribe()
	sub.Unsubscribe()

	bus.Publish(ThreadDeleted, "t1")
	if _, ok := <-sub.Events(); ok {
		t.Fatalf("expected closed channel")
	}
}

func TestPublishDoesNotBlockOnFullBuffer(t *testing.T) {
	bus := NewBus(nil)
	sub := bus.Subscribe()
	for i := 0; i < defaultBuffer*2; i++ {
		bus.Publish(MessagesChanged, "t1")
	}
	if len(sub.Events()) != defaultBuffer {
		t.Fatalf("buffered: got %d want %d", len(sub.Events()), defaultBuffer)
	}
	if got := bus.Dropped(); got != defaultBuffer {
		t.Fatalf("dropped: got %d want %d", got, defaultBuffer)
	}
}

func TestCloseEndsSubscriptions(t *testing.T) {
	bus := NewBus(nil)
	sub := bus.Subscribe()
	bus.Close()
	if _, ok := <-sub.Events(); ok {
		t.Fatalf("expected closed channel after bus close")
	}
	sub.Unsubscribe()

	late := bus.Subscribe()
	if _, ok := <-late.Events(); ok {
		t.Fatalf("subscribe after close should return a closed subscription")
	}
	bus.Publish(BranchCreated, "t1")
}
