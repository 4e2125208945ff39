package events

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestPublishReachesEverySubscriber(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	var badge, page int32
	unsubBadge, err := b.Subscribe("", func() { atomic.AddInt32(&badge, 1) })
	if err != nil {
		t.Fatalf("expected no error subscribing, got %v", err)
	}
	defer unsubBadge()
	unsubPage, err := b.Subscribe("", func() { atomic.AddInt32(&page, 1) })
	if err != nil {
		t.Fatalf("expected no error subscribing, got %v", err)
	}
	defer unsubPage()

	if err := b.Publish("guest:g1"); err != nil {
		t.Fatalf("expected no error publishing, got %v", err)
	}

	// Publish returns once every subscriber acked.
	if got := atomic.LoadInt32(&badge); got != 1 {
		t.Errorf("expected badge listener called once, got %d", got)
	}
	if got := atomic.LoadInt32(&page); got != 1 {
		t.Errorf("expected page listener called once, got %d", got)
	}
}

func TestSubscribeFiltersByOwner(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	var mine, all int32
	unsubMine, _ := b.Subscribe("user:u1", func() { atomic.AddInt32(&mine, 1) })
	defer unsubMine()
	unsubAll, _ := b.Subscribe("", func() { atomic.AddInt32(&all, 1) })
	defer unsubAll()

	b.Publish("user:u2")
	b.Publish("user:u1")

	if got := atomic.LoadInt32(&mine); got != 1 {
		t.Errorf("expected owner listener called once, got %d", got)
	}
	if got := atomic.LoadInt32(&all); got != 2 {
		t.Errorf("expected catch-all listener called twice, got %d", got)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	var calls int32
	unsubscribe, _ := b.Subscribe("", func() { atomic.AddInt32(&calls, 1) })

	b.Publish("guest:g1")
	unsubscribe()
	unsubscribe()

	// Removal of the subscriber happens asynchronously after cancel.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		b.Publish("guest:g1")
		before := atomic.LoadInt32(&calls)
		time.Sleep(10 * time.Millisecond)
		b.Publish("guest:g1")
		if atomic.LoadInt32(&calls) == before {
			return
		}
	}
	t.Fatal("expected no deliveries after unsubscribe")
}

func TestPublishWithoutSubscribers(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	if err := b.Publish("guest:g1"); err != nil {
		t.Errorf("expected publish without subscribers to succeed, got %v", err)
	}
}

func TestPublishAfterClose(t *testing.T) {
	b := NewBroadcaster()
	b.Close()

	if err := b.Publish("guest:g1"); err == nil {
		t.Error("expected error publishing on a closed broadcaster")
	}
}
