package notifier

import (
	"testing"
	"time"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	n := New(1)
	ch, unsubscribe := n.Subscribe("sess-1")
	defer unsubscribe()

	n.Publish("sess-1")

	select {
	case ev := <-ch:
		if ev.SessionID != "sess-1" {
			t.Fatalf("event session id = %q, want sess-1", ev.SessionID)
		}
	default:
		t.Fatal("expected event to be delivered")
	}
}

func TestPublishIgnoresOtherSessions(t *testing.T) {
	n := New(1)
	ch, unsubscribe := n.Subscribe("sess-1")
	defer unsubscribe()

	n.Publish("sess-2")

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event for unrelated session: %+v", ev)
	default:
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	n := New(1)
	ch, unsubscribe := n.Subscribe("sess-1")
	unsubscribe()

	n.Publish("sess-1")

	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed after unsubscribe")
	}
}

func TestSlowSubscriberIsDroppedNotBlocked(t *testing.T) {
	n := New(1)
	ch, unsubscribe := n.Subscribe("sess-1")
	defer unsubscribe()

	// Fill the one-slot buffer, then publish again; the second publish
	// must not block even though nothing has drained the channel, and it
	// drops the subscriber by closing its channel.
	n.Publish("sess-1")
	done := make(chan struct{})
	go func() {
		n.Publish("sess-1")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}

	<-ch // the event buffered by the first publish
	if _, ok := <-ch; ok {
		t.Fatal("expected the slow subscriber's channel to be closed")
	}
}

func TestMultipleSubscribersAllReceive(t *testing.T) {
	n := New(1)
	ch1, unsub1 := n.Subscribe("sess-1")
	ch2, unsub2 := n.Subscribe("sess-1")
	defer unsub1()
	defer unsub2()

	n.Publish("sess-1")

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case <-ch:
		default:
			t.Fatal("expected every subscriber to receive the event")
		}
	}
}
