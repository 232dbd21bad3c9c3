package websocket

import (
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool, message string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(message)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestBroadcastEvictsBlockedClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Unbuffered send channel with no reader: the first broadcast blocks and
	// the hub must evict the client instead of hanging.
	client := &Client{UserID: "driver-1", UserRole: "driver", send: make(chan []byte)}
	hub.register <- client
	waitFor(t, func() bool { return hub.IsUserConnected("driver-1") }, "client never registered")

	// Role broadcasts racing the eviction must not panic or deadlock
	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			hub.BroadcastToRole("driver", Event(EventOrdersChanged, nil))
		}
		close(done)
	}()

	hub.BroadcastToUser("driver-1", Event(EventOrdersChanged, nil))

	waitFor(t, func() bool { return !hub.IsUserConnected("driver-1") }, "blocked client was not evicted")
	<-done

	if hub.GetClientCount() != 0 {
		t.Fatalf("expected 0 clients after eviction, got %d", hub.GetClientCount())
	}
}

func TestBroadcastToRoleSkipsOtherRoles(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	driver := &Client{UserID: "driver-1", UserRole: "driver", send: make(chan []byte, 1)}
	receiver := &Client{UserID: "receiver-1", UserRole: "receiver", send: make(chan []byte, 1)}
	hub.register <- driver
	hub.register <- receiver
	waitFor(t, func() bool { return hub.GetClientCount() == 2 }, "clients never registered")

	hub.BroadcastToRole("driver", Event(EventOrdersChanged, nil))

	select {
	case <-driver.send:
	case <-time.After(time.Second):
		t.Fatal("driver never received role broadcast")
	}
	select {
	case <-receiver.send:
		t.Fatal("receiver got a driver-role broadcast")
	default:
	}
}
