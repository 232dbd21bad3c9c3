package models

import "testing"

func TestNotificationStatusTransitions(t *testing.T) {
	cases := []struct {
		from  NotificationStatus
		to    NotificationStatus
		legal bool
	}{
		{NotificationStatusPending, NotificationStatusNotified, true},
		{NotificationStatusPending, NotificationStatusReadyConfirmed, false},
		{NotificationStatusPending, NotificationStatusCancelled, true},

		{NotificationStatusNotified, NotificationStatusReadyConfirmed, true},
		{NotificationStatusNotified, NotificationStatusGPSActive, false},
		{NotificationStatusNotified, NotificationStatusCompleted, false},
		{NotificationStatusNotified, NotificationStatusCancelled, true},

		{NotificationStatusReadyConfirmed, NotificationStatusGPSActive, true},
		// Location sharing is optional
		{NotificationStatusReadyConfirmed, NotificationStatusCompleted, true},
		{NotificationStatusReadyConfirmed, NotificationStatusNotified, false},

		// One tracking session per notification: no gps_active restart
		{NotificationStatusGPSActive, NotificationStatusGPSActive, false},
		{NotificationStatusGPSActive, NotificationStatusCompleted, true},
		{NotificationStatusGPSActive, NotificationStatusReadyConfirmed, false},
		{NotificationStatusGPSActive, NotificationStatusCancelled, true},

		// Terminal states accept nothing
		{NotificationStatusCompleted, NotificationStatusCancelled, false},
		{NotificationStatusCancelled, NotificationStatusNotified, false},
		{NotificationStatusCancelled, NotificationStatusCancelled, false},
	}

	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.legal {
			t.Fatalf("%s -> %s: expected %v, got %v", c.from, c.to, c.legal, got)
		}
	}
}

func TestNotificationStatusIsTerminal(t *testing.T) {
	terminal := []NotificationStatus{NotificationStatusCompleted, NotificationStatusCancelled}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	active := []NotificationStatus{
		NotificationStatusPending,
		NotificationStatusNotified,
		NotificationStatusReadyConfirmed,
		NotificationStatusGPSActive,
	}
	for _, s := range active {
		if s.IsTerminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}
