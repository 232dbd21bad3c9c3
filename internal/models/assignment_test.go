package models

import "testing"

func TestAssignmentStatusTransitions(t *testing.T) {
	cases := []struct {
		from  AssignmentStatus
		to    AssignmentStatus
		legal bool
	}{
		{AssignmentStatusAssigned, AssignmentStatusPickedUp, true},
		{AssignmentStatusAssigned, AssignmentStatusInTransit, false},
		{AssignmentStatusAssigned, AssignmentStatusDelivered, false},
		{AssignmentStatusAssigned, AssignmentStatusFailed, true},

		{AssignmentStatusPickedUp, AssignmentStatusInTransit, true},
		{AssignmentStatusPickedUp, AssignmentStatusDelivered, true},
		{AssignmentStatusPickedUp, AssignmentStatusPickedUp, false},
		{AssignmentStatusPickedUp, AssignmentStatusFailed, true},

		{AssignmentStatusInTransit, AssignmentStatusInTransit, true},
		{AssignmentStatusInTransit, AssignmentStatusDelivered, true},
		{AssignmentStatusInTransit, AssignmentStatusPickedUp, false},
		{AssignmentStatusInTransit, AssignmentStatusFailed, true},

		// Terminal states accept nothing
		{AssignmentStatusDelivered, AssignmentStatusFailed, false},
		{AssignmentStatusDelivered, AssignmentStatusPickedUp, false},
		{AssignmentStatusFailed, AssignmentStatusAssigned, false},
		{AssignmentStatusFailed, AssignmentStatusDelivered, false},
	}

	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.legal {
			t.Fatalf("%s -> %s: expected %v, got %v", c.from, c.to, c.legal, got)
		}
	}
}

func TestAssignmentStatusIsTerminal(t *testing.T) {
	terminal := []AssignmentStatus{AssignmentStatusDelivered, AssignmentStatusFailed}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	active := []AssignmentStatus{AssignmentStatusAssigned, AssignmentStatusPickedUp, AssignmentStatusInTransit}
	for _, s := range active {
		if s.IsTerminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}

func TestNextScanStatus(t *testing.T) {
	cases := []struct {
		from AssignmentStatus
		want AssignmentStatus
		ok   bool
	}{
		{AssignmentStatusAssigned, AssignmentStatusPickedUp, true},
		{AssignmentStatusPickedUp, AssignmentStatusDelivered, true},
		{AssignmentStatusInTransit, AssignmentStatusDelivered, true},
		{AssignmentStatusDelivered, "", false},
		{AssignmentStatusFailed, "", false},
	}

	for _, c := range cases {
		got, ok := c.from.NextScanStatus()
		if ok != c.ok || got != c.want {
			t.Fatalf("scan from %s: expected (%s, %v), got (%s, %v)", c.from, c.want, c.ok, got, ok)
		}
	}
}
