package services

import (
	"testing"

	"github.com/Tredoux555/jeffy-delivery/internal/models"
)

func assignments(ids ...string) []models.DeliveryAssignment {
	out := make([]models.DeliveryAssignment, len(ids))
	for i, id := range ids {
		out[i] = models.DeliveryAssignment{ID: id}
	}
	return out
}

func assertIDs(t *testing.T, got []models.DeliveryAssignment, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d assignments, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestSortByOptimizedOrder(t *testing.T) {
	sorted := SortByOptimizedOrder(assignments("c", "a", "b"), []string{"a", "b", "c"})
	assertIDs(t, sorted, "a", "b", "c")
}

func TestSortByOptimizedOrderEmptyOrder(t *testing.T) {
	sorted := SortByOptimizedOrder(assignments("c", "a", "b"), nil)
	assertIDs(t, sorted, "c", "a", "b")
}

func TestSortByOptimizedOrderUnknownIDsStayInFront(t *testing.T) {
	// x and y were never optimized: they sort ahead of the optimized block
	// and keep their relative input order.
	sorted := SortByOptimizedOrder(assignments("b", "x", "a", "y"), []string{"a", "b"})
	assertIDs(t, sorted, "x", "y", "a", "b")
}

func TestSortByOptimizedOrderDoesNotMutateInput(t *testing.T) {
	input := assignments("b", "a")
	SortByOptimizedOrder(input, []string{"a", "b"})
	assertIDs(t, input, "b", "a")
}

func TestMoveInQueueDown(t *testing.T) {
	moved := MoveInQueue([]string{"a", "b", "c"}, 0, "down")
	if moved[0] != "b" || moved[1] != "a" || moved[2] != "c" {
		t.Fatalf("unexpected order after move down: %v", moved)
	}
}

func TestMoveInQueueUp(t *testing.T) {
	moved := MoveInQueue([]string{"a", "b", "c"}, 2, "up")
	if moved[0] != "a" || moved[1] != "c" || moved[2] != "b" {
		t.Fatalf("unexpected order after move up: %v", moved)
	}
}

func TestMoveInQueueOutOfRange(t *testing.T) {
	order := []string{"a", "b"}

	cases := []struct {
		index     int
		direction string
	}{
		{0, "up"},
		{1, "down"},
		{-1, "down"},
		{5, "up"},
	}
	for _, c := range cases {
		moved := MoveInQueue(order, c.index, c.direction)
		if moved[0] != "a" || moved[1] != "b" {
			t.Fatalf("move %d %s should be a no-op, got %v", c.index, c.direction, moved)
		}
	}
}
