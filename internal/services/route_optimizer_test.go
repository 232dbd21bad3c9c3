package services

import (
	"testing"

	"github.com/Tredoux555/jeffy-delivery/internal/models"
)

func wp(id string, lat, lng float64) models.Waypoint {
	return models.Waypoint{ID: id, Latitude: lat, Longitude: lng, Address: id}
}

func TestOptimizeEmptyAndSingle(t *testing.T) {
	ro := NewRouteOptimizer()

	route, stats := ro.Optimize(nil)
	if len(route) != 0 {
		t.Fatalf("expected empty route, got %d waypoints", len(route))
	}
	if stats.DistanceKm != 0 || stats.DurationMinutes != 0 {
		t.Fatalf("expected zero stats for empty input, got %+v", stats)
	}

	single := []models.Waypoint{wp("a", -33.9, 18.4)}
	route, stats = ro.Optimize(single)
	if len(route) != 1 || route[0].ID != "a" {
		t.Fatalf("expected single waypoint back, got %+v", route)
	}
	if stats.DistanceKm != 0 || stats.DurationMinutes != 0 {
		t.Fatalf("expected zero stats for single waypoint, got %+v", stats)
	}
}

func TestOptimizeKeepsStartAndVisitsAll(t *testing.T) {
	ro := NewRouteOptimizer()
	input := []models.Waypoint{
		wp("start", -33.9249, 18.4241),
		wp("b", -33.9608, 18.4672),
		wp("c", -33.9321, 18.8602),
		wp("d", -34.0362, 18.3505),
	}

	route, _ := ro.Optimize(input)

	if len(route) != len(input) {
		t.Fatalf("expected %d waypoints, got %d", len(input), len(route))
	}
	if route[0].ID != "start" {
		t.Fatalf("first waypoint must stay fixed, got %s", route[0].ID)
	}

	seen := map[string]bool{}
	for _, w := range route {
		if seen[w.ID] {
			t.Fatalf("waypoint %s visited twice", w.ID)
		}
		seen[w.ID] = true
	}
	for _, w := range input {
		if !seen[w.ID] {
			t.Fatalf("waypoint %s missing from route", w.ID)
		}
	}
}

func TestOptimizeGreedyOrder(t *testing.T) {
	// From a, b is closest; from b, d is closer than c; c comes last.
	ro := NewRouteOptimizer()
	input := []models.Waypoint{
		wp("a", 0, 0),
		wp("b", 0, 1),
		wp("c", 10, 10),
		wp("d", 0, 2),
	}

	route, stats := ro.Optimize(input)

	want := []string{"a", "b", "d", "c"}
	for i, id := range want {
		if route[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, route[i].ID)
		}
	}
	if stats.DistanceKm <= 0 || stats.DurationMinutes <= 0 {
		t.Fatalf("expected positive stats, got %+v", stats)
	}
}

func TestOptimizeDeterministic(t *testing.T) {
	ro := NewRouteOptimizer()
	input := []models.Waypoint{
		wp("a", -33.90, 18.40),
		wp("b", -33.95, 18.45),
		wp("c", -33.92, 18.42),
		wp("d", -34.00, 18.50),
	}

	first, firstStats := ro.Optimize(input)
	second, secondStats := ro.Optimize(input)

	if len(first) != len(second) {
		t.Fatalf("route lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("position %d differs between runs: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
	if firstStats != secondStats {
		t.Fatalf("stats differ between runs: %+v vs %+v", firstStats, secondStats)
	}
}

func TestOptimizeDoesNotMutateInput(t *testing.T) {
	ro := NewRouteOptimizer()
	input := []models.Waypoint{
		wp("a", 0, 0),
		wp("b", 0, 5),
		wp("c", 0, 1),
	}

	ro.Optimize(input)

	want := []string{"a", "b", "c"}
	for i, id := range want {
		if input[i].ID != id {
			t.Fatalf("input mutated at %d: expected %s, got %s", i, id, input[i].ID)
		}
	}
}
