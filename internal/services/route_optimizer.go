package services

import (
	"log"
	"math"

	"github.com/Tredoux555/jeffy-delivery/internal/models"
)

// Average driving speed assumed for duration estimates
const averageSpeedKmh = 30.0

// RouteOptimizer orders delivery waypoints using a nearest-neighbor TSP
// heuristic. Stateless and safe for concurrent use.
type RouteOptimizer struct{}

// NewRouteOptimizer creates a new route optimizer
func NewRouteOptimizer() *RouteOptimizer {
	return &RouteOptimizer{}
}

// Optimize produces a visiting order for the given waypoints along with
// aggregate distance and duration stats.
//
// The first waypoint is fixed as the start. Each step selects the closest
// remaining waypoint from the last-placed one; ties go to the earlier-indexed
// waypoint (strict < comparison). O(n²), fine for single-digit queue sizes.
func (ro *RouteOptimizer) Optimize(waypoints []models.Waypoint) ([]models.Waypoint, models.RouteStats) {
	if len(waypoints) <= 1 {
		return waypoints, models.RouteStats{}
	}

	log.Printf("🎯 Optimizing route for %d waypoints (start: %s)", len(waypoints), waypoints[0].Address)

	optimized := make([]models.Waypoint, 0, len(waypoints))
	optimized = append(optimized, waypoints[0])

	remaining := make([]models.Waypoint, len(waypoints)-1)
	copy(remaining, waypoints[1:])

	for len(remaining) > 0 {
		last := optimized[len(optimized)-1]

		bestIdx := 0
		bestDistance := math.MaxFloat64
		for i, wp := range remaining {
			distance := DistanceKm(last.Latitude, last.Longitude, wp.Latitude, wp.Longitude)
			if distance < bestDistance {
				bestDistance = distance
				bestIdx = i
			}
		}

		optimized = append(optimized, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	stats := routeStats(optimized)
	log.Printf("✅ Route optimized: %.2f km, ~%d min", stats.DistanceKm, stats.DurationMinutes)

	return optimized, stats
}

// routeStats sums leg distances and estimates duration at a constant average
// speed. Distance rounded to 2 decimal places, duration to the nearest minute.
func routeStats(route []models.Waypoint) models.RouteStats {
	totalDistance := 0.0
	totalDuration := 0.0

	for i := 0; i < len(route)-1; i++ {
		distance := DistanceKm(route[i].Latitude, route[i].Longitude, route[i+1].Latitude, route[i+1].Longitude)
		totalDistance += distance
		totalDuration += (distance / averageSpeedKmh) * 60
	}

	return models.RouteStats{
		DistanceKm:      math.Round(totalDistance*100) / 100,
		DurationMinutes: int(math.Round(totalDuration)),
	}
}
