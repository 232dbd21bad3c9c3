package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

// Waypoint is a geocoded delivery stop fed into the route optimizer.
// Immutable once constructed for an optimization run.
type Waypoint struct {
	ID        string  `json:"id"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Address   string  `json:"address"`
}

// Waypoints is stored as a JSONB snapshot on the optimization row
type Waypoints []Waypoint

func (w Waypoints) Value() (driver.Value, error) {
	return json.Marshal(w)
}

func (w *Waypoints) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, w)
	case string:
		return json.Unmarshal([]byte(v), w)
	case nil:
		*w = nil
		return nil
	}
	return fmt.Errorf("cannot scan %T into Waypoints", src)
}

// RouteStats holds the aggregate metrics for an optimized route
type RouteStats struct {
	DistanceKm      float64 `json:"distance_km"`
	DurationMinutes int     `json:"duration_minutes"`
}

// RouteOptimization is the persisted advisory snapshot of one optimization
// run. The live queue order is always recomputed on demand; this row exists
// for history, never as the source of truth for delivery order.
type RouteOptimization struct {
	ID                   string         `json:"id" db:"id"`
	DriverID             string         `json:"driver_id" db:"driver_id"`
	OptimizationDate     string         `json:"optimization_date" db:"optimization_date"`
	DeliveryOrder        pq.StringArray `json:"delivery_order" db:"delivery_order"`
	TotalDistanceKm      float64        `json:"total_distance_km" db:"total_distance_km"`
	TotalDurationMinutes int            `json:"total_duration_minutes" db:"total_duration_minutes"`
	Waypoints            Waypoints      `json:"waypoints" db:"waypoints"`
	CreatedAt            int64          `json:"created_at" db:"created_at"`
}
