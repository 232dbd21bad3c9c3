package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Tredoux555/jeffy-delivery/internal/middleware"
	"github.com/Tredoux555/jeffy-delivery/internal/models"
	"github.com/Tredoux555/jeffy-delivery/internal/services"
	"github.com/Tredoux555/jeffy-delivery/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type OptimizeRouteRequest struct {
	DriverID      string   `json:"driver_id"`
	AssignmentIDs []string `json:"assignment_ids"`
}

type OptimizeRouteResponse struct {
	Success          bool              `json:"success"`
	OrderedWaypoints []models.Waypoint `json:"ordered_waypoints"`
	UnroutedIDs      []string          `json:"unrouted_ids,omitempty"`
	Stats            models.RouteStats `json:"stats"`
	OptimizationID   string            `json:"optimization_id"`
}

// OptimizeRoute runs the nearest-neighbor optimizer over the driver's chosen
// assignments and saves an advisory snapshot of the result.
//
// Assignments whose orders were never geocoded can't be routed; they are
// appended after the optimized sequence in input order so nothing drops out
// of the queue.
func OptimizeRoute(db *sqlx.DB, optimizer *services.RouteOptimizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req OptimizeRouteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.DriverID == "" || len(req.AssignmentIDs) == 0 {
			utils.RespondError(w, http.StatusBadRequest, "driver_id and a non-empty assignment_ids are required")
			return
		}
		if req.DriverID != userClaims.UserID {
			utils.RespondError(w, http.StatusForbidden, "Cannot optimize another driver's route")
			return
		}

		// Load the driver's assignments in the order they were requested
		query, args, err := sqlx.In(
			`SELECT * FROM delivery_assignments WHERE id IN (?) AND driver_id = ?`,
			req.AssignmentIDs, req.DriverID)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		assignments := []models.DeliveryAssignment{}
		if err := db.Select(&assignments, db.Rebind(query), args...); err != nil {
			log.Printf("❌ Error fetching assignments: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		byID := make(map[string]*models.DeliveryAssignment, len(assignments))
		for i := range assignments {
			byID[assignments[i].ID] = &assignments[i]
		}

		ordered := make([]models.DeliveryAssignment, 0, len(req.AssignmentIDs))
		for _, id := range req.AssignmentIDs {
			if a, ok := byID[id]; ok {
				ordered = append(ordered, *a)
			}
		}
		if len(ordered) == 0 {
			respondServiceError(w, services.ErrAssignmentNotFound)
			return
		}

		if err := attachOrders(db, ordered); err != nil {
			log.Printf("❌ Error attaching orders: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		// Split geocoded stops from the rest
		waypoints := make([]models.Waypoint, 0, len(ordered))
		unrouted := []string{}
		for _, a := range ordered {
			if a.Order != nil && a.Order.DeliveryInfo.HasCoordinates() {
				waypoints = append(waypoints, models.Waypoint{
					ID:        a.ID,
					Latitude:  *a.Order.DeliveryInfo.Latitude,
					Longitude: *a.Order.DeliveryInfo.Longitude,
					Address:   a.Order.DeliveryInfo.Address,
				})
			} else {
				unrouted = append(unrouted, a.ID)
			}
		}

		optimizedWaypoints, stats := optimizer.Optimize(waypoints)

		deliveryOrder := make([]string, 0, len(optimizedWaypoints)+len(unrouted))
		for _, wp := range optimizedWaypoints {
			deliveryOrder = append(deliveryOrder, wp.ID)
		}
		deliveryOrder = append(deliveryOrder, unrouted...)

		optimization := models.RouteOptimization{
			ID:                   uuid.New().String(),
			DriverID:             req.DriverID,
			OptimizationDate:     time.Now().Format("2006-01-02"),
			DeliveryOrder:        deliveryOrder,
			TotalDistanceKm:      stats.DistanceKm,
			TotalDurationMinutes: stats.DurationMinutes,
			Waypoints:            optimizedWaypoints,
			CreatedAt:            time.Now().Unix(),
		}

		_, err = db.Exec(
			`INSERT INTO route_optimizations
			 (id, driver_id, optimization_date, delivery_order, total_distance_km, total_duration_minutes, waypoints, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			optimization.ID, optimization.DriverID, optimization.OptimizationDate,
			optimization.DeliveryOrder, optimization.TotalDistanceKm,
			optimization.TotalDurationMinutes, optimization.Waypoints, optimization.CreatedAt)
		if err != nil {
			log.Printf("❌ Error saving optimization: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		utils.RespondJSON(w, http.StatusOK, OptimizeRouteResponse{
			Success:          true,
			OrderedWaypoints: optimizedWaypoints,
			UnroutedIDs:      unrouted,
			Stats:            stats,
			OptimizationID:   optimization.ID,
		})
	}
}

type MoveStopRequest struct {
	Index     int    `json:"index"`
	Direction string `json:"direction"`
}

// MoveOptimizedStop swaps one stop with its neighbor in a saved optimization's
// advisory order. The assignment rows are never touched; only the snapshot's
// delivery_order changes, so the reordered view survives app restarts.
func MoveOptimizedStop(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		optimizationID := chi.URLParam(r, "id")

		var req MoveStopRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Direction != "up" && req.Direction != "down" {
			utils.RespondError(w, http.StatusBadRequest, "direction must be up or down")
			return
		}

		var optimization models.RouteOptimization
		err := db.Get(&optimization,
			`SELECT * FROM route_optimizations WHERE id = $1 AND driver_id = $2`,
			optimizationID, userClaims.UserID)
		if errors.Is(err, sql.ErrNoRows) {
			utils.RespondError(w, http.StatusNotFound, "route optimization not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		reordered := services.MoveInQueue(optimization.DeliveryOrder, req.Index, req.Direction)
		_, err = db.Exec(
			`UPDATE route_optimizations SET delivery_order = $1 WHERE id = $2`,
			pq.StringArray(reordered), optimizationID)
		if err != nil {
			log.Printf("❌ Error saving reordered route: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		optimization.DeliveryOrder = reordered
		utils.RespondSuccess(w, optimization)
	}
}
