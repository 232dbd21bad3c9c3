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
	"github.com/Tredoux555/jeffy-delivery/internal/websocket"
	"github.com/Tredoux555/jeffy-delivery/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
)

// EarningsPerDelivery is the flat driver payout per completed delivery (rand)
const EarningsPerDelivery = 20

// GetAvailableDeliveries lists orders a driver can accept: ready for
// delivery, in an acceptable commerce status and not already claimed.
func GetAvailableDeliveries(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders := []models.Order{}
		err := db.Select(&orders,
			`SELECT o.* FROM orders o
			 WHERE o.ready_for_delivery = TRUE
			   AND o.status IN ('pending', 'confirmed', 'processing')
			   AND NOT EXISTS (
			       SELECT 1 FROM delivery_assignments da
			       WHERE da.order_id = o.id AND da.status NOT IN ('delivered', 'failed'))
			 ORDER BY o.ready_for_delivery_at ASC NULLS LAST`)
		if err != nil {
			log.Printf("❌ Error fetching available deliveries: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		utils.RespondSuccess(w, orders)
	}
}

type AcceptDeliveryRequest struct {
	OrderID string `json:"order_id"`
}

// AcceptDelivery creates an assignment for the authenticated driver
func AcceptDelivery(db *sqlx.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req AcceptDeliveryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
			utils.RespondError(w, http.StatusBadRequest, "order_id is required")
			return
		}

		assignment, err := services.AcceptOrder(db, req.OrderID, userClaims.UserID)
		if err != nil {
			respondServiceError(w, err)
			return
		}

		// The order just left everyone else's available list
		hub.BroadcastToRole("driver", websocket.Event(websocket.EventOrdersChanged, nil))

		utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
			"success":    true,
			"assignment": assignment,
		})
	}
}

// AcceptAllDeliveries claims every currently available order for the driver.
// Races with other drivers are fine: already-claimed orders are skipped.
func AcceptAllDeliveries(db *sqlx.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var orderIDs []string
		err := db.Select(&orderIDs,
			`SELECT o.id FROM orders o
			 WHERE o.ready_for_delivery = TRUE
			   AND o.status IN ('pending', 'confirmed', 'processing')
			   AND NOT EXISTS (
			       SELECT 1 FROM delivery_assignments da
			       WHERE da.order_id = o.id AND da.status NOT IN ('delivered', 'failed'))
			 ORDER BY o.ready_for_delivery_at ASC NULLS LAST`)
		if err != nil {
			log.Printf("❌ Error fetching available deliveries: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		accepted := []models.DeliveryAssignment{}
		for _, orderID := range orderIDs {
			assignment, err := services.AcceptOrder(db, orderID, userClaims.UserID)
			if err != nil {
				// Someone else got there first, or the order changed under us
				log.Printf("⚠️ Skipping order %s: %v", orderID, err)
				continue
			}
			accepted = append(accepted, *assignment)
		}

		if len(accepted) > 0 {
			hub.BroadcastToRole("driver", websocket.Event(websocket.EventOrdersChanged, nil))
		}

		utils.RespondSuccess(w, map[string]interface{}{
			"accepted_count": len(accepted),
			"assignments":    accepted,
		})
	}
}

// attachOrders populates the Order field on each assignment
func attachOrders(db *sqlx.DB, assignments []models.DeliveryAssignment) error {
	if len(assignments) == 0 {
		return nil
	}

	orderIDs := make([]string, 0, len(assignments))
	for _, a := range assignments {
		orderIDs = append(orderIDs, a.OrderID)
	}

	query, args, err := sqlx.In(`SELECT * FROM orders WHERE id IN (?)`, orderIDs)
	if err != nil {
		return err
	}

	orders := []models.Order{}
	if err := db.Select(&orders, db.Rebind(query), args...); err != nil {
		return err
	}

	byID := make(map[string]*models.Order, len(orders))
	for i := range orders {
		byID[orders[i].ID] = &orders[i]
	}
	for i := range assignments {
		assignments[i].Order = byID[assignments[i].OrderID]
	}
	return nil
}

// GetDeliveryQueue returns the driver's active assignments. When an
// optimization_id query parameter references one of the driver's saved
// optimizations, the queue is sorted to match its advisory order.
func GetDeliveryQueue(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		assignments := []models.DeliveryAssignment{}
		err := db.Select(&assignments,
			`SELECT * FROM delivery_assignments
			 WHERE driver_id = $1 AND status IN ('assigned', 'picked_up', 'in_transit')
			 ORDER BY assigned_at DESC`, userClaims.UserID)
		if err != nil {
			log.Printf("❌ Error fetching queue: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		var optimization *models.RouteOptimization
		if optimizationID := r.URL.Query().Get("optimization_id"); optimizationID != "" {
			var opt models.RouteOptimization
			err := db.Get(&opt,
				`SELECT * FROM route_optimizations WHERE id = $1 AND driver_id = $2`,
				optimizationID, userClaims.UserID)
			if err == nil {
				optimization = &opt
				assignments = services.SortByOptimizedOrder(assignments, opt.DeliveryOrder)
			} else if !errors.Is(err, sql.ErrNoRows) {
				log.Printf("❌ Error fetching optimization: %v", err)
			}
		}

		if err := attachOrders(db, assignments); err != nil {
			log.Printf("❌ Error attaching orders: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		utils.RespondSuccess(w, map[string]interface{}{
			"assignments":  assignments,
			"optimization": optimization,
		})
	}
}

// startOfDay returns midnight of t's calendar day in t's own location.
// Truncate would give UTC midnight, which is the previous evening here.
func startOfDay(t time.Time) int64 {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location()).Unix()
}

// GetDeliveryHistory returns completed deliveries plus today's stats
func GetDeliveryHistory(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		assignments := []models.DeliveryAssignment{}
		err := db.Select(&assignments,
			`SELECT * FROM delivery_assignments
			 WHERE driver_id = $1 AND status IN ('delivered', 'failed')
			 ORDER BY updated_at DESC LIMIT 100`, userClaims.UserID)
		if err != nil {
			log.Printf("❌ Error fetching history: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if err := attachOrders(db, assignments); err != nil {
			log.Printf("❌ Error attaching orders: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		midnight := startOfDay(time.Now())
		var completedToday int
		err = db.Get(&completedToday,
			`SELECT COUNT(*) FROM delivery_assignments
			 WHERE driver_id = $1 AND status = 'delivered' AND delivered_at >= $2`,
			userClaims.UserID, midnight)
		if err != nil {
			log.Printf("❌ Error counting completions: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		utils.RespondSuccess(w, map[string]interface{}{
			"assignments":     assignments,
			"completed_today": completedToday,
			"earnings_today":  completedToday * EarningsPerDelivery,
		})
	}
}

// GetAssignmentUpdates returns the append-only audit trail for an assignment
func GetAssignmentUpdates(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		assignmentID := chi.URLParam(r, "id")

		var ownerID string
		err := db.Get(&ownerID, `SELECT driver_id FROM delivery_assignments WHERE id = $1`, assignmentID)
		if errors.Is(err, sql.ErrNoRows) {
			respondServiceError(w, services.ErrAssignmentNotFound)
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if ownerID != userClaims.UserID && userClaims.Role != "admin" {
			utils.RespondError(w, http.StatusForbidden, "Forbidden")
			return
		}

		updates, err := services.GetStatusHistory(db, assignmentID)
		if err != nil {
			log.Printf("❌ Error fetching status history: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		utils.RespondSuccess(w, updates)
	}
}

type ScanRequest struct {
	Payload string `json:"payload"`
}

// ScanQR routes a scanned QR payload to the correct state machine: order
// codes drive the assignment lifecycle, JEFFY- proof tokens complete the
// receiver's notification.
func ScanQR(db *sqlx.DB, hub *websocket.Hub, fcm *services.FCMService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req ScanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Payload == "" {
			utils.RespondError(w, http.StatusBadRequest, "payload is required")
			return
		}

		kind, value := services.ClassifyQRPayload(req.Payload)
		switch kind {
		case services.QRPayloadOrder:
			result, err := services.ProcessOrderScan(db, value, userClaims.UserID)
			if err != nil {
				respondServiceError(w, err)
				return
			}

			hub.BroadcastToUser(userClaims.UserID,
				websocket.Event(websocket.EventAssignmentUpdated, result.Assignment))
			if result.Created || result.NewStatus == models.AssignmentStatusDelivered {
				hub.BroadcastToRole("driver", websocket.Event(websocket.EventOrdersChanged, nil))
			}

			message := "Order accepted. Scan again at pickup."
			switch result.NewStatus {
			case models.AssignmentStatusPickedUp:
				message = "Order picked up successfully! You can now deliver it."
			case models.AssignmentStatusDelivered:
				message = "Delivery completed! R20 added to your earnings."
			}

			utils.RespondSuccess(w, map[string]interface{}{
				"scan_type":  "order",
				"status":     result.NewStatus,
				"assignment": result.Assignment,
				"message":    message,
			})

		case services.QRPayloadProofToken:
			notification, err := services.CompleteByProofToken(db, value, userClaims.UserID)
			if err != nil {
				respondServiceError(w, err)
				return
			}

			hub.BroadcastToUser(notification.ReceiverID,
				websocket.Event(websocket.EventNotificationUpdated, notification))
			notifyReceiverCompleted(db, fcm, notification)

			utils.RespondSuccess(w, map[string]interface{}{
				"scan_type":    "proof_token",
				"status":       notification.Status,
				"notification": notification,
				"message":      "Proof of delivery confirmed.",
			})

		default:
			utils.RespondError(w, http.StatusBadRequest, "Invalid QR code. Please scan the order QR code.")
		}
	}
}

type UpdateStatusRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes,omitempty"`
}

// UpdateDeliveryStatus applies an explicit status action to an assignment
func UpdateDeliveryStatus(db *sqlx.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		assignmentID := chi.URLParam(r, "id")

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		next := models.AssignmentStatus(req.Status)
		switch next {
		case models.AssignmentStatusPickedUp, models.AssignmentStatusInTransit,
			models.AssignmentStatusDelivered, models.AssignmentStatusFailed:
		default:
			utils.RespondError(w, http.StatusBadRequest, "status must be one of picked_up, in_transit, delivered, failed")
			return
		}

		assignment, err := services.UpdateAssignmentStatus(db, assignmentID, userClaims.UserID, next, req.Notes)
		if err != nil {
			respondServiceError(w, err)
			return
		}

		hub.BroadcastToUser(userClaims.UserID,
			websocket.Event(websocket.EventAssignmentUpdated, assignment))
		if next == models.AssignmentStatusDelivered || next == models.AssignmentStatusFailed {
			hub.BroadcastToRole("driver", websocket.Event(websocket.EventOrdersChanged, nil))
		}

		utils.RespondSuccess(w, assignment)
	}
}
