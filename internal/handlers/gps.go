package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Tredoux555/jeffy-delivery/internal/middleware"
	"github.com/Tredoux555/jeffy-delivery/internal/models"
	"github.com/Tredoux555/jeffy-delivery/internal/services"
	"github.com/Tredoux555/jeffy-delivery/internal/websocket"
	"github.com/Tredoux555/jeffy-delivery/pkg/utils"

	"github.com/jmoiron/sqlx"
)

type StartGPSRequest struct {
	NotificationID string `json:"notification_id"`
}

// StartGPS begins the receiver's location sharing for a delivery. Moves the
// notification to gps_active and opens a tracking session the driver can
// follow.
func StartGPS(db *sqlx.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req StartGPSRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NotificationID == "" {
			utils.RespondError(w, http.StatusBadRequest, "notification_id is required")
			return
		}

		var notification models.DeliveryNotification
		err := db.Get(&notification, `SELECT * FROM delivery_notifications WHERE id = $1`, req.NotificationID)
		if errors.Is(err, sql.ErrNoRows) {
			respondServiceError(w, services.ErrNotificationNotFound)
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if notification.ReceiverID != userClaims.UserID {
			utils.RespondError(w, http.StatusForbidden, "Forbidden")
			return
		}

		session, err := services.StartGPSSession(db, notification.ID, notification.DriverID)
		if err != nil {
			respondServiceError(w, err)
			return
		}

		hub.BroadcastToUser(notification.DriverID,
			websocket.Event(websocket.EventNotificationUpdated, map[string]interface{}{
				"notification_id": notification.ID,
				"status":          models.NotificationStatusGPSActive,
				"session_id":      session.ID,
			}))

		utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
			"success": true,
			"session": session,
		})
	}
}

type GPSLocationRequest struct {
	SessionID string   `json:"session_id"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
}

// UpdateGPSLocation records a position report and relays it live to the driver
func UpdateGPSLocation(db *sqlx.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req GPSLocationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
			utils.RespondError(w, http.StatusBadRequest, "session_id, latitude and longitude are required")
			return
		}

		var session models.GPSTrackingSession
		err := db.Get(&session, `SELECT * FROM gps_tracking_sessions WHERE id = $1 AND is_active = TRUE`, req.SessionID)
		if errors.Is(err, sql.ErrNoRows) {
			respondServiceError(w, services.ErrSessionNotFound)
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		var receiverID string
		err = db.Get(&receiverID,
			`SELECT receiver_id FROM delivery_notifications WHERE id = $1`,
			session.DeliveryNotificationID)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if receiverID != userClaims.UserID {
			utils.RespondError(w, http.StatusForbidden, "Forbidden")
			return
		}

		if err := services.RecordGPSLocation(db, req.SessionID, req.Latitude, req.Longitude, req.Accuracy, req.Speed); err != nil {
			respondServiceError(w, err)
			return
		}

		hub.BroadcastToUser(session.DriverID,
			websocket.Event(websocket.EventReceiverLocation, map[string]interface{}{
				"session_id": session.ID,
				"latitude":   req.Latitude,
				"longitude":  req.Longitude,
				"accuracy":   req.Accuracy,
				"speed":      req.Speed,
			}))

		utils.RespondSuccess(w, map[string]string{"status": "recorded"})
	}
}

type StopGPSRequest struct {
	SessionID string `json:"session_id"`
}

// StopGPS ends location sharing at the receiver's request
func StopGPS(db *sqlx.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req StopGPSRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
			utils.RespondError(w, http.StatusBadRequest, "session_id is required")
			return
		}

		var session models.GPSTrackingSession
		err := db.Get(&session, `SELECT * FROM gps_tracking_sessions WHERE id = $1`, req.SessionID)
		if errors.Is(err, sql.ErrNoRows) {
			respondServiceError(w, services.ErrSessionNotFound)
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		var receiverID string
		err = db.Get(&receiverID,
			`SELECT receiver_id FROM delivery_notifications WHERE id = $1`,
			session.DeliveryNotificationID)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if receiverID != userClaims.UserID {
			utils.RespondError(w, http.StatusForbidden, "Forbidden")
			return
		}

		if err := services.StopGPSSession(db, req.SessionID); err != nil {
			respondServiceError(w, err)
			return
		}

		hub.BroadcastToUser(session.DriverID,
			websocket.Event(websocket.EventNotificationUpdated, map[string]interface{}{
				"notification_id": session.DeliveryNotificationID,
				"session_id":      session.ID,
				"gps_stopped":     true,
			}))

		utils.RespondSuccess(w, map[string]string{"status": "stopped"})
	}
}
