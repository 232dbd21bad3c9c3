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
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// getFCMTokens returns all registered push tokens for a user
func getFCMTokens(db *sqlx.DB, userID string) []string {
	tokens := []string{}
	if err := db.Select(&tokens, `SELECT token FROM fcm_tokens WHERE user_id = $1`, userID); err != nil {
		log.Printf("⚠️ Failed to load FCM tokens for %s: %v", userID, err)
	}
	return tokens
}

func notifyReceiverActivated(db *sqlx.DB, fcm *services.FCMService, notification *models.DeliveryNotification) {
	if fcm == nil || notification.EstimatedArrivalMinutes == nil {
		return
	}
	for _, token := range getFCMTokens(db, notification.ReceiverID) {
		if err := fcm.SendDeliveryActivatedNotification(token, notification.ID, *notification.EstimatedArrivalMinutes); err != nil {
			log.Printf("⚠️ FCM push failed: %v", err)
		}
	}
}

func notifyReceiverCompleted(db *sqlx.DB, fcm *services.FCMService, notification *models.DeliveryNotification) {
	if fcm == nil {
		return
	}
	for _, token := range getFCMTokens(db, notification.ReceiverID) {
		if err := fcm.SendDeliveryCompletedNotification(token, notification.ID); err != nil {
			log.Printf("⚠️ FCM push failed: %v", err)
		}
	}
}

type ActivateDeliveryRequest struct {
	OrderID          string `json:"order_id"`
	DriverID         string `json:"driver_id"`
	EstimatedMinutes int    `json:"estimated_minutes,omitempty"`
}

// ActivateDelivery notifies the receiver their order is out for delivery:
// creates/reuses the receiver account, issues the proof-of-delivery QR and
// opens the tracking session in status 'notified'.
func ActivateDelivery(db *sqlx.DB, hub *websocket.Hub, fcm *services.FCMService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req ActivateDeliveryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.OrderID == "" || req.DriverID == "" {
			utils.RespondError(w, http.StatusBadRequest, "order_id and driver_id are required")
			return
		}
		if req.DriverID != userClaims.UserID {
			utils.RespondError(w, http.StatusForbidden, "Cannot activate a delivery for another driver")
			return
		}

		result, err := services.ActivateDelivery(db, req.OrderID, req.DriverID, req.EstimatedMinutes)
		if err != nil {
			respondServiceError(w, err)
			return
		}

		hub.BroadcastToUser(result.Receiver.ID,
			websocket.Event(websocket.EventNotificationUpdated, result.Notification))
		notifyReceiverActivated(db, fcm, result.Notification)

		utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
			"success":      true,
			"notification": result.Notification,
			"receiver":     result.Receiver,
			"qr_code":      result.QRCode,
		})
	}
}

// GetReceiverNotifications lists the authenticated receiver's in-flight
// tracking sessions, newest first.
func GetReceiverNotifications(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		notifications := []models.DeliveryNotification{}
		err := db.Select(&notifications,
			`SELECT * FROM delivery_notifications
			 WHERE receiver_id = $1 AND status IN ('notified', 'ready_confirmed', 'gps_active')
			 ORDER BY created_at DESC`, userClaims.UserID)
		if err != nil {
			log.Printf("❌ Error fetching notifications: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		utils.RespondSuccess(w, notifications)
	}
}

// GetNotification returns a single notification for either party
func GetNotification(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		notificationID := chi.URLParam(r, "id")

		var notification models.DeliveryNotification
		err := db.Get(&notification, `SELECT * FROM delivery_notifications WHERE id = $1`, notificationID)
		if errors.Is(err, sql.ErrNoRows) {
			respondServiceError(w, services.ErrNotificationNotFound)
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if notification.ReceiverID != userClaims.UserID && notification.DriverID != userClaims.UserID {
			utils.RespondError(w, http.StatusForbidden, "Forbidden")
			return
		}

		utils.RespondSuccess(w, notification)
	}
}

// ConfirmReady records the receiver's "ready for delivery" confirmation
func ConfirmReady(db *sqlx.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		notificationID := chi.URLParam(r, "id")

		// Ownership first: only this notification's receiver may advance it
		var existing models.DeliveryNotification
		err := db.Get(&existing, `SELECT * FROM delivery_notifications WHERE id = $1`, notificationID)
		if errors.Is(err, sql.ErrNoRows) {
			respondServiceError(w, services.ErrNotificationNotFound)
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if existing.ReceiverID != userClaims.UserID {
			utils.RespondError(w, http.StatusForbidden, "Forbidden")
			return
		}

		notification, err := services.ConfirmReady(db, notificationID)
		if err != nil {
			respondServiceError(w, err)
			return
		}

		hub.BroadcastToUser(notification.DriverID,
			websocket.Event(websocket.EventNotificationUpdated, notification))

		utils.RespondSuccess(w, notification)
	}
}

// CancelNotification cancels a non-terminal tracking session
func CancelNotification(db *sqlx.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		notificationID := chi.URLParam(r, "id")

		// Ownership first: only this notification's receiver may cancel it
		var existing models.DeliveryNotification
		err := db.Get(&existing, `SELECT * FROM delivery_notifications WHERE id = $1`, notificationID)
		if errors.Is(err, sql.ErrNoRows) {
			respondServiceError(w, services.ErrNotificationNotFound)
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if existing.ReceiverID != userClaims.UserID {
			utils.RespondError(w, http.StatusForbidden, "Forbidden")
			return
		}

		notification, err := services.CancelNotification(db, notificationID)
		if err != nil {
			respondServiceError(w, err)
			return
		}

		hub.BroadcastToUser(notification.DriverID,
			websocket.Event(websocket.EventNotificationUpdated, notification))

		utils.RespondSuccess(w, notification)
	}
}

// GetMessages returns the chat history for a notification, oldest first
func GetMessages(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		notificationID := chi.URLParam(r, "id")

		var notification models.DeliveryNotification
		err := db.Get(&notification, `SELECT * FROM delivery_notifications WHERE id = $1`, notificationID)
		if errors.Is(err, sql.ErrNoRows) {
			respondServiceError(w, services.ErrNotificationNotFound)
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if notification.ReceiverID != userClaims.UserID && notification.DriverID != userClaims.UserID {
			utils.RespondError(w, http.StatusForbidden, "Forbidden")
			return
		}

		messages := []models.DeliveryMessage{}
		err = db.Select(&messages,
			`SELECT * FROM delivery_messages WHERE notification_id = $1 ORDER BY created_at ASC, id ASC`,
			notificationID)
		if err != nil {
			log.Printf("❌ Error fetching messages: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		utils.RespondSuccess(w, messages)
	}
}

type SendMessageRequest struct {
	Message string `json:"message"`
}

// SendMessage posts a chat message and pushes it to the other party
func SendMessage(db *sqlx.DB, hub *websocket.Hub, fcm *services.FCMService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		notificationID := chi.URLParam(r, "id")

		var req SendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
			utils.RespondError(w, http.StatusBadRequest, "message is required")
			return
		}

		var notification models.DeliveryNotification
		err := db.Get(&notification, `SELECT * FROM delivery_notifications WHERE id = $1`, notificationID)
		if errors.Is(err, sql.ErrNoRows) {
			respondServiceError(w, services.ErrNotificationNotFound)
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		var senderRole, recipientID string
		switch userClaims.UserID {
		case notification.DriverID:
			senderRole = "driver"
			recipientID = notification.ReceiverID
		case notification.ReceiverID:
			senderRole = "receiver"
			recipientID = notification.DriverID
		default:
			utils.RespondError(w, http.StatusForbidden, "Forbidden")
			return
		}

		message := models.DeliveryMessage{
			ID:             uuid.New().String(),
			NotificationID: notificationID,
			SenderID:       userClaims.UserID,
			SenderRole:     senderRole,
			Message:        req.Message,
			CreatedAt:      time.Now().Unix(),
		}
		_, err = db.Exec(
			`INSERT INTO delivery_messages (id, notification_id, sender_id, sender_role, message, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			message.ID, message.NotificationID, message.SenderID, message.SenderRole,
			message.Message, message.CreatedAt)
		if err != nil {
			log.Printf("❌ Error saving message: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		hub.BroadcastToUser(recipientID, websocket.Event(websocket.EventChatMessage, message))

		if fcm != nil {
			preview := req.Message
			if len(preview) > 80 {
				preview = preview[:77] + "..."
			}
			for _, token := range getFCMTokens(db, recipientID) {
				if err := fcm.SendChatMessageNotification(token, notificationID, userClaims.Email, preview); err != nil {
					log.Printf("⚠️ FCM push failed: %v", err)
				}
			}
		}

		utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
			"success": true,
			"data":    message,
		})
	}
}
