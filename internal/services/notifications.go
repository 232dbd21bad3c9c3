package services

import (
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Tredoux555/jeffy-delivery/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// DefaultEstimatedMinutes is used when the driver doesn't supply an arrival
// estimate
const DefaultEstimatedMinutes = 30

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateProofToken builds a proof-of-delivery QR token: fixed prefix, the
// current millisecond timestamp and 12 random alphanumerics. Uniqueness is
// probabilistic; the qr_code UNIQUE constraint is the backstop.
func GenerateProofToken() string {
	buf := make([]byte, 12)
	rand.Read(buf)
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return fmt.Sprintf("%s%d-%s", ProofTokenPrefix, time.Now().UnixMilli(), buf)
}

// ActivationResult bundles everything created by a delivery activation
type ActivationResult struct {
	Notification *models.DeliveryNotification
	Receiver     *models.ReceiverUser
	QRCode       string
}

// lookupOrCreateReceiver resolves a receiver account by phone number,
// creating one from the order's delivery info on first contact. A concurrent
// create for the same phone loses on the UNIQUE constraint and is resolved by
// re-reading the winner's row.
func lookupOrCreateReceiver(db *sqlx.DB, info models.DeliveryInfo) (*models.ReceiverUser, error) {
	var receiver models.ReceiverUser
	err := db.Get(&receiver, `SELECT * FROM receiver_users WHERE phone = $1`, info.Phone)
	if err == nil {
		return &receiver, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	now := time.Now().Unix()
	receiver = models.ReceiverUser{
		ID:        uuid.New().String(),
		Phone:     info.Phone,
		Name:      info.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if info.Email != "" {
		receiver.Email = &info.Email
	}

	_, err = db.Exec(
		`INSERT INTO receiver_users (id, phone, name, email, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		receiver.ID, receiver.Phone, receiver.Name, receiver.Email, receiver.CreatedAt, receiver.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			// Lost the phone-number race; the existing row wins
			if getErr := db.Get(&receiver, `SELECT * FROM receiver_users WHERE phone = $1`, info.Phone); getErr == nil {
				return &receiver, nil
			}
		}
		return nil, err
	}

	log.Printf("👤 Created receiver account for %s", info.Phone)
	return &receiver, nil
}

// ActivateDelivery notifies the receiver of an accepted order: resolves the
// receiver account by phone, generates a fresh proof-of-delivery QR token and
// creates the notification in status 'notified' with an arrival estimate.
func ActivateDelivery(db *sqlx.DB, orderID, driverID string, estimatedMinutes int) (*ActivationResult, error) {
	var order models.Order
	if err := db.Get(&order, `SELECT * FROM orders WHERE id = $1`, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	receiver, err := lookupOrCreateReceiver(db, order.DeliveryInfo)
	if err != nil {
		return nil, err
	}

	if estimatedMinutes <= 0 {
		estimatedMinutes = DefaultEstimatedMinutes
	}

	qrCode := GenerateProofToken()
	now := time.Now().Unix()
	notification := models.DeliveryNotification{
		ID:                      uuid.New().String(),
		OrderID:                 orderID,
		ReceiverID:              receiver.ID,
		DriverID:                driverID,
		Status:                  models.NotificationStatusNotified,
		QRCode:                  &qrCode,
		QRGeneratedAt:           &now,
		EstimatedArrivalMinutes: &estimatedMinutes,
		NotifiedAt:              &now,
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	_, err = db.Exec(
		`INSERT INTO delivery_notifications
		 (id, order_id, receiver_id, driver_id, status, qr_code, qr_generated_at,
		  estimated_arrival_minutes, notified_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		notification.ID, notification.OrderID, notification.ReceiverID, notification.DriverID,
		notification.Status, notification.QRCode, notification.QRGeneratedAt,
		notification.EstimatedArrivalMinutes, notification.NotifiedAt,
		notification.CreatedAt, notification.UpdatedAt)
	if err != nil {
		return nil, err
	}

	log.Printf("🔔 Delivery activated for order %s (receiver %s, ETA %d min)", orderID, receiver.ID, estimatedMinutes)
	return &ActivationResult{Notification: &notification, Receiver: receiver, QRCode: qrCode}, nil
}

// advanceNotification validates and applies a notification transition,
// stamping the matching timestamp column.
func advanceNotification(db *sqlx.DB, notificationID string, next models.NotificationStatus, timestampColumn string) (*models.DeliveryNotification, error) {
	var notification models.DeliveryNotification
	err := db.Get(&notification, `SELECT * FROM delivery_notifications WHERE id = $1`, notificationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, err
	}

	if notification.Status.IsTerminal() {
		return nil, ErrAlreadyProcessed
	}
	if !notification.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}

	now := time.Now().Unix()
	query := fmt.Sprintf(
		`UPDATE delivery_notifications SET status = $1, %s = $2, updated_at = $2 WHERE id = $3`,
		timestampColumn)
	if _, err := db.Exec(query, next, now, notification.ID); err != nil {
		return nil, err
	}

	notification.Status = next
	notification.UpdatedAt = now
	log.Printf("🔔 Notification %s: %s", notification.ID, next)
	return &notification, nil
}

// ConfirmReady records the receiver's "ready for delivery" confirmation
func ConfirmReady(db *sqlx.DB, notificationID string) (*models.DeliveryNotification, error) {
	return advanceNotification(db, notificationID, models.NotificationStatusReadyConfirmed, "ready_confirmed_at")
}

// CancelNotification cancels a non-terminal tracking session
func CancelNotification(db *sqlx.DB, notificationID string) (*models.DeliveryNotification, error) {
	return advanceNotification(db, notificationID, models.NotificationStatusCancelled, "completed_at")
}

// StartGPSSession moves the notification to gps_active and opens a tracking
// session for continuous location updates.
func StartGPSSession(db *sqlx.DB, notificationID, driverID string) (*models.GPSTrackingSession, error) {
	if _, err := advanceNotification(db, notificationID, models.NotificationStatusGPSActive, "gps_activated_at"); err != nil {
		return nil, err
	}

	session := models.GPSTrackingSession{
		ID:                     uuid.New().String(),
		DeliveryNotificationID: notificationID,
		DriverID:               driverID,
		IsActive:               true,
		StartedAt:              time.Now().Unix(),
	}
	_, err := db.Exec(
		`INSERT INTO gps_tracking_sessions (id, delivery_notification_id, driver_id, is_active, started_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		session.ID, session.DeliveryNotificationID, session.DriverID, session.IsActive, session.StartedAt)
	if err != nil {
		return nil, err
	}

	return &session, nil
}

// RecordGPSLocation appends a position report to an active tracking session
func RecordGPSLocation(db *sqlx.DB, sessionID string, latitude, longitude float64, accuracy, speed *float64) error {
	var session models.GPSTrackingSession
	err := db.Get(&session, `SELECT * FROM gps_tracking_sessions WHERE id = $1 AND is_active = TRUE`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}

	_, err = db.Exec(
		`INSERT INTO gps_locations (session_id, latitude, longitude, accuracy, speed, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sessionID, latitude, longitude, accuracy, speed, time.Now().Unix())
	return err
}

// StopGPSSession ends location sharing immediately. No further position
// reports are accepted for the session.
func StopGPSSession(db *sqlx.DB, sessionID string) error {
	result, err := db.Exec(
		`UPDATE gps_tracking_sessions SET is_active = FALSE, ended_at = $1 WHERE id = $2 AND is_active = TRUE`,
		time.Now().Unix(), sessionID)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// CompleteByProofToken finishes a delivery from the driver's scan of the
// receiver's proof-of-delivery QR. Closes any active tracking session.
func CompleteByProofToken(db *sqlx.DB, token, driverID string) (*models.DeliveryNotification, error) {
	var notification models.DeliveryNotification
	err := db.Get(&notification,
		`SELECT * FROM delivery_notifications WHERE qr_code = $1 AND driver_id = $2`,
		token, driverID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidProofToken
	}
	if err != nil {
		return nil, err
	}

	if notification.Status.IsTerminal() {
		return nil, ErrAlreadyProcessed
	}
	if !notification.Status.CanTransitionTo(models.NotificationStatusCompleted) {
		return nil, ErrInvalidTransition
	}

	now := time.Now().Unix()
	tx, err := db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE delivery_notifications SET status = $1, completed_at = $2, updated_at = $2 WHERE id = $3`,
		models.NotificationStatusCompleted, now, notification.ID)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(
		`UPDATE gps_tracking_sessions SET is_active = FALSE, ended_at = $1
		 WHERE delivery_notification_id = $2 AND is_active = TRUE`,
		now, notification.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	notification.Status = models.NotificationStatusCompleted
	notification.CompletedAt = &now
	notification.UpdatedAt = now
	log.Printf("✅ Proof-of-delivery confirmed for notification %s", notification.ID)
	return &notification, nil
}
