package models

// NotificationStatus represents the receiver-facing tracking state
type NotificationStatus string

const (
	NotificationStatusPending        NotificationStatus = "pending"
	NotificationStatusNotified       NotificationStatus = "notified"
	NotificationStatusReadyConfirmed NotificationStatus = "ready_confirmed"
	NotificationStatusGPSActive      NotificationStatus = "gps_active"
	NotificationStatusCompleted      NotificationStatus = "completed"
	NotificationStatusCancelled      NotificationStatus = "cancelled"
)

// IsTerminal reports whether the tracking session has ended
func (s NotificationStatus) IsTerminal() bool {
	return s == NotificationStatusCompleted || s == NotificationStatusCancelled
}

// CanTransitionTo reports whether moving from s to next is legal.
// Normal path: pending -> notified -> ready_confirmed -> gps_active -> completed.
// Completion is allowed from ready_confirmed too (location sharing is optional)
// and cancelled is reachable from any non-terminal state.
func (s NotificationStatus) CanTransitionTo(next NotificationStatus) bool {
	if s.IsTerminal() {
		return false
	}
	switch next {
	case NotificationStatusNotified:
		return s == NotificationStatusPending
	case NotificationStatusReadyConfirmed:
		return s == NotificationStatusNotified
	case NotificationStatusGPSActive:
		return s == NotificationStatusReadyConfirmed
	case NotificationStatusCompleted:
		return s == NotificationStatusReadyConfirmed || s == NotificationStatusGPSActive
	case NotificationStatusCancelled:
		return true
	}
	return false
}

// DeliveryNotification is the receiver-facing tracking session for one order.
// Separate lifecycle from the driver's assignment.
type DeliveryNotification struct {
	ID                      string             `json:"id" db:"id"`
	OrderID                 string             `json:"order_id" db:"order_id"`
	ReceiverID              string             `json:"receiver_id" db:"receiver_id"`
	DriverID                string             `json:"driver_id" db:"driver_id"`
	Status                  NotificationStatus `json:"status" db:"status"`
	QRCode                  *string            `json:"qr_code,omitempty" db:"qr_code"`
	QRGeneratedAt           *int64             `json:"qr_generated_at,omitempty" db:"qr_generated_at"`
	EstimatedArrivalMinutes *int               `json:"estimated_arrival_minutes,omitempty" db:"estimated_arrival_minutes"`
	NotifiedAt              *int64             `json:"notified_at,omitempty" db:"notified_at"`
	ReadyConfirmedAt        *int64             `json:"ready_confirmed_at,omitempty" db:"ready_confirmed_at"`
	GPSActivatedAt          *int64             `json:"gps_activated_at,omitempty" db:"gps_activated_at"`
	CompletedAt             *int64             `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt               int64              `json:"created_at" db:"created_at"`
	UpdatedAt               int64              `json:"updated_at" db:"updated_at"`

	Order *Order `json:"order,omitempty" db:"-"`
}

// GPSTrackingSession is one continuous location-sharing session for a
// notification. Stoppable at any time by the receiver.
type GPSTrackingSession struct {
	ID                     string `json:"id" db:"id"`
	DeliveryNotificationID string `json:"delivery_notification_id" db:"delivery_notification_id"`
	DriverID               string `json:"driver_id" db:"driver_id"`
	IsActive               bool   `json:"is_active" db:"is_active"`
	StartedAt              int64  `json:"started_at" db:"started_at"`
	EndedAt                *int64 `json:"ended_at,omitempty" db:"ended_at"`
}

// GPSLocation is a single reported position within a tracking session
type GPSLocation struct {
	ID        int      `json:"id" db:"id"`
	SessionID string   `json:"session_id" db:"session_id"`
	Latitude  float64  `json:"latitude" db:"latitude"`
	Longitude float64  `json:"longitude" db:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty" db:"accuracy"`
	Speed     *float64 `json:"speed,omitempty" db:"speed"`
	CreatedAt int64    `json:"created_at" db:"created_at"`
}

// DeliveryMessage is a chat message between driver and receiver, scoped to a
// notification
type DeliveryMessage struct {
	ID             string `json:"id" db:"id"`
	NotificationID string `json:"notification_id" db:"notification_id"`
	SenderID       string `json:"sender_id" db:"sender_id"`
	SenderRole     string `json:"sender_role" db:"sender_role"` // "driver" or "receiver"
	Message        string `json:"message" db:"message"`
	CreatedAt      int64  `json:"created_at" db:"created_at"`
}
