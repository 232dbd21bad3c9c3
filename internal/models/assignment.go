package models

// AssignmentStatus represents the lifecycle state of a delivery assignment
type AssignmentStatus string

const (
	AssignmentStatusAssigned  AssignmentStatus = "assigned"
	AssignmentStatusPickedUp  AssignmentStatus = "picked_up"
	AssignmentStatusInTransit AssignmentStatus = "in_transit"
	AssignmentStatusDelivered AssignmentStatus = "delivered"
	AssignmentStatusFailed    AssignmentStatus = "failed"
)

// IsTerminal reports whether no further transitions are allowed
func (s AssignmentStatus) IsTerminal() bool {
	return s == AssignmentStatusDelivered || s == AssignmentStatusFailed
}

// CanTransitionTo reports whether moving from s to next is a legal transition.
// Normal path: assigned -> picked_up -> in_transit -> delivered.
// in_transit is optional (picked_up may go straight to delivered) and
// failed is reachable from any non-terminal state.
func (s AssignmentStatus) CanTransitionTo(next AssignmentStatus) bool {
	if s.IsTerminal() {
		return false
	}
	switch next {
	case AssignmentStatusPickedUp:
		return s == AssignmentStatusAssigned
	case AssignmentStatusInTransit:
		return s == AssignmentStatusPickedUp || s == AssignmentStatusInTransit
	case AssignmentStatusDelivered:
		return s == AssignmentStatusPickedUp || s == AssignmentStatusInTransit
	case AssignmentStatusFailed:
		return true
	}
	return false
}

// NextScanStatus returns the status a QR scan advances this assignment to.
// First scan picks the order up, the next scan delivers it. Terminal states
// return false - the order has already been processed.
func (s AssignmentStatus) NextScanStatus() (AssignmentStatus, bool) {
	switch s {
	case AssignmentStatusAssigned:
		return AssignmentStatusPickedUp, true
	case AssignmentStatusPickedUp, AssignmentStatusInTransit:
		return AssignmentStatusDelivered, true
	}
	return "", false
}

// DeliveryAssignment binds one order to one driver for fulfillment
type DeliveryAssignment struct {
	ID                   string           `json:"id" db:"id"`
	OrderID              string           `json:"order_id" db:"order_id"`
	DriverID             string           `json:"driver_id" db:"driver_id"`
	Status               AssignmentStatus `json:"status" db:"status"`
	AssignedAt           int64            `json:"assigned_at" db:"assigned_at"`
	PickedUpAt           *int64           `json:"picked_up_at,omitempty" db:"picked_up_at"`
	DeliveredAt          *int64           `json:"delivered_at,omitempty" db:"delivered_at"`
	DeliveryNotes        *string          `json:"delivery_notes,omitempty" db:"delivery_notes"`
	DeliveryPhotoURL     *string          `json:"delivery_photo_url,omitempty" db:"delivery_photo_url"`
	CustomerSignatureURL *string          `json:"customer_signature_url,omitempty" db:"customer_signature_url"`
	CreatedAt            int64            `json:"created_at" db:"created_at"`
	UpdatedAt            int64            `json:"updated_at" db:"updated_at"`

	// Joined order, populated by queue/history queries
	Order *Order `json:"order,omitempty" db:"-"`
}

// DeliveryStatusUpdate is the append-only audit record written for every
// accepted assignment transition. Rows are never mutated after insert.
type DeliveryStatusUpdate struct {
	ID           string   `json:"id" db:"id"`
	AssignmentID string   `json:"assignment_id" db:"assignment_id"`
	Status       string   `json:"status" db:"status"`
	Latitude     *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude    *float64 `json:"longitude,omitempty" db:"longitude"`
	Notes        *string  `json:"notes,omitempty" db:"notes"`
	UpdatedBy    string   `json:"updated_by" db:"updated_by"` // "driver", "admin" or "system"
	CreatedAt    int64    `json:"created_at" db:"created_at"`
}
