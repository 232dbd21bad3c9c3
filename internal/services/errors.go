package services

import "errors"

// Conflict and not-found errors surfaced by the assignment and notification
// state machines. Handlers map these to specific HTTP responses so the app
// can show an actionable message instead of a generic failure.
var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderNotReady         = errors.New("order is not ready for delivery")
	ErrOrderCancelled        = errors.New("order has been cancelled")
	ErrOrderAlreadyDelivered = errors.New("order has already been delivered")
	ErrOrderInvalidStatus    = errors.New("order status does not allow delivery")

	ErrAssignedToOtherDriver = errors.New("order is already assigned to another driver")
	ErrAlreadyAccepted       = errors.New("you have already accepted this order")
	ErrAssignmentNotFound    = errors.New("delivery assignment not found")
	ErrAlreadyProcessed      = errors.New("this order has already been processed")
	ErrInvalidTransition     = errors.New("status transition not permitted from current state")

	ErrNotificationNotFound = errors.New("delivery notification not found")
	ErrInvalidProofToken    = errors.New("invalid proof-of-delivery code")
	ErrSessionNotFound      = errors.New("gps tracking session not found")
)
