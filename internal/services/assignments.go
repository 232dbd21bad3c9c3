package services

import (
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/Tredoux555/jeffy-delivery/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ScanResult describes what a QR scan did to an assignment
type ScanResult struct {
	Assignment *models.DeliveryAssignment
	NewStatus  models.AssignmentStatus
	// Created is true when the scan created a fresh assignment instead of
	// advancing an existing one
	Created bool
}

// validateOrderForDelivery checks that an order can still enter the delivery
// flow, returning a distinguishable error for each rejection reason.
func validateOrderForDelivery(order *models.Order) error {
	switch {
	case order.Status == models.OrderStatusCancelled:
		return ErrOrderCancelled
	case order.Status == models.OrderStatusDelivered:
		return ErrOrderAlreadyDelivered
	case !order.Status.IsAcceptable():
		return ErrOrderInvalidStatus
	case !order.ReadyForDelivery:
		return ErrOrderNotReady
	}
	return nil
}

// AcceptOrder creates a delivery assignment binding an available order to a
// driver. Assignment is first-writer-wins: the pre-check produces the specific
// conflict message, and the partial unique index on non-terminal assignments
// catches the race when two drivers accept near-simultaneously.
func AcceptOrder(db *sqlx.DB, orderID, driverID string) (*models.DeliveryAssignment, error) {
	var order models.Order
	if err := db.Get(&order, `SELECT * FROM orders WHERE id = $1`, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if err := validateOrderForDelivery(&order); err != nil {
		return nil, err
	}

	// Pre-check for an existing non-terminal assignment
	var existing models.DeliveryAssignment
	err := db.Get(&existing,
		`SELECT * FROM delivery_assignments
		 WHERE order_id = $1 AND status NOT IN ('delivered', 'failed')
		 LIMIT 1`, orderID)
	if err == nil {
		if existing.DriverID == driverID {
			return nil, ErrAlreadyAccepted
		}
		return nil, ErrAssignedToOtherDriver
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	now := time.Now().Unix()
	assignment := models.DeliveryAssignment{
		ID:         uuid.New().String(),
		OrderID:    orderID,
		DriverID:   driverID,
		Status:     models.AssignmentStatusAssigned,
		AssignedAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	tx, err := db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO delivery_assignments (id, order_id, driver_id, status, assigned_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		assignment.ID, assignment.OrderID, assignment.DriverID, assignment.Status,
		assignment.AssignedAt, assignment.CreatedAt, assignment.UpdatedAt)
	if err != nil {
		// Unique-violation on the partial index means another driver won the race
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrAssignedToOtherDriver
		}
		return nil, err
	}

	if err := appendStatusUpdate(tx, assignment.ID, string(assignment.Status), "driver", nil); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Printf("✅ Order %s assigned to driver %s", orderID, driverID)
	return &assignment, nil
}

// ProcessOrderScan handles a driver scanning an order QR code.
//
// No assignment yet: the scan accepts the order (subject to the same
// validation as an explicit accept). First scan after assignment: picked up.
// Second scan: delivered, which also flips the commerce order to delivered.
// Terminal assignments reject the scan as already processed.
func ProcessOrderScan(db *sqlx.DB, orderID, driverID string) (*ScanResult, error) {
	var assignment models.DeliveryAssignment
	err := db.Get(&assignment,
		`SELECT * FROM delivery_assignments WHERE order_id = $1 AND driver_id = $2
		 ORDER BY created_at DESC LIMIT 1`, orderID, driverID)
	if errors.Is(err, sql.ErrNoRows) {
		created, acceptErr := AcceptOrder(db, orderID, driverID)
		if acceptErr != nil {
			return nil, acceptErr
		}
		return &ScanResult{Assignment: created, NewStatus: created.Status, Created: true}, nil
	}
	if err != nil {
		return nil, err
	}

	next, ok := assignment.Status.NextScanStatus()
	if !ok {
		return nil, ErrAlreadyProcessed
	}

	if err := applyTransition(db, &assignment, next, "driver", nil); err != nil {
		return nil, err
	}

	return &ScanResult{Assignment: &assignment, NewStatus: next}, nil
}

// UpdateAssignmentStatus applies an explicit status action ("mark picked up",
// "mark in transit", "mark delivered", "mark failed") for the owning driver.
func UpdateAssignmentStatus(db *sqlx.DB, assignmentID, driverID string, next models.AssignmentStatus, notes *string) (*models.DeliveryAssignment, error) {
	var assignment models.DeliveryAssignment
	err := db.Get(&assignment,
		`SELECT * FROM delivery_assignments WHERE id = $1 AND driver_id = $2`,
		assignmentID, driverID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAssignmentNotFound
	}
	if err != nil {
		return nil, err
	}

	if assignment.Status.IsTerminal() {
		return nil, ErrAlreadyProcessed
	}
	if !assignment.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}

	if err := applyTransition(db, &assignment, next, "driver", notes); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// applyTransition mutates the assignment row, syncs the order on delivery and
// appends the audit record, all in one transaction.
func applyTransition(db *sqlx.DB, assignment *models.DeliveryAssignment, next models.AssignmentStatus, updatedBy string, notes *string) error {
	now := time.Now().Unix()

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	switch next {
	case models.AssignmentStatusPickedUp:
		_, err = tx.Exec(
			`UPDATE delivery_assignments SET status = $1, picked_up_at = $2, updated_at = $2 WHERE id = $3`,
			next, now, assignment.ID)
		assignment.PickedUpAt = &now
	case models.AssignmentStatusDelivered:
		_, err = tx.Exec(
			`UPDATE delivery_assignments SET status = $1, delivered_at = $2, updated_at = $2 WHERE id = $3`,
			next, now, assignment.ID)
		assignment.DeliveredAt = &now
	default:
		_, err = tx.Exec(
			`UPDATE delivery_assignments SET status = $1, updated_at = $2 WHERE id = $3`,
			next, now, assignment.ID)
	}
	if err != nil {
		return err
	}

	if next == models.AssignmentStatusDelivered {
		if _, err := tx.Exec(`UPDATE orders SET status = 'delivered' WHERE id = $1`, assignment.OrderID); err != nil {
			return err
		}
	}

	if err := appendStatusUpdate(tx, assignment.ID, string(next), updatedBy, notes); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	assignment.Status = next
	assignment.UpdatedAt = now
	log.Printf("📦 Assignment %s: %s", assignment.ID, next)
	return nil
}

// appendStatusUpdate writes one immutable audit row for a transition
func appendStatusUpdate(tx *sqlx.Tx, assignmentID, status, updatedBy string, notes *string) error {
	_, err := tx.Exec(
		`INSERT INTO delivery_status_updates (id, assignment_id, status, updated_by, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New().String(), assignmentID, status, updatedBy, notes, time.Now().Unix())
	return err
}

// GetStatusHistory returns the audit trail for an assignment, oldest first
func GetStatusHistory(db *sqlx.DB, assignmentID string) ([]models.DeliveryStatusUpdate, error) {
	updates := []models.DeliveryStatusUpdate{}
	err := db.Select(&updates,
		`SELECT * FROM delivery_status_updates WHERE assignment_id = $1 ORDER BY created_at ASC, id ASC`,
		assignmentID)
	return updates, err
}
