package services

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/Tredoux555/jeffy-delivery/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

var (
	assignmentCols = []string{"id", "order_id", "driver_id", "status", "assigned_at", "created_at", "updated_at"}
	orderCols      = []string{"id", "user_email", "items", "total", "status", "delivery_info", "ready_for_delivery", "created_at"}
)

// Walks an order through the full scan lifecycle: first scan accepts, second
// picks up, third delivers (and flips the commerce order), fourth is rejected.
// Every accepted transition must append exactly one audit row carrying the new
// status - the ordered expectations make any extra or missing write fail the
// test.
func TestOrderScanLifecycle(t *testing.T) {
	db, mock := newMockDB(t)

	orderID := "order-1"
	driverID := "driver-1"
	deliveryInfo := []byte(`{"name":"Thandi M","phone":"+27821110001","address":"12 Long St"}`)

	// Scan 1: no assignment yet, accept the order
	mock.ExpectQuery(`SELECT \* FROM delivery_assignments WHERE order_id = \$1 AND driver_id = \$2`).
		WithArgs(orderID, driverID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT \* FROM orders WHERE id = \$1`).
		WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows(orderCols).
			AddRow(orderID, "thandi@example.com", []byte(`[]`), 349.50, "confirmed", deliveryInfo, true, 1))
	mock.ExpectQuery(`AND status NOT IN`).
		WithArgs(orderID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO delivery_assignments`).
		WithArgs(sqlmock.AnyArg(), orderID, driverID, "assigned", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO delivery_status_updates`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "assigned", "driver", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := ProcessOrderScan(db, orderID, driverID)
	if err != nil {
		t.Fatalf("first scan failed: %v", err)
	}
	if !result.Created || result.NewStatus != models.AssignmentStatusAssigned {
		t.Fatalf("first scan should create an assigned assignment, got %+v", result)
	}

	// Scan 2: assigned -> picked_up
	mock.ExpectQuery(`SELECT \* FROM delivery_assignments WHERE order_id = \$1 AND driver_id = \$2`).
		WithArgs(orderID, driverID).
		WillReturnRows(sqlmock.NewRows(assignmentCols).
			AddRow("a1", orderID, driverID, "assigned", 1, 1, 1))
	mock.ExpectBegin()
	mock.ExpectExec(`SET status = \$1, picked_up_at = \$2`).
		WithArgs("picked_up", sqlmock.AnyArg(), "a1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO delivery_status_updates`).
		WithArgs(sqlmock.AnyArg(), "a1", "picked_up", "driver", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err = ProcessOrderScan(db, orderID, driverID)
	if err != nil {
		t.Fatalf("second scan failed: %v", err)
	}
	if result.Created || result.NewStatus != models.AssignmentStatusPickedUp {
		t.Fatalf("second scan should pick up, got %+v", result)
	}
	if result.Assignment.PickedUpAt == nil {
		t.Fatal("second scan must stamp picked_up_at")
	}

	// Scan 3: picked_up -> delivered, commerce order synced in the same tx
	mock.ExpectQuery(`SELECT \* FROM delivery_assignments WHERE order_id = \$1 AND driver_id = \$2`).
		WithArgs(orderID, driverID).
		WillReturnRows(sqlmock.NewRows(assignmentCols).
			AddRow("a1", orderID, driverID, "picked_up", 1, 1, 1))
	mock.ExpectBegin()
	mock.ExpectExec(`SET status = \$1, delivered_at = \$2`).
		WithArgs("delivered", sqlmock.AnyArg(), "a1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE orders SET status = 'delivered' WHERE id = \$1`).
		WithArgs(orderID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO delivery_status_updates`).
		WithArgs(sqlmock.AnyArg(), "a1", "delivered", "driver", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err = ProcessOrderScan(db, orderID, driverID)
	if err != nil {
		t.Fatalf("third scan failed: %v", err)
	}
	if result.NewStatus != models.AssignmentStatusDelivered {
		t.Fatalf("third scan should deliver, got %s", result.NewStatus)
	}
	if result.Assignment.DeliveredAt == nil {
		t.Fatal("third scan must stamp delivered_at")
	}

	// Scan 4: terminal, rejected without any write
	mock.ExpectQuery(`SELECT \* FROM delivery_assignments WHERE order_id = \$1 AND driver_id = \$2`).
		WithArgs(orderID, driverID).
		WillReturnRows(sqlmock.NewRows(assignmentCols).
			AddRow("a1", orderID, driverID, "delivered", 1, 1, 1))

	if _, err = ProcessOrderScan(db, orderID, driverID); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("fourth scan should be rejected as already processed, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected or missing database writes: %v", err)
	}
}

func TestAcceptOrderRejectsUnreadyOrder(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM orders WHERE id = \$1`).
		WithArgs("order-1").
		WillReturnRows(sqlmock.NewRows(orderCols).
			AddRow("order-1", "sipho@example.com", []byte(`[]`), 129.0, "confirmed", []byte(`{}`), false, 1))

	if _, err := AcceptOrder(db, "order-1", "driver-1"); !errors.Is(err, ErrOrderNotReady) {
		t.Fatalf("expected ErrOrderNotReady, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected database activity: %v", err)
	}
}

func TestUpdateAssignmentStatusRejectsIllegalTransition(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM delivery_assignments WHERE id = \$1 AND driver_id = \$2`).
		WithArgs("a1", "driver-1").
		WillReturnRows(sqlmock.NewRows(assignmentCols).
			AddRow("a1", "order-1", "driver-1", "assigned", 1, 1, 1))

	_, err := UpdateAssignmentStatus(db, "a1", "driver-1", models.AssignmentStatusDelivered, nil)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("assigned -> delivered must be rejected, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected database activity: %v", err)
	}
}
