package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Tredoux555/jeffy-delivery/internal/middleware"
	"github.com/Tredoux555/jeffy-delivery/internal/websocket"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
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

func authedRequest(method, target string, claims middleware.UserClaims, urlParams map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	ctx := context.WithValue(req.Context(), middleware.UserContextKey, claims)

	rctx := chi.NewRouteContext()
	for key, value := range urlParams {
		rctx.URLParams.Add(key, value)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)

	return req.WithContext(ctx)
}

var notificationCols = []string{"id", "order_id", "receiver_id", "driver_id", "status", "created_at", "updated_at"}

func TestConfirmReadyRejectsForeignReceiverBeforeMutating(t *testing.T) {
	db, mock := newMockDB(t)

	// Only the ownership SELECT is expected; a foreign receiver must never
	// reach the UPDATE.
	mock.ExpectQuery(`SELECT \* FROM delivery_notifications WHERE id = \$1`).
		WithArgs("n1").
		WillReturnRows(sqlmock.NewRows(notificationCols).
			AddRow("n1", "order-1", "receiver-owner", "driver-1", "notified", 1, 1))

	req := authedRequest(http.MethodPost, "/api/notifications/n1/ready",
		middleware.UserClaims{UserID: "receiver-stranger", Role: "receiver"},
		map[string]string{"id": "n1"})
	rr := httptest.NewRecorder()

	ConfirmReady(db, websocket.NewHub())(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign receiver, got %d", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected database activity: %v", err)
	}
}

func TestConfirmReadyAdvancesOwnNotification(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM delivery_notifications WHERE id = \$1`).
		WithArgs("n1").
		WillReturnRows(sqlmock.NewRows(notificationCols).
			AddRow("n1", "order-1", "receiver-1", "driver-1", "notified", 1, 1))
	// Service re-reads and applies the transition
	mock.ExpectQuery(`SELECT \* FROM delivery_notifications WHERE id = \$1`).
		WithArgs("n1").
		WillReturnRows(sqlmock.NewRows(notificationCols).
			AddRow("n1", "order-1", "receiver-1", "driver-1", "notified", 1, 1))
	mock.ExpectExec(`SET status = \$1, ready_confirmed_at = \$2`).
		WithArgs("ready_confirmed", sqlmock.AnyArg(), "n1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := authedRequest(http.MethodPost, "/api/notifications/n1/ready",
		middleware.UserClaims{UserID: "receiver-1", Role: "receiver"},
		map[string]string{"id": "n1"})
	rr := httptest.NewRecorder()

	ConfirmReady(db, websocket.NewHub())(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unfulfilled expectations: %v", err)
	}
}

func TestCancelNotificationRejectsForeignReceiver(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM delivery_notifications WHERE id = \$1`).
		WithArgs("n1").
		WillReturnRows(sqlmock.NewRows(notificationCols).
			AddRow("n1", "order-1", "receiver-owner", "driver-1", "notified", 1, 1))

	req := authedRequest(http.MethodPost, "/api/notifications/n1/cancel",
		middleware.UserClaims{UserID: "receiver-stranger", Role: "receiver"},
		map[string]string{"id": "n1"})
	rr := httptest.NewRecorder()

	CancelNotification(db, websocket.NewHub())(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign receiver, got %d", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected database activity: %v", err)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	if success, _ := body["success"].(bool); success {
		t.Fatal("error response must not claim success")
	}
}
