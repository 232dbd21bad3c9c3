package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Tredoux555/jeffy-delivery/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
)

func TestReceiverLoginFallsBackToRaceWinner(t *testing.T) {
	db, mock := newMockDB(t)
	t.Setenv("APP_JWT_SECRET", "test-secret")

	phone := "+27821110009"
	receiverCols := []string{"id", "phone", "name", "created_at", "updated_at"}

	// First login for this phone loses the insert race to a concurrent
	// request; the handler must pick up the winner's row instead of failing.
	mock.ExpectQuery(`SELECT \* FROM receiver_users WHERE phone = \$1`).
		WithArgs(phone).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO receiver_users`).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectQuery(`SELECT \* FROM receiver_users WHERE phone = \$1`).
		WithArgs(phone).
		WillReturnRows(sqlmock.NewRows(receiverCols).
			AddRow("winner-id", phone, "Thandi M", 1, 1))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/receiver/login",
		strings.NewReader(`{"phone":"`+phone+`"}`))
	rr := httptest.NewRecorder()

	ReceiverLogin(db)(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 after losing the phone race, got %d (%s)", rr.Code, rr.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unfulfilled expectations: %v", err)
	}

	var resp struct {
		OK       bool                `json:"ok"`
		Token    string              `json:"token"`
		Receiver models.ReceiverUser `json:"receiver"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !resp.OK || resp.Token == "" {
		t.Fatalf("expected a signed session, got %+v", resp)
	}
	if resp.Receiver.ID != "winner-id" {
		t.Fatalf("expected the winner's receiver row, got %q", resp.Receiver.ID)
	}
}

func TestReceiverLoginRequiresPhone(t *testing.T) {
	db, mock := newMockDB(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/receiver/login",
		strings.NewReader(`{"name":"no phone"}`))
	rr := httptest.NewRecorder()

	ReceiverLogin(db)(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without phone, got %d", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected database activity: %v", err)
	}
}
