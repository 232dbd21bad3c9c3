package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/Tredoux555/jeffy-delivery/internal/middleware"
	"github.com/Tredoux555/jeffy-delivery/internal/models"
	"github.com/Tredoux555/jeffy-delivery/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	Password      string  `json:"password"`
	VehicleType   *string `json:"vehicle_type,omitempty"`
	LicenseNumber *string `json:"license_number,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	OK     bool                   `json:"ok"`
	Token  string                 `json:"token,omitempty"`
	Driver *models.DriverResponse `json:"driver,omitempty"`
}

func signToken(userID, email, role string) (string, error) {
	jwtSecret := os.Getenv("APP_JWT_SECRET")
	if jwtSecret == "" {
		return "", errors.New("APP_JWT_SECRET not configured")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"role":    role,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(7 * 24 * time.Hour).Unix(),
	})
	return token.SignedString([]byte(jwtSecret))
}

// Register creates a new driver account
func Register(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.Name == "" || req.Email == "" || req.Phone == "" || req.Password == "" {
			utils.RespondError(w, http.StatusBadRequest, "name, email, phone and password are required")
			return
		}

		// Reject duplicate emails up front for a friendlier message
		var existingID string
		err := db.Get(&existingID, `SELECT id FROM drivers WHERE email = $1`, req.Email)
		if err == nil {
			utils.RespondError(w, http.StatusConflict, "An account with this email already exists")
			return
		}
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("❌ Register lookup failed: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 10)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to hash password")
			return
		}

		now := time.Now().Unix()
		driver := models.Driver{
			ID:            uuid.New().String(),
			Name:          req.Name,
			Email:         req.Email,
			Phone:         req.Phone,
			PasswordHash:  string(hash),
			VehicleType:   req.VehicleType,
			LicenseNumber: req.LicenseNumber,
			Status:        "active",
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		_, err = db.Exec(
			`INSERT INTO drivers (id, name, email, phone, password_hash, vehicle_type, license_number, status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			driver.ID, driver.Name, driver.Email, driver.Phone, driver.PasswordHash,
			driver.VehicleType, driver.LicenseNumber, driver.Status, driver.CreatedAt, driver.UpdatedAt)
		if err != nil {
			log.Printf("❌ Register insert failed: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create account")
			return
		}

		tokenString, err := signToken(driver.ID, driver.Email, "driver")
		if err != nil {
			log.Printf("❌ Failed to create token: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create token")
			return
		}

		response := driver.ToDriverResponse()
		log.Printf("✅ Driver registered: %s", driver.Email)
		utils.RespondJSON(w, http.StatusCreated, LoginResponse{OK: true, Token: tokenString, Driver: &response})
	}
}

// Login authenticates a driver
func Login(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		log.Printf("🔐 Login attempt for: %s", req.Email)

		var driver models.Driver
		if err := db.Get(&driver, `SELECT * FROM drivers WHERE email = $1`, req.Email); err != nil {
			log.Printf("❌ User not found: %s", req.Email)
			utils.RespondJSON(w, http.StatusUnauthorized, LoginResponse{OK: false})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(driver.PasswordHash), []byte(req.Password)); err != nil {
			log.Printf("❌ Invalid password for: %s", req.Email)
			utils.RespondJSON(w, http.StatusUnauthorized, LoginResponse{OK: false})
			return
		}

		tokenString, err := signToken(driver.ID, driver.Email, "driver")
		if err != nil {
			log.Printf("❌ Failed to create token: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create token")
			return
		}

		response := driver.ToDriverResponse()
		log.Printf("✅ Login successful: %s", driver.Email)
		utils.RespondJSON(w, http.StatusOK, LoginResponse{OK: true, Token: tokenString, Driver: &response})
	}
}

type ReceiverLoginRequest struct {
	Phone string `json:"phone"`
	Name  string `json:"name"`
}

// ReceiverLogin signs in a receiver by phone number, creating the account on
// first use. Receivers have no password - possession of the phone number from
// the order is the credential, same as the original flow.
func ReceiverLogin(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ReceiverLoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Phone == "" {
			utils.RespondError(w, http.StatusBadRequest, "phone is required")
			return
		}

		var receiver models.ReceiverUser
		err := db.Get(&receiver, `SELECT * FROM receiver_users WHERE phone = $1`, req.Phone)
		if errors.Is(err, sql.ErrNoRows) {
			name := req.Name
			if name == "" {
				name = req.Phone
			}
			now := time.Now().Unix()
			receiver = models.ReceiverUser{
				ID:        uuid.New().String(),
				Phone:     req.Phone,
				Name:      name,
				CreatedAt: now,
				UpdatedAt: now,
			}
			_, err = db.Exec(
				`INSERT INTO receiver_users (id, phone, name, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5)`,
				receiver.ID, receiver.Phone, receiver.Name, receiver.CreatedAt, receiver.UpdatedAt)
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23505" {
				// Lost a concurrent first-login race; the winner's row stands
				err = db.Get(&receiver, `SELECT * FROM receiver_users WHERE phone = $1`, req.Phone)
			}
		}
		if err != nil {
			log.Printf("❌ Receiver login failed: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		tokenString, err := signToken(receiver.ID, receiver.Phone, "receiver")
		if err != nil {
			log.Printf("❌ Failed to create token: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create token")
			return
		}

		log.Printf("✅ Receiver login: %s", receiver.Phone)
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"ok":       true,
			"token":    tokenString,
			"receiver": receiver,
		})
	}
}

type FCMTokenRequest struct {
	Token      string `json:"token"`
	DeviceType string `json:"device_type"`
}

// RegisterFCMToken stores a push token for the authenticated user
func RegisterFCMToken(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req FCMTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Token == "" || (req.DeviceType != "ios" && req.DeviceType != "android") {
			utils.RespondError(w, http.StatusBadRequest, "token and device_type (ios|android) are required")
			return
		}

		now := time.Now().Unix()
		_, err := db.Exec(
			`INSERT INTO fcm_tokens (user_id, user_role, token, device_type, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $5)
			 ON CONFLICT (token) DO UPDATE SET user_id = EXCLUDED.user_id, user_role = EXCLUDED.user_role, updated_at = EXCLUDED.updated_at`,
			userClaims.UserID, userClaims.Role, req.Token, req.DeviceType, now)
		if err != nil {
			log.Printf("❌ Failed to register FCM token: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		utils.RespondSuccess(w, map[string]string{"status": "registered"})
	}
}
