package models

// Driver represents a delivery driver account
type Driver struct {
	ID                 string   `json:"id" db:"id"`
	Name               string   `json:"name" db:"name"`
	Email              string   `json:"email" db:"email"`
	Phone              string   `json:"phone" db:"phone"`
	PasswordHash       string   `json:"-" db:"password_hash"` // Never return hash in JSON
	VehicleType        *string  `json:"vehicle_type,omitempty" db:"vehicle_type"`
	LicenseNumber      *string  `json:"license_number,omitempty" db:"license_number"`
	Status             string   `json:"status" db:"status"` // "active", "inactive" or "busy"
	CurrentLatitude    *float64 `json:"current_latitude,omitempty" db:"current_latitude"`
	CurrentLongitude   *float64 `json:"current_longitude,omitempty" db:"current_longitude"`
	LastLocationUpdate *int64   `json:"last_location_update,omitempty" db:"last_location_update"`
	CreatedAt          int64    `json:"created_at" db:"created_at"`
	UpdatedAt          int64    `json:"updated_at" db:"updated_at"`
}

type DriverResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	VehicleType *string `json:"vehicle_type,omitempty"`
	Status      string  `json:"status"`
	CreatedAt   int64   `json:"created_at"`
}

func (d *Driver) ToDriverResponse() DriverResponse {
	return DriverResponse{
		ID:          d.ID,
		Name:        d.Name,
		Email:       d.Email,
		Phone:       d.Phone,
		VehicleType: d.VehicleType,
		Status:      d.Status,
		CreatedAt:   d.CreatedAt,
	}
}

// ReceiverUser is the receiver-facing account, keyed by phone number.
// Created lazily the first time a driver activates a delivery for that phone.
type ReceiverUser struct {
	ID        string  `json:"id" db:"id"`
	Phone     string  `json:"phone" db:"phone"`
	Name      string  `json:"name" db:"name"`
	Email     *string `json:"email,omitempty" db:"email"`
	CreatedAt int64   `json:"created_at" db:"created_at"`
	UpdatedAt int64   `json:"updated_at" db:"updated_at"`
}
