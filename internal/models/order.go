package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// OrderStatus represents the commerce status of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// IsAcceptable reports whether an order in this status can still be picked up
// by a driver. Shipped, delivered and cancelled orders are not offered.
func (s OrderStatus) IsAcceptable() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing:
		return true
	}
	return false
}

// OrderItem is a single line item on an order
type OrderItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// OrderItems is stored as a JSONB column
type OrderItems []OrderItem

func (i OrderItems) Value() (driver.Value, error) {
	return json.Marshal(i)
}

func (i *OrderItems) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, i)
	case string:
		return json.Unmarshal([]byte(v), i)
	case nil:
		*i = nil
		return nil
	}
	return fmt.Errorf("cannot scan %T into OrderItems", src)
}

// DeliveryInfo holds the destination details captured at checkout.
// Latitude/longitude are optional - not every order is geocoded.
type DeliveryInfo struct {
	Name       string   `json:"name"`
	Phone      string   `json:"phone"`
	Email      string   `json:"email,omitempty"`
	Address    string   `json:"address"`
	City       string   `json:"city"`
	PostalCode string   `json:"postal_code"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}

func (d DeliveryInfo) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *DeliveryInfo) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	case nil:
		*d = DeliveryInfo{}
		return nil
	}
	return fmt.Errorf("cannot scan %T into DeliveryInfo", src)
}

// HasCoordinates reports whether the order was geocoded at checkout
func (d DeliveryInfo) HasCoordinates() bool {
	return d.Latitude != nil && d.Longitude != nil
}

// Order is owned by the commerce system. The delivery backend reads it to
// decide availability and writes only the terminal 'delivered' transition.
type Order struct {
	ID                  string       `json:"id" db:"id"`
	UserEmail           string       `json:"user_email" db:"user_email"`
	Items               OrderItems   `json:"items" db:"items"`
	Total               float64      `json:"total" db:"total"`
	Status              OrderStatus  `json:"status" db:"status"`
	DeliveryInfo        DeliveryInfo `json:"delivery_info" db:"delivery_info"`
	QRCode              *string      `json:"qr_code,omitempty" db:"qr_code"`
	ReadyForDelivery    bool         `json:"ready_for_delivery" db:"ready_for_delivery"`
	ReadyForDeliveryAt  *int64       `json:"ready_for_delivery_at,omitempty" db:"ready_for_delivery_at"`
	CreatedAt           int64        `json:"created_at" db:"created_at"`
}
