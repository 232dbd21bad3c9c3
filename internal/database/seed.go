package database

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// SeedDrivers creates the demo driver account used for local development
func SeedDrivers(db *sqlx.DB) error {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM drivers"); err != nil {
		return err
	}

	if count > 0 {
		log.Println("✓ Drivers already seeded, skipping...")
		return nil
	}

	log.Println("🌱 Seeding demo driver...")

	hash, err := bcrypt.GenerateFromPassword([]byte("driver123"), 10)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	vehicle := "scooter"
	_, err = db.Exec(
		`INSERT INTO drivers (id, name, email, phone, password_hash, vehicle_type, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, 'active', $7, $7)`,
		uuid.New().String(), "Demo Driver", "driver@jeffy.co.za", "+27820000001", string(hash), vehicle, now)
	if err != nil {
		return err
	}

	log.Println("✅ Demo driver seeded (driver@jeffy.co.za / driver123)")
	return nil
}

// SeedOrders creates a handful of ready-for-delivery demo orders around
// Cape Town so the dashboard has something to show.
func SeedOrders(db *sqlx.DB) error {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM orders"); err != nil {
		return err
	}

	if count > 0 {
		log.Println("✓ Orders already seeded, skipping...")
		return nil
	}

	log.Println("🌱 Seeding demo orders...")

	orders := []struct {
		email   string
		name    string
		phone   string
		address string
		city    string
		lat     float64
		lng     float64
		total   float64
	}{
		{"thandi@example.com", "Thandi M", "+27821110001", "12 Long St", "Cape Town", -33.9224, 18.4190, 349.50},
		{"sipho@example.com", "Sipho K", "+27821110002", "87 Kloof St", "Cape Town", -33.9312, 18.4098, 129.00},
		{"lerato@example.com", "Lerato D", "+27821110003", "3 Bree St", "Cape Town", -33.9186, 18.4221, 580.25},
		{"james@example.com", "James P", "+27821110004", "45 Main Rd, Sea Point", "Cape Town", -33.9146, 18.3879, 210.00},
	}

	now := time.Now().Unix()
	for i, o := range orders {
		deliveryInfo := map[string]interface{}{
			"name":        o.name,
			"phone":       o.phone,
			"address":     o.address,
			"city":        o.city,
			"postal_code": "8001",
			"latitude":    o.lat,
			"longitude":   o.lng,
		}
		items := []map[string]interface{}{
			{"product_id": uuid.New().String(), "product_name": "Demo item", "quantity": 1, "price": o.total},
		}

		infoJSON, err := json.Marshal(deliveryInfo)
		if err != nil {
			return err
		}
		itemsJSON, err := json.Marshal(items)
		if err != nil {
			return err
		}

		readyAt := now - int64((len(orders)-i)*60)
		_, err = db.Exec(
			`INSERT INTO orders (id, user_email, items, total, status, delivery_info, ready_for_delivery, ready_for_delivery_at, created_at)
			 VALUES ($1, $2, $3, $4, 'confirmed', $5, TRUE, $6, $7)`,
			uuid.New().String(), o.email, itemsJSON, o.total, infoJSON, readyAt, now)
		if err != nil {
			return err
		}
	}

	log.Printf("✅ Seeded %d demo orders", len(orders))
	return nil
}
