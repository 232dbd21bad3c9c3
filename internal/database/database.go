package database

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func Connect(dbURL string) (*sqlx.DB, error) {
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Println("🔌 DATABASE CONNECTION ATTEMPT")
	log.Printf("   📍 Database URL length: %d characters", len(dbURL))
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		log.Printf("❌ DATABASE CONNECTION FAILED: %v", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		log.Printf("❌ DATABASE PING FAILED: %v", err)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ DATABASE CONNECTION SUCCESSFUL")
	return db, nil
}

func Migrate(db *sqlx.DB) error {
	migrations := []string{
		// Create drivers table
		`CREATE TABLE IF NOT EXISTS drivers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			phone TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			vehicle_type TEXT,
			license_number TEXT,
			status TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('active', 'inactive', 'busy')),
			current_latitude DOUBLE PRECISION,
			current_longitude DOUBLE PRECISION,
			last_location_update BIGINT,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		// Create receiver_users table
		// Phone is UNIQUE: concurrent lookup-or-create resolves on conflict
		`CREATE TABLE IF NOT EXISTS receiver_users (
			id TEXT PRIMARY KEY,
			phone TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			email TEXT,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		// Create orders table (owned by the commerce system; mirrored here)
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			user_email TEXT NOT NULL,
			items JSONB NOT NULL DEFAULT '[]',
			total DOUBLE PRECISION NOT NULL DEFAULT 0,
			status TEXT NOT NULL CHECK(status IN ('pending', 'confirmed', 'processing', 'shipped', 'delivered', 'cancelled')),
			delivery_info JSONB NOT NULL DEFAULT '{}',
			qr_code TEXT,
			ready_for_delivery BOOLEAN NOT NULL DEFAULT FALSE,
			ready_for_delivery_at BIGINT,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		// Create delivery_assignments table
		`CREATE TABLE IF NOT EXISTS delivery_assignments (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			driver_id TEXT NOT NULL,
			status TEXT NOT NULL CHECK(status IN ('assigned', 'picked_up', 'in_transit', 'delivered', 'failed')),
			assigned_at BIGINT NOT NULL,
			picked_up_at BIGINT,
			delivered_at BIGINT,
			delivery_notes TEXT,
			delivery_photo_url TEXT,
			customer_signature_url TEXT,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
			FOREIGN KEY (driver_id) REFERENCES drivers(id) ON DELETE CASCADE
		)`,

		// One live assignment per order. Two drivers accepting the same order
		// race on this index; the loser gets a unique violation.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_one_active_assignment_per_order
			ON delivery_assignments (order_id)
			WHERE status NOT IN ('delivered', 'failed')`,

		// Create delivery_status_updates table (append-only audit trail)
		`CREATE TABLE IF NOT EXISTS delivery_status_updates (
			id TEXT PRIMARY KEY,
			assignment_id TEXT NOT NULL,
			status TEXT NOT NULL,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			notes TEXT,
			updated_by TEXT NOT NULL CHECK(updated_by IN ('driver', 'admin', 'system')),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (assignment_id) REFERENCES delivery_assignments(id) ON DELETE CASCADE
		)`,

		// Create delivery_notifications table
		// qr_code UNIQUE backs up the probabilistic token uniqueness
		`CREATE TABLE IF NOT EXISTS delivery_notifications (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			receiver_id TEXT NOT NULL,
			driver_id TEXT NOT NULL,
			status TEXT NOT NULL CHECK(status IN ('pending', 'notified', 'ready_confirmed', 'gps_active', 'completed', 'cancelled')),
			qr_code TEXT UNIQUE,
			qr_generated_at BIGINT,
			estimated_arrival_minutes INT,
			notified_at BIGINT,
			ready_confirmed_at BIGINT,
			gps_activated_at BIGINT,
			completed_at BIGINT,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
			FOREIGN KEY (receiver_id) REFERENCES receiver_users(id) ON DELETE CASCADE,
			FOREIGN KEY (driver_id) REFERENCES drivers(id) ON DELETE CASCADE
		)`,

		// Create gps_tracking_sessions table
		`CREATE TABLE IF NOT EXISTS gps_tracking_sessions (
			id TEXT PRIMARY KEY,
			delivery_notification_id TEXT NOT NULL,
			driver_id TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			started_at BIGINT NOT NULL,
			ended_at BIGINT,
			FOREIGN KEY (delivery_notification_id) REFERENCES delivery_notifications(id) ON DELETE CASCADE,
			FOREIGN KEY (driver_id) REFERENCES drivers(id) ON DELETE CASCADE
		)`,

		// Create gps_locations table
		`CREATE TABLE IF NOT EXISTS gps_locations (
			id SERIAL PRIMARY KEY,
			session_id TEXT NOT NULL,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			accuracy DOUBLE PRECISION,
			speed DOUBLE PRECISION,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (session_id) REFERENCES gps_tracking_sessions(id) ON DELETE CASCADE
		)`,

		// Create delivery_messages table (driver <-> receiver chat)
		`CREATE TABLE IF NOT EXISTS delivery_messages (
			id TEXT PRIMARY KEY,
			notification_id TEXT NOT NULL,
			sender_id TEXT NOT NULL,
			sender_role TEXT NOT NULL CHECK(sender_role IN ('driver', 'receiver')),
			message TEXT NOT NULL,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (notification_id) REFERENCES delivery_notifications(id) ON DELETE CASCADE
		)`,

		// Create route_optimizations table (advisory snapshots only)
		`CREATE TABLE IF NOT EXISTS route_optimizations (
			id TEXT PRIMARY KEY,
			driver_id TEXT NOT NULL,
			optimization_date TEXT NOT NULL,
			delivery_order TEXT[] NOT NULL DEFAULT '{}',
			total_distance_km DOUBLE PRECISION NOT NULL DEFAULT 0,
			total_duration_minutes INT NOT NULL DEFAULT 0,
			waypoints JSONB NOT NULL DEFAULT '[]',
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (driver_id) REFERENCES drivers(id) ON DELETE CASCADE
		)`,

		// Create FCM tokens table
		`CREATE TABLE IF NOT EXISTS fcm_tokens (
			id SERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			user_role TEXT NOT NULL CHECK(user_role IN ('driver', 'receiver')),
			token TEXT NOT NULL UNIQUE,
			device_type TEXT NOT NULL CHECK(device_type IN ('ios', 'android')),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		// Indexes for the hot dashboard queries
		`CREATE INDEX IF NOT EXISTS idx_orders_ready ON orders (ready_for_delivery, status)`,
		`CREATE INDEX IF NOT EXISTS idx_assignments_driver_status ON delivery_assignments (driver_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_status_updates_assignment ON delivery_status_updates (assignment_id)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_receiver ON delivery_notifications (receiver_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_notification ON delivery_messages (notification_id)`,
		`CREATE INDEX IF NOT EXISTS idx_gps_locations_session ON gps_locations (session_id)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	log.Printf("✅ Ran %d migrations", len(migrations))
	return nil
}
