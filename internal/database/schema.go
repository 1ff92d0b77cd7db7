package database

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates the application tables if they do not exist.  It is
// idempotent and safe to run on every startup.
//
// The bed_reservations table carries a stored generated column that holds
// the bed id only while the row is in RESERVED status.  The unique index on
// that column is what makes TryReserve race-safe: MySQL unique indexes
// ignore NULLs, so any number of expired or cancelled rows may reference
// the same bed, but at most one RESERVED row can exist per bed at a time.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS hospitals (
			id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			name        VARCHAR(255) NOT NULL,
			location    VARCHAR(255) NOT NULL DEFAULT '',
			category    VARCHAR(128) NOT NULL DEFAULT '',
			care_type   VARCHAR(128) NOT NULL DEFAULT '',
			address     VARCHAR(512) NOT NULL DEFAULT '',
			state       VARCHAR(128) NOT NULL DEFAULT '',
			district    VARCHAR(128) NOT NULL DEFAULT '',
			pincode     VARCHAR(16)  NOT NULL DEFAULT '',
			telephone   VARCHAR(64)  NOT NULL DEFAULT '',
			total_beds  INT          NOT NULL DEFAULT 0,
			latitude    DOUBLE NULL,
			longitude   DOUBLE NULL,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			KEY idx_hospitals_coords (latitude, longitude),
			KEY idx_hospitals_district (district),
			KEY idx_hospitals_state (state)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS beds (
			id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			hospital_id BIGINT UNSIGNED NOT NULL,
			bed_type    VARCHAR(32) NOT NULL,
			status      VARCHAR(32) NOT NULL DEFAULT 'AVAILABLE',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			KEY idx_beds_hospital_type_status (hospital_id, bed_type, status),
			CONSTRAINT fk_beds_hospital FOREIGN KEY (hospital_id) REFERENCES hospitals(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS bed_reservations (
			id            CHAR(36) PRIMARY KEY,
			hospital_id   BIGINT UNSIGNED NOT NULL,
			bed_id        BIGINT UNSIGNED NOT NULL,
			ambulance_id  VARCHAR(128) NOT NULL,
			status        VARCHAR(32) NOT NULL DEFAULT 'RESERVED',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			expiry_time   DATETIME NOT NULL,
			active_bed_id BIGINT UNSIGNED GENERATED ALWAYS AS (IF(status = 'RESERVED', bed_id, NULL)) STORED,
			UNIQUE KEY uq_reservations_active_bed (active_bed_id),
			KEY idx_reservations_status_expiry (status, expiry_time),
			CONSTRAINT fk_reservations_bed FOREIGN KEY (bed_id) REFERENCES beds(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS sos_reports (
			id               BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			latitude         DOUBLE NOT NULL,
			longitude        DOUBLE NOT NULL,
			emergency_type   VARCHAR(64)   NOT NULL DEFAULT '',
			message          VARCHAR(1024) NOT NULL DEFAULT '',
			client_timestamp BIGINT        NOT NULL DEFAULT 0,
			offline_id       VARCHAR(128)  NULL,
			status           VARCHAR(32)   NOT NULL DEFAULT 'PENDING',
			server_timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uq_sos_offline_id (offline_id),
			KEY idx_sos_status (status)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
