// Package postgres owns the database connection and the engine's schema.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open connects to Postgres via the pgx stdlib driver and verifies the
// connection.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// migrations are applied in order at startup. The beneficiaries, provinces,
// lgus, and barangays tables belong to the surrounding records system; they
// are created here only so a standalone deployment (and the integration
// suite) has them.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS applications (
		id             UUID PRIMARY KEY,
		beneficiary_id UUID NOT NULL,
		program_year   INTEGER NOT NULL,
		benefit_code   TEXT NOT NULL,
		birth_date     DATE NOT NULL,
		status         TEXT NOT NULL,
		payment_date   DATE,
		cash_amount    NUMERIC(12, 2) NOT NULL,
		remarks        TEXT NOT NULL DEFAULT '',
		created_at     TIMESTAMPTZ NOT NULL,
		created_by     TEXT NOT NULL DEFAULT '',
		updated_at     TIMESTAMPTZ NOT NULL,
		updated_by     TEXT NOT NULL DEFAULT ''
	)`,
	// Lifetime uniqueness: one grant of each milestone per beneficiary, ever.
	`CREATE UNIQUE INDEX IF NOT EXISTS applications_beneficiary_benefit_key
		ON applications (beneficiary_id, benefit_code)`,
	// The common dashboard filter path.
	`CREATE INDEX IF NOT EXISTS applications_year_status_idx
		ON applications (program_year, status)`,
	`CREATE INDEX IF NOT EXISTS applications_beneficiary_idx
		ON applications (beneficiary_id)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id          BIGSERIAL PRIMARY KEY,
		occurred_at TIMESTAMPTZ NOT NULL,
		actor       TEXT NOT NULL,
		entity_id   TEXT NOT NULL,
		action      TEXT NOT NULL,
		old_status  TEXT NOT NULL DEFAULT '',
		new_status  TEXT NOT NULL DEFAULT '',
		details     TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS beneficiaries (
		id            UUID PRIMARY KEY,
		birth_date    DATE NOT NULL,
		status        TEXT NOT NULL,
		province_code TEXT NOT NULL DEFAULT '',
		lgu_code      TEXT NOT NULL DEFAULT '',
		barangay_code TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS provinces (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS lgus (
		code          TEXT PRIMARY KEY,
		province_code TEXT NOT NULL REFERENCES provinces (code),
		name          TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS barangays (
		code     TEXT PRIMARY KEY,
		lgu_code TEXT NOT NULL REFERENCES lgus (code),
		name     TEXT NOT NULL
	)`,
}

// Migrate applies the schema. Statements are idempotent, so startup always
// runs the full list.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}
