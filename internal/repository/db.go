package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/segyhp/installment-engine/internal/config"
)

// SQLiteSchema creates the tables on sqlite. Decimal columns are TEXT so no
// precision is lost; postgres uses scripts/init.sql.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS loans (
	id TEXT PRIMARY KEY,
	client_id TEXT NOT NULL,
	amount TEXT NOT NULL,
	interest_rate TEXT NOT NULL,
	installments INTEGER NOT NULL,
	method TEXT NOT NULL,
	start_date DATETIME NOT NULL,
	end_date DATETIME NOT NULL,
	total_amount TEXT NOT NULL,
	status TEXT NOT NULL,
	paid_installments INTEGER NOT NULL DEFAULT 0,
	remaining_amount TEXT NOT NULL,
	version INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_loans_client_id ON loans(client_id);

CREATE TABLE IF NOT EXISTS installments (
	loan_id TEXT NOT NULL REFERENCES loans(id),
	number INTEGER NOT NULL,
	due_date DATETIME NOT NULL,
	principal_amount TEXT NOT NULL,
	interest_amount TEXT NOT NULL,
	total_amount TEXT NOT NULL,
	remaining_balance TEXT NOT NULL,
	status TEXT NOT NULL,
	payment_date DATETIME,
	paid_amount TEXT NOT NULL,
	remaining_amount TEXT NOT NULL,
	PRIMARY KEY (loan_id, number)
);

CREATE TABLE IF NOT EXISTS payment_records (
	id TEXT PRIMARY KEY,
	loan_id TEXT NOT NULL REFERENCES loans(id),
	installment_number INTEGER NOT NULL,
	payment_date DATETIME NOT NULL,
	principal_paid TEXT NOT NULL,
	interest_paid TEXT NOT NULL,
	penalty_paid TEXT NOT NULL,
	cumulative_amount TEXT NOT NULL,
	excess_amount TEXT NOT NULL,
	payment_count INTEGER NOT NULL,
	status TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE (loan_id, installment_number)
);

CREATE TABLE IF NOT EXISTS client_metrics (
	client_id TEXT PRIMARY KEY,
	total_loans INTEGER NOT NULL,
	active_loans INTEGER NOT NULL,
	completed_loans INTEGER NOT NULL,
	defaulted_loans INTEGER NOT NULL,
	total_borrowed TEXT NOT NULL,
	total_paid TEXT NOT NULL,
	on_time_payments INTEGER NOT NULL,
	late_payments INTEGER NOT NULL,
	average_payment_delay INTEGER NOT NULL,
	updated_at DATETIME NOT NULL
);
`

// Connect opens the configured database and applies pool settings.
// On sqlite the schema is created as well.
func Connect(cfg config.DatabaseConfig, connMaxLifetime time.Duration) (*sqlx.DB, error) {
	db, err := sqlx.Connect(cfg.Driver, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if cfg.Driver == "sqlite3" {
		// every connection to :memory: is a separate database
		if strings.Contains(cfg.URL, ":memory:") {
			db.SetMaxOpenConns(1)
			db.SetMaxIdleConns(1)
			db.SetConnMaxLifetime(0)
		}
		if err := MigrateSQLite(db); err != nil {
			db.Close()
			return nil, err
		}
	}

	return db, nil
}

// MigrateSQLite enables foreign keys and creates the schema
func MigrateSQLite(db *sqlx.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(SQLiteSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
