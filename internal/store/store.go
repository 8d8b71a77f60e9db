// Package store persists suppliers and compliance records in SQLite.
//
// JSON payload columns (contract terms, advisory opinions, weather
// adjudications) are serialized blobs; the schema only constrains the fields
// the orchestrators filter on. Dates are stored as YYYY-MM-DD text so date
// equality in SQL matches the domain's day-granularity semantics.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/couchcryptid/supplier-compliance-service/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS suppliers (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL UNIQUE,
	country          TEXT NOT NULL,
	contract_terms   TEXT,
	compliance_score INTEGER NOT NULL DEFAULT 100,
	last_audit       TEXT,
	created_at       TEXT NOT NULL,
	updated_at       TEXT
);

CREATE TABLE IF NOT EXISTS compliance_records (
	id                    TEXT PRIMARY KEY,
	supplier_id           TEXT NOT NULL REFERENCES suppliers(id) ON DELETE CASCADE,
	metric                TEXT NOT NULL,
	date_recorded         TEXT NOT NULL,
	result                REAL NOT NULL,
	expected_value        REAL,
	status                TEXT NOT NULL,
	ai_analysis           TEXT,
	weather_data          TEXT,
	weather_justification TEXT,
	created_at            TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_supplier_date
	ON compliance_records (supplier_id, date_recorded DESC);
`

// Store is the SQLite-backed persistence layer.
type Store struct {
	db *sqlx.DB
}

// Open connects to the SQLite database at dsn and ensures the schema
// exists. Use ":memory:" for an ephemeral database in tests.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows one writer; a single pooled connection also keeps the
	// foreign_keys pragma and :memory: databases stable across queries.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable. Used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// transact runs fn inside a transaction, rolling back on any error.
func (s *Store) transact(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// SaveIngestion commits a batch of new records and the supplier's updated
// score as one transaction. Either everything lands or nothing does.
func (s *Store) SaveIngestion(ctx context.Context, records []domain.ComplianceRecord, supplierID string, score int) error {
	return s.transact(ctx, func(tx *sqlx.Tx) error {
		for i := range records {
			if err := insertRecord(ctx, tx, records[i]); err != nil {
				return err
			}
		}
		return setSupplierScore(ctx, tx, supplierID, score)
	})
}

// SaveAdjudication persists reclassified records as one transaction. A call
// with no records is a no-op and performs no write.
func (s *Store) SaveAdjudication(ctx context.Context, records []domain.ComplianceRecord) error {
	if len(records) == 0 {
		return nil
	}
	return s.transact(ctx, func(tx *sqlx.Tx) error {
		for i := range records {
			if err := updateRecord(ctx, tx, records[i]); err != nil {
				return err
			}
		}
		return nil
	})
}
