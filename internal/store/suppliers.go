package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/supplier-compliance-service/internal/domain"
)

type supplierRow struct {
	ID              string         `db:"id"`
	Name            string         `db:"name"`
	Country         string         `db:"country"`
	ContractTerms   sql.NullString `db:"contract_terms"`
	ComplianceScore int            `db:"compliance_score"`
	LastAudit       sql.NullString `db:"last_audit"`
	CreatedAt       string         `db:"created_at"`
	UpdatedAt       sql.NullString `db:"updated_at"`
}

func (r supplierRow) toDomain() (domain.Supplier, error) {
	s := domain.Supplier{
		ID:              r.ID,
		Name:            r.Name,
		Country:         r.Country,
		ComplianceScore: r.ComplianceScore,
	}

	if r.ContractTerms.Valid && r.ContractTerms.String != "" {
		if err := json.Unmarshal([]byte(r.ContractTerms.String), &s.ContractTerms); err != nil {
			return domain.Supplier{}, fmt.Errorf("decode contract terms for %s: %w", r.ID, err)
		}
	}

	var err error
	if s.CreatedAt, err = time.Parse(time.RFC3339, r.CreatedAt); err != nil {
		return domain.Supplier{}, fmt.Errorf("decode created_at for %s: %w", r.ID, err)
	}
	if r.UpdatedAt.Valid {
		t, err := time.Parse(time.RFC3339, r.UpdatedAt.String)
		if err != nil {
			return domain.Supplier{}, fmt.Errorf("decode updated_at for %s: %w", r.ID, err)
		}
		s.UpdatedAt = &t
	}
	if r.LastAudit.Valid {
		t, err := time.Parse(time.DateOnly, r.LastAudit.String)
		if err != nil {
			return domain.Supplier{}, fmt.Errorf("decode last_audit for %s: %w", r.ID, err)
		}
		s.LastAudit = &t
	}

	return s, nil
}

func supplierArgs(s domain.Supplier) (map[string]any, error) {
	args := map[string]any{
		"id":               s.ID,
		"name":             s.Name,
		"country":          s.Country,
		"contract_terms":   nil,
		"compliance_score": s.ComplianceScore,
		"last_audit":       nil,
		"created_at":       s.CreatedAt.Format(time.RFC3339),
		"updated_at":       nil,
	}
	if s.ContractTerms != nil {
		data, err := json.Marshal(s.ContractTerms)
		if err != nil {
			return nil, fmt.Errorf("encode contract terms: %w", err)
		}
		args["contract_terms"] = string(data)
	}
	if s.LastAudit != nil {
		args["last_audit"] = s.LastAudit.Format(time.DateOnly)
	}
	if s.UpdatedAt != nil {
		args["updated_at"] = s.UpdatedAt.Format(time.RFC3339)
	}
	return args, nil
}

// CreateSupplier inserts a new supplier. A duplicate name surfaces as
// ErrInvalidInput.
func (s *Store) CreateSupplier(ctx context.Context, supplier domain.Supplier) error {
	var exists int
	err := s.db.GetContext(ctx, &exists,
		`SELECT COUNT(*) FROM suppliers WHERE name = ?`, supplier.Name)
	if err != nil {
		return fmt.Errorf("check supplier name: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("supplier %q already exists: %w", supplier.Name, domain.ErrInvalidInput)
	}

	args, err := supplierArgs(supplier)
	if err != nil {
		return err
	}
	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO suppliers (id, name, country, contract_terms, compliance_score, last_audit, created_at, updated_at)
		VALUES (:id, :name, :country, :contract_terms, :compliance_score, :last_audit, :created_at, :updated_at)`,
		args)
	if err != nil {
		return fmt.Errorf("insert supplier: %w", err)
	}
	return nil
}

// GetSupplier fetches a supplier by id, or ErrNotFound.
func (s *Store) GetSupplier(ctx context.Context, id string) (domain.Supplier, error) {
	var row supplierRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM suppliers WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Supplier{}, fmt.Errorf("supplier %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Supplier{}, fmt.Errorf("get supplier: %w", err)
	}
	return row.toDomain()
}

// ListSuppliers returns suppliers ordered by name. A non-positive limit
// returns everything after the offset.
func (s *Store) ListSuppliers(ctx context.Context, offset, limit int) ([]domain.Supplier, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	var rows []supplierRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM suppliers ORDER BY name LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}

	suppliers := make([]domain.Supplier, 0, len(rows))
	for _, row := range rows {
		sup, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, sup)
	}
	return suppliers, nil
}

// UpdateSupplier writes the full supplier row. ErrNotFound when absent.
func (s *Store) UpdateSupplier(ctx context.Context, supplier domain.Supplier) error {
	args, err := supplierArgs(supplier)
	if err != nil {
		return err
	}
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE suppliers
		SET name = :name, country = :country, contract_terms = :contract_terms,
		    compliance_score = :compliance_score, last_audit = :last_audit, updated_at = :updated_at
		WHERE id = :id`,
		args)
	if err != nil {
		return fmt.Errorf("update supplier: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update supplier: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("supplier %s: %w", supplier.ID, domain.ErrNotFound)
	}
	return nil
}

// DeleteSupplier removes a supplier and, by cascade, all its compliance
// records. ErrNotFound when absent.
func (s *Store) DeleteSupplier(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete supplier: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete supplier: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("supplier %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
