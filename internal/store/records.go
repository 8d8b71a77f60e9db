package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/couchcryptid/supplier-compliance-service/internal/domain"
)

type recordRow struct {
	ID                   string          `db:"id"`
	SupplierID           string          `db:"supplier_id"`
	Metric               string          `db:"metric"`
	DateRecorded         string          `db:"date_recorded"`
	Result               float64         `db:"result"`
	ExpectedValue        sql.NullFloat64 `db:"expected_value"`
	Status               string          `db:"status"`
	AIAnalysis           sql.NullString  `db:"ai_analysis"`
	WeatherData          sql.NullString  `db:"weather_data"`
	WeatherJustification sql.NullString  `db:"weather_justification"`
	CreatedAt            string          `db:"created_at"`
}

func (r recordRow) toDomain() (domain.ComplianceRecord, error) {
	rec := domain.ComplianceRecord{
		ID:                   r.ID,
		SupplierID:           r.SupplierID,
		Metric:               r.Metric,
		Result:               r.Result,
		Verdict:              domain.Verdict(r.Status),
		WeatherJustification: r.WeatherJustification.String,
	}

	var err error
	if rec.DateRecorded, err = time.Parse(time.DateOnly, r.DateRecorded); err != nil {
		return domain.ComplianceRecord{}, fmt.Errorf("decode date_recorded for %s: %w", r.ID, err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339, r.CreatedAt); err != nil {
		return domain.ComplianceRecord{}, fmt.Errorf("decode created_at for %s: %w", r.ID, err)
	}
	if r.ExpectedValue.Valid {
		v := r.ExpectedValue.Float64
		rec.ExpectedValue = &v
	}
	if r.AIAnalysis.Valid && r.AIAnalysis.String != "" {
		var op domain.AdvisoryOpinion
		if err := json.Unmarshal([]byte(r.AIAnalysis.String), &op); err != nil {
			return domain.ComplianceRecord{}, fmt.Errorf("decode ai_analysis for %s: %w", r.ID, err)
		}
		rec.AIAnalysis = &op
	}
	if r.WeatherData.Valid && r.WeatherData.String != "" {
		var adj domain.WeatherAdjudication
		if err := json.Unmarshal([]byte(r.WeatherData.String), &adj); err != nil {
			return domain.ComplianceRecord{}, fmt.Errorf("decode weather_data for %s: %w", r.ID, err)
		}
		rec.WeatherData = &adj
	}

	return rec, nil
}

func recordArgs(rec domain.ComplianceRecord) (map[string]any, error) {
	args := map[string]any{
		"id":                    rec.ID,
		"supplier_id":           rec.SupplierID,
		"metric":                rec.Metric,
		"date_recorded":         rec.DateRecorded.Format(time.DateOnly),
		"result":                rec.Result,
		"expected_value":        nil,
		"status":                string(rec.Verdict),
		"ai_analysis":           nil,
		"weather_data":          nil,
		"weather_justification": nil,
		"created_at":            rec.CreatedAt.Format(time.RFC3339),
	}
	if rec.ExpectedValue != nil {
		args["expected_value"] = *rec.ExpectedValue
	}
	if rec.AIAnalysis != nil {
		data, err := json.Marshal(rec.AIAnalysis)
		if err != nil {
			return nil, fmt.Errorf("encode ai_analysis: %w", err)
		}
		args["ai_analysis"] = string(data)
	}
	if rec.WeatherData != nil {
		data, err := json.Marshal(rec.WeatherData)
		if err != nil {
			return nil, fmt.Errorf("encode weather_data: %w", err)
		}
		args["weather_data"] = string(data)
	}
	if rec.WeatherJustification != "" {
		args["weather_justification"] = rec.WeatherJustification
	}
	return args, nil
}

func insertRecord(ctx context.Context, tx *sqlx.Tx, rec domain.ComplianceRecord) error {
	args, err := recordArgs(rec)
	if err != nil {
		return err
	}
	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO compliance_records
			(id, supplier_id, metric, date_recorded, result, expected_value, status,
			 ai_analysis, weather_data, weather_justification, created_at)
		VALUES
			(:id, :supplier_id, :metric, :date_recorded, :result, :expected_value, :status,
			 :ai_analysis, :weather_data, :weather_justification, :created_at)`,
		args)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func updateRecord(ctx context.Context, tx *sqlx.Tx, rec domain.ComplianceRecord) error {
	args, err := recordArgs(rec)
	if err != nil {
		return err
	}
	_, err = tx.NamedExecContext(ctx, `
		UPDATE compliance_records
		SET status = :status, ai_analysis = :ai_analysis, weather_data = :weather_data,
		    weather_justification = :weather_justification
		WHERE id = :id`,
		args)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

func setSupplierScore(ctx context.Context, tx *sqlx.Tx, supplierID string, score int) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE suppliers SET compliance_score = ?, updated_at = ? WHERE id = ?`,
		score, domain.Now().Format(time.RFC3339), supplierID)
	if err != nil {
		return fmt.Errorf("set supplier score: %w", err)
	}
	return nil
}

// CreateRecord inserts a single record outside any batch transaction.
func (s *Store) CreateRecord(ctx context.Context, rec domain.ComplianceRecord) error {
	return s.transact(ctx, func(tx *sqlx.Tx) error {
		return insertRecord(ctx, tx, rec)
	})
}

// GetRecord fetches a record by id, or ErrNotFound.
func (s *Store) GetRecord(ctx context.Context, id string) (domain.ComplianceRecord, error) {
	var row recordRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM compliance_records WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ComplianceRecord{}, fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.ComplianceRecord{}, fmt.Errorf("get record: %w", err)
	}
	return row.toDomain()
}

// ListRecords returns a supplier's records newest-first with an optional
// metric filter. A non-positive limit returns everything after the offset.
func (s *Store) ListRecords(ctx context.Context, supplierID, metric string, offset, limit int) ([]domain.ComplianceRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT * FROM compliance_records WHERE supplier_id = ?`
	args := []any{supplierID}
	if metric != "" {
		query += ` AND metric = ?`
		args = append(args, metric)
	}
	query += ` ORDER BY date_recorded DESC, created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	return s.selectRecords(ctx, query, args...)
}

// RecentRecords returns the supplier's most recent records by date, newest
// first, capped at limit.
func (s *Store) RecentRecords(ctx context.Context, supplierID string, limit int) ([]domain.ComplianceRecord, error) {
	return s.selectRecords(ctx, `
		SELECT * FROM compliance_records
		WHERE supplier_id = ?
		ORDER BY date_recorded DESC, created_at DESC
		LIMIT ?`,
		supplierID, limit)
}

// RecordsOnDate returns the supplier's records with the given status on
// exactly the given date.
func (s *Store) RecordsOnDate(ctx context.Context, supplierID string, date time.Time, status domain.Verdict) ([]domain.ComplianceRecord, error) {
	return s.selectRecords(ctx, `
		SELECT * FROM compliance_records
		WHERE supplier_id = ? AND date_recorded = ? AND status = ?`,
		supplierID, date.Format(time.DateOnly), string(status))
}

// RecordsSince returns the supplier's records dated on or after since,
// newest first. A non-positive limit returns all of them.
func (s *Store) RecordsSince(ctx context.Context, supplierID string, since time.Time, limit int) ([]domain.ComplianceRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.selectRecords(ctx, `
		SELECT * FROM compliance_records
		WHERE supplier_id = ? AND date_recorded >= ?
		ORDER BY date_recorded DESC, created_at DESC
		LIMIT ?`,
		supplierID, since.Format(time.DateOnly), limit)
}

// CountRecordsSince returns total and compliant record counts across all
// suppliers since the given date.
func (s *Store) CountRecordsSince(ctx context.Context, since time.Time) (total, compliant int, err error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		FROM compliance_records
		WHERE date_recorded >= ?`,
		string(domain.VerdictCompliant), since.Format(time.DateOnly))
	if err := row.Scan(&total, &compliant); err != nil {
		return 0, 0, fmt.Errorf("count records: %w", err)
	}
	return total, compliant, nil
}

func (s *Store) selectRecords(ctx context.Context, query string, args ...any) ([]domain.ComplianceRecord, error) {
	var rows []recordRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}
	records := make([]domain.ComplianceRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
