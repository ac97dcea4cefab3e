package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/medscan/internal/domain/analysis"
)

const schema = `
CREATE TABLE IF NOT EXISTS scan_analyses (
  id                 VARCHAR(36)  NOT NULL PRIMARY KEY,
  scan_type          VARCHAR(16)  NOT NULL,
  patient_id         VARCHAR(128) NOT NULL,
  analysis_date      DATETIME(6)  NOT NULL,
  detected_condition VARCHAR(255) NOT NULL DEFAULT '',
  confidence         DOUBLE       NOT NULL,
  payload            JSON         NOT NULL,
  INDEX idx_scan_analyses_date (analysis_date),
  INDEX idx_scan_analyses_patient (patient_id)
);`

// AnalysisRepository stores every Result as JSON plus a few indexed columns.
type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Migrate creates the table when it does not exist.
func (r *AnalysisRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Save insert/update Result record
func (r *AnalysisRepository) Save(ctx context.Context, res *domain.Result) error {
	const q = `
INSERT INTO scan_analyses
(id, scan_type, patient_id, analysis_date, detected_condition, confidence, payload)
VALUES (?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 detected_condition=VALUES(detected_condition),
 confidence=VALUES(confidence),
 payload=VALUES(payload);
`
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encoding analysis: %w", err)
	}
	date := res.AnalysisDate
	if date.IsZero() {
		date = time.Now()
	}

	_, err = r.db.ExecContext(ctx, q,
		res.ID, stringOrDash(string(res.ScanType)), stringOrDash(res.PatientInfo.PatientID), date.UTC(),
		res.Findings.DetectedCondition, res.Confidence, payload,
	)
	return err
}

// Get by ID; a missing row is (nil, nil).
func (r *AnalysisRepository) Get(ctx context.Context, id string) (*domain.Result, error) {
	const q = `SELECT payload FROM scan_analyses WHERE id=? LIMIT 1;`

	var payload []byte
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return decodeResult(payload)
}

// Paginate with offset + limit, newest first
func (r *AnalysisRepository) Paginate(ctx context.Context, page, pageSize int, f domain.ListFilter) ([]*domain.Result, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	query := "SELECT payload FROM scan_analyses WHERE 1=1"
	var args []interface{}
	if f.ScanType != "" {
		query += " AND scan_type = ?"
		args = append(args, string(f.ScanType))
	}
	if f.PatientID != "" {
		query += " AND patient_id = ?"
		args = append(args, f.PatientID)
	}
	query += " ORDER BY analysis_date DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying analyses: %w", err)
	}
	defer rows.Close()

	var out []*domain.Result
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		res, err := decodeResult(payload)
		if err != nil {
			return nil, fmt.Errorf("decoding analysis: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return out, nil
}
