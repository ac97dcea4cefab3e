package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/bryanwahyu/medscan/internal/domain/analysis"
)

const schema = `
CREATE TABLE IF NOT EXISTS scan_analyses (
  id                 TEXT             PRIMARY KEY,
  scan_type          TEXT             NOT NULL,
  patient_id         TEXT             NOT NULL,
  analysis_date      TIMESTAMPTZ      NOT NULL,
  detected_condition TEXT             NOT NULL DEFAULT '',
  confidence         DOUBLE PRECISION NOT NULL,
  payload            JSONB            NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scan_analyses_date ON scan_analyses (analysis_date DESC);
CREATE INDEX IF NOT EXISTS idx_scan_analyses_patient ON scan_analyses (patient_id);`

type AnalysisRepository struct{ db *sql.DB }

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository { return &AnalysisRepository{db: db} }

func (r *AnalysisRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Save insert/update Result record
func (r *AnalysisRepository) Save(ctx context.Context, res *domain.Result) error {
	const q = `
INSERT INTO scan_analyses
(id, scan_type, patient_id, analysis_date, detected_condition, confidence, payload)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
 detected_condition = EXCLUDED.detected_condition,
 confidence = EXCLUDED.confidence,
 payload = EXCLUDED.payload;`

	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encoding analysis: %w", err)
	}
	date := res.AnalysisDate
	if date.IsZero() {
		date = time.Now()
	}
	_, err = r.db.ExecContext(ctx, q,
		res.ID, string(res.ScanType), res.PatientInfo.PatientID, date.UTC(),
		res.Findings.DetectedCondition, res.Confidence, string(payload),
	)
	return err
}

func (r *AnalysisRepository) Get(ctx context.Context, id string) (*domain.Result, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM scan_analyses WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(payload)
}

func (r *AnalysisRepository) Paginate(ctx context.Context, page, pageSize int, f domain.ListFilter) ([]*domain.Result, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	query, args := listQuery(f, pageSize, (page-1)*pageSize)

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
		res, err := decode(payload)
		if err != nil {
			return nil, fmt.Errorf("decoding analysis: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// listQuery numbers placeholders in the order the filters are applied.
func listQuery(f domain.ListFilter, limit, offset int) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	if f.ScanType != "" {
		args = append(args, string(f.ScanType))
		where = append(where, fmt.Sprintf("scan_type = $%d", len(args)))
	}
	if f.PatientID != "" {
		args = append(args, f.PatientID)
		where = append(where, fmt.Sprintf("patient_id = $%d", len(args)))
	}

	q := "SELECT payload FROM scan_analyses"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit, offset)
	q += fmt.Sprintf(" ORDER BY analysis_date DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return q, args
}

func decode(payload []byte) (*domain.Result, error) {
	var r domain.Result
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, err
	}
	r.Findings = r.Findings.Normalize()
	return &r, nil
}
