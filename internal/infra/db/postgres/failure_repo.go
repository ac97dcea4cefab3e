package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/medscan/internal/domain/analysis"
)

const failureSchema = `
CREATE TABLE IF NOT EXISTS scan_analysis_failures (
  seq        BIGSERIAL   PRIMARY KEY,
  id         TEXT        NOT NULL,
  scan_type  TEXT        NOT NULL,
  patient_id TEXT        NOT NULL,
  file_name  TEXT        NOT NULL,
  phase      TEXT        NOT NULL,
  message    TEXT        NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scan_analysis_failures_created ON scan_analysis_failures (created_at DESC);`

// FailureRepository implements domain.FailureLog.
type FailureRepository struct{ db *sql.DB }

func NewFailureRepository(db *sql.DB) *FailureRepository { return &FailureRepository{db: db} }

func (r *FailureRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, failureSchema)
	return err
}

func (r *FailureRepository) Record(ctx context.Context, f *domain.Failure) error {
	created := f.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO scan_analysis_failures (id, scan_type, patient_id, file_name, phase, message, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		f.ID, string(f.ScanType), f.PatientID, f.FileName, f.Phase, f.Message, created.UTC())
	if err != nil {
		return fmt.Errorf("inserting failure: %w", err)
	}
	return nil
}

func (r *FailureRepository) Recent(ctx context.Context, limit int) ([]*domain.Failure, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, scan_type, patient_id, file_name, phase, message, created_at
FROM scan_analysis_failures
ORDER BY created_at DESC, seq DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying failures: %w", err)
	}
	defer rows.Close()

	var out []*domain.Failure
	for rows.Next() {
		var (
			f        domain.Failure
			scanType string
		)
		if err := rows.Scan(&f.ID, &scanType, &f.PatientID, &f.FileName, &f.Phase, &f.Message, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning failure: %w", err)
		}
		f.ScanType = domain.ScanType(scanType)
		out = append(out, &f)
	}
	return out, rows.Err()
}
