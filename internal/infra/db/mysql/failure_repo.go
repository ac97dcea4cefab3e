package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/medscan/internal/domain/analysis"
)

const failureSchema = `
CREATE TABLE IF NOT EXISTS scan_analysis_failures (
  seq        BIGINT       NOT NULL AUTO_INCREMENT PRIMARY KEY,
  id         VARCHAR(36)  NOT NULL,
  scan_type  VARCHAR(16)  NOT NULL,
  patient_id VARCHAR(128) NOT NULL,
  file_name  VARCHAR(255) NOT NULL,
  phase      VARCHAR(16)  NOT NULL,
  message    TEXT         NOT NULL,
  created_at DATETIME(6)  NOT NULL,
  INDEX idx_scan_analysis_failures_created (created_at)
);`

// FailureRepository implements domain.FailureLog.
type FailureRepository struct {
	db *sql.DB
}

func NewFailureRepository(db *sql.DB) *FailureRepository { return &FailureRepository{db: db} }

func (r *FailureRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, failureSchema)
	return err
}

func (r *FailureRepository) Record(ctx context.Context, f *domain.Failure) error {
	const q = `
INSERT INTO scan_analysis_failures
  (id, scan_type, patient_id, file_name, phase, message, created_at)
VALUES (?,?,?,?,?,?,?)
`
	msg := f.Message
	if strings.TrimSpace(msg) == "" {
		msg = "-"
	}
	created := f.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		stringOrDash(f.ID), stringOrDash(string(f.ScanType)), stringOrDash(f.PatientID),
		stringOrDash(f.FileName), stringOrDash(f.Phase), msg, created.UTC())
	return err
}

func (r *FailureRepository) Recent(ctx context.Context, limit int) ([]*domain.Failure, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, scan_type, patient_id, file_name, phase, message, created_at
FROM scan_analysis_failures
ORDER BY created_at DESC, seq DESC
LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Failure
	for rows.Next() {
		var (
			f        domain.Failure
			scanType string
		)
		if err := rows.Scan(&f.ID, &scanType, &f.PatientID, &f.FileName, &f.Phase, &f.Message, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.ScanType = domain.ScanType(scanType)
		out = append(out, &f)
	}
	return out, rows.Err()
}
