package analysis

import (
	"context"
	"time"
)

// Phases in which an analysis can fail.
const (
	PhasePredict = "predict"
	PhaseArchive = "archive"
	PhaseInspect = "inspect"
	PhaseSave    = "save"
)

// Failure is a persisted record of an analysis that produced no result.
type Failure struct {
	ID        string    `json:"id"`
	ScanType  ScanType  `json:"scanType"`
	PatientID string    `json:"patientId"`
	FileName  string    `json:"fileName"`
	Phase     string    `json:"phase"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// FailureLog port (interface untuk audit analisis yang gagal)
type FailureLog interface {
	Record(ctx context.Context, f *Failure) error
	Recent(ctx context.Context, limit int) ([]*Failure, error)
}
