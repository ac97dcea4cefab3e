package analysis

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the root of every caller mistake; the HTTP edge maps it to 400.
var ErrInvalidInput = errors.New("invalid input")

var (
	ErrInvalidScanType  = fmt.Errorf("%w: invalid scan type", ErrInvalidInput)
	ErrMissingPatientID = fmt.Errorf("%w: patient ID is required", ErrInvalidInput)
	ErrMissingFile      = fmt.Errorf("%w: no file provided", ErrInvalidInput)
	ErrEmptyQuery       = fmt.Errorf("%w: no query provided", ErrInvalidInput)
)

// ErrModelUnavailable is returned by an adapter whose initialization failed.
var ErrModelUnavailable = errors.New("model unavailable")

// ErrAnalysisInProgress is returned when the overlap policy rejects a second analysis.
var ErrAnalysisInProgress = errors.New("analysis already in progress")

// ErrNotFound indicates no stored analysis has the requested id.
var ErrNotFound = errors.New("analysis not found")
