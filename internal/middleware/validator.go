package middleware

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	domain "github.com/bryanwahyu/medscan/internal/domain/analysis"
)

const (
	maxPatientIDLen = 64
	maxFreeTextLen  = 4000

	defaultPageSize = 20
	maxPageSize     = 100
)

func ValidateScanType(scanType string) (domain.ScanType, error) {
	return domain.ParseScanType(scanType)
}

// ValidateScanResult checks a caller-supplied result before it is used as
// query context: the scan type must be known and the findings invariant is
// re-applied.
func ValidateScanResult(r *domain.Result) error {
	st, err := domain.ParseScanType(string(r.ScanType))
	if err != nil {
		return err
	}
	r.ScanType = st
	r.Findings = r.Findings.Normalize()
	return nil
}

// ValidatePatientID rejects blank, overlong or control-character IDs.
func ValidatePatientID(id string) error {
	id = strings.TrimSpace(id)
	switch {
	case id == "":
		return domain.ErrMissingPatientID
	case utf8.RuneCountInString(id) > maxPatientIDLen:
		return fmt.Errorf("%w: patient ID longer than %d characters", domain.ErrInvalidInput, maxPatientIDLen)
	case strings.IndexFunc(id, unicode.IsControl) >= 0:
		return fmt.Errorf("%w: patient ID contains control characters", domain.ErrInvalidInput)
	}
	return nil
}

// ValidateAnalysisID accepts only the canonical lowercase uuid form the
// service generates.
func ValidateAnalysisID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: analysis ID cannot be empty", domain.ErrInvalidInput)
	}
	if u, err := uuid.Parse(id); err != nil || u.String() != id {
		return fmt.Errorf("%w: invalid analysis ID format", domain.ErrInvalidInput)
	}
	return nil
}

// SanitizeString drops control characters except tab and newline, then trims.
func SanitizeString(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || !unicode.IsControl(r) {
			return r
		}
		return -1
	}, s))
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// SanitizePatient cleans the free-text fields. The ID is only trimmed;
// ValidatePatientID decides whether it is acceptable.
func SanitizePatient(p domain.PatientInfo) domain.PatientInfo {
	clean := func(s string) string { return truncateRunes(SanitizeString(s), maxFreeTextLen) }
	return domain.PatientInfo{
		PatientID:       strings.TrimSpace(p.PatientID),
		PatientName:     clean(p.PatientName),
		PatientAge:      clean(p.PatientAge),
		PatientGender:   clean(p.PatientGender),
		ScanDate:        clean(p.ScanDate),
		ClinicalHistory: clean(p.ClinicalHistory),
	}
}

// ValidateLimit clamps a page size to (0, 100], defaulting to 20.
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	return min(limit, maxPageSize)
}

func ValidatePage(page int) int { return max(page, 1) }
