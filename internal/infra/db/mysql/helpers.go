package mysql

import (
	"encoding/json"
	"strings"

	domain "github.com/bryanwahyu/medscan/internal/domain/analysis"
)

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func decodeResult(payload []byte) (*domain.Result, error) {
	var r domain.Result
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, err
	}
	r.Findings = r.Findings.Normalize()
	return &r, nil
}
