package analysis

// PaginatedResult represents a page of stored analyses
type PaginatedResult struct {
	Data     []*Result `json:"data"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}

// ListFilter narrows a history listing; empty fields match everything.
type ListFilter struct {
	ScanType  ScanType
	PatientID string
}

// Matches is used by repositories that filter in memory.
func (f ListFilter) Matches(r *Result) bool {
	if f.ScanType != "" && r.ScanType != f.ScanType {
		return false
	}
	if f.PatientID != "" && r.PatientInfo.PatientID != f.PatientID {
		return false
	}
	return true
}
