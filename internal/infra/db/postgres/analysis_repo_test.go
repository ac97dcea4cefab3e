package postgres

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	domain "github.com/bryanwahyu/medscan/internal/domain/analysis"
)

func TestListQuery(t *testing.T) {
	testCases := []struct {
		name     string
		filter   domain.ListFilter
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:     "no filter",
			wantSQL:  "SELECT payload FROM scan_analyses ORDER BY analysis_date DESC, id DESC LIMIT $1 OFFSET $2",
			wantArgs: []interface{}{20, 40},
		},
		{
			name:     "patient only",
			filter:   domain.ListFilter{PatientID: "P1"},
			wantSQL:  "SELECT payload FROM scan_analyses WHERE patient_id = $1 ORDER BY analysis_date DESC, id DESC LIMIT $2 OFFSET $3",
			wantArgs: []interface{}{"P1", 20, 40},
		},
		{
			name:     "both",
			filter:   domain.ListFilter{ScanType: domain.ScanCT, PatientID: "P1"},
			wantSQL:  "SELECT payload FROM scan_analyses WHERE scan_type = $1 AND patient_id = $2 ORDER BY analysis_date DESC, id DESC LIMIT $3 OFFSET $4",
			wantArgs: []interface{}{"ct", "P1", 20, 40},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gotSQL, gotArgs := listQuery(tc.filter, 20, 40)
			if gotSQL != tc.wantSQL {
				t.Errorf("sql = %q\nwant  %q", gotSQL, tc.wantSQL)
			}
			if diff := cmp.Diff(tc.wantArgs, gotArgs); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeNormalizes(t *testing.T) {
	r, err := decode([]byte(`{"id":"a","scanType":"mri","findings":{"normal":true,"detectedCondition":"x","abnormalities":null}}`))
	if err != nil {
		t.Fatal(err)
	}
	if r.Findings.DetectedCondition != "" || r.Findings.Abnormalities == nil {
		t.Errorf("decoded findings not normalized: %+v", r.Findings)
	}
}
