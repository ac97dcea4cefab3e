package analysis

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseScanType(t *testing.T) {
	testCases := []struct {
		in      string
		want    ScanType
		wantErr bool
	}{
		{"mri", ScanMRI, false},
		{" CT ", ScanCT, false},
		{"XRay", ScanXRay, false},
		{"x-ray", "", true},
		{"unknown", "", true},
		{"", "", true},
	}
	for _, tc := range testCases {
		got, err := ParseScanType(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidScanType) || !errors.Is(err, ErrInvalidInput) {
				t.Errorf("ParseScanType(%q) err = %v, want ErrInvalidScanType", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseScanType(%q) = (%q, %v), want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestFindingsNormalize(t *testing.T) {
	got := Findings{Normal: true, DetectedCondition: "x", Abnormalities: []string{"a"}}.Normalize()
	want := Findings{Normal: true, Abnormalities: []string{}, Regions: []RegionFinding{}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize mismatch (-want +got):\n%s", diff)
	}

	abnormal := Findings{DetectedCondition: "x", Abnormalities: []string{"a"}}.Normalize()
	if abnormal.DetectedCondition != "x" || len(abnormal.Abnormalities) != 1 {
		t.Errorf("abnormal findings changed: %+v", abnormal)
	}
}

func TestNarrativeFor(t *testing.T) {
	t.Run("curated", func(t *testing.T) {
		n := NarrativeFor(ScanCT, RawPrediction{Prediction: "Pulmonary Nodule", Abnormalities: []string{"8mm nodule"}})
		if n.Condition != "Pulmonary Nodule" || !strings.HasPrefix(n.Analysis, "The CT scan reveals an 8mm nodule") {
			t.Errorf("got %+v", n)
		}
	})
	t.Run("normal", func(t *testing.T) {
		n := NarrativeFor(ScanMRI, RawPrediction{Prediction: "normal"})
		if diff := cmp.Diff(NormalNarrative, n); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})
	t.Run("template", func(t *testing.T) {
		n := NarrativeFor(ScanXRay, RawPrediction{Prediction: "Rib Fracture", Abnormalities: []string{"a", "b"}})
		want := "The X-ray analysis suggests Rib Fracture. Notable findings: a; b."
		if n.Analysis != want || n.Condition != "Rib Fracture" {
			t.Errorf("got %+v, want analysis %q", n, want)
		}
	})
}

func TestNewFindingsCopiesPrediction(t *testing.T) {
	p := RawPrediction{
		Prediction:    "Possible Pneumonia",
		Abnormalities: []string{"opacity"},
		Regions:       []RegionFinding{{Name: "Left Lung", Confidence: 0.89}},
	}
	f := NewFindings(p, NarrativeFor(ScanXRay, p))
	p.Abnormalities[0] = "mutated"
	p.Regions[0].Name = "mutated"

	if f.Abnormalities[0] != "opacity" || f.Regions[0].Name != "Left Lung" {
		t.Errorf("findings share memory with prediction: %+v", f)
	}
	if f.Normal {
		t.Error("findings with abnormalities reported normal")
	}
}
