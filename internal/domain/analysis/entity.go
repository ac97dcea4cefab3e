package analysis

import (
	"fmt"
	"strings"
	"time"
)

// ScanType enum
type ScanType string

const (
	ScanMRI  ScanType = "mri"
	ScanCT   ScanType = "ct"
	ScanXRay ScanType = "xray"
)

// ScanTypes lists the scan types that have a model adapter, in display order.
var ScanTypes = []ScanType{ScanMRI, ScanCT, ScanXRay}

// ParseScanType validates a raw scan type coming from a caller.
func ParseScanType(s string) (ScanType, error) {
	st := ScanType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ScanTypes {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidScanType, s)
}

// Label is the human form used in narratives ("MRI", "CT", "X-ray").
func (s ScanType) Label() string {
	switch s {
	case ScanMRI:
		return "MRI"
	case ScanCT:
		return "CT"
	case ScanXRay:
		return "X-ray"
	default:
		return strings.ToUpper(string(s))
	}
}

// PatientInfo value object; only PatientID is required.
type PatientInfo struct {
	PatientID       string `json:"patientId"`
	PatientName     string `json:"patientName,omitempty"`
	PatientAge      string `json:"patientAge,omitempty"`
	PatientGender   string `json:"patientGender,omitempty"`
	ScanDate        string `json:"scanDate,omitempty"`
	ClinicalHistory string `json:"clinicalHistory,omitempty"`
}

// RegionFinding is the model's verdict for one anatomical region.
type RegionFinding struct {
	Name       string  `json:"name"`
	Normal     bool    `json:"normal"`
	Confidence float64 `json:"confidence"`
}

// Findings value object
type Findings struct {
	Normal                bool            `json:"normal"`
	DetectedCondition     string          `json:"detectedCondition,omitempty"`
	Abnormalities         []string        `json:"abnormalities"`
	Regions               []RegionFinding `json:"regions"`
	DifferentialDiagnosis string          `json:"differentialDiagnosis,omitempty"`
	AdditionalNotes       string          `json:"additionalNotes,omitempty"`
}

// Normalize enforces that a normal finding carries no condition and no
// abnormalities, and that the sequences are never nil on the wire.
func (f Findings) Normalize() Findings {
	if f.Normal {
		f.DetectedCondition = ""
		f.Abnormalities = nil
	}
	if f.Abnormalities == nil {
		f.Abnormalities = []string{}
	}
	if f.Regions == nil {
		f.Regions = []RegionFinding{}
	}
	return f
}

// ImageInfo summarizes the DICOM header of the uploaded file, when it has one.
type ImageInfo struct {
	Modality        string `json:"modality,omitempty"`
	Rows            int    `json:"rows,omitempty"`
	Columns         int    `json:"columns,omitempty"`
	PatientID       string `json:"patientId,omitempty"`
	ModalityMatches bool   `json:"modalityMatches"`
}

// Aggregate Root: Result
type Result struct {
	ID             string      `json:"id"`
	ScanType       ScanType    `json:"scanType"`
	FileName       string      `json:"fileName"`
	FileSize       int64       `json:"fileSize"`
	FileURL        string      `json:"fileUrl,omitempty"`
	AnalysisDate   time.Time   `json:"analysisDate"`
	PatientInfo    PatientInfo `json:"patientInfo"`
	Confidence     float64     `json:"confidence"`
	Findings       Findings    `json:"findings"`
	AIAnalysis     string      `json:"aiAnalysis"`
	Recommendation string      `json:"recommendation"`
	Image          *ImageInfo  `json:"image,omitempty"`
}
