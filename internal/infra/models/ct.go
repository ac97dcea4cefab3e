package models

import domain "github.com/bryanwahyu/medscan/internal/domain/analysis"

var ctPrediction = domain.RawPrediction{
	Prediction: "Pulmonary Nodule",
	Confidence: 0.89,
	Regions: []domain.RegionFinding{
		{Name: "Right Lung", Normal: false, Confidence: 0.92},
		{Name: "Left Lung", Normal: true, Confidence: 0.94},
		{Name: "Mediastinum", Normal: true, Confidence: 0.95},
		{Name: "Pleura", Normal: true, Confidence: 0.93},
	},
	Abnormalities: []string{
		"8mm nodule in right upper lobe",
		"Mild emphysematous changes in both lungs",
	},
}

// NewCT builds the chest CT adapter.
func NewCT(opts Options) *Adapter {
	return newAdapter(domain.ScanCT, ctPrediction, opts)
}
