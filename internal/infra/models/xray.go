package models

import domain "github.com/bryanwahyu/medscan/internal/domain/analysis"

var xrayPrediction = domain.RawPrediction{
	Prediction: "Possible Pneumonia",
	Confidence: 0.87,
	Regions: []domain.RegionFinding{
		{Name: "Right Lung", Normal: true, Confidence: 0.93},
		{Name: "Left Lung", Normal: false, Confidence: 0.89},
		{Name: "Heart", Normal: true, Confidence: 0.95},
		{Name: "Diaphragm", Normal: true, Confidence: 0.92},
	},
	Abnormalities: []string{
		"Opacity in the lower left lung",
		"Potential pleural effusion",
	},
}

// NewXRay builds the chest X-ray adapter.
func NewXRay(opts Options) *Adapter {
	return newAdapter(domain.ScanXRay, xrayPrediction, opts)
}
