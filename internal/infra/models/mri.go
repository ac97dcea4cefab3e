package models

import domain "github.com/bryanwahyu/medscan/internal/domain/analysis"

var mriPrediction = domain.RawPrediction{
	Prediction: "Small Vessel Ischemic Disease",
	Confidence: 0.92,
	Regions: []domain.RegionFinding{
		{Name: "Cerebral Cortex", Normal: false, Confidence: 0.88},
		{Name: "Ventricles", Normal: true, Confidence: 0.95},
		{Name: "White Matter", Normal: false, Confidence: 0.91},
		{Name: "Brain Stem", Normal: true, Confidence: 0.97},
	},
	Abnormalities: []string{
		"Multiple small hyperintense foci in periventricular white matter",
		"Mild cortical atrophy consistent with age",
	},
}

// NewMRI builds the brain MRI adapter.
func NewMRI(opts Options) *Adapter {
	return newAdapter(domain.ScanMRI, mriPrediction, opts)
}
