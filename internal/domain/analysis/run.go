package analysis

import "strings"

// Upload is the scan file handed to the dispatcher
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Data        []byte
}

// RawPrediction hasil dari ModelAdapter
type RawPrediction struct {
	Prediction    string          `json:"prediction"`
	Confidence    float64         `json:"confidence"`
	Regions       []RegionFinding `json:"regions"`
	Abnormalities []string        `json:"abnormalities"`
}

// IsNormal reports whether the model found nothing worth naming.
func (p RawPrediction) IsNormal() bool {
	if len(p.Abnormalities) > 0 {
		return false
	}
	pred := strings.TrimSpace(p.Prediction)
	return pred == "" || strings.EqualFold(pred, "normal")
}

// Clone returns a deep copy so callers cannot mutate an adapter's payload.
func (p RawPrediction) Clone() RawPrediction {
	out := p
	out.Regions = append([]RegionFinding(nil), p.Regions...)
	out.Abnormalities = append([]string(nil), p.Abnormalities...)
	return out
}
