package analysis

import (
	"fmt"
	"strings"
)

// Narrative is the text that accompanies a prediction in a Result.
type Narrative struct {
	Condition      string
	Differential   string
	Notes          string
	Analysis       string
	Recommendation string
}

// GenericConfidence is reported for results produced without a model.
const GenericConfidence = 0.75

// NormalNarrative is used for normal predictions and for scan types without an adapter.
var NormalNarrative = Narrative{
	Analysis:       "No significant abnormalities detected.",
	Recommendation: "No specific follow-up required based on imaging findings.",
}

type narrativeKey struct {
	scanType   ScanType
	prediction string
}

var narratives = map[narrativeKey]Narrative{
	{ScanMRI, "small vessel ischemic disease"}: {
		Condition:    "Possible Small Vessel Ischemic Disease",
		Differential: "Small vessel ischemic disease vs. demyelinating disease",
		Notes:        "Findings are consistent with age-related changes, but clinical correlation is recommended.",
		Analysis: "The MRI shows multiple small hyperintense foci in the periventricular white matter, which may represent " +
			"small vessel ischemic disease. There is also mild cortical atrophy, which is consistent with the patient's age. " +
			"No evidence of mass effect, midline shift, or acute infarction.",
		Recommendation: "Clinical correlation is recommended. Consider follow-up imaging in 6-12 months to monitor progression. " +
			"Vascular risk factor management may be beneficial.",
	},
	{ScanCT, "pulmonary nodule"}: {
		Condition:    "Pulmonary Nodule",
		Differential: "Benign granuloma vs. primary lung neoplasm",
		Notes:        "No evidence of pleural effusion or pneumothorax. Cardiac silhouette is within normal limits.",
		Analysis: "The CT scan reveals an 8mm nodule in the right upper lobe, which requires further evaluation. " +
			"There are also mild emphysematous changes in both lungs, likely related to the patient's smoking history. " +
			"No evidence of pleural effusion, pneumothorax, or lymphadenopathy.",
		Recommendation: "Follow-up CT in 3 months to assess for stability of the nodule. Consider PET-CT if the nodule shows " +
			"growth or concerning features. Smoking cessation counseling is recommended.",
	},
	{ScanXRay, "possible pneumonia"}: {
		Condition:    "Possible Pneumonia",
		Differential: "Pneumonia vs. atelectasis vs. early pulmonary edema",
		Notes:        "No visible fractures or pneumothorax. Cardiac silhouette is not enlarged.",
		Analysis: "The X-ray shows an opacity in the left lower lung region, which may indicate pneumonia. " +
			"There is also a potential small pleural effusion on the left side. The right lung appears clear. " +
			"No visible fractures or cardiac enlargement.",
		Recommendation: "Clinical correlation with patient symptoms is advised. Consider antibiotic therapy if consistent " +
			"with pneumonia. Follow-up imaging in 2-4 weeks to ensure resolution.",
	},
}

// NarrativeFor picks the text for a prediction: the curated narrative when the
// (scan type, prediction) pair is known, a per-scan-type template otherwise.
func NarrativeFor(st ScanType, p RawPrediction) Narrative {
	if p.IsNormal() {
		return NormalNarrative
	}
	key := narrativeKey{scanType: st, prediction: strings.ToLower(strings.TrimSpace(p.Prediction))}
	if n, ok := narratives[key]; ok {
		return n
	}

	condition := strings.TrimSpace(p.Prediction)
	if condition == "" {
		condition = "an unspecified abnormality"
	}
	analysis := fmt.Sprintf("The %s analysis suggests %s.", st.Label(), condition)
	if len(p.Abnormalities) > 0 {
		analysis += fmt.Sprintf(" Notable findings: %s.", strings.Join(p.Abnormalities, "; "))
	}
	return Narrative{
		Condition:      condition,
		Analysis:       analysis,
		Recommendation: fmt.Sprintf("Clinical correlation is recommended. Review the %s findings with the referring physician.", st.Label()),
	}
}

// NewFindings combines a prediction with its narrative.
func NewFindings(p RawPrediction, n Narrative) Findings {
	f := Findings{
		Normal:                p.IsNormal(),
		DetectedCondition:     n.Condition,
		Abnormalities:         append([]string(nil), p.Abnormalities...),
		Regions:               append([]RegionFinding(nil), p.Regions...),
		DifferentialDiagnosis: n.Differential,
		AdditionalNotes:       n.Notes,
	}
	return f.Normalize()
}
