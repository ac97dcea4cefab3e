package query

import (
	"strings"

	"github.com/bryanwahyu/medscan/internal/domain/analysis"
)

// GenericFallback is returned when nothing matched and there is no scan context.
const GenericFallback = "I understand you're asking about medical imaging. Could you provide more specific details about " +
	"what you'd like to know? I can provide information about different scan types (MRI, CT, X-Ray), specific " +
	"conditions, or the analysis process."

// shortcut is a scan-type specific answer that wins over every other rule.
type shortcut struct {
	scanType analysis.ScanType
	keywords []string
	answer   func(r *analysis.Result) string
}

var shortcuts = []shortcut{
	{
		scanType: analysis.ScanMRI,
		keywords: []string{"abnormal", "finding"},
		answer:   func(r *analysis.Result) string { return strings.Join(r.Findings.Abnormalities, ". ") },
	},
	{
		scanType: analysis.ScanCT,
		keywords: []string{"nodule"},
		answer: func(*analysis.Result) string {
			return "The CT scan shows an 8mm nodule in the right upper lobe. This requires follow-up to ensure it's not malignant."
		},
	},
	{
		scanType: analysis.ScanXRay,
		keywords: []string{"pneumonia"},
		answer: func(*analysis.Result) string {
			return "The X-ray shows findings consistent with pneumonia in the left lower lobe. There is an opacity and potential small pleural effusion."
		},
	},
}

type topic struct {
	keyword   string
	sentences []string
}

// vocabulary is checked in slice order; the first keyword found in the query wins.
var vocabulary = []topic{
	{"mri", []string{
		"Magnetic Resonance Imaging (MRI) is a non-invasive imaging technique that uses magnetic fields and radio waves to create detailed images of organs and tissues.",
		"MRI is particularly useful for imaging the brain, spinal cord, nerves, muscles, ligaments, and tendons.",
		"Unlike CT scans and X-rays, MRI doesn't use radiation.",
	}},
	{"ct", []string{
		"Computed Tomography (CT) scans use X-rays to create detailed cross-sectional images of the body.",
		"CT scans are particularly useful for quickly examining people who may have internal injuries from accidents or other trauma.",
		"CT scans involve exposure to radiation, but the benefit of an accurate diagnosis generally outweighs the risk.",
	}},
	{"xray", []string{
		"X-rays are a form of electromagnetic radiation that can pass through most objects, including the body.",
		"X-rays are commonly used to examine broken bones, cavities, swallowed objects, and lung conditions.",
		"X-ray imaging involves exposure to a small amount of radiation.",
	}},
	{"pneumonia", []string{
		"Pneumonia is an infection that inflames the air sacs in one or both lungs, which may fill with fluid.",
		"On X-rays, pneumonia often appears as a white opacity or consolidation in the affected lung area.",
		"Common symptoms include cough, fever, fatigue, and difficulty breathing.",
	}},
	{"nodule", []string{
		"A pulmonary nodule is a small, round or oval-shaped growth in the lung.",
		"Nodules appear as round, white shadows on a chest X-ray or CT scan.",
		"Most nodules are benign, but some may represent early lung cancer, especially in smokers.",
	}},
	{"ischemic", []string{
		"Small vessel ischemic disease refers to damage to the small blood vessels in the brain.",
		"On MRI, it appears as small, bright spots (hyperintensities) in the white matter.",
		"It's often associated with aging, hypertension, diabetes, and smoking.",
	}},
}
