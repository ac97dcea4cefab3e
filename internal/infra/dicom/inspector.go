package dicom

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	domain "github.com/bryanwahyu/medscan/internal/domain/analysis"
)

// Part 10 files carry a 128 byte preamble followed by this magic.
const (
	preambleLen = 128
	magic       = "DICM"
)

// modalities maps DICOM Modality codes to the scan type that analyzes them.
var modalities = map[string]domain.ScanType{
	"MR": domain.ScanMRI,
	"CT": domain.ScanCT,
	"CR": domain.ScanXRay,
	"DX": domain.ScanXRay,
	"DR": domain.ScanXRay,
	"RG": domain.ScanXRay,
}

// Inspector reads the header of an uploaded DICOM file. Pixel data is skipped.
type Inspector struct{}

func NewInspector() *Inspector { return &Inspector{} }

// IsDICOM reports whether data starts like a DICOM Part 10 file.
func IsDICOM(data []byte) bool {
	return len(data) >= preambleLen+len(magic) && string(data[preambleLen:preambleLen+len(magic)]) == magic
}

// Inspect returns nil, nil for files that are not DICOM (JPEG, PNG, ...).
// A file that claims to be DICOM but does not parse is invalid input.
func (i *Inspector) Inspect(data []byte, scanType domain.ScanType) (*domain.ImageInfo, error) {
	if !IsDICOM(data) {
		return nil, nil
	}
	ds, err := dicom.Parse(bytes.NewReader(data), int64(len(data)), nil, dicom.SkipPixelData())
	if err != nil {
		return nil, fmt.Errorf("%w: malformed DICOM: %v", domain.ErrInvalidInput, err)
	}

	info := &domain.ImageInfo{
		Modality:  stringValue(ds, tag.Modality),
		Rows:      intValue(ds, tag.Rows),
		Columns:   intValue(ds, tag.Columns),
		PatientID: stringValue(ds, tag.PatientID),
	}
	info.ModalityMatches = modalities[strings.ToUpper(info.Modality)] == scanType
	if !info.ModalityMatches {
		logrus.WithFields(logrus.Fields{
			"modality":  info.Modality,
			"scan_type": scanType,
		}).Warn("DICOM modality does not match requested scan type")
	}
	return info, nil
}

func stringValue(ds dicom.Dataset, t tag.Tag) string {
	elem, err := ds.FindElementByTag(t)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.Trim(elem.Value.String(), " []"))
}

func intValue(ds dicom.Dataset, t tag.Tag) int {
	n, err := strconv.Atoi(stringValue(ds, t))
	if err != nil {
		return 0
	}
	return n
}
