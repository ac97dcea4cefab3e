package dicom

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	domain "github.com/bryanwahyu/medscan/internal/domain/analysis"
)

func mustNewElement(t *testing.T, tg tag.Tag, value interface{}) *dicom.Element {
	t.Helper()
	elem, err := dicom.NewElement(tg, value)
	if err != nil {
		t.Fatalf("new element %v: %v", tg, err)
	}
	return elem
}

func writeDICOM(t *testing.T, modality string) []byte {
	t.Helper()
	ds := dicom.Dataset{Elements: []*dicom.Element{
		mustNewElement(t, tag.FileMetaInformationVersion, []byte{0x00, 0x01}),
		mustNewElement(t, tag.MediaStorageSOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.1.1"}),
		mustNewElement(t, tag.MediaStorageSOPInstanceUID, []string{"1.2.826.0.1.3680043.8.498.2"}),
		mustNewElement(t, tag.TransferSyntaxUID, []string{"1.2.840.10008.1.2.1"}),
		mustNewElement(t, tag.ImplementationClassUID, []string{"1.2.826.0.1.3680043.8.498"}),
		mustNewElement(t, tag.PatientID, []string{"P1"}),
		mustNewElement(t, tag.Modality, []string{modality}),
		mustNewElement(t, tag.Rows, []int{512}),
		mustNewElement(t, tag.Columns, []int{256}),
	}}
	var buf bytes.Buffer
	if err := dicom.Write(&buf, ds); err != nil {
		t.Fatalf("write dicom: %v", err)
	}
	return buf.Bytes()
}

func TestInspect_ReadsHeader(t *testing.T) {
	data := writeDICOM(t, "DX")
	if !IsDICOM(data) {
		t.Fatal("written file not recognized as DICOM")
	}

	got, err := NewInspector().Inspect(data, domain.ScanXRay)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	want := &domain.ImageInfo{Modality: "DX", Rows: 512, Columns: 256, PatientID: "P1", ModalityMatches: true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ImageInfo mismatch (-want +got):\n%s", diff)
	}
}

func TestInspect_ModalityMismatch(t *testing.T) {
	got, err := NewInspector().Inspect(writeDICOM(t, "MR"), domain.ScanCT)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if got.ModalityMatches {
		t.Error("MR file reported as matching a CT request")
	}
}

func TestInspect_NotDICOM(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("\x89PNG\r\n"), bytes.Repeat([]byte{0}, 200)} {
		got, err := NewInspector().Inspect(data, domain.ScanMRI)
		if got != nil || err != nil {
			t.Errorf("Inspect(%d bytes) = (%v, %v), want (nil, nil)", len(data), got, err)
		}
	}
}

func TestInspect_Malformed(t *testing.T) {
	data := append(make([]byte, preambleLen), []byte(magic+"\x02\x00")...)
	_, err := NewInspector().Inspect(data, domain.ScanMRI)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}
