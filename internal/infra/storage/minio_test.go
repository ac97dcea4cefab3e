package storage

import (
	"testing"

	domain "github.com/bryanwahyu/medscan/internal/domain/analysis"
)

func TestContentType(t *testing.T) {
	testCases := []struct {
		up   domain.Upload
		want string
	}{
		{domain.Upload{FileName: "a.dcm"}, "application/dicom"},
		{domain.Upload{FileName: "A.JPG"}, "image/jpeg"},
		{domain.Upload{FileName: "scan.png", ContentType: "application/octet-stream"}, "image/png"},
		{domain.Upload{FileName: "scan.bin", ContentType: "image/webp"}, "image/webp"},
		{domain.Upload{FileName: "scan"}, "application/octet-stream"},
	}
	for _, tc := range testCases {
		if got := contentType(tc.up); got != tc.want {
			t.Errorf("contentType(%+v) = %q, want %q", tc.up, got, tc.want)
		}
	}
}
