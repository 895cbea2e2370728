package validation

import (
	"errors"
	"testing"
)

func TestValidateAcceptsAllowedTypes(t *testing.T) {
	for _, mt := range []string{MimeTypePDF, MimeTypeDOCX, "application/pdf; charset=binary"} {
		for _, size := range []int64{0, 1, 1024, MaxFileSize} {
			if err := Validate(mt, size); err != nil {
				t.Fatalf("Validate(%q, %d): unexpected error %v", mt, size, err)
			}
		}
	}
}

func TestValidateRejectsDisallowedType(t *testing.T) {
	for _, mt := range []string{"", "text/plain", "application/msword", "image/png", "application/octet-stream"} {
		err := Validate(mt, 10)
		if !errors.Is(err, ErrInvalidFileType) {
			t.Fatalf("Validate(%q): expected ErrInvalidFileType, got %v", mt, err)
		}
		var vErr *Error
		if !errors.As(err, &vErr) || vErr.Kind != KindInvalidFileType {
			t.Fatalf("Validate(%q): expected *Error of kind InvalidFileType, got %#v", mt, err)
		}
		if vErr.Message == "" {
			t.Fatalf("expected a human-readable message")
		}
	}
}

func TestValidateRejectsOversizedRegardlessOfType(t *testing.T) {
	for _, mt := range []string{MimeTypePDF, MimeTypeDOCX, "text/plain", ""} {
		err := Validate(mt, MaxFileSize+1)
		if !errors.Is(err, ErrFileTooLarge) {
			t.Fatalf("Validate(%q, max+1): expected ErrFileTooLarge, got %v", mt, err)
		}
		if errors.Is(err, ErrInvalidFileType) {
			t.Fatalf("size error must not match ErrInvalidFileType")
		}
	}
}

func TestMIMEFromFilename(t *testing.T) {
	cases := map[string]string{
		"lease.PDF":     MimeTypePDF,
		"offer.docx":    MimeTypeDOCX,
		"notes.txt":     "application/octet-stream",
		"no-extension":  "application/octet-stream",
		"archive.pdf.x": "application/octet-stream",
	}
	for name, want := range cases {
		if got := MIMEFromFilename(name); got != want {
			t.Fatalf("MIMEFromFilename(%q) = %q, want %q", name, got, want)
		}
	}
}
