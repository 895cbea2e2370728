package validation

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

const (
	MimeTypePDF  = "application/pdf"
	MimeTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	// MaxFileSize is the largest accepted upload (200 MiB).
	MaxFileSize int64 = 200 * 1024 * 1024
)

var allowedMimeTypes = map[string]bool{
	MimeTypePDF:  true,
	MimeTypeDOCX: true,
}

var (
	ErrInvalidFileType = errors.New("invalid file type")
	ErrFileTooLarge    = errors.New("file too large")
)

// Kind classifies a validation failure
type Kind string

const (
	KindInvalidFileType Kind = "InvalidFileType"
	KindFileTooLarge    Kind = "FileTooLarge"
)

// Error is returned when a candidate file is rejected
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is lets errors.Is match the sentinel for the failure kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindInvalidFileType:
		return target == ErrInvalidFileType
	case KindFileTooLarge:
		return target == ErrFileTooLarge
	}
	return false
}

// Validate accepts PDF and DOCX files up to MaxFileSize. The size limit is
// checked first so oversized files are rejected whatever their type.
func Validate(mimeType string, size int64) error {
	if size > MaxFileSize {
		return &Error{
			Kind:    KindFileTooLarge,
			Message: fmt.Sprintf("Please upload a file smaller than %dMB.", MaxFileSize/(1024*1024)),
		}
	}

	if !allowedMimeTypes[baseMimeType(mimeType)] {
		return &Error{
			Kind:    KindInvalidFileType,
			Message: "Please upload a PDF or DOCX file.",
		}
	}

	return nil
}

// MIMEFromFilename infers the MIME type from the file extension.
func MIMEFromFilename(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return MimeTypePDF
	case ".docx":
		return MimeTypeDOCX
	default:
		return "application/octet-stream"
	}
}

func baseMimeType(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return mediaType
}
