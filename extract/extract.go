// Package extract turns uploaded PDF and DOCX files into plain text and
// performs the lightweight checks applied before a document is sent for analysis.
package extract

import (
	"errors"
	"strings"

	"legalklarity-backend/validation"
)

var ErrUnsupportedType = errors.New("unsupported document type")

// Text extracts plain text from the document bytes according to its MIME type.
func Text(mimeType string, data []byte) (string, error) {
	var out []byte
	switch {
	case strings.HasPrefix(mimeType, validation.MimeTypePDF):
		out = PDF(data)
	case strings.HasPrefix(mimeType, validation.MimeTypeDOCX):
		out = DOCX(data)
	default:
		return "", ErrUnsupportedType
	}
	return strings.TrimSpace(string(out)), nil
}
