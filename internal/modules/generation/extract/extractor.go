// Package extract reads lesson uploads: it checks them against the upload
// policy and pulls plain text out of txt, pdf, docx and pptx files.
package extract

import (
	"fmt"
	"mime"
	"strings"
)

const (
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimePDF  = "application/pdf"
	MimePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	MimeText = "text/plain"
)

// Extractor handles one lesson file format.
type Extractor interface {
	// Format is the short label used in messages ("TXT", "PDF", ...).
	Format() string
	// Extract returns the text content of the file at path.
	Extract(path string) (string, error)
	// ValidateNoMedia reports true when the file carries no images, shapes
	// or embedded media.
	ValidateNoMedia(path string) (bool, error)
}

// ExtractionError wraps a format parser failure.
type ExtractionError struct {
	Format string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("Failed to extract text from %s file: %v", e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// NormalizeMime lowercases a content type and drops its parameters.
func NormalizeMime(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = contentType
		if i := strings.IndexByte(mt, ';'); i >= 0 {
			mt = mt[:i]
		}
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

// ForMimeType selects the extractor for a supported upload type.
func ForMimeType(contentType string) (Extractor, error) {
	switch NormalizeMime(contentType) {
	case MimeDOCX:
		return DocxExtractor{}, nil
	case MimePDF:
		return PdfExtractor{}, nil
	case MimePPTX:
		return PptxExtractor{}, nil
	case MimeText:
		return TxtExtractor{}, nil
	default:
		return nil, fmt.Errorf("Unsupported file type: %s", contentType)
	}
}
