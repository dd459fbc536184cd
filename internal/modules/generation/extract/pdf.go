package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

type PdfExtractor struct{}

func (PdfExtractor) Format() string { return "PDF" }

func (PdfExtractor) Extract(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ExtractionError{Format: "PDF", Err: err}
	}
	text, err := pdfPlainText(data)
	if err != nil {
		return "", &ExtractionError{Format: "PDF", Err: err}
	}
	return strings.TrimSpace(text), nil
}

// pdfPlainText runs the text layer reader. The reader panics on some
// malformed inputs, so panics are turned into errors.
func pdfPlainText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plaintext: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return string(b), nil
}

// inspectPDF opens the document without extracting text; it surfaces the
// reader's error (encryption included).
func inspectPDF(path string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser: %v", r)
		}
	}()
	f, _, err := pdf.Open(path)
	if f != nil {
		_ = f.Close()
	}
	return err
}

var (
	pdfImageSubtype = regexp.MustCompile(`(?i)/Subtype\s*/Image[^a-zA-Z]`)
	pdfObjHeader    = regexp.MustCompile(`\d+\s+\d+\s+obj`)
	pdfXObjectType  = regexp.MustCompile(`(?i)/Type\s*/XObject`)
	pdfStreamAfter  = regexp.MustCompile(`(?is)^.{0,500}?>>.{0,100}?stream`)
	pdfImageFilter  = regexp.MustCompile(`(?i)/Filter.{0,100}?/(JPXDecode|DCTDecode|CCITTFaxDecode|JBIG2Decode|RunLengthDecode)`)
)

const (
	pdfObjWindow     = 1000
	pdfXObjectWindow = 300
	pdfDictWindow    = 500
)

// ValidateNoMedia scans the raw bytes for image objects. Every hit must sit
// inside an object definition so body text mentioning "Image" does not
// count. An unreadable file is treated as clean; extraction reports it.
func (PdfExtractor) ValidateNoMedia(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return true, nil
	}
	return !pdfHasImages(data), nil
}

func pdfHasImages(data []byte) bool {
	for _, loc := range pdfImageSubtype.FindAllIndex(data, -1) {
		at := loc[0]
		// image subtype inside an "N G obj" definition
		if pdfObjHeader.Match(window(data, at-pdfObjWindow-32, at)) {
			return true
		}
		// image XObject
		if pdfXObjectType.Match(window(data, at-pdfXObjectWindow-16, at)) {
			return true
		}
		// dictionary carrying the subtype, followed by its stream
		if bytes.Contains(window(data, at-pdfDictWindow, at), []byte("<<")) &&
			pdfStreamAfter.Match(window(data, loc[1], loc[1]+pdfDictWindow+110)) {
			return true
		}
		// image compression filter in the same object
		if pdfImageFilter.Match(window(data, loc[1], loc[1]+pdfDictWindow+120)) {
			return true
		}
	}
	return false
}

func window(b []byte, from, to int) []byte {
	from = max(0, from)
	to = min(len(b), to)
	if from >= to {
		return nil
	}
	return b[from:to]
}

// isPDFPasswordError matches the reader's failure for encrypted documents.
func isPDFPasswordError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, pdf.ErrInvalidPassword) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") || strings.Contains(msg, "encrypt")
}
