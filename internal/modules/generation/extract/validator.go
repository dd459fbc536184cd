package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxBytes is the upload ceiling when none is configured.
const DefaultMaxBytes int64 = 10 << 20

const (
	msgInvalidType   = "Invalid file type. Only DOCX, PDF, PPTX, and TXT files are allowed."
	msgMediaUpload   = "Pictures, videos, and shapes are not allowed."
	msgDocxPassword  = "File is password protected. Please remove password protection before uploading."
	msgPDFPassword   = "PDF is password protected. Please remove password protection before uploading."
	msgPptxPassword  = "Presentation is password protected. Please remove password protection before uploading."
	msgDocxMedia     = "File contains images or shapes. Please remove all images and shapes before uploading."
	msgPptxMedia     = "Presentation contains images or shapes. Please remove all images and shapes before uploading."
	msgPDFMedia      = "PDF contains images. Please remove all images before uploading."
	msgMediaCheckErr = "Could not validate media content: "
)

var allowedMimes = map[string]bool{
	MimeDOCX: true,
	MimePDF:  true,
	MimePPTX: true,
	MimeText: true,
}

var mimeByExt = map[string]string{
	".docx": MimeDOCX,
	".pptx": MimePPTX,
	".pdf":  MimePDF,
	".txt":  MimeText,
}

// UploadedFile describes an upload as the client declared it.
type UploadedFile struct {
	Name         string
	DeclaredMime string
	Size         int64
}

// ValidationResult is the outcome of ValidateAll. Mime is the effective
// content type and selects the extractor.
type ValidationResult struct {
	Valid bool
	Error string
	Mime  string
}

// Err returns nil for a valid result and a *ValidationError otherwise.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Message: r.Error}
}

// ValidationError carries a message meant for the uploader.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

type Validator struct {
	MaxBytes int64
}

func NewValidator(maxBytes int64) *Validator {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Validator{MaxBytes: maxBytes}
}

// TooLarge is the uploader message for a file over maxBytes.
func TooLarge(maxBytes int64) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf("File size exceeds the maximum limit of %s.", humanMB(maxBytes))}
}

// CheckSize rejects sizes over the limit. Unknown sizes (<= 0) pass.
func (v *Validator) CheckSize(size int64) error {
	if size > v.MaxBytes {
		return TooLarge(v.MaxBytes)
	}
	return nil
}

func invalid(msg string) ValidationResult {
	return ValidationResult{Valid: false, Error: msg}
}

// ValidateAll checks type, size, password protection and embedded media in
// that order and stops at the first failure.
func (v *Validator) ValidateAll(file UploadedFile, path string) ValidationResult {
	mt, err := v.DetectMime(file, path)
	if err != nil {
		return invalid(msgInvalidType)
	}
	if strings.HasPrefix(mt, "image/") || strings.HasPrefix(mt, "video/") {
		return invalid(msgMediaUpload)
	}
	if !allowedMimes[mt] {
		return invalid(msgInvalidType)
	}

	size := file.Size
	if size <= 0 {
		if st, err := os.Stat(path); err == nil {
			size = st.Size()
		}
	}
	if err := v.CheckSize(size); err != nil {
		return invalid(err.Error())
	}

	if msg := passwordProblem(mt, path); msg != "" {
		return invalid(msg)
	}

	ex, err := ForMimeType(mt)
	if err != nil {
		return invalid(msgInvalidType)
	}
	clean, err := ex.ValidateNoMedia(path)
	if err != nil {
		return invalid(msgMediaCheckErr + err.Error())
	}
	if !clean {
		return invalid(mediaMessage(mt))
	}
	return ValidationResult{Valid: true, Mime: mt}
}

// DetectMime sniffs the file content. Containers that cannot be told apart
// by content alone (bare zip, OLE storage used for encrypted Office files)
// fall back to the declared type or the extension when that names an
// Office format.
func (v *Validator) DetectMime(file UploadedFile, path string) (string, error) {
	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	mt := NormalizeMime(detected.String())

	if isContainer(detected) {
		if claimed := claimedOfficeMime(file); claimed != "" {
			return claimed, nil
		}
	}
	return mt, nil
}

func isContainer(m *mimetype.MIME) bool {
	return m.Is("application/zip") || m.Is("application/x-ole-storage")
}

func claimedOfficeMime(file UploadedFile) string {
	if d := NormalizeMime(file.DeclaredMime); d == MimeDOCX || d == MimePPTX {
		return d
	}
	if m := mimeByExt[strings.ToLower(filepath.Ext(file.Name))]; m == MimeDOCX || m == MimePPTX {
		return m
	}
	return ""
}

// oleSignature starts every compound file; an Office package saved with a
// password is wrapped in one instead of a zip.
var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

func passwordProblem(mt, path string) string {
	switch mt {
	case MimeDOCX, MimePPTX:
		if !ooxmlEncrypted(path) {
			return ""
		}
		if mt == MimeDOCX {
			return msgDocxPassword
		}
		return msgPptxPassword
	case MimePDF:
		if isPDFPasswordError(inspectPDF(path)) {
			return msgPDFPassword
		}
	}
	return ""
}

func ooxmlEncrypted(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	head := make([]byte, len(oleSignature))
	if _, err := f.Read(head); err != nil {
		return false
	}
	if bytes.Equal(head, oleSignature) {
		return true
	}
	zr, err := zip.OpenReader(path)
	if err != nil {
		return strings.Contains(strings.ToLower(err.Error()), "encrypt")
	}
	defer zr.Close()
	for _, zf := range zr.File {
		if zf.Name == "EncryptedPackage" || zf.Name == "EncryptionInfo" {
			return true
		}
	}
	return false
}

func mediaMessage(mt string) string {
	switch mt {
	case MimePDF:
		return msgPDFMedia
	case MimePPTX:
		return msgPptxMedia
	default:
		return msgDocxMedia
	}
}

func humanMB(n int64) string {
	if n%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	return fmt.Sprintf("%.1fMB", float64(n)/float64(1<<20))
}
