package extract

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateAllAcceptsPlainText(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("The mitochondria is the powerhouse of the cell."))
	res := NewValidator(0).ValidateAll(UploadedFile{Name: "notes.txt", DeclaredMime: "text/plain"}, path)
	if !res.Valid {
		t.Fatalf("expected valid, got %q", res.Error)
	}
	if res.Mime != MimeText {
		t.Fatalf("Mime = %q", res.Mime)
	}
	if res.Err() != nil {
		t.Fatalf("Err() should be nil for a valid result")
	}
}

func TestValidateAllRejects(t *testing.T) {
	ole := make([]byte, 1024)
	copy(ole, oleSignature)

	cases := []struct {
		name string
		file UploadedFile
		path func(t *testing.T) string
		want string
	}{
		{
			name: "image upload",
			file: UploadedFile{Name: "cat.png", DeclaredMime: "image/png"},
			path: func(t *testing.T) string {
				return writeFile(t, "cat.png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00"))
			},
			want: msgMediaUpload,
		},
		{
			name: "binary",
			file: UploadedFile{Name: "blob.bin"},
			path: func(t *testing.T) string { return writeFile(t, "blob.bin", []byte{0x00, 0x01, 0x02, 0xff, 0x00, 0x10}) },
			want: msgInvalidType,
		},
		{
			name: "too large",
			file: UploadedFile{Name: "big.txt", DeclaredMime: "text/plain", Size: 2 << 20},
			path: func(t *testing.T) string { return writeFile(t, "big.txt", []byte("small on disk")) },
			want: "File size exceeds the maximum limit of 1MB.",
		},
		{
			name: "encrypted docx",
			file: UploadedFile{Name: "secret.docx", DeclaredMime: MimeDOCX},
			path: func(t *testing.T) string { return writeFile(t, "secret.docx", ole) },
			want: msgDocxPassword,
		},
		{
			name: "docx with drawing",
			file: UploadedFile{Name: "lesson.docx", DeclaredMime: MimeDOCX},
			path: func(t *testing.T) string {
				return docxFile(t, `<w:p><w:r><w:drawing><wp:anchor/></w:drawing></w:r></w:p>`)
			},
			want: msgDocxMedia,
		},
		{
			name: "pptx with picture",
			file: UploadedFile{Name: "deck.pptx", DeclaredMime: MimePPTX},
			path: func(t *testing.T) string {
				return pptxFile(t, map[string]string{"slide1.xml": slideXML(`<p:pic><p:nvPicPr/></p:pic>`)})
			},
			want: msgPptxMedia,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := NewValidator(1<<20).ValidateAll(tc.file, tc.path(t))
			if res.Valid {
				t.Fatalf("expected rejection")
			}
			if res.Error != tc.want {
				t.Fatalf("Error = %q, want %q", res.Error, tc.want)
			}
			var ve *ValidationError
			if !errors.As(res.Err(), &ve) || ve.Message != tc.want {
				t.Fatalf("Err() = %v", res.Err())
			}
		})
	}
}

func TestValidateAllAcceptsCleanPptx(t *testing.T) {
	path := pptxFile(t, map[string]string{"slide1.xml": slideXML(textShape("Cell cycle", "Interphase"))})
	res := NewValidator(0).ValidateAll(UploadedFile{Name: "deck.pptx", DeclaredMime: MimePPTX}, path)
	if !res.Valid {
		t.Fatalf("expected valid, got %q", res.Error)
	}
	if res.Mime != MimePPTX {
		t.Fatalf("Mime = %q", res.Mime)
	}
}

func TestIsPDFPasswordError(t *testing.T) {
	if !isPDFPasswordError(errors.New("encrypted PDF: invalid password")) {
		t.Fatalf("expected password error to match")
	}
	if isPDFPasswordError(errors.New("malformed xref")) {
		t.Fatalf("unrelated error matched")
	}
	if isPDFPasswordError(nil) {
		t.Fatalf("nil matched")
	}
}

func TestHumanMB(t *testing.T) {
	if got := humanMB(DefaultMaxBytes); got != "10MB" {
		t.Fatalf("humanMB = %q", got)
	}
	if got := humanMB(3 << 19); !strings.HasPrefix(got, "1.5") {
		t.Fatalf("humanMB = %q", got)
	}
}

func TestCheckSize(t *testing.T) {
	v := NewValidator(1 << 20)
	if err := v.CheckSize(1 << 20); err != nil {
		t.Fatalf("limit itself rejected: %v", err)
	}
	if err := v.CheckSize(0); err != nil {
		t.Fatalf("unknown size rejected: %v", err)
	}
	var ve *ValidationError
	if err := v.CheckSize(1<<20 + 1); !errors.As(err, &ve) || ve.Message != "File size exceeds the maximum limit of 1MB." {
		t.Fatalf("CheckSize = %v", err)
	}
}
