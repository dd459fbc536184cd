package extract

import (
	"errors"
	"strings"
	"testing"
)

func TestForMimeType(t *testing.T) {
	cases := map[string]string{
		MimeDOCX:                   "DOCX",
		MimePDF:                    "PDF",
		MimePPTX:                   "PPTX",
		"text/plain; charset=utf-8": "TXT",
	}
	for mt, want := range cases {
		ex, err := ForMimeType(mt)
		if err != nil {
			t.Fatalf("ForMimeType(%q): %v", mt, err)
		}
		if ex.Format() != want {
			t.Fatalf("ForMimeType(%q) = %s, want %s", mt, ex.Format(), want)
		}
	}
	if _, err := ForMimeType("image/png"); err == nil {
		t.Fatalf("expected image/png to be unsupported")
	}
}

func TestTxtExtract(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("\n  Cells are the unit of life.  \n"))
	got, err := TxtExtractor{}.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "Cells are the unit of life." {
		t.Fatalf("got %q", got)
	}
	clean, _ := TxtExtractor{}.ValidateNoMedia(path)
	if !clean {
		t.Fatalf("plain text must always pass the media check")
	}
}

func TestTxtExtractMissingFile(t *testing.T) {
	_, err := TxtExtractor{}.Extract("/nonexistent/lesson.txt")
	var ee *ExtractionError
	if !errors.As(err, &ee) || ee.Format != "TXT" {
		t.Fatalf("want TXT ExtractionError, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "Failed to extract text from TXT file: ") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestDocxExtractParagraphsAndTables(t *testing.T) {
	path := docxFile(t,
		`<w:p><w:r><w:t>Photosynthesis </w:t></w:r><w:r><w:t>converts light.</w:t></w:r></w:p>`+
			`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Input</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Output</w:t></w:r></w:p></w:tc></w:tr>`+
			`<w:tr><w:tc><w:p><w:r><w:t>CO2</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>O2</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`+
			`<w:p><w:r><w:t>End</w:t><w:tab/><w:t>note</w:t></w:r></w:p>`)

	got, err := DocxExtractor{}.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	lines := strings.Split(got, "\n")
	if lines[0] != "Photosynthesis converts light." {
		t.Fatalf("first line %q", lines[0])
	}
	if !strings.Contains(got, "Input") || !strings.Contains(got, "O2") {
		t.Fatalf("table text missing: %q", got)
	}
	if !strings.HasSuffix(got, "End\tnote") {
		t.Fatalf("tab not kept: %q", got)
	}

	clean, err := DocxExtractor{}.ValidateNoMedia(path)
	if err != nil || !clean {
		t.Fatalf("ValidateNoMedia = %v, %v; want clean", clean, err)
	}
}

func TestDocxMediaDetection(t *testing.T) {
	cases := []struct {
		name  string
		inner string
		extra []zipEntry
	}{
		{"inline drawing", `<w:p><w:r><w:drawing><wp:inline/></w:drawing></w:r></w:p>`, nil},
		{"vml picture", `<w:p><w:r><w:pict/></w:r></w:p>`, nil},
		{"media part", `<w:p><w:r><w:t>x</w:t></w:r></w:p>`, []zipEntry{{"word/media/image1.png", "png"}}},
		{"header image", `<w:p><w:r><w:t>x</w:t></w:r></w:p>`, []zipEntry{{"word/header1.xml", `<w:hdr><w:drawing/></w:hdr>`}}},
		{"image relationship", `<w:p><w:r><w:t>x</w:t></w:r></w:p>`, []zipEntry{{"word/_rels/document.xml.rels",
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
				`<Relationship Id="rId4" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="https://example.com/a.png" TargetMode="External"/></Relationships>`}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := docxFile(t, tc.inner, tc.extra...)
			clean, err := DocxExtractor{}.ValidateNoMedia(path)
			if err != nil {
				t.Fatalf("ValidateNoMedia: %v", err)
			}
			if clean {
				t.Fatalf("expected media to be detected")
			}
		})
	}
}

func TestDocxExtractCorrupt(t *testing.T) {
	path := writeFile(t, "broken.docx", []byte("not a zip"))
	_, err := DocxExtractor{}.Extract(path)
	var ee *ExtractionError
	if !errors.As(err, &ee) {
		t.Fatalf("want ExtractionError, got %v", err)
	}
}

func TestPptxExtractSlideOrder(t *testing.T) {
	path := pptxFile(t, map[string]string{
		"slide10.xml": slideXML(textShape("Ten")),
		"slide2.xml":  slideXML(textShape("Two", "Two b")),
		"slide1.xml":  slideXML(textShape("One")),
	})
	got, err := PptxExtractor{}.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "One\nTwo\nTwo b\nTen" {
		t.Fatalf("got %q", got)
	}
	clean, err := PptxExtractor{}.ValidateNoMedia(path)
	if err != nil || !clean {
		t.Fatalf("ValidateNoMedia = %v, %v; want clean", clean, err)
	}
}

func TestPptxMediaDetection(t *testing.T) {
	cases := map[string]string{
		"preset geometry": `<p:sp><p:nvSpPr/><p:spPr><a:prstGeom prst="ellipse"/></p:spPr><p:txBody><a:p/></p:txBody></p:sp>`,
		"picture":         `<p:pic><p:nvPicPr/><p:blipFill><a:blip/></p:blipFill></p:pic>`,
		"bare shape":      `<p:sp><p:nvSpPr><p:cNvPr id="3" name="Box"/></p:nvSpPr><p:spPr/></p:sp>`,
		"connector":       `<p:cxnSp><p:nvCxnSpPr/></p:cxnSp>`,
		"chart frame":     `<p:graphicFrame><p:nvGraphicFramePr/></p:graphicFrame>`,
		"group":           `<p:grpSp><p:nvGrpSpPr/></p:grpSp>`,
	}
	for name, shape := range cases {
		t.Run(name, func(t *testing.T) {
			path := pptxFile(t, map[string]string{"slide1.xml": slideXML(textShape("Hi") + shape)})
			clean, err := PptxExtractor{}.ValidateNoMedia(path)
			if err != nil {
				t.Fatalf("ValidateNoMedia: %v", err)
			}
			if clean {
				t.Fatalf("expected %s to be flagged", name)
			}
		})
	}
}

func TestPdfMediaPatterns(t *testing.T) {
	cases := []struct {
		name string
		body string
		want bool
	}{
		{"image object", "%PDF-1.4\n5 0 obj\n<< /Type /XObject /Subtype /Image /Width 10 >>\nstream\nxx\nendstream\nendobj", true},
		{"word in text", "%PDF-1.4\nBT (See the /Subtype /Imagery chapter) Tj ET", false},
		{"no object header", "%PDF-1.4\n(text about /Subtype /Image) Tj", false},
		{"xobject only", "/Type /XObject /Subtype /Image ", true},
		{"filter", "/Subtype /Image /Filter /DCTDecode", true},
	}
	for _, tc := range cases {
		if got := pdfHasImages([]byte(tc.body)); got != tc.want {
			t.Fatalf("%s: pdfHasImages = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestPdfUnreadableIsClean(t *testing.T) {
	clean, err := PdfExtractor{}.ValidateNoMedia("/nonexistent/a.pdf")
	if err != nil || !clean {
		t.Fatalf("unreadable pdf should pass media check, got %v %v", clean, err)
	}
}
