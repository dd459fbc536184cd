package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

type DocxExtractor struct{}

func (DocxExtractor) Format() string { return "DOCX" }

const docxMainPart = "word/document.xml"

// Extract walks word/document.xml: runs are concatenated, each paragraph
// ends a line, table cells are separated by a space and rows by a newline.
func (DocxExtractor) Extract(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", &ExtractionError{Format: "DOCX", Err: err}
	}
	defer zr.Close()

	body, err := readZipPart(zr.File, docxMainPart)
	if err != nil {
		return "", &ExtractionError{Format: "DOCX", Err: err}
	}
	text, err := docxText(body)
	if err != nil {
		return "", &ExtractionError{Format: "DOCX", Err: err}
	}
	return strings.TrimSpace(text), nil
}

func docxText(body []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	var (
		out       strings.Builder
		inText    bool
		cellDepth int
		propDepth int
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "pPr", "rPr":
				propDepth++
			case "tab":
				// tab stops in paragraph properties are not content
				if propDepth == 0 {
					out.WriteByte('\t')
				}
			case "br", "cr":
				out.WriteByte('\n')
			case "tc":
				cellDepth++
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "pPr", "rPr":
				propDepth--
			case "p":
				if cellDepth > 0 {
					out.WriteByte(' ')
				} else {
					out.WriteByte('\n')
				}
			case "tc":
				cellDepth--
				out.WriteByte(' ')
			case "tr":
				out.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				out.Write(t)
			}
		}
	}
	return out.String(), nil
}

// docxMediaMarkup are raw tags that mean a drawing, picture, shape or
// embedded object sits in the flow.
var docxMediaMarkup = []string{
	"<w:drawing",
	"<w:pict",
	"<v:shape",
	"<v:rect",
	"<v:oval",
	"<v:line",
	"<v:imagedata",
	"<w:object",
	"<wp:inline",
	"<wp:anchor",
	"<wps:wsp",
	"<pic:pic",
}

// ValidateNoMedia scans the markup of the body, headers and footers. The
// raw scan is authoritative; relationships to images, charts or embedded
// objects are checked as well.
func (DocxExtractor) ValidateNoMedia(path string) (bool, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return false, &ExtractionError{Format: "DOCX", Err: err}
	}
	defer zr.Close()

	parts := []string{docxMainPart}
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "word/header") || strings.HasPrefix(f.Name, "word/footer") {
			if strings.HasSuffix(f.Name, ".xml") {
				parts = append(parts, f.Name)
			}
		}
	}
	for _, name := range parts {
		body, err := readZipPart(zr.File, name)
		if err != nil {
			if name == docxMainPart {
				return false, &ExtractionError{Format: "DOCX", Err: err}
			}
			continue
		}
		if containsAnyFold(body, docxMediaMarkup) {
			return false, nil
		}
		if hasMediaRelationship(relsFor(zr.File, name)) {
			return false, nil
		}
	}
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "word/media/") || strings.HasPrefix(f.Name, "word/embeddings/") {
			return false, nil
		}
	}
	return true, nil
}
