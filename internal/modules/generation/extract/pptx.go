package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"regexp"
	"strings"
)

type PptxExtractor struct{}

func (PptxExtractor) Format() string { return "PPTX" }

const slidePrefix = "ppt/slides/slide"

// Extract walks the slides in order and collects the text of every shape's
// paragraphs, one line per paragraph.
func (PptxExtractor) Extract(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", &ExtractionError{Format: "PPTX", Err: err}
	}
	defer zr.Close()

	slides := numberedParts(zr.File, slidePrefix)
	if len(slides) == 0 {
		return "", &ExtractionError{Format: "PPTX", Err: errors.New("presentation has no slides")}
	}
	var out strings.Builder
	for _, name := range slides {
		body, err := readZipPart(zr.File, name)
		if err != nil {
			return "", &ExtractionError{Format: "PPTX", Err: err}
		}
		text, err := slideText(body)
		if err != nil {
			return "", &ExtractionError{Format: "PPTX", Err: err}
		}
		out.WriteString(text)
	}
	return strings.TrimSpace(out.String()), nil
}

func slideText(body []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	var (
		out     strings.Builder
		txDepth int
		inText  bool
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
			case "txBody":
				txDepth++
			case "t":
				inText = txDepth > 0
			case "br":
				if txDepth > 0 {
					out.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "txBody":
				txDepth--
			case "t":
				inText = false
			case "p":
				if txDepth > 0 {
					out.WriteByte('\n')
				}
			}
		case xml.CharData:
			if inText {
				out.Write(t)
			}
		}
	}
	return out.String(), nil
}

var (
	slideMediaMarkup = regexp.MustCompile(`(?i)<a:prstGeom|<a:custGeom|<a:blip|<p:pic|<p:mediaFile|<p:audioFile|<p:cxnSp`)
	slideShape       = regexp.MustCompile(`(?is)<p:sp[\s>].*?</p:sp>`)
)

// slideObjectKinds are presentationml elements for pictures, charts, tables,
// embedded objects and groups.
var slideObjectKinds = map[string]bool{
	"pic":          true,
	"graphicFrame": true,
	"grpSp":        true,
	"oleObj":       true,
}

// ValidateNoMedia runs two checks per slide: a scan of the raw markup for
// geometry and drawing elements, then a typed walk of the shape tree and
// the slide's relationships.
func (PptxExtractor) ValidateNoMedia(path string) (bool, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return false, &ExtractionError{Format: "PPTX", Err: err}
	}
	defer zr.Close()

	slides := numberedParts(zr.File, slidePrefix)
	for _, name := range slides {
		body, err := readZipPart(zr.File, name)
		if err != nil {
			return false, &ExtractionError{Format: "PPTX", Err: err}
		}
		if !slideMarkupClean(body) {
			return false, nil
		}
		clean, err := slideObjectsClean(body)
		if err != nil {
			return false, &ExtractionError{Format: "PPTX", Err: err}
		}
		if !clean || hasMediaRelationship(relsFor(zr.File, name)) {
			return false, nil
		}
	}
	return true, nil
}

// slideMarkupClean flags geometry, pictures, media, connectors and any
// shape that has properties but no text body.
func slideMarkupClean(body []byte) bool {
	if slideMediaMarkup.Match(body) {
		return false
	}
	for _, sp := range slideShape.FindAll(body, -1) {
		if bytes.Contains(sp, []byte("<p:nvSpPr")) && !bytes.Contains(sp, []byte("<p:txBody")) {
			return false
		}
	}
	return true
}

func slideObjectsClean(body []byte) (bool, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		if se, ok := tok.(xml.StartElement); ok && slideObjectKinds[se.Name.Local] {
			return false, nil
		}
	}
}
