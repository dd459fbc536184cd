package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
)

// maxPartBytes caps how much of a single package part is read.
const maxPartBytes = 64 << 20

func readZipPart(files []*zip.File, name string) ([]byte, error) {
	for _, f := range files {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(io.LimitReader(rc, maxPartBytes))
	}
	return nil, fmt.Errorf("missing part %s", name)
}

// numberedParts returns parts named prefix<N>.xml ordered by N.
func numberedParts(files []*zip.File, prefix string) []string {
	type part struct {
		name string
		n    int
	}
	var parts []part
	for _, f := range files {
		if !strings.HasPrefix(f.Name, prefix) || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(f.Name, prefix), ".xml"))
		if err != nil {
			continue
		}
		parts = append(parts, part{name: f.Name, n: n})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].n < parts[j].n })
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = p.name
	}
	return out
}

type relationship struct {
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

type relationships struct {
	Items []relationship `xml:"Relationship"`
}

// relsFor returns the relationships of a part, or nil when it has none.
func relsFor(files []*zip.File, partName string) []relationship {
	dir, file := path.Split(partName)
	body, err := readZipPart(files, dir+"_rels/"+file+".rels")
	if err != nil {
		return nil
	}
	var rels relationships
	if err := xml.Unmarshal(body, &rels); err != nil {
		return nil
	}
	return rels.Items
}

// mediaRelTypes are relationship type suffixes that point at non-text
// content.
var mediaRelTypes = []string{
	"/image",
	"/chart",
	"/oleObject",
	"/package",
	"/video",
	"/audio",
	"/media",
	"/diagramData",
}

func hasMediaRelationship(rels []relationship) bool {
	for _, r := range rels {
		for _, suffix := range mediaRelTypes {
			if strings.HasSuffix(r.Type, suffix) {
				return true
			}
		}
	}
	return false
}

func containsAnyFold(body []byte, needles []string) bool {
	lower := strings.ToLower(string(body))
	for _, n := range needles {
		if strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
