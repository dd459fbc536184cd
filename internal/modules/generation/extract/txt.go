package extract

import (
	"os"
	"strings"
)

type TxtExtractor struct{}

func (TxtExtractor) Format() string { return "TXT" }

func (TxtExtractor) Extract(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", &ExtractionError{Format: "TXT", Err: err}
	}
	return strings.TrimSpace(string(b)), nil
}

// ValidateNoMedia always passes: plain text cannot embed media.
func (TxtExtractor) ValidateNoMedia(string) (bool, error) { return true, nil }
