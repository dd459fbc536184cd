package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// decodeResult extracts the JSON object from a model reply, tolerating a
// markdown code fence around it.
func decodeResult(text string) (RawResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("empty model output")
	}
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	var out RawResult
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("invalid JSON in model output: %w", err)
	}
	for _, k := range []string{KeyMultipleChoice, KeyIdentification, KeyTrueOrFalse} {
		if _, ok := out[k]; !ok {
			return nil, fmt.Errorf("model output missing %q", k)
		}
	}
	return out, nil
}
