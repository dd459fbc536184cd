// Package providers adapts external text-generation vendors to a single
// question-generation contract.
package providers

import (
	"context"
	"fmt"
)

// Result keys every provider response must carry.
const (
	KeyMultipleChoice = "multiple_choice"
	KeyIdentification = "identification"
	KeyTrueOrFalse    = "true_or_false"
)

// DefaultDifficulty is used when Options.Difficulty is empty.
const DefaultDifficulty = "medium"

// Options are the requested question counts for one generation unit.
type Options struct {
	MultipleChoice int    `json:"multiple_choice_count"`
	Identification int    `json:"identification_count"`
	TrueOrFalse    int    `json:"true_or_false_count"`
	Difficulty     string `json:"difficulty,omitempty"`
}

func (o Options) Total() int {
	return o.MultipleChoice + o.Identification + o.TrueOrFalse
}

func (o Options) difficulty() string {
	if o.Difficulty == "" {
		return DefaultDifficulty
	}
	return o.Difficulty
}

// RawResult is the decoded JSON object a provider returned. Shape checks
// beyond the three top-level keys belong to the response parser.
type RawResult map[string]any

// Provider generates questions from lesson text through one vendor API.
type Provider interface {
	Name() string
	GenerateAssessment(ctx context.Context, content string, opts Options) (RawResult, error)
	GenerateChunk(ctx context.Context, chunk, previousContext string, opts Options) (RawResult, error)
}

// ProviderError is any failure of a single vendor call: transport, HTTP
// status, envelope shape or JSON decoding.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func providerErr(name string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: name, Err: err}
}
