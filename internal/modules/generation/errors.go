package generation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/eduforge/lms-backend/internal/modules/generation/providers"
)

// ProviderError is re-exported so callers can match vendor failures without
// importing the providers package.
type ProviderError = providers.ProviderError

// ParseError means a provider returned well-formed JSON that does not match
// the question schema. The whole response is rejected.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "invalid AI response structure: " + e.Reason
}

func parseErrorf(format string, args ...any) error {
	return &ParseError{Reason: fmt.Sprintf(format, args...)}
}

// PersistenceError wraps a database failure during the final save; the
// enclosing transaction has been rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Mode names how a generation ran.
type Mode string

const (
	ModeSingle  Mode = "single"
	ModeChunked Mode = "chunked"
)

// ExhaustedError is returned when every provider in the fallback order
// failed. LastErr is the final failure; Attempts is the full log.
type ExhaustedError struct {
	Mode     Mode
	LastErr  error
	Attempts []AttemptRecord
}

func (e *ExhaustedError) Error() string {
	msg := "All AI providers failed"
	if e.Mode == ModeChunked {
		msg = "All AI providers failed to process chunks"
	}
	if e.LastErr == nil {
		return msg
	}
	return msg + ": " + e.LastErr.Error()
}

func (e *ExhaustedError) Unwrap() error { return e.LastErr }

// ChunkFailedError marks the chunk that made a provider abandon its attempt.
type ChunkFailedError struct {
	Chunk int
	Err   error
}

func (e *ChunkFailedError) Error() string {
	return fmt.Sprintf("Chunk %d failed after retry: %v", e.Chunk, e.Err)
}

func (e *ChunkFailedError) Unwrap() error { return e.Err }

// IsParseError reports whether err contains a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

func joinReasons(reasons []string) string {
	return strings.Join(reasons, "; ")
}
