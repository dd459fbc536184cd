package generation

import "time"

// attemptsPerUnit is how many calls one provider gets for one generation
// unit: the first try and a single retry.
const attemptsPerUnit = 2

type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	// OutcomeRetryable means the same provider gets another call for the unit.
	OutcomeRetryable
	// OutcomeTerminal means the provider is done with this unit and, for the
	// chunked path, with the whole document.
	OutcomeTerminal
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable_failure"
	case OutcomeTerminal:
		return "terminal_failure"
	}
	return "unknown"
}

// Outcome is the classified result of one provider call.
type Outcome struct {
	Kind OutcomeKind
	Set  *QuestionSet
	Err  error
}

// classifyAttempt maps the result of call number attempt (1-based) for a
// unit to an Outcome. It is a pure function of its inputs.
func classifyAttempt(attempt int, set *QuestionSet, err error) Outcome {
	if err == nil {
		return Outcome{Kind: OutcomeSuccess, Set: set}
	}
	if attempt < attemptsPerUnit {
		return Outcome{Kind: OutcomeRetryable, Err: err}
	}
	return Outcome{Kind: OutcomeTerminal, Err: err}
}

// AttemptRecord is the audit entry for one provider call. Chunk is zero in
// single-request mode.
type AttemptRecord struct {
	Provider string        `json:"provider"`
	Chunk    int           `json:"chunk,omitempty"`
	Attempt  int           `json:"attempt"`
	Retry    bool          `json:"retry"`
	Outcome  string        `json:"outcome"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}
