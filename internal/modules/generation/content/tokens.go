// Package content holds the text budgeting primitives used before a lesson
// is sent to a generation provider: token estimation, word-window chunking
// and extractive summaries of chunks already covered.
package content

import (
	"math"
	"strings"
)

// DefaultTokensPerWord is the word-to-token ratio used when none is configured.
const DefaultTokensPerWord = 1.3

// bytesPerToken approximates how many bytes of text map to one token.
const bytesPerToken = 4

// EstimateTokens approximates the token count of text from its byte length.
func EstimateTokens(text string) int {
	return int(math.Ceil(float64(len(text)) / bytesPerToken))
}

// EstimateTokensFromWords approximates the token count of wordCount words.
// A non-positive ratio falls back to DefaultTokensPerWord.
func EstimateTokensFromWords(wordCount int, tokensPerWord float64) int {
	if tokensPerWord <= 0 {
		tokensPerWord = DefaultTokensPerWord
	}
	return int(math.Ceil(float64(wordCount) * tokensPerWord))
}

// FitsInModel reports whether tokens stays within the model's safe limit.
func FitsInModel(tokens, safeLimit int) bool {
	return tokens <= safeLimit
}

// CountWords counts whitespace-delimited words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}
