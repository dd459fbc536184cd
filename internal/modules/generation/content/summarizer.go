package content

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const (
	summarySentences = 5
	summaryMaxBytes  = 500
	keyTopicLimit    = 10
)

var keywordPattern = regexp.MustCompile(`[a-z'-]+`)

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "is": {}, "are": {}, "was": {},
	"were": {}, "be": {}, "been": {}, "being": {}, "have": {}, "has": {}, "had": {},
	"do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "should": {}, "could": {},
	"may": {}, "might": {}, "must": {}, "can": {}, "this": {}, "that": {}, "these": {},
	"those": {}, "it": {}, "its": {}, "from": {}, "by": {}, "as": {},
}

// Summarizer builds the running "already covered" context that later chunk
// prompts carry.
type Summarizer struct{}

func NewSummarizer() *Summarizer { return &Summarizer{} }

// SummarizeChunk keeps the first five sentences of text, capped at 500 bytes.
func (s *Summarizer) SummarizeChunk(text string) string {
	sentences := splitSentences(text)
	if len(sentences) > summarySentences {
		sentences = sentences[:summarySentences]
	}
	summary := strings.Join(sentences, " ")
	if len(summary) > summaryMaxBytes {
		summary = truncateBytes(summary, summaryMaxBytes-3) + "..."
	}
	return summary
}

// CombineSummaries renders one "Section n: summary" line per chunk.
func (s *Summarizer) CombineSummaries(summaries []string) string {
	if len(summaries) == 0 {
		return ""
	}
	var b strings.Builder
	for i, sum := range summaries {
		fmt.Fprintf(&b, "Section %d: %s\n", i+1, sum)
	}
	return strings.TrimSpace(b.String())
}

// ExtractKeyTopics returns up to ten of the most frequent non-stop words longer
// than three letters. Ties keep first-seen order.
func (s *Summarizer) ExtractKeyTopics(text string) []string {
	counts := map[string]int{}
	var order []string
	for _, w := range keywordPattern.FindAllString(strings.ToLower(text), -1) {
		if len(w) <= 3 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > keyTopicLimit {
		order = order[:keyTopicLimit]
	}
	return order
}

// splitSentences splits after '.', '!' or '?' when followed by whitespace.
func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i < len(text)-1; i++ {
		switch text[i] {
		case '.', '!', '?':
		default:
			continue
		}
		if !isSpace(text[i+1]) {
			continue
		}
		out = append(out, text[start:i+1])
		j := i + 1
		for j < len(text) && isSpace(text[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// truncateBytes cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && n < len(s) && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}
