package content

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidChunkBudget is returned when the configured safe limit, buffer and
// word ratio leave no room for even one word per chunk.
var ErrInvalidChunkBudget = errors.New("chunk budget must allow at least one word")

// Chunk is one word-bounded window of the source text. Word indices are
// zero-based; EndWord is exclusive.
type Chunk struct {
	Content         string `json:"content"`
	Number          int    `json:"chunk_number"`
	StartWord       int    `json:"start_word"`
	EndWord         int    `json:"end_word"`
	WordCount       int    `json:"word_count"`
	EstimatedTokens int    `json:"estimated_tokens"`
}

// ChunkPlan is the result of splitting a text into chunks.
type ChunkPlan struct {
	Chunks         []Chunk `json:"chunks"`
	TotalChunks    int     `json:"total_chunks"`
	TotalWords     int     `json:"total_words"`
	ChunkWordSize  int     `json:"chunk_word_size"`
	OverlapWords   int     `json:"overlap_words"`
	ChunkTokenSize int     `json:"chunk_token_size"`
	OverlapTokens  int     `json:"overlap_tokens"`
}

// Chunker splits oversized text into overlapping word windows.
type Chunker struct {
	TokensPerWord float64
}

func NewChunker(tokensPerWord float64) *Chunker {
	if tokensPerWord <= 0 {
		tokensPerWord = DefaultTokensPerWord
	}
	return &Chunker{TokensPerWord: tokensPerWord}
}

// Chunk splits text into windows sized to modelSafeLimit-bufferTokens tokens.
// Every window after the first starts overlapPercentage of a window before
// the previous one ended.
func (c *Chunker) Chunk(text string, modelSafeLimit, bufferTokens int, overlapPercentage float64) (*ChunkPlan, error) {
	tpw := c.TokensPerWord
	if tpw <= 0 {
		tpw = DefaultTokensPerWord
	}

	chunkTokenSize := modelSafeLimit - bufferTokens
	overlapTokens := int(float64(chunkTokenSize) * overlapPercentage)
	chunkWordSize := int(float64(chunkTokenSize) / tpw)
	overlapWords := int(float64(overlapTokens) / tpw)

	if chunkTokenSize <= 0 || chunkWordSize <= 0 {
		return nil, fmt.Errorf("%w: safe_limit=%d buffer=%d tokens_per_word=%.2f",
			ErrInvalidChunkBudget, modelSafeLimit, bufferTokens, tpw)
	}
	if overlapWords < 0 {
		overlapWords = 0
	}
	// A window must always advance past the previous one.
	if overlapWords >= chunkWordSize {
		overlapWords = chunkWordSize - 1
	}

	words := strings.Fields(text)
	total := len(words)
	plan := &ChunkPlan{
		Chunks:         []Chunk{},
		TotalWords:     total,
		ChunkWordSize:  chunkWordSize,
		OverlapWords:   overlapWords,
		ChunkTokenSize: chunkTokenSize,
		OverlapTokens:  overlapTokens,
	}
	if total == 0 {
		return plan, nil
	}

	end := 0
	for i := 0; ; i++ {
		start := 0
		if i > 0 {
			start = max(0, end-overlapWords)
		}
		end = min(total, start+chunkWordSize)

		body := strings.Join(words[start:end], " ")
		plan.Chunks = append(plan.Chunks, Chunk{
			Content:         body,
			Number:          i + 1,
			StartWord:       start,
			EndWord:         end,
			WordCount:       end - start,
			EstimatedTokens: EstimateTokens(body),
		})
		if end >= total {
			break
		}
	}
	plan.TotalChunks = len(plan.Chunks)
	return plan, nil
}

// NeedsChunking reports whether text exceeds safeLimit tokens.
func NeedsChunking(text string, safeLimit int) bool {
	return !FitsInModel(EstimateTokens(text), safeLimit)
}

// DistributeQuestions spreads total questions over n chunks: every chunk gets
// total/n and the first total%n chunks get one more.
func DistributeQuestions(total, n int) []int {
	if n <= 0 {
		return nil
	}
	if total < 0 {
		total = 0
	}
	base := total / n
	rem := total % n
	out := make([]int, n)
	for i := range out {
		out[i] = base
		if i < rem {
			out[i]++
		}
	}
	return out
}
