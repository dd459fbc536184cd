package generation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/eduforge/lms-backend/internal/config"
	"github.com/eduforge/lms-backend/internal/modules/generation/content"
	"github.com/eduforge/lms-backend/internal/modules/generation/providers"
	"github.com/eduforge/lms-backend/internal/platform/ctxutil"
	"github.com/eduforge/lms-backend/internal/platform/logger"
)

type ManagerConfig struct {
	// SafeLimit is the primary model's chunking threshold in tokens.
	SafeLimit         int
	BufferTokens      int
	OverlapPercentage float64
	TokensPerWord     float64
	// Timeout bounds each provider call.
	Timeout time.Duration
}

func ManagerConfigFrom(ai config.AIConfig) ManagerConfig {
	return ManagerConfig{
		SafeLimit:         ai.PrimarySafeLimit(),
		BufferTokens:      ai.Chunking.BufferTokens,
		OverlapPercentage: ai.Chunking.OverlapPercentage,
		TokensPerWord:     ai.Chunking.TokensPerWord,
		Timeout:           ai.Timeout,
	}
}

// Generation is a successful run: the merged questions plus the audit data
// of how they were produced.
type Generation struct {
	Questions       *QuestionSet    `json:"questions"`
	Mode            Mode            `json:"mode"`
	ProviderUsed    string          `json:"provider_used"`
	RetryUsed       bool            `json:"retry_used"`
	ChunksProcessed int             `json:"chunks_processed"`
	Attempts        []AttemptRecord `json:"attempts"`
}

// Manager runs generation over an ordered list of providers.
type Manager struct {
	log        *logger.Logger
	providers  []providers.Provider
	cfg        ManagerConfig
	chunker    *content.Chunker
	summarizer *content.Summarizer
	tracer     trace.Tracer
}

func NewManager(log *logger.Logger, provs []providers.Provider, cfg ManagerConfig) *Manager {
	if cfg.TokensPerWord <= 0 {
		cfg.TokensPerWord = content.DefaultTokensPerWord
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Manager{
		log:        log.With("service", "GenerationManager"),
		providers:  provs,
		cfg:        cfg,
		chunker:    content.NewChunker(cfg.TokensPerWord),
		summarizer: content.NewSummarizer(),
		tracer:     otel.Tracer("github.com/eduforge/lms-backend/internal/modules/generation"),
	}
}

// Generate picks single-request mode when text fits the primary model's safe
// limit and chunked mode otherwise.
func (m *Manager) Generate(ctx context.Context, text string, opts providers.Options) (*Generation, error) {
	if len(m.providers) == 0 {
		return nil, errors.New("no generation providers configured")
	}
	tokens := content.EstimateTokens(text)
	if content.FitsInModel(tokens, m.cfg.SafeLimit) {
		m.log.Info("Generating in single-request mode", append(ctxutil.LogFields(ctx), "estimated_tokens", tokens, "safe_limit", m.cfg.SafeLimit)...)
		return m.GenerateSingle(ctx, text, opts)
	}
	m.log.Info("Generating in chunked mode", append(ctxutil.LogFields(ctx), "estimated_tokens", tokens, "safe_limit", m.cfg.SafeLimit)...)
	return m.GenerateChunked(ctx, text, opts)
}

// GenerateSingle sends the whole text to each provider in turn until one
// succeeds, giving every provider one retry.
func (m *Manager) GenerateSingle(ctx context.Context, text string, opts providers.Options) (*Generation, error) {
	var (
		attempts []AttemptRecord
		lastErr  error
	)
	for _, p := range m.providers {
		p := p
		set, retried, recs, err := m.runUnit(ctx, p, 0, func(callCtx context.Context) (providers.RawResult, error) {
			return p.GenerateAssessment(callCtx, text, opts)
		})
		attempts = append(attempts, recs...)
		if err == nil {
			return &Generation{
				Questions:       set,
				Mode:            ModeSingle,
				ProviderUsed:    p.Name(),
				RetryUsed:       retried,
				ChunksProcessed: 1,
				Attempts:        attempts,
			}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		m.log.Warn("Provider exhausted, failing over", "provider", p.Name(), "error", err)
	}
	return nil, &ExhaustedError{Mode: ModeSingle, LastErr: lastErr, Attempts: attempts}
}

// chunkRun accumulates one provider's progress through the chunk sequence.
// It is discarded when the provider fails so nothing leaks into the next
// provider's attempt.
type chunkRun struct {
	provider  string
	summaries []string
	results   []*QuestionSet
	retryUsed bool
}

func (r *chunkRun) previousContext(s *content.Summarizer) string {
	return s.CombineSummaries(r.summaries)
}

func (r *chunkRun) record(set *QuestionSet, summary string, retried bool) {
	r.results = append(r.results, set)
	r.summaries = append(r.summaries, summary)
	r.retryUsed = r.retryUsed || retried
}

func (r *chunkRun) merged() *QuestionSet {
	out := NewQuestionSet()
	for _, s := range r.results {
		out.Append(s)
	}
	return out
}

// GenerateChunked splits text into chunks and processes them in order with
// one provider at a time. A chunk that fails after its retry abandons the
// provider; the next provider restarts from the first chunk.
func (m *Manager) GenerateChunked(ctx context.Context, text string, opts providers.Options) (*Generation, error) {
	plan, err := m.chunker.Chunk(text, m.cfg.SafeLimit, m.cfg.BufferTokens, m.cfg.OverlapPercentage)
	if err != nil {
		return nil, err
	}
	if plan.TotalChunks == 0 {
		return nil, errors.New("no content to generate from")
	}
	quotas := content.DistributeQuestions(opts.Total(), plan.TotalChunks)
	m.log.Info("Content chunked",
		"total_chunks", plan.TotalChunks,
		"total_words", plan.TotalWords,
		"chunk_word_size", plan.ChunkWordSize,
		"overlap_words", plan.OverlapWords,
	)

	var (
		attempts []AttemptRecord
		lastErr  error
	)
	for _, p := range m.providers {
		run, recs, err := m.runChunks(ctx, p, plan, quotas, opts)
		attempts = append(attempts, recs...)
		if err == nil {
			return &Generation{
				Questions:       run.merged(),
				Mode:            ModeChunked,
				ProviderUsed:    p.Name(),
				RetryUsed:       run.retryUsed,
				ChunksProcessed: plan.TotalChunks,
				Attempts:        attempts,
			}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		m.log.Warn("Provider abandoned chunk sequence, failing over", "provider", p.Name(), "error", err)
	}
	return nil, &ExhaustedError{Mode: ModeChunked, LastErr: lastErr, Attempts: attempts}
}

func (m *Manager) runChunks(ctx context.Context, p providers.Provider, plan *content.ChunkPlan, quotas []int, opts providers.Options) (*chunkRun, []AttemptRecord, error) {
	run := &chunkRun{provider: p.Name()}
	var attempts []AttemptRecord
	for i, chunk := range plan.Chunks {
		chunkOpts := SplitQuota(opts, quotas[i])
		prev := run.previousContext(m.summarizer)
		body := chunk.Content
		set, retried, recs, err := m.runUnit(ctx, p, chunk.Number, func(callCtx context.Context) (providers.RawResult, error) {
			return p.GenerateChunk(callCtx, body, prev, chunkOpts)
		})
		attempts = append(attempts, recs...)
		if err != nil {
			return nil, attempts, &ChunkFailedError{Chunk: chunk.Number, Err: err}
		}
		run.record(set, m.summarizer.SummarizeChunk(chunk.Content), retried)
		m.log.Debug("Chunk generated",
			"provider", p.Name(),
			"chunk", chunk.Number,
			"total_chunks", plan.TotalChunks,
			"questions", set.Total(),
			"key_topics", m.summarizer.ExtractKeyTopics(chunk.Content),
		)
	}
	return run, attempts, nil
}

// runUnit calls one provider for one unit until the outcome is no longer
// retryable. chunk is zero for single-request mode.
func (m *Manager) runUnit(ctx context.Context, p providers.Provider, chunk int, call func(context.Context) (providers.RawResult, error)) (*QuestionSet, bool, []AttemptRecord, error) {
	var recs []AttemptRecord
	for attempt := 1; ; attempt++ {
		start := time.Now()
		set, err := m.callOnce(ctx, p, chunk, attempt, call)
		out := classifyAttempt(attempt, set, err)

		rec := AttemptRecord{
			Provider: p.Name(),
			Chunk:    chunk,
			Attempt:  attempt,
			Retry:    attempt > 1,
			Outcome:  out.Kind.String(),
			Duration: time.Since(start),
		}
		if err != nil {
			rec.Error = err.Error()
			m.log.Warn("Provider call failed",
				"stage", "ai_generation",
				"provider", p.Name(),
				"chunk", chunk,
				"retry", attempt > 1,
				"outcome", out.Kind.String(),
				"error", err,
			)
		}
		recs = append(recs, rec)

		switch out.Kind {
		case OutcomeSuccess:
			return out.Set, attempt > 1, recs, nil
		case OutcomeRetryable:
			if ctx.Err() != nil {
				return nil, attempt > 1, recs, ctx.Err()
			}
			continue
		default:
			return nil, attempt > 1, recs, out.Err
		}
	}
}

func (m *Manager) callOnce(ctx context.Context, p providers.Provider, chunk, attempt int, call func(context.Context) (providers.RawResult, error)) (*QuestionSet, error) {
	callCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()
	callCtx, span := m.tracer.Start(callCtx, "generation.provider_call", trace.WithAttributes(
		attribute.String("provider", p.Name()),
		attribute.Int("chunk", chunk),
		attribute.Int("attempt", attempt),
	))
	defer span.End()

	raw, err := call(callCtx)
	if err == nil {
		var set *QuestionSet
		if set, err = Parse(raw); err == nil {
			span.SetAttributes(attribute.Int("questions", set.Total()))
			return set, nil
		}
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		err = fmt.Errorf("%s call timed out after %s: %w", p.Name(), m.cfg.Timeout, err)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return nil, err
}

// SplitQuota divides a chunk's question quota across the three types in
// proportion to the overall request. Multiple-choice and identification are
// rounded; true/false takes the remainder. Each count is floored at zero.
func SplitQuota(opts providers.Options, quota int) providers.Options {
	total := opts.Total()
	if total == 0 {
		return opts
	}
	mc := int(math.Round(float64(opts.MultipleChoice) / float64(total) * float64(quota)))
	id := int(math.Round(float64(opts.Identification) / float64(total) * float64(quota)))
	tf := quota - mc - id
	return providers.Options{
		MultipleChoice: max(0, mc),
		Identification: max(0, id),
		TrueOrFalse:    max(0, tf),
		Difficulty:     opts.Difficulty,
	}
}
