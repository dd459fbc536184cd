package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eduforge/lms-backend/internal/modules/generation/content"
	"github.com/eduforge/lms-backend/internal/modules/generation/providers"
	"github.com/eduforge/lms-backend/internal/platform/logger"
)

type fakeCall struct {
	chunked bool
	text    string
	prev    string
	opts    providers.Options
}

// fakeProvider answers each call through respond; n is the 1-based call
// number across the provider's lifetime.
type fakeProvider struct {
	name    string
	respond func(ctx context.Context, n int, c fakeCall) (providers.RawResult, error)

	mu    sync.Mutex
	calls []fakeCall
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) GenerateAssessment(ctx context.Context, text string, opts providers.Options) (providers.RawResult, error) {
	return f.do(ctx, fakeCall{text: text, opts: opts})
}

func (f *fakeProvider) GenerateChunk(ctx context.Context, chunk, prev string, opts providers.Options) (providers.RawResult, error) {
	return f.do(ctx, fakeCall{chunked: true, text: chunk, prev: prev, opts: opts})
}

func (f *fakeProvider) do(ctx context.Context, c fakeCall) (providers.RawResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	n := len(f.calls)
	f.mu.Unlock()
	return f.respond(ctx, n, c)
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// answer builds a schema-valid result honoring the requested counts, tagging
// every question with tag.
func answer(tag string, opts providers.Options) providers.RawResult {
	mc := []any{}
	for i := 0; i < opts.MultipleChoice; i++ {
		mc = append(mc, map[string]any{
			"question":       fmt.Sprintf("%s mc %d", tag, i),
			"choices":        []any{"a", "b", "c", "d"},
			"correct_answer": "a",
		})
	}
	id := []any{}
	for i := 0; i < opts.Identification; i++ {
		id = append(id, map[string]any{"question": fmt.Sprintf("%s id %d", tag, i), "correct_answer": "x"})
	}
	tf := []any{}
	for i := 0; i < opts.TrueOrFalse; i++ {
		tf = append(tf, map[string]any{"question": fmt.Sprintf("%s tf %d", tag, i), "correct_answer": "True"})
	}
	return providers.RawResult{
		providers.KeyMultipleChoice: mc,
		providers.KeyIdentification: id,
		providers.KeyTrueOrFalse:    tf,
	}
}

func alwaysOK(tag string) func(context.Context, int, fakeCall) (providers.RawResult, error) {
	return func(_ context.Context, _ int, c fakeCall) (providers.RawResult, error) {
		return answer(tag, c.opts), nil
	}
}

func alwaysFail(name string) func(context.Context, int, fakeCall) (providers.RawResult, error) {
	return func(context.Context, int, fakeCall) (providers.RawResult, error) {
		return nil, &providers.ProviderError{Provider: name, Err: errors.New("upstream 500")}
	}
}

func newTestManager(t *testing.T, cfg ManagerConfig, ps ...providers.Provider) *Manager {
	t.Helper()
	log, err := logger.New("test")
	require.NoError(t, err)
	return NewManager(log, ps, cfg)
}

var wideOpen = ManagerConfig{SafeLimit: 100000, BufferTokens: 100, OverlapPercentage: 0.1, TokensPerWord: 2, Timeout: time.Second}

func TestGenerateSingleFailsOverAfterRetry(t *testing.T) {
	p1 := &fakeProvider{name: "p1", respond: alwaysFail("p1")}
	p2 := &fakeProvider{name: "p2", respond: alwaysFail("p2")}
	p3 := &fakeProvider{name: "p3", respond: alwaysOK("p3")}
	m := newTestManager(t, wideOpen, p1, p2, p3)

	gen, err := m.Generate(context.Background(), "short lesson", providers.Options{MultipleChoice: 2, Identification: 1, TrueOrFalse: 1})
	require.NoError(t, err)
	require.Equal(t, "p3", gen.ProviderUsed)
	require.False(t, gen.RetryUsed)
	require.Equal(t, ModeSingle, gen.Mode)
	require.Equal(t, 1, gen.ChunksProcessed)
	require.Equal(t, 4, gen.Questions.Total())
	require.Equal(t, 2, p1.callCount())
	require.Equal(t, 2, p2.callCount())
	require.Equal(t, 1, p3.callCount())
	require.Len(t, gen.Attempts, 5)
	require.True(t, gen.Attempts[1].Retry)
	require.Equal(t, "terminal_failure", gen.Attempts[1].Outcome)
}

func TestGenerateSingleRetryUsed(t *testing.T) {
	p1 := &fakeProvider{name: "p1", respond: func(_ context.Context, n int, c fakeCall) (providers.RawResult, error) {
		if n == 1 {
			// schema violation on the first call
			return providers.RawResult{providers.KeyMultipleChoice: []any{}}, nil
		}
		return answer("p1", c.opts), nil
	}}
	p2 := &fakeProvider{name: "p2", respond: alwaysOK("p2")}
	m := newTestManager(t, wideOpen, p1, p2)

	gen, err := m.Generate(context.Background(), "short lesson", providers.Options{Identification: 2})
	require.NoError(t, err)
	require.Equal(t, "p1", gen.ProviderUsed)
	require.True(t, gen.RetryUsed)
	require.Zero(t, p2.callCount())
	require.Contains(t, gen.Attempts[0].Error, "invalid AI response structure")
}

func TestGenerateSingleExhausted(t *testing.T) {
	p1 := &fakeProvider{name: "p1", respond: alwaysFail("p1")}
	p2 := &fakeProvider{name: "p2", respond: alwaysFail("p2")}
	m := newTestManager(t, wideOpen, p1, p2)

	_, err := m.Generate(context.Background(), "short lesson", providers.Options{TrueOrFalse: 1})
	var ex *ExhaustedError
	require.ErrorAs(t, err, &ex)
	require.Equal(t, ModeSingle, ex.Mode)
	require.Len(t, ex.Attempts, 4)
	require.True(t, strings.HasPrefix(err.Error(), "All AI providers failed: "))
	require.Contains(t, err.Error(), "p2")
}

func TestGenerateHonorsCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p1 := &fakeProvider{name: "p1", respond: func(ctx context.Context, _ int, _ fakeCall) (providers.RawResult, error) {
		return nil, ctx.Err()
	}}
	p2 := &fakeProvider{name: "p2", respond: alwaysOK("p2")}
	m := newTestManager(t, wideOpen, p1, p2)

	_, err := m.Generate(ctx, "short lesson", providers.Options{TrueOrFalse: 1})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, p1.callCount())
	require.Zero(t, p2.callCount())
}

func TestGeneratePerCallTimeout(t *testing.T) {
	slow := &fakeProvider{name: "slow", respond: func(ctx context.Context, _ int, _ fakeCall) (providers.RawResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	fast := &fakeProvider{name: "fast", respond: alwaysOK("fast")}
	cfg := wideOpen
	cfg.Timeout = 20 * time.Millisecond
	m := newTestManager(t, cfg, slow, fast)

	gen, err := m.Generate(context.Background(), "short lesson", providers.Options{Identification: 1})
	require.NoError(t, err)
	require.Equal(t, "fast", gen.ProviderUsed)
	require.Equal(t, 2, slow.callCount())
	require.Contains(t, gen.Attempts[0].Error, "timed out")
}

func longLesson(words int) string {
	parts := make([]string, words)
	for i := range parts {
		parts[i] = fmt.Sprintf("term%d", i)
		if i%12 == 11 {
			parts[i] += "."
		}
	}
	return strings.Join(parts, " ")
}

var tight = ManagerConfig{SafeLimit: 1000, BufferTokens: 200, OverlapPercentage: 0.1, TokensPerWord: 2, Timeout: time.Second}

func TestGenerateChunkedRestartsOnNextProvider(t *testing.T) {
	text := longLesson(2000)
	opts := providers.Options{MultipleChoice: 5, Identification: 3, TrueOrFalse: 2, Difficulty: "hard"}

	p1 := &fakeProvider{name: "p1", respond: func(_ context.Context, n int, c fakeCall) (providers.RawResult, error) {
		if n == 1 {
			return answer("p1", c.opts), nil
		}
		return nil, errors.New("p1 broke on chunk 2")
	}}
	p2 := &fakeProvider{name: "p2", respond: alwaysOK("p2")}
	m := newTestManager(t, tight, p1, p2)

	plan, err := content.NewChunker(tight.TokensPerWord).Chunk(text, tight.SafeLimit, tight.BufferTokens, tight.OverlapPercentage)
	require.NoError(t, err)
	require.Greater(t, plan.TotalChunks, 2)

	gen, err := m.Generate(context.Background(), text, opts)
	require.NoError(t, err)
	require.Equal(t, ModeChunked, gen.Mode)
	require.Equal(t, "p2", gen.ProviderUsed)
	require.False(t, gen.RetryUsed)
	require.Equal(t, plan.TotalChunks, gen.ChunksProcessed)
	require.Equal(t, 3, p1.callCount())
	require.Equal(t, plan.TotalChunks, p2.callCount())

	for _, q := range Flatten(gen.Questions) {
		require.True(t, strings.HasPrefix(q.Question, "p2 "), "leaked question %q", q.Question)
	}

	want := 0
	for _, quota := range content.DistributeQuestions(opts.Total(), plan.TotalChunks) {
		want += SplitQuota(opts, quota).Total()
	}
	require.Equal(t, want, gen.Questions.Total())

	p2.mu.Lock()
	defer p2.mu.Unlock()
	require.Empty(t, p2.calls[0].prev)
	require.Contains(t, p2.calls[1].prev, "Section 1: ")
	require.Equal(t, "hard", p2.calls[0].opts.Difficulty)
	require.Equal(t, plan.Chunks[0].Content, p2.calls[0].text)
}

func TestGenerateChunkedExhausted(t *testing.T) {
	p1 := &fakeProvider{name: "p1", respond: alwaysFail("p1")}
	m := newTestManager(t, tight, p1)

	_, err := m.Generate(context.Background(), longLesson(2000), providers.Options{Identification: 4})
	var ex *ExhaustedError
	require.ErrorAs(t, err, &ex)
	require.Equal(t, ModeChunked, ex.Mode)
	require.Contains(t, err.Error(), "All AI providers failed to process chunks: Chunk 1 failed after retry")
	var cf *ChunkFailedError
	require.ErrorAs(t, err, &cf)
	require.Equal(t, 1, cf.Chunk)
}

func TestSplitQuota(t *testing.T) {
	cases := []struct {
		opts  providers.Options
		quota int
		want  providers.Options
	}{
		{providers.Options{MultipleChoice: 5, Identification: 3, TrueOrFalse: 2, Difficulty: "easy"}, 4,
			providers.Options{MultipleChoice: 2, Identification: 1, TrueOrFalse: 1, Difficulty: "easy"}},
		{providers.Options{MultipleChoice: 10}, 3, providers.Options{MultipleChoice: 3}},
		{providers.Options{Identification: 1, TrueOrFalse: 1}, 1, providers.Options{Identification: 1}},
		{providers.Options{MultipleChoice: 1, Identification: 1}, 1, providers.Options{MultipleChoice: 1, Identification: 1}},
		{providers.Options{Difficulty: "medium"}, 5, providers.Options{Difficulty: "medium"}},
	}
	for _, tc := range cases {
		got := SplitQuota(tc.opts, tc.quota)
		if got != tc.want {
			t.Fatalf("SplitQuota(%+v, %d) = %+v, want %+v", tc.opts, tc.quota, got, tc.want)
		}
	}
}
