package providers

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/eduforge/lms-backend/internal/platform/logger"
)

const geminiTemperature = 0.7

type GeminiConfig struct {
	APIKey          string
	Model           string
	MaxOutputTokens int
	// ClientOptions are appended after the API key, e.g. a custom endpoint.
	ClientOptions []option.ClientOption
}

// geminiGenerateFunc sends one prompt and returns the concatenated text parts.
type geminiGenerateFunc func(ctx context.Context, prompt Prompt) (string, error)

type geminiProvider struct {
	log      *logger.Logger
	generate geminiGenerateFunc
	close    func() error
}

// NewGemini builds a provider on the Generative Language API with JSON
// response mode enabled. The returned provider implements io.Closer.
func NewGemini(ctx context.Context, log *logger.Logger, cfg GeminiConfig) (Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("missing Gemini API key")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("missing Gemini model")
	}
	opts := append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, cfg.ClientOptions...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	model := client.GenerativeModel(cfg.Model)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(geminiTemperature)
	if cfg.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(int32(cfg.MaxOutputTokens))
	}

	gen := func(ctx context.Context, prompt Prompt) (string, error) {
		m := *model
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(prompt.System)}}
		resp, err := m.GenerateContent(ctx, genai.Text(prompt.User))
		if err != nil {
			return "", err
		}
		return geminiText(resp)
	}
	return &geminiProvider{
		log:      log.With("provider", "gemini", "model", cfg.Model),
		generate: gen,
		close:    client.Close,
	}, nil
}

func (p *geminiProvider) Name() string { return "gemini" }

func (p *geminiProvider) GenerateAssessment(ctx context.Context, content string, opts Options) (RawResult, error) {
	return p.complete(ctx, BuildPrompt(content, "", opts))
}

func (p *geminiProvider) GenerateChunk(ctx context.Context, chunk, previousContext string, opts Options) (RawResult, error) {
	return p.complete(ctx, BuildPrompt(chunk, previousContext, opts))
}

func (p *geminiProvider) Close() error {
	if p.close == nil {
		return nil
	}
	return p.close()
}

func (p *geminiProvider) complete(ctx context.Context, prompt Prompt) (RawResult, error) {
	text, err := p.generate(ctx, prompt)
	if err != nil {
		return nil, providerErr(p.Name(), err)
	}
	out, err := decodeResult(text)
	if err != nil {
		return nil, providerErr(p.Name(), err)
	}
	return out, nil
}

func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("response has no candidates")
	}
	cand := resp.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return "", errors.New("candidate has no content")
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}
