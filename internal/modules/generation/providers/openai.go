package providers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/eduforge/lms-backend/internal/platform/logger"
)

const openAITemperature = 0.7

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	// HTTPClient overrides the transport; nil uses http.DefaultClient.
	HTTPClient *http.Client
}

type openAIProvider struct {
	log    *logger.Logger
	client *openai.Client
	model  string
}

// NewOpenAI builds a chat-completions provider that asks for a response
// matching QuestionSchema.
func NewOpenAI(log *logger.Logger, cfg OpenAIConfig) (Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("missing OpenAI API key")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("missing OpenAI model")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}
	return &openAIProvider{
		log:    log.With("provider", "openai", "model", cfg.Model),
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

func (p *openAIProvider) Name() string { return "openai" }

func (p *openAIProvider) GenerateAssessment(ctx context.Context, content string, opts Options) (RawResult, error) {
	return p.complete(ctx, BuildPrompt(content, "", opts))
}

func (p *openAIProvider) GenerateChunk(ctx context.Context, chunk, previousContext string, opts Options) (RawResult, error) {
	return p.complete(ctx, BuildPrompt(chunk, previousContext, opts))
}

func (p *openAIProvider) complete(ctx context.Context, prompt Prompt) (RawResult, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt.User},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   QuestionSchemaName,
				Schema: QuestionSchemaJSON(),
			},
		},
		Temperature: openAITemperature,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			p.log.Debug("OpenAI request rejected", "status", apiErr.HTTPStatusCode, "code", apiErr.Code)
		}
		return nil, providerErr(p.Name(), err)
	}
	if len(resp.Choices) == 0 {
		return nil, providerErr(p.Name(), errors.New("response has no choices"))
	}
	out, err := decodeResult(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, providerErr(p.Name(), err)
	}
	return out, nil
}
