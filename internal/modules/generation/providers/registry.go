package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/eduforge/lms-backend/internal/config"
	"github.com/eduforge/lms-backend/internal/platform/logger"
)

// Registry holds the configured providers in fallback order.
type Registry struct {
	providers []Provider
}

// NewRegistry builds one provider per name in the fallback order. Providers
// without an API key are skipped; an unknown name is a configuration error.
func NewRegistry(ctx context.Context, log *logger.Logger, ai config.AIConfig, hc *http.Client) (*Registry, error) {
	regLog := log.With("service", "ProviderRegistry")
	reg := &Registry{}
	for _, name := range ai.FallbackOrder {
		pc := ai.Providers[name]
		model := ai.ModelFor(name)
		if pc.APIKey == "" {
			regLog.Warn("Skipping generation provider without API key", "provider", name)
			continue
		}
		limits, _ := ai.Limits(name, model)

		var (
			p   Provider
			err error
		)
		switch name {
		case "openai":
			p, err = NewOpenAI(log, OpenAIConfig{APIKey: pc.APIKey, Model: model, BaseURL: pc.BaseURL, HTTPClient: hc})
		case "anthropic":
			p, err = NewAnthropic(log, AnthropicConfig{
				APIKey:     pc.APIKey,
				Model:      model,
				BaseURL:    pc.BaseURL,
				MaxTokens:  limits.MaxOutputTokens,
				HTTPClient: hc,
			})
		case "gemini":
			p, err = NewGemini(ctx, log, GeminiConfig{APIKey: pc.APIKey, Model: model, MaxOutputTokens: limits.MaxOutputTokens})
		default:
			err = fmt.Errorf("unknown provider %q", name)
		}
		if err != nil {
			_ = reg.Close()
			return nil, fmt.Errorf("init provider %s: %w", name, err)
		}
		regLog.Info("Generation provider ready", "provider", name, "model", model)
		reg.providers = append(reg.providers, p)
	}
	if len(reg.providers) == 0 {
		return nil, errors.New("no generation provider has an API key configured")
	}
	return reg, nil
}

// NewStaticRegistry wraps already-built providers, keeping their order.
func NewStaticRegistry(ps ...Provider) *Registry {
	return &Registry{providers: append([]Provider(nil), ps...)}
}

// Ordered returns the providers in fallback order.
func (r *Registry) Ordered() []Provider {
	if r == nil {
		return nil
	}
	return append([]Provider(nil), r.providers...)
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.Ordered()))
	for _, p := range r.Ordered() {
		out = append(out, p.Name())
	}
	return out
}

// Close releases providers holding client connections.
func (r *Registry) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	for _, p := range r.providers {
		if c, ok := p.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
