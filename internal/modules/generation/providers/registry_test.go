package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eduforge/lms-backend/internal/config"
)

func TestNewRegistrySkipsProvidersWithoutKeys(t *testing.T) {
	ai := config.AIConfig{
		PrimaryProvider: "openai",
		PrimaryModel:    "gpt-4o-mini",
		FallbackOrder:   []string{"openai", "anthropic"},
		Providers: map[string]config.ProviderConfig{
			"openai":    {DefaultModel: "gpt-4o-mini"},
			"anthropic": {APIKey: "k", DefaultModel: "claude-3-haiku-20240307"},
		},
	}
	reg, err := NewRegistry(context.Background(), testLogger(t), ai, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"anthropic"}, reg.Names())
	require.NoError(t, reg.Close())
}

func TestNewRegistryFailsWithoutAnyProvider(t *testing.T) {
	ai := config.AIConfig{
		FallbackOrder: []string{"openai"},
		Providers:     map[string]config.ProviderConfig{"openai": {DefaultModel: "gpt-4o-mini"}},
	}
	_, err := NewRegistry(context.Background(), testLogger(t), ai, nil)
	require.Error(t, err)
}

func TestNewRegistryRejectsUnknownProvider(t *testing.T) {
	ai := config.AIConfig{
		FallbackOrder: []string{"mistral"},
		Providers:     map[string]config.ProviderConfig{"mistral": {APIKey: "k", DefaultModel: "m"}},
	}
	_, err := NewRegistry(context.Background(), testLogger(t), ai, nil)
	require.Error(t, err)
}

func TestStaticRegistryKeepsOrder(t *testing.T) {
	a := &geminiProvider{log: testLogger(t)}
	reg := NewStaticRegistry(a)
	require.Equal(t, []string{"gemini"}, reg.Names())
}
