package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"AI_CONFIG_PATH", "LOG_MODE", "HTTP_ADDR", "DB_DRIVER", "STORAGE_MODE", "LESSON_GCS_BUCKET",
		"AI_PRIMARY_PROVIDER", "AI_PRIMARY_MODEL", "AI_FALLBACK_ORDER", "AI_TIMEOUT_SECONDS",
		"AI_CHUNK_BUFFER_TOKENS", "AI_CHUNK_OVERLAP", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY",
		"UPLOAD_MAX_BYTES", "REVIEW_TTL_SECONDS",
	} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	isolateEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AI.PrimaryProvider != "openai" || cfg.AI.PrimaryModel != "gpt-4o-mini" {
		t.Fatalf("primary=%s/%s", cfg.AI.PrimaryProvider, cfg.AI.PrimaryModel)
	}
	if got := cfg.AI.PrimarySafeLimit(); got != 100000 {
		t.Fatalf("PrimarySafeLimit=%d want 100000", got)
	}
	if cfg.AI.Timeout != 30*time.Second {
		t.Fatalf("Timeout=%s", cfg.AI.Timeout)
	}
	if len(cfg.AI.FallbackOrder) != 3 || cfg.AI.FallbackOrder[2] != "gemini" {
		t.Fatalf("FallbackOrder=%v", cfg.AI.FallbackOrder)
	}
	if cfg.Upload.MaxBytes != 10485760 {
		t.Fatalf("MaxBytes=%d", cfg.Upload.MaxBytes)
	}
	if cfg.AI.ModelFor("anthropic") != "claude-3-5-sonnet-20241022" {
		t.Fatalf("anthropic model=%s", cfg.AI.ModelFor("anthropic"))
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	isolateEnv(t)
	t.Setenv("AI_PRIMARY_MODEL", "gpt-4")
	t.Setenv("AI_FALLBACK_ORDER", "Anthropic, openai, anthropic")
	t.Setenv("AI_TIMEOUT_SECONDS", "12")
	t.Setenv("AI_CHUNK_BUFFER_TOKENS", "1000")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AI.PrimarySafeLimit() != 6000 {
		t.Fatalf("PrimarySafeLimit=%d", cfg.AI.PrimarySafeLimit())
	}
	if len(cfg.AI.FallbackOrder) != 2 || cfg.AI.FallbackOrder[0] != "anthropic" {
		t.Fatalf("FallbackOrder=%v", cfg.AI.FallbackOrder)
	}
	if cfg.AI.Timeout != 12*time.Second {
		t.Fatalf("Timeout=%s", cfg.AI.Timeout)
	}
	if cfg.AI.Providers["openai"].APIKey != "sk-test" {
		t.Fatalf("api key not applied")
	}
}

func TestLoadYAMLMergesModels(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "ai.yaml")
	body := `
ai_models:
  primary_provider: gemini
  primary_model: gemini-2.0-pro
  timeout: 45
  providers:
    gemini:
      models:
        gemini-2.0-pro:
          max_input_tokens: 1000000
          max_output_tokens: 8192
          safe_limit: 800000
  chunking:
    buffer_tokens: 5000
    overlap_percentage: 0.1
    tokens_per_word: 1.3
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("AI_CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AI.PrimarySafeLimit() != 800000 {
		t.Fatalf("PrimarySafeLimit=%d", cfg.AI.PrimarySafeLimit())
	}
	if _, ok := cfg.AI.Limits("gemini", "gemini-2.5-flash"); !ok {
		t.Fatalf("built-in gemini model lost during merge")
	}
	if cfg.AI.Timeout != 45*time.Second {
		t.Fatalf("Timeout=%s", cfg.AI.Timeout)
	}
	if cfg.AI.Chunking.BufferTokens != 5000 {
		t.Fatalf("BufferTokens=%d", cfg.AI.Chunking.BufferTokens)
	}
}

func TestValidateAIRejectsEmptyChunkBudget(t *testing.T) {
	ai := defaultAIConfig()
	ai.Chunking.BufferTokens = 100000
	if err := ValidateAI(&ai); err == nil {
		t.Fatalf("expected error when buffer consumes the safe limit")
	}
}

func TestValidateAIRejectsUnknownProvider(t *testing.T) {
	ai := defaultAIConfig()
	ai.FallbackOrder = []string{"openai", "mistral"}
	if err := ValidateAI(&ai); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestLoadRejectsGCSWithoutBucket(t *testing.T) {
	isolateEnv(t)
	t.Setenv("STORAGE_MODE", "gcs")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error")
	}
}
