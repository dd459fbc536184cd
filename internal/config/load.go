package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eduforge/lms-backend/internal/platform/envutil"
)

// Load builds the configuration from defaults, an optional YAML file
// (AI_CONFIG_PATH or ./config/ai_models.yaml) and environment overrides.
func Load() (*Config, error) {
	cfg := defaultConfig()

	cfgPath := strings.TrimSpace(os.Getenv("AI_CONFIG_PATH"))
	if cfgPath == "" {
		if wd, err := os.Getwd(); err == nil {
			p := filepath.Join(wd, "config", "ai_models.yaml")
			if _, err := os.Stat(p); err == nil {
				cfgPath = p
			}
		}
	}
	if cfgPath != "" {
		b, err := os.ReadFile(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgPath, err)
		}
		if err := mergeYAML(cfg, b); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	applyEnv(cfg)
	if err := normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeYAML decodes b over cfg. Provider model tables are merged key by key
// so a file may add a model without restating the built-in ones.
func mergeYAML(cfg *Config, b []byte) error {
	builtin := cfg.AI.Providers
	cfg.AI.Providers = nil
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return err
	}
	merged := make(map[string]ProviderConfig, len(builtin))
	for name, p := range builtin {
		merged[name] = p
	}
	for name, p := range cfg.AI.Providers {
		name = strings.ToLower(strings.TrimSpace(name))
		base := merged[name]
		if p.BaseURL != "" {
			base.BaseURL = p.BaseURL
		}
		if p.DefaultModel != "" {
			base.DefaultModel = p.DefaultModel
		}
		if base.Models == nil {
			base.Models = map[string]ModelLimits{}
		}
		for m, l := range p.Models {
			base.Models[m] = l
		}
		merged[name] = base
	}
	cfg.AI.Providers = merged
	if cfg.AI.TimeoutSeconds > 0 {
		cfg.AI.Timeout = time.Duration(cfg.AI.TimeoutSeconds) * time.Second
	}
	if cfg.Upload.ReviewSecs > 0 {
		cfg.Upload.ReviewTTL = time.Duration(cfg.Upload.ReviewSecs) * time.Second
	}
	if cfg.HTTP.ShutdownSeconds > 0 {
		cfg.HTTP.ShutdownTimeout = time.Duration(cfg.HTTP.ShutdownSeconds) * time.Second
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("LOG_MODE", cfg.Env)
	cfg.HTTP.Addr = envutil.String("HTTP_ADDR", cfg.HTTP.Addr)
	cfg.HTTP.CORSOrigins = envutil.List("CORS_ORIGINS", cfg.HTTP.CORSOrigins)

	cfg.DB.Driver = strings.ToLower(envutil.String("DB_DRIVER", cfg.DB.Driver))
	cfg.DB.DSN = envutil.String("DATABASE_URL", cfg.DB.DSN)
	cfg.DB.Host = envutil.String("POSTGRES_HOST", cfg.DB.Host)
	cfg.DB.Port = envutil.String("POSTGRES_PORT", cfg.DB.Port)
	cfg.DB.User = envutil.String("POSTGRES_USER", cfg.DB.User)
	cfg.DB.Password = envutil.String("POSTGRES_PASSWORD", cfg.DB.Password)
	cfg.DB.Name = envutil.String("POSTGRES_NAME", cfg.DB.Name)
	cfg.DB.SQLitePath = envutil.String("SQLITE_PATH", cfg.DB.SQLitePath)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.KeyPrefix = envutil.String("REDIS_REVIEW_PREFIX", cfg.Redis.KeyPrefix)

	cfg.Storage.Mode = StorageMode(strings.ToLower(envutil.String("STORAGE_MODE", string(cfg.Storage.Mode))))
	cfg.Storage.LocalDir = envutil.String("LOCAL_STORAGE_DIR", cfg.Storage.LocalDir)
	cfg.Storage.Bucket = envutil.String("LESSON_GCS_BUCKET", cfg.Storage.Bucket)
	cfg.Storage.EmulatorHost = envutil.String("STORAGE_EMULATOR_HOST", cfg.Storage.EmulatorHost)

	cfg.Upload.MaxBytes = envutil.Int64("UPLOAD_MAX_BYTES", cfg.Upload.MaxBytes)
	cfg.Upload.ReviewTTL = envutil.Seconds("REVIEW_TTL_SECONDS", cfg.Upload.ReviewTTL)

	ai := &cfg.AI
	ai.PrimaryProvider = envutil.String("AI_PRIMARY_PROVIDER", ai.PrimaryProvider)
	ai.PrimaryModel = envutil.String("AI_PRIMARY_MODEL", ai.PrimaryModel)
	ai.FallbackOrder = envutil.List("AI_FALLBACK_ORDER", ai.FallbackOrder)
	ai.Timeout = envutil.Seconds("AI_TIMEOUT_SECONDS", ai.Timeout)
	ai.Chunking.BufferTokens = envutil.Int("AI_CHUNK_BUFFER_TOKENS", ai.Chunking.BufferTokens)
	ai.Chunking.OverlapPercentage = envutil.Float("AI_CHUNK_OVERLAP", ai.Chunking.OverlapPercentage)

	for name, env := range map[string]string{
		"openai":    "OPENAI",
		"anthropic": "ANTHROPIC",
		"gemini":    "GEMINI",
	} {
		p := ai.Providers[name]
		p.APIKey = envutil.String(env+"_API_KEY", p.APIKey)
		p.BaseURL = envutil.String(env+"_BASE_URL", p.BaseURL)
		p.DefaultModel = envutil.String(env+"_MODEL", p.DefaultModel)
		ai.Providers[name] = p
	}
}

func normalize(cfg *Config) error {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "development"
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		cfg.HTTP.Addr = ":8080"
	}
	switch cfg.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB.Driver)
	}
	switch cfg.Storage.Mode {
	case StorageModeLocal:
	case StorageModeGCS, StorageModeGCSEmulator:
		if cfg.Storage.Bucket == "" {
			return errors.New("LESSON_GCS_BUCKET is required for gcs storage")
		}
		if cfg.Storage.Mode == StorageModeGCSEmulator && cfg.Storage.EmulatorHost == "" {
			return errors.New("STORAGE_EMULATOR_HOST is required for gcs_emulator storage")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_MODE %q", cfg.Storage.Mode)
	}
	if cfg.Upload.MaxBytes <= 0 {
		cfg.Upload.MaxBytes = 10 << 20
	}
	if cfg.Upload.ReviewTTL <= 0 {
		cfg.Upload.ReviewTTL = time.Hour
	}
	return ValidateAI(&cfg.AI)
}

// ValidateAI normalizes provider names and rejects configurations the
// generation manager cannot run with.
func ValidateAI(ai *AIConfig) error {
	ai.PrimaryProvider = strings.ToLower(strings.TrimSpace(ai.PrimaryProvider))
	order := make([]string, 0, len(ai.FallbackOrder))
	seen := map[string]bool{}
	for _, name := range ai.FallbackOrder {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		if _, ok := ai.Providers[name]; !ok {
			return fmt.Errorf("fallback provider %q is not configured", name)
		}
		seen[name] = true
		order = append(order, name)
	}
	if len(order) == 0 {
		return errors.New("ai_models.fallback_order must name at least one provider")
	}
	ai.FallbackOrder = order

	limits, ok := ai.Limits(ai.PrimaryProvider, ai.PrimaryModel)
	if !ok {
		return fmt.Errorf("primary model %s/%s has no token limits configured", ai.PrimaryProvider, ai.PrimaryModel)
	}
	if limits.SafeLimit <= 0 {
		return fmt.Errorf("primary model %s safe_limit must be positive", ai.PrimaryModel)
	}
	if ai.Chunking.TokensPerWord <= 0 {
		ai.Chunking.TokensPerWord = 1.3
	}
	if ai.Chunking.OverlapPercentage < 0 || ai.Chunking.OverlapPercentage >= 1 {
		return fmt.Errorf("chunking overlap_percentage %.2f must be in [0,1)", ai.Chunking.OverlapPercentage)
	}
	budget := limits.SafeLimit - ai.Chunking.BufferTokens
	if int(float64(budget)/ai.Chunking.TokensPerWord) <= 0 {
		return fmt.Errorf("chunk budget is empty: safe_limit %d minus buffer %d leaves no words",
			limits.SafeLimit, ai.Chunking.BufferTokens)
	}
	if ai.Timeout <= 0 {
		ai.Timeout = 30 * time.Second
	}
	return nil
}
