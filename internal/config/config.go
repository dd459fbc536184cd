package config

import (
	"strings"
	"time"
)

type Config struct {
	Env     string        `yaml:"env"`
	HTTP    HTTPConfig    `yaml:"http"`
	DB      DBConfig      `yaml:"db"`
	Redis   RedisConfig   `yaml:"redis"`
	Storage StorageConfig `yaml:"storage"`
	Upload  UploadConfig  `yaml:"upload"`
	AI      AIConfig      `yaml:"ai_models"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"-"`
	ShutdownSeconds int           `yaml:"shutdown_seconds"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

type DBConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver     string `yaml:"driver"`
	DSN        string `yaml:"dsn"`
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"-"`
	Name       string `yaml:"name"`
	SQLitePath string `yaml:"sqlite_path"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	KeyPrefix string `yaml:"key_prefix"`
}

type StorageMode string

const (
	StorageModeLocal       StorageMode = "local"
	StorageModeGCS         StorageMode = "gcs"
	StorageModeGCSEmulator StorageMode = "gcs_emulator"
)

type StorageConfig struct {
	Mode         StorageMode `yaml:"mode"`
	LocalDir     string      `yaml:"local_dir"`
	Bucket       string      `yaml:"bucket"`
	EmulatorHost string      `yaml:"emulator_host"`
}

type UploadConfig struct {
	MaxBytes   int64         `yaml:"max_bytes"`
	ReviewTTL  time.Duration `yaml:"-"`
	ReviewSecs int           `yaml:"review_ttl_seconds"`
}

// ModelLimits are the token ceilings of one model. SafeLimit is the
// threshold above which content is chunked.
type ModelLimits struct {
	MaxInputTokens  int `yaml:"max_input_tokens"`
	MaxOutputTokens int `yaml:"max_output_tokens"`
	SafeLimit       int `yaml:"safe_limit"`
}

type ProviderConfig struct {
	APIKey       string                 `yaml:"-"`
	BaseURL      string                 `yaml:"base_url"`
	DefaultModel string                 `yaml:"default_model"`
	Models       map[string]ModelLimits `yaml:"models"`
}

type ChunkingConfig struct {
	BufferTokens      int     `yaml:"buffer_tokens"`
	OverlapPercentage float64 `yaml:"overlap_percentage"`
	TokensPerWord     float64 `yaml:"tokens_per_word"`
}

type AIConfig struct {
	PrimaryProvider string                    `yaml:"primary_provider"`
	PrimaryModel    string                    `yaml:"primary_model"`
	FallbackOrder   []string                  `yaml:"fallback_order"`
	TimeoutSeconds  int                       `yaml:"timeout"`
	Timeout         time.Duration             `yaml:"-"`
	Providers       map[string]ProviderConfig `yaml:"providers"`
	Chunking        ChunkingConfig            `yaml:"chunking"`
}

// ModelFor returns the model a provider should call: the primary model for the
// primary provider, otherwise the provider's default.
func (c AIConfig) ModelFor(provider string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == c.PrimaryProvider && c.PrimaryModel != "" {
		return c.PrimaryModel
	}
	return c.Providers[provider].DefaultModel
}

func (c AIConfig) Limits(provider, model string) (ModelLimits, bool) {
	p, ok := c.Providers[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		return ModelLimits{}, false
	}
	l, ok := p.Models[model]
	return l, ok
}

// PrimarySafeLimit is the chunking threshold of the primary model.
func (c AIConfig) PrimarySafeLimit() int {
	l, _ := c.Limits(c.PrimaryProvider, c.PrimaryModel)
	return l.SafeLimit
}
