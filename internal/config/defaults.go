package config

import "time"

func defaultConfig() *Config {
	return &Config{
		Env: "development",
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: 15 * time.Second,
			CORSOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
				"http://127.0.0.1:3000",
				"http://127.0.0.1:5173",
			},
		},
		DB: DBConfig{
			Driver:     "postgres",
			Host:       "localhost",
			Port:       "5432",
			User:       "postgres",
			Name:       "lms",
			SQLitePath: "lms.db",
		},
		Redis: RedisConfig{KeyPrefix: "lesson_review:"},
		Storage: StorageConfig{
			Mode:     StorageModeLocal,
			LocalDir: "storage/lessons",
		},
		Upload: UploadConfig{
			MaxBytes:  10 << 20,
			ReviewTTL: time.Hour,
		},
		AI: defaultAIConfig(),
	}
}

func defaultAIConfig() AIConfig {
	return AIConfig{
		PrimaryProvider: "openai",
		PrimaryModel:    "gpt-4o-mini",
		FallbackOrder:   []string{"openai", "anthropic", "gemini"},
		Timeout:         30 * time.Second,
		Providers: map[string]ProviderConfig{
			"openai": {
				DefaultModel: "gpt-4o-mini",
				Models: map[string]ModelLimits{
					"gpt-4o-mini": {MaxInputTokens: 128000, MaxOutputTokens: 16384, SafeLimit: 100000},
					"gpt-4":       {MaxInputTokens: 8192, MaxOutputTokens: 4096, SafeLimit: 6000},
				},
			},
			"anthropic": {
				DefaultModel: "claude-3-5-sonnet-20241022",
				Models: map[string]ModelLimits{
					"claude-3-5-sonnet-20241022": {MaxInputTokens: 200000, MaxOutputTokens: 8192, SafeLimit: 160000},
					"claude-3-haiku-20240307":    {MaxInputTokens: 200000, MaxOutputTokens: 4096, SafeLimit: 160000},
				},
			},
			"gemini": {
				DefaultModel: "gemini-2.5-flash",
				Models: map[string]ModelLimits{
					"gemini-2.5-flash": {MaxInputTokens: 32768, MaxOutputTokens: 8192, SafeLimit: 25000},
				},
			},
		},
		Chunking: ChunkingConfig{
			BufferTokens:      10000,
			OverlapPercentage: 0.05,
			TokensPerWord:     1.3,
		},
	}
}
