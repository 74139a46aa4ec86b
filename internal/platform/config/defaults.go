package config

import "time"

// Default returns the built-in configuration. Values mirror config.yaml so
// the server can start without a config file as long as the provider
// credentials are present in the environment.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			IP:            "0.0.0.0",
			Port:          8080,
			StaticDir:     "./web",
			MaxUploadSize: 5 * 1024 * 1024,
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "logs",
			File:  "server.log",
		},
		Storage: StorageConfig{
			Enabled: true,
			DSN:     "data/stitchsense.db",
		},
		Chains: ChainsConfig{
			Transcription: []string{"groq-whisper"},
			Vision:        []string{"gemini-flash", "groq-vision"},
			Reasoning:     []string{"groq-llama", "gemini-pro"},
			Preview:       []string{"gemini-image", "replicate-sdxl"},
		},
		Transcribers: map[string]ProviderConfig{
			"groq-whisper": {
				Type:      "groq",
				ModelName: "whisper-large-v3",
				BaseURL:   "https://api.groq.com/openai/v1",
				APIKey:    "${GROQ_API_KEY}",
				Timeout:   30 * time.Second,
			},
		},
		Analyzers: map[string]ProviderConfig{
			"gemini-flash": {
				Type:        "gemini",
				ModelName:   "gemini-2.5-flash",
				APIKey:      "${GEMINI_API_KEY}",
				Temperature: 0.4,
				Timeout:     30 * time.Second,
			},
			"groq-vision": {
				Type:        "openai",
				ModelName:   "meta-llama/llama-4-scout-17b-16e-instruct",
				BaseURL:     "https://api.groq.com/openai/v1",
				APIKey:      "${GROQ_API_KEY}",
				Temperature: 0.4,
				Timeout:     30 * time.Second,
			},
		},
		Reasoners: map[string]ProviderConfig{
			"groq-llama": {
				Type:        "groq",
				ModelName:   "llama-3.3-70b-versatile",
				BaseURL:     "https://api.groq.com/openai/v1",
				APIKey:      "${GROQ_API_KEY}",
				Temperature: 0.6,
				MaxTokens:   2048,
				Timeout:     45 * time.Second,
			},
			"gemini-pro": {
				Type:        "gemini",
				ModelName:   "gemini-2.5-pro",
				APIKey:      "${GEMINI_API_KEY}",
				Temperature: 0.6,
				Timeout:     45 * time.Second,
			},
		},
		Synthesizers: map[string]SynthesizerConfig{
			"gemini-image": {
				ProviderConfig: ProviderConfig{
					Type:      "gemini",
					ModelName: "gemini-2.0-flash-preview-image-generation",
					APIKey:    "${GEMINI_API_KEY}",
					Timeout:   60 * time.Second,
				},
			},
			"replicate-sdxl": {
				ProviderConfig: ProviderConfig{
					Type:    "replicate",
					BaseURL: "https://api.replicate.com/v1",
					APIKey:  "${REPLICATE_API_TOKEN}",
					Timeout: 15 * time.Second,
				},
				Version:      "stability-ai/sdxl:39ed52f2146964a8895ccf3916c95c17d2b10b1a7b97a4e49be37d3b6a5ec2d0",
				PollInterval: 2 * time.Second,
				MaxPolls:     15,
			},
		},
	}
}
