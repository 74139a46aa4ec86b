package config

import (
	"time"
)

type Config struct {
	Server       ServerConfig                 `yaml:"server"`
	Log          LogConfig                    `yaml:"log"`
	Storage      StorageConfig                `yaml:"storage"`
	Chains       ChainsConfig                 `yaml:"chains"`
	Transcribers map[string]ProviderConfig    `yaml:"transcribers"`
	Analyzers    map[string]ProviderConfig    `yaml:"analyzers"`
	Reasoners    map[string]ProviderConfig    `yaml:"reasoners"`
	Synthesizers map[string]SynthesizerConfig `yaml:"synthesizers"`
}

type ServerConfig struct {
	IP            string `yaml:"ip"`
	Port          int    `yaml:"port"`
	StaticDir     string `yaml:"static_dir"`
	MaxUploadSize int64  `yaml:"max_upload_size"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

type StorageConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// ChainsConfig lists candidate providers per capability, in priority order.
// Entries name keys of the corresponding provider map; earlier entries are
// tried first.
type ChainsConfig struct {
	Transcription []string `yaml:"transcription"`
	Vision        []string `yaml:"vision"`
	Reasoning     []string `yaml:"reasoning"`
	Preview       []string `yaml:"preview"`
}

// ProviderConfig describes one provider/model candidate.
type ProviderConfig struct {
	Type        string        `yaml:"type"`
	ModelName   string        `yaml:"model_name"`
	BaseURL     string        `yaml:"url"`
	APIKey      string        `yaml:"api_key"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// SynthesizerConfig extends ProviderConfig with the submit/poll knobs used
// by asynchronous image generation providers.
type SynthesizerConfig struct {
	ProviderConfig `yaml:",inline"`
	Version        string        `yaml:"version"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	MaxPolls       int           `yaml:"max_polls"`
}
