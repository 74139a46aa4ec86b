package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"stitchsense-server-go/internal/platform/logging"
)

// Loader reads configuration from a yaml file, expanding ${VAR} references
// from the environment so credentials never live in the file itself.
type Loader struct {
	path      string
	useDotEnv bool
}

// NewLoader creates a loader for the default config.yaml path.
func NewLoader() *Loader {
	return &Loader{
		path:      "config.yaml",
		useDotEnv: true,
	}
}

// WithPath overrides the config file path.
func (l *Loader) WithPath(path string) *Loader {
	if path != "" {
		l.path = path
	}
	return l
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

// Load reads the config file on top of the built-in defaults. A missing file
// is not an error: defaults plus environment variables carry the server.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		if err := godotenv.Load(); err != nil {
			logging.DefaultLogger.InfoTag("Config", "no .env file found, using process environment")
		}
	}

	cfg := Default()
	path := l.path

	data, err := os.ReadFile(l.path)
	switch {
	case err == nil:
		expanded := os.Expand(string(data), func(key string) string {
			if v, ok := os.LookupEnv(key); ok {
				return v
			}
			return "${" + key + "}"
		})
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", l.path, err)
		}
	case os.IsNotExist(err):
		path = "defaults"
	default:
		return nil, fmt.Errorf("read %s: %w", l.path, err)
	}

	expandCredentials(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &Result{
		Config: cfg,
		Path:   path,
	}, nil
}

// expandCredentials resolves ${VAR} placeholders left in provider api keys,
// covering the defaults-only path where no file was expanded.
func expandCredentials(cfg *Config) {
	expand := func(s string) string {
		return os.Expand(s, func(key string) string {
			return os.Getenv(key)
		})
	}
	for name, p := range cfg.Transcribers {
		p.APIKey = expand(p.APIKey)
		cfg.Transcribers[name] = p
	}
	for name, p := range cfg.Analyzers {
		p.APIKey = expand(p.APIKey)
		cfg.Analyzers[name] = p
	}
	for name, p := range cfg.Reasoners {
		p.APIKey = expand(p.APIKey)
		cfg.Reasoners[name] = p
	}
	for name, p := range cfg.Synthesizers {
		p.APIKey = expand(p.APIKey)
		cfg.Synthesizers[name] = p
	}
}

// validate checks that every chain entry names a configured provider.
func validate(cfg *Config) error {
	check := func(capability string, chain []string, known map[string]bool) error {
		if len(chain) == 0 {
			return fmt.Errorf("chain %s has no candidates", capability)
		}
		for _, name := range chain {
			if !known[name] {
				return fmt.Errorf("chain %s references unknown provider %q", capability, name)
			}
		}
		return nil
	}

	if err := check("transcription", cfg.Chains.Transcription, keysOf(cfg.Transcribers)); err != nil {
		return err
	}
	if err := check("vision", cfg.Chains.Vision, keysOf(cfg.Analyzers)); err != nil {
		return err
	}
	if err := check("reasoning", cfg.Chains.Reasoning, keysOf(cfg.Reasoners)); err != nil {
		return err
	}
	if err := check("preview", cfg.Chains.Preview, synthKeysOf(cfg.Synthesizers)); err != nil {
		return err
	}
	return nil
}

func keysOf(m map[string]ProviderConfig) map[string]bool {
	known := make(map[string]bool, len(m))
	for k := range m {
		known[k] = true
	}
	return known
}

func synthKeysOf(m map[string]SynthesizerConfig) map[string]bool {
	known := make(map[string]bool, len(m))
	for k := range m {
		known[k] = true
	}
	return known
}
