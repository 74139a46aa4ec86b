package vision

import (
	"fmt"
	"time"

	"stitchsense-server-go/internal/domain/providers"
	"stitchsense-server-go/internal/platform/logging"
)

// Config holds the settings for one vision analysis provider.
type Config struct {
	Type        string
	ModelName   string
	BaseURL     string
	APIKey      string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Factory builds a VisionAnalyzer from its config.
type Factory func(config *Config, logger *logging.Logger) (providers.VisionAnalyzer, error)

var factories = make(map[string]Factory)

// Register registers a vision analyzer factory under a type name.
func Register(name string, factory Factory) {
	factories[name] = factory
}

// Create builds a vision analyzer of the given type.
func Create(name string, config *Config, logger *logging.Logger) (providers.VisionAnalyzer, error) {
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown vision analyzer type: %s", name)
	}

	provider, err := factory(config, logger)
	if err != nil {
		return nil, fmt.Errorf("create vision analyzer %s: %w", name, err)
	}

	return provider, nil
}
