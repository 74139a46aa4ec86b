package reason

import (
	"fmt"
	"time"

	"stitchsense-server-go/internal/domain/providers"
	"stitchsense-server-go/internal/platform/logging"
)

// Config holds the settings for one reasoning provider.
type Config struct {
	Type        string
	ModelName   string
	BaseURL     string
	APIKey      string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Factory builds a Reasoner from its config.
type Factory func(config *Config, logger *logging.Logger) (providers.Reasoner, error)

var factories = make(map[string]Factory)

// Register registers a reasoner factory under a type name.
func Register(name string, factory Factory) {
	factories[name] = factory
}

// Create builds a reasoner of the given type.
func Create(name string, config *Config, logger *logging.Logger) (providers.Reasoner, error) {
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown reasoner type: %s", name)
	}

	provider, err := factory(config, logger)
	if err != nil {
		return nil, fmt.Errorf("create reasoner %s: %w", name, err)
	}

	return provider, nil
}
