package imagegen

import (
	"fmt"
	"time"

	"stitchsense-server-go/internal/domain/providers"
	"stitchsense-server-go/internal/platform/logging"
)

// Config holds the settings for one image synthesis provider. PollInterval,
// MaxPolls and Version only apply to submit/poll providers.
type Config struct {
	Type         string
	ModelName    string
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	Version      string
	PollInterval time.Duration
	MaxPolls     int
}

// Factory builds an ImageSynthesizer from its config.
type Factory func(config *Config, logger *logging.Logger) (providers.ImageSynthesizer, error)

var factories = make(map[string]Factory)

// Register registers a synthesizer factory under a type name.
func Register(name string, factory Factory) {
	factories[name] = factory
}

// Create builds a synthesizer of the given type.
func Create(name string, config *Config, logger *logging.Logger) (providers.ImageSynthesizer, error) {
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown synthesizer type: %s", name)
	}

	provider, err := factory(config, logger)
	if err != nil {
		return nil, fmt.Errorf("create synthesizer %s: %w", name, err)
	}

	return provider, nil
}
