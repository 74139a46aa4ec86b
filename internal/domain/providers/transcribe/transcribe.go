package transcribe

import (
	"fmt"
	"time"

	"stitchsense-server-go/internal/domain/providers"
	"stitchsense-server-go/internal/platform/logging"
)

// Config holds the settings for one transcription provider.
type Config struct {
	Type      string
	ModelName string
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
}

// Factory builds a Transcriber from its config.
type Factory func(config *Config, logger *logging.Logger) (providers.Transcriber, error)

var factories = make(map[string]Factory)

// Register registers a transcriber factory under a type name.
func Register(name string, factory Factory) {
	factories[name] = factory
}

// Create builds a transcriber of the given type.
func Create(name string, config *Config, logger *logging.Logger) (providers.Transcriber, error) {
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown transcriber type: %s", name)
	}

	provider, err := factory(config, logger)
	if err != nil {
		return nil, fmt.Errorf("create transcriber %s: %w", name, err)
	}

	return provider, nil
}
