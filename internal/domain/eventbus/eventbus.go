package eventbus

import (
	"sync"

	evbus "github.com/asaskevich/EventBus"
)

var (
	instance evbus.Bus
	once     sync.Once
)

// Get returns the process-wide event bus instance.
func Get() evbus.Bus {
	once.Do(func() {
		instance = New()
	})
	return instance
}

// New creates a new event bus.
func New() evbus.Bus {
	return evbus.New()
}

// Publish publishes an event synchronously.
func Publish(topic string, args ...interface{}) {
	Get().Publish(topic, args...)
}

// Subscribe subscribes a handler to a topic.
func Subscribe(topic string, fn interface{}) error {
	return Get().Subscribe(topic, fn)
}

// SubscribeAsync subscribes a handler that runs in its own goroutine.
func SubscribeAsync(topic string, fn interface{}) error {
	return Get().SubscribeAsync(topic, fn, false)
}
