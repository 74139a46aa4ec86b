package eventbus

import (
	"stitchsense-server-go/internal/platform/logging"
)

// SetupEventHandlers attaches the default logging subscribers. Failed
// attempts and exhausted chains are worth a line in the log even when the
// request itself recovers.
func SetupEventHandlers(logger *logging.Logger) error {
	if logger == nil {
		logger = logging.DefaultLogger
	}

	if err := SubscribeAsync(EventAttemptFailed, func(data AttemptEventData) {
		logger.WarnTag("Chain", "request %s: %s attempt %d (%s/%s) failed: %s",
			data.RequestID, data.Capability, data.Position, data.Provider, data.Model, data.Reason)
	}); err != nil {
		return err
	}

	if err := SubscribeAsync(EventChainExhausted, func(data ChainEventData) {
		logger.WarnTag("Chain", "request %s: %s chain exhausted after %d attempts",
			data.RequestID, data.Capability, data.Attempts)
	}); err != nil {
		return err
	}

	if err := SubscribeAsync(EventDiagnosisCompleted, func(data DiagnosisEventData) {
		logger.InfoTag("Diagnose", "request %s completed", data.RequestID)
	}); err != nil {
		return err
	}

	return nil
}
