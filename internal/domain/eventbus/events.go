package eventbus

const (
	// Chain attempt events
	EventAttemptStarted   = "chain:attempt_started"
	EventAttemptFailed    = "chain:attempt_failed"
	EventAttemptSucceeded = "chain:attempt_succeeded"
	EventChainExhausted   = "chain:exhausted"

	// Pipeline events
	EventStageCompleted     = "pipeline:stage_completed"
	EventDiagnosisCompleted = "pipeline:diagnosis_completed"
	EventPreviewCompleted   = "pipeline:preview_completed"
)

type AttemptEventData struct {
	RequestID  string `json:"request_id"`
	Capability string `json:"capability"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Position   int    `json:"position"`
	Reason     string `json:"reason,omitempty"`
	ElapsedMS  int64  `json:"elapsed_ms,omitempty"`
}

type ChainEventData struct {
	RequestID  string `json:"request_id"`
	Capability string `json:"capability"`
	Attempts   int    `json:"attempts"`
}

type StageEventData struct {
	RequestID string `json:"request_id"`
	Stage     string `json:"stage"`
	Provider  string `json:"provider,omitempty"`
	Degraded  bool   `json:"degraded,omitempty"`
}

type DiagnosisEventData struct {
	RequestID     string `json:"request_id"`
	Transcription string `json:"transcription"`
}
