package model

import (
	"time"

	"github.com/google/uuid"
)

// InferenceEvent is the write-only telemetry record for one inference
// request. It is fired and forgotten; nothing in the core reads it back.
type InferenceEvent struct {
	ID            string  `json:"id"`
	TimestampUTC  string  `json:"timestamp_utc"`
	Provider      string  `json:"provider"`
	Model         string  `json:"model"`
	PromptChars   int     `json:"prompt_chars"`
	ResponseChars int     `json:"response_chars"`
	Error         string  `json:"error,omitempty"`
	Metrics       Metrics `json:"metrics"`
}

// NewInferenceEvent builds a telemetry event from one prompt/response pair
func NewInferenceEvent(promptChars int, resp *Response) *InferenceEvent {
	responseChars := 0
	if resp.Text != "" {
		responseChars = len([]rune(resp.Text))
	}
	return &InferenceEvent{
		ID:            uuid.New().String(),
		TimestampUTC:  time.Now().UTC().Format(time.RFC3339Nano),
		Provider:      resp.Provider,
		Model:         resp.Model,
		PromptChars:   promptChars,
		ResponseChars: responseChars,
		Error:         resp.Error,
		Metrics:       resp.Metrics,
	}
}
