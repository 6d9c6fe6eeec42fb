// Package llm orchestrates one inference request: prompt sanitization,
// local retrieval, message composition, provider dispatch, guardrails,
// and telemetry.
package llm

import (
	"context"
	"math"
	"time"

	"github.com/y-sonoda/quill/pkg/model"
)

// Generation parameters shared by all providers
const (
	generationTemperature = 0.3
	generationMaxTokens   = 500
)

// Provider is the uniform invocation contract over one hosted model
// backend. Invoke never panics and never returns a Go error: missing
// credentials, transport failures, and backend errors all become a
// populated Error field on the Response with Text left empty.
type Provider interface {
	// Invoke sends the ordered message sequence to the backend and
	// returns a normalized response
	Invoke(ctx context.Context, messages []model.Message) *model.Response

	// Model returns the model identifier this provider is configured with
	Model() string
}

// latencyMillis converts an elapsed duration to wall-clock milliseconds
// rounded to two decimals, matching the telemetry payload format
func latencyMillis(elapsed time.Duration) float64 {
	ms := float64(elapsed.Microseconds()) / 1000.0
	return math.Round(ms*100) / 100
}
