// Package telemetry emits best-effort inference events. Emission never
// affects the caller's result or control flow: every failure in this
// package is swallowed.
package telemetry

import (
	"context"

	"github.com/y-sonoda/quill/pkg/model"
)

// Sink receives one event per inference request
type Sink interface {
	// Emit records one prompt/response pair. Implementations must not
	// return errors or panic; failures are dropped.
	Emit(ctx context.Context, prompt string, resp *model.Response)
}

// nopSink discards all events
type nopSink struct{}

// NewNop creates a sink that discards all events. Used when telemetry is
// disabled or the logging backend is unavailable.
func NewNop() Sink {
	return &nopSink{}
}

func (s *nopSink) Emit(ctx context.Context, prompt string, resp *model.Response) {}
