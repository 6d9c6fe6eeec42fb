// Package chat manages a side-by-side comparison session: the same
// prompt goes to every configured provider, each with its own history
// and metric trail.
package chat

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/y-sonoda/quill/pkg/model"
	"github.com/y-sonoda/quill/pkg/service/llm"
)

// Session holds per-provider conversation state. Providers are invoked
// independently: one backend failing or erroring never affects another's
// reply for the same turn.
type Session struct {
	svc       *llm.Service
	providers []string

	histories map[string][]model.Message
	metrics   map[string][]model.Metrics
}

// NewInput contains parameters for creating a comparison session
type NewInput struct {
	Service   *llm.Service
	Providers []string // optional, defaults to all registered providers
}

// Reply is one provider's answer for a single turn
type Reply struct {
	Provider string
	Text     string
	Metrics  model.Metrics
	Fallback bool // true when the deterministic responder produced Text
}

// New creates a comparison session
func New(input NewInput) (*Session, error) {
	if input.Service == nil {
		return nil, goerr.New("llm service is required")
	}

	providers := input.Providers
	if len(providers) == 0 {
		providers = input.Service.Providers()
	}

	return &Session{
		svc:       input.Service,
		providers: providers,
		histories: map[string][]model.Message{},
		metrics:   map[string][]model.Metrics{},
	}, nil
}

// Providers returns the providers this session compares
func (s *Session) Providers() []string {
	return append([]string(nil), s.providers...)
}

// History returns the conversation so far for one provider
func (s *Session) History(provider string) []model.Message {
	return append([]model.Message(nil), s.histories[provider]...)
}

// Metrics returns the per-turn metric snapshots for one provider
func (s *Session) Metrics(provider string) []model.Metrics {
	return append([]model.Metrics(nil), s.metrics[provider]...)
}

// Send runs one shared prompt through every provider. A response
// without usable text is substituted with the deterministic fallback
// answer before it enters the history.
func (s *Session) Send(ctx context.Context, prompt string) []Reply {
	replies := make([]Reply, 0, len(s.providers))

	for _, provider := range s.providers {
		s.histories[provider] = append(s.histories[provider], model.NewUserMessage(prompt))

		result := s.svc.Run(ctx, provider, prompt, s.histories[provider])

		reply := Reply{
			Provider: provider,
			Text:     result.Text,
			Metrics:  result.Metrics,
		}
		if reply.Text == "" {
			reply.Text = s.svc.Fallback(ctx, prompt)
			reply.Fallback = true
		}
		if result.Error != "" {
			if reply.Metrics == nil {
				reply.Metrics = model.Metrics{}
			}
			reply.Metrics["error"] = result.Error
		}

		s.histories[provider] = append(s.histories[provider], model.NewAssistantMessage(reply.Text))
		s.metrics[provider] = append(s.metrics[provider], reply.Metrics)
		replies = append(replies, reply)
	}

	return replies
}
