package llm

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/y-sonoda/quill/pkg/interfaces"
	"github.com/y-sonoda/quill/pkg/model"
	"github.com/y-sonoda/quill/pkg/service/guardrail"
	"github.com/y-sonoda/quill/pkg/service/rag"
	"github.com/y-sonoda/quill/pkg/service/telemetry"
	"github.com/y-sonoda/quill/pkg/utils/logging"
)

//go:embed prompt/system.md
var systemPromptRaw string

//go:embed prompt/context_header.md
var contextHeaderRaw string

const (
	// historyLimit bounds how many recent history turns reach the model
	historyLimit = 8

	// defaultInvokeTimeout bounds one provider invocation
	defaultInvokeTimeout = 30 * time.Second
)

// Service composes sanitization, retrieval, message building, provider
// dispatch, guardrails, and telemetry into one request/response cycle.
// It holds no per-request state; one Service serves any number of
// independent calls.
type Service struct {
	providers map[string]Provider
	store     interfaces.RecordStore
	guard     *guardrail.Engine
	sink      telemetry.Sink
	timeout   time.Duration
}

// NewInput contains dependencies for creating a Service
type NewInput struct {
	Providers map[string]Provider
	Store     interfaces.RecordStore
	Guardrail *guardrail.Engine // optional, defaults to redaction on
	Telemetry telemetry.Sink    // optional, defaults to discard
	Timeout   time.Duration     // optional, defaults to 30s
}

// New creates an orchestration service
func New(input NewInput) (*Service, error) {
	if len(input.Providers) == 0 {
		return nil, goerr.New("at least one provider is required")
	}
	if input.Store == nil {
		return nil, goerr.New("record store is required")
	}

	svc := &Service{
		providers: input.Providers,
		store:     input.Store,
		guard:     input.Guardrail,
		sink:      input.Telemetry,
		timeout:   input.Timeout,
	}
	if svc.guard == nil {
		svc.guard = guardrail.New()
	}
	if svc.sink == nil {
		svc.sink = telemetry.NewNop()
	}
	if svc.timeout <= 0 {
		svc.timeout = defaultInvokeTimeout
	}
	return svc, nil
}

// Providers returns the registered provider keys in stable order
func (s *Service) Providers() []string {
	keys := make([]string, 0, len(s.providers))
	for key := range s.providers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// BuildMessages composes the ordered message sequence: fixed system
// guidance, retrieved context, up to the 8 most recent history turns,
// and the current sanitized prompt
func (s *Service) BuildMessages(ctx context.Context, prompt string, history []model.Message) ([]model.Message, error) {
	safePrompt := guardrail.Sanitize(prompt)

	chunks, err := rag.BuildChunks(ctx, s.store)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build retrieval chunks")
	}
	retrieved := rag.Retrieve(safePrompt, chunks, rag.DefaultTopK)
	retrievedContext := rag.FormatContext(retrieved)

	messages := []model.Message{
		model.NewSystemMessage(strings.TrimSpace(systemPromptRaw)),
		model.NewSystemMessage(strings.TrimSpace(contextHeaderRaw)),
		model.NewSystemMessage("Retrieved context:\n" + retrievedContext),
	}

	recent := history
	if len(recent) > historyLimit {
		recent = recent[len(recent)-historyLimit:]
	}
	for _, msg := range recent {
		if msg.Role == model.RoleUser || msg.Role == model.RoleAssistant {
			messages = append(messages, msg)
		}
	}

	// The caller may already have appended the current prompt to history
	last := messages[len(messages)-1]
	if !(last.Role == model.RoleUser && strings.TrimSpace(last.Content) == safePrompt) {
		messages = append(messages, model.NewUserMessage(safePrompt))
	}
	return messages, nil
}

// Run executes one provider end-to-end with shared context, guardrails,
// and telemetry. Action-style prompts short-circuit before any provider
// call and return the fixed guardrail message with zero-cost metrics.
func (s *Service) Run(ctx context.Context, providerKey, prompt string, history []model.Message) *model.Response {
	provider, ok := s.providers[providerKey]
	if !ok {
		return model.NewErrorResponse(providerKey, "unknown",
			fmt.Sprintf("Unsupported provider: %s", providerKey))
	}

	promptChars := utf8.RuneCountInString(prompt)

	if guardrail.IsActionRequest(prompt) {
		resp := model.NewResponse(providerKey, provider.Model(), guardrail.ActionGuardrailMessage)
		resp.SetMetric("latency_ms", 0)
		resp.SetMetric("prompt_chars", promptChars)
		resp.SetMetric("response_chars", utf8.RuneCountInString(resp.Text))
		return resp
	}

	messages, err := s.BuildMessages(ctx, prompt, history)
	if err != nil {
		logging.From(ctx).Warn("failed to build messages", "error", err, "provider", providerKey)
		return model.NewErrorResponse(providerKey, provider.Model(), err.Error())
	}

	invokeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	result := provider.Invoke(invokeCtx, messages)

	result.SetMetricDefault("prompt_chars", promptChars)
	s.guard.ApplyOutput(result)
	s.sink.Emit(ctx, prompt, result)
	return result
}

// Probe sends a minimal one-turn request to verify provider
// credentials and connectivity, bypassing retrieval and guardrails
func (s *Service) Probe(ctx context.Context, providerKey string) (bool, string) {
	provider, ok := s.providers[providerKey]
	if !ok {
		return false, fmt.Sprintf("Unsupported provider: %s", providerKey)
	}

	probeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	result := provider.Invoke(probeCtx, []model.Message{model.NewUserMessage("Reply with: OK")})

	if result.Failed() {
		return false, fmt.Sprintf("%s connection failed for model '%s': %s",
			providerKey, result.Model, result.Error)
	}
	return true, fmt.Sprintf("%s connected successfully using model '%s'.",
		providerKey, result.Model)
}

// Fallback returns the deterministic canned answer for a prompt. Used by
// callers whenever a response carries no usable text.
func (s *Service) Fallback(ctx context.Context, prompt string) string {
	return Fallback(ctx, s.store, prompt)
}
