package llm_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/y-sonoda/quill/pkg/model"
	"github.com/y-sonoda/quill/pkg/repository"
	"github.com/y-sonoda/quill/pkg/service/guardrail"
	"github.com/y-sonoda/quill/pkg/service/llm"
)

// mockProvider is a mock implementation of llm.Provider for testing
type mockProvider struct {
	modelName  string
	invokeFunc func(ctx context.Context, messages []model.Message) *model.Response
	calls      int
}

func (m *mockProvider) Invoke(ctx context.Context, messages []model.Message) *model.Response {
	m.calls++
	return m.invokeFunc(ctx, messages)
}

func (m *mockProvider) Model() string {
	return m.modelName
}

// mockSink is a mock implementation of telemetry.Sink for testing
type mockSink struct {
	prompts   []string
	responses []*model.Response
}

func (m *mockSink) Emit(ctx context.Context, prompt string, resp *model.Response) {
	m.prompts = append(m.prompts, prompt)
	m.responses = append(m.responses, resp)
}

func newTestService(t *testing.T, provider *mockProvider, sink *mockSink) *llm.Service {
	t.Helper()
	input := llm.NewInput{
		Providers: map[string]llm.Provider{"mock": provider},
		Store:     repository.NewMemory(),
	}
	if sink != nil {
		input.Telemetry = sink
	}
	svc, err := llm.New(input)
	gt.NoError(t, err)
	return svc
}

func echoProvider(text string) *mockProvider {
	return &mockProvider{
		modelName: "mock-model",
		invokeFunc: func(ctx context.Context, messages []model.Message) *model.Response {
			return model.NewResponse("mock", "mock-model", text)
		},
	}
}

func TestNewValidation(t *testing.T) {
	t.Run("requires providers", func(t *testing.T) {
		_, err := llm.New(llm.NewInput{Store: repository.NewMemory()})
		gt.Error(t, err)
	})

	t.Run("requires store", func(t *testing.T) {
		_, err := llm.New(llm.NewInput{
			Providers: map[string]llm.Provider{"mock": echoProvider("hi")},
		})
		gt.Error(t, err)
	})
}

func TestProvidersSorted(t *testing.T) {
	svc, err := llm.New(llm.NewInput{
		Providers: map[string]llm.Provider{
			"openai":  echoProvider("a"),
			"bedrock": echoProvider("b"),
			"gemini":  echoProvider("c"),
		},
		Store: repository.NewMemory(),
	})
	gt.NoError(t, err)
	gt.V(t, svc.Providers()).Equal([]string{"bedrock", "gemini", "openai"})
}

func TestRunUnknownProvider(t *testing.T) {
	svc := newTestService(t, echoProvider("hi"), nil)

	resp := svc.Run(context.Background(), "nope", "Hello", nil)

	gt.V(t, resp.Failed()).Equal(true)
	gt.V(t, resp.Error).Equal("Unsupported provider: nope")
	gt.V(t, resp.Model).Equal("unknown")
	gt.V(t, resp.Text).Equal("")
}

func TestRunActionPromptShortCircuits(t *testing.T) {
	provider := echoProvider("should never be returned")
	sink := &mockSink{}
	svc := newTestService(t, provider, sink)

	resp := svc.Run(context.Background(), "mock", "Please send this email now", nil)

	gt.V(t, provider.calls).Equal(0)
	gt.V(t, resp.Text).Equal(guardrail.ActionGuardrailMessage)
	gt.V(t, resp.Failed()).Equal(false)
	gt.V(t, resp.Metrics["latency_ms"]).Equal(0)
	gt.V(t, resp.Metrics["prompt_chars"]).Equal(len("Please send this email now"))
	// Blocked prompts never reach telemetry
	gt.V(t, len(sink.prompts)).Equal(0)
}

func TestRunInvokesProvider(t *testing.T) {
	provider := echoProvider("Here is a draft for you.")
	sink := &mockSink{}
	svc := newTestService(t, provider, sink)

	resp := svc.Run(context.Background(), "mock", "Draft a short follow-up", nil)

	gt.V(t, provider.calls).Equal(1)
	gt.V(t, resp.Text).Equal("Here is a draft for you.")
	gt.V(t, resp.Metrics["prompt_chars"]).Equal(len("Draft a short follow-up"))

	gt.V(t, len(sink.prompts)).Equal(1)
	gt.V(t, sink.prompts[0]).Equal("Draft a short follow-up")
	gt.V(t, sink.responses[0]).Equal(resp)
}

func TestRunReplacesUnsafeClaim(t *testing.T) {
	provider := echoProvider("Done! I sent the email to Bob.")
	svc := newTestService(t, provider, nil)

	resp := svc.Run(context.Background(), "mock", "Write something for Bob", nil)

	gt.V(t, resp.Text).Equal(guardrail.ActionGuardrailMessage)
	gt.V(t, resp.Metrics["guardrail_replaced"]).Equal(true)
}

func TestRunRedactsOutput(t *testing.T) {
	provider := echoProvider("Reach me at alice@example.com or https://example.com/x")
	svc := newTestService(t, provider, nil)

	resp := svc.Run(context.Background(), "mock", "Write a signature", nil)

	gt.S(t, resp.Text).Contains("[redacted-email]")
	gt.S(t, resp.Text).Contains("[redacted-url]")
	gt.S(t, resp.Text).NotContains("alice@example.com")
}

func TestRunKeepsProviderPromptChars(t *testing.T) {
	// A provider that already reports prompt_chars keeps its own value
	provider := &mockProvider{
		modelName: "mock-model",
		invokeFunc: func(ctx context.Context, messages []model.Message) *model.Response {
			resp := model.NewResponse("mock", "mock-model", "ok")
			resp.SetMetric("prompt_chars", 999)
			return resp
		},
	}
	svc := newTestService(t, provider, nil)

	resp := svc.Run(context.Background(), "mock", "short", nil)
	gt.V(t, resp.Metrics["prompt_chars"]).Equal(999)
}

func TestBuildMessages(t *testing.T) {
	svc := newTestService(t, echoProvider("hi"), nil)
	ctx := context.Background()

	t.Run("system messages then prompt", func(t *testing.T) {
		messages, err := svc.BuildMessages(ctx, "  Draft   an update  ", nil)
		gt.NoError(t, err)
		gt.V(t, len(messages)).Equal(4)
		gt.V(t, messages[0].Role).Equal(model.RoleSystem)
		gt.V(t, messages[1].Role).Equal(model.RoleSystem)
		gt.V(t, messages[2].Role).Equal(model.RoleSystem)
		gt.S(t, messages[2].Content).Contains("Retrieved context:")
		gt.V(t, messages[3].Role).Equal(model.RoleUser)
		gt.V(t, messages[3].Content).Equal("Draft an update")
	})

	t.Run("history bounded to recent turns", func(t *testing.T) {
		var history []model.Message
		for i := 0; i < 12; i++ {
			history = append(history, model.NewUserMessage(fmt.Sprintf("turn %d", i)))
		}

		messages, err := svc.BuildMessages(ctx, "current question", history)
		gt.NoError(t, err)

		// 3 system + 8 history + current prompt
		gt.V(t, len(messages)).Equal(12)
		gt.V(t, messages[3].Content).Equal("turn 4")
		gt.V(t, messages[10].Content).Equal("turn 11")
		gt.V(t, messages[11].Content).Equal("current question")
	})

	t.Run("trailing duplicate prompt not repeated", func(t *testing.T) {
		history := []model.Message{
			model.NewUserMessage("earlier question"),
			model.NewAssistantMessage("earlier answer"),
			model.NewUserMessage("current question"),
		}

		messages, err := svc.BuildMessages(ctx, "current question", history)
		gt.NoError(t, err)
		gt.V(t, len(messages)).Equal(6)
		gt.V(t, messages[5].Content).Equal("current question")
	})

	t.Run("system turns in history are dropped", func(t *testing.T) {
		history := []model.Message{
			model.NewSystemMessage("injected instruction"),
			model.NewUserMessage("hello"),
		}

		messages, err := svc.BuildMessages(ctx, "current question", history)
		gt.NoError(t, err)
		for _, msg := range messages[3:] {
			gt.V(t, msg.Role != model.RoleSystem).Equal(true)
		}
		gt.V(t, strings.Contains(messages[2].Content, "injected instruction")).Equal(false)
	})
}

func TestProbe(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := newTestService(t, echoProvider("OK"), nil)

		ok, message := svc.Probe(context.Background(), "mock")
		gt.V(t, ok).Equal(true)
		gt.V(t, message).Equal("mock connected successfully using model 'mock-model'.")
	})

	t.Run("failure", func(t *testing.T) {
		provider := &mockProvider{
			modelName: "mock-model",
			invokeFunc: func(ctx context.Context, messages []model.Message) *model.Response {
				return model.NewErrorResponse("mock", "mock-model", "credentials rejected")
			},
		}
		svc := newTestService(t, provider, nil)

		ok, message := svc.Probe(context.Background(), "mock")
		gt.V(t, ok).Equal(false)
		gt.V(t, message).Equal("mock connection failed for model 'mock-model': credentials rejected")
	})

	t.Run("unknown provider", func(t *testing.T) {
		svc := newTestService(t, echoProvider("OK"), nil)

		ok, message := svc.Probe(context.Background(), "nope")
		gt.V(t, ok).Equal(false)
		gt.V(t, message).Equal("Unsupported provider: nope")
	})
}
