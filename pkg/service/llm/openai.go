package llm

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/openai/openai-go"
	"github.com/y-sonoda/quill/pkg/adapter"
	"github.com/y-sonoda/quill/pkg/model"
)

// DefaultOpenAIModel is used when no model override is configured
const DefaultOpenAIModel = "gpt-4.1-nano"

// OpenAIProvider invokes the OpenAI chat-completion API
type OpenAIProvider struct {
	client adapter.OpenAI
	model  string
}

// NewOpenAIProvider creates an OpenAI provider. A nil client marks the
// provider as unconfigured; Invoke then fails without a network call.
func NewOpenAIProvider(client adapter.OpenAI, modelName string) *OpenAIProvider {
	if modelName == "" {
		modelName = DefaultOpenAIModel
	}
	return &OpenAIProvider{
		client: client,
		model:  modelName,
	}
}

// Model returns the configured model identifier
func (p *OpenAIProvider) Model() string {
	return p.model
}

// Invoke executes a chat completion call and normalizes output/metrics
func (p *OpenAIProvider) Invoke(ctx context.Context, messages []model.Message) *model.Response {
	if p.client == nil {
		return model.NewErrorResponse("openai", p.model,
			"OPENAI_API_KEY is missing. Add it to your environment or .env file.")
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(p.model),
		Messages:    toOpenAIMessages(messages),
		Temperature: openai.Float(generationTemperature),
		MaxTokens:   openai.Int(generationMaxTokens),
	}

	started := time.Now()
	result, err := p.client.CreateChatCompletion(ctx, params)
	if err != nil {
		return model.NewErrorResponse("openai", p.model, err.Error())
	}
	elapsed := latencyMillis(time.Since(started))

	answer := ""
	if len(result.Choices) > 0 {
		answer = strings.TrimSpace(result.Choices[0].Message.Content)
	}

	resp := model.NewResponse("openai", p.model, answer)
	resp.SetMetric("latency_ms", elapsed)
	var promptTokens, completionTokens, totalTokens any
	if usage := result.Usage; usage.PromptTokens != 0 || usage.CompletionTokens != 0 || usage.TotalTokens != 0 {
		promptTokens = usage.PromptTokens
		completionTokens = usage.CompletionTokens
		totalTokens = usage.TotalTokens
	}
	resp.SetMetric("prompt_tokens", promptTokens)
	resp.SetMetric("completion_tokens", completionTokens)
	resp.SetMetric("total_tokens", totalTokens)
	resp.SetMetric("response_chars", utf8.RuneCountInString(answer))
	return resp
}

func toOpenAIMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			params = append(params, openai.SystemMessage(msg.Content))
		case model.RoleAssistant:
			params = append(params, openai.AssistantMessage(msg.Content))
		default:
			params = append(params, openai.UserMessage(msg.Content))
		}
	}
	return params
}
