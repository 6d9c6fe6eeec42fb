package llm

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/y-sonoda/quill/pkg/adapter"
	"github.com/y-sonoda/quill/pkg/model"
	"google.golang.org/genai"
)

// GeminiProvider invokes the Gemini generative API through the adapter
type GeminiProvider struct {
	client adapter.Gemini
	model  string
}

// NewGeminiProvider creates a Gemini provider. A nil client marks the
// provider as unconfigured; Invoke then fails without a network call.
func NewGeminiProvider(client adapter.Gemini, modelName string) *GeminiProvider {
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	return &GeminiProvider{
		client: client,
		model:  modelName,
	}
}

// Model returns the configured model identifier
func (p *GeminiProvider) Model() string {
	return p.model
}

// Invoke executes a GenerateContent call and normalizes output/metrics
func (p *GeminiProvider) Invoke(ctx context.Context, messages []model.Message) *model.Response {
	if p.client == nil {
		return model.NewErrorResponse("gemini", p.model,
			"GEMINI_PROJECT_ID is missing. Configure the Google Cloud project for Gemini.")
	}

	systemInstruction, contents := buildGeminiPayload(messages)
	if len(contents) == 0 {
		contents = []*genai.Content{genai.NewContentFromText("Hello", genai.RoleUser)}
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](generationTemperature),
		MaxOutputTokens: generationMaxTokens,
	}
	if systemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(systemInstruction, "")
	}

	started := time.Now()
	result, err := p.client.GenerateContent(ctx, contents, config)
	if err != nil {
		return model.NewErrorResponse("gemini", p.model, err.Error())
	}
	elapsed := latencyMillis(time.Since(started))

	answer := strings.TrimSpace(geminiOutputText(result))

	resp := model.NewResponse("gemini", p.model, answer)
	resp.SetMetric("latency_ms", elapsed)
	var promptTokens, completionTokens, totalTokens any
	if usage := result.UsageMetadata; usage != nil {
		promptTokens = usage.PromptTokenCount
		completionTokens = usage.CandidatesTokenCount
		totalTokens = usage.TotalTokenCount
	}
	resp.SetMetric("prompt_tokens", promptTokens)
	resp.SetMetric("completion_tokens", completionTokens)
	resp.SetMetric("total_tokens", totalTokens)
	resp.SetMetric("response_chars", utf8.RuneCountInString(answer))
	return resp
}

// buildGeminiPayload joins system messages into one system instruction
// and converts user/assistant turns into genai contents
func buildGeminiPayload(messages []model.Message) (string, []*genai.Content) {
	var systemParts []string
	var contents []*genai.Content

	for _, msg := range messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}

		switch msg.Role {
		case model.RoleSystem:
			systemParts = append(systemParts, content)
		case model.RoleUser:
			contents = append(contents, genai.NewContentFromText(content, genai.RoleUser))
		case model.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(content, genai.RoleModel))
		}
	}

	return strings.Join(systemParts, "\n\n"), contents
}

func geminiOutputText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}

	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}
	return text.String()
}
