package llm_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/y-sonoda/quill/pkg/model"
	"github.com/y-sonoda/quill/pkg/service/llm"
	"google.golang.org/genai"
)

// mockGemini is a mock implementation of adapter.Gemini for testing
type mockGemini struct {
	generateFunc func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func (m *mockGemini) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return m.generateFunc(ctx, contents, config)
}

func TestGeminiProviderMissingProject(t *testing.T) {
	provider := llm.NewGeminiProvider(nil, "")

	resp := provider.Invoke(context.Background(), []model.Message{model.NewUserMessage("hi")})

	gt.V(t, resp.Failed()).Equal(true)
	gt.V(t, resp.Error).Equal("GEMINI_PROJECT_ID is missing. Configure the Google Cloud project for Gemini.")
	gt.V(t, resp.Provider).Equal("gemini")
}

func TestGeminiProviderInvoke(t *testing.T) {
	var capturedContents []*genai.Content
	var capturedConfig *genai.GenerateContentConfig
	client := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			capturedContents = contents
			capturedConfig = config
			return &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{
					{Content: genai.NewContentFromText("Draft ready.", genai.RoleModel)},
				},
				UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
					PromptTokenCount:     40,
					CandidatesTokenCount: 10,
					TotalTokenCount:      50,
				},
			}, nil
		},
	}
	provider := llm.NewGeminiProvider(client, "gemini-2.5-flash")

	messages := []model.Message{
		model.NewSystemMessage("You help with email."),
		model.NewSystemMessage("Retrieved context: none"),
		model.NewUserMessage("Draft an update"),
		model.NewAssistantMessage("Here you go."),
	}
	resp := provider.Invoke(context.Background(), messages)

	gt.V(t, resp.Failed()).Equal(false)
	gt.V(t, resp.Text).Equal("Draft ready.")
	gt.V(t, resp.Metrics["prompt_tokens"]).Equal(int32(40))
	gt.V(t, resp.Metrics["total_tokens"]).Equal(int32(50))

	// System messages collapse into one instruction; turns keep order
	gt.NotNil(t, capturedConfig.SystemInstruction)
	gt.V(t, len(capturedContents)).Equal(2)
	gt.V(t, capturedContents[0].Role).Equal(string(genai.RoleUser))
	gt.V(t, capturedContents[1].Role).Equal(string(genai.RoleModel))
}
