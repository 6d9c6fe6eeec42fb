package llm_test

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/y-sonoda/quill/pkg/model"
	"github.com/y-sonoda/quill/pkg/service/llm"
)

// mockBedrock is a mock implementation of adapter.Bedrock for testing
type mockBedrock struct {
	converseFunc func(ctx context.Context, input *bedrockruntime.ConverseInput) (*bedrockruntime.ConverseOutput, error)
}

func (m *mockBedrock) Converse(ctx context.Context, input *bedrockruntime.ConverseInput) (*bedrockruntime.ConverseOutput, error) {
	return m.converseFunc(ctx, input)
}

func converseReply(text string) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		Output: &types.ConverseOutputMemberMessage{
			Value: types.Message{
				Role: types.ConversationRoleAssistant,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: text},
				},
			},
		},
	}
}

func TestBedrockProviderModel(t *testing.T) {
	gt.V(t, llm.NewBedrockProvider(nil, "").Model()).Equal(llm.DefaultBedrockModel)
	gt.V(t, llm.NewBedrockProvider(nil, "amazon.nova-lite-v1:0").Model()).Equal("amazon.nova-lite-v1:0")
}

func TestBedrockProviderMissingConfig(t *testing.T) {
	provider := llm.NewBedrockProvider(nil, "")

	resp := provider.Invoke(context.Background(), []model.Message{model.NewUserMessage("hi")})

	gt.V(t, resp.Failed()).Equal(true)
	gt.V(t, resp.Error).Equal("AWS configuration is unavailable. Check AWS credentials and region settings.")
	gt.V(t, resp.Provider).Equal("bedrock")
}

func TestBedrockProviderInvoke(t *testing.T) {
	var captured *bedrockruntime.ConverseInput
	client := &mockBedrock{
		converseFunc: func(ctx context.Context, input *bedrockruntime.ConverseInput) (*bedrockruntime.ConverseOutput, error) {
			captured = input
			out := converseReply("  Draft ready.  ")
			out.Usage = &types.TokenUsage{
				InputTokens:  aws.Int32(80),
				OutputTokens: aws.Int32(20),
				TotalTokens:  aws.Int32(100),
			}
			return out, nil
		},
	}
	provider := llm.NewBedrockProvider(client, "")

	messages := []model.Message{
		model.NewSystemMessage("You help with email."),
		model.NewSystemMessage("Retrieved context: none"),
		model.NewUserMessage("Draft an update"),
		model.NewAssistantMessage("Here you go."),
		model.NewUserMessage("Make it shorter"),
	}
	resp := provider.Invoke(context.Background(), messages)

	gt.V(t, resp.Failed()).Equal(false)
	gt.V(t, resp.Text).Equal("Draft ready.")
	gt.V(t, resp.Metrics["prompt_tokens"]).Equal(int32(80))
	gt.V(t, resp.Metrics["completion_tokens"]).Equal(int32(20))
	gt.V(t, resp.Metrics["total_tokens"]).Equal(int32(100))

	gt.V(t, *captured.ModelId).Equal(llm.DefaultBedrockModel)
	gt.V(t, len(captured.System)).Equal(2)
	gt.V(t, len(captured.Messages)).Equal(3)
	gt.V(t, captured.Messages[0].Role).Equal(types.ConversationRoleUser)
	gt.V(t, captured.Messages[1].Role).Equal(types.ConversationRoleAssistant)
	gt.V(t, captured.Messages[2].Role).Equal(types.ConversationRoleUser)
}

func TestBedrockProviderDropsLeadingAssistantTurn(t *testing.T) {
	var captured *bedrockruntime.ConverseInput
	client := &mockBedrock{
		converseFunc: func(ctx context.Context, input *bedrockruntime.ConverseInput) (*bedrockruntime.ConverseOutput, error) {
			captured = input
			return converseReply("ok"), nil
		},
	}
	provider := llm.NewBedrockProvider(client, "")

	messages := []model.Message{
		model.NewAssistantMessage("stale greeting"),
		model.NewUserMessage("Draft an update"),
	}
	provider.Invoke(context.Background(), messages)

	gt.V(t, len(captured.Messages)).Equal(1)
	gt.V(t, captured.Messages[0].Role).Equal(types.ConversationRoleUser)
}

func TestBedrockProviderEmptyConversation(t *testing.T) {
	var captured *bedrockruntime.ConverseInput
	client := &mockBedrock{
		converseFunc: func(ctx context.Context, input *bedrockruntime.ConverseInput) (*bedrockruntime.ConverseOutput, error) {
			captured = input
			return converseReply("ok"), nil
		},
	}
	provider := llm.NewBedrockProvider(client, "")

	// Only system content: a placeholder user turn keeps Converse valid
	provider.Invoke(context.Background(), []model.Message{
		model.NewSystemMessage("You help with email."),
	})

	gt.V(t, len(captured.Messages)).Equal(1)
	gt.V(t, captured.Messages[0].Role).Equal(types.ConversationRoleUser)
	block, ok := captured.Messages[0].Content[0].(*types.ContentBlockMemberText)
	gt.True(t, ok)
	gt.V(t, block.Value).Equal("Hello")
}

func TestBedrockProviderComputesTotalTokens(t *testing.T) {
	client := &mockBedrock{
		converseFunc: func(ctx context.Context, input *bedrockruntime.ConverseInput) (*bedrockruntime.ConverseOutput, error) {
			out := converseReply("ok")
			out.Usage = &types.TokenUsage{
				InputTokens:  aws.Int32(7),
				OutputTokens: aws.Int32(5),
			}
			return out, nil
		},
	}
	provider := llm.NewBedrockProvider(client, "")

	resp := provider.Invoke(context.Background(), []model.Message{model.NewUserMessage("hi")})
	gt.V(t, resp.Metrics["total_tokens"]).Equal(int32(12))
}

func TestBedrockProviderInvokeError(t *testing.T) {
	client := &mockBedrock{
		converseFunc: func(ctx context.Context, input *bedrockruntime.ConverseInput) (*bedrockruntime.ConverseOutput, error) {
			return nil, goerr.New("throttled")
		},
	}
	provider := llm.NewBedrockProvider(client, "")

	resp := provider.Invoke(context.Background(), []model.Message{model.NewUserMessage("hi")})

	gt.V(t, resp.Failed()).Equal(true)
	gt.S(t, resp.Error).Contains("throttled")
	gt.V(t, resp.Text).Equal("")
}
