package llm

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/y-sonoda/quill/pkg/adapter"
	"github.com/y-sonoda/quill/pkg/model"
)

// DefaultBedrockModel is used when no model override is configured
const DefaultBedrockModel = "amazon.nova-micro-v1:0"

// BedrockProvider invokes the AWS Bedrock Converse API
type BedrockProvider struct {
	client adapter.Bedrock
	model  string
}

// NewBedrockProvider creates a Bedrock provider. A nil client marks the
// provider as unconfigured; Invoke then fails without a network call.
func NewBedrockProvider(client adapter.Bedrock, modelName string) *BedrockProvider {
	if modelName == "" {
		modelName = DefaultBedrockModel
	}
	return &BedrockProvider{
		client: client,
		model:  modelName,
	}
}

// Model returns the configured model identifier
func (p *BedrockProvider) Model() string {
	return p.model
}

// Invoke executes a Converse call and normalizes output/metrics
func (p *BedrockProvider) Invoke(ctx context.Context, messages []model.Message) *model.Response {
	if p.client == nil {
		return model.NewErrorResponse("bedrock", p.model,
			"AWS configuration is unavailable. Check AWS credentials and region settings.")
	}

	system, conversation := buildConversePayload(messages)
	if len(conversation) == 0 {
		conversation = []types.Message{{
			Role:    types.ConversationRoleUser,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: "Hello"}},
		}}
	}

	started := time.Now()
	result, err := p.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:  aws.String(p.model),
		Messages: conversation,
		System:   system,
		InferenceConfig: &types.InferenceConfiguration{
			Temperature: aws.Float32(generationTemperature),
			MaxTokens:   aws.Int32(generationMaxTokens),
		},
	})
	if err != nil {
		return model.NewErrorResponse("bedrock", p.model, err.Error())
	}
	elapsed := latencyMillis(time.Since(started))

	answer := strings.TrimSpace(converseOutputText(result))

	resp := model.NewResponse("bedrock", p.model, answer)
	resp.SetMetric("latency_ms", elapsed)
	var promptTokens, completionTokens, totalTokens any
	if usage := result.Usage; usage != nil {
		if usage.InputTokens != nil {
			promptTokens = *usage.InputTokens
		}
		if usage.OutputTokens != nil {
			completionTokens = *usage.OutputTokens
		}
		if usage.TotalTokens != nil {
			totalTokens = *usage.TotalTokens
		} else if usage.InputTokens != nil && usage.OutputTokens != nil {
			totalTokens = *usage.InputTokens + *usage.OutputTokens
		}
	}
	resp.SetMetric("prompt_tokens", promptTokens)
	resp.SetMetric("completion_tokens", completionTokens)
	resp.SetMetric("total_tokens", totalTokens)
	resp.SetMetric("response_chars", utf8.RuneCountInString(answer))
	return resp
}

// buildConversePayload splits system messages into system blocks and
// restructures user/assistant messages into role-tagged turns. Converse
// requires the first conversational turn to come from the user, so
// leading non-user turns are dropped.
func buildConversePayload(messages []model.Message) ([]types.SystemContentBlock, []types.Message) {
	var system []types.SystemContentBlock
	var conversation []types.Message

	for _, msg := range messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}

		switch msg.Role {
		case model.RoleSystem:
			system = append(system, &types.SystemContentBlockMemberText{Value: content})
		case model.RoleUser, model.RoleAssistant:
			role := types.ConversationRoleUser
			if msg.Role == model.RoleAssistant {
				role = types.ConversationRoleAssistant
			}
			conversation = append(conversation, types.Message{
				Role:    role,
				Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: content}},
			})
		}
	}

	for len(conversation) > 0 && conversation[0].Role != types.ConversationRoleUser {
		conversation = conversation[1:]
	}

	return system, conversation
}

// converseOutputText concatenates all text blocks of the reply message
func converseOutputText(result *bedrockruntime.ConverseOutput) string {
	if result == nil {
		return ""
	}
	outputMessage, ok := result.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return ""
	}

	var text strings.Builder
	for _, block := range outputMessage.Value.Content {
		if textBlock, ok := block.(*types.ContentBlockMemberText); ok {
			text.WriteString(textBlock.Value)
		}
	}
	return text.String()
}
