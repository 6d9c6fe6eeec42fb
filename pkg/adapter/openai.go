package adapter

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI is the interface for the OpenAI chat-completion API client
type OpenAI interface {
	// CreateChatCompletion sends a chat completion request
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// openAIClient implements OpenAI interface
type openAIClient struct {
	client openai.Client
}

// NewOpenAI creates a new OpenAI API client
func NewOpenAI(apiKey string) OpenAI {
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &openAIClient{
		client: client,
	}
}

func (c *openAIClient) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create chat completion")
	}
	return resp, nil
}
