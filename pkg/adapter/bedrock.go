package adapter

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/m-mizutani/goerr/v2"
)

// Bedrock is the interface for the AWS Bedrock runtime client
type Bedrock interface {
	// Converse sends a turn-based conversation request
	Converse(ctx context.Context, input *bedrockruntime.ConverseInput) (*bedrockruntime.ConverseOutput, error)
}

// bedrockClient implements Bedrock interface
type bedrockClient struct {
	client *bedrockruntime.Client
}

// NewBedrock creates a new Bedrock runtime client for the given region
func NewBedrock(ctx context.Context, region string) (Bedrock, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load AWS config", goerr.V("region", region))
	}

	return &bedrockClient{
		client: bedrockruntime.NewFromConfig(cfg),
	}, nil
}

func (c *bedrockClient) Converse(ctx context.Context, input *bedrockruntime.ConverseInput) (*bedrockruntime.ConverseOutput, error) {
	out, err := c.client.Converse(ctx, input)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to converse with bedrock")
	}
	return out, nil
}
