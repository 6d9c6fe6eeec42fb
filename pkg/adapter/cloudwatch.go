package adapter

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/m-mizutani/goerr/v2"
)

// CloudWatchLogs is the interface for the CloudWatch Logs client used by
// the telemetry sink
type CloudWatchLogs interface {
	CreateLogGroup(ctx context.Context, input *cloudwatchlogs.CreateLogGroupInput) (*cloudwatchlogs.CreateLogGroupOutput, error)
	CreateLogStream(ctx context.Context, input *cloudwatchlogs.CreateLogStreamInput) (*cloudwatchlogs.CreateLogStreamOutput, error)
	DescribeLogStreams(ctx context.Context, input *cloudwatchlogs.DescribeLogStreamsInput) (*cloudwatchlogs.DescribeLogStreamsOutput, error)
	PutLogEvents(ctx context.Context, input *cloudwatchlogs.PutLogEventsInput) (*cloudwatchlogs.PutLogEventsOutput, error)
}

// cloudWatchLogsClient implements CloudWatchLogs interface
type cloudWatchLogsClient struct {
	client *cloudwatchlogs.Client
}

// NewCloudWatchLogs creates a new CloudWatch Logs client for the given region
func NewCloudWatchLogs(ctx context.Context, region string) (CloudWatchLogs, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load AWS config", goerr.V("region", region))
	}

	return &cloudWatchLogsClient{
		client: cloudwatchlogs.NewFromConfig(cfg),
	}, nil
}

func (c *cloudWatchLogsClient) CreateLogGroup(ctx context.Context, input *cloudwatchlogs.CreateLogGroupInput) (*cloudwatchlogs.CreateLogGroupOutput, error) {
	return c.client.CreateLogGroup(ctx, input)
}

func (c *cloudWatchLogsClient) CreateLogStream(ctx context.Context, input *cloudwatchlogs.CreateLogStreamInput) (*cloudwatchlogs.CreateLogStreamOutput, error) {
	return c.client.CreateLogStream(ctx, input)
}

func (c *cloudWatchLogsClient) DescribeLogStreams(ctx context.Context, input *cloudwatchlogs.DescribeLogStreamsInput) (*cloudwatchlogs.DescribeLogStreamsOutput, error) {
	return c.client.DescribeLogStreams(ctx, input)
}

func (c *cloudWatchLogsClient) PutLogEvents(ctx context.Context, input *cloudwatchlogs.PutLogEventsInput) (*cloudwatchlogs.PutLogEventsOutput, error) {
	return c.client.PutLogEvents(ctx, input)
}
