package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/y-sonoda/quill/pkg/adapter"
	"github.com/y-sonoda/quill/pkg/model"
	"github.com/y-sonoda/quill/pkg/utils/logging"
)

const (
	// DefaultLogGroup is the CloudWatch log group used when none is configured
	DefaultLogGroup = "email-management/llm-comparison"
)

// cloudWatchSink appends JSON-encoded inference events to a CloudWatch
// Logs stream
type cloudWatchSink struct {
	client adapter.CloudWatchLogs
	group  string
	stream string // fixed override; empty means daily default
	now    func() time.Time
}

// CloudWatchOption configures a CloudWatch sink
type CloudWatchOption func(*cloudWatchSink)

// WithLogGroup overrides the destination log group
func WithLogGroup(group string) CloudWatchOption {
	return func(s *cloudWatchSink) {
		if group != "" {
			s.group = group
		}
	}
}

// WithLogStream overrides the destination log stream
func WithLogStream(stream string) CloudWatchOption {
	return func(s *cloudWatchSink) {
		if stream != "" {
			s.stream = stream
		}
	}
}

// NewCloudWatch creates a CloudWatch Logs sink. Unless overridden, the
// stream name carries the event's UTC date, so a long-lived session
// rolls over to a fresh stream at midnight.
func NewCloudWatch(client adapter.CloudWatchLogs, opts ...CloudWatchOption) Sink {
	s := &cloudWatchSink{
		client: client,
		group:  DefaultLogGroup,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// streamName resolves the destination stream at emit time
func (s *cloudWatchSink) streamName() string {
	if s.stream != "" {
		return s.stream
	}
	return "chatbot-" + s.now().UTC().Format("2006-01-02")
}

// Emit appends one event. Group/stream creation is idempotent; a missing
// or failing backend only produces a debug log line.
func (s *cloudWatchSink) Emit(ctx context.Context, prompt string, resp *model.Response) {
	if s.client == nil || resp == nil {
		return
	}

	stream := s.streamName()
	if err := s.ensureDestination(ctx, stream); err != nil {
		logging.From(ctx).Debug("telemetry destination unavailable", "error", err)
		return
	}

	event := model.NewInferenceEvent(utf8.RuneCountInString(prompt), resp)
	payload, err := json.Marshal(event)
	if err != nil {
		logging.From(ctx).Debug("failed to encode telemetry event", "error", err)
		return
	}

	input := &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  aws.String(s.group),
		LogStreamName: aws.String(stream),
		LogEvents: []types.InputLogEvent{
			{
				Message:   aws.String(string(payload)),
				Timestamp: aws.Int64(time.Now().UnixMilli()),
			},
		},
	}

	// Older accounts still require the write-sequence token
	if token := s.sequenceToken(ctx, stream); token != "" {
		input.SequenceToken = aws.String(token)
	}

	if _, err := s.client.PutLogEvents(ctx, input); err != nil {
		logging.From(ctx).Debug("failed to put telemetry event", "error", err)
	}
}

func (s *cloudWatchSink) ensureDestination(ctx context.Context, stream string) error {
	_, err := s.client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: aws.String(s.group),
	})
	if err != nil && !isAlreadyExists(err) {
		return err
	}

	_, err = s.client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(s.group),
		LogStreamName: aws.String(stream),
	})
	if err != nil && !isAlreadyExists(err) {
		return err
	}
	return nil
}

func (s *cloudWatchSink) sequenceToken(ctx context.Context, stream string) string {
	out, err := s.client.DescribeLogStreams(ctx, &cloudwatchlogs.DescribeLogStreamsInput{
		LogGroupName:        aws.String(s.group),
		LogStreamNamePrefix: aws.String(stream),
	})
	if err != nil || out == nil || len(out.LogStreams) == 0 {
		return ""
	}
	if token := out.LogStreams[0].UploadSequenceToken; token != nil {
		return *token
	}
	return ""
}

func isAlreadyExists(err error) bool {
	var alreadyExists *types.ResourceAlreadyExistsException
	return errors.As(err, &alreadyExists)
}
