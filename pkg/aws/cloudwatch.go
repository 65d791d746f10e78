package aws

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

const (
	logBatchSize     = 100
	logQueueSize     = 1024
	logFlushInterval = 2 * time.Second
	logPutTimeout    = 5 * time.Second
)

type logEventsAPI interface {
	PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

// CloudWatchLogsClient ships log lines to a CloudWatch log stream. It
// implements io.Writer so zap can tee into it. Write only queues the line; a
// background goroutine sends batches, each call bounded by putTimeout. Lines
// arriving while the queue is full are dropped.
type CloudWatchLogsClient struct {
	api           logEventsAPI
	logGroupName  string
	logStreamName string
	flushInterval time.Duration
	putTimeout    time.Duration

	events    chan types.InputLogEvent
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	dropped   atomic.Int64
}

func NewCloudWatchLogsClient(ctx context.Context, serviceName string) (*CloudWatchLogsClient, error) {
	cfg, err := LoadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}

	logGroupName := os.Getenv("CLOUDWATCH_LOG_GROUP")
	if logGroupName == "" {
		logGroupName = "/jpstore/checkout"
	}

	client := cloudwatchlogs.NewFromConfig(cfg)
	streamName := fmt.Sprintf("%s-%d", serviceName, time.Now().Unix())

	if err := ensureLogGroup(ctx, client, logGroupName); err != nil {
		return nil, fmt.Errorf("failed to ensure log group: %w", err)
	}
	if _, err := client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(logGroupName),
		LogStreamName: aws.String(streamName),
	}); err != nil {
		return nil, fmt.Errorf("failed to create log stream: %w", err)
	}
	return newLogShipper(client, logGroupName, streamName, logFlushInterval, logPutTimeout), nil
}

func newLogShipper(api logEventsAPI, group, stream string, flushInterval, putTimeout time.Duration) *CloudWatchLogsClient {
	c := &CloudWatchLogsClient{
		api:           api,
		logGroupName:  group,
		logStreamName: stream,
		flushInterval: flushInterval,
		putTimeout:    putTimeout,
		events:        make(chan types.InputLogEvent, logQueueSize),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	go c.run()
	return c
}

func ensureLogGroup(ctx context.Context, client *cloudwatchlogs.Client, group string) error {
	_, err := client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: aws.String(group),
	})
	var exists *types.ResourceAlreadyExistsException
	if err != nil && !errors.As(err, &exists) {
		return err
	}

	_, err = client.PutRetentionPolicy(ctx, &cloudwatchlogs.PutRetentionPolicyInput{
		LogGroupName:    aws.String(group),
		RetentionInDays: aws.Int32(30),
	})
	return err
}

// Write never blocks on CloudWatch and never fails the caller.
func (c *CloudWatchLogsClient) Write(p []byte) (int, error) {
	ev := types.InputLogEvent{
		Message:   aws.String(string(p)),
		Timestamp: aws.Int64(time.Now().UnixMilli()),
	}
	select {
	case <-c.stop:
		c.dropped.Add(1)
		return len(p), nil
	default:
	}
	select {
	case c.events <- ev:
	default:
		c.dropped.Add(1)
	}
	return len(p), nil
}

// Dropped reports how many lines were discarded because the queue was full
// or the client was closed.
func (c *CloudWatchLogsClient) Dropped() int64 {
	return c.dropped.Load()
}

// Close flushes queued lines and stops the sender. It gives up when ctx ends.
func (c *CloudWatchLogsClient) Close(ctx context.Context) error {
	c.closeOnce.Do(func() { close(c.stop) })
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CloudWatchLogsClient) run() {
	defer close(c.done)
	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	batch := make([]types.InputLogEvent, 0, logBatchSize)
	add := func(ev types.InputLogEvent) {
		batch = append(batch, ev)
		if len(batch) >= logBatchSize {
			c.put(batch)
			batch = batch[:0]
		}
	}

	for {
		select {
		case ev := <-c.events:
			add(ev)
		case <-ticker.C:
			if len(batch) > 0 {
				c.put(batch)
				batch = batch[:0]
			}
		case <-c.stop:
			for {
				select {
				case ev := <-c.events:
					add(ev)
				default:
					if len(batch) > 0 {
						c.put(batch)
					}
					return
				}
			}
		}
	}
}

func (c *CloudWatchLogsClient) put(batch []types.InputLogEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), c.putTimeout)
	defer cancel()

	if _, err := c.api.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  aws.String(c.logGroupName),
		LogStreamName: aws.String(c.logStreamName),
		LogEvents:     batch,
	}); err != nil {
		// logging here would feed back into this writer
		fmt.Fprintf(os.Stderr, "CloudWatch write error (%d events): %v\n", len(batch), err)
	}
}
