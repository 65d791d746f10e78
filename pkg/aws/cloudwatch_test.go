package aws

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLogEvents struct {
	mu      sync.Mutex
	batches [][]string
	stall   bool
	expired int
}

func (f *fakeLogEvents) PutLogEvents(ctx context.Context, in *cloudwatchlogs.PutLogEventsInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error) {
	if f.stall {
		<-ctx.Done()
		f.mu.Lock()
		f.expired++
		f.mu.Unlock()
		return nil, ctx.Err()
	}
	msgs := make([]string, 0, len(in.LogEvents))
	for _, ev := range in.LogEvents {
		msgs = append(msgs, sdkaws.ToString(ev.Message))
	}
	f.mu.Lock()
	f.batches = append(f.batches, msgs)
	f.mu.Unlock()
	return &cloudwatchlogs.PutLogEventsOutput{}, nil
}

func (f *fakeLogEvents) snapshot() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.batches...)
}

func TestLogShipper_BatchesAndFlushesOnClose(t *testing.T) {
	api := &fakeLogEvents{}
	c := newLogShipper(api, "/jpstore/test", "stream", time.Hour, time.Second)

	for i := 0; i < 3; i++ {
		_, err := fmt.Fprintf(c, "line %d", i)
		require.NoError(t, err)
	}
	require.NoError(t, c.Close(context.Background()))

	assert.Equal(t, [][]string{{"line 0", "line 1", "line 2"}}, api.snapshot())

	n, err := c.Write([]byte("late"))
	assert.Equal(t, 4, n)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), c.Dropped())
}

func TestLogShipper_FullBatchSentWithoutWaiting(t *testing.T) {
	api := &fakeLogEvents{}
	c := newLogShipper(api, "/jpstore/test", "stream", time.Hour, time.Second)
	defer c.Close(context.Background())

	for i := 0; i < logBatchSize; i++ {
		_, _ = c.Write([]byte("x"))
	}

	assert.Eventually(t, func() bool {
		b := api.snapshot()
		return len(b) == 1 && len(b[0]) == logBatchSize
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLogShipper_StalledEndpointDoesNotBlockWriters(t *testing.T) {
	api := &fakeLogEvents{stall: true}
	c := newLogShipper(api, "/jpstore/test", "stream", 10*time.Millisecond, 30*time.Millisecond)

	start := time.Now()
	for i := 0; i < 2*logQueueSize; i++ {
		_, _ = c.Write([]byte("x"))
	}
	assert.Less(t, time.Since(start), time.Second)
	assert.Positive(t, c.Dropped())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Close(ctx), context.DeadlineExceeded)

	assert.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return api.expired > 0
	}, 2*time.Second, 10*time.Millisecond)
}
