package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestQueue_ProcessesAndDrains(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	q := New(func(_ context.Context, job Job) error {
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		seen = append(seen, job.Path)
		mu.Unlock()
		return nil
	}, quiet, WithWorkers(2), WithQueueSize(8))

	for _, p := range []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"} {
		require.NoError(t, q.Enqueue(context.Background(), Job{Path: p}))
	}
	q.Shutdown(context.Background())

	require.ElementsMatch(t, []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"}, seen)
	require.ErrorIs(t, q.Enqueue(context.Background(), Job{Path: "e.jpg"}), ErrClosed)
	q.Shutdown(context.Background())
}

func TestQueue_AppliesTimeoutAndSurvivesFailures(t *testing.T) {
	var n atomic.Int32
	q := New(func(ctx context.Context, job Job) error {
		n.Add(1)
		if job.Path == "panic.jpg" {
			panic("boom")
		}
		_, ok := ctx.Deadline()
		if !ok {
			t.Error("job context has no deadline")
		}
		<-ctx.Done()
		return errors.New("timed out")
	}, quiet, WithWorkers(1), WithProcessTimeout(10*time.Millisecond))

	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "panic.jpg"}))
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "slow.jpg"}))
	q.Shutdown(context.Background())
	require.Equal(t, int32(2), n.Load())
}

func TestQueue_EnqueueRespectsContextWhenFull(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	q := New(func(context.Context, Job) error {
		started <- struct{}{}
		<-release
		return nil
	}, quiet, WithWorkers(1), WithQueueSize(1))

	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "1"}))
	<-started
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "2"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, q.Enqueue(ctx, Job{Path: "3"}), context.DeadlineExceeded)

	close(release)
	q.Shutdown(context.Background())
}
