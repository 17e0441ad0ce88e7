package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/joseph-ayodele/booknotes/internal/common"
	"github.com/joseph-ayodele/booknotes/internal/core/capture"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeCapturer struct {
	calls atomic.Int32
}

func (f *fakeCapturer) CaptureFile(_ context.Context, path string) (*capture.Candidate, error) {
	f.calls.Add(1)
	if path == "bad.png" {
		return nil, common.ErrNoTextDetected
	}
	return &capture.Candidate{Source: path, Text: "text of " + path, Segments: []string{"text of " + path}}, nil
}

func TestCaptureQueue_DeliversEveryResult(t *testing.T) {
	fc := &fakeCapturer{}
	q := NewCaptureQueue(fc, testLogger, WithWorkers(3), WithQueueSize(2))

	paths := []string{"a.png", "b.png", "bad.png", "c.png", "d.png"}
	go func() {
		for _, p := range paths {
			assert.NoError(t, q.Enqueue(context.Background(), Job{Path: p}))
		}
		q.Shutdown(context.Background())
	}()

	var got []string
	failures := 0
	for r := range q.Results() {
		got = append(got, r.Job.Path)
		assert.False(t, r.Job.SubmittedAt.IsZero())
		if r.Err != nil {
			failures++
			assert.True(t, errors.Is(r.Err, common.ErrNoTextDetected))
			assert.Nil(t, r.Candidate)
			continue
		}
		assert.Equal(t, "text of "+r.Job.Path, r.Candidate.Text)
	}

	sort.Strings(got)
	assert.Equal(t, []string{"a.png", "b.png", "bad.png", "c.png", "d.png"}, got)
	assert.Equal(t, 1, failures)
	assert.EqualValues(t, len(paths), fc.calls.Load())
}

func TestCaptureQueue_RejectsAfterShutdown(t *testing.T) {
	q := NewCaptureQueue(&fakeCapturer{}, testLogger)
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), Job{Path: "late.png"})
	require.ErrorIs(t, err, ErrQueueClosed)

	_, open := <-q.Results()
	assert.False(t, open)
}

// blockingCapturer holds every capture until its context ends.
type blockingCapturer struct {
	started chan string
	calls   atomic.Int32
}

func (b *blockingCapturer) CaptureFile(ctx context.Context, path string) (*capture.Candidate, error) {
	b.calls.Add(1)
	b.started <- path
	<-ctx.Done()
	return &capture.Candidate{Source: path}, nil
}

func TestCaptureQueue_BaseContextCancelDiscardsJobs(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	defer cancel()
	bc := &blockingCapturer{started: make(chan string, 4)}
	q := NewCaptureQueue(bc, testLogger, WithWorkers(1), WithQueueSize(4), WithBaseContext(parent))

	for _, p := range []string{"1.png", "2.png", "3.png", "4.png"} {
		require.NoError(t, q.Enqueue(context.Background(), Job{Path: p}))
	}
	assert.Equal(t, "1.png", <-bc.started)
	cancel()
	q.Shutdown(context.Background())

	n := 0
	for r := range q.Results() {
		n++
		assert.ErrorIs(t, r.Err, common.ErrCaptureCancelled, r.Job.Path)
		assert.Nil(t, r.Candidate, r.Job.Path)
	}
	assert.Equal(t, 4, n)
	assert.EqualValues(t, 1, bc.calls.Load())
}

func TestCaptureQueue_ShutdownDeadlineCancelsRemaining(t *testing.T) {
	bc := &blockingCapturer{started: make(chan string, 2)}
	q := NewCaptureQueue(bc, testLogger, WithWorkers(1), WithQueueSize(2))
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "a.png"}))
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "b.png"}))
	<-bc.started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.Shutdown(ctx)

	var errs []error
	for r := range q.Results() {
		errs = append(errs, r.Err)
	}
	require.Len(t, errs, 2)
	for _, err := range errs {
		assert.ErrorIs(t, err, common.ErrCaptureCancelled)
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.EqualValues(t, 1, bc.calls.Load())
}
