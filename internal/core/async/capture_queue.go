package async

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/booknotes/internal/common"
)

// CaptureQueue runs capture jobs on a fixed pool of workers. It never persists
// candidates; the consumer of Results decides what to keep. Results must be
// drained or workers block.
type CaptureQueue struct {
	capturer Capturer
	logger   *slog.Logger
	workers  int
	timeout  time.Duration

	parent     context.Context
	base       context.Context
	cancelBase context.CancelCauseFunc

	ch      chan Job
	results chan Result
	wg      sync.WaitGroup
	once    sync.Once

	mu     sync.RWMutex
	closed bool
}

type Option func(*CaptureQueue)

func WithWorkers(n int) Option {
	return func(q *CaptureQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *CaptureQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
			q.results = make(chan Result, n)
		}
	}
}

// WithBaseContext ties every job to ctx. Once ctx is done, in-flight jobs are
// cancelled and queued ones are reported as cancelled without being captured.
func WithBaseContext(ctx context.Context) Option {
	return func(q *CaptureQueue) {
		if ctx != nil {
			q.parent = ctx
		}
	}
}

// WithJobTimeout bounds each job, image loading included.
func WithJobTimeout(d time.Duration) Option {
	return func(q *CaptureQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewCaptureQueue(capturer Capturer, logger *slog.Logger, opts ...Option) *CaptureQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &CaptureQueue{
		capturer: capturer,
		logger:   logger,
		workers:  2,
		timeout:  2 * time.Minute,
		ch:       make(chan Job, 64),
		results:  make(chan Result, 64),
		parent:   context.Background(),
	}
	for _, o := range opts {
		o(q)
	}
	q.base, q.cancelBase = context.WithCancelCause(q.parent)
	q.start()
	return q
}

func (q *CaptureQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go q.work(i + 1)
		}
	})
}

func (q *CaptureQueue) work(workerID int) {
	defer q.wg.Done()
	q.logger.Debug("worker started", "worker_id", workerID)

	for job := range q.ch {
		start := time.Now()
		if q.base.Err() != nil {
			q.logger.Debug("skipping cancelled job", "worker_id", workerID, "path", job.Path)
			q.results <- Result{Job: job, Err: q.cancelled(), Duration: time.Since(start)}
			continue
		}

		ctx, cancel := context.WithTimeout(common.WithBookID(q.base, job.BookID.String()), q.timeout)
		c, err := q.capturer.CaptureFile(ctx, job.Path)
		cancel()
		if q.base.Err() != nil {
			// abandoned: drop whatever the attempt produced
			c, err = nil, q.cancelled()
		}

		if err != nil {
			q.logger.Warn("capture failed", "worker_id", workerID, "path", job.Path, "error", err)
		} else {
			q.logger.Info("captured file", "worker_id", workerID, "path", job.Path, "segments", len(c.Segments))
		}
		q.results <- Result{Job: job, Candidate: c, Err: err, Duration: time.Since(start)}
	}

	q.logger.Debug("worker stopped", "worker_id", workerID)
}

// Enqueue blocks while the queue is full, until ctx is done.
func (q *CaptureQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queued file for capture", "path", job.Path)
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "path", job.Path)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *CaptureQueue) cancelled() error {
	return fmt.Errorf("%w: %w", common.ErrCaptureCancelled, context.Cause(q.base))
}

// Results delivers one Result per job; it is closed once Shutdown has drained the workers.
func (q *CaptureQueue) Results() <-chan Result { return q.results }

// Shutdown stops accepting jobs and waits for queued ones to finish. If ctx ends
// first, remaining jobs are cancelled; Results is still closed once workers exit.
func (q *CaptureQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		q.wg.Wait()
		close(q.results)
		q.cancelBase(nil)
	}()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context, cancelling remaining jobs")
		q.cancelBase(context.Cause(ctx))
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
