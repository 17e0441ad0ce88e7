package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/booknotes/internal/core/capture"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("capture queue is shutting down")

// Job asks for one image to be captured for a book.
type Job struct {
	Path        string
	BookID      uuid.UUID
	SubmittedAt time.Time
}

// Result is delivered once per enqueued job.
type Result struct {
	Job       Job
	Candidate *capture.Candidate
	Err       error
	Duration  time.Duration
}

// Capturer runs one capture attempt for a file. *core.Processor implements it.
type Capturer interface {
	CaptureFile(ctx context.Context, path string) (*capture.Candidate, error)
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Results() <-chan Result
	Shutdown(ctx context.Context)
}
