package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/booknotes/constants"
	"github.com/joseph-ayodele/booknotes/internal/common"
	"github.com/joseph-ayodele/booknotes/internal/core/extract"
	"github.com/joseph-ayodele/booknotes/internal/core/ocr"
)

const DefaultTimeout = 30 * time.Second

// Candidate is the reviewable outcome of a successful capture attempt.
type Candidate struct {
	SessionID   uuid.UUID
	AttemptID   uuid.UUID
	Source      string
	RawText     string   // engine lines joined with '\n'
	CleanedText string   // RawText after normalization
	Segments    []string // slash-delimited passages of CleanedText
	Text        string   // Segments joined with a blank line
}

// Failure is the terminal error of a failed attempt.
type Failure struct {
	Reason constants.FailureReason
	Detail string
	Err    error
}

func (f *Failure) Error() string {
	if f.Detail == "" {
		return f.Err.Error()
	}
	return fmt.Sprintf("%v: %s", f.Err, f.Detail)
}

func (f *Failure) Unwrap() error { return f.Err }

// Option configures a Session.
type Option func(*Session)

// WithTimeout bounds each recognition call.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithNormalizer replaces ocr.Normalize.
func WithNormalizer(fn func(string) string) Option {
	return func(s *Session) {
		if fn != nil {
			s.normalize = fn
		}
	}
}

// Session drives capture attempts against one engine. One attempt may be in
// flight at a time; a new attempt may start once the previous one is terminal.
// A Session never writes to the library.
type Session struct {
	id        uuid.UUID
	engine    ocr.Engine
	logger    *slog.Logger
	timeout   time.Duration
	normalize func(string) string

	mu          sync.Mutex
	state       constants.CaptureState
	inFlight    bool
	cancel      context.CancelCauseFunc
	lastFailure *Failure
}

func NewSession(engine ocr.Engine, logger *slog.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		id:        uuid.New(),
		engine:    engine,
		timeout:   DefaultTimeout,
		normalize: ocr.Normalize,
		state:     constants.CaptureIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.With("session_id", s.id)
	return s
}

func (s *Session) ID() uuid.UUID { return s.id }

func (s *Session) State() constants.CaptureState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastFailure returns the failure of the most recent attempt, or nil.
func (s *Session) LastFailure() *Failure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFailure
}

// Cancel aborts the in-flight attempt. It reports whether there was one.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inFlight || s.cancel == nil {
		return false
	}
	s.cancel(common.ErrCaptureCancelled)
	return true
}

type recognition struct {
	lines []string
	err   error
}

// Run recognizes img and turns the result into a Candidate.
func (s *Session) Run(ctx context.Context, img ocr.Image) (*Candidate, error) {
	attemptCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, common.ErrCaptureInFlight
	}
	s.inFlight = true
	s.cancel = cancel
	s.lastFailure = nil
	s.state = constants.CaptureImageAcquired
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.cancel = nil
		s.mu.Unlock()
	}()

	attemptID := uuid.New()
	logger := common.LoggerFrom(ctx, s.logger).With("attempt_id", attemptID, "path", img.SourcePath)
	start := time.Now()

	s.transition(logger, constants.CaptureRecognizing)
	lines, err := s.recognize(common.WithAttemptID(attemptCtx, attemptID.String()), img)
	if err != nil {
		switch {
		case errors.Is(context.Cause(attemptCtx), common.ErrCaptureCancelled):
			return nil, s.cancelled(logger, common.ErrCaptureCancelled)
		case ctx.Err() != nil:
			return nil, s.cancelled(logger, fmt.Errorf("%w: %w", common.ErrCaptureCancelled, ctx.Err()))
		case errors.Is(err, context.DeadlineExceeded):
			return nil, s.fail(logger, constants.FailureEngine,
				fmt.Errorf("%w: %w", common.ErrEngineFailure, context.DeadlineExceeded),
				fmt.Sprintf("ocr timed out after %s", s.timeout))
		default:
			return nil, s.fail(logger, constants.FailureEngine, common.ErrEngineFailure, err.Error())
		}
	}

	if allBlank(lines) {
		return nil, s.fail(logger, constants.FailureNoTextDetected, common.ErrNoTextDetected, "")
	}

	s.transition(logger, constants.CaptureNormalizeAndExtract)
	raw := strings.Join(lines, "\n")
	cleaned := s.normalize(raw)
	segments := extract.Segments(cleaned)
	if len(segments) == 0 {
		return nil, s.fail(logger, constants.FailureNoDelimitedContentFound, common.ErrNoDelimitedContent, "")
	}

	candidate := &Candidate{
		SessionID:   s.id,
		AttemptID:   attemptID,
		Source:      img.SourcePath,
		RawText:     raw,
		CleanedText: cleaned,
		Segments:    segments,
		Text:        strings.Join(segments, extract.SegmentSeparator),
	}
	s.transition(logger, constants.CaptureCandidateReady)
	logger.Info("capture candidate ready",
		"engine", s.engine.Name(),
		"lines", len(lines),
		"segments", len(segments),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return candidate, nil
}

// recognize calls the engine on its own goroutine and waits for the single
// result, the timeout, or cancellation. A late result lands in the buffered
// channel and is dropped.
func (s *Session) recognize(ctx context.Context, img ocr.Image) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result := make(chan recognition, 1)
	go func() {
		lines, err := s.engine.Recognize(ctx, img)
		result <- recognition{lines: lines, err: err}
	}()

	select {
	case r := <-result:
		// a result racing a cancel or timeout is discarded
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return r.lines, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Session) transition(logger *slog.Logger, to constants.CaptureState) {
	s.mu.Lock()
	from := s.state
	s.state = to
	s.mu.Unlock()
	logger.Debug("capture state changed", "from", from, "to", to)
}

func (s *Session) fail(logger *slog.Logger, reason constants.FailureReason, cause error, detail string) error {
	f := &Failure{Reason: reason, Detail: detail, Err: cause}
	s.mu.Lock()
	s.state = constants.CaptureFailed
	s.lastFailure = f
	s.mu.Unlock()
	logger.Warn("capture failed", "reason", reason, "error", f)
	return f
}

func (s *Session) cancelled(logger *slog.Logger, err error) error {
	s.mu.Lock()
	s.state = constants.CaptureCancelled
	s.mu.Unlock()
	logger.Info("capture cancelled")
	return err
}

func allBlank(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return false
		}
	}
	return true
}
