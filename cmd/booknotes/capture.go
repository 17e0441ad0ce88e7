package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/booknotes/internal/common"
	"github.com/joseph-ayodele/booknotes/internal/core"
	"github.com/joseph-ayodele/booknotes/internal/core/async"
	"github.com/joseph-ayodele/booknotes/internal/core/capture"
	"github.com/joseph-ayodele/booknotes/internal/core/ocr"
	"github.com/joseph-ayodele/booknotes/internal/entity"
	"github.com/joseph-ayodele/booknotes/internal/ingest"
	"github.com/joseph-ayodele/booknotes/internal/notes"
)

var (
	captureText       string
	captureTitle      string
	capturePage       string
	captureYes        bool
	captureAccept     bool
	captureWorkers    int
	captureSkipHidden bool
	captureDebounce   time.Duration
)

var captureCmd = &cobra.Command{
	Use:   "capture <book-id|index> <image>",
	Short: "Recognize a page photo and save its slash-marked passages as a note",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		book, err := resolveBook(a.library, args[0])
		if err != nil {
			return err
		}
		proc, err := newProcessor(a.cfg, a.logger)
		if err != nil {
			return err
		}

		c, err := proc.CaptureFile(common.WithBookID(ctx, book.ID.String()), args[1])
		if err != nil {
			return describeCaptureError(err)
		}

		fmt.Printf("Captured %d passage(s) from %s:\n\n%s\n\n", len(c.Segments), c.Source, c.Text)
		review := notes.Review{Text: captureText, Title: captureTitle}
		if cmd.Flags().Changed("page") {
			review.PageNumber = &capturePage
		}
		if !captureYes && !confirm(fmt.Sprintf("Save as a note of %q?", book.Title)) {
			a.notes.Discard(c)
			fmt.Println("Discarded.")
			return nil
		}
		note, err := a.notes.Confirm(ctx, book.ID, c, review)
		if err != nil {
			return err
		}
		fmt.Printf("Note saved: %s (%s)\n", note.ID, note.Title)
		return nil
	},
}

var captureBatchCmd = &cobra.Command{
	Use:   "batch <book-id|index> <dir>",
	Short: "Capture every image under a directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		book, err := resolveBook(a.library, args[0])
		if err != nil {
			return err
		}
		proc, err := newProcessor(a.cfg, a.logger)
		if err != nil {
			return err
		}

		workers := a.cfg.Capture.Workers
		if cmd.Flags().Changed("workers") {
			workers = captureWorkers
		}
		q := async.NewCaptureQueue(proc, a.logger,
			async.WithWorkers(workers),
			async.WithBaseContext(ctx),
			async.WithJobTimeout(2*a.cfg.Capture.Timeout),
		)

		summary := make(chan batchSummary, 1)
		go func() {
			var s batchSummary
			for r := range q.Results() {
				s.add(handleResult(ctx, a, book, r))
			}
			summary <- s
		}()

		paths, stats, enqErr := ingest.EnqueueDirectory(ctx, q, book.ID, args[1], nil, captureSkipHidden)
		q.Shutdown(ctx)
		s := <-summary

		a.logger.Info("batch finished",
			"dir", args[1],
			"enqueued", len(paths),
			"scanned", stats.Scanned,
			"skipped", stats.Skipped,
			"failed_scan", stats.Failed,
		)
		fmt.Printf("%d image(s): %d saved, %d pending review, %d failed\n", len(paths), s.saved, s.ready, s.failed)
		if enqErr != nil {
			return enqErr
		}
		return ctx.Err()
	},
}

var captureWatchCmd = &cobra.Command{
	Use:   "watch <book-id|index> <dir>",
	Short: "Capture new page photos as they appear in a directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		book, err := resolveBook(a.library, args[0])
		if err != nil {
			return err
		}
		proc, err := newProcessor(a.cfg, a.logger)
		if err != nil {
			return err
		}

		paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:      []string{args[1]},
			SkipHidden: captureSkipHidden,
			Debounce:   captureDebounce,
			Logger:     a.logger,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Watching %s for %q. Press Ctrl+C to stop.\n", args[1], book.Title)

		seen := ingest.NewSeen()
		for {
			select {
			case p, ok := <-paths:
				if !ok {
					return nil
				}
				hash, dup, err := seen.Check(p)
				if err != nil {
					a.logger.Warn("hash failed", "path", p, "error", err)
					continue
				}
				if dup {
					a.logger.Info("skipping duplicate image", "path", p)
					continue
				}
				start := time.Now()
				c, err := proc.CaptureFile(ocr.WithContentHash(common.WithBookID(ctx, book.ID.String()), hash), p)
				handleResult(ctx, a, book, async.Result{
					Job:       async.Job{Path: p, BookID: book.ID, SubmittedAt: start},
					Candidate: c,
					Err:       err,
					Duration:  time.Since(start),
				})
			case err, ok := <-errs:
				if !ok {
					return nil
				}
				a.logger.Error("watcher error", "error", err)
			case <-ctx.Done():
				return nil
			}
		}
	},
}

type resultKind int

const (
	resultFailed resultKind = iota
	resultReady
	resultSaved
)

type batchSummary struct {
	saved, ready, failed int
}

func (s *batchSummary) add(k resultKind) {
	switch k {
	case resultSaved:
		s.saved++
	case resultReady:
		s.ready++
	default:
		s.failed++
	}
}

// handleResult prints a candidate and saves it when --accept is set.
func handleResult(ctx context.Context, a *app, book entity.Book, r async.Result) resultKind {
	if r.Err != nil {
		fmt.Printf("✗ %s: %v\n", r.Job.Path, describeCaptureError(r.Err))
		return resultFailed
	}
	if ctx.Err() != nil {
		a.notes.Discard(r.Candidate)
		fmt.Printf("✗ %s: %v\n", r.Job.Path, common.ErrCaptureCancelled)
		return resultFailed
	}
	if !captureAccept {
		fmt.Printf("• %s: %d passage(s)\n%s\n\n", r.Job.Path, len(r.Candidate.Segments), indent(r.Candidate.Text))
		return resultReady
	}
	note, err := a.notes.Confirm(ctx, book.ID, r.Candidate, notes.Review{})
	if err != nil {
		fmt.Printf("✗ %s: %v\n", r.Job.Path, err)
		return resultFailed
	}
	fmt.Printf("✓ %s → %s (%s)\n", r.Job.Path, note.Title, note.ID)
	return resultSaved
}

func newProcessor(cfg *common.Config, logger *slog.Logger) (*core.Processor, error) {
	ocrCfg := ocr.ConfigFrom(cfg.OCR)
	engine, err := ocr.NewEngine(ocrCfg, logger)
	if err != nil {
		return nil, err
	}
	loader := ocr.NewLoader(ocrCfg, ocr.ExecRunner{}, logger)
	return core.NewProcessor(logger, loader, engine, capture.WithTimeout(cfg.Capture.Timeout)), nil
}

// describeCaptureError turns a capture failure into a message a reader can act on.
func describeCaptureError(err error) error {
	var f *capture.Failure
	if !errors.As(err, &f) {
		return err
	}
	switch {
	case errors.Is(err, common.ErrNoTextDetected):
		return fmt.Errorf("%w (try a sharper, well-lit photo)", err)
	case errors.Is(err, common.ErrNoDelimitedContent):
		return fmt.Errorf("%w (mark passages with a / before and after)", err)
	}
	return err
}

func indent(s string) string {
	return "    " + strings.ReplaceAll(s, "\n", "\n    ")
}

func init() {
	captureCmd.Flags().StringVar(&captureText, "text", "", "Replace the recognized text before saving")
	captureCmd.Flags().StringVar(&captureTitle, "title", "", "Note title (default: dated title)")
	captureCmd.Flags().StringVar(&capturePage, "page", "", "Page number")
	captureCmd.Flags().BoolVarP(&captureYes, "yes", "y", false, "Save without asking")

	for _, c := range []*cobra.Command{captureBatchCmd, captureWatchCmd} {
		c.Flags().BoolVar(&captureAccept, "accept", false, "Save every candidate as a note without review")
		c.Flags().BoolVar(&captureSkipHidden, "skip-hidden", true, "Ignore hidden files and directories")
	}
	captureBatchCmd.Flags().IntVar(&captureWorkers, "workers", 2, "Concurrent capture workers")
	captureWatchCmd.Flags().DurationVar(&captureDebounce, "debounce", 750*time.Millisecond, "Wait for writes to settle before capturing")

	captureCmd.AddCommand(captureBatchCmd, captureWatchCmd)
	rootCmd.AddCommand(captureCmd)
}
