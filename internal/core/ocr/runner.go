package ocr

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/joseph-ayodele/booknotes/internal/common"
)

// stderrLogLimit caps how much converter or engine chatter ends up in one log record.
const stderrLogLimit = 8 << 10

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, logger *slog.Logger, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs tesseract and the HEIC converters with os/exec. Log records
// carry the book and attempt IDs found on ctx.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, logger *slog.Logger, args ...string) ([]byte, []byte, error) {
	logger = common.LoggerFrom(ctx, logger).With("cmd", name)
	logger.Debug("running external tool", "args", strings.Join(args, " "))

	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	elapsed := time.Since(start).Milliseconds()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		logger.Debug("external tool finished", "duration_ms", elapsed, "stdout_bytes", out.Len(), "stderr_bytes", errb.Len())
	case ctx.Err() != nil:
		logger.Warn("external tool stopped", "duration_ms", elapsed, "reason", ctx.Err())
	case errors.As(err, &exitErr):
		logger.Error("external tool failed",
			"duration_ms", elapsed,
			"exit_code", exitErr.ExitCode(),
			"stderr", truncate(errb.String(), stderrLogLimit),
		)
	default:
		logger.Error("external tool did not start", "error", err)
	}
	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
