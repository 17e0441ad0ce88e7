package ocr

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/booknotes/internal/common"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunner_LogsCaptureContext(t *testing.T) {
	requireShell(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := common.WithAttemptID(common.WithBookID(context.Background(), "book-7"), "attempt-3")

	stdout, stderr, err := ExecRunner{}.Run(ctx, "sh", logger, "-c", "echo page; echo oops >&2; exit 3")
	require.Error(t, err)
	assert.Equal(t, "page\n", string(stdout))
	assert.Equal(t, "oops\n", string(stderr))

	logs := buf.String()
	assert.Contains(t, logs, `"book_id":"book-7"`)
	assert.Contains(t, logs, `"attempt_id":"attempt-3"`)
	assert.Contains(t, logs, `"cmd":"sh"`)
	assert.Contains(t, logs, `"exit_code":3`)
	assert.Contains(t, logs, `"stderr":"oops\n"`)
}

func TestExecRunner_Success(t *testing.T) {
	requireShell(t)
	stdout, _, err := ExecRunner{}.Run(context.Background(), "sh", testLogger, "-c", "printf ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(stdout))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.True(t, strings.HasPrefix(truncate("abcdef", 3), "abc..."))
}
