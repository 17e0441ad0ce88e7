package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"nil", nil, codes.OK},
		{"validation", ValidationError{Field: "title", Message: "is required"}, codes.InvalidArgument},
		{"wrapped invalid input", fmt.Errorf("parse: %w", ErrInvalidInput), codes.InvalidArgument},
		{"not found", fmt.Errorf("%w: book 1", ErrNotFound), codes.NotFound},
		{"no text", ErrNoTextDetected, codes.FailedPrecondition},
		{"no delimited content", ErrNoDelimitedContent, codes.FailedPrecondition},
		{"no notes", ErrNoNotes, codes.FailedPrecondition},
		{"in flight", ErrCaptureInFlight, codes.Aborted},
		{"cancelled", ErrCaptureCancelled, codes.Canceled},
		{"context cancelled", context.Canceled, codes.Canceled},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"engine", fmt.Errorf("%w: exit 1", ErrEngineFailure), codes.Unavailable},
		{"corruption", ErrPersistenceCorruption, codes.DataLoss},
		{"status passthrough", status.Error(codes.PermissionDenied, "nope"), codes.PermissionDenied},
		{"unknown", errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestToStatus(t *testing.T) {
	assert.NoError(t, ToStatus(nil))

	st := status.Convert(ToStatus(fmt.Errorf("%w: book 42", ErrNotFound)))
	assert.Equal(t, codes.NotFound, st.Code())
	assert.Equal(t, "resource not found: book 42", st.Message())

	orig := status.Error(codes.Unauthenticated, "login")
	assert.Equal(t, orig, ToStatus(orig))
}

func TestAppError(t *testing.T) {
	err := NewAppError("CONFIG_ERROR", "bad driver", ErrInvalidInput)
	assert.Equal(t, "CONFIG_ERROR: bad driver: invalid input", err.Error())
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "CONFIG_ERROR: bare", NewAppError("CONFIG_ERROR", "bare", nil).Error())
}

func TestValidator(t *testing.T) {
	long := "abcdef"
	v := NewValidator().
		Field("author", "  ", Required).
		Field("title", "ok", Required, MaxLength(5)).
		Field("page", &long, MaxLength(5))

	assert.True(t, v.HasErrors())
	errs := v.Errors()
	if assert.Len(t, errs, 2) {
		assert.Equal(t, "author", errs[0].Field)
		assert.Equal(t, "page", errs[1].Field)
		assert.Equal(t, "must be at most 5 characters", errs[1].Message)
	}
	assert.ErrorIs(t, v.Error(), ErrValidation)
	assert.ErrorIs(t, errs[0], ErrValidation)

	assert.NoError(t, NewValidator().Field("title", "ok", Required).Error())
}

func TestMaxLengthCountsRunes(t *testing.T) {
	assert.Nil(t, MaxLength(3)("f", "día"))
	assert.NotNil(t, MaxLength(2)("f", "día"))
}

func TestParseID(t *testing.T) {
	id, err := ParseID("book_id", " 5f1e7a52-3b8c-4d0e-9a43-6a2f8c1d9b70 ")
	assert.NoError(t, err)
	assert.Equal(t, "5f1e7a52-3b8c-4d0e-9a43-6a2f8c1d9b70", id.String())

	_, err = ParseID("book_id", "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = ParseID("book_id", "not-a-uuid")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, codes.InvalidArgument, CodeOf(err))
}

func TestLoggerFromAddsContextIDs(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := WithAttemptID(WithBookID(context.Background(), "b1"), "a1")

	LoggerFrom(ctx, base).Info("hello")
	assert.Contains(t, buf.String(), `"book_id":"b1"`)
	assert.Contains(t, buf.String(), `"attempt_id":"a1"`)

	buf.Reset()
	LoggerFrom(context.Background(), base).Info("plain")
	assert.NotContains(t, buf.String(), "book_id")
}
