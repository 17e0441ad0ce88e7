package main

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/booknotes/internal/common"
	"github.com/joseph-ayodele/booknotes/internal/entity"
	"github.com/joseph-ayodele/booknotes/internal/repository"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(common.ValidationError{Field: "title"}))
	assert.Equal(t, 3, exitCode(fmt.Errorf("%w: book", common.ErrNotFound)))
	assert.Equal(t, 4, exitCode(common.ErrNoDelimitedContent))
	assert.Equal(t, 5, exitCode(common.ErrPersistenceCorruption))
	assert.Equal(t, 6, exitCode(common.ErrCaptureInFlight))
	assert.Equal(t, 130, exitCode(context.Canceled))
	assert.Equal(t, 1, exitCode(fmt.Errorf("disk full")))
}

func TestResolveBook(t *testing.T) {
	ctx := context.Background()
	codec, err := repository.NewCodec(common.CodecJSON)
	require.NoError(t, err)
	lib := repository.NewLibrary(repository.NewMemoryStore(), codec, nil)
	require.NoError(t, lib.Load(ctx))

	first, err := entity.NewBook("Borges", "Ficciones", "1944")
	require.NoError(t, err)
	second, err := entity.NewBook("Calvino", "Invisible Cities", "1972")
	require.NoError(t, err)
	require.NoError(t, lib.AddBook(ctx, *first))
	require.NoError(t, lib.AddBook(ctx, *second))

	got, err := resolveBook(lib, "2")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	got, err = resolveBook(lib, first.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Ficciones", got.Title)

	_, err = resolveBook(lib, "3")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = resolveBook(lib, "0")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = resolveBook(lib, "ficciones")
	assert.ErrorIs(t, err, common.ErrValidation)
}
