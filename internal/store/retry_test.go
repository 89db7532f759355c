package store_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkadas/portfolio-api/internal/store"
)

func TestOpenWithRetrySucceedsAfterTransientFailure(t *testing.T) {
	attempts := 0
	err := store.OpenWithRetry(slog.Default(), "test", func() error {
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestOpenWithRetryGivesUp(t *testing.T) {
	attempts := 0
	err := store.OpenWithRetry(slog.Default(), "test", func() error {
		attempts++
		return errors.New("still down")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrConnectivity)
	assert.Contains(t, err.Error(), "still down")
	assert.Equal(t, 3, attempts)
}
