package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("paper", "abc-123")

	assert.Equal(t, "paper not found: abc-123", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)

	wrapped := fmt.Errorf("load paper: %w", err)
	assert.ErrorIs(t, wrapped, ErrNotFound)

	var nfe *NotFoundError
	require.ErrorAs(t, wrapped, &nfe)
	assert.Equal(t, "paper", nfe.Entity)
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("screening_status", "must be one of: pending, included, excluded, maybe")

	assert.Contains(t, err.Error(), "screening_status")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestAlreadyExistsError(t *testing.T) {
	err := NewAlreadyExistsError("paper", "smith2021survey")

	assert.Equal(t, "paper already exists: smith2021survey", err.Error())
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestClassifierUnavailableError(t *testing.T) {
	t.Run("carries the cause in the message", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := NewClassifierUnavailableError(cause)

		assert.Contains(t, err.Error(), "connection refused")
		assert.ErrorIs(t, err, ErrClassifierUnavailable)
	})

	t.Run("works without a cause", func(t *testing.T) {
		err := NewClassifierUnavailableError(nil)
		assert.Equal(t, "classifier unavailable", err.Error())
		assert.ErrorIs(t, err, ErrClassifierUnavailable)
	})
}
