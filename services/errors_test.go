package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelWrapping(t *testing.T) {
	err := fmt.Errorf("%w: project not found", ErrNotFound)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrForbidden))
}

func TestValidationError(t *testing.T) {
	vErr := &ValidationError{}
	assert.NoError(t, vErr.Err())

	vErr.Add("email", "invalid email format", "nope").
		Add("password", "too short", nil)
	require.Error(t, vErr.Err())
	assert.Len(t, vErr.Fields, 2)
	assert.Contains(t, vErr.Error(), "email: invalid email format")

	var target *ValidationError
	assert.True(t, errors.As(vErr.Err(), &target))
}
