package framework

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(ErrMissingURL))
	assert.True(t, IsValidation(ErrNoData))
	assert.True(t, IsValidation(ErrNoTable))
	assert.True(t, IsValidation(Validationf("task %d: bad", 2)))
	assert.True(t, IsValidation(fmt.Errorf("wrapped: %w", ErrNoTable)))

	assert.False(t, IsValidation(errors.New("boom")))
	assert.False(t, IsValidation(Providerf("scrape", errors.New("timeout"))))
}

func TestProviderfPreservesChain(t *testing.T) {
	cause := errors.New("connection refused")
	err := Providerf("scrape", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "scrape")

	assert.NoError(t, Providerf("scrape", nil))
}
