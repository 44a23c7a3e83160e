package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestIgnoreCanceled checks cancellation is swallowed even when wrapped,
// while real errors pass through.
func TestIgnoreCanceled(t *testing.T) {
	assert.NoError(t, ignoreCanceled(nil))
	assert.NoError(t, ignoreCanceled(context.Canceled))
	assert.NoError(t, ignoreCanceled(fmt.Errorf("ws: hub stopped: %w", context.Canceled)))

	boom := errors.New("boom")
	assert.Equal(t, boom, ignoreCanceled(boom))
	assert.Error(t, ignoreCanceled(context.DeadlineExceeded))
}
