package funcutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckCtxValid(t *testing.T) {
	ctx, cancel := context.WithCancelCause(context.Background())
	assert.True(t, CheckCtxValid(ctx))
	assert.NoError(t, CheckCtxValidWithCause(ctx))

	boom := errors.New("client gone")
	cancel(boom)
	assert.False(t, CheckCtxValid(ctx))
	assert.ErrorIs(t, CheckCtxValidWithCause(ctx), boom)
}
