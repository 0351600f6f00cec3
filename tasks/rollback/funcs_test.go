package rollback

import (
	"context"
	"fmt"
	"testing"

	"github.com/hashicorp/errwrap"
	"github.com/stretchr/testify/assert"
)

func TestFuncs(t *testing.T) {
	assert.True(t, Always(nil))
	assert.True(t, Always(assert.AnError))
	assert.False(t, Halt(nil))
	assert.False(t, Halt(context.Canceled))
	assert.False(t, OnCancel(assert.AnError))
	assert.True(t, OnCancel(context.Canceled))
	assert.True(t, OnCancel(context.DeadlineExceeded))
	assert.True(t, OnCancel(fmt.Errorf("undo charge: %w", context.Canceled)))
	assert.True(t, OnCancel(errwrap.Wrap(assert.AnError, context.DeadlineExceeded)))
}
