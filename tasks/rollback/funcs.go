// Package rollback contains the policies for a compensation that returns an error
// while completed steps are being rolled back.
package rollback

import (
	"context"
	"errors"

	"github.com/hashicorp/errwrap"
)

// A Decider is asked whether the reverse walk continues with the next completed step
// after a compensation failed with the provided error
type Decider func(error) bool

// Halt stops at the first compensation error, the remaining steps are not compensated
// and the context is not marked as rolled back
func Halt(error) bool {
	return false
}

// Always keeps compensating the remaining steps, the errors are collected and returned together
func Always(error) bool {
	return true
}

// OnCancel keeps compensating when the compensation was canceled or timed out, other errors halt
func OnCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		errwrap.Contains(err, context.Canceled.Error()) ||
		errwrap.Contains(err, context.DeadlineExceeded.Error())
}
