package steps

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/taylorthurlow/interaktor"
	"github.com/taylorthurlow/interaktor/tasks/internal"
)

// Retry is an around hook that runs the rest of the step again with the specified
// policy while it returns a *TransientError. A step that failed, succeeded early or
// was already registered for rollback is never run again, neither is one whose
// attempt completed or rolled back steps on the shared context.
func Retry(policy backoff.BackOff) AroundHook {
	return func(ctx context.Context, c *Interaction, next Next) error {
		pol := backoff.WithContext(policy, ctx)
		notifier := func(e error, wait time.Duration) {
			interaktor.ContextLogger(ctx).Infof("retrying %s in %s: %v", c.Path(), wait, e)
			internal.PublishEvent(ctx, TopicRetry, RetryEvent{
				Name:   c.Name(),
				Parent: c.Parent(),
				Reason: e,
				Next:   wait,
			})
		}

		op := func() error {
			completed := len(c.cx.completed)
			_, err := next()
			if err == nil {
				return nil
			}
			var pe *PermanentError
			if errors.As(err, &pe) {
				return backoff.Permanent(pe.Err)
			}
			var te *TransientError
			if !errors.As(err, &te) || c.state != StatePending || c.registered {
				return backoff.Permanent(err)
			}
			// another attempt would run steps the shared context can no longer compensate
			if c.cx.rolledBack || len(c.cx.completed) != completed {
				return backoff.Permanent(err)
			}
			return err
		}

		return backoff.RetryNotify(op, pol, notifier)
	}
}
