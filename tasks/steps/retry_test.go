package steps_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taylorthurlow/interaktor/eventbus"
	"github.com/taylorthurlow/interaktor/tasks/steps"
)

func retrying(attempts *int, act func(n int, c *steps.Interaction) error) *steps.Step {
	return steps.New("flaky",
		steps.Around(steps.Retry(backoff.WithMaxRetries(backoff.NewConstantBackOff(5*time.Millisecond), 3))),
		steps.Do(func(_ context.Context, c *steps.Interaction) error {
			*attempts++
			return act(*attempts, c)
		}),
	)
}

func TestRetryMax_Fail(t *testing.T) {
	var attempts int
	step := retrying(&attempts, func(int, *steps.Interaction) error {
		return steps.TransientErr(assert.AnError)
	})

	_, err := steps.CallStrict(step, nil)
	var te *steps.TransientError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 4, attempts)
}

func TestRetryMax_Success(t *testing.T) {
	var attempts int
	step := retrying(&attempts, func(n int, _ *steps.Interaction) error {
		if n < 2 {
			return steps.TransientErr(assert.AnError)
		}
		return nil
	})

	bus := eventbus.New(nil)
	rec := &recorder{}
	bus.Subscribe(rec)
	it, err := steps.Execution(steps.PublishTo(bus)).CallStrict(step, nil)
	require.NoError(t, err)
	require.NoError(t, bus.Close())

	assert.True(t, it.Succeeded())
	assert.Equal(t, 2, attempts)
	require.Len(t, rec.other, 1)
	assert.True(t, steps.RetryEventFilter(rec.other[0]))
	assert.Equal(t, "flaky", rec.other[0].Args.(steps.RetryEvent).Name)
}

func TestRetryMax_CircuitBreaker(t *testing.T) {
	var attempts int
	step := retrying(&attempts, func(n int, _ *steps.Interaction) error {
		if n > 1 {
			return steps.PermanentErr(assert.AnError)
		}
		return steps.TransientErr(assert.AnError)
	})

	_, err := steps.CallStrict(step, nil)
	assert.Equal(t, assert.AnError, err)
	assert.Equal(t, 2, attempts)
}

func TestRetry_NeverRetriesFailures(t *testing.T) {
	var attempts int
	step := retrying(&attempts, func(_ int, c *steps.Interaction) error {
		return c.Fail(nil)
	})
	_, err := steps.CallStrict(step, nil)
	assert.True(t, steps.IsFailure(err))
	assert.Equal(t, 1, attempts)

	attempts = 0
	plain := retrying(&attempts, func(int, *steps.Interaction) error {
		return assert.AnError
	})
	_, err = steps.CallStrict(plain, nil)
	assert.Equal(t, assert.AnError, err)
	assert.Equal(t, 1, attempts)
}

type trail []string

func (tr *trail) step(name string, act func(n int) error) *steps.Step {
	var runs int
	return steps.New(steps.StepName(name),
		steps.Do(func(context.Context, *steps.Interaction) error {
			runs++
			*tr = append(*tr, name+".action")
			if act == nil {
				return nil
			}
			return act(runs)
		}),
		steps.Undo(func(context.Context, *steps.Interaction) error {
			*tr = append(*tr, name+".undo")
			return nil
		}),
	)
}

func retryingOrganizer(children []*steps.Step, opts ...steps.Option) *steps.Step {
	opts = append([]steps.Option{
		steps.Around(steps.Retry(backoff.WithMaxRetries(backoff.NewConstantBackOff(5*time.Millisecond), 3))),
		steps.Organize(children...),
	}, opts...)
	return steps.Organizer("order", opts...)
}

func TestRetry_OrganizerStopsAfterChildRollback(t *testing.T) {
	var tr trail
	a := tr.step("a", nil)
	b := tr.step("b", func(n int) error {
		if n == 1 {
			return steps.TransientErr(assert.AnError)
		}
		return errors.New("second attempt")
	})

	cx := steps.NewContext(nil)
	_, err := steps.CallStrict(retryingOrganizer([]*steps.Step{a, b}), cx)
	var te *steps.TransientError
	require.ErrorAs(t, err, &te)

	assert.Equal(t, trail{"a.action", "b.action", "a.undo"}, tr)
	assert.True(t, cx.RolledBack())
	assert.Len(t, cx.Completed(), 1)
}

func TestRetry_OrganizerRetriesBeforeChildrenRun(t *testing.T) {
	var tr trail
	var checks int
	check := steps.Before(func(context.Context, *steps.Interaction) error {
		checks++
		if checks == 1 {
			return steps.TransientErr(assert.AnError)
		}
		return nil
	})

	a := tr.step("a", nil)
	b := tr.step("b", nil)
	it, err := steps.CallStrict(retryingOrganizer([]*steps.Step{a, b}, check), nil)
	require.NoError(t, err)
	assert.True(t, it.Succeeded())
	assert.Equal(t, 2, checks)
	assert.Equal(t, trail{"a.action", "b.action"}, tr)

	tr, checks = nil, 0
	a = tr.step("a", nil)
	c := tr.step("c", func(int) error { return assert.AnError })
	cx := steps.NewContext(nil)
	_, err = steps.CallStrict(retryingOrganizer([]*steps.Step{a, c}, check), cx)
	assert.Equal(t, assert.AnError, err)
	assert.Equal(t, 2, checks)
	assert.Equal(t, trail{"a.action", "c.action", "a.undo"}, tr)
	assert.True(t, cx.RolledBack())
}
