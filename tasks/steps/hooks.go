package steps

import "context"

// chain nests the around hooks of the step, the first one declared is the
// outermost, around the before hooks, the action and the after hooks
func (s *Step) chain(ctx context.Context, c *Interaction) Next {
	next := func() (Outcome, error) { return s.core(ctx, c) }
	for i := len(s.around) - 1; i >= 0; i-- {
		hook, inner := s.around[i], next
		next = func() (Outcome, error) {
			err := hook(ctx, c, inner)
			return c.outcome(), err
		}
	}
	return next
}

// core runs the before hooks, the action and the after hooks. The step is
// registered for rollback once the action returned normally.
func (s *Step) core(ctx context.Context, c *Interaction) (Outcome, error) {
	for _, h := range s.before {
		if err := h(ctx, c); err != nil {
			return c.outcome(), err
		}
		if c.state != StatePending {
			break
		}
	}

	if c.state == StatePending {
		if err := s.invoke(ctx, c); err != nil {
			return c.outcome(), err
		}
	}
	if c.state == StateFailed {
		return Failed, c.failureSignal()
	}
	if c.state == StatePending && s.successDefined {
		return Continue, &MissingExplicitSuccessError{Step: c.Name(), Attributes: s.success.RequiredNames()}
	}

	c.cx.register(c)

	for _, h := range s.after {
		if err := h(ctx, c); err != nil {
			return c.outcome(), err
		}
		if c.state == StateFailed {
			return Failed, c.failureSignal()
		}
	}
	return c.outcome(), nil
}

func (s *Step) invoke(ctx context.Context, c *Interaction) error {
	if s.organizer {
		return s.organize(ctx, c)
	}
	if s.action == nil {
		return nil
	}
	return s.action(ctx, c)
}
