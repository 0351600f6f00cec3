package steps

import "context"

// Run handler for a step, it reads its input from the interaction and
// declares success or failure on it
type Run func(context.Context, *Interaction) error

// Compensation undoes the effects of a completed step during rollback
type Compensation func(context.Context, *Interaction) error

// Hook runs before or after the action of a step
type Hook func(context.Context, *Interaction) error

// Next runs everything an around hook wraps: the inner around hooks, the
// before hooks, the action and the after hooks
type Next func() (Outcome, error)

// AroundHook wraps the rest of the step. Not calling next skips it.
type AroundHook func(ctx context.Context, c *Interaction, next Next) error

func noop(context.Context, *Interaction) error { return nil }
