package steps

import (
	"context"

	multierror "github.com/hashicorp/go-multierror"
)

// Pipeline is an organizer without contracts that runs the steps sequentially on the shared context
func Pipeline(name StepName, steps ...*Step) *Step {
	return Organizer(name, Organize(steps...))
}

// organize runs the children in order on the shared context, the first error stops the run.
// An organizer with success attributes succeeds with those values taken from the shared context.
func (s *Step) organize(ctx context.Context, c *Interaction) error {
	cctx := SetParentName(ctx, s.Name())
	for _, child := range s.children {
		select {
		case <-ctx.Done():
			//we're done, bail
			return ctx.Err()
		default:
		}

		if _, err := c.exec.execute(cctx, child, c.cx, true); err != nil {
			return err
		}
	}

	if s.successDefined && c.state == StatePending {
		return c.succeed(c.cx.values.Slice(s.SuccessNames()...), false)
	}
	return nil
}

// ValidateFlow checks that the attributes flow through the organizer: every child
// requires only what the organizer input or an earlier child provides, and the
// organizer's required success attributes are provided by some child. Nested
// organizers are checked too. Every problem found is returned as a *FlowError.
func (s *Step) ValidateFlow() error {
	var result *multierror.Error
	s.checkFlow(&result)
	return result.ErrorOrNil()
}

func (s *Step) checkFlow(result **multierror.Error) {
	if !s.organizer {
		return
	}
	available := make(map[string]bool)
	for _, n := range s.InputNames() {
		available[n] = true
	}

	for _, child := range s.children {
		for _, n := range child.input.RequiredNames() {
			if !available[n] {
				*result = multierror.Append(*result, &FlowError{
					Kind:      MissingInput,
					Organizer: s.Name(),
					Child:     child.Name(),
					Attribute: n,
				})
			}
		}
		for _, n := range child.SuccessNames() {
			available[n] = true
		}
		child.checkFlow(result)
	}

	if !s.successDefined {
		return
	}
	for _, n := range s.success.RequiredNames() {
		if !available[n] {
			*result = multierror.Append(*result, &FlowError{
				Kind:      MissingSuccess,
				Organizer: s.Name(),
				Attribute: n,
			})
		}
	}
}
