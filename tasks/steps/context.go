package steps

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/taylorthurlow/interaktor"
	"github.com/taylorthurlow/interaktor/tasks/attrs"
)

// Context is the state shared by every step of one top level call: the
// attribute values flowing between steps and the steps that completed, in
// completion order.
type Context struct {
	values     attrs.Values
	completed  []*Interaction
	rolledBack bool
}

// Build a context from values, a map or an existing context. An existing
// context is returned as is.
func Build(input interface{}) (*Context, error) {
	switch v := input.(type) {
	case nil:
		return NewContext(nil), nil
	case *Context:
		if v == nil {
			return NewContext(nil), nil
		}
		return v, nil
	case attrs.Values:
		return NewContext(v), nil
	case map[string]interface{}:
		return NewContext(attrs.Values(v)), nil
	default:
		return nil, fmt.Errorf("%w: expected values or a context, got %T", ErrInvalidInput, input)
	}
}

// NewContext with a copy of the provided values
func NewContext(values attrs.Values) *Context {
	return &Context{values: values.Clone()}
}

// Lookup a shared value by name
func (c *Context) Lookup(name string) (interface{}, bool) {
	return c.values.Lookup(name)
}

// Values is a copy of the shared values
func (c *Context) Values() attrs.Values {
	return c.values.Clone()
}

// Completed returns the interactions that completed, in completion order
func (c *Context) Completed() []*Interaction {
	return append([]*Interaction(nil), c.completed...)
}

// RolledBack returns true once a rollback walked the completed steps
func (c *Context) RolledBack() bool { return c.rolledBack }

func (c *Context) register(it *Interaction) {
	if it.registered {
		return
	}
	it.registered = true
	c.completed = append(c.completed, it)
}

// Rollback runs the compensation of every completed step in reverse completion order.
// It returns false when the context was already rolled back, every rollback after the
// first is a noop. When a compensation fails the decider on the context decides whether
// the walk continues, a halted walk leaves the context eligible for another rollback.
func (c *Context) Rollback(ctx context.Context) (bool, error) {
	if c.rolledBack {
		return false, nil
	}
	decide := getDecider(ctx)
	log := interaktor.ContextLogger(ctx)

	var result *multierror.Error
	for i := len(c.completed) - 1; i >= 0; i-- {
		it := c.completed[i]
		PublishRollbackEvent(ctx, it, StatusProcessing, nil)
		if err := it.step.compensate(ctx, it); err != nil {
			log.Errorf("rolling back %s failed: %v", it.Path(), err)
			PublishRollbackEvent(ctx, it, StatusFailed, err)
			if !decide(err) {
				return false, err
			}
			result = multierror.Append(result, err)
			continue
		}
		PublishRollbackEvent(ctx, it, StatusSuccess, nil)
	}
	c.rolledBack = true
	return true, result.ErrorOrNil()
}
