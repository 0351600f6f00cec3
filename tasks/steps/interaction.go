package steps

import (
	"github.com/segmentio/ksuid"
	"github.com/taylorthurlow/interaktor/tasks/attrs"
)

// Interaction is a single invocation of a step. It holds the input the step
// was called with, its state and the values it succeeded or failed with.
type Interaction struct {
	id     ksuid.KSUID
	step   *Step
	parent string
	cx     *Context
	exec   *Executor

	input   attrs.Values
	success attrs.Values
	failure attrs.Values
	state   State
	early   bool
	signal  *ExecutionFailure

	registered bool
}

func newInteraction(step *Step, parent string, cx *Context, exec *Executor, input attrs.Values) *Interaction {
	return &Interaction{
		id:     ksuid.New(),
		step:   step,
		parent: parent,
		cx:     cx,
		exec:   exec,
		input:  input,
	}
}

// ID of this invocation
func (c *Interaction) ID() string { return c.id.String() }

// Name of the step
func (c *Interaction) Name() string { return c.step.Name() }

// Parent is the path of the organizer that ran this step, empty at the top level
func (c *Interaction) Parent() string { return c.parent }

// Path of the step, parent and name joined with a dot
func (c *Interaction) Path() string { return JoinPath(c.parent, c.Name()) }

// Step definition this is an invocation of
func (c *Interaction) Step() *Step { return c.step }

// Context shared with the other steps of the call
func (c *Interaction) Context() *Context { return c.cx }

// State of the interaction
func (c *Interaction) State() State { return c.state }

// Succeeded returns true when the step succeeded
func (c *Interaction) Succeeded() bool { return c.state == StateSucceeded }

// Failed returns true when the step failed
func (c *Interaction) Failed() bool { return c.state == StateFailed }

// EarlyReturn returns true when the step succeeded before the end of its hook chain
func (c *Interaction) EarlyReturn() bool { return c.early }

// Completed returns true when the step was registered for rollback
func (c *Interaction) Completed() bool { return c.registered }

func (c *Interaction) outcome() Outcome {
	switch c.state {
	case StateSucceeded:
		return SucceededEarly
	case StateFailed:
		return Failed
	default:
		return Continue
	}
}

// Lookup an input value, this makes the interaction an attrs.Reader
func (c *Interaction) Lookup(name string) (interface{}, bool) {
	return c.input.Lookup(name)
}

// Assign an input value, this makes the interaction an attrs.Writer
func (c *Interaction) Assign(name string, value interface{}) error {
	return c.Set(name, value)
}

// Set a declared input attribute. Optional attributes can only be set when
// they were provided or have a default. The value is visible to the steps
// that run after this one.
func (c *Interaction) Set(name string, value interface{}) error {
	if c.state != StatePending {
		return &InvalidStateTransitionError{Step: c.Name(), Op: "assign " + name, From: c.state}
	}
	if _, ok := c.input[name]; !ok {
		return &DisallowedAssignmentError{Step: c.Name(), Attribute: name}
	}
	c.input[name] = value
	c.cx.values[name] = value
	return nil
}

// Succeed declares the success of the step with values that satisfy its success contract.
// The rest of the step is skipped and EarlyReturn reports true.
func (c *Interaction) Succeed(values attrs.Values) error {
	return c.succeed(values, true)
}

func (c *Interaction) succeed(values attrs.Values, early bool) error {
	if c.state != StatePending {
		return &InvalidStateTransitionError{Step: c.Name(), Op: "succeed", From: c.state}
	}
	accepted, err := c.step.success.Validate(values)
	if err != nil {
		return validationErr(c.Name(), PhaseSuccess, err)
	}
	c.success = accepted
	c.cx.values.Merge(accepted)
	c.state = StateSucceeded
	c.early = early
	return nil
}

// Fail declares the failure of the step with values that satisfy its failure
// contract. The returned error is the *ExecutionFailure signal, returning it from a hook
// or action stops the step and rolls back the call.
func (c *Interaction) Fail(values attrs.Values) error {
	if c.state != StatePending {
		return &InvalidStateTransitionError{Step: c.Name(), Op: "fail", From: c.state}
	}
	accepted, err := c.step.failure.Validate(values)
	if err != nil {
		return validationErr(c.Name(), PhaseFailure, err)
	}
	c.failure = accepted
	c.cx.values.Merge(accepted)
	c.state = StateFailed
	c.signal = &ExecutionFailure{Interaction: c}
	return c.signal
}

func (c *Interaction) failureSignal() *ExecutionFailure {
	if c.signal == nil {
		c.signal = &ExecutionFailure{Interaction: c}
	}
	return c.signal
}

// adopt the failure of a child, the organizer fails with the same values
func (c *Interaction) adopt(f *ExecutionFailure) {
	if f.Interaction == nil || f.Interaction == c || c.state != StatePending {
		return
	}
	c.failure = f.Interaction.failure.Clone()
	c.state = StateFailed
	c.signal = f
}

func (c *Interaction) finish() {
	if c.state != StatePending {
		return
	}
	c.state = StateSucceeded
	if c.success == nil {
		c.success = attrs.Values{}
	}
}

// Input the step was called with, defaults included
func (c *Interaction) Input() InputView {
	return InputView{values: c.input.Clone()}
}

// Success is the view of a succeeded step, its input merged with its success values
func (c *Interaction) Success() (SuccessView, error) {
	if c.state != StateSucceeded {
		return SuccessView{}, &InvalidStateTransitionError{Step: c.Name(), Op: "read success values", From: c.state}
	}
	return SuccessView{values: attrs.Merge(c.input, c.success)}, nil
}

// Failure is the view of a failed step, its failure values
func (c *Interaction) Failure() (FailureView, error) {
	if c.state != StateFailed {
		return FailureView{}, &InvalidStateTransitionError{Step: c.Name(), Op: "read failure values", From: c.state}
	}
	return FailureView{values: c.failure.Clone()}, nil
}

// InputView gives read access to the input of a step
type InputView struct{ values attrs.Values }

// Lookup a value by name
func (v InputView) Lookup(name string) (interface{}, bool) { return v.values.Lookup(name) }

// Values is a copy of the values in the view
func (v InputView) Values() attrs.Values { return v.values.Clone() }

// SuccessView gives read access to the input and success values of a succeeded step
type SuccessView struct{ values attrs.Values }

// Lookup a value by name
func (v SuccessView) Lookup(name string) (interface{}, bool) { return v.values.Lookup(name) }

// Values is a copy of the values in the view
func (v SuccessView) Values() attrs.Values { return v.values.Clone() }

// FailureView gives read access to the failure values of a failed step
type FailureView struct{ values attrs.Values }

// Lookup a value by name
func (v FailureView) Lookup(name string) (interface{}, bool) { return v.values.Lookup(name) }

// Values is a copy of the values in the view
func (v FailureView) Values() attrs.Values { return v.values.Clone() }
