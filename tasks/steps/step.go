package steps

import (
	"fmt"

	"github.com/taylorthurlow/interaktor/tasks/attrs"
)

// StepName represents a step name
type StepName string

// Name method to make it easier to build named steps
func (s StepName) Name() string {
	return string(s)
}

// Step is the definition of a unit of work: its attribute contracts, hooks,
// action and compensation. An organizer is a step whose action runs its
// children in order on the shared context.
type Step struct {
	StepName

	input          attrs.Contract
	success        attrs.Contract
	failure        attrs.Contract
	successDefined bool

	before []Hook
	after  []Hook
	around []AroundHook

	action     Run
	compensate Compensation

	organizer bool
	children  []*Step
}

// Option configures a step definition
type Option func(*Step)

// New defines a step, a step without Do does nothing when it runs
func New(name StepName, opts ...Option) *Step {
	return define(name, false, opts)
}

// Organizer defines a step that runs its children in order
func Organizer(name StepName, opts ...Option) *Step {
	return define(name, true, opts)
}

func define(name StepName, organizer bool, opts []Option) *Step {
	if name == "" {
		panic("steps: a step needs a name")
	}
	s := &Step{StepName: name, organizer: organizer}
	for _, o := range opts {
		o(s)
	}
	if s.organizer && s.action != nil {
		panic(fmt.Sprintf("steps: organizer %s runs its children, it can't have an action", name))
	}
	if s.input == nil {
		s.input = attrs.Empty()
	}
	if s.success == nil {
		s.success = attrs.Empty()
	}
	if s.failure == nil {
		s.failure = attrs.Empty()
	}
	if s.compensate == nil {
		s.compensate = noop
	}
	return s
}

// Input declares the input attributes
func Input(opts ...attrs.Option) Option {
	return InputContract(attrs.New(opts...))
}

// InputContract uses a prebuilt contract for the input attributes
func InputContract(c attrs.Contract) Option {
	return func(s *Step) {
		if s.input != nil {
			panic(fmt.Sprintf("steps: input of %s already defined", s.Name()))
		}
		s.input = c
	}
}

// Success declares the success attributes, a step with success attributes
// has to declare its success explicitly
func Success(opts ...attrs.Option) Option {
	return SuccessContract(attrs.New(opts...))
}

// SuccessContract uses a prebuilt contract for the success attributes
func SuccessContract(c attrs.Contract) Option {
	return func(s *Step) {
		if s.successDefined {
			panic(fmt.Sprintf("steps: success of %s already defined", s.Name()))
		}
		s.success = c
		s.successDefined = true
	}
}

// Failure declares the failure attributes
func Failure(opts ...attrs.Option) Option {
	return FailureContract(attrs.New(opts...))
}

// FailureContract uses a prebuilt contract for the failure attributes
func FailureContract(c attrs.Contract) Option {
	return func(s *Step) {
		if s.failure != nil {
			panic(fmt.Sprintf("steps: failure of %s already defined", s.Name()))
		}
		s.failure = c
	}
}

// Do sets the action of the step
func Do(fn Run) Option {
	return func(s *Step) { s.action = fn }
}

// Undo sets the compensation of the step
func Undo(fn Compensation) Option {
	return func(s *Step) { s.compensate = fn }
}

// Before adds a hook that runs before the action, hooks run in declaration order
func Before(hooks ...Hook) Option {
	return func(s *Step) { s.before = append(s.before, hooks...) }
}

// After adds a hook that runs after the action, hooks run in declaration order
func After(hooks ...Hook) Option {
	return func(s *Step) { s.after = append(s.after, hooks...) }
}

// Around adds a hook that wraps the rest of the step, the first one declared is the outermost
func Around(hooks ...AroundHook) Option {
	return func(s *Step) { s.around = append(s.around, hooks...) }
}

// Organize adds children to an organizer
func Organize(children ...*Step) Option {
	return func(s *Step) { s.Organize(children...) }
}

// Organize appends children to this organizer
func (s *Step) Organize(children ...*Step) *Step {
	if !s.organizer {
		panic(fmt.Sprintf("steps: %s is not an organizer", s.Name()))
	}
	for _, c := range children {
		if c == nil {
			panic(fmt.Sprintf("steps: nil step organized by %s", s.Name()))
		}
	}
	s.children = append(s.children, children...)
	return s
}

// IsOrganizer returns true when this step runs children
func (s *Step) IsOrganizer() bool { return s.organizer }

// Children of an organizer, in run order
func (s *Step) Children() []*Step {
	return append([]*Step(nil), s.children...)
}

// InputAttributes is the input contract
func (s *Step) InputAttributes() attrs.Contract { return s.input }

// SuccessAttributes is the success contract, HasSuccess tells whether one was declared
func (s *Step) SuccessAttributes() attrs.Contract { return s.success }

// FailureAttributes is the failure contract
func (s *Step) FailureAttributes() attrs.Contract { return s.failure }

// HasSuccess returns true when the step declared success attributes
func (s *Step) HasSuccess() bool { return s.successDefined }

// InputNames are the names of all declared input attributes
func (s *Step) InputNames() []string {
	return append(s.input.RequiredNames(), s.input.OptionalNames()...)
}

// SuccessNames are the names of all declared success attributes
func (s *Step) SuccessNames() []string {
	if !s.successDefined {
		return nil
	}
	return append(s.success.RequiredNames(), s.success.OptionalNames()...)
}

// Paths of this step and every step below it, dotted and in run order
func (s *Step) Paths() []string {
	var res []string
	s.walk("", func(path string) { res = append(res, path) })
	return res
}

func (s *Step) walk(parent string, fn func(string)) {
	path := JoinPath(parent, s.Name())
	fn(path)
	for _, c := range s.children {
		c.walk(path, fn)
	}
}
