package steps

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cenkalti/backoff"
	"github.com/hashicorp/errwrap"
	"github.com/taylorthurlow/interaktor/tasks/attrs"
)

// ErrInvalidInput is returned when a step is called with something other than values or a context
var ErrInvalidInput = errors.New("invalid input")

// IsCanceled returns true when this error contains or is an error
// that means execution was canceled
func IsCanceled(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return errwrap.Contains(err, context.Canceled.Error()) ||
		errwrap.Contains(err, context.DeadlineExceeded.Error())
}

// AttributeValidationError is returned when values don't satisfy one of the contracts of a step
type AttributeValidationError struct {
	Step  string
	Phase Phase
	Err   *attrs.ValidationError
}

func (a *AttributeValidationError) Error() string {
	return fmt.Sprintf("%s %s %s", a.Step, a.Phase, a.Err.Error())
}

// Missing attributes that were required but not provided
func (a *AttributeValidationError) Missing() []string {
	return a.Err.Missing()
}

// Unknown attributes that were provided but not declared
func (a *AttributeValidationError) Unknown() []string {
	return a.Err.Unknown()
}

// Fields with their failure reasons
func (a *AttributeValidationError) Fields() attrs.FieldErrors {
	return a.Err.Fields
}

// Unwrap returns the underlying validation error
func (a *AttributeValidationError) Unwrap() error {
	return a.Err
}

// WrappedErrors implements errwrap.Wrapper from https://github.com/hashicorp/errwrap
func (a *AttributeValidationError) WrappedErrors() []error {
	return []error{a.Err}
}

func validationErr(step string, phase Phase, err error) error {
	var ve *attrs.ValidationError
	if errors.As(err, &ve) {
		return &AttributeValidationError{Step: step, Phase: phase, Err: ve}
	}
	return err
}

// MissingExplicitSuccessError is returned when a step with a success contract
// finishes without declaring its success
type MissingExplicitSuccessError struct {
	Step       string
	Attributes []string
}

func (m *MissingExplicitSuccessError) Error() string {
	if len(m.Attributes) == 0 {
		return fmt.Sprintf("%s finished without declaring success", m.Step)
	}
	return fmt.Sprintf("%s finished without declaring success, expected %s", m.Step, strings.Join(m.Attributes, ", "))
}

// InvalidStateTransitionError is returned when an operation isn't allowed in the current state of an interaction
type InvalidStateTransitionError struct {
	Step string
	Op   string
	From State
}

func (i *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("%s: can't %s when the interaction is %s", i.Step, i.Op, i.From)
}

// DisallowedAssignmentError is returned when assigning an input attribute that
// was not declared, or an optional one that was never provided
type DisallowedAssignmentError struct {
	Step      string
	Attribute string
}

func (d *DisallowedAssignmentError) Error() string {
	return fmt.Sprintf("%s: assignment of %q is not allowed", d.Step, d.Attribute)
}

// ExecutionFailure signals that a step failed explicitly. It carries the interaction
// whose failure values describe what went wrong.
type ExecutionFailure struct {
	Interaction *Interaction
}

func (f *ExecutionFailure) Error() string {
	if f.Interaction == nil {
		return "step failed"
	}
	vals := f.Interaction.failure
	if len(vals) == 0 {
		return fmt.Sprintf("%s failed", f.Interaction.Name())
	}
	return fmt.Sprintf("%s failed: %s", f.Interaction.Name(), renderValues(vals))
}

// Values the step failed with
func (f *ExecutionFailure) Values() attrs.Values {
	if f.Interaction == nil {
		return attrs.Values{}
	}
	return f.Interaction.failure.Clone()
}

// IsFailure returns true when the error is or wraps an explicit failure
func IsFailure(err error) bool {
	var f *ExecutionFailure
	return errors.As(err, &f)
}

// FlowErrorKind distinguishes the ways an organizer's attribute flow can be broken
type FlowErrorKind uint8

const (
	// MissingInput means a child requires an input nothing before it provides
	MissingInput FlowErrorKind = iota
	// MissingSuccess means the organizer promises a success attribute no child provides
	MissingSuccess
)

// FlowError is returned when the declared attributes of an organizer and its
// children can't line up, before any child runs
type FlowError struct {
	Kind      FlowErrorKind
	Organizer string
	Child     string
	Attribute string
}

func (f *FlowError) Error() string {
	if f.Kind == MissingSuccess {
		return fmt.Sprintf("%s: success attribute %q is not provided by its input or any of its steps", f.Organizer, f.Attribute)
	}
	return fmt.Sprintf("%s: step %s requires attribute %q but it is not provided by the organizer input or a previous step", f.Organizer, f.Child, f.Attribute)
}

// RollbackError is returned when a compensation failed while rolling back after Cause
type RollbackError struct {
	Err   error
	Cause error
}

func (r *RollbackError) Error() string {
	return fmt.Sprintf("rollback failed: %v (rolling back after: %v)", r.Err, r.Cause)
}

// Unwrap returns the compensation error
func (r *RollbackError) Unwrap() error {
	return r.Err
}

// WrappedErrors implements errwrap.Wrapper from https://github.com/hashicorp/errwrap
func (r *RollbackError) WrappedErrors() []error {
	return []error{r.Err, r.Cause}
}

// TransientErr creates a new recoverable error
func TransientErr(err error) *TransientError {
	switch e := err.(type) {
	case *TransientError:
		return e
	case *PermanentError:
		return TransientErr(e.Err)
	default:
		return &TransientError{Err: err}
	}
}

// TransientError marks an error a retrying around hook may try again
type TransientError struct {
	Err error
}

func (s *TransientError) Error() string {
	return s.Err.Error()
}

// Unwrap returns the cause
func (s *TransientError) Unwrap() error {
	return s.Err
}

// WrappedErrors implements errwrap.Wrapper from https://github.com/hashicorp/errwrap
func (s *TransientError) WrappedErrors() []error {
	return []error{s.Err}
}

// PermanentErr returns a permanent error for use in the retry policy as circuit breaker
func PermanentErr(err error) *PermanentError {
	switch e := err.(type) {
	case *backoff.PermanentError:
		return &PermanentError{Err: e.Err}
	case *PermanentError:
		return e
	default:
		return &PermanentError{Err: err}
	}
}

// PermanentError signals to the retry policy that the operation should not be retried.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the cause
func (e *PermanentError) Unwrap() error {
	return e.Err
}

// WrappedErrors implements errwrap.Wrapper from https://github.com/hashicorp/errwrap
func (e *PermanentError) WrappedErrors() []error {
	return []error{e.Err}
}

func renderValues(vals attrs.Values) string {
	names := make([]string, 0, len(vals))
	for k := range vals {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, k := range names {
		parts[i] = fmt.Sprintf("%s=%v", k, vals[k])
	}
	return strings.Join(parts, " ")
}
