package tasks

import (
	"errors"

	"github.com/go-openapi/strfmt"
	multierror "github.com/hashicorp/go-multierror"
	"github.com/taylorthurlow/interaktor/tasks/steps"
)

// Error codes used in the error model
const (
	CodeFailure              = "failure"
	CodeInvalidAttributes    = "invalid_attributes"
	CodeMissingSuccess       = "missing_success"
	CodeInvalidState         = "invalid_state"
	CodeDisallowedAssignment = "disallowed_assignment"
	CodeInvalidFlow          = "invalid_flow"
	CodeRollback             = "rollback"
	CodeCanceled             = "canceled"
	CodeUnknown              = "error"
)

// Error the error model describes why a step failed, in a form that can be rendered as json
//
// swagger:model error
type Error struct {

	// cause
	Cause *Error `json:"cause,omitempty"`

	// The error code
	// Required: true
	Code string `json:"code"`

	// The error message
	// Required: true
	Message string `json:"message"`

	// the step the error is about
	Step string `json:"step,omitempty"`

	// the rejected attributes with their reasons
	Fields map[string][]string `json:"fields,omitempty"`

	// the values a step failed with
	Values map[string]interface{} `json:"values,omitempty"`

	// when the error was seen
	At *strfmt.DateTime `json:"at,omitempty"`
}

func (m *Error) Error() string {
	if m.Cause != nil {
		return m.Message + ": " + m.Cause.Error()
	}
	return m.Message
}

// Describe builds the error model for an error returned by a step, nil stays nil
func Describe(err error) *Error {
	if err == nil {
		return nil
	}
	m := &Error{Code: CodeUnknown, Message: err.Error()}

	var (
		rbe  *steps.RollbackError
		fail *steps.ExecutionFailure
		ave  *steps.AttributeValidationError
		mes  *steps.MissingExplicitSuccessError
		iste *steps.InvalidStateTransitionError
		dae  *steps.DisallowedAssignmentError
		fe   *steps.FlowError
	)
	switch {
	case errors.As(err, &rbe):
		m.Code = CodeRollback
		m.Message = "rollback failed: " + rbe.Err.Error()
		m.Cause = Describe(rbe.Cause)
	case errors.As(err, &fail):
		m.Code = CodeFailure
		if fail.Interaction != nil {
			m.Step = fail.Interaction.Path()
		}
		if vals := fail.Values(); len(vals) > 0 {
			m.Values = vals
		}
	case errors.As(err, &ave):
		m.Code = CodeInvalidAttributes
		m.Step = ave.Step
		m.Fields = ave.Fields()
	case errors.As(err, &mes):
		m.Code = CodeMissingSuccess
		m.Step = mes.Step
	case errors.As(err, &iste):
		m.Code = CodeInvalidState
		m.Step = iste.Step
	case errors.As(err, &dae):
		m.Code = CodeDisallowedAssignment
		m.Step = dae.Step
	case errors.As(err, &fe):
		m.Code = CodeInvalidFlow
		m.Step = fe.Organizer
		if merr, ok := err.(*multierror.Error); ok && len(merr.Errors) > 0 {
			m.Message = fe.Error()
			if len(merr.Errors) > 1 {
				m.Cause = Describe(multierror.Append(nil, merr.Errors[1:]...))
			}
		}
	case steps.IsCanceled(err):
		m.Code = CodeCanceled
	}
	return m
}
