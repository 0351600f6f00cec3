package steps_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cenkalti/backoff"
	"github.com/hashicorp/errwrap"
	"github.com/stretchr/testify/assert"
	"github.com/taylorthurlow/interaktor/tasks/steps"
)

func TestPermanentErr(t *testing.T) {
	pe := steps.PermanentErr(assert.AnError)
	assert.Equal(t, assert.AnError, pe.Err)
	assert.EqualError(t, assert.AnError, pe.Error())
	assert.Equal(t, []error{assert.AnError}, pe.WrappedErrors())

	pe2 := steps.PermanentErr(pe)
	assert.Equal(t, pe, pe2)

	be := backoff.Permanent(assert.AnError)
	assert.Equal(t, &steps.PermanentError{Err: be.Err}, steps.PermanentErr(be))
}

func TestTransientError(t *testing.T) {
	t.Parallel()

	err := assert.AnError
	se := steps.TransientErr(err)
	assert.Equal(t, err, se.Err)
	assert.EqualError(t, err, se.Error())
	assert.Equal(t, []error{se.Err}, se.WrappedErrors())
	assert.ErrorIs(t, se, assert.AnError)

	se2 := steps.TransientErr(se)
	assert.Equal(t, se, se2)

	se3 := steps.TransientErr(steps.PermanentErr(err))
	assert.Equal(t, err, se3.Err)
}

func TestIsCanceled(t *testing.T) {
	assert.True(t, steps.IsCanceled(context.Canceled))
	assert.True(t, steps.IsCanceled(fmt.Errorf("charge: %w", context.DeadlineExceeded)))
	assert.True(t, steps.IsCanceled(errwrap.Wrap(errors.New("charge"), context.Canceled)))
	assert.False(t, steps.IsCanceled(assert.AnError))
	assert.False(t, steps.IsCanceled(nil))
}

func TestErrorMessages(t *testing.T) {
	fe := &steps.FlowError{Kind: steps.MissingInput, Organizer: "O", Child: "A", Attribute: "x"}
	assert.EqualError(t, fe, `O: step A requires attribute "x" but it is not provided by the organizer input or a previous step`)

	dae := &steps.DisallowedAssignmentError{Step: "S", Attribute: "y"}
	assert.EqualError(t, dae, `S: assignment of "y" is not allowed`)

	mes := &steps.MissingExplicitSuccessError{Step: "S"}
	assert.EqualError(t, mes, "S finished without declaring success")

	rbe := &steps.RollbackError{Err: assert.AnError, Cause: errFoo}
	assert.EqualError(t, rbe, "rollback failed: "+assert.AnError.Error()+" (rolling back after: foo)")
	assert.ErrorIs(t, rbe, assert.AnError)
	assert.NotErrorIs(t, rbe, errFoo)
	assert.True(t, errwrap.Contains(rbe, "foo"))

	assert.EqualError(t, &steps.ExecutionFailure{}, "step failed")
}

func TestAttributeValidationError(t *testing.T) {
	_, err := steps.Call(steps.New("echo", steps.Input(foo.Required())), nil)
	var ave *steps.AttributeValidationError
	if assert.ErrorAs(t, err, &ave) {
		assert.EqualError(t, err, "echo input attributes failed validation: foo is required")
		assert.Equal(t, "echo", ave.Step)
		assert.Len(t, ave.WrappedErrors(), 1)
	}
}
