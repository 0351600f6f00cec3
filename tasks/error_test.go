package tasks_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taylorthurlow/interaktor/tasks"
	"github.com/taylorthurlow/interaktor/tasks/attrs"
	"github.com/taylorthurlow/interaktor/tasks/steps"
)

func TestDescribe(t *testing.T) {
	assert.Nil(t, tasks.Describe(nil))

	m := tasks.Describe(assert.AnError)
	assert.Equal(t, tasks.CodeUnknown, m.Code)
	assert.Equal(t, assert.AnError.Error(), m.Message)

	m = tasks.Describe(context.Canceled)
	assert.Equal(t, tasks.CodeCanceled, m.Code)

	_, err := steps.Call(steps.New("echo", steps.Input(amount.Required())), nil)
	m = tasks.Describe(err)
	assert.Equal(t, tasks.CodeInvalidAttributes, m.Code)
	assert.Equal(t, "echo", m.Step)
	assert.Equal(t, map[string][]string{"amount": {attrs.ReasonMissing}}, m.Fields)

	m = tasks.Describe(&steps.RollbackError{Err: assert.AnError, Cause: context.DeadlineExceeded})
	assert.Equal(t, tasks.CodeRollback, m.Code)
	require.NotNil(t, m.Cause)
	assert.Equal(t, tasks.CodeCanceled, m.Cause.Code)
	assert.Equal(t, "rollback failed: "+assert.AnError.Error()+": context deadline exceeded", m.Error())
}

func TestDescribe_Failure(t *testing.T) {
	step := steps.Pipeline("checkout", steps.New("charge",
		steps.Failure(reason.Required()),
		steps.Do(func(_ context.Context, c *steps.Interaction) error {
			return c.Fail(reason.Val("declined"))
		}),
	))
	_, err := steps.CallStrict(step, nil)
	m := tasks.Describe(err)
	assert.Equal(t, tasks.CodeFailure, m.Code)
	assert.Equal(t, "checkout.charge", m.Step)

	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"failure","message":"charge failed: reason=declined","step":"checkout.charge","values":{"reason":"declined"}}`, string(b))
}

func TestDescribe_Flow(t *testing.T) {
	x := attrs.Key[string]("x")
	o := steps.Pipeline("O", steps.New("A", steps.Input(x.Required(), amount.Required())))
	_, err := steps.Call(o, nil)
	m := tasks.Describe(err)
	assert.Equal(t, tasks.CodeInvalidFlow, m.Code)
	assert.Equal(t, "O", m.Step)
	require.NotNil(t, m.Cause)
	assert.Equal(t, tasks.CodeInvalidFlow, m.Cause.Code)
}
