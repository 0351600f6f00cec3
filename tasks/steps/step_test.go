package steps_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/taylorthurlow/interaktor/tasks/attrs"
	"github.com/taylorthurlow/interaktor/tasks/steps"
)

func TestStepDefinition(t *testing.T) {
	step := steps.New("define",
		steps.Input(foo.Required(), bar.Optional()),
		steps.Success(mid.Required()),
	)
	assert.Equal(t, "define", step.Name())
	assert.False(t, step.IsOrganizer())
	assert.True(t, step.HasSuccess())
	assert.Equal(t, []string{"foo", "bar"}, step.InputNames())
	assert.Equal(t, []string{"mid"}, step.SuccessNames())
	assert.Empty(t, step.FailureAttributes().RequiredNames())

	plain := steps.New("plain")
	assert.False(t, plain.HasSuccess())
	assert.Empty(t, plain.SuccessNames())
	assert.Empty(t, plain.InputNames())
}

func TestStepDefinition_Errors(t *testing.T) {
	action := steps.Do(func(context.Context, *steps.Interaction) error { return nil })

	assert.Panics(t, func() { steps.New("") })
	assert.Panics(t, func() { steps.Organizer("org", action) })
	assert.Panics(t, func() { steps.New("plain", steps.Organize(steps.New("child"))) })
	assert.Panics(t, func() { steps.New("twice", steps.Success(), steps.Success()) })
	assert.Panics(t, func() {
		steps.New("twice", steps.Input(), steps.InputContract(attrs.Empty()))
	})
	assert.Panics(t, func() { steps.Pipeline("nil", nil) })
}

func TestOrganize_Appends(t *testing.T) {
	a, b, c := steps.New("a"), steps.New("b"), steps.New("c")
	org := steps.Organizer("org", steps.Organize(a))
	org.Organize(b, c)

	assert.True(t, org.IsOrganizer())
	assert.Equal(t, []*steps.Step{a, b, c}, org.Children())
}

func TestStep_Paths(t *testing.T) {
	inner := steps.Pipeline("inner", steps.New("b"), steps.New("c"))
	outer := steps.Pipeline("outer", steps.New("a"), inner, steps.New("d"))

	assert.Equal(t, []string{"outer", "outer.a", "outer.inner", "outer.inner.b", "outer.inner.c", "outer.d"}, outer.Paths())
	assert.Equal(t, []string{"b"}, steps.New("b").Paths())
}
