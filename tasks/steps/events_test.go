package steps_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taylorthurlow/interaktor/eventbus"
	"github.com/taylorthurlow/interaktor/tasks/steps"
)

func TestStepStatuses(t *testing.T) {
	var allStatuses = []struct {
		Key  steps.Status
		Name string
	}{
		{steps.StatusUnknown, "unknown"},
		{steps.StatusWaiting, "waiting"},
		{steps.StatusSkipped, "skipped"},
		{steps.StatusProcessing, "processing"},
		{steps.StatusSuccess, "completed"},
		{steps.StatusFailed, "failed"},
		{steps.StatusCanceled, "canceled"},
	}

	for _, v := range allStatuses {
		st, err := steps.StatusFromString(v.Name)
		if assert.NoError(t, err) {
			assert.Equal(t, v.Key, st)
		}
		assert.Equal(t, v.Name, v.Key.String())
		b, _ := json.Marshal(v.Key)
		assert.Equal(t, fmt.Sprintf("%q", v.Name), string(b))
		var k steps.Status
		json.Unmarshal(b, &k)
		assert.Equal(t, v.Key, k)
	}

	st, err := steps.StatusFromString("blah")
	if assert.Error(t, err) {
		assert.Equal(t, steps.StatusUnknown, st)
	}
	var k steps.Status
	assert.Error(t, json.Unmarshal([]byte("\"blah\""), &k))
}

func TestInteractionStates(t *testing.T) {
	for _, v := range []steps.State{steps.StatePending, steps.StateSucceeded, steps.StateFailed} {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		var k steps.State
		require.NoError(t, json.Unmarshal(b, &k))
		assert.Equal(t, v, k)
	}
	_, err := steps.StateFromString("done")
	assert.Error(t, err)
	assert.Equal(t, "succeeded-early", steps.SucceededEarly.String())
}

func TestStepActions(t *testing.T) {
	var allActions = []struct {
		Key  steps.Action
		Name string
	}{
		{steps.ActionInit, "init"},
		{steps.ActionRun, "run"},
		{steps.ActionRollback, "rollback"},
	}

	for _, v := range allActions {
		st, err := steps.ActionFromString(v.Name)
		if assert.NoError(t, err) {
			assert.Equal(t, v.Key, st)
		}
		assert.Equal(t, v.Name, v.Key.String())
		b, _ := json.Marshal(v.Key)
		assert.Equal(t, fmt.Sprintf("%q", v.Name), string(b))
		var k steps.Action
		json.Unmarshal(b, &k)
		assert.Equal(t, v.Key, k)
	}

	st, err := steps.ActionFromString("blah")
	if assert.Error(t, err) {
		assert.Equal(t, steps.ActionInit, st)
	}
	var k steps.Action
	assert.Error(t, json.Unmarshal([]byte("\"blah\""), &k))
}

func TestIsLifecycle(t *testing.T) {
	bogus := struct{}{}
	evt := eventbus.Event{
		Name: "bogus",
		At:   time.Now(),
		Args: bogus,
	}
	assert.False(t, steps.IsLifecycleEvent(evt, steps.ActionRun, steps.StatusSkipped))

	evt = eventbus.Event{
		Name: steps.TopicLifecycle,
		Args: steps.LifecycleEvent{Action: steps.ActionRun, Status: steps.StatusSkipped, Name: "child", Parent: "parent"},
	}
	assert.True(t, steps.IsLifecycleEvent(evt, steps.ActionRun, steps.StatusSkipped))
	assert.Equal(t, "parent.child", evt.Args.(steps.LifecycleEvent).Path())
}

type recorder struct {
	lock   sync.Mutex
	events []steps.LifecycleEvent
	other  []eventbus.Event
}

func (r *recorder) On(evt eventbus.Event) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if lce, ok := evt.Args.(steps.LifecycleEvent); ok {
		r.events = append(r.events, lce)
		return nil
	}
	r.other = append(r.other, evt)
	return nil
}

func (r *recorder) summary() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	res := make([]string, len(r.events))
	for i, e := range r.events {
		res[i] = fmt.Sprintf("%s %s %s", e.Action, e.Path(), e.Status)
	}
	return res
}

func TestLifecycleEvents(t *testing.T) {
	bus := eventbus.New(nil)
	rec := &recorder{}
	bus.Subscribe(rec)

	o := steps.Pipeline("order",
		steps.New("reserve"),
		steps.New("charge", steps.Do(func(ctx context.Context, c *steps.Interaction) error {
			steps.PublishEvent(ctx, "charging")
			return c.Fail(nil)
		})),
	)
	it, err := steps.Execution(steps.PublishTo(bus)).Call(o, nil)
	require.NoError(t, err)
	require.NoError(t, bus.Close())

	assert.Equal(t, []string{
		"run order processing",
		"run order.reserve processing",
		"run order.reserve completed",
		"run order.charge processing",
		"run order.charge failed",
		"rollback order.reserve processing",
		"rollback order.reserve completed",
		"run order failed",
	}, rec.summary())
	assert.Equal(t, it.ID(), rec.events[0].Invocation)
	require.Len(t, rec.other, 1)
	assert.True(t, steps.IsApplicationEvent(rec.other[0]))
	assert.Equal(t, "charging", rec.other[0].Args)
}
