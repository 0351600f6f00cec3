package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/taylorthurlow/interaktor/eventbus"
	"github.com/taylorthurlow/interaktor/tasks/internal"
)

var statusKeyNames map[Status]string
var namedStatusKeys map[string]Status

func init() {
	statusKeyNames = map[Status]string{
		StatusUnknown:    "unknown",
		StatusWaiting:    "waiting",
		StatusSkipped:    "skipped",
		StatusProcessing: "processing",
		StatusSuccess:    "completed",
		StatusFailed:     "failed",
		StatusCanceled:   "canceled",
	}

	namedStatusKeys = make(map[string]Status, len(statusKeyNames))
	for k, v := range statusKeyNames {
		namedStatusKeys[v] = k
	}
}

// StatusFromString creates a lifecycle status from a string
func StatusFromString(name string) (Status, error) {
	if v, ok := namedStatusKeys[name]; ok {
		return v, nil
	}
	return StatusUnknown, fmt.Errorf("invalid step status %q", name)
}

// Status of a step as reported by lifecycle events
type Status uint8

const (
	// StatusUnknown indicates the step is unknown
	StatusUnknown Status = iota
	// StatusWaiting indicates the step is known but hasn't started yet
	StatusWaiting
	// StatusProcessing indicates the step is currently executing
	StatusProcessing
	// StatusSkipped indicates an around hook never let the step run
	StatusSkipped
	// StatusSuccess indicates the step was executed successfully
	StatusSuccess
	// StatusFailed indicates the step has failed
	StatusFailed
	// StatusCanceled indicates the step was canceled
	StatusCanceled
)

func (e Status) String() string {
	return statusKeyNames[e]
}

// MarshalText renders this status to text
func (e Status) MarshalText() (text []byte, err error) {
	return []byte(statusKeyNames[e]), nil
}

// UnmarshalText parses this status from text
func (e *Status) UnmarshalText(text []byte) error {
	st, err := StatusFromString(string(text))
	if err != nil {
		return err
	}
	*e = st
	return nil
}

var actionKeyNames map[Action]string
var namedActionKeys map[string]Action

func init() {
	actionKeyNames = map[Action]string{
		ActionInit:     "init",
		ActionRun:      "run",
		ActionRollback: "rollback",
	}

	namedActionKeys = make(map[string]Action, len(actionKeyNames))
	for k, v := range actionKeyNames {
		namedActionKeys[v] = k
	}
}

// ActionFromString creates a lifecycle action from a string
func ActionFromString(name string) (Action, error) {
	if v, ok := namedActionKeys[name]; ok {
		return v, nil
	}
	return ActionInit, fmt.Errorf("invalid step action %q", name)
}

// Action indicates the phase of the lifecycle the event is currently in
type Action uint8

const (
	// ActionInit is emitted when the step hasn't run yet
	ActionInit Action = iota
	// ActionRun is emitted when the step is running
	ActionRun
	// ActionRollback is emitted when the step is rolling back
	ActionRollback
)

func (e Action) String() string {
	return actionKeyNames[e]
}

// MarshalText renders this action to text
func (e Action) MarshalText() (text []byte, err error) {
	return []byte(actionKeyNames[e]), nil
}

// UnmarshalText parses this action from text
func (e *Action) UnmarshalText(text []byte) error {
	a, err := ActionFromString(string(text))
	if err != nil {
		return err
	}
	*e = a
	return nil
}

const (
	// TopicLifecycle is the event topic for lifecycle events
	TopicLifecycle = "lifecycle"
	// TopicRetry is the event topic for retries
	TopicRetry = "retry"

	// TopicApplication is the event topic for application specific events
	TopicApplication = "application"
)

// RetryEvent is emitted when a retry is executed
type RetryEvent struct {
	Name   string
	Parent string
	Reason error
	Next   time.Duration
}

// A LifecycleEvent is emitted for lifecycle operations on a step
type LifecycleEvent struct {
	Action     Action
	Status     Status
	Name       string
	Parent     string
	Invocation string
	Reason     error
}

// Path of the step this event is about, parent and name joined with a dot
func (l LifecycleEvent) Path() string {
	return JoinPath(l.Parent, l.Name)
}

// PublishRunEvent for status transitions during the run phase of a step
func PublishRunEvent(ctx context.Context, it *Interaction, status Status, reason error) {
	internal.PublishEvent(ctx, TopicLifecycle, LifecycleEvent{
		Action:     ActionRun,
		Status:     status,
		Name:       it.Name(),
		Parent:     it.Parent(),
		Invocation: it.ID(),
		Reason:     reason,
	})
}

// PublishRollbackEvent for status transitions during the rollback phase of a step
func PublishRollbackEvent(ctx context.Context, it *Interaction, status Status, reason error) {
	internal.PublishEvent(ctx, TopicLifecycle, LifecycleEvent{
		Action:     ActionRollback,
		Status:     status,
		Name:       it.Name(),
		Parent:     it.Parent(),
		Invocation: it.ID(),
		Reason:     reason,
	})
}

// IsLifecycleEvent returns true if this is a lifecycle event for the given action and given status
func IsLifecycleEvent(evt eventbus.Event, action Action, status Status) bool {
	return LifecycleEventFilter(action, status)(evt)
}

// LifecycleEventFilter is an event filter that matches specific lifecycle events
func LifecycleEventFilter(action Action, status Status) eventbus.EventPredicate {
	return func(evt eventbus.Event) bool {
		if evt.Name != TopicLifecycle {
			return false
		}
		lce, ok := evt.Args.(LifecycleEvent)
		return ok && lce.Status == status && lce.Action == action
	}
}

// RetryEventFilter an event handler filter that only selects retry events
func RetryEventFilter(evt eventbus.Event) bool {
	if evt.Name != TopicRetry {
		return false
	}
	_, ok := evt.Args.(RetryEvent)
	return ok
}

// PublishEvent publishes application specific events
func PublishEvent(ctx context.Context, args interface{}) {
	internal.PublishEvent(ctx, TopicApplication, args)
}

// IsApplicationEvent returns true when the event is an application event
func IsApplicationEvent(evt eventbus.Event) bool {
	return evt.Name == TopicApplication
}
