package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	metrics "github.com/rcrowley/go-metrics"
	"github.com/sirupsen/logrus"
	"github.com/taylorthurlow/interaktor"
	"github.com/taylorthurlow/interaktor/eventbus"
	"github.com/taylorthurlow/interaktor/tasks/internal"
	"github.com/taylorthurlow/interaktor/tasks/rollback"
)

// ExecOpt represents a configuration option for the step execution context
type ExecOpt func(*Executor)

// Execution creates a new execution context for steps
func Execution(configuration ...ExecOpt) *Executor {
	exec := &Executor{
		decider: rollback.Halt,
		ctx:     context.Background(),
	}
	for _, conf := range configuration {
		conf(exec)
	}
	if exec.bus == nil {
		exec.bus = eventbus.NopBus
	}
	if exec.log == nil {
		exec.log = interaktor.NopLogger
	}
	if exec.registry == nil {
		exec.registry = metrics.NewRegistry()
	}
	exec.ctx, exec.cancel = context.WithCancel(exec.ctx)
	return exec
}

// ParentContext adds a parent context to the executor
func ParentContext(ctx context.Context) ExecOpt {
	return func(e *Executor) { e.ctx = ctx }
}

// Should allows for changing the default behavior of stopping a rollback
// at the first compensation that fails, to continuing past such errors
func Should(dec rollback.Decider) ExecOpt {
	return func(e *Executor) { e.decider = dec }
}

// PublishTo adds an existing eventbus to the execution context
func PublishTo(bus eventbus.EventBus) ExecOpt {
	return func(e *Executor) { e.bus = bus }
}

// LogWith uses the logger for the steps, it is available to hooks and actions through interaktor.ContextLogger
func LogWith(log logrus.FieldLogger) ExecOpt {
	return func(e *Executor) { e.log = log }
}

// MeasureWith records run and rollback metrics in the registry
func MeasureWith(registry metrics.Registry) ExecOpt {
	return func(e *Executor) { e.registry = registry }
}

// Executor can execute steps
type Executor struct {
	decider  rollback.Decider
	bus      eventbus.EventBus
	log      logrus.FieldLogger
	registry metrics.Registry
	cancel   context.CancelFunc
	ctx      context.Context
}

// Call the step with values, a map or an existing context. An explicit failure
// of the step is not returned as an error, inspect the interaction instead.
func (e *Executor) Call(step *Step, input interface{}) (*Interaction, error) {
	it, err := e.CallStrict(step, input)
	if err != nil && IsFailure(err) {
		return it, nil
	}
	return it, err
}

// CallStrict calls the step and returns every error, an explicit failure
// included as a *ExecutionFailure
func (e *Executor) CallStrict(step *Step, input interface{}) (*Interaction, error) {
	if step == nil {
		return nil, errors.New("can't call a nil step")
	}
	_, nested := input.(*Context)
	cx, err := Build(input)
	if err != nil {
		return nil, err
	}
	return e.execute(e.ctx, step, cx, nested && input.(*Context) != nil)
}

// Cancel the execution of the steps
func (e *Executor) Cancel() {
	if e.cancel == nil {
		return
	}
	e.cancel()
}

// Context of the executor
func (e *Executor) Context() context.Context { return e.ctx }

// Registry the executor records its metrics in
func (e *Executor) Registry() metrics.Registry { return e.registry }

func (e *Executor) prepare(ctx context.Context) context.Context {
	ctx = internal.SetPublisher(ctx, e.bus)
	return setDecider(ctx, e.decider)
}

// accept validates the input of the step. A step running on an existing
// context only sees the values it declared.
func (e *Executor) accept(ctx context.Context, step *Step, cx *Context, nested bool) (*Interaction, error) {
	proposed := cx.values
	if nested {
		proposed = cx.values.Slice(step.InputNames()...)
	}
	accepted, err := step.input.Validate(proposed)
	if err != nil {
		return nil, validationErr(step.Name(), PhaseInput, err)
	}
	if !nested {
		for k, v := range accepted {
			if _, ok := cx.values[k]; !ok {
				cx.values[k] = v
			}
		}
	}
	return newInteraction(step, GetParentName(ctx), cx, e, accepted), nil
}

func (e *Executor) execute(ctx context.Context, step *Step, cx *Context, nested bool) (it *Interaction, err error) {
	ctx = e.prepare(ctx)

	if step.organizer && !flowChecked(ctx) {
		if ferr := step.ValidateFlow(); ferr != nil {
			return nil, ferr
		}
		ctx = markFlowChecked(ctx)
	}

	it, err = e.accept(ctx, step, cx, nested)
	if err != nil {
		return nil, err
	}

	log := e.log.WithFields(logrus.Fields{
		"step":       it.Name(),
		"parent":     it.Parent(),
		"invocation": it.ID(),
	})
	ctx = interaktor.SetLogger(ctx, log)

	PublishRunEvent(ctx, it, StatusProcessing, nil)
	log.Debugf("running %s", it.Path())
	started := time.Now()
	defer metrics.GetOrRegisterTimer("steps.run", e.registry).UpdateSince(started)

	defer func() {
		if r := recover(); r != nil {
			reason := fmt.Errorf("panic: %v", r)
			log.Errorf("%s panicked, rolling back: %v", it.Path(), r)
			PublishRunEvent(ctx, it, StatusFailed, reason)
			if _, rerr := e.rollback(ctx, cx); rerr != nil {
				log.Errorf("rollback after panic in %s failed: %v", it.Path(), rerr)
			}
			panic(r)
		}
	}()

	_, err = step.chain(ctx, it)()
	if err == nil && it.state == StateFailed {
		err = it.failureSignal()
	}
	if err != nil {
		return it, e.fail(ctx, it, err)
	}

	if it.state == StatePending {
		if step.successDefined {
			return it, e.fail(ctx, it, &MissingExplicitSuccessError{Step: it.Name(), Attributes: step.success.RequiredNames()})
		}
		it.finish()
		if !it.registered {
			PublishRunEvent(ctx, it, StatusSkipped, nil)
			log.Debugf("%s was skipped by an around hook", it.Path())
			return it, nil
		}
	}

	metrics.GetOrRegisterCounter("steps.run.succeeded", e.registry).Inc(1)
	PublishRunEvent(ctx, it, StatusSuccess, nil)
	log.Debugf("%s succeeded", it.Path())
	return it, nil
}

func (e *Executor) fail(ctx context.Context, it *Interaction, err error) error {
	var f *ExecutionFailure
	if errors.As(err, &f) {
		it.adopt(f)
	}

	log := interaktor.ContextLogger(ctx)
	metrics.GetOrRegisterCounter("steps.run.failed", e.registry).Inc(1)
	status := StatusFailed
	if IsCanceled(err) {
		status = StatusCanceled
	}
	PublishRunEvent(ctx, it, status, err)
	log.Debugf("%s failed: %v", it.Path(), err)

	// a nested step already attempted the rollback
	var rbe *RollbackError
	if errors.As(err, &rbe) {
		return err
	}
	if _, rerr := e.rollback(ctx, it.cx); rerr != nil {
		log.Errorf("rollback after %s failed: %v", it.Path(), rerr)
		return &RollbackError{Err: rerr, Cause: err}
	}
	return err
}

func (e *Executor) rollback(ctx context.Context, cx *Context) (bool, error) {
	rolled, err := cx.Rollback(context.WithoutCancel(ctx))
	if rolled {
		metrics.GetOrRegisterCounter("steps.rollback", e.registry).Inc(1)
	}
	return rolled, err
}

var defaultExecutor = Execution()

// Call the step with the default executor
func Call(step *Step, input interface{}) (*Interaction, error) {
	return defaultExecutor.Call(step, input)
}

// CallStrict calls the step with the default executor and returns every error
func CallStrict(step *Step, input interface{}) (*Interaction, error) {
	return defaultExecutor.CallStrict(step, input)
}
