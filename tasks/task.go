package tasks

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-openapi/strfmt"
	metrics "github.com/rcrowley/go-metrics"
	"github.com/segmentio/ksuid"
	"github.com/sirupsen/logrus"
	"github.com/taylorthurlow/interaktor"
	"github.com/taylorthurlow/interaktor/eventbus"
	"github.com/taylorthurlow/interaktor/tasks/rollback"
	"github.com/taylorthurlow/interaktor/tasks/steps"
)

// ErrAlreadyRan is returned when a task is run a second time
var ErrAlreadyRan = errors.New("task already ran")

// ErrNoStep is returned when a task is run without a step
var ErrNoStep = errors.New("task has no step to run")

// A Task encapsulates the execution of a step and provides context and configuration.
// It serves as an executor and main interface for the user of the library.
type Task interface {
	ID() string
	CreatedAt() strfmt.DateTime
	FinishedAt() strfmt.DateTime
	FirstInfo(path string) (StepInfo, bool)
	Infos(prefix string) []StepInfo

	// Run the step with values, a map or an existing context. A task runs once.
	Run(input interface{}) (*steps.Interaction, error)
	// Cancel stops the run before the next step of an organizer, completed steps are rolled back
	Cancel()
	Subscribe(...eventbus.EventHandler) Task
	Unsubscribe(...eventbus.EventHandler) Task
}

// TaskOpt represents an option for a task
type TaskOpt func(*task)

// ParentContext provides a parent context for the task
func ParentContext(ctx context.Context) TaskOpt {
	return func(t *task) { t.ctx = ctx }
}

// Run the provided step when run is called
func Run(step *steps.Step) TaskOpt {
	return func(t *task) { t.step = step }
}

// Strict makes Run return explicit failures as a *steps.ExecutionFailure
func Strict() TaskOpt {
	return func(t *task) { t.strict = true }
}

// Should a compensation fail during rollback then use the provided strategy
func Should(decider rollback.Decider) TaskOpt {
	return func(t *task) { t.decider = decider }
}

// LogWith is used to log warning and error messages in a task.
//
// The steps log through it too, the default option is to log to /dev/null
func LogWith(log logrus.FieldLogger) TaskOpt {
	return func(t *task) { t.log = log }
}

// MeasureWith records the metrics of the steps in the registry
func MeasureWith(registry metrics.Registry) TaskOpt {
	return func(t *task) { t.registry = registry }
}

// Create a new task
func Create(opts ...TaskOpt) Task {
	id := ksuid.New()
	tsk := &task{
		id:        id,
		createdAt: strfmt.DateTime(time.Now()),
		ctx:       context.Background(),
		decider:   rollback.Halt,
		log:       interaktor.NopLogger,
	}

	for _, opt := range opts {
		opt(tsk)
	}

	busLog := interaktor.GoLog(os.Stderr, "["+id.String()+"] ", 0)
	busLog.SetLevel(logrus.WarnLevel)
	tsk.bus = eventbus.New(busLog)
	tsk.bus.Subscribe(
		eventbus.Handler(tsk.trackStepStates),
	)

	execOpts := []steps.ExecOpt{
		steps.PublishTo(tsk.bus),
		steps.ParentContext(tsk.ctx),
		steps.Should(tsk.decider),
		steps.LogWith(tsk.log.WithField("task", id.String())),
	}
	if tsk.registry != nil {
		execOpts = append(execOpts, steps.MeasureWith(tsk.registry))
	}
	tsk.exec = steps.Execution(execOpts...)

	var paths []string
	if tsk.step != nil {
		paths = tsk.step.Paths()
	}
	tsk.states = newStateStore(paths)

	return tsk
}

type task struct {
	id         ksuid.KSUID
	createdAt  strfmt.DateTime
	finishedAt strfmt.DateTime
	bus        eventbus.EventBus
	ctx        context.Context
	step       *steps.Step
	strict     bool
	decider    rollback.Decider
	exec       *steps.Executor
	log        logrus.FieldLogger
	registry   metrics.Registry
	states     *stateStore

	m   sync.Mutex
	ran bool
}

func (t *task) trackStepStates(evt eventbus.Event) error {
	switch evt.Name {
	case steps.TopicLifecycle:
		if et, ok := evt.Args.(steps.LifecycleEvent); ok && et.Action != steps.ActionInit {
			t.states.AddLifecycleEvent(evt.At, et)
		}
	case steps.TopicRetry:
		if et, ok := evt.Args.(steps.RetryEvent); ok {
			t.states.AddRetryEvent(et)
		}
	}
	return nil
}

func (t *task) ID() string {
	return t.id.String()
}

func (t *task) CreatedAt() strfmt.DateTime {
	return t.createdAt
}

func (t *task) FinishedAt() strfmt.DateTime {
	t.m.Lock()
	defer t.m.Unlock()
	return t.finishedAt
}

func (t *task) Run(input interface{}) (*steps.Interaction, error) {
	t.m.Lock()
	if t.ran {
		t.m.Unlock()
		return nil, ErrAlreadyRan
	}
	t.ran = true
	t.m.Unlock()

	if t.step == nil {
		t.bus.Close()
		return nil, ErrNoStep
	}

	defer func() {
		t.m.Lock()
		t.finishedAt = strfmt.DateTime(time.Now())
		t.m.Unlock()

		if cerr := t.bus.Close(); cerr != nil {
			t.log.Warnf("failed to close eventbus: %v", cerr)
		}
	}()

	if t.strict {
		return t.exec.CallStrict(t.step, input)
	}
	return t.exec.Call(t.step, input)
}

func (t *task) Cancel() {
	t.exec.Cancel()
}

func (t *task) Subscribe(handlers ...eventbus.EventHandler) Task {
	t.bus.Subscribe(handlers...)
	return t
}

func (t *task) Unsubscribe(handlers ...eventbus.EventHandler) Task {
	t.bus.Unsubscribe(handlers...)
	return t
}

func (t *task) FirstInfo(path string) (StepInfo, bool) {
	return t.states.FirstInfo(path)
}

func (t *task) Infos(prefix string) []StepInfo {
	return t.states.Infos(prefix)
}

type stateStore struct {
	m         sync.RWMutex
	states    map[string]StepInfo
	stepNames []string
}

func newStateStore(stepNames []string) *stateStore {
	store := &stateStore{
		states: make(map[string]StepInfo, len(stepNames)),
	}

	store.AppendStepNames(stepNames)
	return store
}

func (s *stateStore) AppendStepNames(stepNames []string) {
	s.m.Lock()
	for _, stepName := range stepNames {
		if _, ok := s.states[stepName]; !ok {
			parent, name := steps.SplitPath(stepName)
			s.states[stepName] = StepInfo{
				Name:   name,
				Parent: parent,
				Path:   stepName,
				Phase:  steps.ActionInit,
				Status: steps.StatusWaiting,
			}
			s.stepNames = append(s.stepNames, stepName)
		}
	}
	s.m.Unlock()
}

func (s *stateStore) AddLifecycleEvent(at time.Time, evt steps.LifecycleEvent) {
	s.m.Lock()
	path := evt.Path()
	if info, ok := s.states[path]; ok {
		info.Phase = evt.Action
		info.Status = evt.Status
		info.Invocation = evt.Invocation
		switch evt.Status {
		case steps.StatusProcessing:
			if evt.Action == steps.ActionRun {
				info.StartedAt = strfmt.DateTime(at)
			}
		case steps.StatusFailed, steps.StatusCanceled:
			info.Reason = evt.Reason
			info.Error = Describe(evt.Reason)
			if info.Error != nil {
				seen := strfmt.DateTime(at)
				info.Error.At = &seen
			}
			info.FinishedAt = strfmt.DateTime(at)
		default:
			info.FinishedAt = strfmt.DateTime(at)
		}
		s.states[path] = info
	}
	s.m.Unlock()
}

func (s *stateStore) AddRetryEvent(evt steps.RetryEvent) {
	s.m.Lock()
	path := steps.JoinPath(evt.Parent, evt.Name)
	if info, ok := s.states[path]; ok {
		info.Retry = append(info.Retry, evt.Reason)
		info.NextRetry = evt.Next
		s.states[path] = info
	}
	s.m.Unlock()
}

func (s *stateStore) FirstInfo(key string) (StepInfo, bool) {
	s.m.RLock()
	info, ok := s.states[key]
	s.m.RUnlock()
	return info, ok
}

func (s *stateStore) Infos(key string) []StepInfo {
	s.m.RLock()
	var result []StepInfo
	for _, sn := range s.stepNames {
		if strings.HasPrefix(sn, key) {
			result = append(result, s.states[sn])
		}
	}
	s.m.RUnlock()
	return result
}

// StepInfo contains the information about a step
type StepInfo struct {
	Name       string
	Phase      steps.Action
	Status     steps.Status
	Path       string
	Parent     string
	Invocation string
	Reason     error
	Error      *Error
	Retry      []error
	NextRetry  time.Duration
	StartedAt  strfmt.DateTime
	FinishedAt strfmt.DateTime
}
