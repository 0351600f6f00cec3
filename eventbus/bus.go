// Package eventbus fans out step lifecycle events to subscribed handlers.
//
// Every handler gets its own goroutine and sees events in the order they were published.
// Closing the bus delivers whatever was already published before it returns.
package eventbus

import (
	"sync"
	"time"

	"github.com/rcrowley/go-metrics"
	"github.com/sirupsen/logrus"
)

// Event you can subscribe to
type Event struct {
	Name string
	At   time.Time
	Args interface{}
}

// NOOPHandler drops events on the floor without taking action
var NOOPHandler = Handler(func(_ Event) error { return nil })

// Handler wraps a function that will be called when an event is received
// In this mode the handler is quiet when an error is produced by the handler
// so the user of the eventbus needs to handle that error
func Handler(on func(Event) error) EventHandler {
	return &defaultHandler{
		on: on,
	}
}

type defaultHandler struct {
	on func(Event) error
}

// On event trigger
func (h *defaultHandler) On(event Event) error {
	return h.on(event)
}

// EventHandler deals with handling events
type EventHandler interface {
	On(Event) error
}

type filteredHandler struct {
	Next    EventHandler
	Matches EventPredicate
}

func (f *filteredHandler) On(evt Event) error {
	if !f.Matches(evt) {
		return nil
	}
	return f.Next.On(evt)
}

// EventPredicate for filtering events
type EventPredicate func(Event) bool

// Filtered composes an event handler with a filter
func Filtered(matches EventPredicate, next EventHandler) EventHandler {
	return &filteredHandler{
		Matches: matches,
		Next:    next,
	}
}

// EventBus does fanout to registered handlers
type EventBus interface {
	Close() error
	Publish(Event)
	Subscribe(...EventHandler)
	Unsubscribe(...EventHandler)
	Len() int
}

// NopBus accepts every event and delivers none of them
var NopBus EventBus = nopBus{}

type nopBus struct{}

func (nopBus) Close() error                { return nil }
func (nopBus) Publish(Event)               {}
func (nopBus) Subscribe(...EventHandler)   {}
func (nopBus) Unsubscribe(...EventHandler) {}
func (nopBus) Len() int                    { return 0 }

type subscription struct {
	handler EventHandler
	queue   chan Event
	done    chan struct{}
	onError func(error)
}

func subscribe(handler EventHandler, backlog int, onError func(error)) *subscription {
	s := &subscription{
		handler: handler,
		queue:   make(chan Event, backlog),
		done:    make(chan struct{}),
		onError: onError,
	}
	go s.listen()
	return s
}

func (s *subscription) listen() {
	defer close(s.done)
	for evt := range s.queue {
		if err := s.handler.On(evt); err != nil {
			s.onError(err)
		}
	}
}

// stop lets the handler finish what it already received
func (s *subscription) stop() {
	close(s.queue)
	<-s.done
}

type defaultEventBus struct {
	lock *sync.RWMutex

	channel      chan Event
	handlers     []*subscription
	closing      chan chan struct{}
	closed       bool
	timeout      time.Duration
	log          logrus.FieldLogger
	errorHandler func(error)
}

// New event bus with specified logger
func New(log logrus.FieldLogger) EventBus {
	return NewWithTimeout(log, 100*time.Millisecond)
}

// NewWithTimeout creates a new eventbus, a handler that doesn't accept an event within the timeout
// misses that event
func NewWithTimeout(log logrus.FieldLogger, timeout time.Duration) EventBus {
	if log == nil {
		l := logrus.New()
		l.Level = logrus.WarnLevel
		log = l
	}
	e := &defaultEventBus{
		closing: make(chan chan struct{}),
		channel: make(chan Event, 100),
		timeout: timeout,
		log:     log,
		lock:    new(sync.RWMutex),
	}
	e.errorHandler = func(err error) { e.log.Errorln(err) }
	go e.dispatcherLoop()
	return e
}

func (e *defaultEventBus) dispatcherLoop() {
	timer := metrics.GetOrRegisterTimer("events.notify", metrics.DefaultRegistry)
	for {
		select {
		case evt := <-e.channel:
			timer.Time(func() { e.dispatch(evt) })
		case closed := <-e.closing:
			for {
				select {
				case evt := <-e.channel:
					timer.Time(func() { e.dispatch(evt) })
					continue
				default:
				}
				break
			}
			e.lock.Lock()
			for _, h := range e.handlers {
				h.stop()
			}
			e.handlers = nil
			e.lock.Unlock()

			e.log.Debug("event bus closed")
			closed <- struct{}{}
			return
		}
	}
}

func (e *defaultEventBus) dispatch(evt Event) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	if len(e.handlers) == 0 {
		e.log.Debugf("there are no active listeners, skipping broadcast of %q", evt.Name)
		return
	}
	for _, sub := range e.handlers {
		select {
		case sub.queue <- evt:
			continue
		default:
		}
		timer := time.NewTimer(e.timeout)
		select {
		case sub.queue <- evt:
			timer.Stop()
		case <-timer.C:
			e.log.Warnf("failed to send event %q to listener within %v", evt.Name, e.timeout)
		}
	}
}

// SetErrorHandler changes the default error handler which logs as error
// to the new error handler provided to this method
func (e *defaultEventBus) SetErrorHandler(handler func(error)) {
	e.lock.Lock()
	e.errorHandler = handler
	e.lock.Unlock()
}

// Publish an event to all interested subscribers, events published after close are dropped
func (e *defaultEventBus) Publish(evt Event) {
	e.lock.RLock()
	closed := e.closed
	e.lock.RUnlock()
	if closed {
		e.log.Debugf("dropping event %q, the bus is closed", evt.Name)
		return
	}
	if evt.At.IsZero() {
		evt.At = time.Now()
	}
	e.channel <- evt
}

// Subscribe to events published in the bus
func (e *defaultEventBus) Subscribe(handlers ...EventHandler) {
	e.lock.Lock()
	e.log.Debugf("adding %d listeners", len(handlers))
	for _, handler := range handlers {
		e.handlers = append(e.handlers, subscribe(handler, cap(e.channel), e.errorHandler))
	}
	e.lock.Unlock()
}

// Unsubscribe removes the first subscription for each of the handlers
func (e *defaultEventBus) Unsubscribe(handlers ...EventHandler) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if len(e.handlers) == 0 {
		e.log.Debugf("nothing to remove %d listeners from", len(handlers))
		return
	}
	e.log.Debugf("removing %d listeners", len(handlers))
	for _, h := range handlers {
		for i, sub := range e.handlers {
			if sub.handler == h {
				sub.stop()
				e.handlers = append(e.handlers[:i], e.handlers[i+1:]...)
				break
			}
		}
	}
}

func (e *defaultEventBus) Close() error {
	e.lock.Lock()
	if e.closed {
		e.lock.Unlock()
		return nil
	}
	e.closed = true
	e.lock.Unlock()

	e.log.Debugf("closing eventbus")
	ch := make(chan struct{})
	e.closing <- ch
	<-ch
	return nil
}

func (e *defaultEventBus) Len() int {
	e.lock.RLock()
	sz := len(e.handlers)
	e.lock.RUnlock()
	return sz
}
