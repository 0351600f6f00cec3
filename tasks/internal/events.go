package internal

import (
	"context"
	"time"

	"github.com/taylorthurlow/interaktor/eventbus"
)

type publisherKey struct{}

// SetPublisher on the context
func SetPublisher(ctx context.Context, pub eventbus.EventBus) context.Context {
	return context.WithValue(ctx, publisherKey{}, pub)
}

// GetPublisher from the context
func GetPublisher(ctx context.Context) eventbus.EventBus {
	if ctx == nil {
		return eventbus.NopBus
	}
	bus, ok := ctx.Value(publisherKey{}).(eventbus.EventBus)
	if !ok {
		return eventbus.NopBus
	}
	return bus
}

// PublishEvent publishes an event to the context
func PublishEvent(ctx context.Context, name string, args interface{}) {
	pub := GetPublisher(ctx)
	pub.Publish(eventbus.Event{
		Name: name,
		At:   time.Now(),
		Args: args,
	})
}
