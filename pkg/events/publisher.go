package events

import "context"

// Publisher is the interface for publishing settlement change events.
type Publisher interface {
	PublishIntentChanged(ctx context.Context, event *IntentChangedEvent) error
}

// NoOpPublisher is a Publisher that does nothing (for deployments without a
// COMMS connection).
type NoOpPublisher struct{}

// PublishIntentChanged is a no-op.
func (p *NoOpPublisher) PublishIntentChanged(_ context.Context, _ *IntentChangedEvent) error {
	return nil
}

// CallbackPublisher is a Publisher that calls a callback function (for
// testing).
type CallbackPublisher struct {
	callback func(ctx context.Context, event *IntentChangedEvent) error
}

// NewCallbackPublisher creates a new CallbackPublisher.
func NewCallbackPublisher(cb func(ctx context.Context, event *IntentChangedEvent) error) *CallbackPublisher {
	return &CallbackPublisher{callback: cb}
}

// PublishIntentChanged calls the callback.
func (p *CallbackPublisher) PublishIntentChanged(ctx context.Context, event *IntentChangedEvent) error {
	return p.callback(ctx, event)
}
