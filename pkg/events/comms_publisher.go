package events

import (
	"context"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/GYFX35/AI-services/pkg/commsutil"
)

const commsPublisherLogPrefix = "events:comms_publisher"

// CommsPublisherOpts configures CommsPublisher. Nil or zero values use
// defaults.
type CommsPublisherOpts struct {
	// GlobalSubject overrides the global intent change subject.
	GlobalSubject string
}

// CommsPublisher publishes settlement change events to COMMS subjects.
type CommsPublisher struct {
	nc            *comms.Conn
	globalSubject string
}

// NewCommsPublisher creates a new CommsPublisher. Pass nil for opts to use
// defaults.
func NewCommsPublisher(nc *comms.Conn, opts *CommsPublisherOpts) *CommsPublisher {
	globalSubject := commsutil.SubjectIntentChanged
	if opts != nil && opts.GlobalSubject != "" {
		globalSubject = opts.GlobalSubject
	}
	return &CommsPublisher{nc: nc, globalSubject: globalSubject}
}

// PublishIntentChanged publishes an IntentChangedEvent to both the granular
// per-state and global subjects.
func (p *CommsPublisher) PublishIntentChanged(_ context.Context, event *IntentChangedEvent) error {
	data, err := commsutil.EncodePayload(event)
	if err != nil {
		return fmt.Errorf("%s - failed to encode event: %w", commsPublisherLogPrefix, err)
	}

	granularSubject := commsutil.BuildIntentSubject(event.State)
	if err := p.nc.Publish(granularSubject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, granularSubject, err))
		return err
	}

	if err := p.nc.Publish(p.globalSubject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, p.globalSubject, err))
		return err
	}

	slog.Debug(fmt.Sprintf("%s - Published intent change %s state=%s", commsPublisherLogPrefix, event.IntentID, event.State))
	return nil
}
