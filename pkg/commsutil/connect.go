// Package commsutil provides COMMS connection helpers for event publishing.
package commsutil

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	comms "github.com/nats-io/nats.go"
)

const logPrefix = "commsutil:connect"

// Connect creates a COMMS connection for the gateway's event publisher.
// Reconnects happen in the background; a dropped connection never affects
// request dispatch.
func Connect(url, name string) (*comms.Conn, error) {
	nc, err := comms.Connect(url,
		comms.Name(name),
		comms.Timeout(10*time.Second),
		comms.ReconnectWait(2*time.Second),
		comms.MaxReconnects(60),
		comms.DisconnectErrHandler(func(_ *comms.Conn, err error) {
			slog.Warn(fmt.Sprintf("%s - COMMS disconnected: %v", logPrefix, err))
		}),
		comms.ReconnectHandler(func(nc *comms.Conn) {
			slog.Info(fmt.Sprintf("%s - COMMS reconnected to %s", logPrefix, nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to connect to COMMS: %w", logPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Connected to COMMS at %s as %s", logPrefix, nc.ConnectedUrl(), name))
	return nc, nil
}

// EncodePayload serializes an event payload to JSON bytes.
func EncodePayload(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// DecodePayload deserializes JSON bytes into the given target.
func DecodePayload(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
