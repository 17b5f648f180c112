package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed reports a request body that is not a valid envelope.
var ErrMalformed = errors.New("malformed envelope")

// Decode parses a raw request body into a RequestEnvelope. It validates the
// envelope shape only; payload contents stay opaque to the codec.
func Decode(raw []byte) (*RequestEnvelope, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformed)
	}
	// Decode capability loosely first so a non-string value surfaces as a
	// malformed envelope rather than a generic JSON error.
	var loose struct {
		Capability json.RawMessage `json:"capability"`
		Payload    json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(raw, &loose); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(loose.Capability) == 0 {
		return nil, fmt.Errorf("%w: capability is required", ErrMalformed)
	}
	var capability string
	if err := json.Unmarshal(loose.Capability, &capability); err != nil {
		return nil, fmt.Errorf("%w: capability must be a string", ErrMalformed)
	}
	if capability == "" {
		return nil, fmt.Errorf("%w: capability is required", ErrMalformed)
	}
	return &RequestEnvelope{Capability: capability, Payload: loose.Payload}, nil
}

// Encode serializes a response envelope. Coverage over the result union is
// total, so encoding a well-formed envelope never fails at runtime.
func Encode(env *ResponseEnvelope) ([]byte, error) {
	return json.Marshal(env)
}
