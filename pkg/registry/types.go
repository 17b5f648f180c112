// Package registry maps capability identifiers to handler specifications.
package registry

import (
	"context"
	"encoding/json"

	"github.com/GYFX35/AI-services/pkg/auth"
	"github.com/GYFX35/AI-services/pkg/envelope"
)

// Error codes returned by registry operations.
const (
	CodeUnknownCapability   = "UNKNOWN_CAPABILITY"
	CodeDuplicateCapability = "DUPLICATE_CAPABILITY"
	CodeInvalidSpec         = "INVALID_SPEC"
)

// Error is a structured registry error.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// NewError creates a new Error.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// PayloadShape declares, at schema level, what a handler expects in the
// request payload. The gateway checks presence only; deep validation is the
// handler's business.
type PayloadShape string

const (
	// PayloadNone means the handler takes no payload.
	PayloadNone PayloadShape = "none"
	// PayloadPrompt means a {"prompt": string} object.
	PayloadPrompt PayloadShape = "prompt"
	// PayloadURL means a {"url": string} object.
	PayloadURL PayloadShape = "url"
	// PayloadObject means a capability-specific structured object.
	PayloadObject PayloadShape = "object"
)

// Handler performs a capability's work. The payload is the raw envelope
// payload; the caller is the authenticated principal for this request.
type Handler func(ctx context.Context, payload json.RawMessage, caller *auth.Caller) (envelope.ResultPayload, error)

// HandlerSpec declares a registered capability: the payload shape it
// requires, the result kind it promises to return, and its handler.
type HandlerSpec struct {
	ID           string
	Description  string
	Version      string
	Payload      PayloadShape
	Kind         envelope.ResultKind
	RequiresAuth bool
	Handler      Handler
}

// Summary is the discovery view of a registered capability.
type Summary struct {
	ID          string              `json:"id"`
	Description string              `json:"description,omitempty"`
	Version     string              `json:"version"`
	Payload     PayloadShape        `json:"payload"`
	Kind        envelope.ResultKind `json:"kind"`
}
