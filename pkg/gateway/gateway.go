// Package gateway is the single dispatch surface: it authenticates the
// caller, decodes the request envelope, resolves the capability, invokes its
// handler under a bounded timeout, and wraps the outcome into a response
// envelope. The gateway itself holds no per-request state.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GYFX35/AI-services/pkg/auth"
	"github.com/GYFX35/AI-services/pkg/envelope"
	"github.com/GYFX35/AI-services/pkg/registry"
)

const logPrefix = "gateway:gateway"

// Error codes produced by the gateway itself. Capability handlers report
// their own reasons, wrapped under HANDLER_FAILURE.
const (
	CodeUnauthenticated   = "UNAUTHENTICATED"
	CodeMalformedEnvelope = "MALFORMED_ENVELOPE"
	CodeHandlerFailure    = "HANDLER_FAILURE"
	CodeHandlerTimeout    = "HANDLER_TIMEOUT"
	CodeKindMismatch      = "KIND_MISMATCH"
)

const defaultHandlerTimeout = 25 * time.Second

// Gateway dispatches request envelopes to registered capability handlers.
type Gateway struct {
	registry *registry.Registry
	verifier auth.Verifier
	timeout  time.Duration
}

// New creates a Gateway. A zero timeout falls back to the default.
func New(reg *registry.Registry, verifier auth.Verifier, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = defaultHandlerTimeout
	}
	return &Gateway{registry: reg, verifier: verifier, timeout: timeout}
}

// Dispatch handles one request. The returned envelope is always well-formed:
// handler faults become error-status envelopes, never transport faults.
// apiKey is the raw value of the X-API-Key header.
func (g *Gateway) Dispatch(ctx context.Context, raw []byte, apiKey string) *envelope.ResponseEnvelope {
	caller, err := g.verifier.Verify(ctx, apiKey)
	if err != nil {
		if errors.Is(err, auth.ErrMissingKey) {
			return envelope.Fail(CodeUnauthenticated, "API key is missing")
		}
		return envelope.Fail(CodeUnauthenticated, "Invalid API key")
	}

	env, err := envelope.Decode(raw)
	if err != nil {
		return envelope.Fail(CodeMalformedEnvelope, err.Error())
	}

	spec, err := g.registry.Resolve(env.Capability)
	if err != nil {
		var regErr *registry.Error
		if errors.As(err, &regErr) {
			return envelope.Fail(regErr.Code, regErr.Message)
		}
		return envelope.Fail(registry.CodeUnknownCapability, err.Error())
	}

	if spec.Payload != registry.PayloadNone && len(env.Payload) == 0 {
		return envelope.Fail(CodeMalformedEnvelope, fmt.Sprintf("capability %s requires a payload", spec.ID))
	}

	slog.Debug(fmt.Sprintf("%s - dispatch capability=%s caller=%s", logPrefix, spec.ID, caller.ID))

	result, err := g.invoke(ctx, spec, env, caller)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			slog.Warn(fmt.Sprintf("%s - capability %s timed out after %s", logPrefix, spec.ID, g.timeout))
			return envelope.Fail(CodeHandlerTimeout, fmt.Sprintf("capability %s did not respond within %s", spec.ID, g.timeout))
		}
		slog.Warn(fmt.Sprintf("%s - capability %s failed: %v", logPrefix, spec.ID, err))
		return envelope.Fail(CodeHandlerFailure, err.Error())
	}

	if result == nil {
		slog.Error(fmt.Sprintf("%s - capability %s returned no result and no error", logPrefix, spec.ID))
		return envelope.Fail(CodeHandlerFailure, fmt.Sprintf("capability %s produced no result", spec.ID))
	}
	if result.Kind() != spec.Kind {
		slog.Error(fmt.Sprintf("%s - capability %s returned kind %s, declared %s", logPrefix, spec.ID, result.Kind(), spec.Kind))
		return envelope.Fail(CodeKindMismatch, fmt.Sprintf("capability %s returned %s, declared %s", spec.ID, result.Kind(), spec.Kind))
	}
	return envelope.Success(result)
}

// invokeOutcome carries a handler's return values across the timeout select.
type invokeOutcome struct {
	result envelope.ResultPayload
	err    error
}

// invoke runs the handler under the gateway timeout. Handlers are opaque and
// possibly slow; a handler that overruns keeps its goroutine until it
// returns, but the dispatch itself never blocks past the deadline.
func (g *Gateway) invoke(ctx context.Context, spec *registry.HandlerSpec, env *envelope.RequestEnvelope, caller *auth.Caller) (envelope.ResultPayload, error) {
	invokeCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	outcome := make(chan invokeOutcome, 1)
	go func() {
		result, err := spec.Handler(invokeCtx, env.Payload, caller)
		outcome <- invokeOutcome{result: result, err: err}
	}()

	select {
	case out := <-outcome:
		return out.result, out.err
	case <-invokeCtx.Done():
		return nil, invokeCtx.Err()
	}
}
