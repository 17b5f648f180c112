package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GYFX35/AI-services/pkg/auth"
	"github.com/GYFX35/AI-services/pkg/envelope"
	"github.com/GYFX35/AI-services/pkg/registry"
)

const testKey = "test-key-1"

func testVerifier() auth.Verifier {
	return auth.NewStaticVerifier(map[string]auth.Caller{
		testKey: {ID: "u1", Username: "tester"},
	})
}

func newTestGateway(t *testing.T, specs ...registry.HandlerSpec) *Gateway {
	t.Helper()
	reg := registry.New()
	for _, spec := range specs {
		if err := reg.Register(spec); err != nil {
			t.Fatalf("gateway:gateway_test - register %s failed: %v", spec.ID, err)
		}
	}
	return New(reg, testVerifier(), 2*time.Second)
}

func TestDispatch_Success(t *testing.T) {
	gw := newTestGateway(t, registry.HandlerSpec{
		ID:           "market.post",
		Payload:      registry.PayloadPrompt,
		Kind:         envelope.KindText,
		RequiresAuth: true,
		Handler: func(_ context.Context, payload json.RawMessage, caller *auth.Caller) (envelope.ResultPayload, error) {
			if caller == nil || caller.Username != "tester" {
				t.Errorf("gateway:gateway_test - expected authenticated caller, got %+v", caller)
			}
			var p struct {
				Prompt string `json:"prompt"`
			}
			if err := json.Unmarshal(payload, &p); err != nil {
				return nil, err
			}
			return envelope.TextResult{Content: "post about " + p.Prompt}, nil
		},
	})

	resp := gw.Dispatch(context.Background(), []byte(`{"capability":"market.post","payload":{"prompt":"our opening"}}`), testKey)
	if resp.Status != envelope.StatusSuccess {
		t.Fatalf("gateway:gateway_test - expected success, got %+v", resp.Failure)
	}
	text, ok := resp.Result.(envelope.TextResult)
	if !ok {
		t.Fatalf("gateway:gateway_test - expected text result, got %T", resp.Result)
	}
	if text.Content != "post about our opening" {
		t.Errorf("gateway:gateway_test - unexpected content %q", text.Content)
	}
}

func TestDispatch_MissingKey_SkipsHandler(t *testing.T) {
	var invocations int32
	gw := newTestGateway(t, registry.HandlerSpec{
		ID:      "debug",
		Payload: registry.PayloadPrompt,
		Kind:    envelope.KindText,
		Handler: func(_ context.Context, _ json.RawMessage, _ *auth.Caller) (envelope.ResultPayload, error) {
			atomic.AddInt32(&invocations, 1)
			return envelope.TextResult{Content: "x"}, nil
		},
	})

	resp := gw.Dispatch(context.Background(), []byte(`{"capability":"debug","payload":{"prompt":"x"}}`), "")
	if resp.Status != envelope.StatusError || resp.Failure.Code != CodeUnauthenticated {
		t.Fatalf("gateway:gateway_test - expected UNAUTHENTICATED, got %+v", resp)
	}
	if n := atomic.LoadInt32(&invocations); n != 0 {
		t.Errorf("gateway:gateway_test - handler invoked %d times, want 0", n)
	}
}

func TestDispatch_InvalidKey(t *testing.T) {
	gw := newTestGateway(t)
	resp := gw.Dispatch(context.Background(), []byte(`{"capability":"debug"}`), "wrong-key")
	if resp.Status != envelope.StatusError || resp.Failure.Code != CodeUnauthenticated {
		t.Fatalf("gateway:gateway_test - expected UNAUTHENTICATED, got %+v", resp)
	}
}

func TestDispatch_MalformedEnvelope(t *testing.T) {
	gw := newTestGateway(t)
	for _, raw := range []string{`{`, `{}`, `{"capability":7}`} {
		resp := gw.Dispatch(context.Background(), []byte(raw), testKey)
		if resp.Status != envelope.StatusError || resp.Failure.Code != CodeMalformedEnvelope {
			t.Errorf("gateway:gateway_test - %q: expected MALFORMED_ENVELOPE, got %+v", raw, resp)
		}
	}
}

func TestDispatch_UnknownCapability(t *testing.T) {
	gw := newTestGateway(t)
	resp := gw.Dispatch(context.Background(), []byte(`{"capability":"nonexistent","payload":{}}`), testKey)
	if resp.Status != envelope.StatusError || resp.Failure.Code != registry.CodeUnknownCapability {
		t.Fatalf("gateway:gateway_test - expected UNKNOWN_CAPABILITY, got %+v", resp)
	}
}

func TestDispatch_MissingRequiredPayload(t *testing.T) {
	gw := newTestGateway(t, registry.HandlerSpec{
		ID:      "analyze.website",
		Payload: registry.PayloadURL,
		Kind:    envelope.KindLinkReport,
		Handler: func(_ context.Context, _ json.RawMessage, _ *auth.Caller) (envelope.ResultPayload, error) {
			return envelope.LinkReportResult{}, nil
		},
	})

	resp := gw.Dispatch(context.Background(), []byte(`{"capability":"analyze.website"}`), testKey)
	if resp.Status != envelope.StatusError || resp.Failure.Code != CodeMalformedEnvelope {
		t.Fatalf("gateway:gateway_test - expected MALFORMED_ENVELOPE for missing payload, got %+v", resp)
	}
}

func TestDispatch_HandlerFailureIsEnvelope(t *testing.T) {
	gw := newTestGateway(t, registry.HandlerSpec{
		ID:      "weather",
		Payload: registry.PayloadObject,
		Kind:    envelope.KindText,
		Handler: func(_ context.Context, _ json.RawMessage, _ *auth.Caller) (envelope.ResultPayload, error) {
			return nil, errors.New("upstream weather API unreachable")
		},
	})

	resp := gw.Dispatch(context.Background(), []byte(`{"capability":"weather","payload":{"location":"London"}}`), testKey)
	if resp.Status != envelope.StatusError {
		t.Fatal("gateway:gateway_test - expected error envelope")
	}
	if resp.Failure.Code != CodeHandlerFailure {
		t.Errorf("gateway:gateway_test - expected HANDLER_FAILURE, got %s", resp.Failure.Code)
	}
	if resp.Failure.Text != "upstream weather API unreachable" {
		t.Errorf("gateway:gateway_test - expected provider reason, got %q", resp.Failure.Text)
	}
}

func TestDispatch_NilResultIsHandlerFailure(t *testing.T) {
	gw := newTestGateway(t, registry.HandlerSpec{
		ID:      "broken",
		Payload: registry.PayloadPrompt,
		Kind:    envelope.KindText,
		Handler: func(_ context.Context, _ json.RawMessage, _ *auth.Caller) (envelope.ResultPayload, error) {
			return nil, nil
		},
	})

	resp := gw.Dispatch(context.Background(), []byte(`{"capability":"broken","payload":{"prompt":"x"}}`), testKey)
	if resp.Status != envelope.StatusError || resp.Failure.Code != CodeHandlerFailure {
		t.Fatalf("gateway:gateway_test - expected HANDLER_FAILURE for nil result, got %+v", resp)
	}
}

func TestDispatch_HandlerTimeout(t *testing.T) {
	reg := registry.New()
	err := reg.Register(registry.HandlerSpec{
		ID:      "slow",
		Payload: registry.PayloadPrompt,
		Kind:    envelope.KindText,
		Handler: func(ctx context.Context, _ json.RawMessage, _ *auth.Caller) (envelope.ResultPayload, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	})
	if err != nil {
		t.Fatalf("gateway:gateway_test - register failed: %v", err)
	}
	gw := New(reg, testVerifier(), 50*time.Millisecond)

	start := time.Now()
	resp := gw.Dispatch(context.Background(), []byte(`{"capability":"slow","payload":{"prompt":"x"}}`), testKey)
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("gateway:gateway_test - dispatch blocked for %s", elapsed)
	}
	if resp.Status != envelope.StatusError || resp.Failure.Code != CodeHandlerTimeout {
		t.Fatalf("gateway:gateway_test - expected HANDLER_TIMEOUT, got %+v", resp)
	}
}

func TestDispatch_KindMismatch(t *testing.T) {
	gw := newTestGateway(t, registry.HandlerSpec{
		ID:      "develop.website",
		Payload: registry.PayloadPrompt,
		Kind:    envelope.KindCodeSet,
		Handler: func(_ context.Context, _ json.RawMessage, _ *auth.Caller) (envelope.ResultPayload, error) {
			return envelope.TextResult{Content: "oops"}, nil
		},
	})

	resp := gw.Dispatch(context.Background(), []byte(`{"capability":"develop.website","payload":{"prompt":"x"}}`), testKey)
	if resp.Status != envelope.StatusError || resp.Failure.Code != CodeKindMismatch {
		t.Fatalf("gateway:gateway_test - expected KIND_MISMATCH, got %+v", resp)
	}
}

func TestDispatch_DeclaredKindMatches(t *testing.T) {
	// Every registered capability's dispatch result must carry the kind its
	// spec declares.
	specs := []registry.HandlerSpec{
		{ID: "a", Payload: registry.PayloadPrompt, Kind: envelope.KindText,
			Handler: func(_ context.Context, _ json.RawMessage, _ *auth.Caller) (envelope.ResultPayload, error) {
				return envelope.TextResult{Content: "t"}, nil
			}},
		{ID: "b", Payload: registry.PayloadPrompt, Kind: envelope.KindCode,
			Handler: func(_ context.Context, _ json.RawMessage, _ *auth.Caller) (envelope.ResultPayload, error) {
				return envelope.CodeResult{Block: envelope.CodeBlock{Language: "css", Content: "a{}"}}, nil
			}},
		{ID: "c", Payload: registry.PayloadPrompt, Kind: envelope.KindLinkReport,
			Handler: func(_ context.Context, _ json.RawMessage, _ *auth.Caller) (envelope.ResultPayload, error) {
				return envelope.LinkReportResult{}, nil
			}},
	}
	gw := newTestGateway(t, specs...)

	for _, spec := range specs {
		resp := gw.Dispatch(context.Background(), []byte(`{"capability":"`+spec.ID+`","payload":{"prompt":"x"}}`), testKey)
		if resp.Status != envelope.StatusSuccess {
			t.Fatalf("gateway:gateway_test - %s: expected success, got %+v", spec.ID, resp.Failure)
		}
		if resp.Result.Kind() != spec.Kind {
			t.Errorf("gateway:gateway_test - %s: kind %s does not match declared %s", spec.ID, resp.Result.Kind(), spec.Kind)
		}
	}
}
