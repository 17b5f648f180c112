package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	stripe "github.com/stripe/stripe-go/v79"

	"github.com/GYFX35/AI-services/internal/config"
	"github.com/GYFX35/AI-services/pkg/auth"
	"github.com/GYFX35/AI-services/pkg/capabilities"
	"github.com/GYFX35/AI-services/pkg/gateway"
	"github.com/GYFX35/AI-services/pkg/registry"
	"github.com/GYFX35/AI-services/pkg/settlement"
)

const serverTestPrefix = "server:server_test"

const testAPIKey = "test-key-123"

type fakeProvider struct {
	created   int
	cancelled int
}

func (p *fakeProvider) CreateIntent(_ context.Context, _ int64, _, internalID string) (*settlement.CardIntent, error) {
	p.created++
	return &settlement.CardIntent{
		ProviderRef:  fmt.Sprintf("pi_test_%d", p.created),
		ClientSecret: fmt.Sprintf("pi_test_%d_secret", p.created),
	}, nil
}

func (p *fakeProvider) CancelIntent(_ context.Context, _ string) error {
	p.cancelled++
	return nil
}

// newTestServer builds a Server with a static verifier, an in-memory
// settlement store and a stubbed webhook verifier.
func newTestServer(t *testing.T) (*Server, *fakeProvider) {
	t.Helper()

	verifier := auth.NewStaticVerifier(map[string]auth.Caller{
		testAPIKey: {ID: "user-1", Username: "alice"},
	})

	reg := registry.New()
	if err := capabilities.RegisterBuiltins(reg, capabilities.Deps{}); err != nil {
		t.Fatalf("%s - RegisterBuiltins failed: %v", serverTestPrefix, err)
	}

	provider := &fakeProvider{}
	coord := settlement.NewCoordinator(settlement.Params{
		Store:    settlement.NewMemoryStore(),
		Provider: provider,
	})

	s := &Server{
		cfg: &config.Config{
			StripePublicKey: "pk_test_abc",
			MetaAppID:       "meta-1",
			HandlerTimeout:  5 * time.Second,
		},
		verifier: verifier,
		reg:      reg,
		gw:       gateway.New(reg, verifier, 5*time.Second),
		coord:    coord,
		verifyWebhook: func(payload []byte, sigHeader string) (stripe.Event, error) {
			if sigHeader != "valid" {
				return stripe.Event{}, fmt.Errorf("bad signature")
			}
			var event stripe.Event
			if err := json.Unmarshal(payload, &event); err != nil {
				return stripe.Event{}, err
			}
			return event, nil
		},
	}
	return s, provider
}

func doRequest(t *testing.T, s *Server, method, path, apiKey string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("%s - encode body: %v", serverTestPrefix, err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if apiKey != "" {
		req.Header.Set(auth.HeaderAPIKey, apiKey)
	}
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)
	return rec
}

func TestDispatch_Success(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodPost, "/api/v1/dispatch", testAPIKey, map[string]interface{}{
		"capability": "market.post",
		"payload":    map[string]string{"prompt": "our new bakery"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("%s - expected 200, got %d: %s", serverTestPrefix, rec.Code, rec.Body.String())
	}
	var resp struct {
		Status  string `json:"status"`
		Message struct {
			Kind    string `json:"kind"`
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s - decode response: %v", serverTestPrefix, err)
	}
	if resp.Status != "success" || resp.Message.Kind != "text" {
		t.Errorf("%s - unexpected envelope: %s", serverTestPrefix, rec.Body.String())
	}
}

// assertTransportFault checks that a 4xx dispatch response carries the
// minimal {"error", "code"} body, never the envelope shape.
func assertTransportFault(t *testing.T, rec *httptest.ResponseRecorder, wantCode string) {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("%s - decode fault body: %v", serverTestPrefix, err)
	}
	if body["error"] == "" || body["code"] != wantCode {
		t.Errorf("%s - unexpected fault body: %s", serverTestPrefix, rec.Body.String())
	}
	if _, hasStatus := body["status"]; hasStatus {
		t.Errorf("%s - fault body carries envelope shape: %s", serverTestPrefix, rec.Body.String())
	}
}

func TestDispatch_ErrorStatuses(t *testing.T) {
	s, _ := newTestServer(t)

	// Missing key: 401
	rec := doRequest(t, s, http.MethodPost, "/api/v1/dispatch", "", map[string]string{"capability": "debug"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("%s - missing key: expected 401, got %d", serverTestPrefix, rec.Code)
	}
	assertTransportFault(t, rec, gateway.CodeUnauthenticated)

	// Malformed envelope: 400
	req := httptest.NewRequest(http.MethodPost, "/api/v1/dispatch", bytes.NewBufferString("not json"))
	req.Header.Set(auth.HeaderAPIKey, testAPIKey)
	rec = httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("%s - malformed: expected 400, got %d", serverTestPrefix, rec.Code)
	}
	assertTransportFault(t, rec, gateway.CodeMalformedEnvelope)

	// Unknown capability: 404
	rec = doRequest(t, s, http.MethodPost, "/api/v1/dispatch", testAPIKey, map[string]string{"capability": "nope"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("%s - unknown capability: expected 404, got %d", serverTestPrefix, rec.Code)
	}
	assertTransportFault(t, rec, registry.CodeUnknownCapability)
}

func TestCapabilities_List(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/capabilities", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("%s - expected 200, got %d", serverTestPrefix, rec.Code)
	}
	var resp struct {
		Capabilities []registry.Summary `json:"capabilities"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s - decode response: %v", serverTestPrefix, err)
	}
	if len(resp.Capabilities) != 9 {
		t.Errorf("%s - expected 9 capabilities, got %d", serverTestPrefix, len(resp.Capabilities))
	}
}

func TestClientConfig_NoSecrets(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/config", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("%s - expected 200, got %d", serverTestPrefix, rec.Code)
	}
	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["stripePublicKey"] != "pk_test_abc" || resp["metaAppId"] != "meta-1" {
		t.Errorf("%s - unexpected config: %v", serverTestPrefix, resp)
	}
	if len(resp) != 2 {
		t.Errorf("%s - config leaked extra fields: %v", serverTestPrefix, resp)
	}
}

func TestPaymentIntent_CreateCancel(t *testing.T) {
	s, provider := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/payment/intent", testAPIKey,
		map[string]string{"amount": "19.99", "currency": "usd", "reference": "order-1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("%s - expected 201, got %d: %s", serverTestPrefix, rec.Code, rec.Body.String())
	}
	var created map[string]string
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created["clientSecretToken"] == "" || created["intentId"] == "" {
		t.Fatalf("%s - missing token or id: %v", serverTestPrefix, created)
	}
	if created["state"] != string(settlement.StateCreated) {
		t.Errorf("%s - expected created state, got %s", serverTestPrefix, created["state"])
	}

	// Duplicate purchase context: 409
	rec = doRequest(t, s, http.MethodPost, "/api/v1/payment/intent", testAPIKey,
		map[string]string{"amount": "19.99", "currency": "usd", "reference": "order-1"})
	if rec.Code != http.StatusConflict {
		t.Errorf("%s - duplicate: expected 409, got %d", serverTestPrefix, rec.Code)
	}
	if provider.created != 1 {
		t.Errorf("%s - provider minted %d intents, want 1", serverTestPrefix, provider.created)
	}

	// Invalid amount: 400
	rec = doRequest(t, s, http.MethodPost, "/api/v1/payment/intent", testAPIKey,
		map[string]string{"amount": "abc", "currency": "usd"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("%s - bad amount: expected 400, got %d", serverTestPrefix, rec.Code)
	}

	// Cancel: 200, terminal state
	rec = doRequest(t, s, http.MethodPost, "/api/v1/payment/intent/"+created["intentId"]+"/cancel", testAPIKey, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("%s - cancel: expected 200, got %d: %s", serverTestPrefix, rec.Code, rec.Body.String())
	}
	var cancelled map[string]string
	json.Unmarshal(rec.Body.Bytes(), &cancelled)
	if cancelled["state"] != string(settlement.StateCancelled) {
		t.Errorf("%s - expected cancelled, got %s", serverTestPrefix, cancelled["state"])
	}
	if provider.cancelled != 1 {
		t.Errorf("%s - expected 1 provider-side cancel, got %d", serverTestPrefix, provider.cancelled)
	}

	// Unknown intent: 404
	rec = doRequest(t, s, http.MethodPost, "/api/v1/payment/intent/does-not-exist/cancel", testAPIKey, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("%s - unknown intent: expected 404, got %d", serverTestPrefix, rec.Code)
	}
}

func TestPaymentIntent_RequiresAuth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodPost, "/api/v1/payment/intent", "",
		map[string]string{"amount": "5.00", "currency": "usd"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("%s - expected 401, got %d", serverTestPrefix, rec.Code)
	}
}

func TestWalletFlow_AndWebhook(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/payment/intent", testAPIKey,
		map[string]string{"amount": "42.00", "currency": "eur", "reference": "order-2"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("%s - create: expected 201, got %d", serverTestPrefix, rec.Code)
	}
	var created map[string]string
	json.Unmarshal(rec.Body.Bytes(), &created)
	intentID := created["intentId"]

	for _, step := range []struct {
		event string
		want  settlement.State
	}{
		{"sheet_shown", settlement.StateAwaitingWallet},
		{"authorized", settlement.StateWalletAuthorized},
	} {
		rec = doRequest(t, s, http.MethodPost, "/api/v1/payment/intent/"+intentID+"/wallet", testAPIKey,
			map[string]interface{}{"event": step.event})
		if rec.Code != http.StatusOK {
			t.Fatalf("%s - wallet %s: expected 200, got %d: %s", serverTestPrefix, step.event, rec.Code, rec.Body.String())
		}
		var view map[string]string
		json.Unmarshal(rec.Body.Bytes(), &view)
		if view["state"] != string(step.want) {
			t.Errorf("%s - wallet %s: expected state %s, got %s", serverTestPrefix, step.event, step.want, view["state"])
		}
	}

	// Provider reports the executed charge through the webhook.
	event := map[string]interface{}{
		"type": "payment_intent.succeeded",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":       "pi_test_1",
				"metadata": map[string]string{"payment_id": intentID},
			},
		},
	}
	body, _ := json.Marshal(event)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/webhook", bytes.NewReader(body))
	req.Header.Set("Stripe-Signature", "valid")
	recorder := httptest.NewRecorder()
	s.routes().ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("%s - webhook: expected 200, got %d: %s", serverTestPrefix, recorder.Code, recorder.Body.String())
	}

	intent, err := s.coord.Get(context.Background(), intentID, "user-1")
	if err != nil {
		t.Fatalf("%s - Get failed: %v", serverTestPrefix, err)
	}
	if intent.State != settlement.StateReconciled {
		t.Errorf("%s - expected reconciled after webhook, got %s", serverTestPrefix, intent.State)
	}
}

func TestWebhook_BadSignature(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/webhook", bytes.NewBufferString("{}"))
	req.Header.Set("Stripe-Signature", "forged")
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("%s - expected 400 for bad signature, got %d", serverTestPrefix, rec.Code)
	}
}

func TestMe(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/me", testAPIKey, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("%s - expected 200, got %d", serverTestPrefix, rec.Code)
	}
	var me map[string]string
	json.Unmarshal(rec.Body.Bytes(), &me)
	if me["username"] != "alice" || me["id"] != "user-1" {
		t.Errorf("%s - unexpected identity: %v", serverTestPrefix, me)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/me", "wrong", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("%s - expected 401, got %d", serverTestPrefix, rec.Code)
	}
}

func TestHealthAndReady(t *testing.T) {
	s, _ := newTestServer(t)
	for _, path := range []string{"/health", "/ready"} {
		rec := doRequest(t, s, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s - %s: expected 200, got %d", serverTestPrefix, path, rec.Code)
		}
	}
}

func TestRegister_RequiresDatabase(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodPost, "/api/register", "", map[string]string{"username": "bob"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("%s - expected 503 without database, got %d", serverTestPrefix, rec.Code)
	}
}
