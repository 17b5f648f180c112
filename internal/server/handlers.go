package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	stripe "github.com/stripe/stripe-go/v79"

	"github.com/GYFX35/AI-services/pkg/auth"
	"github.com/GYFX35/AI-services/pkg/db"
	"github.com/GYFX35/AI-services/pkg/envelope"
	"github.com/GYFX35/AI-services/pkg/gateway"
	"github.com/GYFX35/AI-services/pkg/registry"
	"github.com/GYFX35/AI-services/pkg/settlement"
)

const handlersLogPrefix = "server:handlers"

// maxBodyBytes bounds every request body the gateway reads.
const maxBodyBytes = 1 << 20

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/dispatch", s.handleDispatch)
	mux.HandleFunc("GET /api/v1/capabilities", s.handleCapabilities)
	mux.HandleFunc("POST /api/v1/payment/intent", s.handleCreateIntent)
	mux.HandleFunc("POST /api/v1/payment/intent/{id}/cancel", s.handleCancelIntent)
	mux.HandleFunc("POST /api/v1/payment/intent/{id}/wallet", s.handleWalletEvent)
	mux.HandleFunc("POST /api/v1/payment/webhook", s.handleWebhook)
	mux.HandleFunc("GET /api/config", s.handleClientConfig)
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("GET /api/me", s.handleMe)
	mux.HandleFunc("GET /api/v1/portfolio/projects", s.handleProjects)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error(fmt.Sprintf("%s - response encode: %v", handlersLogPrefix, err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// transportFaultStatus maps pre-handler failure codes to 4xx statuses. It
// returns 0 for handler outcomes, which travel in a 200 envelope.
func transportFaultStatus(env *envelope.ResponseEnvelope) int {
	if env.Status != envelope.StatusError {
		return 0
	}
	switch env.Failure.Code {
	case gateway.CodeUnauthenticated:
		return http.StatusUnauthorized
	case gateway.CodeMalformedEnvelope:
		return http.StatusBadRequest
	case registry.CodeUnknownCapability:
		return http.StatusNotFound
	default:
		return 0
	}
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	env := s.gw.Dispatch(r.Context(), raw, r.Header.Get(auth.HeaderAPIKey))
	// Transport faults get a minimal error body; only handler outcomes
	// carry the envelope shape.
	if status := transportFaultStatus(env); status != 0 {
		writeJSON(w, status, map[string]string{
			"error": env.Failure.Text,
			"code":  env.Failure.Code,
		})
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"capabilities": s.reg.List()})
}

// caller authenticates the request, writing a 401 and returning nil when
// the key is missing or unknown.
func (s *Server) caller(w http.ResponseWriter, r *http.Request) *auth.Caller {
	caller, err := s.verifier.Verify(r.Context(), r.Header.Get(auth.HeaderAPIKey))
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingKey):
			writeError(w, http.StatusUnauthorized, "API key is missing")
		case errors.Is(err, auth.ErrInvalidKey):
			writeError(w, http.StatusUnauthorized, "Invalid API key")
		default:
			slog.Error(fmt.Sprintf("%s - verify failed: %v", handlersLogPrefix, err))
			writeError(w, http.StatusInternalServerError, "verification failed")
		}
		return nil
	}
	return caller
}

// settlementStatus maps coordinator error codes to HTTP statuses.
func settlementStatus(err *settlement.Error) int {
	switch err.Code {
	case settlement.CodeInvalidAmount:
		return http.StatusBadRequest
	case settlement.CodeIntentNotFound:
		return http.StatusNotFound
	case settlement.CodeIntentAlreadyPending, settlement.CodeInvalidTransition:
		return http.StatusConflict
	case settlement.CodeProviderError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeSettlementError(w http.ResponseWriter, err error) {
	var serr *settlement.Error
	if errors.As(err, &serr) {
		writeJSON(w, settlementStatus(serr), map[string]string{"error": serr.Message, "code": serr.Code})
		return
	}
	slog.Error(fmt.Sprintf("%s - settlement failure: %v", handlersLogPrefix, err))
	writeError(w, http.StatusInternalServerError, "settlement failure")
}

func (s *Server) handleCreateIntent(w http.ResponseWriter, r *http.Request) {
	if s.coord == nil {
		writeError(w, http.StatusServiceUnavailable, "payments are not configured")
		return
	}
	caller := s.caller(w, r)
	if caller == nil {
		return
	}

	var req struct {
		Amount    string `json:"amount"`
		Currency  string `json:"currency"`
		Reference string `json:"reference"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	intent, err := s.coord.CreateIntent(r.Context(), caller, req.Amount, req.Currency, req.Reference)
	if err != nil {
		writeSettlementError(w, err)
		return
	}
	// The only place the client secret token crosses the wire.
	writeJSON(w, http.StatusCreated, map[string]string{
		"intentId":          intent.IntentID,
		"clientSecretToken": intent.ClientSecretToken,
		"state":             string(intent.State),
	})
}

func intentView(intent *settlement.PaymentIntent) map[string]string {
	view := map[string]string{
		"intentId": intent.IntentID,
		"state":    string(intent.State),
	}
	if intent.Reason != "" {
		view["reason"] = intent.Reason
	}
	return view
}

func (s *Server) handleCancelIntent(w http.ResponseWriter, r *http.Request) {
	if s.coord == nil {
		writeError(w, http.StatusServiceUnavailable, "payments are not configured")
		return
	}
	caller := s.caller(w, r)
	if caller == nil {
		return
	}
	intent, err := s.coord.Cancel(r.Context(), r.PathValue("id"), caller.ID)
	if err != nil {
		writeSettlementError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, intentView(intent))
}

// handleWalletEvent applies a wallet-provider handshake event reported by
// the client: the payment sheet was shown, authorized, or unavailable.
func (s *Server) handleWalletEvent(w http.ResponseWriter, r *http.Request) {
	if s.coord == nil {
		writeError(w, http.StatusServiceUnavailable, "payments are not configured")
		return
	}
	caller := s.caller(w, r)
	if caller == nil {
		return
	}
	intentID := r.PathValue("id")
	if _, err := s.coord.Get(r.Context(), intentID, caller.ID); err != nil {
		writeSettlementError(w, err)
		return
	}

	var req struct {
		Event     string `json:"event"`
		Cancelled bool   `json:"cancelled"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var intent *settlement.PaymentIntent
	var err error
	switch req.Event {
	case "sheet_shown":
		intent, err = s.coord.WalletSheetShown(r.Context(), intentID)
	case "authorized":
		intent, err = s.coord.WalletAuthorized(r.Context(), intentID)
	case "unavailable":
		intent, err = s.coord.WalletUnavailable(r.Context(), intentID, req.Cancelled)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown wallet event %q", req.Event))
		return
	}
	if err != nil {
		writeSettlementError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, intentView(intent))
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.coord == nil {
		writeError(w, http.StatusServiceUnavailable, "payments are not configured")
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	event, err := s.verifyWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "webhook signature verification failed")
		return
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded, stripe.EventTypePaymentIntentPaymentFailed:
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		writeError(w, http.StatusBadRequest, "malformed event payload")
		return
	}
	intentID := settlement.IntentIDFromMetadata(pi.Metadata)
	if intentID == "" {
		writeError(w, http.StatusBadRequest, "event carries no intent id")
		return
	}

	succeeded := event.Type == stripe.EventTypePaymentIntentSucceeded
	reason := ""
	if !succeeded && pi.LastPaymentError != nil {
		reason = pi.LastPaymentError.Msg
	}
	if _, err := s.coord.HandleProviderOutcome(r.Context(), intentID, succeeded, reason); err != nil {
		var serr *settlement.Error
		// Unknown intents and repeat deliveries are acknowledged so the
		// provider stops retrying.
		if errors.As(err, &serr) {
			slog.Warn(fmt.Sprintf("%s - webhook outcome for %s not applied: %v", handlersLogPrefix, intentID, err))
			writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to apply outcome")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}

// handleClientConfig returns the publishable client configuration. Secrets
// never appear here.
func (s *Server) handleClientConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"stripePublicKey": s.cfg.StripePublicKey,
		"metaAppId":       s.cfg.MetaAppID,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "registration requires a database")
		return
	}
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil || strings.TrimSpace(req.Username) == "" {
		writeError(w, http.StatusBadRequest, "Username is required")
		return
	}
	username := strings.TrimSpace(req.Username)

	existing, err := s.repo.GetUserByUsername(r.Context(), username)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - register lookup: %v", handlersLogPrefix, err))
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	if existing != nil {
		writeError(w, http.StatusBadRequest, "Username already exists")
		return
	}

	key, err := auth.NewAPIKey()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	user, err := s.repo.CreateUser(r.Context(), username, key)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - register create: %v", handlersLogPrefix, err))
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":       user.ID,
		"username": user.Username,
		"api_key":  user.APIKey,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	caller := s.caller(w, r)
	if caller == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":       caller.ID,
		"username": caller.Username,
	})
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeJSON(w, http.StatusOK, []interface{}{})
		return
	}
	projects, err := s.repo.ListProjects(r.Context())
	if err != nil {
		slog.Error(fmt.Sprintf("%s - list projects: %v", handlersLogPrefix, err))
		writeError(w, http.StatusInternalServerError, "failed to list projects")
		return
	}
	if projects == nil {
		projects = []db.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "healthy",
		"capabilities": len(s.reg.List()),
		"settlement":   s.coord != nil,
		"database":     s.repo != nil,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
