package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GYFX35/AI-services/pkg/auth"
	"github.com/GYFX35/AI-services/pkg/events"
)

const logPrefix = "settlement:coordinator"

// Error codes returned by coordinator operations.
const (
	CodeIntentAlreadyPending = "INTENT_ALREADY_PENDING"
	CodeIntentNotFound       = "INTENT_NOT_FOUND"
	CodeInvalidAmount        = "INVALID_AMOUNT"
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodeProviderError        = "PROVIDER_ERROR"
	CodeWalletUnavailable    = "WALLET_UNAVAILABLE"
)

// Error is a structured settlement error.
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

const defaultRetention = 24 * time.Hour

// Coordinator owns payment intents for their lifetime and enforces the
// settlement state machine. At most one non-terminal intent exists per
// (caller, reference) pair.
type Coordinator struct {
	store     Store
	provider  CardProvider
	hook      ReconcileHook
	publisher events.Publisher
	retention time.Duration

	// admission serializes create calls so two concurrent requests for the
	// same purchase context cannot both mint a client secret token.
	admission sync.Mutex
}

// Params holds constructor parameters for NewCoordinator.
type Params struct {
	Store     Store
	Provider  CardProvider
	Hook      ReconcileHook
	Publisher events.Publisher
	// Retention bounds how long terminal intents stay in the store.
	Retention time.Duration
}

// NewCoordinator creates a Coordinator. Store and Provider are required;
// nil Hook defaults to PendingReconciler, nil Publisher to NoOpPublisher.
func NewCoordinator(params Params) *Coordinator {
	hook := params.Hook
	if hook == nil {
		hook = PendingReconciler{}
	}
	publisher := params.Publisher
	if publisher == nil {
		publisher = &events.NoOpPublisher{}
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultRetention
	}
	return &Coordinator{
		store:     params.Store,
		provider:  params.Provider,
		hook:      hook,
		publisher: publisher,
		retention: retention,
	}
}

// CreateIntent mints a payment intent with the card provider. reference
// identifies the logical purchase; an empty reference derives one from
// amount and currency. A second call for the same (caller, reference) while
// one intent is non-terminal fails with INTENT_ALREADY_PENDING.
func (c *Coordinator) CreateIntent(ctx context.Context, caller *auth.Caller, amount, currency, reference string) (*PaymentIntent, error) {
	amountMinor, err := ParseAmountMinor(amount)
	if err != nil {
		return nil, NewError(CodeInvalidAmount, err.Error())
	}
	currency = strings.ToLower(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return nil, NewError(CodeInvalidAmount, fmt.Sprintf("currency must be an ISO-4217 code, got %q", currency))
	}
	if reference == "" {
		reference = fmt.Sprintf("%s:%s", amount, currency)
	}

	c.admission.Lock()
	defer c.admission.Unlock()

	if _, err := c.store.ExpireTerminalBefore(ctx, time.Now().Add(-c.retention)); err != nil {
		slog.Warn(fmt.Sprintf("%s - retention sweep failed: %v", logPrefix, err))
	}

	existing, err := c.store.FindActive(ctx, caller.ID, reference)
	if err != nil {
		return nil, fmt.Errorf("%s - lookup failed: %w", logPrefix, err)
	}
	if existing != nil {
		return nil, NewError(CodeIntentAlreadyPending,
			fmt.Sprintf("an intent for this purchase is already outstanding (%s)", existing.IntentID))
	}

	intentID := uuid.NewString()
	cardIntent, err := c.provider.CreateIntent(ctx, amountMinor, currency, intentID)
	if err != nil {
		return nil, NewError(CodeProviderError, fmt.Sprintf("card provider rejected the intent: %v", err))
	}

	now := time.Now().UTC()
	intent := &PaymentIntent{
		IntentID:          intentID,
		ProviderRef:       cardIntent.ProviderRef,
		CallerID:          caller.ID,
		Reference:         reference,
		AmountMinor:       amountMinor,
		Currency:          currency,
		ClientSecretToken: cardIntent.ClientSecret,
		State:             StateCreated,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := c.store.Put(ctx, intent); err != nil {
		return nil, fmt.Errorf("%s - store failed: %w", logPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - created intent %s caller=%s amount=%d %s", logPrefix, intentID, caller.ID, amountMinor, currency))
	c.publish(ctx, intent)
	return intent, nil
}

// WalletSheetShown records that the wallet provider presented its payment
// sheet for the intent.
func (c *Coordinator) WalletSheetShown(ctx context.Context, intentID string) (*PaymentIntent, error) {
	return c.transition(ctx, intentID, StateAwaitingWallet, "")
}

// WalletAuthorized records caller approval of the wallet sheet and attempts
// the final charge through the reconcile hook. A pending hook leaves the
// intent in WalletAuthorized; reconciliation then completes via
// HandleProviderOutcome.
func (c *Coordinator) WalletAuthorized(ctx context.Context, intentID string) (*PaymentIntent, error) {
	intent, err := c.transition(ctx, intentID, StateWalletAuthorized, "")
	if err != nil {
		return nil, err
	}

	switch err := c.hook.Reconcile(ctx, intent); {
	case err == nil:
		return c.transition(ctx, intentID, StateReconciled, "")
	case err == ErrReconciliationPending:
		slog.Info(fmt.Sprintf("%s - intent %s awaiting provider outcome", logPrefix, intentID))
		return intent, nil
	default:
		return c.transition(ctx, intentID, StateFailed, err.Error())
	}
}

// WalletUnavailable records that the wallet provider produced no payment
// container. cancelled distinguishes a caller abort from a provider
// failure. No reconciliation is attempted either way.
func (c *Coordinator) WalletUnavailable(ctx context.Context, intentID string, cancelled bool) (*PaymentIntent, error) {
	if cancelled {
		return c.transition(ctx, intentID, StateCancelled, "wallet sheet dismissed by caller")
	}
	return c.transition(ctx, intentID, StateFailed, "wallet provider returned no payment container")
}

// Cancel aborts an intent on the caller's behalf. The local record is
// authoritative; the provider-side intent is cancelled best-effort so its
// client secret token cannot be charged later, and a provider failure never
// blocks the caller.
func (c *Coordinator) Cancel(ctx context.Context, intentID, callerID string) (*PaymentIntent, error) {
	intent, err := c.get(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if intent.CallerID != callerID {
		return nil, NewError(CodeIntentNotFound, fmt.Sprintf("no intent %s for this caller", intentID))
	}
	cancelled, err := c.transition(ctx, intentID, StateCancelled, "cancelled by caller")
	if err != nil {
		return nil, err
	}
	if err := c.provider.CancelIntent(ctx, cancelled.ProviderRef); err != nil {
		slog.Warn(fmt.Sprintf("%s - provider-side cancel of %s failed: %v", logPrefix, cancelled.ProviderRef, err))
	}
	return cancelled, nil
}

// HandleProviderOutcome applies an asynchronous charge outcome reported by
// the card provider (the webhook path). An executed charge reconciles the
// intent from any non-terminal state.
func (c *Coordinator) HandleProviderOutcome(ctx context.Context, intentID string, succeeded bool, reason string) (*PaymentIntent, error) {
	if succeeded {
		return c.transition(ctx, intentID, StateReconciled, "")
	}
	if reason == "" {
		reason = "charge failed at the card provider"
	}
	return c.transition(ctx, intentID, StateFailed, reason)
}

// Get returns an intent owned by the given caller.
func (c *Coordinator) Get(ctx context.Context, intentID, callerID string) (*PaymentIntent, error) {
	intent, err := c.get(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if intent.CallerID != callerID {
		return nil, NewError(CodeIntentNotFound, fmt.Sprintf("no intent %s for this caller", intentID))
	}
	return intent, nil
}

func (c *Coordinator) get(ctx context.Context, intentID string) (*PaymentIntent, error) {
	intent, err := c.store.Get(ctx, intentID)
	if err != nil {
		return nil, fmt.Errorf("%s - lookup failed: %w", logPrefix, err)
	}
	if intent == nil {
		return nil, NewError(CodeIntentNotFound, fmt.Sprintf("unknown intent %s", intentID))
	}
	return intent, nil
}

func (c *Coordinator) transition(ctx context.Context, intentID string, next State, reason string) (*PaymentIntent, error) {
	intent, err := c.get(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if !intent.State.CanTransition(next) {
		return nil, NewError(CodeInvalidTransition,
			fmt.Sprintf("intent %s cannot move from %s to %s", intentID, intent.State, next))
	}

	intent.State = next
	intent.Reason = reason
	intent.UpdatedAt = time.Now().UTC()
	if err := c.store.Update(ctx, intent); err != nil {
		return nil, fmt.Errorf("%s - update failed: %w", logPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - intent %s -> %s", logPrefix, intentID, next))
	c.publish(ctx, intent)
	return intent, nil
}

func (c *Coordinator) publish(ctx context.Context, intent *PaymentIntent) {
	event := &events.IntentChangedEvent{
		IntentID:    intent.IntentID,
		CallerID:    intent.CallerID,
		Reference:   intent.Reference,
		AmountMinor: intent.AmountMinor,
		Currency:    intent.Currency,
		State:       string(intent.State),
		Reason:      intent.Reason,
		Timestamp:   intent.UpdatedAt.Format(time.RFC3339),
	}
	if err := c.publisher.PublishIntentChanged(ctx, event); err != nil {
		slog.Warn(fmt.Sprintf("%s - event publish failed for %s: %v", logPrefix, intent.IntentID, err))
	}
}

// ParseAmountMinor converts a decimal-as-string amount into minor currency
// units (two decimal places). Floats are avoided so "19.99" is exactly
// 1999.
func ParseAmountMinor(amount string) (int64, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0, fmt.Errorf("amount is required")
	}
	whole, frac := amount, ""
	if dot := strings.IndexByte(amount, '.'); dot >= 0 {
		whole, frac = amount[:dot], amount[dot+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("amount %q has more than two decimal places", amount)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	var minor int64
	for _, digits := range []string{whole, frac} {
		for _, r := range digits {
			if r < '0' || r > '9' {
				return 0, fmt.Errorf("invalid amount %q", amount)
			}
			minor = minor*10 + int64(r-'0')
			if minor < 0 {
				return 0, fmt.Errorf("amount %q overflows", amount)
			}
		}
	}
	if minor == 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	return minor, nil
}
