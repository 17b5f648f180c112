// Package settlement orchestrates the two-party payment-authorization
// handshake: a card-processing provider mints the intent and its client
// secret token, a wallet provider presents the payment sheet on the client,
// and the coordinator reconciles the two via that single token.
package settlement

import "time"

// State is a payment intent lifecycle state.
type State string

const (
	// StateCreated means the card provider minted the intent.
	StateCreated State = "created"
	// StateAwaitingWallet means the wallet payment sheet was shown.
	StateAwaitingWallet State = "awaiting_wallet_authorization"
	// StateWalletAuthorized means the caller approved the wallet sheet.
	StateWalletAuthorized State = "wallet_authorized"
	// StateReconciled means the charge was executed against the client
	// secret token. Terminal.
	StateReconciled State = "reconciled"
	// StateFailed is terminal.
	StateFailed State = "failed"
	// StateCancelled is terminal.
	StateCancelled State = "cancelled"
)

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateReconciled || s == StateFailed || s == StateCancelled
}

// forwardTransitions lists the non-terminal successors of each state.
// Failed and Cancelled are additionally reachable from every non-terminal
// state; see CanTransition.
var forwardTransitions = map[State][]State{
	StateCreated:          {StateAwaitingWallet, StateReconciled},
	StateAwaitingWallet:   {StateWalletAuthorized, StateReconciled},
	StateWalletAuthorized: {StateReconciled},
}

// CanTransition reports whether moving from s to next is legal. Reconciled
// is reachable from any non-terminal state: the card provider reporting an
// executed charge is authoritative even when the wallet handshake was not
// observed locally.
func (s State) CanTransition(next State) bool {
	if s.Terminal() {
		return false
	}
	if next == StateFailed || next == StateCancelled {
		return true
	}
	for _, allowed := range forwardTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentIntent is a provider-side reservation for a future charge, owned
// by the coordinator for its lifetime. ClientSecretToken is the sole
// binding artifact between the two settlement providers; it is echoed only
// to the caller that created the intent and never logged.
type PaymentIntent struct {
	IntentID          string
	ProviderRef       string
	CallerID          string
	Reference         string
	AmountMinor       int64
	Currency          string
	ClientSecretToken string
	State             State
	Reason            string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// clone returns a copy so store internals never alias caller-held intents.
func (i *PaymentIntent) clone() *PaymentIntent {
	c := *i
	return &c
}
