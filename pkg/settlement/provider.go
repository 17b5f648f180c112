package settlement

import (
	"context"
	"errors"
)

// CardIntent is the card provider's view of a freshly minted intent.
type CardIntent struct {
	ProviderRef  string
	ClientSecret string
}

// CardProvider is the card-processing side of the handshake. It mints the
// intent and the client secret token that the wallet provider later charges
// against.
type CardProvider interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency, internalID string) (*CardIntent, error)
	CancelIntent(ctx context.Context, providerRef string) error
}

// ErrReconciliationPending reports that the final charge step could not
// complete yet. The intent stays in WalletAuthorized until the provider
// outcome arrives out of band.
var ErrReconciliationPending = errors.New("settlement: reconciliation pending")

// ReconcileHook executes the final charge against an intent's client secret
// token. The interoperation between the wallet provider and the card
// provider is pending external specification: implementations may not be
// able to complete synchronously and should return
// ErrReconciliationPending in that case rather than guessing a protocol.
type ReconcileHook interface {
	Reconcile(ctx context.Context, intent *PaymentIntent) error
}

// PendingReconciler is the default ReconcileHook. It always reports
// pending, leaving reconciliation to the card provider's asynchronous
// outcome notifications (the webhook path).
type PendingReconciler struct{}

// Reconcile implements ReconcileHook.
func (PendingReconciler) Reconcile(_ context.Context, _ *PaymentIntent) error {
	return ErrReconciliationPending
}
