package db

import (
	"context"
	"time"

	"github.com/GYFX35/AI-services/pkg/settlement"
)

// PaymentStore persists coordinator intents in Postgres. It satisfies
// settlement.Store; client secret tokens are intentionally not persisted,
// so loaded intents carry an empty token.
type PaymentStore struct {
	repo *Repository
}

// NewPaymentStore creates a database-backed settlement store.
func NewPaymentStore(repo *Repository) *PaymentStore {
	return &PaymentStore{repo: repo}
}

// Put implements settlement.Store.
func (s *PaymentStore) Put(ctx context.Context, intent *settlement.PaymentIntent) error {
	return s.repo.InsertPayment(ctx, toPayment(intent))
}

// Get implements settlement.Store.
func (s *PaymentStore) Get(ctx context.Context, intentID string) (*settlement.PaymentIntent, error) {
	payment, err := s.repo.GetPayment(ctx, intentID)
	if err != nil || payment == nil {
		return nil, err
	}
	return toIntent(payment), nil
}

// FindActive implements settlement.Store.
func (s *PaymentStore) FindActive(ctx context.Context, callerID, reference string) (*settlement.PaymentIntent, error) {
	payment, err := s.repo.FindActivePayment(ctx, callerID, reference)
	if err != nil || payment == nil {
		return nil, err
	}
	return toIntent(payment), nil
}

// Update implements settlement.Store.
func (s *PaymentStore) Update(ctx context.Context, intent *settlement.PaymentIntent) error {
	return s.repo.UpdatePayment(ctx, toPayment(intent))
}

// ExpireTerminalBefore implements settlement.Store.
func (s *PaymentStore) ExpireTerminalBefore(ctx context.Context, cutoff time.Time) (int, error) {
	return s.repo.DeleteTerminalPaymentsBefore(ctx, cutoff)
}

func toPayment(intent *settlement.PaymentIntent) *Payment {
	return &Payment{
		IntentID:    intent.IntentID,
		ProviderRef: intent.ProviderRef,
		UserID:      intent.CallerID,
		Reference:   intent.Reference,
		AmountMinor: intent.AmountMinor,
		Currency:    intent.Currency,
		State:       string(intent.State),
		Reason:      intent.Reason,
		Created:     intent.CreatedAt,
		Modified:    intent.UpdatedAt,
	}
}

func toIntent(payment *Payment) *settlement.PaymentIntent {
	return &settlement.PaymentIntent{
		IntentID:    payment.IntentID,
		ProviderRef: payment.ProviderRef,
		CallerID:    payment.UserID,
		Reference:   payment.Reference,
		AmountMinor: payment.AmountMinor,
		Currency:    payment.Currency,
		State:       settlement.State(payment.State),
		Reason:      payment.Reason,
		CreatedAt:   payment.Created,
		UpdatedAt:   payment.Modified,
	}
}
