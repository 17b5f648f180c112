package settlement

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v79"
	stripeclient "github.com/stripe/stripe-go/v79/client"
)

// metadataIntentKey carries the coordinator's intent id on the provider
// object so asynchronous outcomes can be routed back.
const metadataIntentKey = "payment_id"

// StripeProvider is the Stripe-backed CardProvider.
type StripeProvider struct {
	api *stripeclient.API
}

// NewStripeProvider creates a StripeProvider with the given secret key.
func NewStripeProvider(secretKey string) *StripeProvider {
	api := &stripeclient.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api}
}

// CreateIntent implements CardProvider.
func (p *StripeProvider) CreateIntent(ctx context.Context, amountMinor int64, currency, internalID string) (*CardIntent, error) {
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata(metadataIntentKey, internalID)

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create intent: %w", err)
	}
	return &CardIntent{ProviderRef: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// CancelIntent implements CardProvider.
func (p *StripeProvider) CancelIntent(ctx context.Context, providerRef string) error {
	params := &stripe.PaymentIntentCancelParams{Params: stripe.Params{Context: ctx}}
	if _, err := p.api.PaymentIntents.Cancel(providerRef, params); err != nil {
		return fmt.Errorf("stripe: cancel intent %s: %w", providerRef, err)
	}
	return nil
}

// IntentIDFromMetadata extracts the coordinator's intent id from a provider
// metadata map.
func IntentIDFromMetadata(metadata map[string]string) string {
	return metadata[metadataIntentKey]
}
