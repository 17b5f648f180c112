// Package events defines event types and publisher interfaces for
// settlement state changes.
package events

// IntentChangedEvent is emitted whenever a payment intent changes state.
// It deliberately carries no client secret token.
type IntentChangedEvent struct {
	IntentID    string `json:"intentId"`
	CallerID    string `json:"callerId"`
	Reference   string `json:"reference"`
	AmountMinor int64  `json:"amountMinor"`
	Currency    string `json:"currency"`
	State       string `json:"state"`
	Reason      string `json:"reason,omitempty"`
	Timestamp   string `json:"timestamp"`
}
