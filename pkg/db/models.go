package db

import "time"

// User represents a row in the users table. APIKey is the credential the
// gateway verifies on every request.
type User struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	APIKey   string    `json:"-"`
	Created  time.Time `json:"created"`
}

// Project represents a row in the portfolio projects table.
type Project struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

// Payment represents a row in the payments table. It mirrors the
// coordinator's intent record; client secret tokens are never stored.
type Payment struct {
	IntentID    string    `json:"intent_id"`
	ProviderRef string    `json:"provider_ref"`
	UserID      string    `json:"user_id"`
	Reference   string    `json:"reference"`
	AmountMinor int64     `json:"amount_minor"`
	Currency    string    `json:"currency"`
	State       string    `json:"state"`
	Reason      string    `json:"reason,omitempty"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
}
