package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoLogPrefix = "db:repository"

// Repository provides database access for gateway operations.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// =========================================================================
// USER OPERATIONS
// =========================================================================

// GetUserByAPIKey resolves an API key to its user, or nil when unknown.
func (r *Repository) GetUserByAPIKey(ctx context.Context, apiKey string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, username, api_key, created
		 FROM users
		 WHERE api_key = $1
		 LIMIT 1`, apiKey)
	return scanUser(row)
}

// GetUserByUsername finds a user by username, or nil when unknown.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, username, api_key, created
		 FROM users
		 WHERE username = $1
		 LIMIT 1`, username)
	return scanUser(row)
}

// CreateUser registers a new user with the given API key.
func (r *Repository) CreateUser(ctx context.Context, username, apiKey string) (*User, error) {
	slog.Info(fmt.Sprintf("%s - CreateUser username=%s", repoLogPrefix, username))

	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, api_key)
		 VALUES ($1, $2)
		 RETURNING id, username, api_key, created`, username, apiKey)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.APIKey, &u.Created)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s - scan user: %w", repoLogPrefix, err)
	}
	return &u, nil
}

// =========================================================================
// PROJECT OPERATIONS
// =========================================================================

// ListProjects returns all portfolio projects in insertion order.
func (r *Repository) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, image_url
		 FROM projects
		 ORDER BY created`)
	if err != nil {
		return nil, fmt.Errorf("%s - list projects: %w", repoLogPrefix, err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.ImageURL); err != nil {
			return nil, fmt.Errorf("%s - scan project: %w", repoLogPrefix, err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// InsertProject adds a portfolio project.
func (r *Repository) InsertProject(ctx context.Context, title, description, imageURL string) (*Project, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO projects (title, description, image_url)
		 VALUES ($1, $2, $3)
		 RETURNING id, title, description, image_url`, title, description, imageURL)

	var p Project
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.ImageURL); err != nil {
		return nil, fmt.Errorf("%s - insert project: %w", repoLogPrefix, err)
	}
	return &p, nil
}

// CountProjects returns the number of portfolio projects.
func (r *Repository) CountProjects(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s - count projects: %w", repoLogPrefix, err)
	}
	return count, nil
}

// =========================================================================
// PAYMENT OPERATIONS
// =========================================================================

// InsertPayment records a freshly minted payment intent.
func (r *Repository) InsertPayment(ctx context.Context, p *Payment) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO payments (intent_id, provider_ref, user_id, reference, amount_minor, currency, state, reason, created, modified)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.IntentID, p.ProviderRef, p.UserID, p.Reference, p.AmountMinor, p.Currency, p.State, p.Reason, p.Created, p.Modified)
	if err != nil {
		return fmt.Errorf("%s - insert payment: %w", repoLogPrefix, err)
	}
	return nil
}

// UpdatePayment overwrites the mutable fields of a payment record.
func (r *Repository) UpdatePayment(ctx context.Context, p *Payment) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE payments
		 SET state = $2, reason = $3, modified = $4
		 WHERE intent_id = $1`,
		p.IntentID, p.State, p.Reason, p.Modified)
	if err != nil {
		return fmt.Errorf("%s - update payment: %w", repoLogPrefix, err)
	}
	return nil
}

// GetPayment finds a payment by intent id, or nil when unknown.
func (r *Repository) GetPayment(ctx context.Context, intentID string) (*Payment, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT intent_id, provider_ref, user_id, reference, amount_minor, currency, state, reason, created, modified
		 FROM payments
		 WHERE intent_id = $1
		 LIMIT 1`, intentID)
	return scanPayment(row)
}

// FindActivePayment returns the non-terminal payment for a (user, reference)
// pair, or nil when none is outstanding.
func (r *Repository) FindActivePayment(ctx context.Context, userID, reference string) (*Payment, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT intent_id, provider_ref, user_id, reference, amount_minor, currency, state, reason, created, modified
		 FROM payments
		 WHERE user_id = $1 AND reference = $2
		   AND state NOT IN ('reconciled', 'failed', 'cancelled')
		 LIMIT 1`, userID, reference)
	return scanPayment(row)
}

// DeleteTerminalPaymentsBefore removes terminal payments last modified before
// the cutoff and returns how many were removed.
func (r *Repository) DeleteTerminalPaymentsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM payments
		 WHERE state IN ('reconciled', 'failed', 'cancelled') AND modified < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%s - delete terminal payments: %w", repoLogPrefix, err)
	}
	return int(tag.RowsAffected()), nil
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.IntentID, &p.ProviderRef, &p.UserID, &p.Reference,
		&p.AmountMinor, &p.Currency, &p.State, &p.Reason, &p.Created, &p.Modified)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s - scan payment: %w", repoLogPrefix, err)
	}
	return &p, nil
}
