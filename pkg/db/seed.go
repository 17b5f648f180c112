// Package db provides showcase seeding for the portfolio surface.
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GYFX35/AI-services/pkg/auth"
)

const seedLogPrefix = "db:seed"

// showcaseProjects are the portfolio entries seeded into a fresh database.
var showcaseProjects = []Project{
	{Title: "Project One", Description: "A web application that uses AI to generate recipes based on available ingredients.", ImageURL: "https://via.placeholder.com/300x200"},
	{Title: "Project Two", Description: "A mobile game that uses AI to create dynamic and challenging levels.", ImageURL: "https://via.placeholder.com/300x200"},
	{Title: "Project Three", Description: "An e-commerce website that uses AI to provide personalized product recommendations.", ImageURL: "https://via.placeholder.com/300x200"},
}

// SeedShowcase populates an empty database with the showcase projects and a
// demo user. Idempotent: existing projects and users are left untouched.
func SeedShowcase(ctx context.Context, repo *Repository) error {
	count, err := repo.CountProjects(ctx)
	if err != nil {
		return fmt.Errorf("%s - count projects: %w", seedLogPrefix, err)
	}
	if count == 0 {
		for _, p := range showcaseProjects {
			if _, err := repo.InsertProject(ctx, p.Title, p.Description, p.ImageURL); err != nil {
				return fmt.Errorf("%s - insert project %q: %w", seedLogPrefix, p.Title, err)
			}
		}
		slog.Info(fmt.Sprintf("%s - seeded %d showcase projects", seedLogPrefix, len(showcaseProjects)))
	}

	demo, err := repo.GetUserByUsername(ctx, "demo")
	if err != nil {
		return fmt.Errorf("%s - lookup demo user: %w", seedLogPrefix, err)
	}
	if demo == nil {
		key, err := auth.NewAPIKey()
		if err != nil {
			return fmt.Errorf("%s - generate API key: %w", seedLogPrefix, err)
		}
		user, err := repo.CreateUser(ctx, "demo", key)
		if err != nil {
			return fmt.Errorf("%s - create demo user: %w", seedLogPrefix, err)
		}
		// Printed once so operators can use the demo account; never logged.
		fmt.Printf("Seeded demo user %s with API key %s\n", user.Username, user.APIKey)
	}
	return nil
}
