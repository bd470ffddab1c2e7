package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"planmymeals/internal/mealplan"
)

// Search limits: callers may ask for up to maxSearchLimit results; anything
// else is clamped.
const (
	defaultSearchLimit = 12
	maxSearchLimit     = 24
)

// Repository is a database-backed repository for recipes.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save inserts or replaces a recipe.
func (r *Repository) Save(ctx context.Context, rec Recipe) error {
	ingredients, err := json.Marshal(rec.Ingredients)
	if err != nil {
		return fmt.Errorf("failed to marshal ingredients: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO recipes (id, title, description, ingredients, prep_minutes, cook_minutes, servings, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			ingredients = excluded.ingredients,
			prep_minutes = excluded.prep_minutes,
			cook_minutes = excluded.cook_minutes,
			servings = excluded.servings`,
		rec.ID, rec.Title, rec.Description, string(ingredients),
		rec.PrepMinutes, rec.CookMinutes, rec.Servings, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save recipe: %w", err)
	}
	return nil
}

// Get retrieves a recipe by its ID. A missing recipe returns (nil, nil).
func (r *Repository) Get(ctx context.Context, id string) (*Recipe, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, description, ingredients, prep_minutes, cook_minutes, servings
		FROM recipes WHERE id = ?`, id)

	var rec Recipe
	var ingredients string
	err := row.Scan(&rec.ID, &rec.Title, &rec.Description, &ingredients,
		&rec.PrepMinutes, &rec.CookMinutes, &rec.Servings)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe by ID: %w", err)
	}

	if err := json.Unmarshal([]byte(ingredients), &rec.Ingredients); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ingredients for %s: %w", id, err)
	}
	return &rec, nil
}

// Search finds recipes by case-insensitive title match, newest first. A blank
// term returns the newest recipes. The limit is clamped to 1..24, defaulting
// to 12 when non-positive.
func (r *Repository) Search(ctx context.Context, term string, limit int) ([]mealplan.RecipeSummary, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, description, prep_minutes, cook_minutes, servings
		FROM recipes
		WHERE title LIKE '%' || ? || '%'
		ORDER BY created_at DESC
		LIMIT ?`, term, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search recipes: %w", err)
	}
	defer rows.Close()

	var results []mealplan.RecipeSummary
	for rows.Next() {
		var summary mealplan.RecipeSummary
		if err := rows.Scan(&summary.ID, &summary.Title, &summary.Description,
			&summary.PrepMinutes, &summary.CookMinutes, &summary.Servings); err != nil {
			return nil, fmt.Errorf("failed to scan recipe row: %w", err)
		}
		results = append(results, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read recipe rows: %w", err)
	}
	return results, nil
}

// Delete removes a recipe. Scheduled items referencing it are orphaned: their
// recipe link is cleared while the item itself survives with its denormalized
// title.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE meal_plan_items SET recipe_id = NULL WHERE recipe_id = ?`, id); err != nil {
		return fmt.Errorf("failed to orphan scheduled items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	return tx.Commit()
}

// Count returns the number of recipes in the database.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return count, nil
}
