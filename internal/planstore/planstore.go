// Package planstore persists meal plans and their scheduled items in SQLite.
// It is the authoritative store the week planner reconciles against.
package planstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"planmymeals/internal/dates"
	"planmymeals/internal/identity"
	"planmymeals/internal/mealplan"
)

// Store implements mealplan.ItemStore over a SQLite database. Each user has at
// most one plan row per week; the row is created lazily on the first
// assignment into that week.
type Store struct {
	db       *sql.DB
	identity identity.Provider
}

// New creates a Store over an open database connection.
func New(db *sql.DB, provider identity.Provider) *Store {
	return &Store{db: db, identity: provider}
}

// ListForWeek returns the current user's scheduled items for the week, ordered
// by date and then by creation time. A week with no plan yet is simply empty.
func (s *Store) ListForWeek(ctx context.Context, weekStartISO string) ([]mealplan.Item, error) {
	if !dates.IsISODate(weekStartISO) {
		return nil, fmt.Errorf("invalid week start %q", weekStartISO)
	}
	userID, err := s.identity.CurrentUserID()
	if err != nil {
		return nil, err
	}

	start, err := dates.ParseISO(weekStartISO)
	if err != nil {
		return nil, err
	}
	weekEndISO := dates.ToISO(dates.WeekEnd(start))

	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.recipe_id, i.recipe_title, i.planned_for, i.meal_type, i.servings_override, r.servings
		FROM meal_plan_items i
		JOIN meal_plans p ON p.id = i.meal_plan_id
		LEFT JOIN recipes r ON r.id = i.recipe_id
		WHERE p.user_id = ? AND p.start_date = ?
		  AND i.planned_for BETWEEN ? AND ?
		ORDER BY i.planned_for, i.created_at`,
		userID, weekStartISO, weekStartISO, weekEndISO)
	if err != nil {
		return nil, fmt.Errorf("failed to list meal plan items: %w", err)
	}
	defer rows.Close()

	var items []mealplan.Item
	for rows.Next() {
		var item mealplan.Item
		var meal string
		if err := rows.Scan(&item.ID, &item.RecipeID, &item.RecipeTitle,
			&item.PlannedFor, &meal, &item.ServingsOverride, &item.RecipeServings); err != nil {
			return nil, fmt.Errorf("failed to scan meal plan item: %w", err)
		}
		item.MealType = mealplan.MealType(meal)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read meal plan items: %w", err)
	}
	return items, nil
}

// Create schedules a recipe into a slot of the week, creating the week's plan
// row on first use. The returned item carries the denormalized recipe title
// and the recipe's default servings.
func (s *Store) Create(ctx context.Context, input mealplan.AssignInput) (mealplan.Item, error) {
	if !dates.IsISODate(input.WeekStartISO) || !dates.IsISODate(input.PlannedFor) {
		return mealplan.Item{}, fmt.Errorf("invalid date in assignment")
	}
	if !mealplan.ValidMealType(string(input.MealType)) {
		return mealplan.Item{}, fmt.Errorf("invalid meal type %q", input.MealType)
	}
	userID, err := s.identity.CurrentUserID()
	if err != nil {
		return mealplan.Item{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mealplan.Item{}, fmt.Errorf("failed to begin assignment: %w", err)
	}
	defer tx.Rollback()

	planID, err := s.ensurePlanLocked(ctx, tx, userID, input.WeekStartISO)
	if err != nil {
		return mealplan.Item{}, err
	}

	var recipeTitle string
	var recipeServings *int
	err = tx.QueryRowContext(ctx,
		`SELECT title, servings FROM recipes WHERE id = ?`, input.RecipeID).
		Scan(&recipeTitle, &recipeServings)
	if err == sql.ErrNoRows {
		return mealplan.Item{}, fmt.Errorf("recipe %s not found", input.RecipeID)
	}
	if err != nil {
		return mealplan.Item{}, fmt.Errorf("failed to look up recipe: %w", err)
	}

	override := normalizeOverride(input.ServingsOverride, recipeServings)

	item := mealplan.Item{
		ID:               uuid.NewString(),
		RecipeID:         &input.RecipeID,
		RecipeTitle:      recipeTitle,
		PlannedFor:       input.PlannedFor,
		MealType:         input.MealType,
		ServingsOverride: override,
		RecipeServings:   recipeServings,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO meal_plan_items (id, meal_plan_id, recipe_id, recipe_title, planned_for, meal_type, servings_override, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, planID, input.RecipeID, recipeTitle, input.PlannedFor,
		string(input.MealType), override, time.Now().UTC())
	if err != nil {
		return mealplan.Item{}, fmt.Errorf("failed to create meal plan item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return mealplan.Item{}, fmt.Errorf("failed to commit assignment: %w", err)
	}
	return item, nil
}

// Move reschedules an item to another (date, meal type) slot and returns the
// updated item.
func (s *Store) Move(ctx context.Context, itemID, plannedFor string, mealType mealplan.MealType) (mealplan.Item, error) {
	if !dates.IsISODate(plannedFor) {
		return mealplan.Item{}, fmt.Errorf("invalid date %q", plannedFor)
	}
	if !mealplan.ValidMealType(string(mealType)) {
		return mealplan.Item{}, fmt.Errorf("invalid meal type %q", mealType)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE meal_plan_items SET planned_for = ?, meal_type = ? WHERE id = ?`,
		plannedFor, string(mealType), itemID)
	if err != nil {
		return mealplan.Item{}, fmt.Errorf("failed to move meal plan item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return mealplan.Item{}, fmt.Errorf("meal plan item %s not found", itemID)
	}
	return s.getItem(ctx, itemID)
}

// UpdateServings sets or clears an item's servings override. An override equal
// to the recipe's own default is stored as no override at all.
func (s *Store) UpdateServings(ctx context.Context, itemID string, override *int) (mealplan.Item, error) {
	if override != nil && *override < 1 {
		return mealplan.Item{}, fmt.Errorf("servings must be at least 1")
	}

	current, err := s.getItem(ctx, itemID)
	if err != nil {
		return mealplan.Item{}, err
	}
	normalized := normalizeOverride(override, current.RecipeServings)

	if _, err := s.db.ExecContext(ctx,
		`UPDATE meal_plan_items SET servings_override = ? WHERE id = ?`,
		normalized, itemID); err != nil {
		return mealplan.Item{}, fmt.Errorf("failed to update servings: %w", err)
	}
	current.ServingsOverride = normalized
	return current, nil
}

// Delete removes a scheduled item.
func (s *Store) Delete(ctx context.Context, itemID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM meal_plan_items WHERE id = ?`, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete meal plan item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("meal plan item %s not found", itemID)
	}
	return nil
}

// ensurePlanLocked resolves the user's plan row for the week, creating it with
// a default title when absent. Runs inside the caller's transaction.
func (s *Store) ensurePlanLocked(ctx context.Context, tx *sql.Tx, userID, weekStartISO string) (string, error) {
	var planID string
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM meal_plans WHERE user_id = ? AND start_date = ?`,
		userID, weekStartISO).Scan(&planID)
	if err == nil {
		return planID, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("failed to look up meal plan: %w", err)
	}

	planID = uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO meal_plans (id, user_id, title, start_date, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		planID, userID, "Week of "+weekStartISO, weekStartISO, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to create meal plan: %w", err)
	}
	return planID, nil
}

func (s *Store) getItem(ctx context.Context, itemID string) (mealplan.Item, error) {
	var item mealplan.Item
	var meal string
	err := s.db.QueryRowContext(ctx, `
		SELECT i.id, i.recipe_id, i.recipe_title, i.planned_for, i.meal_type, i.servings_override, r.servings
		FROM meal_plan_items i
		LEFT JOIN recipes r ON r.id = i.recipe_id
		WHERE i.id = ?`, itemID).
		Scan(&item.ID, &item.RecipeID, &item.RecipeTitle, &item.PlannedFor,
			&meal, &item.ServingsOverride, &item.RecipeServings)
	if err == sql.ErrNoRows {
		return mealplan.Item{}, fmt.Errorf("meal plan item %s not found", itemID)
	}
	if err != nil {
		return mealplan.Item{}, fmt.Errorf("failed to get meal plan item: %w", err)
	}
	item.MealType = mealplan.MealType(meal)
	return item, nil
}

func normalizeOverride(override, recipeServings *int) *int {
	if override == nil {
		return nil
	}
	return mealplan.NormalizeOverride(*override, recipeServings)
}
