// Package shopping derives a shopping list from a planned week. Ingredient
// quantities are rescaled to each item's planned serving count before they are
// collected.
package shopping

import (
	"context"
	"fmt"

	"planmymeals/internal/mealplan"
	"planmymeals/internal/recipe"
)

// Line is one shopping list entry, tagged with the recipe it came from.
type Line struct {
	Quantity    string `json:"quantity"`
	Name        string `json:"name"`
	RecipeTitle string `json:"recipeTitle"`
}

// List is the shopping list for one week.
type List struct {
	WeekStartISO string `json:"weekStartIso"`
	Lines        []Line `json:"lines"`
}

// Builder assembles shopping lists from planned items and their recipes.
type Builder struct {
	recipes *recipe.Repository
}

// NewBuilder creates a Builder over the recipe repository.
func NewBuilder(recipes *recipe.Repository) *Builder {
	return &Builder{recipes: recipes}
}

// BuildForWeek collects the ingredients of every planned item, scaled to the
// item's effective serving count. Items whose recipe has been deleted are
// skipped; their ingredients are unknown.
func (b *Builder) BuildForWeek(ctx context.Context, weekStartISO string, items []mealplan.Item) (*List, error) {
	list := &List{WeekStartISO: weekStartISO}

	for _, item := range items {
		if item.RecipeID == nil {
			continue
		}
		rec, err := b.recipes.Get(ctx, *item.RecipeID)
		if err != nil {
			return nil, fmt.Errorf("failed to load recipe for shopping list: %w", err)
		}
		if rec == nil {
			continue
		}

		target := item.EffectiveServings()
		for _, ing := range rec.Ingredients {
			list.Lines = append(list.Lines, Line{
				Quantity:    mealplan.ScaleQuantity(ing.Quantity, rec.Servings, target),
				Name:        ing.Name,
				RecipeTitle: rec.Title,
			})
		}
	}
	return list, nil
}
