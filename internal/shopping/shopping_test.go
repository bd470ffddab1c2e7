package shopping

import (
	"context"
	"path/filepath"
	"testing"

	"planmymeals/internal/database"
	"planmymeals/internal/mealplan"
	"planmymeals/internal/recipe"
)

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }

func TestBuildForWeek(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	defer db.Close()

	repo := recipe.NewRepository(db.SQL)
	err = repo.Save(ctx, recipe.Recipe{
		ID:       "chili",
		Title:    "Chili",
		Servings: intPtr(4),
		Ingredients: []recipe.Ingredient{
			{Quantity: "1/2", Name: "tsp cayenne"},
			{Quantity: "500", Name: "g minced beef"},
		},
	})
	if err != nil {
		t.Fatalf("Failed to seed recipe: %v", err)
	}

	items := []mealplan.Item{
		{ID: "i1", RecipeID: strPtr("chili"), RecipeTitle: "Chili", PlannedFor: "2024-02-20",
			MealType: mealplan.Dinner, ServingsOverride: intPtr(8), RecipeServings: intPtr(4)},
		{ID: "i2", RecipeTitle: "Gone", PlannedFor: "2024-02-21", MealType: mealplan.Lunch},
	}

	list, err := NewBuilder(repo).BuildForWeek(ctx, "2024-02-19", items)
	if err != nil {
		t.Fatalf("BuildForWeek failed: %v", err)
	}

	if list.WeekStartISO != "2024-02-19" {
		t.Errorf("WeekStartISO = %q", list.WeekStartISO)
	}
	// Only the item with a live recipe contributes lines
	if len(list.Lines) != 2 {
		t.Fatalf("got %d lines, want 2: %v", len(list.Lines), list.Lines)
	}
	// Doubled servings double the quantities
	if list.Lines[0].Quantity != "1" || list.Lines[0].Name != "tsp cayenne" {
		t.Errorf("line 0 = %+v, want quantity 1 of tsp cayenne", list.Lines[0])
	}
	if list.Lines[1].Quantity != "1000" || list.Lines[1].RecipeTitle != "Chili" {
		t.Errorf("line 1 = %+v, want quantity 1000 tagged Chili", list.Lines[1])
	}
}

func TestBuildForWeekUnknownRecipe(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	defer db.Close()

	items := []mealplan.Item{
		{ID: "i1", RecipeID: strPtr("missing"), RecipeTitle: "Missing", PlannedFor: "2024-02-20", MealType: mealplan.Dinner},
	}
	list, err := NewBuilder(recipe.NewRepository(db.SQL)).BuildForWeek(ctx, "2024-02-19", items)
	if err != nil {
		t.Fatalf("BuildForWeek failed: %v", err)
	}
	if len(list.Lines) != 0 {
		t.Errorf("expected no lines for a vanished recipe, got %v", list.Lines)
	}
}
