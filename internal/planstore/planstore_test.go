package planstore

import (
	"context"
	"path/filepath"
	"testing"

	"planmymeals/internal/database"
	"planmymeals/internal/identity"
	"planmymeals/internal/mealplan"
	"planmymeals/internal/recipe"
)

func intPtr(v int) *int { return &v }

func newTestStore(t *testing.T) (*Store, *recipe.Repository) {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db.SQL, identity.NewStatic("user-1")), recipe.NewRepository(db.SQL)
}

func seedRecipe(t *testing.T, repo *recipe.Repository, id, title string, servings *int) {
	t.Helper()
	err := repo.Save(context.Background(), recipe.Recipe{
		ID:       id,
		Title:    title,
		Servings: servings,
		Ingredients: []recipe.Ingredient{
			{Quantity: "1", Name: "onion"},
		},
	})
	if err != nil {
		t.Fatalf("Failed to seed recipe: %v", err)
	}
}

func TestListForWeekEmpty(t *testing.T) {
	store, _ := newTestStore(t)

	items, err := store.ListForWeek(context.Background(), "2024-02-19")
	if err != nil {
		t.Fatalf("ListForWeek failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items for a fresh week, got %d", len(items))
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	store, recipes := newTestStore(t)
	seedRecipe(t, recipes, "r1", "Chili con Carne", intPtr(4))

	item, err := store.Create(ctx, mealplan.AssignInput{
		WeekStartISO: "2024-02-19",
		PlannedFor:   "2024-02-20",
		MealType:     mealplan.Dinner,
		RecipeID:     "r1",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if item.ID == "" {
		t.Error("expected generated item id")
	}
	if item.RecipeTitle != "Chili con Carne" {
		t.Errorf("RecipeTitle = %q, want denormalized recipe title", item.RecipeTitle)
	}
	if item.RecipeServings == nil || *item.RecipeServings != 4 {
		t.Errorf("RecipeServings = %v, want 4", item.RecipeServings)
	}
	if item.ServingsOverride != nil {
		t.Errorf("ServingsOverride = %v, want nil", *item.ServingsOverride)
	}

	items, err := store.ListForWeek(ctx, "2024-02-19")
	if err != nil {
		t.Fatalf("ListForWeek failed: %v", err)
	}
	if len(items) != 1 || items[0].ID != item.ID {
		t.Fatalf("expected the created item to be listed, got %v", items)
	}
}

func TestCreateNormalizesOverride(t *testing.T) {
	ctx := context.Background()
	store, recipes := newTestStore(t)
	seedRecipe(t, recipes, "r1", "Chili", intPtr(4))

	t.Run("OverrideEqualToDefaultDropped", func(t *testing.T) {
		item, err := store.Create(ctx, mealplan.AssignInput{
			WeekStartISO:     "2024-02-19",
			PlannedFor:       "2024-02-19",
			MealType:         mealplan.Lunch,
			RecipeID:         "r1",
			ServingsOverride: intPtr(4),
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if item.ServingsOverride != nil {
			t.Errorf("override equal to default should be stored as nil, got %d", *item.ServingsOverride)
		}
	})

	t.Run("DifferentOverrideKept", func(t *testing.T) {
		item, err := store.Create(ctx, mealplan.AssignInput{
			WeekStartISO:     "2024-02-19",
			PlannedFor:       "2024-02-19",
			MealType:         mealplan.Dinner,
			RecipeID:         "r1",
			ServingsOverride: intPtr(6),
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if item.ServingsOverride == nil || *item.ServingsOverride != 6 {
			t.Errorf("ServingsOverride = %v, want 6", item.ServingsOverride)
		}
	})
}

func TestCreateUnknownRecipe(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Create(context.Background(), mealplan.AssignInput{
		WeekStartISO: "2024-02-19",
		PlannedFor:   "2024-02-20",
		MealType:     mealplan.Dinner,
		RecipeID:     "missing",
	})
	if err == nil {
		t.Fatal("expected error for unknown recipe")
	}
}

func TestCreateReusesWeekContainer(t *testing.T) {
	ctx := context.Background()
	store, recipes := newTestStore(t)
	seedRecipe(t, recipes, "r1", "Soup", intPtr(2))

	for _, day := range []string{"2024-02-19", "2024-02-21"} {
		if _, err := store.Create(ctx, mealplan.AssignInput{
			WeekStartISO: "2024-02-19",
			PlannedFor:   day,
			MealType:     mealplan.Dinner,
			RecipeID:     "r1",
		}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	var count int
	var title string
	err := store.db.QueryRow(
		`SELECT COUNT(*), MIN(title) FROM meal_plans WHERE user_id = ?`, "user-1").
		Scan(&count, &title)
	if err != nil {
		t.Fatalf("Failed to count plans: %v", err)
	}
	if count != 1 {
		t.Errorf("expected one plan row per week, got %d", count)
	}
	if title != "Week of 2024-02-19" {
		t.Errorf("plan title = %q, want Week of 2024-02-19", title)
	}
}

func TestMove(t *testing.T) {
	ctx := context.Background()
	store, recipes := newTestStore(t)
	seedRecipe(t, recipes, "r1", "Soup", intPtr(2))

	created, err := store.Create(ctx, mealplan.AssignInput{
		WeekStartISO: "2024-02-19",
		PlannedFor:   "2024-02-19",
		MealType:     mealplan.Lunch,
		RecipeID:     "r1",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	moved, err := store.Move(ctx, created.ID, "2024-02-22", mealplan.Dinner)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if moved.PlannedFor != "2024-02-22" || moved.MealType != mealplan.Dinner {
		t.Errorf("moved to (%s, %s), want (2024-02-22, dinner)", moved.PlannedFor, moved.MealType)
	}
	if moved.RecipeTitle != "Soup" {
		t.Errorf("RecipeTitle = %q, want Soup", moved.RecipeTitle)
	}

	if _, err := store.Move(ctx, "missing", "2024-02-22", mealplan.Dinner); err == nil {
		t.Error("expected error moving unknown item")
	}
}

func TestUpdateServings(t *testing.T) {
	ctx := context.Background()
	store, recipes := newTestStore(t)
	seedRecipe(t, recipes, "r1", "Soup", intPtr(2))

	created, err := store.Create(ctx, mealplan.AssignInput{
		WeekStartISO: "2024-02-19",
		PlannedFor:   "2024-02-19",
		MealType:     mealplan.Dinner,
		RecipeID:     "r1",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	t.Run("SetOverride", func(t *testing.T) {
		item, err := store.UpdateServings(ctx, created.ID, intPtr(5))
		if err != nil {
			t.Fatalf("UpdateServings failed: %v", err)
		}
		if item.ServingsOverride == nil || *item.ServingsOverride != 5 {
			t.Errorf("ServingsOverride = %v, want 5", item.ServingsOverride)
		}
	})

	t.Run("OverrideEqualToDefaultCollapses", func(t *testing.T) {
		item, err := store.UpdateServings(ctx, created.ID, intPtr(2))
		if err != nil {
			t.Fatalf("UpdateServings failed: %v", err)
		}
		if item.ServingsOverride != nil {
			t.Errorf("override equal to default should collapse to nil, got %d", *item.ServingsOverride)
		}
	})

	t.Run("NilClearsOverride", func(t *testing.T) {
		if _, err := store.UpdateServings(ctx, created.ID, intPtr(7)); err != nil {
			t.Fatalf("UpdateServings failed: %v", err)
		}
		item, err := store.UpdateServings(ctx, created.ID, nil)
		if err != nil {
			t.Fatalf("UpdateServings failed: %v", err)
		}
		if item.ServingsOverride != nil {
			t.Errorf("expected cleared override, got %d", *item.ServingsOverride)
		}
	})

	t.Run("RejectsZero", func(t *testing.T) {
		if _, err := store.UpdateServings(ctx, created.ID, intPtr(0)); err == nil {
			t.Error("expected error for servings below 1")
		}
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store, recipes := newTestStore(t)
	seedRecipe(t, recipes, "r1", "Soup", intPtr(2))

	created, err := store.Create(ctx, mealplan.AssignInput{
		WeekStartISO: "2024-02-19",
		PlannedFor:   "2024-02-19",
		MealType:     mealplan.Dinner,
		RecipeID:     "r1",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	items, err := store.ListForWeek(ctx, "2024-02-19")
	if err != nil {
		t.Fatalf("ListForWeek failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty week after delete, got %d items", len(items))
	}

	if err := store.Delete(ctx, created.ID); err == nil {
		t.Error("expected error deleting an already deleted item")
	}
}

func TestDeletedRecipeOrphansItem(t *testing.T) {
	ctx := context.Background()
	store, recipes := newTestStore(t)
	seedRecipe(t, recipes, "r1", "Soup", intPtr(2))

	created, err := store.Create(ctx, mealplan.AssignInput{
		WeekStartISO: "2024-02-19",
		PlannedFor:   "2024-02-19",
		MealType:     mealplan.Dinner,
		RecipeID:     "r1",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := recipes.Delete(ctx, "r1"); err != nil {
		t.Fatalf("Failed to delete recipe: %v", err)
	}

	items, err := store.ListForWeek(ctx, "2024-02-19")
	if err != nil {
		t.Fatalf("ListForWeek failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected the orphaned item to survive, got %d items", len(items))
	}
	got := items[0]
	if got.RecipeID != nil {
		t.Errorf("RecipeID = %v, want nil after recipe deletion", *got.RecipeID)
	}
	if got.RecipeTitle != "Soup" {
		t.Errorf("RecipeTitle = %q, want the denormalized title to survive", got.RecipeTitle)
	}
	if got.RecipeServings != nil {
		t.Errorf("RecipeServings = %v, want nil after recipe deletion", *got.RecipeServings)
	}
	if created.ID != got.ID {
		t.Errorf("item id changed across recipe deletion")
	}
}
