package acceptance_tests

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"planmymeals/internal/database"
	"planmymeals/internal/identity"
	"planmymeals/internal/mealplan"
	"planmymeals/internal/planstore"
	"planmymeals/internal/recipe"
	"planmymeals/internal/session"
)

func intPtr(v int) *int { return &v }

// --- Acceptance Test ---
func TestWeekPlanningWorkflow(t *testing.T) {
	ctx := context.Background()

	// 1. Real SQLite database and session store in a temp dir
	db, err := database.NewDB(filepath.Join(t.TempDir(), "planner.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	sessionStore, err := session.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create session store: %v", err)
	}

	// 2. Wire the full stack
	recipeRepo := recipe.NewRepository(db.SQL)
	itemStore := planstore.New(db.SQL, identity.NewStatic("user-1"))
	weekCache := mealplan.NewWeekItemsCache(sessionStore)
	planner := mealplan.NewPlanner(itemStore, weekCache)
	defer planner.Close()

	// --- Step 1: Save recipes ---
	t.Log("--- Step 1: Saving Recipes ---")
	err = recipeRepo.Save(ctx, recipe.Recipe{
		ID:       "chili",
		Title:    "Chili con Carne",
		Servings: intPtr(4),
		Ingredients: []recipe.Ingredient{
			{Quantity: "500", Name: "g minced beef"},
			{Quantity: "1/2", Name: "tsp cayenne"},
		},
	})
	if err != nil {
		t.Fatalf("Failed to save recipe: %v", err)
	}
	if err := recipeRepo.Save(ctx, recipe.Recipe{ID: "soup", Title: "Lentil Soup", Servings: intPtr(2)}); err != nil {
		t.Fatalf("Failed to save recipe: %v", err)
	}

	results, err := recipeRepo.Search(ctx, "chili", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != "chili" {
		t.Fatalf("Expected the chili recipe, got %v", results)
	}

	// --- Step 2: Plan a week ---
	t.Log("--- Step 2: Assigning Recipes to the Week ---")
	const week = "2024-02-19"
	if err := planner.LoadWeek(ctx, week); err != nil {
		t.Fatalf("LoadWeek failed: %v", err)
	}
	if err := planner.Assign(ctx, "chili", "2024-02-20", mealplan.Dinner, nil); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if err := planner.Assign(ctx, "soup", "2024-02-20", mealplan.Lunch, intPtr(3)); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}

	items := planner.Items()
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	dinner := planner.SlotItems("2024-02-20", mealplan.Dinner)
	if len(dinner) != 1 || dinner[0].RecipeTitle != "Chili con Carne" {
		t.Fatalf("Expected chili at Tuesday dinner, got %v", dinner)
	}
	if servings := dinner[0].EffectiveServings(); servings == nil || *servings != 4 {
		t.Errorf("Expected effective servings 4 from the recipe default, got %v", servings)
	}

	// --- Step 3: Rearrange and rescale ---
	t.Log("--- Step 3: Moving and Rescaling ---")
	if err := planner.Move(ctx, dinner[0].ID, "2024-02-23", mealplan.Dinner); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if got := planner.SlotItems("2024-02-20", mealplan.Dinner); len(got) != 0 {
		t.Errorf("Expected Tuesday dinner to be empty after the move, got %v", got)
	}

	if err := planner.IncrementServings(ctx, dinner[0].ID); err != nil {
		t.Fatalf("IncrementServings failed: %v", err)
	}
	moved := planner.SlotItems("2024-02-23", mealplan.Dinner)
	if len(moved) != 1 {
		t.Fatalf("Expected the item at Friday dinner, got %v", moved)
	}
	if servings := moved[0].EffectiveServings(); servings == nil || *servings != 5 {
		t.Errorf("Expected effective servings 5 after increment, got %v", servings)
	}

	// Ingredient quantities scale with the new serving count
	scaled := mealplan.ScaleQuantity("1/2", intPtr(4), intPtr(5))
	if scaled != "5/8" {
		t.Errorf("ScaleQuantity(1/2, 4, 5) = %q, want 5/8", scaled)
	}

	// --- Step 4: Cached redisplay ---
	t.Log("--- Step 4: Reopening the Week from Cache ---")
	reopened := mealplan.NewPlanner(itemStore, weekCache)
	defer reopened.Close()
	if !reopened.PrimeFromCache(week) {
		t.Fatal("Expected a cache hit for the planned week")
	}
	if len(reopened.Items()) != 2 {
		t.Errorf("Expected 2 items from cache, got %d", len(reopened.Items()))
	}

	// The store remains authoritative after the cached paint
	if err := reopened.LoadWeek(ctx, week); err != nil {
		t.Fatalf("LoadWeek failed: %v", err)
	}
	if len(reopened.Items()) != 2 {
		t.Errorf("Expected 2 items from the store, got %d", len(reopened.Items()))
	}

	// --- Step 5: Remove and expire ---
	t.Log("--- Step 5: Removing an Item ---")
	if err := reopened.Remove(ctx, dinner[0].ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if len(reopened.Items()) != 1 {
		t.Errorf("Expected 1 item after removal, got %d", len(reopened.Items()))
	}

	// An aged cache reads as cold
	weekCache.SetClock(func() time.Time { return time.Now().Add(46 * time.Minute) })
	cold := mealplan.NewPlanner(itemStore, weekCache)
	defer cold.Close()
	if cold.PrimeFromCache(week) {
		t.Error("Expected the expired snapshot to be a cache miss")
	}
}
