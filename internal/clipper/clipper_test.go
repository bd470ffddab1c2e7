package clipper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"planmymeals/internal/database"
	"planmymeals/internal/recipe"
)

const fixtureHTML = `<!DOCTYPE html>
<html>
<head>
	<title>Best Chili | Some Food Blog</title>
	<meta property="og:title" content="Best Chili con Carne">
	<meta name="description" content="A slow-simmered weeknight chili.">
	<script>console.log("tracking")</script>
</head>
<body>
	<nav>Home | Recipes</nav>
	<h1>Best Chili con Carne</h1>
	<div class="recipe-meta">
		<span class="prep-time">Prep: 20 mins</span>
		<span class="cook-time">Cook: 1 hr 30 mins</span>
		<span class="servings">Serves 6</span>
	</div>
	<h2>Ingredients</h2>
	<ul class="ingredients-list">
		<li>500 g minced beef</li>
		<li>1 1/2 cups kidney beans</li>
		<li>1/2 tsp cayenne pepper</li>
		<li>a pinch of salt</li>
	</ul>
	<h2>Method</h2>
	<ol><li>Brown the beef.</li><li>Simmer.</li></ol>
	<footer>All rights reserved</footer>
</body>
</html>`

func parseFixture(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("Failed to parse fixture: %v", err)
	}
	return doc
}

func TestExtract(t *testing.T) {
	rec, err := Extract(parseFixture(t, fixtureHTML))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if rec.Title != "Best Chili con Carne" {
		t.Errorf("Title = %q, want og:title value", rec.Title)
	}
	if rec.Description == nil || *rec.Description != "A slow-simmered weeknight chili." {
		t.Errorf("Description = %v, want meta description", rec.Description)
	}
	if rec.Servings == nil || *rec.Servings != 6 {
		t.Errorf("Servings = %v, want 6", rec.Servings)
	}
	if rec.PrepMinutes == nil || *rec.PrepMinutes != 20 {
		t.Errorf("PrepMinutes = %v, want 20", rec.PrepMinutes)
	}
	if rec.CookMinutes == nil || *rec.CookMinutes != 90 {
		t.Errorf("CookMinutes = %v, want 90", rec.CookMinutes)
	}

	want := []recipe.Ingredient{
		{Quantity: "500", Name: "g minced beef"},
		{Quantity: "1 1/2", Name: "cups kidney beans"},
		{Quantity: "1/2", Name: "tsp cayenne pepper"},
		{Name: "a pinch of salt"},
	}
	if len(rec.Ingredients) != len(want) {
		t.Fatalf("got %d ingredients, want %d: %v", len(rec.Ingredients), len(want), rec.Ingredients)
	}
	for i, w := range want {
		if rec.Ingredients[i] != w {
			t.Errorf("ingredient %d = %+v, want %+v", i, rec.Ingredients[i], w)
		}
	}
}

func TestExtractFallbacks(t *testing.T) {
	t.Run("HeadingFallbackForIngredients", func(t *testing.T) {
		html := `<html><body>
			<h1>Plain Soup</h1>
			<h2>Ingredients</h2>
			<ul><li>2 carrots</li></ul>
		</body></html>`
		rec, err := Extract(parseFixture(t, html))
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if len(rec.Ingredients) != 1 || rec.Ingredients[0].Name != "carrots" {
			t.Errorf("ingredients = %v, want the list after the heading", rec.Ingredients)
		}
	})

	t.Run("NoIngredientsFails", func(t *testing.T) {
		html := `<html><body><h1>Not a recipe</h1><p>Just an essay.</p></body></html>`
		if _, err := Extract(parseFixture(t, html)); err == nil {
			t.Error("expected extraction failure for a page without ingredients")
		}
	})

	t.Run("NoTitleFails", func(t *testing.T) {
		html := `<html><body><ul class="ingredients"><li>1 egg</li></ul></body></html>`
		if _, err := Extract(parseFixture(t, html)); err == nil {
			t.Error("expected extraction failure for a page without a title")
		}
	})
}

func TestClipURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(fixtureHTML))
	}))
	defer server.Close()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	defer db.Close()
	repo := recipe.NewRepository(db.SQL)

	clipped, err := New(repo).ClipURL(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("ClipURL failed: %v", err)
	}
	if clipped.ID == "" {
		t.Error("expected generated recipe id")
	}

	saved, err := repo.Get(context.Background(), clipped.ID)
	if err != nil {
		t.Fatalf("Failed to read back clipped recipe: %v", err)
	}
	if saved == nil {
		t.Fatal("clipped recipe was not saved")
	}
	if saved.Title != "Best Chili con Carne" {
		t.Errorf("saved title = %q", saved.Title)
	}
	if len(saved.Ingredients) != 4 {
		t.Errorf("saved %d ingredients, want 4", len(saved.Ingredients))
	}
}

func TestClipURLFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	defer db.Close()

	if _, err := New(recipe.NewRepository(db.SQL)).ClipURL(context.Background(), server.URL); err == nil {
		t.Error("expected error for non-200 response")
	}
}
