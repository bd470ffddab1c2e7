// Package clipper imports recipes from the web. It fetches a page, extracts
// the recipe fields from the markup and saves the result to the recipe
// repository so it can be scheduled on the calendar.
package clipper

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"planmymeals/internal/recipe"
)

// Clipper handles fetching and extracting recipes from URLs.
type Clipper struct {
	recipes *recipe.Repository
	client  *http.Client
}

// New creates a Clipper backed by the given repository.
func New(recipes *recipe.Repository) *Clipper {
	return &Clipper{
		recipes: recipes,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// ClipURL fetches the URL, extracts the recipe and saves it. The page must at
// least yield a title and one ingredient line; everything else is optional.
func (c *Clipper) ClipURL(ctx context.Context, url string) (*recipe.Recipe, error) {
	doc, err := c.fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}

	extracted, err := Extract(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to extract recipe from %s: %w", url, err)
	}

	extracted.ID = uuid.NewString()
	if err := c.recipes.Save(ctx, *extracted); err != nil {
		return nil, fmt.Errorf("failed to save clipped recipe: %w", err)
	}
	return extracted, nil
}

func (c *Clipper) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

// Extract pulls the recipe fields out of a parsed page. Exported so tests and
// alternative fetchers can run it on documents from any source.
func Extract(doc *goquery.Document) (*recipe.Recipe, error) {
	// Remove noise before walking the tree
	doc.Find("script, style, nav, footer, iframe").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	title := extractTitle(doc)
	if title == "" {
		return nil, fmt.Errorf("no title found")
	}

	ingredients := extractIngredients(doc)
	if len(ingredients) == 0 {
		return nil, fmt.Errorf("no ingredients found")
	}

	rec := &recipe.Recipe{
		Title:       title,
		Ingredients: ingredients,
		Servings:    extractServings(doc),
		PrepMinutes: extractMinutes(doc, "prep"),
		CookMinutes: extractMinutes(doc, "cook"),
	}
	if desc := metaContent(doc, `meta[property="og:description"]`, `meta[name="description"]`); desc != "" {
		rec.Description = &desc
	}
	return rec, nil
}

func extractTitle(doc *goquery.Document) string {
	if t := metaContent(doc, `meta[property="og:title"]`); t != "" {
		return t
	}
	if t := strings.TrimSpace(doc.Find("h1").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func extractIngredients(doc *goquery.Document) []recipe.Ingredient {
	lines := doc.Find(`[class*="ingredient"] li, [id*="ingredient"] li`)
	if lines.Length() == 0 {
		// Fall back to the list following an "Ingredients" heading
		doc.Find("h2, h3").EachWithBreak(func(i int, s *goquery.Selection) bool {
			if !strings.Contains(strings.ToLower(s.Text()), "ingredient") {
				return true
			}
			lines = s.NextAllFiltered("ul, ol").First().Find("li")
			return false
		})
	}

	var ingredients []recipe.Ingredient
	lines.Each(func(i int, s *goquery.Selection) {
		line := strings.Join(strings.Fields(s.Text()), " ")
		if line == "" {
			return
		}
		ingredients = append(ingredients, splitIngredientLine(line))
	})
	return ingredients
}

// Quantities as they appear at the start of an ingredient line: a mixed
// fraction, a simple fraction or a plain number.
var quantityPattern = regexp.MustCompile(`^(\d+\s+\d+\s*/\s*\d+|\d+\s*/\s*\d+|\d*\.?\d+)\s+(.+)$`)

func splitIngredientLine(line string) recipe.Ingredient {
	if m := quantityPattern.FindStringSubmatch(line); m != nil {
		return recipe.Ingredient{Quantity: m[1], Name: m[2]}
	}
	return recipe.Ingredient{Name: line}
}

var servingsPattern = regexp.MustCompile(`(?i)(?:serves|servings?|yield)[:\s]*(\d+)`)

func extractServings(doc *goquery.Document) *int {
	text := doc.Find(`[class*="serving"], [class*="yield"]`).First().Text()
	if text == "" {
		text = doc.Find("body").Text()
	}
	m := servingsPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return nil
	}
	return &n
}

var (
	hoursPattern   = regexp.MustCompile(`(\d+)\s*(?:hours?|hrs?|h)\b`)
	minutesPattern = regexp.MustCompile(`(\d+)\s*(?:minutes?|mins?|m)\b`)
)

// extractMinutes reads a duration from elements whose class names a phase,
// e.g. "prep-time" or "cook-time", and converts it to whole minutes.
func extractMinutes(doc *goquery.Document, phase string) *int {
	text := strings.ToLower(doc.Find(fmt.Sprintf(`[class*=%q]`, phase)).First().Text())
	if text == "" {
		return nil
	}

	total := 0
	if m := hoursPattern.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		total += h * 60
	}
	if m := minutesPattern.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		total += n
	}
	if total == 0 {
		return nil
	}
	return &total
}

func metaContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if trimmed := strings.TrimSpace(content); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
