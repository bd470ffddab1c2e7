package mealplan

// MealType is one of the three fixed meal slots of a day.
type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
)

// MealTypes lists the valid meal types in display order.
var MealTypes = []MealType{Breakfast, Lunch, Dinner}

// DefaultMealType is the slot preselected for new assignments.
const DefaultMealType = Dinner

// ValidMealType reports whether s is one of the fixed meal types.
func ValidMealType(s string) bool {
	switch MealType(s) {
	case Breakfast, Lunch, Dinner:
		return true
	}
	return false
}

// Item is a scheduled meal-plan item: a recipe placed into a (date, meal type)
// slot of a week. RecipeID is nil when the referenced recipe has since been
// deleted; the item survives with its denormalized title.
type Item struct {
	ID               string   `json:"id"`
	RecipeID         *string  `json:"recipeId"`
	RecipeTitle      string   `json:"recipeTitle"`
	PlannedFor       string   `json:"plannedFor"`
	MealType         MealType `json:"mealType"`
	ServingsOverride *int     `json:"servingsOverride"`
	RecipeServings   *int     `json:"recipeServings"`
}

// EffectiveServings resolves the serving count the item is planned for: the
// explicit override when present, otherwise the recipe's own default. Nil only
// when both inputs are nil. The value is always derived, never stored.
func (i Item) EffectiveServings() *int {
	if i.ServingsOverride != nil {
		return i.ServingsOverride
	}
	return i.RecipeServings
}

// Clone returns a deep copy of the item.
func (i Item) Clone() Item {
	c := i
	c.RecipeID = cloneStringPtr(i.RecipeID)
	c.ServingsOverride = cloneIntPtr(i.ServingsOverride)
	c.RecipeServings = cloneIntPtr(i.RecipeServings)
	return c
}

// NormalizeOverride collapses a requested serving count to nil when it equals
// the recipe's own default, so an explicit override equal to the default and
// "no override" are indistinguishable downstream.
func NormalizeOverride(requested int, recipeServings *int) *int {
	if recipeServings != nil && requested == *recipeServings {
		return nil
	}
	return &requested
}

// RecipeSummary is a read-only recipe search result.
type RecipeSummary struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	PrepMinutes *int    `json:"prepMinutes"`
	CookMinutes *int    `json:"cookMinutes"`
	Servings    *int    `json:"servings"`
}

// SlotKey groups items by calendar date and meal type.
type SlotKey struct {
	Date string
	Meal MealType
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}
