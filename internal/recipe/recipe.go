package recipe

// Recipe is a stored recipe. Ingredients keep their free-text quantities so
// serving-size scaling can preserve the cook's own notation.
type Recipe struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description *string      `json:"description"`
	Ingredients []Ingredient `json:"ingredients"`
	PrepMinutes *int         `json:"prep_minutes"`
	CookMinutes *int         `json:"cook_minutes"`
	Servings    *int         `json:"servings"`
}

// Ingredient is one ingredient line: a free-text quantity plus a name.
// Quantities stay text ("1 1/2", "a pinch") rather than numbers.
type Ingredient struct {
	Quantity string `json:"quantity"`
	Name     string `json:"name"`
}
