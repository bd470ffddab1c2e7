package mealplan

import "strings"

// Drag payload type keys. Browsers that honor custom payload types carry the
// dragged id under one of these; everything else falls back to plain text.
const (
	ItemDragType   = "application/x-planmymeals-meal-plan-item-id"
	RecipeDragType = "application/x-planmymeals-recipe-id"

	// itemTextPrefix marks the plain-text fallback encoding of a dragged
	// meal-plan item, for transports that drop custom payload types.
	itemTextPrefix = "meal-plan-item:"
)

// DropPayload is the transport-independent shape of a drop event: an ordered
// list of typed entries plus one plain-text fallback value.
type DropPayload struct {
	Entries []DropEntry
	Text    string
}

// DropEntry is a single typed value inside a drop payload.
type DropEntry struct {
	Type  string
	Value string
}

// Intent is the resolved meaning of a drop.
type Intent int

const (
	// IntentNone means the payload carried nothing actionable; the drop is
	// a no-op, not an error.
	IntentNone Intent = iota
	// IntentMoveItem moves an existing scheduled item to the target slot.
	IntentMoveItem
	// IntentAssignRecipe assigns a new recipe to the target slot.
	IntentAssignRecipe
)

// Effect is the visual affordance shown while dragging over a slot.
type Effect int

const (
	EffectCopy Effect = iota
	EffectMove
)

func (p DropPayload) value(typeKey string) string {
	for _, e := range p.Entries {
		if e.Type == typeKey {
			return e.Value
		}
	}
	return ""
}

// ResolveDrop interprets a drop payload, distinguishing "move an existing
// item" from "assign a new recipe". The dedicated item type key wins, then the
// prefixed plain-text fallback, then the recipe type key, then bare plain text
// treated as a recipe id. Returns the intent and the resolved id.
func ResolveDrop(p DropPayload) (Intent, string) {
	if id := p.value(ItemDragType); id != "" {
		return IntentMoveItem, id
	}
	if strings.HasPrefix(p.Text, itemTextPrefix) {
		return IntentMoveItem, strings.TrimPrefix(p.Text, itemTextPrefix)
	}
	if id := p.value(RecipeDragType); id != "" {
		return IntentAssignRecipe, id
	}
	if p.Text != "" {
		return IntentAssignRecipe, p.Text
	}
	return IntentNone, ""
}

// ClassifyDrag picks the drag-over affordance from the payload's type keys and
// whatever fallback text the transport exposes before the drop. Payload values
// are not available mid-drag, so this uses the same type-key/prefix heuristic
// as ResolveDrop: a meal-plan item reads as a move, anything else as a copy.
func ClassifyDrag(typeKeys []string, fallbackText string) Effect {
	for _, k := range typeKeys {
		if k == ItemDragType {
			return EffectMove
		}
	}
	if strings.HasPrefix(fallbackText, itemTextPrefix) {
		return EffectMove
	}
	return EffectCopy
}

// EncodeItemText renders the plain-text fallback encoding for a dragged item.
func EncodeItemText(itemID string) string {
	return itemTextPrefix + itemID
}
