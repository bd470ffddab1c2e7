package mealplan

import (
	"encoding/json"
	"strings"
	"unicode"

	"planmymeals/internal/dates"
	"planmymeals/internal/session"
)

const viewStateKey = "planmymeals:meal-plans:view-state"

// ViewState is the planner's transient UI selection, persisted across
// navigation within a session.
type ViewState struct {
	WeekStartISO     string   `json:"weekStartIso"`
	SearchInput      string   `json:"searchInput"`
	SelectedDay      string   `json:"selectedDay"`
	SelectedMealType MealType `json:"selectedMealType"`
}

// ViewStateStore loads and saves the planner view state in a session store.
type ViewStateStore struct {
	store session.Store
}

// NewViewStateStore wraps a session store.
func NewViewStateStore(store session.Store) *ViewStateStore {
	return &ViewStateStore{store: store}
}

// Load returns the stored view state validated field by field, degrading each
// field independently to the caller's fallback when the stored value is
// absent, malformed or out of range. Load never fails.
func (s *ViewStateStore) Load(fallback ViewState) ViewState {
	data, ok := s.store.Get(viewStateKey)
	if !ok {
		return fallback
	}

	var saved struct {
		WeekStartISO     *string `json:"weekStartIso"`
		SearchInput      *string `json:"searchInput"`
		SelectedDay      *string `json:"selectedDay"`
		SelectedMealType *string `json:"selectedMealType"`
	}
	if err := json.Unmarshal(data, &saved); err != nil {
		return fallback
	}

	next := fallback
	if saved.WeekStartISO != nil && dates.IsISODate(*saved.WeekStartISO) {
		next.WeekStartISO = *saved.WeekStartISO
	}
	if saved.SelectedDay != nil && dates.IsISODate(*saved.SelectedDay) {
		next.SelectedDay = *saved.SelectedDay
	}
	if saved.SearchInput != nil {
		next.SearchInput = strings.TrimLeftFunc(*saved.SearchInput, unicode.IsSpace)
	}
	if saved.SelectedMealType != nil && ValidMealType(*saved.SelectedMealType) {
		next.SelectedMealType = MealType(*saved.SelectedMealType)
	}
	return next
}

// Save overwrites the stored view state unconditionally.
func (s *ViewStateStore) Save(state ViewState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.store.Set(viewStateKey, data)
}

// Clear removes the stored view state entirely.
func (s *ViewStateStore) Clear() error {
	return s.store.Delete(viewStateKey)
}
