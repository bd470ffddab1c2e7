package mealplan

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// ItemStore is the remote plan-item store the planner reconciles against. All
// writes go through it; the planner never applies a mutation locally before
// the store acknowledges it.
type ItemStore interface {
	ListForWeek(ctx context.Context, weekStartISO string) ([]Item, error)
	Create(ctx context.Context, input AssignInput) (Item, error)
	Move(ctx context.Context, itemID, plannedFor string, mealType MealType) (Item, error)
	UpdateServings(ctx context.Context, itemID string, override *int) (Item, error)
	Delete(ctx context.Context, itemID string) error
}

// AssignInput describes a new assignment of a recipe to a calendar slot.
type AssignInput struct {
	WeekStartISO     string
	PlannedFor       string
	MealType         MealType
	RecipeID         string
	ServingsOverride *int
}

// AssignKey identifies one pending assignment for duplicate suppression: the
// same recipe dropped twice on the same slot with the same servings is one
// submission, while unrelated assignments stay independent.
func AssignKey(recipeID, plannedFor string, mealType MealType, override *int) string {
	servings := "base"
	if override != nil {
		servings = strconv.Itoa(*override)
	}
	return strings.Join([]string{recipeID, plannedFor, string(mealType), servings}, "|")
}

// Planner owns the authoritative in-memory item list for one displayed week
// and reconciles it against user actions. Guard bookkeeping and list mutation
// happen under the lock; store calls happen outside it. Conflicting operations
// on the same item are rejected as no-ops rather than queued.
type Planner struct {
	store ItemStore
	cache *WeekItemsCache

	mu        sync.Mutex
	weekStart string
	items     []Item
	slots     map[SlotKey][]Item
	loadSeq   int
	closed    bool

	assigning map[string]struct{}
	moving    map[string]struct{}
	updating  map[string]struct{}
	removing  map[string]struct{}
}

// NewPlanner creates a planner over a store. The cache may be nil, in which
// case snapshots are simply skipped.
func NewPlanner(store ItemStore, cache *WeekItemsCache) *Planner {
	return &Planner{
		store:     store,
		cache:     cache,
		slots:     make(map[SlotKey][]Item),
		assigning: make(map[string]struct{}),
		moving:    make(map[string]struct{}),
		updating:  make(map[string]struct{}),
		removing:  make(map[string]struct{}),
	}
}

// WeekStart returns the week the planner currently displays.
func (p *Planner) WeekStart() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.weekStart
}

// Items returns a copy of the authoritative item list.
func (p *Planner) Items() []Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneItems(p.items)
}

// Slots returns the derived slot index: items grouped by (date, meal type) in
// stable list order. Rebuilt on every mutation, exposed as a copy.
func (p *Planner) Slots() map[SlotKey][]Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[SlotKey][]Item, len(p.slots))
	for key, items := range p.slots {
		out[key] = cloneItems(items)
	}
	return out
}

// SlotItems returns the items in a single slot, in insertion order.
func (p *Planner) SlotItems(date string, meal MealType) []Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneItems(p.slots[SlotKey{Date: date, Meal: meal}])
}

// IsAssigning reports whether the given assignment tuple is in flight.
func (p *Planner) IsAssigning(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.assigning[key]
	return ok
}

// ItemBusy reports whether any move, servings update or removal is in flight
// for the item. The UI disables the item's controls while this holds.
func (p *Planner) ItemBusy(itemID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.itemBusyLocked(itemID)
}

func (p *Planner) itemBusyLocked(itemID string) bool {
	if _, ok := p.moving[itemID]; ok {
		return true
	}
	if _, ok := p.updating[itemID]; ok {
		return true
	}
	_, ok := p.removing[itemID]
	return ok
}

// Close marks the planner as torn down. Results of operations still in flight
// are discarded instead of being applied to released state.
func (p *Planner) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

// PrimeFromCache populates the list from the week-items cache for instant
// redisplay. It reports whether a snapshot was found; either way the caller
// must still load the week from the store.
func (p *Planner) PrimeFromCache(weekStartISO string) bool {
	if p.cache == nil {
		return false
	}
	cached := p.cache.Get(weekStartISO)
	if cached == nil {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.weekStart = weekStartISO
	p.items = cached
	p.rebuildSlotsLocked()
	return true
}

// LoadWeek replaces the authoritative list with the store's result for the
// week. On failure the previous list stays intact (stale but consistent). A
// later LoadWeek supersedes an earlier one still in flight; the stale result
// is discarded rather than merged.
func (p *Planner) LoadWeek(ctx context.Context, weekStartISO string) error {
	p.mu.Lock()
	p.loadSeq++
	seq := p.loadSeq
	p.weekStart = weekStartISO
	p.mu.Unlock()

	items, err := p.store.ListForWeek(ctx, weekStartISO)
	if err != nil {
		return fmt.Errorf("failed to load meal plan for week %s: %w", weekStartISO, err)
	}

	p.mu.Lock()
	if p.closed || seq != p.loadSeq {
		p.mu.Unlock()
		return nil
	}
	p.items = cloneItems(items)
	p.rebuildSlotsLocked()
	p.mu.Unlock()

	p.snapshot(weekStartISO)
	return nil
}

// Assign requests remote creation of a new scheduled item and appends the
// canonical result. A duplicate submission of the same assignment tuple while
// one is in flight is ignored.
func (p *Planner) Assign(ctx context.Context, recipeID, plannedFor string, mealType MealType, override *int) error {
	key := AssignKey(recipeID, plannedFor, mealType, override)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	if _, inFlight := p.assigning[key]; inFlight {
		p.mu.Unlock()
		return nil
	}
	p.assigning[key] = struct{}{}
	weekStart := p.weekStart
	p.mu.Unlock()

	item, err := p.store.Create(ctx, AssignInput{
		WeekStartISO:     weekStart,
		PlannedFor:       plannedFor,
		MealType:         mealType,
		RecipeID:         recipeID,
		ServingsOverride: override,
	})

	p.mu.Lock()
	delete(p.assigning, key)
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("failed to add %q to the plan: %w", recipeID, err)
	}
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.items = append(p.items, item)
	p.rebuildSlotsLocked()
	p.mu.Unlock()

	p.snapshot(weekStart)
	return nil
}

// Move reschedules an existing item to another slot. Moving an item to the
// slot it already occupies, moving an unknown item, or moving an item that is
// already mid-operation are all no-ops.
func (p *Planner) Move(ctx context.Context, itemID, plannedFor string, mealType MealType) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	current, ok := p.findLocked(itemID)
	if !ok || p.itemBusyLocked(itemID) {
		p.mu.Unlock()
		return nil
	}
	if current.PlannedFor == plannedFor && current.MealType == mealType {
		// Already in the target slot; skip the network round trip.
		p.mu.Unlock()
		return nil
	}
	p.moving[itemID] = struct{}{}
	weekStart := p.weekStart
	p.mu.Unlock()

	item, err := p.store.Move(ctx, itemID, plannedFor, mealType)

	p.mu.Lock()
	delete(p.moving, itemID)
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("failed to move meal plan item: %w", err)
	}
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.replaceLocked(item)
	p.rebuildSlotsLocked()
	p.mu.Unlock()

	p.snapshot(weekStart)
	return nil
}

// UpdateServings sets or clears an item's servings override. Passing nil
// reverts the item to the recipe's own default. The server response is the
// source of truth for the resulting servings fields.
func (p *Planner) UpdateServings(ctx context.Context, itemID string, override *int) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	if _, ok := p.findLocked(itemID); !ok || p.itemBusyLocked(itemID) {
		p.mu.Unlock()
		return nil
	}
	p.updating[itemID] = struct{}{}
	weekStart := p.weekStart
	p.mu.Unlock()

	item, err := p.store.UpdateServings(ctx, itemID, override)

	p.mu.Lock()
	delete(p.updating, itemID)
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("failed to update servings: %w", err)
	}
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.replaceLocked(item)
	p.rebuildSlotsLocked()
	p.mu.Unlock()

	p.snapshot(weekStart)
	return nil
}

// IncrementServings raises an item's effective serving count by one. An
// override equal to the recipe default collapses to "no override".
func (p *Planner) IncrementServings(ctx context.Context, itemID string) error {
	next, ok := p.nextServings(itemID, +1)
	if !ok {
		return nil
	}
	return p.UpdateServings(ctx, itemID, next)
}

// DecrementServings lowers an item's effective serving count by one, never
// below one.
func (p *Planner) DecrementServings(ctx context.Context, itemID string) error {
	next, ok := p.nextServings(itemID, -1)
	if !ok {
		return nil
	}
	return p.UpdateServings(ctx, itemID, next)
}

func (p *Planner) nextServings(itemID string, delta int) (*int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	item, ok := p.findLocked(itemID)
	if !ok || p.itemBusyLocked(itemID) {
		return nil, false
	}

	effective := item.EffectiveServings()
	if delta < 0 {
		if effective == nil || *effective <= 1 {
			return nil, false
		}
		return NormalizeOverride(*effective-1, item.RecipeServings), true
	}

	current := 0
	if effective != nil {
		current = *effective
	}
	next := current + 1
	if next < 1 {
		next = 1
	}
	return NormalizeOverride(next, item.RecipeServings), true
}

// Remove deletes an item from the plan. On failure the item stays in the list.
func (p *Planner) Remove(ctx context.Context, itemID string) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	if _, ok := p.findLocked(itemID); !ok || p.itemBusyLocked(itemID) {
		p.mu.Unlock()
		return nil
	}
	p.removing[itemID] = struct{}{}
	weekStart := p.weekStart
	p.mu.Unlock()

	err := p.store.Delete(ctx, itemID)

	p.mu.Lock()
	delete(p.removing, itemID)
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("failed to remove meal plan item: %w", err)
	}
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	filtered := p.items[:0]
	for _, item := range p.items {
		if item.ID != itemID {
			filtered = append(filtered, item)
		}
	}
	p.items = filtered
	p.rebuildSlotsLocked()
	p.mu.Unlock()

	p.snapshot(weekStart)
	return nil
}

func (p *Planner) findLocked(itemID string) (Item, bool) {
	for _, item := range p.items {
		if item.ID == itemID {
			return item, true
		}
	}
	return Item{}, false
}

func (p *Planner) replaceLocked(updated Item) {
	for i, item := range p.items {
		if item.ID == updated.ID {
			p.items[i] = updated
			return
		}
	}
}

func (p *Planner) rebuildSlotsLocked() {
	slots := make(map[SlotKey][]Item)
	for _, item := range p.items {
		key := SlotKey{Date: item.PlannedFor, Meal: item.MealType}
		slots[key] = append(slots[key], item)
	}
	p.slots = slots
}

// snapshot writes the current list into the week-items cache. Opportunistic:
// the cache is never read back as a substitute for store confirmation.
func (p *Planner) snapshot(weekStartISO string) {
	if p.cache == nil {
		return
	}
	p.mu.Lock()
	if p.weekStart != weekStartISO {
		p.mu.Unlock()
		return
	}
	items := cloneItems(p.items)
	p.mu.Unlock()
	p.cache.Put(weekStartISO, items)
}
