package mealplan

import (
	"encoding/json"
	"sort"
	"time"

	"planmymeals/internal/dates"
	"planmymeals/internal/session"
)

const (
	weekItemsCacheKey = "planmymeals:meal-plans:week-items-cache"

	// cacheTTL bounds how long a cached week list is served before the
	// consumer must go back to the store.
	cacheTTL = 45 * time.Minute

	// maxCacheEntries caps storage growth; oldest-by-save-time entries are
	// evicted first.
	maxCacheEntries = 12
)

type cachedWeekEntry struct {
	SavedAtMs int64  `json:"savedAtMs"`
	Items     []Item `json:"items"`
}

// WeekItemsCache is a short-lived snapshot cache of fetched per-week item
// lists, keyed by week-start date. It is purely a read-through optimization:
// consumers must tolerate a cold cache identically to a cleared one and never
// treat its contents as authoritative.
type WeekItemsCache struct {
	store session.Store
	now   func() time.Time
}

// NewWeekItemsCache wraps a session store. The clock defaults to time.Now.
func NewWeekItemsCache(store session.Store) *WeekItemsCache {
	return &WeekItemsCache{store: store, now: time.Now}
}

// SetClock overrides the cache's clock. Tests use this to age entries.
func (c *WeekItemsCache) SetClock(now func() time.Time) {
	c.now = now
}

// validItem is the structural check applied to every cached item; entries
// failing it are dropped silently rather than failing the whole read or write.
func validItem(item Item) bool {
	if item.ID == "" || item.RecipeTitle == "" {
		return false
	}
	if !dates.IsISODate(item.PlannedFor) {
		return false
	}
	return ValidMealType(string(item.MealType))
}

func sanitizeItems(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if validItem(item) {
			out = append(out, item.Clone())
		}
	}
	return out
}

// readRecord loads the cache document, dropping malformed keys and expired
// entries. Any parse failure reads as an empty cache, never an error.
func (c *WeekItemsCache) readRecord() map[string]cachedWeekEntry {
	record := make(map[string]cachedWeekEntry)

	data, ok := c.store.Get(weekItemsCacheKey)
	if !ok {
		return record
	}

	var parsed map[string]cachedWeekEntry
	if err := json.Unmarshal(data, &parsed); err != nil {
		return record
	}

	nowMs := c.now().UnixMilli()
	for weekStart, entry := range parsed {
		if !dates.IsISODate(weekStart) {
			continue
		}
		if entry.SavedAtMs <= 0 || nowMs-entry.SavedAtMs > cacheTTL.Milliseconds() {
			continue
		}
		record[weekStart] = cachedWeekEntry{
			SavedAtMs: entry.SavedAtMs,
			Items:     sanitizeItems(entry.Items),
		}
	}
	return record
}

// writeRecord prunes the record to the most recently saved entries and
// persists it. Write failures are swallowed: the cache is an optimization.
func (c *WeekItemsCache) writeRecord(record map[string]cachedWeekEntry) {
	if len(record) > maxCacheEntries {
		keys := make([]string, 0, len(record))
		for k := range record {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			return record[keys[i]].SavedAtMs > record[keys[j]].SavedAtMs
		})
		for _, k := range keys[maxCacheEntries:] {
			delete(record, k)
		}
	}

	data, err := json.Marshal(record)
	if err != nil {
		return
	}
	c.store.Set(weekItemsCacheKey, data)
}

// Get returns a deep copy of the cached item list for a week, or nil when the
// week is absent, expired or the key is malformed.
func (c *WeekItemsCache) Get(weekStartISO string) []Item {
	if !dates.IsISODate(weekStartISO) {
		return nil
	}
	entry, ok := c.readRecord()[weekStartISO]
	if !ok {
		return nil
	}
	return cloneItems(entry.Items)
}

// Put snapshots a week's items with the current timestamp, dropping items that
// fail structural validation and pruning the cache to its size bound.
func (c *WeekItemsCache) Put(weekStartISO string, items []Item) {
	if !dates.IsISODate(weekStartISO) {
		return
	}
	record := c.readRecord()
	record[weekStartISO] = cachedWeekEntry{
		SavedAtMs: c.now().UnixMilli(),
		Items:     sanitizeItems(items),
	}
	c.writeRecord(record)
}

// Clear removes the entire cache. Called on sign-out so cached plans cannot
// leak across accounts.
func (c *WeekItemsCache) Clear() {
	c.store.Delete(weekItemsCacheKey)
}
