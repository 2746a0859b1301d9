// Package cache accumulates feed items across repeated polling cycles.
// Upstream feeds expose only a short recent window per poll, so periodic
// fetching plus merge-append into a per-day snapshot is how a fuller day
// of history gets reconstructed.
package cache

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/justDance-everybody/web3-info-denoise/internal/feed"
	"github.com/justDance-everybody/web3-info-denoise/internal/storage"
)

const dateLayout = "2006-01-02"

// Snapshot is one day's accumulation of deduplicated items. It is only
// ever mutated by merge-append and persisted whole.
type Snapshot struct {
	Date       string      `json:"date"`
	SeenIDs    []string    `json:"seen_ids"`
	Items      []feed.Item `json:"items"`
	FetchCount int         `json:"fetch_count"`
	LastFetch  *time.Time  `json:"last_fetch,omitempty"`
}

// MergeStats reports the outcome of one merge call.
type MergeStats struct {
	New        int `json:"new_items"`
	Duplicates int `json:"duplicates"`
	Total      int `json:"total_items"`
}

type Cache struct {
	store *storage.Store
	mu    sync.Mutex
	now   func() time.Time
}

func New(store *storage.Store) *Cache {
	return &Cache{store: store, now: time.Now}
}

// DateKey formats a time as a snapshot key.
func DateKey(t time.Time) string {
	return t.Format(dateLayout)
}

// Merge appends the items whose ID has not been seen on date and persists
// the updated snapshot in one atomic write. Concurrent merges for the same
// day are serialized so partial snapshots are never visible.
func (c *Cache) Merge(date string, items []feed.Item) (MergeStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, err := c.load(date)
	if err != nil {
		return MergeStats{}, err
	}

	seen := make(map[string]bool, len(snap.SeenIDs))
	for _, id := range snap.SeenIDs {
		seen[id] = true
	}

	var stats MergeStats
	for _, it := range items {
		if it.ID == "" || seen[it.ID] {
			stats.Duplicates++
			continue
		}
		seen[it.ID] = true
		snap.SeenIDs = append(snap.SeenIDs, it.ID)
		snap.Items = append(snap.Items, it)
		stats.New++
	}
	stats.Total = len(snap.Items)

	snap.FetchCount++
	now := c.now()
	snap.LastFetch = &now

	data, err := json.Marshal(snap)
	if err != nil {
		return MergeStats{}, fmt.Errorf("encoding snapshot %s: %w", date, err)
	}
	if err := c.store.Put(storage.BucketPrefetch, []byte(date), data); err != nil {
		return MergeStats{}, err
	}

	log.Printf("[cache] %s: +%d new, %d duplicates, %d total", date, stats.New, stats.Duplicates, stats.Total)
	return stats, nil
}

// Items returns the accumulated items for one day, in insertion order.
func (c *Cache) Items(date string) ([]feed.Item, error) {
	snap, err := c.load(date)
	if err != nil {
		return nil, err
	}
	return snap.Items, nil
}

// ItemsForDigest combines today's and yesterday's snapshots, deduplicated
// again by ID, so items fetched just before a day boundary are not lost.
func (c *Cache) ItemsForDigest(today string) ([]feed.Item, error) {
	day, err := time.Parse(dateLayout, today)
	if err != nil {
		return nil, fmt.Errorf("bad date %q: %w", today, err)
	}
	yesterday := DateKey(day.AddDate(0, 0, -1))

	todayItems, err := c.Items(today)
	if err != nil {
		return nil, err
	}
	yesterdayItems, err := c.Items(yesterday)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(todayItems)+len(yesterdayItems))
	combined := make([]feed.Item, 0, len(todayItems)+len(yesterdayItems))
	for _, it := range append(todayItems, yesterdayItems...) {
		if it.ID == "" || seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		combined = append(combined, it)
	}
	return combined, nil
}

// Cleanup deletes snapshots older than retentionDays (retention cleanup is
// the only way a day's accumulation ever shrinks). Returns the number of
// snapshots removed.
func (c *Cache) Cleanup(retentionDays int) (int, error) {
	cutoff := DateKey(c.now().AddDate(0, 0, -retentionDays))

	keys, err := c.store.Keys(storage.BucketPrefetch)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, key := range keys {
		if key < cutoff {
			if err := c.store.Delete(storage.BucketPrefetch, []byte(key)); err != nil {
				return deleted, err
			}
			deleted++
		}
	}
	if deleted > 0 {
		log.Printf("[cache] cleanup: removed %d snapshot(s) older than %s", deleted, cutoff)
	}
	return deleted, nil
}

func (c *Cache) load(date string) (*Snapshot, error) {
	data, ok, err := c.store.Get(storage.BucketPrefetch, []byte(date))
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Snapshot{Date: date}, nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", date, err)
	}
	return &snap, nil
}
