// Package window reduces cached candidates to the items a subscriber has
// not seen since their last digest.
package window

import (
	"time"

	"github.com/justDance-everybody/web3-info-denoise/internal/feed"
)

// DefaultLookback is applied when a subscriber has never been pushed to.
const DefaultLookback = 24 * time.Hour

// Select filters candidates down to items from subscribed sources published
// after lastPush. Timestamps are compared in UTC. Items with a zero publish
// time are kept: an unparseable upstream date must not cause silent loss.
// A nil lastPush (first run) substitutes now minus DefaultLookback.
func Select(candidates []feed.Item, sources []string, lastPush *time.Time, now time.Time) []feed.Item {
	subscribed := make(map[string]bool, len(sources))
	for _, name := range sources {
		subscribed[name] = true
	}

	since := now.Add(-DefaultLookback)
	if lastPush != nil {
		since = *lastPush
	}
	since = since.UTC()

	var selected []feed.Item
	for _, it := range candidates {
		if !subscribed[it.Source] {
			continue
		}
		if !it.Published.IsZero() && !it.Published.UTC().After(since) {
			continue
		}
		selected = append(selected, it)
	}
	return selected
}
