package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/justDance-everybody/web3-info-denoise/internal/cache"
	"github.com/justDance-everybody/web3-info-denoise/internal/feed"
)

// Prefetcher polls the union of all subscribers' sources into the day's
// cache snapshot. It needs no model access, so it can run on a much tighter
// schedule than digests.
type Prefetcher struct {
	cache   *cache.Cache
	fetcher Fetcher
	subs    *Subscribers
	now     func() time.Time
}

func NewPrefetcher(c *cache.Cache, f Fetcher, subs *Subscribers) *Prefetcher {
	return &Prefetcher{cache: c, fetcher: f, subs: subs, now: time.Now}
}

func (p *Prefetcher) Prefetch(ctx context.Context, sinceHours int) (cache.MergeStats, error) {
	subs, err := p.subs.All()
	if err != nil {
		return cache.MergeStats{}, fmt.Errorf("loading subscribers: %w", err)
	}

	byName := make(map[string]feed.Source)
	for _, sub := range subs {
		for _, src := range sub.FeedSources() {
			byName[src.Name] = src
		}
	}
	sources := make([]feed.Source, 0, len(byName))
	for _, src := range byName {
		sources = append(sources, src)
	}
	if len(sources) == 0 {
		return cache.MergeStats{}, nil
	}

	items := p.fetcher.FetchAll(ctx, sources, sinceHours)
	return p.cache.Merge(cache.DateKey(p.now().UTC()), items)
}
