package feed

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	userAgent       = "web3-info-denoise/1.0 (+https://github.com/justDance-everybody/web3-info-denoise)"
	fetchTimeout    = 30 * time.Second
	maxSummaryRunes = 500
)

// Source categories.
const (
	CategoryTwitter  = "twitter"
	CategoryWebsites = "websites"
)

// Item is one normalized content record from a feed.
type Item struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Link      string    `json:"link"`
	Author    string    `json:"author,omitempty"`
	Category  string    `json:"category"`
	Published time.Time `json:"published"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Source names one feed endpoint.
type Source struct {
	Name     string `yaml:"name" json:"name"`
	Category string `yaml:"category" json:"category"`
	URL      string `yaml:"url" json:"url"`
}

type Fetcher struct {
	parser *gofeed.Parser
	client *http.Client
	now    func() time.Time
}

func NewFetcher() *Fetcher {
	p := gofeed.NewParser()
	p.UserAgent = userAgent
	return &Fetcher{
		parser: p,
		client: &http.Client{Timeout: fetchTimeout},
		now:    time.Now,
	}
}

// Fetch parses one source and normalizes its entries. Entries published
// before the sinceHours cutoff are skipped; entries without a parseable
// publish time default to fetch time.
func (f *Fetcher) Fetch(ctx context.Context, src Source, sinceHours int) ([]Item, error) {
	if src.URL == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	parsed, err := f.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", src.Name, err)
	}

	now := f.now()
	cutoff := now.Add(-time.Duration(sinceHours) * time.Hour)
	items := make([]Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		pub := now
		if entry.PublishedParsed != nil {
			pub = *entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			pub = *entry.UpdatedParsed
		}
		if pub.Before(cutoff) {
			continue
		}

		title := entry.Title
		if title == "" {
			title = "Untitled"
		}

		summary := entry.Description
		if summary == "" {
			summary = entry.Content
		}
		summary = truncateWords(stripHTML(summary), maxSummaryRunes)

		author := ""
		if src.Category == CategoryTwitter {
			author = ExtractTwitterAuthor(entry.Link)
		}

		items = append(items, Item{
			ID:        itemID(src.Name, entry),
			Source:    src.Name,
			Title:     title,
			Summary:   summary,
			Link:      entry.Link,
			Author:    author,
			Category:  src.Category,
			Published: pub.UTC(),
			FetchedAt: now.UTC(),
		})
	}
	return items, nil
}

// FetchAll fans out one fetch per source, tolerating individual failures:
// a source that errors is logged and contributes nothing. Results are
// deduplicated by ID across sources and sorted newest first.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source, sinceHours int) []Item {
	var (
		mu  sync.Mutex
		all []Item
		wg  sync.WaitGroup
	)

	for _, src := range sources {
		wg.Add(1)
		go func(s Source) {
			defer wg.Done()
			items, err := f.Fetch(ctx, s, sinceHours)
			if err != nil {
				log.Printf("[feed] %v", err)
				return
			}
			mu.Lock()
			all = append(all, items...)
			mu.Unlock()
		}(src)
	}
	wg.Wait()

	seen := make(map[string]bool, len(all))
	deduped := all[:0]
	for _, it := range all {
		if it.ID == "" || seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		deduped = append(deduped, it)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].Published.After(deduped[j].Published)
	})
	return deduped
}

// itemID derives a stable identifier from the source name and the entry's
// upstream GUID (falling back to link, then title). Two fetches of the same
// upstream entry from the same source always hash to the same ID.
func itemID(source string, entry *gofeed.Item) string {
	identifier := entry.GUID
	if identifier == "" {
		identifier = entry.Link
	}
	if identifier == "" {
		identifier = entry.Title
	}
	h := sha256.Sum256([]byte(source + ":" + identifier))
	return fmt.Sprintf("%x", h[:16])
}

func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// truncateWords truncates to n runes on a word boundary, appending "...".
func truncateWords(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	cut := string(runes[:n])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
