package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Common feed locations probed by DetectFeedURL, in order.
var feedPaths = []string{
	"/rss.xml",
	"/rss",
	"/feed",
	"/feed.xml",
	"/feeds/posts/default",
	"/atom.xml",
	"/index.xml",
	"/feed/rss",
	"/blog/rss",
	"/news/rss",
	"/?feed=rss2",
	"/arc/outboundfeeds/rss/",
}

// DetectFeedURL probes common RSS paths on a domain and returns the first
// URL whose response looks like an RSS or Atom document.
func (f *Fetcher) DetectFeedURL(ctx context.Context, domain string) (string, error) {
	domain = strings.TrimSpace(strings.ToLower(domain))
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		parsed, err := url.Parse(domain)
		if err == nil {
			if parsed.Host != "" {
				domain = parsed.Host
			} else {
				domain = strings.SplitN(parsed.Path, "/", 2)[0]
			}
		}
	}
	domain = strings.TrimPrefix(domain, "www.")
	if domain == "" {
		return "", fmt.Errorf("empty domain")
	}

	base := "https://" + domain
	for _, path := range feedPaths {
		candidate := base + path
		if f.looksLikeFeed(ctx, candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no feed found for %s", domain)
}

func (f *Fetcher) looksLikeFeed(ctx context.Context, rawURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	head, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
	start := strings.ToLower(string(head))

	return strings.Contains(contentType, "xml") ||
		strings.Contains(contentType, "rss") ||
		strings.Contains(contentType, "atom") ||
		strings.Contains(start, "<rss") ||
		strings.Contains(start, "<feed") ||
		strings.Contains(start, "<?xml")
}
