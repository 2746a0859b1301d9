package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLooksLikeFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rss.xml":
			w.Header().Set("Content-Type", "application/rss+xml")
			fmt.Fprint(w, `<?xml version="1.0"?><rss version="2.0"><channel></channel></rss>`)
		case "/html":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, "<html><body>not a feed</body></html>")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher()
	if !f.looksLikeFeed(context.Background(), srv.URL+"/rss.xml") {
		t.Error("rss document should be recognized as a feed")
	}
	if f.looksLikeFeed(context.Background(), srv.URL+"/html") {
		t.Error("plain html should not be recognized as a feed")
	}
	if f.looksLikeFeed(context.Background(), srv.URL+"/missing") {
		t.Error("404 should not be recognized as a feed")
	}
}

func TestDetectFeedURLNormalizesDomain(t *testing.T) {
	f := NewFetcher()
	// Unreachable domain: the interesting part is that normalization does not
	// reject the input before probing.
	_, err := f.DetectFeedURL(context.Background(), "")
	if err == nil || !strings.Contains(err.Error(), "empty domain") {
		t.Errorf("expected empty domain error, got %v", err)
	}
}
