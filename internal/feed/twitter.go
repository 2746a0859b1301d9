package feed

import (
	"regexp"
	"strings"
)

var handleRe = regexp.MustCompile(`^[A-Za-z0-9_]{1,15}$`)

// reserved path segments that can follow x.com/ but are not usernames
var reservedPaths = map[string]bool{
	"i":        true,
	"search":   true,
	"hashtag":  true,
	"explore":  true,
	"settings": true,
}

// ExtractTwitterAuthor pulls the author handle out of a tweet link.
//
//	https://x.com/VitalikButerin/status/123 -> @VitalikButerin
//	https://twitter.com/whale_alert/status/456 -> @whale_alert
//	https://example.com/article -> ""
func ExtractTwitterAuthor(link string) string {
	if link == "" {
		return ""
	}
	lower := strings.ToLower(link)
	if !strings.Contains(lower, "x.com/") && !strings.Contains(lower, "twitter.com/") {
		return ""
	}

	parts := strings.Split(link, "/")
	for i, part := range parts {
		host := strings.ToLower(part)
		if (host == "x.com" || host == "twitter.com") && i+1 < len(parts) {
			username := parts[i+1]
			if reservedPaths[strings.ToLower(username)] {
				return ""
			}
			if handleRe.MatchString(username) {
				return "@" + username
			}
			return ""
		}
	}
	return ""
}

// NormalizeTwitterHandle validates a handle (with or without the @ prefix)
// and returns it in canonical "@name" form.
func NormalizeTwitterHandle(handle string) (string, bool) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if !handleRe.MatchString(handle) {
		return "", false
	}
	return "@" + handle, true
}
