package detectors

import (
	"fmt"
	"strings"
	"time"
)

// Permalink builders. The slug segments come straight from the forum rows and
// are already URL-safe there.

// threadPermalink builds the full URL of a thread on the origin platform.
func threadPermalink(baseURL, threadSlug string, threadID int64) string {
	return fmt.Sprintf("%s/t/%s/%d/", baseURL, threadSlug, threadID)
}

// postPermalink builds the full URL of a single post inside a thread.
func postPermalink(baseURL, threadSlug string, threadID, postID int64) string {
	return fmt.Sprintf("%s/t/%s/%d/post/%d/", baseURL, threadSlug, threadID, postID)
}

// userPermalink builds the full URL of a user profile's posts page.
func userPermalink(baseURL, userSlug string, userID int64) string {
	return fmt.Sprintf("%s/u/%s/%d/posts/", baseURL, userSlug, userID)
}

// isoTimestamp renders a timestamp the way the provider APIs expect it.
func isoTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// responseSnippet truncates a response body for error messages and logs.
func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

// strPtrValue dereferences an optional column, returning "" when absent.
func strPtrValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
