package fetcher

import (
	"net/url"
	"regexp"
	"strings"
)

// anchorRE matches anchor tags and captures the href value and inner markup.
var anchorRE = regexp.MustCompile(`(?is)<a\s[^>]*?href\s*=\s*["']([^"']+)["'][^>]*>(.*?)</a>`)

// tagRE strips markup from anchor text.
var tagRE = regexp.MustCompile(`(?s)<[^>]*>`)

// circularKeywords mark a link as a price circular; matches in the anchor
// text and in the href each add to the candidate's score.
var circularKeywords = []string{"ready", "reckoner", "price"}

// FindLatestCircularURL scans the price page HTML for PDF links and returns
// the best-scoring candidate resolved against baseURL. Empty when the page
// carries no PDF links.
func FindLatestCircularURL(html, baseURL string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	bestScore := -1
	bestURL := ""
	for _, m := range anchorRE.FindAllStringSubmatch(html, -1) {
		href := strings.TrimSpace(m[1])
		if !strings.HasSuffix(strings.ToLower(href), ".pdf") {
			continue
		}

		abs := href
		if base != nil {
			if u, err := url.Parse(href); err == nil {
				abs = base.ResolveReference(u).String()
			}
		}

		text := strings.ToLower(strings.TrimSpace(tagRE.ReplaceAllString(m[2], " ")))
		score := 0
		if containsAny(text, circularKeywords) {
			score += 2
		}
		if containsAny(strings.ToLower(href), circularKeywords) {
			score += 2
		}

		// First-listed candidate wins ties.
		if score > bestScore {
			bestScore = score
			bestURL = abs
		}
	}
	return bestURL
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// NormalizeURL strips the query and fragment so new-circular detection
// compares only the document identity.
func NormalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
