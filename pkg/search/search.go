package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/maheshrc27/autoposter/internal/models"
)

var ErrMalformedResponse = errors.New("malformed search response")

type Query struct {
	Theme    string
	Keywords []string
	// Context narrows the search to the channel's subject, ANDed with the keywords.
	Context  []string
	// Sources are site names or domains. "twitter" maps to x.com and
	// "googlenews" adds no filter since the news vertical is always used.
	Sources  []string
	Language string
	Recency  time.Duration
	Limit    int64
}

// Text builds the search string from the theme followed by the keyword, context
// and site groups.
func (q Query) Text() string {
	var parts []string
	if theme := strings.TrimSpace(q.Theme); theme != "" {
		parts = append(parts, theme)
	}
	if group := orGroup(q.Keywords, quote); group != "" {
		parts = append(parts, group)
	}
	if group := orGroup(q.Context, quote); group != "" {
		if len(parts) > 0 {
			parts = append(parts, "AND")
		}
		parts = append(parts, group)
	}
	if group := orGroup(q.Sources, siteFilter); group != "" {
		parts = append(parts, group)
	}
	return strings.Join(parts, " ")
}

func quote(term string) string {
	return `"` + strings.ReplaceAll(term, `"`, "") + `"`
}

func siteFilter(source string) string {
	switch strings.ToLower(source) {
	case "googlenews":
		return ""
	case "twitter", "x":
		return "site:x.com"
	}
	if !strings.Contains(source, ".") {
		source += ".com"
	}
	return "site:" + strings.ToLower(source)
}

func orGroup(terms []string, format func(string) string) string {
	var items []string
	for _, t := range terms {
		if t = strings.TrimSpace(t); t == "" {
			continue
		}
		if item := format(t); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return ""
	}
	return "(" + strings.Join(items, " OR ") + ")"
}

func (q Query) recencyHours() int {
	if q.Recency <= 0 {
		return 24
	}
	return int(math.Ceil(q.Recency.Hours()))
}

func (q Query) recencyDays() int {
	return int(math.Ceil(float64(q.recencyHours()) / 24))
}

type Searcher interface {
	Search(ctx context.Context, q Query) ([]models.Candidate, error)
}

// ImageFinder returns the first usable image URL for a query, or "" when
// nothing matched.
type ImageFinder interface {
	FindImage(ctx context.Context, query, language string) (string, error)
}

// Normalize trims fields, drops entries without an http(s) URL and removes
// repeated URLs.
func Normalize(candidates []models.Candidate) []models.Candidate {
	seen := make(map[string]bool, len(candidates))
	out := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		c.URL = strings.TrimSpace(c.URL)
		c.Title = strings.TrimSpace(c.Title)
		c.Snippet = strings.TrimSpace(c.Snippet)

		u, err := url.Parse(c.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			continue
		}
		if seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		out = append(out, c)
	}
	return out
}

// FilterVideo drops links to video hosts; their pages carry no article text.
// A domain entry may include a path prefix, e.g. "vk.com/video".
func FilterVideo(candidates []models.Candidate, domains []string) []models.Candidate {
	out := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !isVideo(c.URL, domains) {
			out = append(out, c)
		}
	}
	return out
}

func isVideo(rawURL string, domains []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	path := strings.ToLower(u.Path)

	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		domain, prefix, _ := strings.Cut(d, "/")
		if host != domain && !strings.HasSuffix(host, "."+domain) {
			continue
		}
		if prefix == "" || strings.HasPrefix(strings.TrimPrefix(path, "/"), prefix) {
			return true
		}
	}
	return false
}

func wrapStatus(provider string, status int, body []byte) error {
	snippet := []rune(string(body))
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	return fmt.Errorf("%s returned status %d: %s", provider, status, string(snippet))
}
