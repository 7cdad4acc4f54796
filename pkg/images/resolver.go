package images

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/maheshrc27/autoposter/pkg/search"
)

// Mirror re-hosts an image and returns the new URL.
type Mirror interface {
	Mirror(ctx context.Context, imageURL string) (string, error)
}

// Resolver finds an illustration for a draft. It is best-effort: every
// failure collapses to an empty URL.
type Resolver struct {
	finder  search.ImageFinder
	mirror  Mirror
	timeout time.Duration
}

func NewResolver(finder search.ImageFinder, mirror Mirror, timeout time.Duration) *Resolver {
	return &Resolver{finder: finder, mirror: mirror, timeout: timeout}
}

func (r *Resolver) FindImage(ctx context.Context, query, language string) string {
	query = strings.TrimSpace(query)
	if query == "" || r.finder == nil {
		return ""
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	found, err := r.finder.FindImage(ctx, query, language)
	if err != nil {
		slog.Warn("image search failed", "query", query, "error", err)
		return ""
	}
	if !usable(found) {
		return ""
	}

	if r.mirror == nil {
		return found
	}
	mirrored, err := r.mirror.Mirror(ctx, found)
	if err != nil {
		slog.Warn("image mirror failed", "image_url", found, "error", err)
		return ""
	}
	return mirrored
}

// Telegram fetches external photos itself and rejects svg and data URLs.
func usable(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return !strings.HasSuffix(strings.ToLower(u.Path), ".svg")
}
