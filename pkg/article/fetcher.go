package article

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	readability "github.com/go-shiori/go-readability"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

var ErrNoContent = errors.New("no readable article text")

type Options struct {
	Timeout     time.Duration
	MaxAttempts uint
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxChars    int
}

type Fetcher struct {
	http *http.Client
	opts Options
}

func NewFetcher(opts Options) *Fetcher {
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 1
	}
	return &Fetcher{
		http: &http.Client{Timeout: opts.Timeout},
		opts: opts,
	}
}

// FetchText downloads the page and returns its readable text. Network
// errors, 429 and 5xx responses are retried with exponential backoff;
// other failures are returned at once.
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("bad article url: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.opts.BaseDelay
	b.MaxInterval = f.opts.MaxDelay

	attempt := 0
	text, err := backoff.Retry(ctx, func() (string, error) {
		attempt++
		text, err := f.fetchOnce(ctx, pageURL)
		if err != nil {
			slog.Warn("article fetch attempt failed", "url", rawURL, "attempt", attempt, "error", err)
		}
		return text, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(f.opts.MaxAttempts),
	)
	if err != nil {
		return "", err
	}
	return truncateRunes(text, f.opts.MaxChars), nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, pageURL *url.URL) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return "", backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", backoff.Permanent(ctx.Err())
		}
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("article host returned status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return "", backoff.Permanent(fmt.Errorf("article host returned status %d", resp.StatusCode))
	}

	art, err := readability.FromReader(resp.Body, pageURL)
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("extracting article failed: %w", err))
	}

	text := strings.TrimSpace(art.TextContent)
	if text == "" {
		return "", backoff.Permanent(ErrNoContent)
	}
	return text, nil
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
