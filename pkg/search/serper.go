package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/maheshrc27/autoposter/internal/models"
)

const (
	serperBaseURL = "https://google.serper.dev"
	// Creative Commons licence filter used for illustrations.
	serperLicenceFilter = "ic:cl"
)

type SerperClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewSerperClient(apiKey string, timeout time.Duration) *SerperClient {
	return &SerperClient{
		apiKey:  apiKey,
		baseURL: serperBaseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// WithBaseURL points the client at another host, used by tests.
func (c *SerperClient) WithBaseURL(u string) *SerperClient {
	c.baseURL = u
	return c
}

type serperRequest struct {
	Q   string `json:"q"`
	Hl  string `json:"hl,omitempty"`
	Tbs string `json:"tbs,omitempty"`
	Num int64  `json:"num,omitempty"`
}

type serperResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type serperSearchResponse struct {
	News    []serperResult `json:"news"`
	Organic []serperResult `json:"organic"`
}

type serperImagesResponse struct {
	Images []struct {
		Title    string `json:"title"`
		ImageURL string `json:"imageUrl"`
		Link     string `json:"link"`
	} `json:"images"`
}

// Search queries the news vertical and falls back to organic results when the
// news block is absent.
func (c *SerperClient) Search(ctx context.Context, q Query) ([]models.Candidate, error) {
	payload := serperRequest{
		Q:   q.Text(),
		Hl:  q.Language,
		Tbs: fmt.Sprintf("qdr:h%d", q.recencyHours()),
		Num: q.Limit,
	}

	var resp serperSearchResponse
	if err := c.post(ctx, "/news", payload, &resp); err != nil {
		return nil, err
	}

	results := resp.News
	if len(results) == 0 {
		results = resp.Organic
	}

	candidates := make([]models.Candidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, models.Candidate{URL: r.Link, Title: r.Title, Snippet: r.Snippet})
	}
	return candidates, nil
}

func (c *SerperClient) FindImage(ctx context.Context, query, language string) (string, error) {
	payload := serperRequest{Q: query, Hl: language, Tbs: serperLicenceFilter}

	var resp serperImagesResponse
	if err := c.post(ctx, "/images", payload, &resp); err != nil {
		return "", err
	}
	for _, img := range resp.Images {
		if img.ImageURL != "" {
			return img.ImageURL, nil
		}
	}
	return "", nil
}

func (c *SerperClient) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("serper request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading serper response failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return wrapStatus("serper", resp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		slog.Error("serper returned malformed payload", "path", path, "payload", string(raw))
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
