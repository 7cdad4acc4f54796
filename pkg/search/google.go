package search

import (
	"context"
	"fmt"

	"github.com/maheshrc27/autoposter/internal/models"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

const ccRights = "cc_publicdomain,cc_attribute,cc_sharealike"

// GoogleClient uses Programmable Search Engine as the search backend.
type GoogleClient struct {
	svc *customsearch.Service
	cx  string
}

func NewGoogleClient(ctx context.Context, apiKey, cx string, opts ...option.ClientOption) (*GoogleClient, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating custom search service failed: %w", err)
	}
	return &GoogleClient{svc: svc, cx: cx}, nil
}

func (c *GoogleClient) Search(ctx context.Context, q Query) ([]models.Candidate, error) {
	limit := q.Limit
	if limit <= 0 || limit > 10 {
		limit = 10
	}

	call := c.svc.Cse.List().
		Cx(c.cx).
		Q(q.Text()).
		Num(limit).
		DateRestrict(fmt.Sprintf("d%d", q.recencyDays())).
		Sort("date")
	if q.Language != "" {
		call = call.Hl(q.Language).Lr("lang_" + q.Language)
	}

	res, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("google search failed: %w", err)
	}

	candidates := make([]models.Candidate, 0, len(res.Items))
	for _, item := range res.Items {
		candidates = append(candidates, models.Candidate{URL: item.Link, Title: item.Title, Snippet: item.Snippet})
	}
	return candidates, nil
}

func (c *GoogleClient) FindImage(ctx context.Context, query, language string) (string, error) {
	call := c.svc.Cse.List().
		Cx(c.cx).
		Q(query).
		SearchType("image").
		Rights(ccRights).
		Num(5)
	if language != "" {
		call = call.Hl(language)
	}

	res, err := call.Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("google image search failed: %w", err)
	}
	for _, item := range res.Items {
		if item.Link != "" {
			return item.Link, nil
		}
	}
	return "", nil
}
