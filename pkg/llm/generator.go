package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/autoposter/internal/models"
)

const (
	MaxSelected        = 3
	MaxContextKeywords = 3
	MaxPassportLength  = 4000
)

var (
	ErrMalformedResponse = errors.New("malformed model response")
	ErrEmptyResponse     = errors.New("empty model response")
)

type DraftInput struct {
	ArticleText         string
	StylePassport       string
	ActivityDescription string
	SourceURL           string
	Theme               string
	Keywords            []string
	Language            string
}

type Options struct {
	Timeout        time.Duration
	TitleMaxLength int
	BodyMaxLength  int
}

type Generator struct {
	client Client
	opts   Options
}

func NewGenerator(client Client, opts Options) *Generator {
	return &Generator{client: client, opts: opts}
}

// SelectBest asks the model to pick up to three candidates for the theme.
// Only URLs that were offered are accepted.
func (g *Generator) SelectBest(ctx context.Context, candidates []models.Candidate, theme, language string) ([]string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Channel theme: %s\nLanguage: %s\n\nArticles:\n", theme, language)
	for i, c := range candidates {
		fmt.Fprintf(&sb, "%d. %s\nURL: %s\n%s\n\n", i+1, c.Title, c.URL, c.Snippet)
	}

	raw, err := g.complete(ctx, selectSystemPrompt, sb.String())
	if err != nil {
		return nil, err
	}

	urls, err := parseSelection(raw, candidates)
	if err != nil {
		slog.Error("model selection unusable", "model", g.client.Model(), "payload", raw, "error", err)
		return nil, err
	}
	return urls, nil
}

// Draft produces the post. A reply that is not valid JSON is kept as raw
// text rather than failing the run.
func (g *Generator) Draft(ctx context.Context, in DraftInput) (*models.Draft, error) {
	system := fmt.Sprintf(draftSystemPrompt, g.opts.TitleMaxLength, g.opts.BodyMaxLength)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Language: %s\n", in.Language)
	fmt.Fprintf(&sb, "Style passport:\n%s\n\n", in.StylePassport)
	fmt.Fprintf(&sb, "Channel description:\n%s\n\n", in.ActivityDescription)
	fmt.Fprintf(&sb, "Theme: %s\nKeywords: %s\n", in.Theme, strings.Join(in.Keywords, ", "))
	fmt.Fprintf(&sb, "Source: %s\n\nArticle:\n%s", in.SourceURL, in.ArticleText)

	raw, err := g.complete(ctx, system, sb.String())
	if err != nil {
		return nil, err
	}

	d := parseDraft(raw, g.opts.TitleMaxLength, g.opts.BodyMaxLength)
	if d == nil {
		return nil, ErrEmptyResponse
	}
	if d.Raw != "" {
		slog.Warn("draft was not valid JSON, using raw text", "model", g.client.Model())
	}
	return d, nil
}

// ContextKeywords extracts up to three words describing the channel's subject
// from its activity description.
func (g *Generator) ContextKeywords(ctx context.Context, description string) ([]string, error) {
	raw, err := g.complete(ctx, contextSystemPrompt, "Channel description:\n"+description)
	if err != nil {
		return nil, err
	}
	return parseKeywords(raw, MaxContextKeywords), nil
}

// StylePassport describes the channel's writing style from sample posts.
func (g *Generator) StylePassport(ctx context.Context, samples []string, language string) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Language of the passport: %s\n\nPosts:\n", language)
	for _, p := range samples {
		fmt.Fprintf(&sb, "---\n%s\n", strings.TrimSpace(p))
	}
	sb.WriteString("---")

	raw, err := g.complete(ctx, passportSystemPrompt, sb.String())
	if err != nil {
		return "", err
	}
	return truncateRunes(strings.TrimSpace(raw), MaxPassportLength), nil
}

func (g *Generator) complete(ctx context.Context, system, user string) (string, error) {
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}
	raw, err := g.client.Complete(ctx, system, user)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(raw) == "" {
		return "", ErrEmptyResponse
	}
	return raw, nil
}

func parseSelection(raw string, candidates []models.Candidate) ([]string, error) {
	var parsed struct {
		URLs []string `json:"urls"`
	}
	if err := json.Unmarshal([]byte(cleanJSONResponse(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	offered := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		offered[c.URL] = true
	}

	seen := make(map[string]bool)
	var urls []string
	for _, u := range parsed.URLs {
		u = strings.TrimSpace(u)
		if !offered[u] || seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
		if len(urls) == MaxSelected {
			break
		}
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: no known urls selected", ErrMalformedResponse)
	}
	return urls, nil
}

func parseDraft(raw string, titleMax, bodyMax int) *models.Draft {
	var parsed struct {
		Title      string `json:"title"`
		Body       string `json:"body"`
		ImageQuery string `json:"image_query"`
	}
	if err := json.Unmarshal([]byte(cleanJSONResponse(raw)), &parsed); err == nil && strings.TrimSpace(parsed.Body) != "" {
		return &models.Draft{
			Title:      truncateRunes(strings.TrimSpace(parsed.Title), titleMax),
			Body:       truncateRunes(strings.TrimSpace(parsed.Body), bodyMax),
			ImageQuery: strings.TrimSpace(parsed.ImageQuery),
		}
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}
	text = truncateRunes(text, titleMax+bodyMax)
	return &models.Draft{Body: text, Raw: text}
}

func parseKeywords(raw string, max int) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '\n' || r == ';' })
	seen := make(map[string]bool)
	var out []string
	for _, f := range fields {
		f = strings.Trim(strings.TrimSpace(f), "\"'`.*-")
		key := strings.ToLower(f)
		if f == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
		if len(out) == max {
			break
		}
	}
	return out
}

func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	// Some model responses include extra prose around JSON.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max-1])) + "…"
}
