package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/maheshrc27/autoposter/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	reply  string
	err    error
	system string
	user   string
}

func (s *stubClient) Complete(_ context.Context, system, user string) (string, error) {
	s.system, s.user = system, user
	return s.reply, s.err
}

func (s *stubClient) Model() string { return "stub" }

var candidates = []models.Candidate{
	{URL: "https://a.com/1", Title: "A"},
	{URL: "https://b.com/2", Title: "B"},
	{URL: "https://c.com/3", Title: "C"},
	{URL: "https://d.com/4", Title: "D"},
}

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain JSON unchanged", input: `{"urls":[]}`, want: `{"urls":[]}`},
		{name: "strips json fenced block", input: "```json\n{\"urls\":[]}\n```", want: `{"urls":[]}`},
		{name: "strips prose", input: "Here you go: {\"urls\":[]} hope it helps", want: `{"urls":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSONResponse(tt.input))
		})
	}
}

func TestSelectBestKeepsOnlyOfferedURLs(t *testing.T) {
	client := &stubClient{reply: "```json\n{\"urls\":[\"https://c.com/3\",\"https://evil.com\",\"https://c.com/3\",\"https://a.com/1\",\"https://b.com/2\",\"https://d.com/4\"]}\n```"}
	g := NewGenerator(client, Options{TitleMaxLength: 100, BodyMaxLength: 1000})

	urls, err := g.SelectBest(context.Background(), candidates, "tech", "en")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://c.com/3", "https://a.com/1", "https://b.com/2"}, urls)
	assert.Contains(t, client.user, "URL: https://d.com/4")
}

func TestSelectBestMalformed(t *testing.T) {
	for _, reply := range []string{"I cannot help", `{"urls":[]}`, `{"urls":["https://unknown.com"]}`} {
		g := NewGenerator(&stubClient{reply: reply}, Options{})
		_, err := g.SelectBest(context.Background(), candidates, "tech", "en")
		assert.ErrorIs(t, err, ErrMalformedResponse, reply)
	}
}

func TestSelectBestEmptyReply(t *testing.T) {
	g := NewGenerator(&stubClient{reply: "  "}, Options{})
	_, err := g.SelectBest(context.Background(), candidates, "tech", "en")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestDraftParsesAndCaps(t *testing.T) {
	client := &stubClient{reply: `{"title":"` + strings.Repeat("т", 20) + `","body":"` + strings.Repeat("b", 50) + `","image_query":"electric car"}`}
	g := NewGenerator(client, Options{TitleMaxLength: 10, BodyMaxLength: 30})

	d, err := g.Draft(context.Background(), DraftInput{ArticleText: "text", StylePassport: "calm", SourceURL: "https://a.com/1"})
	require.NoError(t, err)

	assert.Equal(t, 10, len([]rune(d.Title)))
	assert.Equal(t, 30, len([]rune(d.Body)))
	assert.Equal(t, "electric car", d.ImageQuery)
	assert.Empty(t, d.Raw)
	assert.Contains(t, client.system, "at most 10 characters")
	assert.Contains(t, client.user, "calm")
}

func TestDraftFallsBackToRawText(t *testing.T) {
	g := NewGenerator(&stubClient{reply: "Just a plain post without JSON"}, Options{TitleMaxLength: 10, BodyMaxLength: 100})

	d, err := g.Draft(context.Background(), DraftInput{})
	require.NoError(t, err)
	assert.Equal(t, "Just a plain post without JSON", d.Body)
	assert.Equal(t, d.Body, d.Raw)
	assert.Empty(t, d.ImageQuery)
}

func TestDraftProviderError(t *testing.T) {
	g := NewGenerator(&stubClient{err: errors.New("rate limited")}, Options{})
	_, err := g.Draft(context.Background(), DraftInput{})
	assert.Error(t, err)
}

func TestContextKeywords(t *testing.T) {
	client := &stubClient{reply: "Games, \"gaming\", games , game news, esports"}
	g := NewGenerator(client, Options{})

	got, err := g.ContextKeywords(context.Background(), "A channel about video games")
	require.NoError(t, err)
	assert.Equal(t, []string{"Games", "gaming", "game news"}, got)
	assert.Contains(t, client.user, "A channel about video games")
}

func TestContextKeywordsEmptyReply(t *testing.T) {
	g := NewGenerator(&stubClient{reply: ""}, Options{})
	_, err := g.ContextKeywords(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestStylePassport(t *testing.T) {
	client := &stubClient{reply: "  **Tone of voice:** ironic  "}
	g := NewGenerator(client, Options{})

	got, err := g.StylePassport(context.Background(), []string{"first post", " second post "}, "en")
	require.NoError(t, err)
	assert.Equal(t, "**Tone of voice:** ironic", got)
	assert.Contains(t, client.user, "---\nsecond post\n---")
	assert.Contains(t, client.user, "Language of the passport: en")
}

func TestStylePassportIsCapped(t *testing.T) {
	g := NewGenerator(&stubClient{reply: strings.Repeat("я", MaxPassportLength+50)}, Options{})

	got, err := g.StylePassport(context.Background(), []string{"post"}, "ru")
	require.NoError(t, err)
	assert.Equal(t, MaxPassportLength, len([]rune(got)))
}
