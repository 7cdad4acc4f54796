package search

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/maheshrc27/autoposter/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	got := Normalize([]models.Candidate{
		{URL: " https://a.com/1 ", Title: " A "},
		{URL: "https://a.com/1"},
		{URL: "ftp://files.com/x"},
		{URL: "not a url"},
		{URL: ""},
		{URL: "http://b.com/2"},
	})

	assert.Equal(t, []models.Candidate{
		{URL: "https://a.com/1", Title: "A"},
		{URL: "http://b.com/2"},
	}, got)
}

func TestFilterVideo(t *testing.T) {
	domains := []string{"youtube.com", "youtu.be", "vk.com/video"}

	got := FilterVideo([]models.Candidate{
		{URL: "https://www.youtube.com/watch?v=1"},
		{URL: "https://m.youtube.com/watch?v=1"},
		{URL: "https://youtu.be/abc"},
		{URL: "https://vk.com/video-123_456"},
		{URL: "https://vk.com/wall-1_2"},
		{URL: "https://notyoutube.com/article"},
		{URL: "https://news.com/story"},
	}, domains)

	assert.Equal(t, []models.Candidate{
		{URL: "https://vk.com/wall-1_2"},
		{URL: "https://notyoutube.com/article"},
		{URL: "https://news.com/story"},
	}, got)
}

func TestQueryText(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{
			name:  "theme only",
			query: Query{Theme: " EVs "},
			want:  "EVs",
		},
		{
			name:  "keywords form an OR group",
			query: Query{Theme: "EVs", Keywords: []string{"battery", " ", "fast \"charging\""}},
			want:  `EVs ("battery" OR "fast charging")`,
		},
		{
			name:  "context terms are required",
			query: Query{Keywords: []string{"battery"}, Context: []string{"cars", "transport"}},
			want:  `("battery") AND ("cars" OR "transport")`,
		},
		{
			name:  "sources become site filters",
			query: Query{Theme: "EVs", Sources: []string{"googlenews", "twitter", "reddit", "Habr.com"}},
			want:  "EVs (site:x.com OR site:reddit.com OR site:habr.com)",
		},
		{
			name:  "news-only source adds nothing",
			query: Query{Theme: "EVs", Sources: []string{"googlenews"}},
			want:  "EVs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.query.Text())
		})
	}
}

func TestWrapStatusTruncatesByRunes(t *testing.T) {
	body := []byte(strings.Repeat("ж", 300))

	err := wrapStatus("serper", 500, body)
	msg := err.Error()
	assert.True(t, utf8.ValidString(msg))
	assert.Equal(t, 200, strings.Count(msg, "ж"))
}
