package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestGoogleSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "cx-id", q.Get("cx"))
		assert.Equal(t, "d2", q.Get("dateRestrict"))
		assert.Equal(t, "ru", q.Get("hl"))
		assert.Equal(t, `news ("ai" OR "robots")`, q.Get("q"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"link":"https://a.com/1","title":"A","snippet":"s"}]}`))
	}))
	defer srv.Close()

	c, err := NewGoogleClient(context.Background(), "key", "cx-id",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	got, err := c.Search(context.Background(), Query{Theme: "news", Keywords: []string{"ai", "robots"}, Language: "ru", Recency: 36 * time.Hour})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://a.com/1", got[0].URL)
}

func TestGoogleFindImageUsesLicenceFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "image", q.Get("searchType"))
		assert.Equal(t, ccRights, q.Get("rights"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"link":"https://img.com/a.png"}]}`))
	}))
	defer srv.Close()

	c, err := NewGoogleClient(context.Background(), "key", "cx-id",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	url, err := c.FindImage(context.Background(), "car", "")
	require.NoError(t, err)
	assert.Equal(t, "https://img.com/a.png", url)
}
