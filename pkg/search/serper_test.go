package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerperSearchNews(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/news", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-API-KEY"))

		var body serperRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, `electric vehicles ("EV" OR "battery") AND ("cars") (site:x.com)`, body.Q)
		assert.Equal(t, "qdr:h24", body.Tbs)
		assert.Equal(t, "en", body.Hl)

		w.Write([]byte(`{"news":[{"title":"A","link":"https://a.com/1","snippet":"s"}],"organic":[{"title":"B","link":"https://b.com"}]}`))
	}))
	defer srv.Close()

	c := NewSerperClient("key", 5*time.Second).WithBaseURL(srv.URL)
	got, err := c.Search(context.Background(), Query{
		Theme:    "electric vehicles",
		Keywords: []string{"EV", "battery"},
		Context:  []string{"cars"},
		Sources:  []string{"twitter"},
		Language: "en",
		Recency:  24 * time.Hour,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://a.com/1", got[0].URL)
}

func TestSerperSearchFallsBackToOrganic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"organic":[{"title":"B","link":"https://b.com/x","snippet":"s"}]}`))
	}))
	defer srv.Close()

	got, err := NewSerperClient("key", 5*time.Second).WithBaseURL(srv.URL).Search(context.Background(), Query{Theme: "x"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://b.com/x", got[0].URL)
}

func TestSerperMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	_, err := NewSerperClient("key", 5*time.Second).WithBaseURL(srv.URL).Search(context.Background(), Query{Theme: "x"})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestSerperHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewSerperClient("key", 5*time.Second).WithBaseURL(srv.URL).Search(context.Background(), Query{Theme: "x"})
	assert.Error(t, err)
}

func TestSerperFindImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images", r.URL.Path)
		var body serperRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, serperLicenceFilter, body.Tbs)

		w.Write([]byte(`{"images":[{"imageUrl":""},{"imageUrl":"https://img.com/a.jpg"}]}`))
	}))
	defer srv.Close()

	url, err := NewSerperClient("key", 5*time.Second).WithBaseURL(srv.URL).FindImage(context.Background(), "car", "en")
	require.NoError(t, err)
	assert.Equal(t, "https://img.com/a.jpg", url)
}
