package article

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><head><title>Battery breakthrough</title></head><body>
<article><h1>Battery breakthrough</h1>
<p>Researchers announced a new solid state battery chemistry that charges in ten minutes and survives thousands of cycles.</p>
<p>The team expects the first vehicles using the cells to reach customers within three years, according to the statement.</p>
<p>Analysts said the announcement could reshape the electric vehicle market if production costs fall as promised.</p>
</article></body></html>`

func testOptions() Options {
	return Options{
		Timeout:     2 * time.Second,
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		MaxChars:    15000,
	}
}

func TestFetchTextExtractsArticle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	defer srv.Close()

	text, err := NewFetcher(testOptions()).FetchText(context.Background(), srv.URL+"/story")
	require.NoError(t, err)
	assert.Contains(t, text, "solid state battery")
}

func TestFetchTextRetriesTransientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(page))
	}))
	defer srv.Close()

	text, err := NewFetcher(testOptions()).FetchText(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.NotEmpty(t, text)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchTextGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewFetcher(testOptions()).FetchText(context.Background(), srv.URL)
	assert.Error(t, err)
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}

func TestFetchTextDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewFetcher(testOptions()).FetchText(context.Background(), srv.URL)
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "при", truncateRunes("привет", 3))
	assert.Equal(t, "ok", truncateRunes("ok", 3))
	assert.Equal(t, strings.Repeat("a", 5), truncateRunes(strings.Repeat("a", 10), 5))
}
