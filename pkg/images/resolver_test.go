package images

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubFinder struct {
	url   string
	err   error
	calls int
}

func (s *stubFinder) FindImage(context.Context, string, string) (string, error) {
	s.calls++
	return s.url, s.err
}

type stubMirror struct {
	err error
}

func (s stubMirror) Mirror(_ context.Context, u string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "https://cdn.example.com/mirrored.jpg", nil
}

func TestFindImage(t *testing.T) {
	tests := []struct {
		name   string
		finder *stubFinder
		mirror Mirror
		query  string
		want   string
	}{
		{name: "returns found url", finder: &stubFinder{url: "https://img.com/a.jpg"}, query: "car", want: "https://img.com/a.jpg"},
		{name: "empty query skips search", finder: &stubFinder{url: "https://img.com/a.jpg"}, query: " ", want: ""},
		{name: "finder error is swallowed", finder: &stubFinder{err: errors.New("quota")}, query: "car", want: ""},
		{name: "svg rejected", finder: &stubFinder{url: "https://img.com/logo.svg"}, query: "car", want: ""},
		{name: "data url rejected", finder: &stubFinder{url: "data:image/png;base64,AAA"}, query: "car", want: ""},
		{name: "mirrored", finder: &stubFinder{url: "https://img.com/a.jpg"}, mirror: stubMirror{}, query: "car", want: "https://cdn.example.com/mirrored.jpg"},
		{name: "mirror failure drops image", finder: &stubFinder{url: "https://img.com/a.jpg"}, mirror: stubMirror{err: errors.New("403")}, query: "car", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.finder, tt.mirror, 0)
			assert.Equal(t, tt.want, r.FindImage(context.Background(), tt.query, "en"))
		})
	}
}
