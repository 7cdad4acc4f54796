package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/maheshrc27/autoposter/internal/models"
	"github.com/maheshrc27/autoposter/internal/repository"
)

// Fingerprint is the only place a source URL is turned into a dedup key.
// Every check and every write must go through it.
func Fingerprint(rawURL string) string {
	sum := sha256.Sum256([]byte(normalizeURL(rawURL)))
	return hex.EncodeToString(sum[:])
}

func normalizeURL(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
		u.RawPath = strings.TrimSuffix(u.RawPath, "/")
	} else {
		u.Path = ""
		u.RawPath = ""
	}
	return u.String()
}

type DedupService interface {
	IsDuplicate(ctx context.Context, channelID int64, rawURL string) (bool, error)
	Record(ctx context.Context, channelID int64, rawURL string) error
	FilterNew(ctx context.Context, channelID int64, candidates []models.Candidate) ([]models.Candidate, error)
}

type dedupService struct {
	p repository.PublishedPostRepository
}

func NewDedupService(p repository.PublishedPostRepository) DedupService {
	return &dedupService{p: p}
}

func (d *dedupService) IsDuplicate(ctx context.Context, channelID int64, rawURL string) (bool, error) {
	exists, err := d.p.Exists(ctx, channelID, Fingerprint(rawURL))
	if err != nil {
		return false, fmt.Errorf("dedup lookup failed: %w", err)
	}
	return exists, nil
}

func (d *dedupService) Record(ctx context.Context, channelID int64, rawURL string) error {
	if _, err := d.p.Create(ctx, channelID, Fingerprint(rawURL)); err != nil {
		return fmt.Errorf("recording fingerprint failed: %w", err)
	}
	return nil
}

// FilterNew drops candidates already published to the channel, keeping order.
func (d *dedupService) FilterNew(ctx context.Context, channelID int64, candidates []models.Candidate) ([]models.Candidate, error) {
	hashes := make([]string, 0, len(candidates))
	for _, c := range candidates {
		hashes = append(hashes, Fingerprint(c.URL))
	}

	published, err := d.p.FilterPublished(ctx, channelID, hashes)
	if err != nil {
		return nil, fmt.Errorf("dedup batch lookup failed: %w", err)
	}

	fresh := make([]models.Candidate, 0, len(candidates))
	for i, c := range candidates {
		if !published[hashes[i]] {
			fresh = append(fresh, c)
		}
	}
	return fresh, nil
}
