package job

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/maheshrc27/autoposter/internal/models"
	"github.com/maheshrc27/autoposter/internal/repository"
	"github.com/maheshrc27/autoposter/internal/service"
	"github.com/maheshrc27/autoposter/pkg/llm"
	"github.com/maheshrc27/autoposter/pkg/search"
)

type memScenarios struct {
	repository.ScenarioRepository
	rows map[int64]*models.Scenario
}

func (m *memScenarios) GetByID(_ context.Context, id int64) (*models.Scenario, error) {
	return m.rows[id], nil
}

type memChannels struct {
	repository.ChannelRepository
	rows map[int64]*models.Channel
}

func (m *memChannels) GetByID(_ context.Context, id int64) (*models.Channel, error) {
	return m.rows[id], nil
}

type fakeQuota struct {
	service.QuotaService
	mu      sync.Mutex
	left    map[int64]int
	charges int
}

func (f *fakeQuota) HasQuota(_ context.Context, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.left[userID] > 0, nil
}

func (f *fakeQuota) Charge(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.left[userID] > 0 {
		f.left[userID]--
		f.charges++
	}
	return nil
}

type fakeDedup struct {
	mu        sync.Mutex
	published map[int64]map[string]bool
}

func newFakeDedup() *fakeDedup {
	return &fakeDedup{published: make(map[int64]map[string]bool)}
}

func (f *fakeDedup) IsDuplicate(_ context.Context, channelID int64, rawURL string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.published[channelID][service.Fingerprint(rawURL)], nil
}

func (f *fakeDedup) Record(_ context.Context, channelID int64, rawURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.published[channelID] == nil {
		f.published[channelID] = make(map[string]bool)
	}
	f.published[channelID][service.Fingerprint(rawURL)] = true
	return nil
}

func (f *fakeDedup) FilterNew(ctx context.Context, channelID int64, candidates []models.Candidate) ([]models.Candidate, error) {
	var out []models.Candidate
	for _, c := range candidates {
		dup, _ := f.IsDuplicate(ctx, channelID, c.URL)
		if !dup {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeDedup) count(channelID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published[channelID])
}

type fakeModeration struct {
	service.ModerationService
	mu       sync.Mutex
	pending  map[string]*models.PendingModeration
	nextID   int
	canceled []string
}

func newFakeModeration() *fakeModeration {
	return &fakeModeration{pending: make(map[string]*models.PendingModeration)}
}

func (f *fakeModeration) Enqueue(_ context.Context, ownerID, channelID int64, sourceURL string, post models.Post) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := "mod" + string(rune('0'+f.nextID))
	f.pending[id] = &models.PendingModeration{
		ID: id, OwnerID: ownerID, ChannelID: channelID, ArticleURL: sourceURL,
		PostText: post.Text, ImageURL: post.ImageURL, CreatedAt: time.Now(),
	}
	return id, nil
}

func (f *fakeModeration) Cancel(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, id)
	f.canceled = append(f.canceled, id)
	return nil
}

type fakeSearcher struct {
	results []models.Candidate
	err     error
	calls   int
	last    search.Query
}

func (f *fakeSearcher) Search(_ context.Context, q search.Query) ([]models.Candidate, error) {
	f.calls++
	f.last = q
	return f.results, f.err
}

type fakeWriter struct {
	context     []string
	contextErr  error
	contextFor  string
	selected    []string
	selectErr   error
	draft       *models.Draft
	draftErr    error
	panicOn     string
	selectCalls int
	draftCalls  int
	lastDraft   llm.DraftInput
}

func (f *fakeWriter) ContextKeywords(_ context.Context, description string) ([]string, error) {
	f.contextFor = description
	return f.context, f.contextErr
}

func (f *fakeWriter) SelectBest(_ context.Context, candidates []models.Candidate, _, _ string) ([]string, error) {
	f.selectCalls++
	if f.panicOn == "select" {
		panic("boom")
	}
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	if f.selected != nil {
		return f.selected, nil
	}
	var urls []string
	for i, c := range candidates {
		if i == llm.MaxSelected {
			break
		}
		urls = append(urls, c.URL)
	}
	return urls, nil
}

func (f *fakeWriter) Draft(_ context.Context, in llm.DraftInput) (*models.Draft, error) {
	f.draftCalls++
	f.lastDraft = in
	if f.draftErr != nil {
		return nil, f.draftErr
	}
	return f.draft, nil
}

type fakeFetcher struct {
	texts map[string]string
	calls []string
}

func (f *fakeFetcher) FetchText(_ context.Context, url string) (string, error) {
	f.calls = append(f.calls, url)
	text, ok := f.texts[url]
	if !ok {
		return "", errors.New("fetch failed")
	}
	return text, nil
}

type fakeImages struct {
	url     string
	queries []string
}

func (f *fakeImages) FindImage(_ context.Context, query, _ string) string {
	f.queries = append(f.queries, query)
	return f.url
}

type sentModeration struct {
	userID int64
	post   models.Post
	id     string
}

type fakeDelivery struct {
	mu         sync.Mutex
	published  map[int64][]models.Post
	moderation []sentModeration
	notices    map[int64][]string
	publishErr error
	modErr     error
}

func newFakeDelivery() *fakeDelivery {
	return &fakeDelivery{
		published: make(map[int64][]models.Post),
		notices:   make(map[int64][]string),
	}
}

func (f *fakeDelivery) PublishPost(_ context.Context, channelID int64, post models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published[channelID] = append(f.published[channelID], post)
	return nil
}

func (f *fakeDelivery) SendModeration(_ context.Context, userID int64, post models.Post, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.modErr != nil {
		return f.modErr
	}
	f.moderation = append(f.moderation, sentModeration{userID: userID, post: post, id: id})
	return nil
}

func (f *fakeDelivery) Notify(_ context.Context, userID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices[userID] = append(f.notices[userID], text)
	return nil
}

type stubLocker struct {
	busy     bool
	released int
}

func (s *stubLocker) Acquire(context.Context, int64, time.Duration) (func(), bool, error) {
	if s.busy {
		return nil, false, nil
	}
	return func() { s.released++ }, true, nil
}
