package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/maheshrc27/autoposter/internal/models"
	"github.com/maheshrc27/autoposter/internal/repository"
)

type memSubscriptions struct {
	mu   sync.Mutex
	left map[int64]int
}

func newMemSubscriptions() *memSubscriptions {
	return &memSubscriptions{left: make(map[int64]int)}
}

func (m *memSubscriptions) EnsureExists(_ context.Context, userID int64, initial int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.left[userID]; !ok {
		m.left[userID] = initial
	}
	return nil
}

func (m *memSubscriptions) GetGenerationsLeft(_ context.Context, userID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	left, ok := m.left[userID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return left, nil
}

func (m *memSubscriptions) Decrement(_ context.Context, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.left[userID] <= 0 {
		return false, nil
	}
	m.left[userID]--
	return true, nil
}

func (m *memSubscriptions) Add(_ context.Context, userID int64, amount int, initial int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.left[userID]; !ok {
		m.left[userID] = initial
	}
	m.left[userID] += amount
	return m.left[userID], nil
}

type memPromos struct {
	mu       sync.Mutex
	subs     *memSubscriptions
	codes    map[string]*models.PromoCode
	redeemed map[string]bool
}

func newMemPromos(subs *memSubscriptions) *memPromos {
	return &memPromos{subs: subs, codes: make(map[string]*models.PromoCode), redeemed: make(map[string]bool)}
}

func (m *memPromos) Create(_ context.Context, p *models.PromoCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.codes[p.Code]; ok {
		return repository.ErrPromoExists
	}
	m.codes[p.Code] = p
	return nil
}

func (m *memPromos) List(context.Context) ([]*models.PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.PromoCode
	for _, p := range m.codes {
		out = append(out, p)
	}
	return out, nil
}

func (m *memPromos) SetActive(_ context.Context, code string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.codes[code]
	if !ok {
		return repository.ErrNotFound
	}
	p.IsActive = active
	return nil
}

func (m *memPromos) Redeem(ctx context.Context, code string, userID int64, initial int) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.codes[code]
	if !ok || !p.IsActive || p.UsesLeft <= 0 {
		return 0, 0, repository.ErrPromoUnavailable
	}
	key := fmt.Sprintf("%s:%d", code, userID)
	if m.redeemed[key] {
		return 0, 0, repository.ErrPromoRedeemed
	}
	p.UsesLeft--
	m.redeemed[key] = true
	left, err := m.subs.Add(ctx, userID, p.GenerationsAwarded, initial)
	return p.GenerationsAwarded, left, err
}

type memPublished struct {
	mu   sync.Mutex
	rows map[int64]map[string]bool
}

func newMemPublished() *memPublished {
	return &memPublished{rows: make(map[int64]map[string]bool)}
}

func (m *memPublished) Exists(_ context.Context, channelID int64, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[channelID][hash], nil
}

func (m *memPublished) FilterPublished(_ context.Context, channelID int64, hashes []string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool)
	for _, h := range hashes {
		if m.rows[channelID][h] {
			out[h] = true
		}
	}
	return out, nil
}

func (m *memPublished) Create(_ context.Context, channelID int64, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows[channelID] == nil {
		m.rows[channelID] = make(map[string]bool)
	}
	if m.rows[channelID][hash] {
		return false, nil
	}
	m.rows[channelID][hash] = true
	return true, nil
}

func (m *memPublished) count(channelID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows[channelID])
}

type memModeration struct {
	mu   sync.Mutex
	rows map[string]*models.PendingModeration
}

func newMemModeration() *memModeration {
	return &memModeration{rows: make(map[string]*models.PendingModeration)}
}

func (m *memModeration) Create(_ context.Context, p *models.PendingModeration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.rows[p.ID] = &cp
	return nil
}

func (m *memModeration) GetByID(_ context.Context, id string) (*models.PendingModeration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id], nil
}

func (m *memModeration) Claim(_ context.Context, id string) (*models.PendingModeration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.rows[id]
	delete(m.rows, id)
	return p, nil
}

func (m *memModeration) Restore(_ context.Context, p *models.PendingModeration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[p.ID] = p
	return nil
}

func (m *memModeration) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *memModeration) DeleteOlderThan(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, p := range m.rows {
		if p.CreatedAt.Before(before) {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

type fakePublisher struct {
	mu    sync.Mutex
	posts []models.Post
	err   error
}

func (f *fakePublisher) PublishPost(_ context.Context, _ int64, post models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.posts = append(f.posts, post)
	return nil
}

type memScenarios struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*models.Scenario
}

func newMemScenarios() *memScenarios {
	return &memScenarios{rows: make(map[int64]*models.Scenario)}
}

func (m *memScenarios) GetByID(_ context.Context, id int64) (*models.Scenario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *sc
	return &cp, nil
}

func (m *memScenarios) Create(_ context.Context, s *models.Scenario) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.ChannelID == s.ChannelID && existing.Name == s.Name {
			return 0, repository.ErrScenarioNameTaken
		}
	}
	m.nextID++
	cp := *s
	cp.ID = m.nextID
	m.rows[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memScenarios) Update(_ context.Context, s *models.Scenario) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[s.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *s
	m.rows[s.ID] = &cp
	return nil
}

func (m *memScenarios) SetActive(_ context.Context, id int64, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	sc.IsActive = active
	return nil
}

func (m *memScenarios) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memScenarios) ListActive(context.Context) ([]*models.Scenario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Scenario
	for _, sc := range m.rows {
		if sc.IsActive {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (m *memScenarios) ListByChannel(_ context.Context, channelID int64) ([]*models.Scenario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Scenario
	for _, sc := range m.rows {
		if sc.ChannelID == channelID {
			out = append(out, sc)
		}
	}
	return out, nil
}

type memChannels struct {
	rows map[int64]*models.Channel
}

func (m *memChannels) GetByID(_ context.Context, channelID int64) (*models.Channel, error) {
	return m.rows[channelID], nil
}

func (m *memChannels) Upsert(_ context.Context, ch *models.Channel) error {
	if old, ok := m.rows[ch.ChannelID]; ok && old.OwnerID != ch.OwnerID {
		return repository.ErrChannelClaimed
	}
	m.rows[ch.ChannelID] = ch
	return nil
}

type fakeRights struct {
	userIsAdmin bool
	botCanPost  bool
	err         error
	calls       int
}

func (f *fakeRights) ChannelRights(context.Context, int64, int64) (bool, bool, error) {
	f.calls++
	return f.userIsAdmin, f.botCanPost, f.err
}

func adminRights() *fakeRights {
	return &fakeRights{userIsAdmin: true, botCanPost: true}
}

type fakePassports struct {
	passport string
	err      error
	samples  []string
	language string
}

func (f *fakePassports) StylePassport(_ context.Context, samples []string, language string) (string, error) {
	f.samples, f.language = samples, language
	return f.passport, f.err
}

type fakeScheduler struct {
	scheduled   map[int64][]string
	unscheduled []int64
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{scheduled: make(map[int64][]string)}
}

func (f *fakeScheduler) Schedule(_ context.Context, sc *models.Scenario) ([]string, error) {
	var ids []string
	for _, rt := range sc.RunTimes {
		ids = append(ids, "scenario_"+rt)
	}
	f.scheduled[sc.ID] = ids
	return ids, nil
}

func (f *fakeScheduler) Triggers(_ context.Context, scenarioID int64) ([]models.ScheduledTrigger, error) {
	var out []models.ScheduledTrigger
	for _, id := range f.scheduled[scenarioID] {
		out = append(out, models.ScheduledTrigger{Trigger: &models.Trigger{ID: id, ScenarioID: scenarioID}})
	}
	return out, nil
}

func (f *fakeScheduler) Unschedule(_ context.Context, sc *models.Scenario) error {
	delete(f.scheduled, sc.ID)
	f.unscheduled = append(f.unscheduled, sc.ID)
	return nil
}

type fakeDispatcher struct {
	reqs []models.RunRequest
}

func (f *fakeDispatcher) Dispatch(_ context.Context, req models.RunRequest) error {
	f.reqs = append(f.reqs, req)
	return nil
}
