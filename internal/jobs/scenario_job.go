package job

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/autoposter/internal/models"
	"github.com/maheshrc27/autoposter/internal/repository"
	"github.com/maheshrc27/autoposter/internal/service"
	"github.com/maheshrc27/autoposter/pkg/llm"
	"github.com/maheshrc27/autoposter/pkg/search"
	"github.com/maheshrc27/autoposter/pkg/telegram"
)

type Stage string

const (
	StageLocking      Stage = "locking"
	StageLoading      Stage = "loading"
	StageGated        Stage = "gated"
	StageSearching    Stage = "searching"
	StageSelecting    Stage = "selecting"
	StageFetching     Stage = "fetching"
	StageDrafting     Stage = "drafting"
	StageIllustrating Stage = "illustrating"
	StageCharged      Stage = "charged"
	StageDelivering   Stage = "delivering"
	StageDone         Stage = "done"
)

type Status string

const (
	StatusDone    Status = "done"
	StatusAborted Status = "aborted"
	StatusSkipped Status = "skipped"
)

// Result reports where a run ended and why.
type Result struct {
	RunID  string
	Stage  Stage
	Status Status
	Reason string
}

const (
	ReasonLocked         = "already_running"
	ReasonMissing        = "scenario_or_channel_missing"
	ReasonInactive       = "scenario_inactive"
	ReasonNoQuota        = "no_quota"
	ReasonNoNews         = "no_news"
	ReasonNoUniqueNews   = "no_unique_news"
	ReasonSelection      = "selection_failed"
	ReasonNoArticle      = "no_usable_article"
	ReasonDraft          = "draft_failed"
	ReasonDelivery       = "delivery_failed"
	ReasonInternal       = "internal_error"
	ReasonPanic          = "panic"
	ReasonSearchProvider = "search_failed"
)

type Writer interface {
	ContextKeywords(ctx context.Context, description string) ([]string, error)
	SelectBest(ctx context.Context, candidates []models.Candidate, theme, language string) ([]string, error)
	Draft(ctx context.Context, in llm.DraftInput) (*models.Draft, error)
}

type ArticleFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

type ImageResolver interface {
	FindImage(ctx context.Context, query, language string) string
}

// Delivery is the Telegram side of a run.
type Delivery interface {
	service.Publisher
	SendModeration(ctx context.Context, userID int64, post models.Post, moderationID string) error
	Notify(ctx context.Context, userID int64, text string) error
}

type ScenarioJobDeps struct {
	Scenarios  repository.ScenarioRepository
	Channels   repository.ChannelRepository
	Quota      service.QuotaService
	Dedup      service.DedupService
	Moderation service.ModerationService
	Searcher   search.Searcher
	Writer     Writer
	Fetcher    ArticleFetcher
	Images     ImageResolver
	Delivery   Delivery
	Locker     RunLocker
}

type ScenarioJobOptions struct {
	DefaultLanguage string
	Recency         time.Duration
	ResultsPerRun   int64
	VideoDomains    []string
	LockTTL         time.Duration
	DeliveryTimeout time.Duration
}

type ScenarioJob struct {
	ScenarioJobDeps
	opts ScenarioJobOptions
}

func NewScenarioJob(deps ScenarioJobDeps, opts ScenarioJobOptions) *ScenarioJob {
	if deps.Locker == nil {
		deps.Locker = NoopRunLocker{}
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 15 * time.Minute
	}
	if opts.DeliveryTimeout <= 0 {
		opts.DeliveryTimeout = 30 * time.Second
	}
	return &ScenarioJob{ScenarioJobDeps: deps, opts: opts}
}

// run carries the state of a single execution.
type run struct {
	*ScenarioJob
	req      models.RunRequest
	log      *slog.Logger
	result   Result
	scenario *models.Scenario
	channel  *models.Channel
	language string
}

// Run executes one scenario end to end. It never returns an error: every
// failure ends the run, is logged and, when useful, reported to the owner.
func (j *ScenarioJob) Run(ctx context.Context, req models.RunRequest) (res Result) {
	r := &run{
		ScenarioJob: j,
		req:         req,
		result:      Result{RunID: uuid.NewString(), Stage: StageLocking},
	}
	r.log = slog.With(
		"run_id", r.result.RunID,
		"scenario_id", req.ScenarioID,
		"user_id", req.UserID,
		"channel_id", req.ChannelID,
		"trigger", req.Trigger,
	)

	defer func() {
		if p := recover(); p != nil {
			r.log.Error("scenario run panicked", "stage", r.result.Stage, "panic", p, "stack", string(debug.Stack()))
			r.notify(ctx, fmt.Sprintf(msgGenericFailure, r.scenarioName()))
			res = r.abort(ReasonPanic)
		}
	}()

	release, ok, err := j.Locker.Acquire(ctx, req.ScenarioID, j.opts.LockTTL)
	switch {
	case err != nil:
		r.log.Warn("run lock unavailable, continuing without it", "error", err)
	case !ok:
		r.log.Info("scenario run already in progress, skipping")
		r.result.Status = StatusSkipped
		r.result.Reason = ReasonLocked
		return r.result
	default:
		defer release()
	}

	start := time.Now()
	res = r.execute(ctx)
	r.log.Info("scenario run finished",
		"stage", res.Stage, "status", res.Status, "reason", res.Reason,
		"duration", time.Since(start).String())
	return res
}

func (r *run) execute(ctx context.Context) Result {
	if !r.load(ctx) {
		return r.result
	}

	// Gate
	r.result.Stage = StageGated
	ok, err := r.Quota.HasQuota(ctx, r.scenario.OwnerID)
	if err != nil {
		return r.fail(ctx, ReasonInternal, "reading quota failed", err)
	}
	if !ok {
		r.notify(ctx, fmt.Sprintf(msgNoQuota, r.scenario.Name))
		return r.abort(ReasonNoQuota)
	}

	// Search and filter
	r.result.Stage = StageSearching
	candidates, err := r.Searcher.Search(ctx, search.Query{
		Theme:    r.scenario.Theme,
		Keywords: r.scenario.Keywords,
		Context:  r.contextKeywords(ctx),
		Sources:  r.scenario.Sources,
		Language: r.language,
		Recency:  r.opts.Recency,
		Limit:    r.opts.ResultsPerRun,
	})
	if err != nil {
		return r.fail(ctx, ReasonSearchProvider, "search failed", err)
	}
	candidates = search.FilterVideo(search.Normalize(candidates), r.opts.VideoDomains)
	if len(candidates) == 0 {
		r.notify(ctx, fmt.Sprintf(msgNoNews, r.scenario.Name))
		return r.abort(ReasonNoNews)
	}

	fresh, err := r.Dedup.FilterNew(ctx, r.channel.ChannelID, candidates)
	if err != nil {
		return r.fail(ctx, ReasonInternal, "dedup filtering failed", err)
	}
	if len(fresh) == 0 {
		r.notify(ctx, fmt.Sprintf(msgNoUniqueNews, r.scenario.Name))
		return r.abort(ReasonNoUniqueNews)
	}
	r.log.Info("candidates found", "total", len(candidates), "fresh", len(fresh))

	// Select
	r.result.Stage = StageSelecting
	selected, err := r.Writer.SelectBest(ctx, fresh, r.scenario.Theme, r.language)
	if err != nil {
		return r.fail(ctx, ReasonSelection, "candidate selection failed", err)
	}

	// Fetch with fallback
	r.result.Stage = StageFetching
	sourceURL, text := r.fetchFirstUsable(ctx, selected)
	if sourceURL == "" {
		r.notify(ctx, fmt.Sprintf(msgNoArticle, r.scenario.Name))
		return r.abort(ReasonNoArticle)
	}

	// Draft
	r.result.Stage = StageDrafting
	draft, err := r.Writer.Draft(ctx, llm.DraftInput{
		ArticleText:         text,
		StylePassport:       r.channel.StylePassport,
		ActivityDescription: r.channel.ActivityDescription,
		SourceURL:           sourceURL,
		Theme:               r.scenario.Theme,
		Keywords:            r.scenario.Keywords,
		Language:            r.language,
	})
	if err != nil {
		r.log.Error("draft generation failed", "source_url", sourceURL, "error", err)
		r.notify(ctx, fmt.Sprintf(msgDraftFailed, r.scenario.Name, err))
		return r.abort(ReasonDraft)
	}

	post := models.Post{Text: telegram.FormatPost(draft)}

	// Illustrate
	r.result.Stage = StageIllustrating
	if r.scenario.MediaStrategy == models.MediaTextPlusMedia && draft.ImageQuery != "" && r.Images != nil {
		post.ImageURL = r.Images.FindImage(ctx, draft.ImageQuery, r.language)
		if post.ImageURL == "" {
			r.log.Info("no image found, posting text only", "image_query", draft.ImageQuery)
		}
	}

	// Charge. From here on the run always attempts delivery.
	r.result.Stage = StageCharged
	if err := r.Quota.Charge(ctx, r.scenario.OwnerID); err != nil {
		r.log.Error("charging generation failed", "error", err)
	}

	r.result.Stage = StageDelivering
	if r.scenario.PostingMode == models.PostingModeration {
		return r.deliverForModeration(ctx, sourceURL, post)
	}
	return r.deliverDirect(ctx, sourceURL, post)
}

// contextKeywords narrows the search to the channel's subject. Failures only
// widen the search, so they are logged and ignored.
func (r *run) contextKeywords(ctx context.Context) []string {
	desc := strings.TrimSpace(r.channel.ActivityDescription)
	if desc == "" {
		return nil
	}
	keywords, err := r.Writer.ContextKeywords(ctx, desc)
	if err != nil {
		r.log.Warn("extracting context keywords failed, searching without them", "error", err)
		return nil
	}
	r.log.Info("search context extracted", "context_keywords", keywords)
	return keywords
}

// load resolves the scenario and channel. Missing rows mean the scenario was
// deleted after the trigger fired; the run ends without telling anyone.
func (r *run) load(ctx context.Context) bool {
	r.result.Stage = StageLoading

	sc, err := r.Scenarios.GetByID(ctx, r.req.ScenarioID)
	if err != nil {
		r.fail(ctx, ReasonInternal, "loading scenario failed", err)
		return false
	}
	if sc == nil {
		r.log.Info("scenario no longer exists")
		r.abort(ReasonMissing)
		return false
	}
	r.scenario = sc

	if !sc.IsActive && r.req.Trigger != models.TriggerManual {
		r.log.Info("scenario is paused, ignoring scheduled trigger")
		r.abort(ReasonInactive)
		return false
	}

	ch, err := r.Channels.GetByID(ctx, sc.ChannelID)
	if err != nil {
		r.fail(ctx, ReasonInternal, "loading channel failed", err)
		return false
	}
	if ch == nil {
		r.log.Info("channel no longer exists", "scenario_channel_id", sc.ChannelID)
		r.abort(ReasonMissing)
		return false
	}
	r.channel = ch

	r.language = ch.GenerationLanguage
	if r.language == "" {
		r.language = r.opts.DefaultLanguage
	}
	return true
}

func (r *run) fetchFirstUsable(ctx context.Context, urls []string) (string, string) {
	for i, u := range urls {
		text, err := r.Fetcher.FetchText(ctx, u)
		if err != nil {
			r.log.Warn("article fetch failed, trying next candidate", "url", u, "position", i+1, "error", err)
			continue
		}

		dup, err := r.Dedup.IsDuplicate(ctx, r.channel.ChannelID, u)
		if err != nil {
			r.log.Warn("dedup check failed, trying next candidate", "url", u, "error", err)
			continue
		}
		if dup {
			r.log.Info("candidate already published, trying next", "url", u)
			continue
		}
		return u, text
	}
	return "", ""
}

func (r *run) deliverDirect(ctx context.Context, sourceURL string, post models.Post) Result {
	dctx, cancel := context.WithTimeout(ctx, r.opts.DeliveryTimeout)
	defer cancel()

	if err := r.Delivery.PublishPost(dctx, r.channel.ChannelID, post); err != nil {
		r.log.Error("publishing post failed", "source_url", sourceURL, "error", err)
		r.notify(ctx, fmt.Sprintf(msgDeliveryFailed, r.scenario.Name))
		return r.abort(ReasonDelivery)
	}

	if err := r.Dedup.Record(ctx, r.channel.ChannelID, sourceURL); err != nil {
		r.log.Error("recording fingerprint failed", "source_url", sourceURL, "error", err)
	}
	r.log.Info("post published", "source_url", sourceURL, "with_image", post.ImageURL != "")
	return r.done()
}

func (r *run) deliverForModeration(ctx context.Context, sourceURL string, post models.Post) Result {
	id, err := r.Moderation.Enqueue(ctx, r.scenario.OwnerID, r.channel.ChannelID, sourceURL, post)
	if err != nil {
		return r.fail(ctx, ReasonDelivery, "queueing post for moderation failed", err)
	}

	dctx, cancel := context.WithTimeout(ctx, r.opts.DeliveryTimeout)
	defer cancel()

	if err := r.Delivery.SendModeration(dctx, r.scenario.OwnerID, post, id); err != nil {
		r.log.Error("sending post for moderation failed", "moderation_id", id, "error", err)
		if err := r.Moderation.Cancel(ctx, id); err != nil {
			r.log.Warn("dropping undelivered moderation post failed", "moderation_id", id, "error", err)
		}
		return r.abort(ReasonDelivery)
	}
	r.log.Info("post sent for moderation", "moderation_id", id, "source_url", sourceURL)
	return r.done()
}

func (r *run) fail(ctx context.Context, reason, msg string, err error) Result {
	r.log.Error(msg, "stage", r.result.Stage, "error", err)
	r.notify(ctx, fmt.Sprintf(msgGenericFailure, r.scenarioName()))
	return r.abort(reason)
}

func (r *run) abort(reason string) Result {
	r.result.Status = StatusAborted
	r.result.Reason = reason
	return r.result
}

func (r *run) done() Result {
	r.result.Stage = StageDone
	r.result.Status = StatusDone
	return r.result
}

func (r *run) notify(ctx context.Context, text string) {
	if r.Delivery == nil {
		return
	}
	userID := r.req.UserID
	if r.scenario != nil {
		userID = r.scenario.OwnerID
	}

	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.opts.DeliveryTimeout)
	defer cancel()
	if err := r.Delivery.Notify(nctx, userID, text); err != nil {
		r.log.Warn("notifying user failed", "error", err)
	}
}

func (r *run) scenarioName() string {
	if r.scenario != nil {
		return r.scenario.Name
	}
	return fmt.Sprintf("#%d", r.req.ScenarioID)
}
