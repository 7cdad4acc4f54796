package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/message/html"
	"github.com/gotd/td/telegram/message/markup"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/maheshrc27/autoposter/internal/models"
	"github.com/maheshrc27/autoposter/internal/repository"
)

var ErrNotReady = errors.New("telegram client is not connected yet")

// ModerationCallback resolves an approve/discard press. It returns the text
// shown to the user and whether the post left the queue, in which case the
// buttons are removed.
type ModerationCallback func(ctx context.Context, userID int64, moderationID string, approve bool) (text string, settled bool)

type Options struct {
	AppID     int
	AppHash   string
	BotToken  string
	SecretKey []byte
}

type Bot struct {
	client     *telegram.Client
	token      string
	dispatcher tg.UpdateDispatcher

	mu       sync.RWMutex
	api      *tg.Client
	sender   *message.Sender
	channels map[int64]int64
	users    map[int64]int64
	onMod    ModerationCallback
}

func NewBot(opts Options, sessions repository.SessionRepository) (*Bot, error) {
	botID, err := botIDFromToken(opts.BotToken)
	if err != nil {
		return nil, err
	}

	b := &Bot{
		token:      opts.BotToken,
		dispatcher: tg.NewUpdateDispatcher(),
		channels:   make(map[int64]int64),
		users:      make(map[int64]int64),
	}
	b.client = telegram.NewClient(opts.AppID, opts.AppHash, telegram.Options{
		SessionStorage: &DBSessionStorage{Repo: sessions, BotID: botID, Key: opts.SecretKey},
		UpdateHandler:  b.dispatcher,
	})
	b.dispatcher.OnBotCallbackQuery(b.handleCallback)
	b.dispatcher.OnNewMessage(func(ctx context.Context, e tg.Entities, _ *tg.UpdateNewMessage) error {
		b.remember(e)
		return nil
	})
	b.dispatcher.OnNewChannelMessage(func(ctx context.Context, e tg.Entities, _ *tg.UpdateNewChannelMessage) error {
		b.remember(e)
		return nil
	})
	return b, nil
}

func (b *Bot) OnModeration(fn ModerationCallback) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onMod = fn
}

// Run connects, authorizes as a bot and blocks until ctx is done. ready is
// closed once the bot can send messages.
func (b *Bot) Run(ctx context.Context, ready chan<- struct{}) error {
	return b.client.Run(ctx, func(ctx context.Context) error {
		status, err := b.client.Auth().Status(ctx)
		if err != nil {
			return fmt.Errorf("auth status: %w", err)
		}
		if !status.Authorized {
			if _, err := b.client.Auth().Bot(ctx, b.token); err != nil {
				return fmt.Errorf("bot login: %w", err)
			}
		}

		api := b.client.API()
		b.mu.Lock()
		b.api = api
		b.sender = message.NewSender(api)
		b.mu.Unlock()

		slog.Info("telegram bot connected")
		close(ready)

		<-ctx.Done()
		return ctx.Err()
	})
}

func (b *Bot) PublishPost(ctx context.Context, channelID int64, post models.Post) error {
	sender, err := b.getSender()
	if err != nil {
		return err
	}
	return b.send(ctx, &sender.To(b.channelPeer(channelID)).Builder, post)
}

func (b *Bot) SendModeration(ctx context.Context, userID int64, post models.Post, moderationID string) error {
	sender, err := b.getSender()
	if err != nil {
		return err
	}
	keyboard := markup.InlineRow(
		markup.Callback("✅ Publish", ModerationCallbackData(moderationID, true)),
		markup.Callback("🗑 Discard", ModerationCallbackData(moderationID, false)),
	)
	return b.send(ctx, sender.To(b.userPeer(userID)).Markup(keyboard), post)
}

func (b *Bot) Notify(ctx context.Context, userID int64, text string) error {
	sender, err := b.getSender()
	if err != nil {
		return err
	}
	_, err = sender.To(b.userPeer(userID)).Text(ctx, text)
	return err
}

// send posts a photo with caption when it fits, otherwise the photo first
// and the text as a separate message.
func (b *Bot) send(ctx context.Context, to *message.Builder, post models.Post) error {
	if post.ImageURL == "" {
		_, err := to.StyledText(ctx, html.String(nil, post.Text))
		return err
	}

	if FitsCaption(post.Text) {
		_, err := to.Media(ctx, message.PhotoExternal(post.ImageURL, html.String(nil, post.Text)))
		return err
	}

	if _, err := to.Media(ctx, message.PhotoExternal(post.ImageURL)); err != nil {
		slog.Warn("sending photo failed, continuing with text", "error", err)
	}
	_, err := to.StyledText(ctx, html.String(nil, post.Text))
	return err
}

// ChannelRights reports whether the user administers the channel and whether
// the bot may post there.
func (b *Bot) ChannelRights(ctx context.Context, chatID, userID int64) (userIsAdmin, botCanPost bool, err error) {
	api, err := b.getAPI()
	if err != nil {
		return false, false, err
	}
	ch := b.inputChannel(chatID)

	user, err := participant(ctx, api, ch, b.userPeer(userID))
	if err != nil {
		return false, false, err
	}
	self, err := participant(ctx, api, ch, &tg.InputPeerSelf{})
	if err != nil {
		return false, false, err
	}
	return isChannelAdmin(user, false), isChannelAdmin(self, true), nil
}

// participant returns nil when the peer is not a member of the channel.
func participant(ctx context.Context, api *tg.Client, ch tg.InputChannelClass, peer tg.InputPeerClass) (tg.ChannelParticipantClass, error) {
	res, err := api.ChannelsGetParticipant(ctx, &tg.ChannelsGetParticipantRequest{Channel: ch, Participant: peer})
	if err != nil {
		if tgerr.Is(err, "USER_NOT_PARTICIPANT") {
			return nil, nil
		}
		return nil, fmt.Errorf("get channel participant: %w", err)
	}
	return res.Participant, nil
}

func (b *Bot) handleCallback(ctx context.Context, e tg.Entities, u *tg.UpdateBotCallbackQuery) error {
	b.remember(e)

	id, approve, ok := ParseModerationCallback(u.Data)
	if !ok {
		return b.answer(ctx, u.QueryID, "")
	}

	b.mu.RLock()
	fn := b.onMod
	b.mu.RUnlock()
	if fn == nil {
		return b.answer(ctx, u.QueryID, "")
	}

	text, settled := fn(ctx, u.UserID, id, approve)
	if err := b.answer(ctx, u.QueryID, text); err != nil {
		slog.Warn("answering callback failed", "error", err)
	}
	// Keep the buttons while the post is still pending so the owner can retry.
	if !settled {
		return nil
	}

	api, err := b.getAPI()
	if err != nil {
		return err
	}
	req := &tg.MessagesEditMessageRequest{Peer: b.userPeer(u.UserID), ID: u.MsgID}
	req.SetReplyMarkup(&tg.ReplyInlineMarkup{})
	if _, err := api.MessagesEditMessage(ctx, req); err != nil {
		slog.Debug("removing moderation buttons failed", "error", err)
	}
	return nil
}

func (b *Bot) answer(ctx context.Context, queryID int64, text string) error {
	api, err := b.getAPI()
	if err != nil {
		return err
	}
	_, err = api.MessagesSetBotCallbackAnswer(ctx, &tg.MessagesSetBotCallbackAnswerRequest{
		QueryID: queryID,
		Message: text,
	})
	return err
}

func (b *Bot) remember(e tg.Entities) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range e.Channels {
		b.channels[id] = ch.AccessHash
	}
	for id, u := range e.Users {
		b.users[id] = u.AccessHash
	}
}

// Bots may address peers with a zero access hash, so unknown ids still work.
func (b *Bot) channelPeer(chatID int64) tg.InputPeerClass {
	id := ChannelPeerID(chatID)
	b.mu.RLock()
	defer b.mu.RUnlock()
	return &tg.InputPeerChannel{ChannelID: id, AccessHash: b.channels[id]}
}

func (b *Bot) inputChannel(chatID int64) tg.InputChannelClass {
	id := ChannelPeerID(chatID)
	b.mu.RLock()
	defer b.mu.RUnlock()
	return &tg.InputChannel{ChannelID: id, AccessHash: b.channels[id]}
}

func (b *Bot) userPeer(userID int64) tg.InputPeerClass {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return &tg.InputPeerUser{UserID: userID, AccessHash: b.users[userID]}
}

func (b *Bot) getSender() (*message.Sender, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.sender == nil {
		return nil, ErrNotReady
	}
	return b.sender, nil
}

func (b *Bot) getAPI() (*tg.Client, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.api == nil {
		return nil, ErrNotReady
	}
	return b.api, nil
}
