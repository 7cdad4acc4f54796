package telegram

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/gotd/td/telegram/message/entity"
	tghtml "github.com/gotd/td/telegram/message/html"
	"github.com/gotd/td/tg"
	"github.com/maheshrc27/autoposter/internal/models"
)

const (
	CaptionLimit = 1024

	callbackPrefix  = "mod"
	callbackApprove = "approve"
	callbackDiscard = "discard"
)

// FormatPost renders a draft as Telegram HTML.
func FormatPost(d *models.Draft) string {
	if d.Raw != "" {
		return html.EscapeString(d.Raw)
	}
	body := html.EscapeString(d.Body)
	if d.Title == "" {
		return body
	}
	return fmt.Sprintf("<b>%s</b>\n\n%s", html.EscapeString(d.Title), body)
}

func ModerationCallbackData(id string, approve bool) []byte {
	action := callbackDiscard
	if approve {
		action = callbackApprove
	}
	return []byte(callbackPrefix + ":" + action + ":" + id)
}

func ParseModerationCallback(data []byte) (id string, approve bool, ok bool) {
	parts := strings.SplitN(string(data), ":", 3)
	if len(parts) != 3 || parts[0] != callbackPrefix || parts[2] == "" {
		return "", false, false
	}
	switch parts[1] {
	case callbackApprove:
		return parts[2], true, true
	case callbackDiscard:
		return parts[2], false, true
	}
	return "", false, false
}

// ChannelPeerID converts a Bot API chat id (-100xxxxxxxxxx) to the bare
// MTProto channel id. Ids already in bare form are returned unchanged.
func ChannelPeerID(chatID int64) int64 {
	const offset = 1000000000000
	if chatID < -offset {
		return -chatID - offset
	}
	if chatID < 0 {
		return -chatID
	}
	return chatID
}

func runeLen(s string) int {
	return len([]rune(s))
}

// FitsCaption reports whether the HTML text can be sent as a photo caption.
// Telegram counts the rendered text, not the markup.
func FitsCaption(text string) bool {
	return runeLen(plainText(text)) <= CaptionLimit
}

func plainText(text string) string {
	var b entity.Builder
	if err := tghtml.HTML(strings.NewReader(text), &b, tghtml.Options{}); err != nil {
		return text
	}
	plain, _ := b.Complete()
	return plain
}

// isChannelAdmin reports whether a participant is the creator or an admin.
// With needPost an admin must also hold the post-messages right.
func isChannelAdmin(p tg.ChannelParticipantClass, needPost bool) bool {
	switch p := p.(type) {
	case *tg.ChannelParticipantCreator:
		return true
	case *tg.ChannelParticipantAdmin:
		return !needPost || p.AdminRights.PostMessages
	}
	return false
}

func botIDFromToken(token string) (int64, error) {
	idPart, _, ok := strings.Cut(token, ":")
	if !ok {
		return 0, fmt.Errorf("bot token has no id part")
	}
	return strconv.ParseInt(idPart, 10, 64)
}
