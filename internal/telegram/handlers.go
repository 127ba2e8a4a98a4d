package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jellydator/ttlcache/v3"
	"github.com/sirupsen/logrus"

	"social-poster/internal/admin"
	"social-poster/internal/auth"
	"social-poster/internal/composer"
	"social-poster/internal/errs"
)

const (
	cbCheckSubscription = "check_subscription"
	cbAdminStats        = "admin:stats"
	cbAdminReset        = "admin:reset"
	cbAdminClear        = "admin:clear"
	cbAdminBroadcast    = "admin:broadcast"
	cbConfirmPrefix     = "confirm:"
	cbCancelPrefix      = "cancel:"
)

type handlerFunc func(ctx context.Context, msg *tgbotapi.Message)

// requireSubscription lets admins and channel members through and shows
// the join prompt to everyone else. A failed lookup counts as not joined.
func (b *Bot) requireSubscription(next handlerFunc) handlerFunc {
	return func(ctx context.Context, msg *tgbotapi.Message) {
		if b.Checker == nil || !b.Checker.Enabled() || b.isAdmin(msg.From.ID) {
			next(ctx, msg)
			return
		}
		ok, err := b.Checker.IsSubscribed(ctx, msg.From.ID)
		if ok {
			next(ctx, msg)
			return
		}
		text := textSubscribe
		if err != nil {
			text = textSubscriptionError + "\n\n" + textSubscribe
		}
		b.subscriptionPrompt(msg.Chat.ID, text)
	}
}

func (b *Bot) requireAdmin(next handlerFunc) handlerFunc {
	return func(ctx context.Context, msg *tgbotapi.Message) {
		if !b.isAdmin(msg.From.ID) {
			b.Log.WithField("user_id", msg.From.ID).Warn("admin command from non-admin")
			b.sendMessage(msg.Chat.ID, textNotAdmin)
			return
		}
		next(ctx, msg)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
		return
	}
	release, ok := b.Locker.TryAcquire(msg.From.ID)
	if !ok {
		b.Metrics.BusyRejected()
		b.sendMessage(msg.Chat.ID, textBusy)
		return
	}
	defer release()

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	b.handleText(ctx, msg)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	b.Log.WithFields(logrus.Fields{"user_id": msg.From.ID, "command": msg.Command()}).Debug("command")
	switch msg.Command() {
	case "start":
		b.Composer.Register(ctx, msg.From.ID)
		b.requireSubscription(b.handleWelcome)(ctx, msg)
	case "help":
		b.handleHelp(ctx, msg)
	case "generate":
		b.requireSubscription(b.handleGenerate)(ctx, msg)
	case "cancel":
		b.handleCancel(ctx, msg)
	case "quota":
		b.requireSubscription(b.handleQuota)(ctx, msg)
	case "admin":
		b.requireAdmin(b.handleAdminMenu)(ctx, msg)
	case "grant":
		b.requireAdmin(b.handleGrant)(ctx, msg)
	case "revoke":
		b.requireAdmin(b.handleRevoke)(ctx, msg)
	default:
		b.sendMessage(msg.Chat.ID, textUnknownCommand)
	}
}

func (b *Bot) handleWelcome(_ context.Context, msg *tgbotapi.Message) {
	out := tgbotapi.NewMessage(msg.Chat.ID, textWelcome)
	out.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	b.send(out)
}

func (b *Bot) handleHelp(ctx context.Context, msg *tgbotapi.Message) {
	isAdmin := b.isAdmin(msg.From.ID)
	text := textHelp
	if isAdmin {
		text += textAdminHelp
	}
	if q := b.Composer.QuotaStatus(ctx, msg.From.ID, isAdmin); q.Kind == composer.KindInfo && len(q.Messages) > 0 {
		text += "\n\n" + q.Messages[0]
	}
	b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) handleGenerate(ctx context.Context, msg *tgbotapi.Message) {
	b.sendReply(msg.Chat.ID, b.Composer.Start(ctx, msg.From.ID, b.isAdmin(msg.From.ID)))
}

func (b *Bot) handleQuota(ctx context.Context, msg *tgbotapi.Message) {
	b.sendReply(msg.Chat.ID, b.Composer.QuotaStatus(ctx, msg.From.ID, b.isAdmin(msg.From.ID)))
}

func (b *Bot) handleCancel(_ context.Context, msg *tgbotapi.Message) {
	if _, ok := b.broadcasting.GetAndDelete(msg.From.ID); ok {
		b.sendMessage(msg.Chat.ID, textBroadcastCancel)
		return
	}
	b.sendReply(msg.Chat.ID, b.Composer.Cancel(msg.From.ID))
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	if _, ok := b.broadcasting.GetAndDelete(userID); ok {
		b.startBroadcast(ctx, msg)
		return
	}
	if !b.Composer.InFlow(userID) {
		b.sendReply(msg.Chat.ID, b.Composer.HandleText(ctx, userID, false, msg.Text))
		return
	}
	b.requireSubscription(b.handleFlowText)(ctx, msg)
}

// handleFlowText feeds a message to the generate flow. A waiting notice is
// shown while a post is being generated and removed once it is done.
func (b *Bot) handleFlowText(ctx context.Context, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID
	waitingID := 0
	if b.Composer.AwaitingContent(userID) && strings.TrimSpace(msg.Text) != "" {
		if m, ok := b.send(tgbotapi.NewMessage(chatID, textWaiting)); ok {
			waitingID = m.MessageID
		}
	}
	reply := b.Composer.HandleText(ctx, userID, b.isAdmin(userID), msg.Text)
	if waitingID != 0 {
		b.request(tgbotapi.NewDeleteMessage(chatID, waitingID))
	}
	b.sendReply(chatID, reply)
}

// sendReply renders a composer reply. Choices become a one-time reply
// keyboard on the last message; a reply that ends the flow removes it.
func (b *Bot) sendReply(chatID int64, r composer.Reply) {
	if r.Err != nil {
		b.Log.WithError(r.Err).WithField("chat_id", chatID).Debug("reply carries error")
	}
	var parts []string
	for _, m := range r.Messages {
		parts = append(parts, splitMessage(m)...)
	}
	for i, text := range parts {
		out := tgbotapi.NewMessage(chatID, text)
		if i == len(parts)-1 {
			switch {
			case len(r.Keyboard) > 0:
				out.ReplyMarkup = choiceKeyboard(r.Keyboard)
			case endsFlow(r.Kind):
				out.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
			}
		}
		b.send(out)
	}
}

func endsFlow(k composer.Kind) bool {
	switch k {
	case composer.KindPrompt, composer.KindInvalidSelection, composer.KindInfo:
		return false
	}
	return true
}

func choiceKeyboard(choices []string) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(choices))
	for _, c := range choices {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(c)))
	}
	kb := tgbotapi.NewOneTimeReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

func (b *Bot) subscriptionPrompt(chatID int64, text string) {
	var rows [][]tgbotapi.InlineKeyboardButton
	if url := channelURL(b.ChannelLink, b.Checker.Channel()); url != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(textSubscribeButton, url)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(textCheckButton, cbCheckSubscription)))
	out := tgbotapi.NewMessage(chatID, text)
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.send(out)
}

func adminMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(textStatsButton, cbAdminStats)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(textResetButton, cbAdminReset)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(textClearButton, cbAdminClear)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(textBroadcastButton, cbAdminBroadcast)),
	)
}

func (b *Bot) handleAdminMenu(_ context.Context, msg *tgbotapi.Message) {
	out := tgbotapi.NewMessage(msg.Chat.ID, textAdminMenu)
	out.ReplyMarkup = adminMenu()
	b.send(out)
}

func (b *Bot) handleGrant(_ context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		b.sendMessage(msg.Chat.ID, textGrantUsage)
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.sendMessage(msg.Chat.ID, textGrantUsage)
		return
	}
	username := ""
	if len(args) > 1 {
		username = strings.TrimPrefix(args[1], "@")
	}
	if err := b.Console.Grant(msg.From.ID, id, username); err != nil {
		b.Log.WithError(err).Warn("grant failed")
		b.sendMessage(msg.Chat.ID, textAdminFailed)
		return
	}
	b.Log.WithFields(logrus.Fields{"admin_id": msg.From.ID, "user_id": id}).Info("admin granted")
	b.sendMessage(msg.Chat.ID, textGranted)
}

func (b *Bot) handleRevoke(_ context.Context, msg *tgbotapi.Message) {
	id, err := strconv.ParseInt(strings.TrimSpace(msg.CommandArguments()), 10, 64)
	if err != nil {
		b.sendMessage(msg.Chat.ID, textRevokeUsage)
		return
	}
	if err := b.Console.Revoke(msg.From.ID, id); err != nil {
		if errors.Is(err, auth.ErrFixedAdmin) {
			b.sendMessage(msg.Chat.ID, textFixedAdmin)
			return
		}
		b.Log.WithError(err).Warn("revoke failed")
		b.sendMessage(msg.Chat.ID, textAdminFailed)
		return
	}
	b.Log.WithFields(logrus.Fields{"admin_id": msg.From.ID, "user_id": id}).Info("admin revoked")
	b.sendMessage(msg.Chat.ID, textRevoked)
}

// startBroadcast runs in the background on the bot's context and reports
// the tally to the admin when done.
func (b *Bot) startBroadcast(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	_, err := b.Console.BroadcastAsync(ctx, msg.From.ID, msg.Text, func(res admin.BroadcastResult, err error) {
		if err != nil && res.Total == 0 {
			b.Log.WithError(err).Warn("broadcast failed")
			b.sendMessage(chatID, textAdminFailed)
			return
		}
		b.sendMessage(chatID, textBroadcastDone(res, err != nil))
	})
	if err != nil {
		b.sendMessage(chatID, textNotAdmin)
		return
	}
	b.sendMessage(chatID, textBroadcastStarted)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		b.answer(cb, "")
		return
	}
	if cb.Data == cbCheckSubscription {
		b.checkSubscription(ctx, cb)
		return
	}
	if !b.isAdmin(cb.From.ID) {
		b.Log.WithField("user_id", cb.From.ID).Warn("admin callback from non-admin")
		b.answer(cb, textNotAdmin)
		return
	}

	userID := cb.From.ID
	switch {
	case cb.Data == cbAdminStats:
		summary, err := b.Console.StatsSummary(ctx, userID)
		if err != nil {
			b.Log.WithError(err).Warn("stats failed")
			b.answer(cb, textAdminFailed)
			return
		}
		b.answer(cb, "")
		b.sendMessage(cb.Message.Chat.ID, summary)
	case cb.Data == cbAdminReset:
		b.propose(cb, admin.ActionResetCounts)
	case cb.Data == cbAdminClear:
		b.propose(cb, admin.ActionClearLogs)
	case cb.Data == cbAdminBroadcast:
		b.broadcasting.Set(userID, struct{}{}, ttlcache.DefaultTTL)
		b.answer(cb, "")
		b.sendMessage(cb.Message.Chat.ID, textBroadcastPrompt)
	case strings.HasPrefix(cb.Data, cbConfirmPrefix):
		action, n, err := b.Console.Confirm(ctx, userID, strings.TrimPrefix(cb.Data, cbConfirmPrefix))
		b.answer(cb, "")
		switch {
		case errors.Is(err, errs.ErrConfirmationExpired):
			b.editText(cb, textExpired)
		case err != nil:
			b.Log.WithError(err).WithField("action", action).Error("admin action failed")
			b.editText(cb, textAdminFailed)
		default:
			b.editText(cb, textDone(action, n))
		}
	case strings.HasPrefix(cb.Data, cbCancelPrefix):
		action, err := b.Console.Cancel(userID, strings.TrimPrefix(cb.Data, cbCancelPrefix))
		b.answer(cb, "")
		if err != nil {
			b.editText(cb, textExpired)
			return
		}
		b.editText(cb, textAborted(action))
	default:
		b.answer(cb, "")
	}
}

func (b *Bot) propose(cb *tgbotapi.CallbackQuery, action admin.Action) {
	token, err := b.Console.Propose(cb.From.ID, action)
	if err != nil {
		b.answer(cb, textAdminFailed)
		return
	}
	b.answer(cb, "")
	kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(textConfirmButton, cbConfirmPrefix+token),
		tgbotapi.NewInlineKeyboardButtonData(textCancelButton, cbCancelPrefix+token),
	))
	b.request(tgbotapi.NewEditMessageTextAndMarkup(cb.Message.Chat.ID, cb.Message.MessageID, textConfirm(action), kb))
}

func (b *Bot) checkSubscription(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if b.Checker == nil || !b.Checker.Enabled() {
		b.answer(cb, "")
		b.editText(cb, textSubscribed)
		return
	}
	b.Checker.Forget(cb.From.ID)
	ok, err := b.Checker.IsSubscribed(ctx, cb.From.ID)
	switch {
	case err != nil:
		b.alert(cb, textSubscriptionError)
	case !ok:
		b.alert(cb, textNotSubscribed)
	default:
		b.answer(cb, "")
		b.editText(cb, textSubscribed)
	}
}

func (b *Bot) answer(cb *tgbotapi.CallbackQuery, text string) {
	b.request(tgbotapi.NewCallback(cb.ID, text))
}

func (b *Bot) alert(cb *tgbotapi.CallbackQuery, text string) {
	b.request(tgbotapi.NewCallbackWithAlert(cb.ID, text))
}

func (b *Bot) editText(cb *tgbotapi.CallbackQuery, text string) {
	b.request(tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, text))
}
