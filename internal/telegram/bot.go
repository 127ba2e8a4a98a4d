package telegram

import (
	"context"
	"errors"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jellydator/ttlcache/v3"
	"github.com/sirupsen/logrus"

	"social-poster/internal/admin"
	"social-poster/internal/composer"
	"social-poster/internal/metrics"
	"social-poster/internal/session"
	"social-poster/internal/subscription"
)

const (
	maxMessageLen      = 4096
	defaultConcurrency = 16
	broadcastPromptTTL = 5 * time.Minute
	pollTimeoutSeconds = 60
)

type Deps struct {
	Composer *composer.Composer
	Console  *admin.Console
	Checker  *subscription.Checker
	Locker   *session.Locker
	Metrics  *metrics.Metrics
	Log      logrus.FieldLogger
	// ChannelLink overrides the join link shown on the subscription prompt.
	ChannelLink string
}

type Options struct {
	// MaxConcurrentUpdates bounds how many updates are handled at once.
	MaxConcurrentUpdates int
}

type Bot struct {
	Deps
	api *tgbotapi.BotAPI
	s   sender
	// admins who pressed "broadcast" and whose next text is the message
	broadcasting *ttlcache.Cache[int64, struct{}]
	sem          chan struct{}
	wg           sync.WaitGroup
}

func New(api *tgbotapi.BotAPI, d Deps, opts Options) *Bot {
	b := newBot(botAPISender{api: api}, d, opts)
	b.api = api
	return b
}

func newBot(s sender, d Deps, opts Options) *Bot {
	if opts.MaxConcurrentUpdates <= 0 {
		opts.MaxConcurrentUpdates = defaultConcurrency
	}
	if d.Locker == nil {
		d.Locker = session.NewLocker()
	}
	return &Bot{
		Deps: d,
		s:    s,
		broadcasting: ttlcache.New[int64, struct{}](
			ttlcache.WithTTL[int64, struct{}](broadcastPromptTTL),
			ttlcache.WithDisableTouchOnHit[int64, struct{}](),
		),
		sem: make(chan struct{}, opts.MaxConcurrentUpdates),
	}
}

// Run long-polls for updates until ctx is done and waits for the handlers
// in flight. Each update runs in its own goroutine, bounded by the
// configured concurrency.
func (b *Bot) Run(ctx context.Context) error {
	if b.api == nil {
		return errors.New("telegram: bot api is not configured")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeoutSeconds
	updates := b.api.GetUpdatesChan(u)
	b.Log.WithField("username", b.api.Self.UserName).Info("bot started")

	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.Log.Info("bot stopping")
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(ctx, upd)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, upd tgbotapi.Update) {
	select {
	case b.sem <- struct{}{}:
	case <-ctx.Done():
		return
	}
	b.wg.Add(1)
	go func() {
		defer func() {
			<-b.sem
			b.wg.Done()
		}()
		b.handleUpdate(ctx, upd)
	}()
}

func (b *Bot) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.Log.WithField("panic", r).Error("update handler panicked")
		}
	}()
	switch {
	case upd.Message != nil:
		b.handleMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		b.handleCallback(ctx, upd.CallbackQuery)
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.Console != nil && b.Console.IsAdmin(userID)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	for _, part := range splitMessage(text) {
		b.send(tgbotapi.NewMessage(chatID, part))
	}
}

func (b *Bot) send(c tgbotapi.Chattable) (tgbotapi.Message, bool) {
	m, err := b.s.Send(c)
	if err != nil {
		b.Log.WithError(err).Warn("failed to send message")
		return m, false
	}
	return m, true
}

// request is for calls whose answer is not a Message: edits, deletions
// and callback answers.
func (b *Bot) request(c tgbotapi.Chattable) {
	if _, err := b.s.Request(c); err != nil {
		b.Log.WithError(err).Debug("telegram request failed")
	}
}

func splitMessage(text string) []string {
	return composer.SplitWords(text, maxMessageLen)
}
