package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

type botAPISender struct{ api *tgbotapi.BotAPI }

func (s botAPISender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return s.api.Send(c)
}

func (s botAPISender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return s.api.Request(c)
}

func (s botAPISender) GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	return s.api.GetChatMember(config)
}

// MemberLookup asks Telegram for a user's status in a channel.
type MemberLookup struct{ s sender }

func NewMemberLookup(api *tgbotapi.BotAPI) *MemberLookup {
	return &MemberLookup{s: botAPISender{api: api}}
}

// MemberStatus accepts "@name" or a numeric chat id.
func (l *MemberLookup) MemberStatus(_ context.Context, channel string, userID int64) (string, error) {
	chat := tgbotapi.ChatConfigWithUser{UserID: userID}
	if id, err := strconv.ParseInt(channel, 10, 64); err == nil {
		chat.ChatID = id
	} else {
		chat.SuperGroupUsername = channel
	}
	m, err := l.s.GetChatMember(tgbotapi.GetChatMemberConfig{ChatConfigWithUser: chat})
	if err != nil {
		return "", err
	}
	return m.Status, nil
}

// Deliverer sends plain messages outside of an update, for broadcasts and
// reports. A flood-wait answer is honoured once.
type Deliverer struct{ s sender }

func NewDeliverer(api *tgbotapi.BotAPI) *Deliverer {
	return &Deliverer{s: botAPISender{api: api}}
}

func (d *Deliverer) Deliver(ctx context.Context, userID int64, text string) error {
	for _, part := range splitMessage(text) {
		if err := d.send(ctx, userID, part); err != nil {
			return err
		}
	}
	return nil
}

func (d *Deliverer) send(ctx context.Context, userID int64, text string) error {
	_, err := d.s.Send(tgbotapi.NewMessage(userID, text))
	wait, ok := retryAfter(err)
	if !ok {
		return err
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}
	_, err = d.s.Send(tgbotapi.NewMessage(userID, text))
	return err
}

func retryAfter(err error) (time.Duration, bool) {
	var tgErr *tgbotapi.Error
	if !errors.As(err, &tgErr) || tgErr.RetryAfter <= 0 {
		return 0, false
	}
	return time.Duration(tgErr.RetryAfter) * time.Second, true
}

// channelURL builds a join link when none is configured.
func channelURL(link, channel string) string {
	if link != "" {
		return link
	}
	if strings.HasPrefix(channel, "@") {
		return "https://t.me/" + strings.TrimPrefix(channel, "@")
	}
	return ""
}
