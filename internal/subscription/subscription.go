// Package subscription gates the bot behind membership in a channel.
package subscription

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/sirupsen/logrus"

	"social-poster/internal/errs"
	"social-poster/internal/metrics"
)

// MemberLookup returns the user's status in the channel, e.g. "member",
// "administrator", "creator", "left" or "kicked".
type MemberLookup interface {
	MemberStatus(ctx context.Context, channel string, userID int64) (string, error)
}

const positiveTTL = 10 * time.Minute

// Checker answers "is this user subscribed?". Positive answers are cached
// for a short while; negative answers and errors never are, so a user who
// just joined is let in on the next check.
type Checker struct {
	lookup  MemberLookup
	channel string
	cache   *ttlcache.Cache[int64, struct{}]
	metrics *metrics.Metrics
	log     logrus.FieldLogger
}

// New returns a Checker for channel. An empty channel disables the gate.
func New(lookup MemberLookup, channel string, m *metrics.Metrics, log logrus.FieldLogger) *Checker {
	return &Checker{
		lookup:  lookup,
		channel: normalizeChannel(channel),
		cache: ttlcache.New[int64, struct{}](
			ttlcache.WithTTL[int64, struct{}](positiveTTL),
			ttlcache.WithDisableTouchOnHit[int64, struct{}](),
		),
		metrics: m,
		log:     log,
	}
}

// normalizeChannel turns "name", "@name" or "https://t.me/name" into "@name".
// Numeric chat ids are kept as they are.
func normalizeChannel(ch string) string {
	ch = strings.TrimSpace(ch)
	ch = strings.TrimPrefix(ch, "https://t.me/")
	ch = strings.TrimPrefix(ch, "t.me/")
	if ch == "" || strings.HasPrefix(ch, "@") || strings.HasPrefix(ch, "-") {
		return ch
	}
	return "@" + ch
}

func (c *Checker) Enabled() bool { return c.channel != "" }

func (c *Checker) Channel() string { return c.channel }

// IsSubscribed reports membership. A lookup failure is reported as not
// subscribed together with an error wrapping errs.ErrSubscriptionCheck.
func (c *Checker) IsSubscribed(ctx context.Context, userID int64) (bool, error) {
	if !c.Enabled() {
		return true, nil
	}
	if c.cache.Has(userID) {
		return true, nil
	}
	status, err := c.lookup.MemberStatus(ctx, c.channel, userID)
	if err != nil {
		c.metrics.SubscriptionCheckFailed()
		c.log.WithError(err).WithField("user_id", userID).Warn("membership lookup failed")
		return false, fmt.Errorf("membership of %d in %s: %w: %w", userID, c.channel, errs.ErrSubscriptionCheck, err)
	}
	if !IsMemberStatus(status) {
		return false, nil
	}
	c.cache.Set(userID, struct{}{}, ttlcache.DefaultTTL)
	return true, nil
}

// Forget drops a cached positive answer.
func (c *Checker) Forget(userID int64) { c.cache.Delete(userID) }

// IsMemberStatus reports whether a chat member status counts as subscribed.
func IsMemberStatus(status string) bool {
	switch status {
	case "member", "administrator", "creator", "restricted":
		return true
	}
	return false
}
