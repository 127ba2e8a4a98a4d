// Package admin implements the privileged operations behind /admin.
//
// Every exported operation that takes an admin id checks it first and does
// nothing else when the caller is not an admin. Destructive operations go
// through Propose then Confirm with a one-time token that expires.
package admin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"social-poster/internal/analytics"
	"social-poster/internal/auth"
	"social-poster/internal/errs"
	"social-poster/internal/metrics"
	"social-poster/internal/quota"
	"social-poster/internal/storage"
)

type Action string

const (
	ActionResetCounts Action = "reset_counts"
	ActionClearLogs   Action = "clear_logs"
)

const DefaultConfirmTTL = 2 * time.Minute

// Admins is the allow-list. *auth.Service implements it.
type Admins interface {
	IsAdmin(userID int64) bool
	Upsert(admin auth.Admin) error
	Remove(userID int64) error
	IDs() []int64
}

// Deliverer sends one plain text message to a user.
type Deliverer interface {
	Deliver(ctx context.Context, userID int64, text string) error
}

type proposal struct {
	adminID int64
	action  Action
}

type Deps struct {
	Admins    Admins
	Users     storage.UserStore
	Posts     storage.PostLog
	Guard     *quota.Guard
	Deliverer Deliverer
	Metrics   *metrics.Metrics
	Log       logrus.FieldLogger
	// Labels maps platform keys to display names for the stats summary.
	Labels map[string]string
	Now    func() time.Time
}

type Options struct {
	ConfirmTTL time.Duration
	// BroadcastRate is deliveries per second; <= 0 means unpaced.
	BroadcastRate float64
}

type Console struct {
	Deps
	pending *ttlcache.Cache[string, proposal]
	limiter *rate.Limiter
	jobs    sync.WaitGroup
}

func New(d Deps, opts Options) *Console {
	if d.Now == nil {
		d.Now = time.Now
	}
	if opts.ConfirmTTL <= 0 {
		opts.ConfirmTTL = DefaultConfirmTTL
	}
	limit := rate.Inf
	if opts.BroadcastRate > 0 {
		limit = rate.Limit(opts.BroadcastRate)
	}
	return &Console{
		Deps: d,
		pending: ttlcache.New[string, proposal](
			ttlcache.WithTTL[string, proposal](opts.ConfirmTTL),
			ttlcache.WithDisableTouchOnHit[string, proposal](),
		),
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (c *Console) authorize(adminID int64, op string) error {
	if c.Admins.IsAdmin(adminID) {
		return nil
	}
	c.Log.WithFields(logrus.Fields{"user_id": adminID, "op": op}).Warn("non-admin denied")
	return fmt.Errorf("%s by %d: %w", op, adminID, errs.ErrAdminAuthorization)
}

// IsAdmin exposes the allow-list check for the transport's middleware.
func (c *Console) IsAdmin(userID int64) bool { return c.Admins.IsAdmin(userID) }

// ViewStats scans both stores. Read-only.
func (c *Console) ViewStats(ctx context.Context, adminID int64) (*analytics.Stats, error) {
	if err := c.authorize(adminID, "view stats"); err != nil {
		return nil, err
	}
	return c.stats(ctx)
}

func (c *Console) stats(ctx context.Context) (*analytics.Stats, error) {
	users, err := c.Users.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats users: %w", err)
	}
	posts, err := c.Posts.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats posts: %w", err)
	}
	return analytics.Compute(users, posts, c.Now()), nil
}

// StatsSummary is ViewStats rendered for chat.
func (c *Console) StatsSummary(ctx context.Context, adminID int64) (string, error) {
	st, err := c.ViewStats(ctx, adminID)
	if err != nil {
		return "", err
	}
	return st.Summary(c.Labels), nil
}

// Propose registers a pending destructive action and returns its token.
func (c *Console) Propose(adminID int64, action Action) (string, error) {
	if err := c.authorize(adminID, "propose "+string(action)); err != nil {
		return "", err
	}
	switch action {
	case ActionResetCounts, ActionClearLogs:
	default:
		return "", fmt.Errorf("unknown admin action %q", action)
	}
	token := uuid.NewString()
	c.pending.Set(token, proposal{adminID: adminID, action: action}, ttlcache.DefaultTTL)
	return token, nil
}

// Confirm executes the proposal behind token. Tokens are single use and
// bound to the proposing admin. It returns the action and the number of
// affected records.
func (c *Console) Confirm(ctx context.Context, adminID int64, token string) (Action, int, error) {
	if err := c.authorize(adminID, "confirm"); err != nil {
		return "", 0, err
	}
	item, ok := c.pending.GetAndDelete(token)
	if !ok || item.Value().adminID != adminID {
		return "", 0, fmt.Errorf("token %s: %w", token, errs.ErrConfirmationExpired)
	}
	p := item.Value()
	log := c.Log.WithFields(logrus.Fields{"admin_id": adminID, "action": p.action})

	switch p.action {
	case ActionResetCounts:
		n, err := c.Guard.ResetAll(ctx)
		if err != nil {
			return p.action, n, err
		}
		log.WithField("affected", n).Info("all counters reset")
		return p.action, n, nil
	case ActionClearLogs:
		posts, err := c.Posts.All(ctx)
		if err != nil {
			return p.action, 0, err
		}
		if err := c.Posts.Clear(ctx); err != nil {
			return p.action, 0, err
		}
		log.WithField("affected", len(posts)).Info("post log cleared")
		return p.action, len(posts), nil
	}
	return p.action, 0, fmt.Errorf("unknown admin action %q", p.action)
}

// Cancel drops a pending proposal. Unknown tokens are reported as expired.
func (c *Console) Cancel(adminID int64, token string) (Action, error) {
	if err := c.authorize(adminID, "cancel"); err != nil {
		return "", err
	}
	item, ok := c.pending.GetAndDelete(token)
	if !ok || item.Value().adminID != adminID {
		return "", fmt.Errorf("token %s: %w", token, errs.ErrConfirmationExpired)
	}
	return item.Value().action, nil
}

// Grant adds a runtime admin.
func (c *Console) Grant(adminID, userID int64, username string) error {
	if err := c.authorize(adminID, "grant"); err != nil {
		return err
	}
	return c.Admins.Upsert(auth.Admin{ID: userID, Username: username, AddedBy: adminID})
}

// Revoke removes a runtime admin. Admins from ADMIN_IDS cannot be revoked.
func (c *Console) Revoke(adminID, userID int64) error {
	if err := c.authorize(adminID, "revoke"); err != nil {
		return err
	}
	return c.Admins.Remove(userID)
}

// SendDailyReport delivers the stats summary to every admin. It runs as the
// system, not on behalf of a user.
func (c *Console) SendDailyReport(ctx context.Context) error {
	st, err := c.stats(ctx)
	if err != nil {
		return err
	}
	if js, err := st.ToJSON(); err == nil {
		c.Log.WithField("stats", js).Info("daily report")
	}
	text := "🗓️ التقرير اليومي\n\n" + st.Summary(c.Labels)
	for _, id := range c.Admins.IDs() {
		if err := c.Deliverer.Deliver(ctx, id, text); err != nil {
			c.Log.WithError(err).WithField("admin_id", id).Warn("daily report delivery failed")
		}
	}
	return nil
}
