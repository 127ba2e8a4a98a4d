// Package composer drives the generate flow: quota gate, platform and dialect
// selection, the external generation call and post logging.
package composer

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"social-poster/internal/config"
	"social-poster/internal/errs"
	"social-poster/internal/llm"
	"social-poster/internal/logger"
	"social-poster/internal/metrics"
	"social-poster/internal/platforms"
	"social-poster/internal/quota"
	"social-poster/internal/session"
	"social-poster/internal/storage"
)

// Generator produces a post for one request.
type Generator interface {
	Generate(ctx context.Context, in llm.Input) (llm.Result, error)
}

type Kind int

const (
	KindPrompt Kind = iota
	KindInvalidSelection
	KindQuotaExceeded
	KindStorageFailed
	KindPost
	KindGenerationFailed
	KindNoSession
	KindCancelled
	KindInfo
)

// Reply is what the transport should show the user, in order.
// Keyboard, when non-nil, is the set of one-tap choices to offer.
type Reply struct {
	Kind     Kind
	Step     session.Step
	Messages []string
	Keyboard []string
	Err      error
}

type Options struct {
	DailyLimit     int
	LongTextPolicy string
}

type Deps struct {
	Guard     *quota.Guard
	Machine   *session.Machine
	Catalog   *platforms.Catalog
	Generator Generator
	Posts     storage.PostLog
	Metrics   *metrics.Metrics
	Log       logrus.FieldLogger
	Now       func() time.Time
}

type Composer struct {
	Deps
	opts Options
}

func New(d Deps, opts Options) *Composer {
	if d.Now == nil {
		d.Now = time.Now
	}
	if opts.LongTextPolicy == "" {
		opts.LongTextPolicy = config.PolicyWarn
	}
	return &Composer{Deps: d, opts: opts}
}

// Limit is the configured daily limit.
func (c *Composer) Limit() int { return c.opts.DailyLimit }

// Register creates the user's record on first contact. Failures are logged
// only; registration is retried lazily by the first charged generation.
func (c *Composer) Register(ctx context.Context, userID int64) {
	created, err := c.Guard.Register(ctx, userID)
	if err != nil {
		c.Metrics.StorageError("register")
		c.Log.WithError(err).WithField("user_id", userID).Warn("register user failed")
		return
	}
	if created {
		c.Log.WithField("user_id", userID).Info("new user registered")
	}
}

// Start is the /generate entry point.
func (c *Composer) Start(ctx context.Context, userID int64, isAdmin bool) Reply {
	if reply, ok := c.gate(ctx, userID, isAdmin); !ok {
		return reply
	}
	st := c.Machine.Start(userID)
	return Reply{
		Kind:     KindPrompt,
		Step:     st.Step,
		Messages: []string{textChoosePlatform},
		Keyboard: c.Catalog.PlatformNames(),
	}
}

// gate applies the daily limit. Admins always pass.
func (c *Composer) gate(ctx context.Context, userID int64, isAdmin bool) (Reply, bool) {
	if isAdmin {
		return Reply{}, true
	}
	ok, err := c.Guard.CanProceed(ctx, userID, c.opts.DailyLimit)
	if err != nil {
		c.Metrics.StorageError("quota_check")
		c.Log.WithError(err).WithField("user_id", userID).Error("quota check failed, denying")
		return Reply{Kind: KindStorageFailed, Messages: []string{textStorageFailed}, Err: err}, false
	}
	if !ok {
		c.Metrics.QuotaDenied()
		return Reply{Kind: KindQuotaExceeded, Messages: []string{textQuotaExceeded}, Err: errs.ErrQuotaExceeded}, false
	}
	return Reply{}, true
}

// AwaitingContent reports whether the next text from the user triggers a
// generation. The transport uses it to show a waiting message.
func (c *Composer) AwaitingContent(userID int64) bool {
	return c.Machine.Current(userID).Step == session.AwaitingContent
}

// InFlow reports whether the user is inside the generate flow.
func (c *Composer) InFlow(userID int64) bool {
	return c.Machine.Current(userID).Step != session.Idle
}

// HandleText routes free text by the user's current step.
func (c *Composer) HandleText(ctx context.Context, userID int64, isAdmin bool, text string) Reply {
	st := c.Machine.Current(userID)
	switch st.Step {
	case session.AwaitingPlatform:
		return c.selectPlatform(userID, text)
	case session.AwaitingDialect:
		return c.selectDialect(userID, text)
	case session.AwaitingContent:
		return c.HandleContent(ctx, userID, isAdmin, text)
	default:
		return Reply{Kind: KindNoSession, Step: session.Idle, Messages: []string{textNoSession}, Err: errs.ErrNoSession}
	}
}

func (c *Composer) selectPlatform(userID int64, text string) Reply {
	st, err := c.Machine.SelectPlatform(userID, text)
	if err != nil {
		names := c.Catalog.PlatformNames()
		return Reply{
			Kind:     KindInvalidSelection,
			Step:     st.Step,
			Messages: []string{textInvalidChoice("المنصة", names)},
			Keyboard: names,
			Err:      err,
		}
	}
	if st.Step == session.AwaitingDialect {
		return Reply{Kind: KindPrompt, Step: st.Step, Messages: []string{textChooseDialect}, Keyboard: c.Catalog.DialectNames()}
	}
	p, _ := c.Catalog.Platform(st.Platform)
	return Reply{Kind: KindPrompt, Step: st.Step, Messages: []string{textAskContent(p.Name)}}
}

func (c *Composer) selectDialect(userID int64, text string) Reply {
	st, err := c.Machine.SelectDialect(userID, text)
	if err != nil {
		names := c.Catalog.DialectNames()
		return Reply{
			Kind:     KindInvalidSelection,
			Step:     st.Step,
			Messages: []string{textInvalidChoice("اللهجة", names)},
			Keyboard: names,
			Err:      err,
		}
	}
	p, _ := c.Catalog.Platform(st.Platform)
	return Reply{Kind: KindPrompt, Step: st.Step, Messages: []string{textAskContent(p.Name)}}
}

// HandleContent runs the terminal step. The session is back at Idle after
// this call whatever the outcome. Quota is charged only after a successful
// generation, once.
func (c *Composer) HandleContent(ctx context.Context, userID int64, isAdmin bool, text string) Reply {
	if strings.TrimSpace(text) == "" {
		return Reply{Kind: KindPrompt, Step: session.AwaitingContent, Messages: []string{textEmptyContent}}
	}
	st, err := c.Machine.Take(userID)
	if err != nil {
		return Reply{Kind: KindNoSession, Step: session.Idle, Messages: []string{textNoSession}, Err: err}
	}

	if reply, ok := c.gate(ctx, userID, isAdmin); !ok {
		return reply
	}

	p, ok := c.Catalog.Platform(st.Platform)
	if !ok {
		return Reply{Kind: KindNoSession, Step: session.Idle, Messages: []string{textNoSession}, Err: errs.ErrNoSession}
	}
	in := llm.Input{Text: text, Platform: p}
	if d, ok := c.Catalog.Dialect(st.Dialect); ok {
		in.Dialect = &d
	}

	log := c.Log.WithFields(logrus.Fields{"user_id": userID, "platform": p.Key})
	log.WithField("input", logger.Truncate(text, 80)).Info("generating post")

	started := time.Now()
	res, err := c.Generator.Generate(ctx, in)
	took := time.Since(started)
	if err != nil {
		status, msg := metrics.StatusError, textGenerationFailed
		if errors.Is(err, context.DeadlineExceeded) {
			status, msg = metrics.StatusTimeout, textGenerationTimeout
		}
		c.Metrics.ObserveGeneration(p.Key, status, res.Attempts, took)
		log.WithError(err).WithField("took", took.String()).Warn("generation failed")
		if !errors.Is(err, errs.ErrGeneration) {
			err = errors.Join(errs.ErrGeneration, err)
		}
		return Reply{Kind: KindGenerationFailed, Step: session.Idle, Messages: []string{msg}, Err: err}
	}

	status := metrics.StatusOK
	if res.Verdict != llm.VerdictOK {
		status = metrics.StatusDegraded
	}
	c.Metrics.ObserveGeneration(p.Key, status, res.Attempts, took)

	footer := textUnlimited
	if !isAdmin {
		footer = ""
		used, err := c.Guard.RecordUsage(ctx, userID)
		if err != nil {
			c.Metrics.StorageError("record_usage")
			log.WithError(err).Warn("record usage failed")
		} else {
			left := c.opts.DailyLimit - used
			if left < 0 {
				left = 0
			}
			footer = textRemaining(left, c.opts.DailyLimit)
		}
	}

	entry := storage.PostLogEntry{UserID: userID, Platform: p.Key, Content: res.Text, Timestamp: c.Now().UTC()}
	if err := c.Posts.Append(ctx, entry); err != nil {
		c.Metrics.StorageError("post_append")
		log.WithError(err).Warn("post log append failed")
	}

	log.WithFields(logrus.Fields{"attempts": res.Attempts, "verdict": res.Verdict.String(), "took": took.String()}).Info("post generated")

	msgs := c.render(res.Text, p)
	if footer != "" {
		msgs = append(msgs, footer)
	}
	return Reply{Kind: KindPost, Step: session.Idle, Messages: msgs}
}

// render applies the long text policy. The post is never shortened.
func (c *Composer) render(text string, p platforms.Platform) []string {
	n := utf8.RuneCountInString(text)
	if p.MaxChars <= 0 || n <= p.MaxChars {
		return []string{text}
	}
	if c.opts.LongTextPolicy == config.PolicySplit {
		parts := SplitWords(text, p.MaxChars)
		return append(parts, textSplit(len(parts), p.MaxChars))
	}
	return []string{text, textTooLong(n, p.MaxChars, p.Name)}
}

// Cancel aborts the flow from any step without side effects.
func (c *Composer) Cancel(userID int64) Reply {
	if c.Machine.Cancel(userID) {
		return Reply{Kind: KindCancelled, Step: session.Idle, Messages: []string{textCancelled}}
	}
	return Reply{Kind: KindCancelled, Step: session.Idle, Messages: []string{textNothingToCancel}}
}

// QuotaStatus describes the user's remaining requests for today.
func (c *Composer) QuotaStatus(ctx context.Context, userID int64, isAdmin bool) Reply {
	if isAdmin {
		return Reply{Kind: KindInfo, Messages: []string{textUnlimited}}
	}
	left, err := c.Guard.Remaining(ctx, userID, c.opts.DailyLimit)
	if err != nil {
		c.Metrics.StorageError("quota_remaining")
		return Reply{Kind: KindStorageFailed, Messages: []string{textStorageFailed}, Err: err}
	}
	return Reply{Kind: KindInfo, Messages: []string{textRemaining(left, c.opts.DailyLimit)}}
}
