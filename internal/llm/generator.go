package llm

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"social-poster/internal/errs"
	"social-poster/internal/logger"
)

// Verdict tags the outcome of one quality check.
type Verdict int

const (
	VerdictOK Verdict = iota
	VerdictEmpty
	VerdictTooShort
	VerdictForeignScript
)

func (v Verdict) String() string {
	switch v {
	case VerdictOK:
		return "ok"
	case VerdictEmpty:
		return "empty"
	case VerdictTooShort:
		return "too_short"
	case VerdictForeignScript:
		return "foreign_script"
	default:
		return "unknown"
	}
}

const (
	minPostRunes   = 20
	minArabicShare = 0.6
)

func assess(raw, clean string) Verdict {
	switch {
	case clean == "":
		return VerdictEmpty
	case arabicShare(raw) < minArabicShare:
		return VerdictForeignScript
	case utf8.RuneCountInString(clean) < minPostRunes:
		return VerdictTooShort
	}
	return VerdictOK
}

// Result is the tagged outcome of Generate. Verdict is VerdictOK unless
// every attempt failed the quality check, in which case Text holds the
// longest usable attempt.
type Result struct {
	Text        string
	Verdict     Verdict
	Attempts    int
	Model       string
	TotalTokens int
}

// Generator wraps a Client with the prompt, sanitization, a deadline and a
// bounded quality-retry loop.
type Generator struct {
	client      Client
	timeout     time.Duration
	maxAttempts int
	temperature float32
	log         logrus.FieldLogger
}

func NewGenerator(client Client, timeout time.Duration, maxAttempts int, temperature float32, log logrus.FieldLogger) *Generator {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Generator{
		client:      client,
		timeout:     timeout,
		maxAttempts: maxAttempts,
		temperature: temperature,
		log:         log,
	}
}

// Generate produces a post for in. The timeout covers all attempts. Transport
// errors and the deadline end the loop at once and are reported as
// errs.ErrGeneration; only low-quality output is retried.
func (g *Generator) Generate(ctx context.Context, in Input) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := Request{
		Messages:    BuildMessages(in),
		MaxTokens:   in.Platform.MaxTokens,
		Temperature: g.temperature,
	}
	log := g.log.WithField("platform", in.Platform.Key)

	var best Result
	last := VerdictEmpty
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		resp, err := g.client.Generate(ctx, req)
		if err != nil {
			log.WithError(err).WithField("attempt", attempt).Warn("generation call failed")
			return Result{Attempts: attempt}, fmt.Errorf("generate for %s: %w: %w", in.Platform.Key, errs.ErrGeneration, err)
		}

		clean := Sanitize(resp.Content)
		last = assess(resp.Content, clean)
		log.WithFields(logrus.Fields{
			"attempt": attempt,
			"verdict": last.String(),
			"tokens":  resp.TotalTokens,
			"preview": logger.Truncate(clean, 50),
		}).Debug("generation attempt")

		res := Result{Text: clean, Verdict: last, Attempts: attempt, Model: resp.Model, TotalTokens: resp.TotalTokens}
		if last == VerdictOK {
			return res, nil
		}
		if utf8.RuneCountInString(clean) > utf8.RuneCountInString(best.Text) {
			best = res
		}
	}

	if best.Text == "" {
		return Result{Verdict: last, Attempts: g.maxAttempts},
			fmt.Errorf("generate for %s: %w: no usable output after %d attempts", in.Platform.Key, errs.ErrGeneration, g.maxAttempts)
	}
	best.Attempts = g.maxAttempts
	log.WithField("verdict", best.Verdict.String()).Warn("delivering best low-quality attempt")
	return best, nil
}
