package subscription

import (
	"context"
	"errors"
	"testing"

	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-poster/internal/errs"
	"social-poster/internal/metrics"
)

type fakeLookup struct {
	status      map[int64]string
	err         error
	calls       int
	lastChannel string
}

func (f *fakeLookup) MemberStatus(_ context.Context, channel string, userID int64) (string, error) {
	f.calls++
	f.lastChannel = channel
	if f.err != nil {
		return "", f.err
	}
	return f.status[userID], nil
}

func newChecker(l MemberLookup, channel string) *Checker {
	log, _ := logrustest.NewNullLogger()
	return New(l, channel, metrics.New(nil), log)
}

func TestChecker_Statuses(t *testing.T) {
	l := &fakeLookup{status: map[int64]string{1: "member", 2: "left", 3: "creator", 4: "kicked", 5: "administrator"}}
	c := newChecker(l, "mychannel")

	for id, want := range map[int64]bool{1: true, 2: false, 3: true, 4: false, 5: true} {
		got, err := c.IsSubscribed(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, want, got, "user %d", id)
	}
	assert.Equal(t, "@mychannel", l.lastChannel)
}

func TestChecker_CachesOnlyPositive(t *testing.T) {
	l := &fakeLookup{status: map[int64]string{1: "member", 2: "left"}}
	c := newChecker(l, "@ch")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := c.IsSubscribed(ctx, 1)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, 1, l.calls)

	for i := 0; i < 2; i++ {
		ok, err := c.IsSubscribed(ctx, 2)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, 3, l.calls)

	// joined in the meantime
	l.status[2] = "member"
	ok, err := c.IsSubscribed(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	c.Forget(1)
	_, _ = c.IsSubscribed(ctx, 1)
	assert.Equal(t, 5, l.calls)
}

func TestChecker_LookupErrorMeansNotSubscribed(t *testing.T) {
	l := &fakeLookup{err: errors.New("bot is not a channel admin")}
	c := newChecker(l, "@ch")

	ok, err := c.IsSubscribed(context.Background(), 1)
	assert.False(t, ok)
	assert.ErrorIs(t, err, errs.ErrSubscriptionCheck)
}

func TestChecker_DisabledWithoutChannel(t *testing.T) {
	l := &fakeLookup{err: errors.New("must not be called")}
	c := newChecker(l, "  ")

	ok, err := c.IsSubscribed(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, c.Enabled())
	assert.Zero(t, l.calls)
}

func TestNormalizeChannel(t *testing.T) {
	assert.Equal(t, "@name", normalizeChannel("name"))
	assert.Equal(t, "@name", normalizeChannel("@name"))
	assert.Equal(t, "@name", normalizeChannel("https://t.me/name"))
	assert.Equal(t, "-100123", normalizeChannel("-100123"))
	assert.Equal(t, "", normalizeChannel(""))
}
