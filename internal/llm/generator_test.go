package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-poster/internal/errs"
	"social-poster/internal/platforms"
)

type fakeClient struct {
	replies []string
	err     error
	block   bool
	calls   int
	lastReq Request
}

func (f *fakeClient) Generate(ctx context.Context, req Request) (Response, error) {
	f.calls++
	f.lastReq = req
	if f.block {
		<-ctx.Done()
		return Response{}, ctx.Err()
	}
	if f.err != nil {
		return Response{}, f.err
	}
	i := f.calls - 1
	if i >= len(f.replies) {
		i = len(f.replies) - 1
	}
	return Response{Content: f.replies[i], Model: "fake", TotalTokens: 10}, nil
}

const goodPost = "🌱 نصائح سريعة لريادة الأعمال: ابدأ صغيراً وفكر كبيراً #ريادة"

func twitter(t *testing.T) platforms.Platform {
	t.Helper()
	p, ok := platforms.NewCatalog(nil).Platform("twitter")
	require.True(t, ok)
	return p
}

func newTestGenerator(c Client, attempts int, timeout time.Duration) *Generator {
	log, _ := logrustest.NewNullLogger()
	return NewGenerator(c, timeout, attempts, 0.7, log)
}

func TestGenerator_FirstAttemptOK(t *testing.T) {
	fc := &fakeClient{replies: []string{goodPost}}
	g := newTestGenerator(fc, 3, time.Second)

	res, err := g.Generate(context.Background(), Input{Text: "ريادة", Platform: twitter(t)})
	require.NoError(t, err)
	assert.Equal(t, VerdictOK, res.Verdict)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, goodPost, res.Text)
	assert.Equal(t, 300, fc.lastReq.MaxTokens)
	assert.Equal(t, float32(0.7), fc.lastReq.Temperature)
	require.Len(t, fc.lastReq.Messages, 2)
	assert.Equal(t, RoleSystem, fc.lastReq.Messages[0].Role)
	assert.Equal(t, "ريادة", fc.lastReq.Messages[1].Content)
}

func TestGenerator_RetriesLowQuality(t *testing.T) {
	fc := &fakeClient{replies: []string{"Sorry, I cannot help", "قصير", goodPost}}
	g := newTestGenerator(fc, 3, time.Second)

	res, err := g.Generate(context.Background(), Input{Text: "x", Platform: twitter(t)})
	require.NoError(t, err)
	assert.Equal(t, 3, fc.calls)
	assert.Equal(t, VerdictOK, res.Verdict)
	assert.Equal(t, 3, res.Attempts)
}

func TestGenerator_DeliversBestLowQualityAttempt(t *testing.T) {
	fc := &fakeClient{replies: []string{"قصير", "قصير جدا"}}
	g := newTestGenerator(fc, 2, time.Second)

	res, err := g.Generate(context.Background(), Input{Text: "x", Platform: twitter(t)})
	require.NoError(t, err)
	assert.Equal(t, VerdictTooShort, res.Verdict)
	assert.Equal(t, "قصير جدا", res.Text)
	assert.Equal(t, 2, res.Attempts)
}

func TestGenerator_NoUsableOutput(t *testing.T) {
	fc := &fakeClient{replies: []string{"English only output here"}}
	g := newTestGenerator(fc, 2, time.Second)

	_, err := g.Generate(context.Background(), Input{Text: "x", Platform: twitter(t)})
	require.ErrorIs(t, err, errs.ErrGeneration)
	assert.Equal(t, 2, fc.calls)
}

func TestGenerator_TransportErrorIsNotRetried(t *testing.T) {
	fc := &fakeClient{err: errors.New("502 bad gateway")}
	g := newTestGenerator(fc, 3, time.Second)

	_, err := g.Generate(context.Background(), Input{Text: "x", Platform: twitter(t)})
	require.ErrorIs(t, err, errs.ErrGeneration)
	assert.Equal(t, 1, fc.calls)
}

func TestGenerator_Timeout(t *testing.T) {
	fc := &fakeClient{block: true}
	g := newTestGenerator(fc, 3, 20*time.Millisecond)

	start := time.Now()
	_, err := g.Generate(context.Background(), Input{Text: "x", Platform: twitter(t)})
	require.ErrorIs(t, err, errs.ErrGeneration)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
