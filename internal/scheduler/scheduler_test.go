package scheduler

import (
	"context"
	"testing"
	"time"

	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_InvalidSpec(t *testing.T) {
	log, _ := logrustest.NewNullLogger()
	s := New("not a cron", log)
	s.SetReportFunction(func(context.Context) error { return nil })

	err := s.Run(context.Background())
	assert.Error(t, err)
	assert.False(t, s.IsRunning())
}

func TestScheduler_DisabledBlocksUntilDone(t *testing.T) {
	log, _ := logrustest.NewNullLogger()
	s := New("", log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}

func TestScheduler_RunsReport(t *testing.T) {
	log, _ := logrustest.NewNullLogger()
	// robfig/cron accepts descriptors such as @every.
	s := New("@every 1s", log)
	fired := make(chan struct{}, 1)
	s.SetReportFunction(func(context.Context) error {
		select {
		case fired <- struct{}{}:
		default:
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("report never fired")
	}
	assert.True(t, s.IsRunning())

	cancel()
	require.NoError(t, <-done)
}
