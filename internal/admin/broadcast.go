package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"social-poster/internal/metrics"
)

// BroadcastResult is the final tally of one broadcast.
type BroadcastResult struct {
	ID        string
	Total     int
	Succeeded int
	Failed    int
}

// Broadcast delivers message to every stored user, one at a time, paced by
// the limiter. Per-recipient failures are counted and never stop the loop.
// Cancelling ctx stops early; undelivered recipients are counted as failed
// and ctx.Err() is returned with the partial result.
func (c *Console) Broadcast(ctx context.Context, adminID int64, message string) (BroadcastResult, error) {
	if err := c.authorize(adminID, "broadcast"); err != nil {
		return BroadcastResult{}, err
	}
	return c.broadcast(ctx, uuid.NewString(), adminID, message)
}

func (c *Console) broadcast(ctx context.Context, id string, adminID int64, message string) (BroadcastResult, error) {
	res := BroadcastResult{ID: id}
	if strings.TrimSpace(message) == "" {
		return res, errors.New("empty broadcast message")
	}
	users, err := c.Users.All(ctx)
	if err != nil {
		return res, fmt.Errorf("broadcast recipients: %w", err)
	}
	res.Total = len(users)
	log := c.Log.WithFields(logrus.Fields{"broadcast_id": id, "admin_id": adminID})
	log.WithField("recipients", res.Total).Info("broadcast started")

	for i, u := range users {
		if err := c.limiter.Wait(ctx); err != nil {
			res.Failed += res.Total - i
			log.WithError(err).Warn("broadcast interrupted")
			return res, err
		}
		if err := c.Deliverer.Deliver(ctx, u.UserID, message); err != nil {
			res.Failed++
			c.Metrics.BroadcastDelivery(metrics.DeliveryFailed)
			log.WithError(err).WithField("user_id", u.UserID).Debug("broadcast delivery failed")
			continue
		}
		res.Succeeded++
		c.Metrics.BroadcastDelivery(metrics.DeliveryOK)
	}

	log.WithFields(logrus.Fields{"succeeded": res.Succeeded, "failed": res.Failed}).Info("broadcast finished")
	return res, nil
}

// BroadcastAsync authorizes synchronously, then runs the broadcast in the
// background and reports through onDone. ctx should outlive the request
// that triggered it.
func (c *Console) BroadcastAsync(ctx context.Context, adminID int64, message string, onDone func(BroadcastResult, error)) (string, error) {
	if err := c.authorize(adminID, "broadcast"); err != nil {
		return "", err
	}
	id := uuid.NewString()
	c.jobs.Add(1)
	go func() {
		defer c.jobs.Done()
		res, err := c.broadcast(ctx, id, adminID, message)
		if onDone != nil {
			onDone(res, err)
		}
	}()
	return id, nil
}

// Wait blocks until all background broadcasts have finished.
func (c *Console) Wait() { c.jobs.Wait() }
