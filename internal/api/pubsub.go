package api

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/unveil/mediaquiz/internal/domain"
)

type Notification struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// PublishQuizCompleted notifies the subscribers of the session channel and of
// the shared results channel.
func (a *API) PublishQuizCompleted(ctx context.Context, e domain.EventQuizCompleted) error {
	channels := []string{
		a.channel("session", e.Result.SessionID),
		a.channel("results", ""),
	}

	var eg errgroup.Group
	for _, ch := range channels {
		eg.Go(func() error {
			return a.publishNotification(ctx, ch, e.Name(), e.Result)
		})
	}

	return eg.Wait()
}

// PublishPreferencesUpdated lets other instances and clients of the same owner refresh their view.
func (a *API) PublishPreferencesUpdated(ctx context.Context, e domain.EventPreferencesUpdated) error {
	return a.publishNotification(ctx, a.channel("preferences", e.Owner), e.Name(), e.State)
}

func (a *API) publishNotification(ctx context.Context, channel, event string, data any) error {
	n := Notification{
		Event: event,
		Data:  data,
	}

	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("pubsub: marshal %s: %w", event, err)
	}

	if err := a.redis.Publish(ctx, channel, b).Err(); err != nil {
		return fmt.Errorf("pubsub: publish %s to %s: %w", event, channel, err)
	}
	return nil
}

func (a *API) channel(kind, id string) string {
	if id == "" {
		return fmt.Sprintf("%s:%s", a.prefix, kind)
	}
	return fmt.Sprintf("%s:%s:%s", a.prefix, kind, id)
}
