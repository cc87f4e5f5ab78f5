package quiz

import (
	"context"
	"time"
)

const tickInterval = time.Second

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }

func (t timeTicker) Stop() { t.t.Stop() }

// countdown is one armed question timer. It calls tick once per interval until
// tick returns false or the countdown is cancelled.
type countdown struct {
	cancel context.CancelFunc
}

func startCountdown(t Ticker, tick func() bool) *countdown {
	ctx, cancel := context.WithCancel(context.Background())
	c := &countdown{cancel: cancel}

	go func() {
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C():
				if !tick() {
					return
				}
			}
		}
	}()

	return c
}

// stop cancels the countdown. It does not wait for the goroutine, so it is safe
// to call while holding the session lock.
func (c *countdown) stop() {
	if c != nil {
		c.cancel()
	}
}
