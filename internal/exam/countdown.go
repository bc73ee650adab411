package exam

import (
	"context"
	"time"
)

// RunCountdown calls Tick once per interval until the session is submitted
// or ctx is done. Start it when the session enters StateInProgress; ticks
// that arrive in any other state are skipped. onTick may be nil.
func RunCountdown(ctx context.Context, c *Controller, interval time.Duration, onTick func(remaining int)) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			state := c.State()
			if state.Terminal() {
				return
			}
			if state != StateInProgress {
				continue
			}
			remaining := c.Tick()
			if onTick != nil {
				onTick(remaining)
			}
			if remaining == 0 {
				return
			}
		}
	}
}
