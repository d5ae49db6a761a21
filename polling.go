package botkit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const maxConsecutivePollingErrors = 5

// poll runs the getUpdates loop, sending updates to out until ctx is done.
// It returns an error only when polling cannot continue.
func (b *Bot) poll(ctx context.Context, out chan<- *Update) error {
	cfg := b.config.Polling
	logger := b.config.Logger

	if cfg.DropPendingUpdates {
		if err := b.DeleteWebhook(ctx, true); err != nil {
			return fmt.Errorf("botkit: drop pending updates: %w", err)
		}
	}

	pause := backoff.NewExponentialBackOff()
	pause.InitialInterval = time.Second
	pause.MaxInterval = 30 * time.Second
	pause.MaxElapsedTime = 0

	var offset int
	var consecutiveErrors int

	for {
		if ctx.Err() != nil {
			return nil
		}

		updates, err := b.GetUpdates(ctx, &GetUpdatesParams{
			Offset:         offset,
			Limit:          cfg.Limit,
			Timeout:        cfg.Timeout,
			AllowedUpdates: cfg.AllowedUpdates,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, ErrUnauthorized) {
				return fmt.Errorf("botkit: polling stopped: %w", err)
			}

			consecutiveErrors++
			if errors.Is(err, ErrConflict) {
				logger.Warn("getUpdates conflict, another instance is polling or a webhook is set",
					"error", err,
					"consecutive_errors", consecutiveErrors)
			} else {
				logger.Error("polling getUpdates failed",
					"error", err,
					"consecutive_errors", consecutiveErrors)
			}

			if consecutiveErrors >= maxConsecutivePollingErrors {
				d := pause.NextBackOff()
				logger.Warn("polling paused after consecutive errors", "pause", d)
				if err := sleepContext(ctx, d); err != nil {
					return nil
				}
			}
			continue
		}

		consecutiveErrors = 0
		pause.Reset()

		for i := range updates {
			offset = updates[i].UpdateID + 1
			select {
			case out <- &updates[i]:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
