package botkit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// invoke runs a request, sleeping through flood waits up to maxFloodWait
// instead of propagating them to the caller. Transient failures are retried
// with exponential backoff.
func (c *Client) invoke(ctx context.Context, method string, req *request) (json.RawMessage, error) {
	for {
		res, err := c.invokeWithBackoff(ctx, method, req)
		if err == nil {
			return res, nil
		}

		wait, ok := RetryAfter(err)
		if !ok || wait > c.maxFloodWait {
			return nil, err
		}
		c.log.Info("flood wait", zap.String("method", method), zap.Duration("wait", wait))
		if err := sleepContext(ctx, wait); err != nil {
			return nil, err
		}
	}
}

func (c *Client) invokeWithBackoff(ctx context.Context, method string, req *request) (json.RawMessage, error) {
	if c.maxRetries < 0 {
		return c.do(ctx, method, req)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 10 * time.Second
	policy.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.maxRetries)), ctx)

	op := func() (json.RawMessage, error) {
		res, err := c.do(ctx, method, req)
		if err != nil && !retryable(ctx, err) {
			return nil, backoff.Permanent(err)
		}
		return res, err
	}
	notify := func(err error, next time.Duration) {
		c.log.Debug("retrying request",
			zap.String("method", method),
			zap.Duration("backoff", next),
			zap.Error(err))
	}
	return backoff.RetryNotifyWithData(op, b, notify)
}

// retryable reports whether err is a transient transport or server failure.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrServer)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
