package botkit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DelayQueueConfig configures a DelayQueue.
type DelayQueueConfig struct {
	// Limit is the number of jobs allowed per Period.
	Limit int

	// Period is the window Limit applies to.
	Period time.Duration

	// Capacity bounds the number of waiting jobs. Defaults to 100.
	Capacity int

	// OnError receives errors returned by jobs.
	OnError func(err error)
}

// DelayQueue runs submitted jobs one at a time, never more than Limit per
// Period, spaced evenly.
type DelayQueue struct {
	limiter *rate.Limiter
	onError func(err error)
	metrics *Metrics

	jobs chan delayedJob
	done chan struct{}

	mu      sync.RWMutex
	started bool
	stopped bool
}

type delayedJob struct {
	ctx      context.Context
	fn       func(ctx context.Context) error
	enqueued time.Time
}

// NewDelayQueue creates a queue. Call Start before submitting.
func NewDelayQueue(cfg DelayQueueConfig) *DelayQueue {
	if cfg.Limit <= 0 {
		cfg.Limit = 1
	}
	if cfg.Period <= 0 {
		cfg.Period = time.Second
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = 100
	}
	return &DelayQueue{
		limiter: rate.NewLimiter(rate.Every(cfg.Period/time.Duration(cfg.Limit)), 1),
		onError: cfg.OnError,
		jobs:    make(chan delayedJob, cfg.Capacity),
		done:    make(chan struct{}),
	}
}

// Start launches the worker. Calling it twice has no effect.
func (q *DelayQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.stopped {
		return
	}
	q.started = true
	go q.run()
}

func (q *DelayQueue) run() {
	defer close(q.done)
	for job := range q.jobs {
		// Draining after Stop still honours the limit.
		_ = q.limiter.Wait(context.Background())
		q.metrics.observeQueueDelay(time.Since(job.enqueued))

		if err := job.fn(job.ctx); err != nil && q.onError != nil {
			q.onError(err)
		}
	}
}

// Submit enqueues fn, blocking while the queue is full. fn runs with ctx.
// It returns ErrQueueStopped after Stop.
func (q *DelayQueue) Submit(ctx context.Context, fn func(ctx context.Context) error) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.stopped {
		return ErrQueueStopped
	}

	select {
	case q.jobs <- delayedJob{ctx: ctx, fn: fn, enqueued: time.Now()}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop rejects new jobs and waits until the queued ones have run.
func (q *DelayQueue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.stopped = true
	started := q.started
	close(q.jobs)
	q.mu.Unlock()

	if !started {
		close(q.done)
		return
	}
	<-q.done
}

// MessageQueueConfig configures the MessageQueue. Zero values use
// Telegram's documented limits.
type MessageQueueConfig struct {
	// GroupLimit per GroupPeriod applies to messages sent to groups.
	// Defaults to 20 per minute.
	GroupLimit  int
	GroupPeriod time.Duration

	// GlobalLimit per GlobalPeriod applies to all messages.
	// Defaults to 30 per second.
	GlobalLimit  int
	GlobalPeriod time.Duration

	// Capacity bounds each queue. Defaults to 100.
	Capacity int

	// OnError receives errors returned by queued jobs.
	OnError func(err error)
}

func (c *MessageQueueConfig) setDefaults() {
	if c.GroupLimit <= 0 {
		c.GroupLimit = 20
	}
	if c.GroupPeriod <= 0 {
		c.GroupPeriod = time.Minute
	}
	if c.GlobalLimit <= 0 {
		c.GlobalLimit = 30
	}
	if c.GlobalPeriod <= 0 {
		c.GlobalPeriod = time.Second
	}
}

// MessageQueue chains a group DelayQueue in front of a global one.
type MessageQueue struct {
	group  *DelayQueue
	global *DelayQueue
}

// NewMessageQueue creates both queues.
func NewMessageQueue(cfg MessageQueueConfig) *MessageQueue {
	cfg.setDefaults()
	return &MessageQueue{
		group: NewDelayQueue(DelayQueueConfig{
			Limit:    cfg.GroupLimit,
			Period:   cfg.GroupPeriod,
			Capacity: cfg.Capacity,
			OnError:  cfg.OnError,
		}),
		global: NewDelayQueue(DelayQueueConfig{
			Limit:    cfg.GlobalLimit,
			Period:   cfg.GlobalPeriod,
			Capacity: cfg.Capacity,
			OnError:  cfg.OnError,
		}),
	}
}

func (q *MessageQueue) setMetrics(m *Metrics) {
	q.group.metrics = m
	q.global.metrics = m
}

// Start launches both queues.
func (q *MessageQueue) Start() {
	q.global.Start()
	q.group.Start()
}

// Stop drains the group queue into the global one, then drains that.
func (q *MessageQueue) Stop() {
	q.group.Stop()
	q.global.Stop()
}

// Submit enqueues fn. Group messages pass through the group queue first.
func (q *MessageQueue) Submit(ctx context.Context, isGroup bool, fn func(ctx context.Context) error) error {
	if !isGroup {
		return q.global.Submit(ctx, fn)
	}
	return q.group.Submit(ctx, func(ctx context.Context) error {
		return q.global.Submit(ctx, fn)
	})
}
