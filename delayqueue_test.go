package botkit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestDelayQueueRate(t *testing.T) {
	q := NewDelayQueue(DelayQueueConfig{Limit: 5, Period: 100 * time.Millisecond})
	q.Start()

	var (
		mu    sync.Mutex
		times []time.Time
	)
	start := time.Now()
	for range 5 {
		err := q.Submit(context.Background(), func(context.Context) error {
			mu.Lock()
			times = append(times, time.Now())
			mu.Unlock()
			return nil
		})
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}
	q.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(times) != 5 {
		t.Fatalf("ran %d jobs, want 5", len(times))
	}
	// One job every 20ms after the first.
	if elapsed := times[4].Sub(start); elapsed < 70*time.Millisecond {
		t.Errorf("5 jobs ran in %s, want at least 70ms", elapsed)
	}
}

func TestDelayQueueStopped(t *testing.T) {
	q := NewDelayQueue(DelayQueueConfig{})
	q.Start()
	q.Stop()
	q.Stop()

	err := q.Submit(context.Background(), func(context.Context) error { return nil })
	if !errors.Is(err, ErrQueueStopped) {
		t.Errorf("Submit() after Stop error = %v, want ErrQueueStopped", err)
	}
}

func TestDelayQueueOnError(t *testing.T) {
	boom := errors.New("boom")
	var got []error
	q := NewDelayQueue(DelayQueueConfig{
		Limit:   100,
		OnError: func(err error) { got = append(got, err) },
	})
	q.Start()
	_ = q.Submit(context.Background(), func(context.Context) error { return boom })
	_ = q.Submit(context.Background(), func(context.Context) error { return nil })
	q.Stop()

	if len(got) != 1 || !errors.Is(got[0], boom) {
		t.Errorf("OnError got %v, want [boom]", got)
	}
}

func TestDelayQueueSubmitContext(t *testing.T) {
	q := NewDelayQueue(DelayQueueConfig{Capacity: 1})
	// Not started: the first job fills the buffer.
	if err := q.Submit(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Submit(ctx, func(context.Context) error { return nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Submit() on full queue error = %v, want DeadlineExceeded", err)
	}
	q.Stop()
}

func TestMessageQueue(t *testing.T) {
	q := NewMessageQueue(MessageQueueConfig{GlobalLimit: 100})
	q.Start()

	rec := &recorder{}
	for _, tc := range []struct {
		name    string
		isGroup bool
	}{{"private", false}, {"group", true}} {
		name := tc.name
		err := q.Submit(context.Background(), tc.isGroup, func(context.Context) error {
			rec.add(name)
			return nil
		})
		if err != nil {
			t.Fatalf("Submit(%s) error = %v", name, err)
		}
	}
	q.Stop()

	got := rec.get()
	if len(got) != 2 {
		t.Fatalf("ran %v, want both jobs", got)
	}
}
