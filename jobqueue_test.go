package botkit

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func startJobQueue(t *testing.T) (*Bot, *JobQueue) {
	t.Helper()
	bot := newTestBot(t, newFakeAPI(t), nil)
	q := bot.JobQueue()
	q.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = q.Stop(ctx)
	})
	return bot, q
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRunOnce(t *testing.T) {
	_, q := startJobQueue(t)

	var runs atomic.Int32
	var data atomic.Value
	job := q.RunOnce(func(c *Context) error {
		runs.Add(1)
		data.Store(c.Job().Data)
		return nil
	}, 10*time.Millisecond, JobOptions{Name: "once", Data: "payload"})

	waitFor(t, "one-off job", job.Removed)

	if got := runs.Load(); got != 1 {
		t.Errorf("runs = %d, want 1", got)
	}
	if got := data.Load(); got != "payload" {
		t.Errorf("Job().Data = %v, want payload", got)
	}
	if len(q.Jobs()) != 0 {
		t.Errorf("Jobs() = %d entries after one-off run, want 0", len(q.Jobs()))
	}
}

func TestRunRepeating(t *testing.T) {
	_, q := startJobQueue(t)

	var runs atomic.Int32
	job, err := q.RunRepeating(func(*Context) error {
		runs.Add(1)
		return nil
	}, 10*time.Millisecond, 0, JobOptions{Name: "tick"})
	if err != nil {
		t.Fatal(err)
	}

	waitFor(t, "three ticks", func() bool { return runs.Load() >= 3 })

	job.Remove()
	if !job.Removed() {
		t.Error("Removed() = false after Remove")
	}
	time.Sleep(30 * time.Millisecond)
	after := runs.Load()
	time.Sleep(50 * time.Millisecond)
	if got := runs.Load(); got != after {
		t.Errorf("job ran %d more times after Remove", got-after)
	}

	if _, err := q.RunRepeating(nil, 0, 0, JobOptions{}); err == nil {
		t.Error("RunRepeating() with zero interval error = nil")
	}
}

func TestJobSetEnabled(t *testing.T) {
	_, q := startJobQueue(t)

	var runs atomic.Int32
	job, err := q.RunRepeating(func(*Context) error {
		runs.Add(1)
		return nil
	}, 10*time.Millisecond, 0, JobOptions{})
	if err != nil {
		t.Fatal(err)
	}

	job.SetEnabled(false)
	if job.Enabled() {
		t.Fatal("Enabled() = true after SetEnabled(false)")
	}
	time.Sleep(60 * time.Millisecond)
	if got := runs.Load(); got != 0 {
		t.Errorf("disabled job ran %d times", got)
	}

	job.SetEnabled(true)
	waitFor(t, "resumed job", func() bool { return runs.Load() > 0 })
}

func TestJobErrorsReachErrorHandlers(t *testing.T) {
	bot, q := startJobQueue(t)

	boom := errors.New("boom")
	got := make(chan error, 1)
	bot.Dispatcher().AddErrorHandler(func(c *Context) error {
		if c.Job() == nil || c.ChatID() != 42 {
			t.Errorf("error handler context: job = %v, chat = %d", c.Job(), c.ChatID())
		}
		got <- c.HandlerErr
		return nil
	})

	q.RunOnce(func(*Context) error { return boom }, 0, JobOptions{ChatID: 42})

	select {
	case err := <-got:
		if !errors.Is(err, boom) {
			t.Errorf("Err = %v, want boom", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("error handler not called")
	}
}

func TestRunCron(t *testing.T) {
	bot := newTestBot(t, newFakeAPI(t), nil)
	q := bot.JobQueue()

	for _, spec := range []string{"*/5 * * * *", "@hourly", "0 9 * * MON-FRI"} {
		if _, err := q.RunCron(func(*Context) error { return nil }, spec, JobOptions{Name: "cron"}); err != nil {
			t.Errorf("RunCron(%q) error = %v", spec, err)
		}
	}
	for _, spec := range []string{"", "* * *", "61 * * * *", "@fortnightly"} {
		if _, err := q.RunCron(func(*Context) error { return nil }, spec, JobOptions{}); err == nil {
			t.Errorf("RunCron(%q) error = nil", spec)
		}
	}

	if got := len(q.JobsByName("cron")); got != 3 {
		t.Errorf("JobsByName(cron) = %d jobs, want 3", got)
	}

	q.Start()
	defer q.Stop(context.Background())
	hourly := q.JobsByName("cron")[1]
	next := hourly.NextRun()
	if next.IsZero() || next.After(time.Now().Add(time.Hour)) {
		t.Errorf("NextRun() = %v, want within the next hour", next)
	}
}

func TestRunDailyRange(t *testing.T) {
	bot := newTestBot(t, newFakeAPI(t), nil)
	q := bot.JobQueue()

	for _, tod := range []time.Duration{-time.Minute, 24 * time.Hour} {
		if _, err := q.RunDaily(nil, tod, nil, JobOptions{}); err == nil {
			t.Errorf("RunDaily(%s) error = nil", tod)
		}
	}
	if _, err := q.RunDaily(func(*Context) error { return nil }, 9*time.Hour, nil, JobOptions{}); err != nil {
		t.Errorf("RunDaily(9h) error = %v", err)
	}
}

func TestDailyScheduleNext(t *testing.T) {
	// Friday.
	now := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		sched dailySchedule
		want  time.Time
	}{
		{
			name:  "later today",
			sched: dailySchedule{offset: 11 * time.Hour},
			want:  time.Date(2026, 10, 16, 11, 0, 0, 0, time.UTC),
		},
		{
			name:  "already passed today",
			sched: dailySchedule{offset: 9 * time.Hour},
			want:  time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC),
		},
		{
			name:  "exactly now is next day",
			sched: dailySchedule{offset: 10 * time.Hour},
			want:  time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC),
		},
		{
			name:  "weekdays only",
			sched: dailySchedule{offset: 8 * time.Hour, days: []time.Weekday{time.Monday}},
			want:  time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC),
		},
		{
			name:  "same weekday next week",
			sched: dailySchedule{offset: 9 * time.Hour, days: []time.Weekday{time.Friday}},
			want:  time.Date(2026, 10, 23, 9, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sched.Next(now); !got.Equal(tt.want) {
				t.Errorf("Next() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOnceScheduleNext(t *testing.T) {
	now := time.Now()
	s := &onceSchedule{at: now.Add(-time.Second)}
	if got := s.Next(now); !got.Equal(now) {
		t.Errorf("first Next() = %v, want now for a past time", got)
	}
	if got := s.Next(now); !got.IsZero() {
		t.Errorf("second Next() = %v, want zero", got)
	}
}
