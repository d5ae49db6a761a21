package botkit

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// JobOptions describes a scheduled job.
type JobOptions struct {
	// Name identifies the job for JobsByName. Names need not be unique.
	Name string

	// Data is passed through to the callback via Context.Job().Data.
	Data any

	// ChatID and UserID select the chat and user data the callback sees.
	ChatID int64
	UserID int64
}

// Job is a scheduled callback.
type Job struct {
	Name   string
	Data   any
	ChatID int64
	UserID int64

	queue   *JobQueue
	id      cron.EntryID
	fn      HandlerFunc
	once    bool
	lock    sync.Mutex
	enabled atomic.Bool
	removed atomic.Bool
}

// Remove unschedules the job. A run in progress completes.
func (j *Job) Remove() {
	j.queue.remove(j)
}

// SetEnabled pauses or resumes the job. Disabled jobs skip their ticks.
func (j *Job) SetEnabled(enabled bool) {
	j.enabled.Store(enabled)
}

// Enabled reports whether the job runs on its ticks.
func (j *Job) Enabled() bool {
	return j.enabled.Load()
}

// Removed reports whether the job was removed or, for one-off jobs, has run.
func (j *Job) Removed() bool {
	return j.removed.Load()
}

// NextRun returns the time of the next tick, or zero if the scheduler is
// not running or the job was removed.
func (j *Job) NextRun() time.Time {
	return j.queue.cron.Entry(j.id).Next
}

// JobQueue runs callbacks on schedules. Callbacks get a Context whose Job
// is set; their errors go to the dispatcher's error handlers. A job still
// running when its next tick comes skips that tick.
type JobQueue struct {
	cron       *cron.Cron
	parser     cron.Parser
	dispatcher *Dispatcher

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs map[cron.EntryID]*Job
}

func newJobQueue(d *Dispatcher) *JobQueue {
	ctx, cancel := context.WithCancel(context.Background())
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &JobQueue{
		cron:       cron.New(cron.WithParser(parser)),
		parser:     parser,
		dispatcher: d,
		ctx:        ctx,
		cancel:     cancel,
		jobs:       make(map[cron.EntryID]*Job),
	}
}

// Start starts the scheduler. Jobs added before Start are scheduled from
// that moment.
func (q *JobQueue) Start() {
	q.cron.Start()
	q.dispatcher.logger.Debug("job queue started", "jobs", len(q.Jobs()))
}

// Stop stops scheduling and waits for running jobs, or until ctx is done.
func (q *JobQueue) Stop(ctx context.Context) error {
	defer q.cancel()
	select {
	case <-q.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce runs fn once after the given delay.
func (q *JobQueue) RunOnce(fn HandlerFunc, after time.Duration, opts JobOptions) *Job {
	return q.schedule(&onceSchedule{at: time.Now().Add(after)}, fn, opts, true)
}

// RunRepeating runs fn every interval. The first run happens after first,
// or after interval when first is zero.
func (q *JobQueue) RunRepeating(fn HandlerFunc, interval, first time.Duration, opts JobOptions) (*Job, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("botkit: job interval must be positive, got %s", interval)
	}
	if first <= 0 {
		first = interval
	}
	return q.schedule(&repeatSchedule{first: time.Now().Add(first), interval: interval}, fn, opts, false), nil
}

// RunDaily runs fn every day at timeOfDay past local midnight. When days
// is not empty, only on those weekdays.
func (q *JobQueue) RunDaily(fn HandlerFunc, timeOfDay time.Duration, days []time.Weekday, opts JobOptions) (*Job, error) {
	if timeOfDay < 0 || timeOfDay >= 24*time.Hour {
		return nil, fmt.Errorf("botkit: time of day out of range: %s", timeOfDay)
	}
	return q.schedule(dailySchedule{offset: timeOfDay, days: days}, fn, opts, false), nil
}

// RunCron runs fn on a five-field cron expression or a descriptor such
// as "@hourly".
func (q *JobQueue) RunCron(fn HandlerFunc, spec string, opts JobOptions) (*Job, error) {
	sched, err := q.parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("botkit: invalid cron spec %q: %w", spec, err)
	}
	return q.schedule(sched, fn, opts, false), nil
}

func (q *JobQueue) schedule(sched cron.Schedule, fn HandlerFunc, opts JobOptions, once bool) *Job {
	j := &Job{
		Name:   opts.Name,
		Data:   opts.Data,
		ChatID: opts.ChatID,
		UserID: opts.UserID,
		queue:  q,
		fn:     fn,
		once:   once,
	}
	j.enabled.Store(true)

	q.mu.Lock()
	defer q.mu.Unlock()
	j.id = q.cron.Schedule(sched, cron.FuncJob(func() { q.run(j) }))
	q.jobs[j.id] = j
	return j
}

func (q *JobQueue) run(j *Job) {
	if j.once {
		defer q.remove(j)
	}
	if !j.enabled.Load() || j.removed.Load() {
		return
	}

	logger := q.dispatcher.logger
	// TryLock is atomic; if the previous tick is still running, skip this one.
	if !j.lock.TryLock() {
		logger.Warn("job still running, skipping tick", "job", j.Name)
		return
	}
	defer j.lock.Unlock()

	d := q.dispatcher
	c := &Context{
		Context:    q.ctx,
		bot:        d.bot,
		dispatcher: d,
		job:        j,
	}
	defer d.persist(c)

	logger.Debug("job started", "job", j.Name)
	if err := j.fn(c); err != nil && !errors.Is(err, ErrHandlerStop) {
		d.handleError(c, err)
	}
}

func (q *JobQueue) remove(j *Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if j.removed.Swap(true) {
		return
	}
	q.cron.Remove(j.id)
	delete(q.jobs, j.id)
}

// Jobs returns the scheduled jobs in the order they were added.
func (q *JobQueue) Jobs() []*Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	jobs := make([]*Job, 0, len(q.jobs))
	for _, j := range q.jobs {
		jobs = append(jobs, j)
	}
	slices.SortFunc(jobs, func(a, b *Job) int { return int(a.id) - int(b.id) })
	return jobs
}

// JobsByName returns the scheduled jobs named name.
func (q *JobQueue) JobsByName(name string) []*Job {
	return slices.DeleteFunc(q.Jobs(), func(j *Job) bool { return j.Name != name })
}

// onceSchedule fires at a single point in time. cron calls Next once when
// the entry is scheduled and again after each run.
type onceSchedule struct {
	at   time.Time
	used bool
}

func (s *onceSchedule) Next(t time.Time) time.Time {
	if s.used {
		return time.Time{}
	}
	s.used = true
	if s.at.Before(t) {
		return t
	}
	return s.at
}

type repeatSchedule struct {
	first    time.Time
	interval time.Duration
	started  bool
}

func (s *repeatSchedule) Next(t time.Time) time.Time {
	if !s.started {
		s.started = true
		if s.first.Before(t) {
			return t
		}
		return s.first
	}
	return t.Add(s.interval)
}

type dailySchedule struct {
	offset time.Duration
	days   []time.Weekday
}

func (s dailySchedule) Next(t time.Time) time.Time {
	for i := range 8 {
		y, m, d := t.AddDate(0, 0, i).Date()
		at := time.Date(y, m, d, 0, 0, 0, 0, t.Location()).Add(s.offset)
		if !at.After(t) {
			continue
		}
		if len(s.days) == 0 || slices.Contains(s.days, at.Weekday()) {
			return at
		}
	}
	return time.Time{}
}
