package batch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/robfig/cron/v3"

	"eventcal/internal/config"
	"eventcal/internal/events"
	"eventcal/internal/ics"
	appLog "eventcal/internal/log"
	"eventcal/internal/metrics"
	"eventcal/internal/model"
)

// Job regenerates the static events.ics served at /events.ics. Unlike the
// on-demand path, it spreads events over a fixed four-week window with
// events.Distribute.
type Job struct {
	Acquirer *events.Acquirer
	Rand     *rand.Rand
	Now      func() time.Time
	Location *time.Location
	Metrics  *metrics.Metrics

	Request      events.Request
	Output       string
	CalendarName string
}

// NewJob builds a Job from the batch section of cfg.
func NewJob(cfg *config.Config, acq *events.Acquirer, rnd *rand.Rand, loc *time.Location, m *metrics.Metrics) (*Job, error) {
	query, err := model.ParseLocationQuery(cfg.Batch.Location)
	if err != nil {
		return nil, fmt.Errorf("batch location: %w", err)
	}
	query.CityName = cfg.Batch.CityName

	return &Job{
		Acquirer: acq,
		Rand:     rnd,
		Now:      time.Now,
		Location: loc,
		Metrics:  m,
		Request: events.Request{
			Query:      query,
			Categories: cfg.Batch.Categories,
			Weeks:      cfg.Batch.Weeks,
		},
		Output:       cfg.Batch.Output,
		CalendarName: cfg.CalendarName,
	}, nil
}

// Run performs one generation and writes the file atomically. It returns
// the number of events written.
func (j *Job) Run(ctx context.Context) (int, error) {
	n, err := j.run(ctx)
	if err != nil {
		j.Metrics.ObserveBatch("error")
		appLog.Error("batch generation failed", err, "output", j.Output)
		return 0, err
	}
	j.Metrics.ObserveBatch("ok")
	return n, nil
}

func (j *Job) run(ctx context.Context) (int, error) {
	started := time.Now()
	loc := j.Location
	if loc == nil {
		loc = time.Local
	}
	now := j.Now().In(loc)

	res := j.Acquirer.Acquire(ctx, j.Request)
	placed := events.Distribute(j.Rand, now, res.Events)
	if len(placed) == 0 {
		return 0, fmt.Errorf("%w: no events to write", model.ErrNotFound)
	}

	content, err := ics.Serialize(placed, ics.Options{
		Name:     calendarTitle(j.CalendarName, j.Request.Query.CityName),
		Timezone: loc.String(),
		Now:      now,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: serialize: %v", model.ErrInternal, err)
	}

	parsed, err := ics.ParseICS([]byte(content))
	if err != nil {
		return 0, fmt.Errorf("%w: verify: %v", model.ErrInternal, err)
	}
	if len(parsed) != len(placed) {
		return 0, fmt.Errorf("%w: verify: wrote %d events, read back %d", model.ErrInternal, len(placed), len(parsed))
	}

	if err := config.WriteFileAtomic(j.Output, []byte(content), 0o644); err != nil {
		return 0, fmt.Errorf("%w: write %s: %v", model.ErrInternal, j.Output, err)
	}

	j.Metrics.ObserveCalendar(string(res.Origin), res.Reason, len(placed), time.Since(started))
	appLog.Info("batch calendar written",
		"output", j.Output,
		"origin", res.Origin,
		"input_count", len(res.Events),
		"event_count", len(placed),
		"took", time.Since(started).String(),
	)
	return len(placed), nil
}

// Scheduler runs a Job on a cron schedule.
type Scheduler struct {
	cron *cron.Cron
	job  *Job
}

// NewScheduler parses schedule (standard 5-field cron) in loc.
func NewScheduler(schedule string, loc *time.Location, job *Job) (*Scheduler, error) {
	if job == nil {
		return nil, errors.New("batch: job is nil")
	}
	if loc == nil {
		loc = time.Local
	}
	c := cron.New(cron.WithLocation(loc))
	s := &Scheduler{cron: c, job: job}

	if _, err := c.AddFunc(schedule, func() {
		_, _ = job.Run(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("batch: invalid schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins running the schedule until ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	appLog.Info("batch scheduler started", "next_run", s.NextRun().Format(time.RFC3339))
	go func() {
		<-ctx.Done()
		stopCtx := s.cron.Stop()
		<-stopCtx.Done()
		appLog.Info("batch scheduler stopped")
	}()
}

// NextRun reports the next scheduled run, or the zero time when idle.
func (s *Scheduler) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	if !entries[0].Next.IsZero() {
		return entries[0].Next
	}
	return entries[0].Schedule.Next(time.Now())
}

func calendarTitle(name, city string) string {
	if city == "" {
		return name
	}
	return name + " - " + city
}
