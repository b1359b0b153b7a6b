// Package schedule runs a job at fixed times of day.
//
// A schedule is a list of "HH:MM" start times, optionally restricted to
// Monday through Friday. Each time becomes a standard cron spec
// ("30 9 * * 1-5") executed by [github.com/robfig/cron/v3].
//
//	s, err := schedule.Parse([]string{"07:00", "09:30"}, true, time.Local)
//	next := s.Next(time.Now())
//	err = s.Run(ctx, rebuild)
package schedule

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"
)

// Schedule is a parsed set of daily start times.
type Schedule struct {
	specs    []string
	parsed   []cron.Schedule
	location *time.Location
	logger   *log.Logger
}

// Option configures a Schedule.
type Option func(*Schedule)

// WithLogger sets the logger used for job runs and failures.
func WithLogger(l *log.Logger) Option {
	return func(s *Schedule) { s.logger = l }
}

// Parse builds a schedule from "HH:MM" times. Duplicate times collapse.
// A nil location means time.Local.
func Parse(times []string, weekdaysOnly bool, loc *time.Location, opts ...Option) (*Schedule, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("schedule has no start times")
	}
	if loc == nil {
		loc = time.Local
	}

	var minutes []int
	for _, t := range times {
		m, err := parseClock(t)
		if err != nil {
			return nil, err
		}
		minutes = append(minutes, m)
	}
	slices.Sort(minutes)
	minutes = slices.Compact(minutes)

	dow := "*"
	if weekdaysOnly {
		dow = "1-5"
	}

	s := &Schedule{location: loc, logger: log.Default()}
	for _, opt := range opts {
		opt(s)
	}
	for _, m := range minutes {
		spec := fmt.Sprintf("%d %d * * %s", m%60, m/60, dow)
		sched, err := cron.ParseStandard("CRON_TZ=" + loc.String() + " " + spec)
		if err != nil {
			return nil, fmt.Errorf("cron spec %q: %w", spec, err)
		}
		s.specs = append(s.specs, spec)
		s.parsed = append(s.parsed, sched)
	}
	return s, nil
}

// parseClock returns minutes since midnight for "HH:MM".
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid start time %q (want HH:MM)", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Specs returns the cron specs, earliest time first.
func (s *Schedule) Specs() []string {
	return slices.Clone(s.specs)
}

// Next returns the first start time strictly after now.
func (s *Schedule) Next(now time.Time) time.Time {
	var next time.Time
	for _, sched := range s.parsed {
		t := sched.Next(now)
		if next.IsZero() || t.Before(next) {
			next = t
		}
	}
	return next
}

// Run calls fn at every start time until ctx is canceled. A run that is
// still in progress when the next time arrives causes that time to be
// skipped. Errors from fn are logged and do not stop the schedule.
//
// Run returns ctx.Err() after waiting for an in-progress run to finish.
func (s *Schedule) Run(ctx context.Context, fn func(context.Context) error) error {
	logger := cronLogger{s.logger}
	c := cron.New(
		cron.WithLocation(s.location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	for _, spec := range s.specs {
		if _, err := c.AddFunc(spec, func() {
			start := time.Now()
			s.logger.Info("scheduled run", "spec", spec)
			if err := fn(ctx); err != nil {
				s.logger.Error("scheduled run failed", "spec", spec, "err", err)
				return
			}
			s.logger.Info("scheduled run complete", "spec", spec, "took", time.Since(start).Round(time.Millisecond))
		}); err != nil {
			return fmt.Errorf("add %q: %w", spec, err)
		}
	}

	c.Start()
	s.logger.Debug("schedule started", "next", s.Next(time.Now()).Format(time.RFC3339))
	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

// cronLogger adapts a charm logger to cron.Logger.
type cronLogger struct {
	l *log.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, "err", err)...)
}
