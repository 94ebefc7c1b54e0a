// Package schedule decides when users are due a portfolio notification and
// runs the periodic trigger in-process.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/ndewijer/stock-tracker/internal/model"
	"github.com/robfig/cron/v3"
)

const (
	// DefaultSpec fires at the top and the half of every hour.
	DefaultSpec = "0,30 * * * *"
	// DefaultTimezone is the exchange timezone the frequency rules are written in.
	DefaultTimezone = "America/New_York"

	windowMinutes = 30
)

var (
	marketOpen  = clock(9, 30)
	marketClose = clock(16, 0)
)

// clock returns the offset of h:m from midnight.
func clock(h, m int) time.Duration {
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
}

func sinceMidnight(t time.Time) time.Duration {
	return clock(t.Hour(), t.Minute()) + time.Duration(t.Second())*time.Second
}

// inWindow reports whether t falls in the half hour starting at h:m.
func inWindow(t time.Time, h, m int) bool {
	start := clock(h, m)
	now := sinceMidnight(t)
	return now >= start && now < start+windowMinutes*time.Minute
}

// MarketOpen reports whether t lies within regular trading hours,
// 09:30 to 16:00 inclusive.
func MarketOpen(t time.Time) bool {
	now := sinceMidnight(t)
	return now >= marketOpen && now <= marketClose
}

// ShouldNotify reports whether a user with frequency freq is due a
// notification at t. t must already be in market time.
func ShouldNotify(freq model.NotifyFrequency, t time.Time) bool {
	switch freq {
	case model.NotifyOpen:
		return inWindow(t, 9, 30)
	case model.NotifyOpenClose:
		return inWindow(t, 9, 30) || inWindow(t, 15, 30)
	case model.NotifyHourly:
		return MarketOpen(t) && t.Minute() < windowMinutes
	case model.NotifyTwoHours:
		return MarketOpen(t) && t.Hour()%2 != 0 && t.Minute() < windowMinutes
	default:
		return false
	}
}

// Job is invoked on every tick with the tick time in market time.
type Job func(ctx context.Context, now time.Time) error

// Runner fires a Job on a cron schedule.
type Runner struct {
	cron *cron.Cron
	loc  *time.Location
	job  Job
}

// NewRunner parses spec (standard five-field cron syntax) and binds it to
// job. The schedule is evaluated in loc.
func NewRunner(spec string, loc *time.Location, job Job) (*Runner, error) {
	r := &Runner{
		cron: cron.New(cron.WithLocation(loc)),
		loc:  loc,
		job:  job,
	}

	if _, err := r.cron.AddFunc(spec, r.run); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	return r, nil
}

// Start begins firing in the background.
func (r *Runner) Start() {
	r.cron.Start()
	slog.Info("notification scheduler started", slog.String("tz", r.loc.String()))
}

// Stop halts the schedule and waits for a running job to finish or ctx to expire.
func (r *Runner) Stop(ctx context.Context) {
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		slog.Warn("notification job still running at shutdown")
	}
}

// RunNow fires the job once, outside of the schedule.
func (r *Runner) RunNow() {
	r.run()
}

func (r *Runner) run() {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error(
				"Panic recovered in scheduler job",
				slog.Any("panic", rec),
				slog.String("stacktrace", string(debug.Stack())),
			)
		}
	}()

	now := time.Now().In(r.loc)
	slog.Info("job start", slog.String("jobName", "notify"), slog.Time("at", now))

	if err := r.job(context.Background(), now); err != nil {
		slog.Error("job failed", slog.String("jobName", "notify"), slog.Any("error", err))
		return
	}
	slog.Info("job completed", slog.String("jobName", "notify"))
}

// LoadLocation resolves a timezone name, falling back to UTC with a warning.
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		slog.Warn("unknown timezone, using UTC", slog.String("tz", name), slog.String("err", err.Error()))
		return time.UTC
	}
	return loc
}
