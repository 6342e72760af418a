// Package refresh reloads the article list on a cron schedule.
package refresh

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/broadsheet/internal/mainloop"
	"github.com/robfig/cron/v3"
)

// Refresher posts a reload onto the UI scheduler whenever the schedule fires.
type Refresher struct {
	cron     *cron.Cron
	schedule string
	sched    mainloop.Scheduler
	reload   func()
	logger   *slog.Logger
	entry    cron.EntryID
}

// New creates a refresher. An empty schedule disables it.
func New(schedule string, sched mainloop.Scheduler, reload func(), logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		cron:     cron.New(),
		schedule: schedule,
		sched:    sched,
		reload:   reload,
		logger:   logger,
	}
}

// Enabled reports whether a schedule is configured.
func (r *Refresher) Enabled() bool {
	return r.schedule != ""
}

// Start registers the job and starts the cron runner.
func (r *Refresher) Start() error {
	if !r.Enabled() {
		return nil
	}

	id, err := r.cron.AddFunc(r.schedule, r.Trigger)
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", r.schedule, err)
	}
	r.entry = id

	r.logger.Info("starting refresh scheduler", "cron", r.schedule)
	r.cron.Start()
	return nil
}

// Trigger posts one reload immediately.
func (r *Refresher) Trigger() {
	r.logger.Debug("scheduled refresh")
	r.sched.Post(r.reload)
}

// Next returns the next time the job fires, or the zero time when stopped
// or disabled.
func (r *Refresher) Next() time.Time {
	if r.entry == 0 {
		return time.Time{}
	}
	return r.cron.Entry(r.entry).Next
}

// Stop halts the runner, waiting briefly for a running job to finish.
func (r *Refresher) Stop() {
	if !r.Enabled() {
		return
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
	}
	r.logger.Info("refresh scheduler stopped")
}
