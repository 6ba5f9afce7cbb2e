// Package sched provides the cancellable, reschedulable one-shot deferred
// work used by the temp-layer controller (activate/deactivate) and the
// settings debounce (spec §5, §9: "Deferred work handles are modeled as
// cancellable timers bound to an executor supplied by the host...
// reschedule... replaces the prior deadline").
//
// Grounded on viamrobotics-rdk/robot/jobmanager/jobmanager.go, which
// wraps a github.com/go-co-op/gocron/v2 Scheduler with a Start/Shutdown
// lifecycle and per-job identity via github.com/google/uuid. The pipeline
// itself never blocks on this package (spec §5): Schedule/Reschedule/
// Cancel only enqueue or drop work-queue entries.
package sched

import (
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/dshills/inputproc/internal/plog"
)

// Handle identifies one scheduled unit of deferred work. The zero Handle
// is never valid: Cancel silently no-ops on it, and Reschedule treats it
// as nothing to cancel and just schedules the new work.
type Handle struct {
	id    uuid.UUID
	valid bool
}

// Executor schedules cancellable one-shot callbacks. Implementations must
// be safe for the single-threaded work-queue model described in spec §5:
// callers serialize access to a given Instance, so Executor itself does
// not need to protect against concurrent Schedule/Cancel from the same
// instance, only against re-entrancy from the timer goroutine invoking a
// callback while a caller is scheduling a new one.
type Executor interface {
	// Schedule runs fn after delay elapses, returning a Handle that can
	// later be cancelled or rescheduled. delay <= 0 runs at the next
	// scheduler tick (effectively immediate), matching the "schedule
	// activation at the next scheduler tick" wording in spec §4.3.
	Schedule(delay time.Duration, fn func()) Handle
	// Reschedule cancels h (if still pending) and schedules fn to run
	// after delay, returning the new Handle. This is the "idempotent
	// re-schedule replaces the prior deadline" behavior from spec §5.
	Reschedule(h Handle, delay time.Duration, fn func()) Handle
	// Cancel drops h if it has not yet fired. No-op if h already fired,
	// was already cancelled, or is the zero Handle.
	Cancel(h Handle)
}

// GocronExecutor is the production Executor, backed by a gocron
// scheduler.
type GocronExecutor struct {
	scheduler gocron.Scheduler
	log       plog.Logger
}

// NewGocronExecutor creates and starts a scheduler-backed Executor. Call
// Shutdown when the host is tearing down.
func NewGocronExecutor(log plog.Logger) (*GocronExecutor, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	e := &GocronExecutor{scheduler: s, log: log}
	e.scheduler.Start()
	return e, nil
}

// Schedule implements Executor.
func (e *GocronExecutor) Schedule(delay time.Duration, fn func()) Handle {
	// A start time of "now" is already in the past by the time gocron
	// validates it, so delay <= 0 uses gocron's immediate start instead.
	at := gocron.OneTimeJobStartImmediately()
	if delay > 0 {
		at = gocron.OneTimeJobStartDateTime(time.Now().Add(delay))
	}
	job, err := e.scheduler.NewJob(
		gocron.OneTimeJob(at),
		gocron.NewTask(fn),
	)
	if err != nil {
		e.log.Error("sched: failed to schedule job", "err", err)
		return Handle{}
	}
	return Handle{id: job.ID(), valid: true}
}

// Reschedule implements Executor.
func (e *GocronExecutor) Reschedule(h Handle, delay time.Duration, fn func()) Handle {
	e.Cancel(h)
	return e.Schedule(delay, fn)
}

// Cancel implements Executor.
func (e *GocronExecutor) Cancel(h Handle) {
	if !h.valid {
		return
	}
	if err := e.scheduler.RemoveJob(h.id); err != nil {
		// Job already fired or was already removed; not an error the
		// caller needs to see.
		e.log.Debug("sched: cancel of already-completed job", "id", h.id, "err", err)
	}
}

// Shutdown stops the underlying scheduler and waits for in-flight jobs.
func (e *GocronExecutor) Shutdown() error {
	return e.scheduler.Shutdown()
}
