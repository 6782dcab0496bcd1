package psychics

import (
	"log/slog"
	"runtime/debug"
)

// TickScheduler runs delayed and periodic tasks for one owner.
// It is drained once per tick by its owner and never runs on its own.
//
// Concurrency:
// A scheduler is owned by a single Psychic and is only touched from the
// goroutine driving that Psychic's updates. It does no locking.
type TickScheduler struct {
	clock *Clock
	log   *slog.Logger
	queue taskQueue
	seq   uint64

	// running is the task whose action is executing, nil between tasks.
	running *Task
}

// NewTickScheduler creates a scheduler reading time from clock.
func NewTickScheduler(clock *Clock, log *slog.Logger) *TickScheduler {
	if log == nil {
		log = slog.Default()
	}
	return &TickScheduler{clock: clock, log: log}
}

// RunTask schedules action to run once, delay ticks from now.
// A negative delay is treated as 0.
func (s *TickScheduler) RunTask(action func(), delay int64) *Task {
	return s.schedule(action, delay, periodOnce)
}

// RunTaskTimer schedules action to run delay ticks from now and then every period
// ticks until cancelled. The period is at least 1.
//
// Usage:
//
//	task := s.RunTaskTimer(func() {
//	    spawnParticles()
//	}, 0, 5)
//	// later
//	task.Cancel()
func (s *TickScheduler) RunTaskTimer(action func(), delay, period int64) *Task {
	return s.schedule(action, delay, max(1, period))
}

func (s *TickScheduler) schedule(action func(), delay, period int64) *Task {
	if action == nil {
		panic("psychics: nil task action")
	}
	t := &Task{
		scheduler: s,
		action:    action,
		nextRun:   s.clock.Now() + max(0, delay),
		period:    period,
		index:     -1,
	}
	s.push(t)
	return t
}

func (s *TickScheduler) push(t *Task) {
	s.seq++
	t.seq = s.seq
	s.queue.push(t)
}

// Run executes every task due at the current tick.
// Repeating tasks are re-queued relative to the current tick, so a late pass
// runs each task once instead of catching up on missed runs.
func (s *TickScheduler) Run() {
	now := s.clock.Now()
	for s.queue.len() > 0 {
		if s.queue.peek().nextRun > now {
			break
		}
		t := s.queue.pop()
		if !t.Scheduled() {
			continue
		}

		s.running = t
		safeCall(s.log, "scheduled task", t.action)
		s.running = nil

		switch {
		case t.period > 0:
			t.nextRun = now + t.period
			s.push(t)
		case t.period == periodOnce:
			t.period = periodDone
		}
	}
}

// CancelAll cancels every queued task and empties the queue. Called from a
// repeating task, it also keeps that task from being queued again.
func (s *TickScheduler) CancelAll() {
	if t := s.running; t != nil && t.period > 0 {
		t.period = periodCancel
	}
	for _, t := range s.queue.clear() {
		if t.Scheduled() {
			t.period = periodCancel
		}
	}
}

// Len returns the number of queued tasks, including cancelled tasks that have
// not been popped yet.
func (s *TickScheduler) Len() int {
	return s.queue.len()
}

// safeCall runs fn, logging a recovered panic instead of letting it unwind the
// tick. Content code runs through here so that one faulty ability cannot stop
// the update pass for everyone else.
func safeCall(log *slog.Logger, hook string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("psychics: panic in "+hook, "panic", r, "stack", string(debug.Stack()))
		}
	}()
	fn()
}
