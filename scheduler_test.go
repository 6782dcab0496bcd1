package psychics

import (
	"testing"
	"time"
)

func newTestScheduler() (*Clock, *TickScheduler) {
	clock := NewClock()
	return clock, NewTickScheduler(clock, discardLogger())
}

// runFor advances the clock n times, draining the scheduler on every tick.
func runFor(clock *Clock, s *TickScheduler, n int) {
	for range n {
		clock.Advance()
		s.Run()
	}
}

func TestClock(t *testing.T) {
	c := NewClock()
	if c.Now() != 0 {
		t.Fatalf("new clock at %d, want 0", c.Now())
	}
	if got := c.Advance(); got != 1 {
		t.Fatalf("Advance() = %d, want 1", got)
	}
	if got := TicksToDuration(TicksPerSecond); got != time.Second {
		t.Fatalf("TicksToDuration(20) = %v, want 1s", got)
	}
}

func TestSchedulerOrder(t *testing.T) {
	clock, s := newTestScheduler()

	var order []string
	s.RunTask(func() { order = append(order, "a") }, 2)
	s.RunTask(func() { order = append(order, "b") }, 1)
	s.RunTask(func() { order = append(order, "c") }, 2)
	s.RunTask(func() { order = append(order, "d") }, 0)

	s.Run()
	if len(order) != 1 || order[0] != "d" {
		t.Fatalf("after tick 0 ran %v, want [d]", order)
	}

	runFor(clock, s, 2)
	want := []string{"d", "b", "a", "c"}
	if len(order) != len(want) {
		t.Fatalf("ran %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("ran %v, want %v", order, want)
		}
	}
}

func TestSchedulerNegativeDelay(t *testing.T) {
	_, s := newTestScheduler()
	ran := false
	task := s.RunTask(func() { ran = true }, -10)
	if task.NextRun() != 0 {
		t.Fatalf("NextRun() = %d, want 0", task.NextRun())
	}
	s.Run()
	if !ran {
		t.Fatalf("task with negative delay did not run on the current tick")
	}
}

func TestSchedulerOneShotDone(t *testing.T) {
	clock, s := newTestScheduler()
	runs := 0
	task := s.RunTask(func() { runs++ }, 3)

	runFor(clock, s, 2)
	if runs != 0 || !task.Scheduled() {
		t.Fatalf("task ran early: runs=%d scheduled=%v", runs, task.Scheduled())
	}
	runFor(clock, s, 5)
	if runs != 1 {
		t.Fatalf("one-shot ran %d times, want 1", runs)
	}
	if !task.Done() || task.Scheduled() || task.Cancelled() {
		t.Fatalf("one-shot state: done=%v scheduled=%v cancelled=%v", task.Done(), task.Scheduled(), task.Cancelled())
	}
	if s.Len() != 0 {
		t.Fatalf("queue holds %d tasks, want 0", s.Len())
	}

	task.Cancel()
	if task.Cancelled() {
		t.Fatalf("cancelling a finished task marked it cancelled")
	}
}

func TestSchedulerTimer(t *testing.T) {
	clock, s := newTestScheduler()
	var ticks []int64
	task := s.RunTaskTimer(func() { ticks = append(ticks, clock.Now()) }, 0, 3)
	if task.Period() != 3 {
		t.Fatalf("Period() = %d, want 3", task.Period())
	}

	s.Run()
	runFor(clock, s, 7)
	want := []int64{0, 3, 6}
	if len(ticks) != len(want) {
		t.Fatalf("timer ran at %v, want %v", ticks, want)
	}
	for i := range want {
		if ticks[i] != want[i] {
			t.Fatalf("timer ran at %v, want %v", ticks, want)
		}
	}
}

func TestSchedulerTimerMinimumPeriod(t *testing.T) {
	clock, s := newTestScheduler()
	runs := 0
	task := s.RunTaskTimer(func() { runs++ }, 1, 0)
	if task.Period() != 1 {
		t.Fatalf("Period() = %d, want 1", task.Period())
	}
	runFor(clock, s, 4)
	if runs != 4 {
		t.Fatalf("timer ran %d times in 4 ticks, want 4", runs)
	}
}

func TestSchedulerCancel(t *testing.T) {
	clock, s := newTestScheduler()

	ran := false
	near := s.RunTask(func() { ran = true }, 10)
	near.Cancel()
	if !near.Cancelled() {
		t.Fatalf("task not cancelled")
	}
	if s.Len() != 1 {
		t.Fatalf("near cancelled task left the queue early: len=%d", s.Len())
	}
	runFor(clock, s, 10)
	if ran {
		t.Fatalf("cancelled task ran")
	}
	if s.Len() != 0 {
		t.Fatalf("cancelled task still queued after its tick: len=%d", s.Len())
	}

	far := s.RunTask(func() { ran = true }, 1000)
	far.Cancel()
	if s.Len() != 0 {
		t.Fatalf("far cancelled task still queued: len=%d", s.Len())
	}
	far.Cancel()
	if !far.Cancelled() {
		t.Fatalf("second Cancel changed the task state")
	}
}

func TestSchedulerCancelBoundary(t *testing.T) {
	_, s := newTestScheduler()

	s.RunTask(func() {}, 255).Cancel()
	if s.Len() != 1 {
		t.Fatalf("task 255 ticks out left the queue on cancel")
	}
	s.RunTask(func() {}, 256).Cancel()
	if s.Len() != 1 {
		t.Fatalf("task 256 ticks out stayed queued after cancel: len=%d", s.Len())
	}
}

func TestSchedulerCancelDuringRun(t *testing.T) {
	clock, s := newTestScheduler()

	runs := 0
	var task *Task
	task = s.RunTaskTimer(func() {
		runs++
		task.Cancel()
	}, 1, 1)

	runFor(clock, s, 5)
	if runs != 1 {
		t.Fatalf("self-cancelling timer ran %d times, want 1", runs)
	}
	if !task.Cancelled() {
		t.Fatalf("self-cancelled timer is not cancelled")
	}
	if s.Len() != 0 {
		t.Fatalf("self-cancelled timer was requeued")
	}
}

func TestSchedulerCancelAll(t *testing.T) {
	clock, s := newTestScheduler()

	ran := 0
	tasks := []*Task{
		s.RunTask(func() { ran++ }, 1),
		s.RunTaskTimer(func() { ran++ }, 0, 2),
		s.RunTask(func() { ran++ }, 500),
	}
	s.CancelAll()
	if s.Len() != 0 {
		t.Fatalf("queue holds %d tasks after CancelAll", s.Len())
	}
	for i, task := range tasks {
		if !task.Cancelled() {
			t.Fatalf("task %d not cancelled", i)
		}
	}
	runFor(clock, s, 3)
	if ran != 0 {
		t.Fatalf("%d cancelled tasks ran", ran)
	}
}

func TestSchedulerCancelAllFromTimer(t *testing.T) {
	clock, s := newTestScheduler()

	runs, other := 0, 0
	timer := s.RunTaskTimer(func() {
		runs++
		s.CancelAll()
	}, 0, 1)
	s.RunTaskTimer(func() { other++ }, 1, 1)

	s.Run()
	if !timer.Cancelled() {
		t.Fatalf("timer that cancelled its scheduler is not cancelled")
	}
	if s.Len() != 0 {
		t.Fatalf("queue holds %d tasks after CancelAll from a timer", s.Len())
	}
	runFor(clock, s, 5)
	if runs != 1 || other != 0 {
		t.Fatalf("runs=%d other=%d after CancelAll, want 1 and 0", runs, other)
	}
}

func TestSchedulerCancelAllFromOneShot(t *testing.T) {
	_, s := newTestScheduler()

	task := s.RunTask(func() { s.CancelAll() }, 0)
	s.Run()
	if !task.Done() {
		t.Fatalf("one-shot task that ran is not done")
	}
}

func TestSchedulerRecoversPanic(t *testing.T) {
	_, s := newTestScheduler()

	ran := false
	s.RunTask(func() { panic("boom") }, 0)
	s.RunTask(func() { ran = true }, 0)
	s.Run()
	if !ran {
		t.Fatalf("task after a panicking task did not run")
	}
}

func TestSchedulerHeapOrder(t *testing.T) {
	clock, s := newTestScheduler()

	type run struct {
		tick int64
		seq  int
	}
	var runs []run
	for i := range 200 {
		s.RunTask(func() { runs = append(runs, run{clock.Now(), i}) }, int64(i*37%50+1))
	}
	// Far tasks are removed from the middle of the heap when cancelled.
	far := 0
	for i := range 30 {
		task := s.RunTask(func() { t.Errorf("far task %d ran", i) }, int64(300+i*7))
		if i%3 == 0 {
			task.Cancel()
		} else {
			far++
		}
	}
	if s.Len() != 200+far {
		t.Fatalf("queue holds %d tasks, want %d", s.Len(), 200+far)
	}

	runFor(clock, s, 60)
	if len(runs) != 200 {
		t.Fatalf("ran %d tasks, want 200", len(runs))
	}
	for i := 1; i < len(runs); i++ {
		prev, cur := runs[i-1], runs[i]
		if cur.tick < prev.tick || (cur.tick == prev.tick && cur.seq < prev.seq) {
			t.Fatalf("task %d (tick %d) ran after task %d (tick %d)", cur.seq, cur.tick, prev.seq, prev.tick)
		}
	}
	if s.Len() != far {
		t.Fatalf("queue holds %d tasks, want the %d far tasks", s.Len(), far)
	}
}
