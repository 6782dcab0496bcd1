package psychics

// Period sentinels. A positive period is a repeating task.
const (
	periodError  int64 = 0
	periodOnce   int64 = -1
	periodCancel int64 = -2
	periodDone   int64 = -3
)

// eagerRemoveTicks is the distance to the next run above which Cancel removes the
// task from the queue right away instead of leaving it to be skipped on pop.
// It is 0xFF exactly, so a task 256 ticks out is removed eagerly.
const eagerRemoveTicks = 0xFF

// Task is a delayed or periodic unit of work owned by a TickScheduler.
type Task struct {
	scheduler *TickScheduler
	action    func()

	// nextRun is the tick the task runs at next.
	nextRun int64

	// period is the repeat interval in ticks, or one of the period sentinels.
	period int64

	// seq breaks ties between tasks due on the same tick (insertion order).
	seq uint64

	// index is the heap index, -1 when the task is not queued.
	index int
}

// Scheduled reports whether the task will still run.
func (t *Task) Scheduled() bool {
	return t.period != periodError && t.period > periodCancel
}

// Cancelled reports whether the task was cancelled.
func (t *Task) Cancelled() bool {
	return t.period == periodCancel
}

// Done reports whether a one-shot task has run.
func (t *Task) Done() bool {
	return t.period == periodDone
}

// NextRun returns the tick the task is due at.
func (t *Task) NextRun() int64 {
	return t.nextRun
}

// Period returns the repeat interval, or 0 for a one-shot task.
func (t *Task) Period() int64 {
	return max(0, t.period)
}

// Cancel stops the task from running again. Cancelling a task that already
// finished or was cancelled is a no-op.
//
// A cancelled task due within the next 255 ticks stays in the queue and is
// dropped when popped; tasks further out are removed immediately.
func (t *Task) Cancel() {
	if t == nil || !t.Scheduled() {
		return
	}
	t.period = periodCancel

	if t.nextRun-t.scheduler.clock.Now() > eagerRemoveTicks {
		t.scheduler.queue.remove(t)
	}
}

// taskQueue is a priority queue of tasks ordered by (nextRun, seq).
// It uses a binary heap for O(log n) insertion and removal.
type taskQueue struct {
	heap []*Task
}

func (q *taskQueue) len() int {
	return len(q.heap)
}

// peek returns the earliest task without removing it.
func (q *taskQueue) peek() *Task {
	if len(q.heap) == 0 {
		return nil
	}
	return q.heap[0]
}

// push adds a task to the heap.
func (q *taskQueue) push(t *Task) {
	t.index = len(q.heap)
	q.heap = append(q.heap, t)
	q.up(t.index)
}

// pop removes and returns the earliest task.
func (q *taskQueue) pop() *Task {
	n := len(q.heap) - 1
	q.swap(0, n)
	q.down(0, n)
	t := q.heap[n]
	q.heap[n] = nil // Allow GC
	q.heap = q.heap[:n]
	t.index = -1
	return t
}

// remove takes a task out of the heap if it is queued.
func (q *taskQueue) remove(t *Task) {
	i := t.index
	if i < 0 || i >= len(q.heap) || q.heap[i] != t {
		return
	}

	n := len(q.heap) - 1
	if i != n {
		q.swap(i, n)
	}
	q.heap[n] = nil
	q.heap = q.heap[:n]
	t.index = -1

	if i < n {
		q.down(i, n)
		q.up(i)
	}
}

// clear empties the heap and returns the tasks that were in it.
func (q *taskQueue) clear() []*Task {
	tasks := q.heap
	q.heap = nil
	for _, t := range tasks {
		t.index = -1
	}
	return tasks
}

func (q *taskQueue) less(i, j int) bool {
	a, b := q.heap[i], q.heap[j]
	if a.nextRun != b.nextRun {
		return a.nextRun < b.nextRun
	}
	return a.seq < b.seq
}

// up moves task at index up the heap.
func (q *taskQueue) up(i int) {
	for {
		parent := (i - 1) / 2
		if parent == i || !q.less(i, parent) {
			break
		}
		q.swap(i, parent)
		i = parent
	}
}

// down moves task at index down the heap.
func (q *taskQueue) down(i, n int) {
	for {
		left := 2*i + 1
		if left >= n || left < 0 {
			break
		}
		j := left
		if right := left + 1; right < n && q.less(right, left) {
			j = right
		}
		if !q.less(j, i) {
			break
		}
		q.swap(i, j)
		i = j
	}
}

// swap swaps two tasks in the heap.
func (q *taskQueue) swap(i, j int) {
	q.heap[i], q.heap[j] = q.heap[j], q.heap[i]
	q.heap[i].index = i
	q.heap[j].index = j
}
