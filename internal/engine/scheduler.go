package engine

import (
	"slices"
	"time"
)

// Action is a deferred unit of work.
type Action func()

type task struct {
	id     int64
	key    string
	due    time.Duration
	action Action
}

// Scheduler is a single-threaded deferred-action queue driven by host ticks.
//
// Time is a cursor that moves only on Advance. At most one action is pending
// per key; scheduling under a key that already has one cancels it.
//
// Not safe for concurrent use. The owning room's host loop drives it.
type Scheduler struct {
	now     time.Duration
	nextID  int64
	pending map[string]*task
}

// NewScheduler creates an empty scheduler at time zero.
func NewScheduler() *Scheduler {
	return &Scheduler{pending: make(map[string]*task)}
}

// ScheduleAfter registers action to fire once d after the current cursor.
// Any action already pending under key is cancelled. Returns the
// registration id, increasing with every call.
func (s *Scheduler) ScheduleAfter(key string, d time.Duration, action Action) int64 {
	if d < 0 {
		d = 0
	}
	s.nextID++
	s.pending[key] = &task{id: s.nextID, key: key, due: s.now + d, action: action}
	return s.nextID
}

// Cancel drops the action pending under key. Reports whether one existed.
func (s *Scheduler) Cancel(key string) bool {
	if _, ok := s.pending[key]; !ok {
		return false
	}
	delete(s.pending, key)
	return true
}

// Pending reports whether an action is pending under key.
func (s *Scheduler) Pending(key string) bool {
	_, ok := s.pending[key]
	return ok
}

// Len returns the number of pending actions.
func (s *Scheduler) Len() int {
	return len(s.pending)
}

// Now returns the scheduler's time cursor.
func (s *Scheduler) Now() time.Duration {
	return s.now
}

// NextDue returns the due time of the earliest pending action.
func (s *Scheduler) NextDue() (time.Duration, bool) {
	var (
		best  time.Duration
		found bool
	)
	for _, t := range s.pending {
		if !found || t.due < best {
			best, found = t.due, true
		}
	}
	return best, found
}

// Advance moves the cursor forward by elapsed and fires every action now due,
// ordered by due time then registration order. Returns how many fired.
//
// Due actions are chosen before any of them runs. An action may cancel
// another due action, which then does not fire. Actions registered while
// firing wait for a later Advance even when their delay is zero.
func (s *Scheduler) Advance(elapsed time.Duration) int {
	if elapsed > 0 {
		s.now += elapsed
	}

	var due []*task
	for _, t := range s.pending {
		if t.due <= s.now {
			due = append(due, t)
		}
	}
	slices.SortFunc(due, func(a, b *task) int {
		if a.due != b.due {
			if a.due < b.due {
				return -1
			}
			return 1
		}
		if a.id < b.id {
			return -1
		}
		if a.id > b.id {
			return 1
		}
		return 0
	})

	fired := 0
	for _, t := range due {
		if s.pending[t.key] != t {
			continue
		}
		delete(s.pending, t.key)
		t.action()
		fired++
	}
	return fired
}
