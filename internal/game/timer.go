package game

import (
	"sync"
	"time"
)

// QuestionTimer is a one-shot countdown coupled to a single active
// question. It ticks once per interval with the remaining whole seconds
// and fires the expiry callback exactly once when the countdown reaches
// zero. A cancelled timer fires neither again; Cancel is idempotent.
//
// Ownership is single, not reentrant: the GameService holds exactly one
// live timer and cancels it before starting the next. Callbacks run on
// the timer's own goroutine, so the owner must additionally verify the
// firing timer is still current (see GameService.onTimerTick/onTimerExpire).
type QuestionTimer struct {
	interval time.Duration
	onTick   func(remaining int)
	onExpire func()

	mu        sync.Mutex
	cancelled bool
	started   bool
	stop      chan struct{}
}

// NewQuestionTimer builds a timer with the standard one-second tick.
func NewQuestionTimer(onTick func(remaining int), onExpire func()) *QuestionTimer {
	return newQuestionTimerWithInterval(time.Second, onTick, onExpire)
}

// newQuestionTimerWithInterval lets tests compress the tick interval.
func newQuestionTimerWithInterval(interval time.Duration, onTick func(remaining int), onExpire func()) *QuestionTimer {
	return &QuestionTimer{
		interval: interval,
		onTick:   onTick,
		onExpire: onExpire,
		stop:     make(chan struct{}),
	}
}

// Start launches the countdown for the given number of whole seconds.
// A non-positive duration expires on the first tick. Start may be called
// at most once per instance; a fresh timer is created per question and
// per resume.
func (t *QuestionTimer) Start(seconds int) {
	t.mu.Lock()
	if t.started || t.cancelled {
		t.mu.Unlock()
		return
	}
	t.started = true
	t.mu.Unlock()

	go t.run(seconds)
}

// Cancel stops the countdown. After Cancel the timer will not invoke
// either callback again. Double cancellation is a no-op.
func (t *QuestionTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled {
		return
	}
	t.cancelled = true
	close(t.stop)
}

func (t *QuestionTimer) run(seconds int) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	remaining := seconds
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			remaining--
			if t.isCancelled() {
				return
			}
			if remaining > 0 {
				if t.onTick != nil {
					t.onTick(remaining)
				}
				continue
			}
			if t.onExpire != nil {
				t.onExpire()
			}
			return
		}
	}
}

func (t *QuestionTimer) isCancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}
