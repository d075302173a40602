package game

import (
	"context"
	"testing"
	"time"

	"github.com/BesuglovS/akaquiz/internal/domain"
)

type staticQuizRepo struct {
	quizzes map[string]domain.Quiz
}

func (r *staticQuizRepo) GetQuiz(_ context.Context, name string) (domain.Quiz, error) {
	if quiz, ok := r.quizzes[name]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func newTestService(t *testing.T, questions int) *GameService {
	t.Helper()
	repo := &staticQuizRepo{quizzes: map[string]domain.Quiz{
		"quiz.txt": {Name: "quiz.txt", Questions: makeQuestions(questions)},
	}}
	service := NewGameService(NewSession(Policy{}), repo, nil)
	service.tickInterval = testTick
	return service
}

func waitForEvent(t *testing.T, ch <-chan Event, eventType string) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Type == eventType {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", eventType)
		}
	}
}

func TestServiceBroadcastsQuestionFlow(t *testing.T) {
	service := newTestService(t, 2)
	events, cancel := service.Subscribe()
	defer cancel()

	if _, err := service.Load(context.Background(), "quiz.txt", false, domain.LimitAll(), 30); err != nil {
		t.Fatalf("load: %v", err)
	}
	waitForEvent(t, events, EventQuizLoaded)

	view := service.Next()
	if view == nil || view.Number != 1 {
		t.Fatalf("expected question 1, got %+v", view)
	}
	waitForEvent(t, events, EventQuestion)

	res := service.Answer("alice", 0, 1)
	if !res.Accepted {
		t.Fatalf("answer rejected: %+v", res)
	}
	waitForEvent(t, events, EventAnswerCount)

	if end := service.Stop(); end == nil {
		t.Fatalf("expected end result")
	}
	waitForEvent(t, events, EventQuestionEnd)
	waitForEvent(t, events, EventScores)
}

func TestServiceLoadUnknownQuiz(t *testing.T) {
	service := newTestService(t, 1)
	if _, err := service.Load(context.Background(), "missing.txt", false, domain.LimitAll(), 0); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestTimerExpiryEndsQuestion(t *testing.T) {
	service := newTestService(t, 1)
	events, cancel := service.Subscribe()
	defer cancel()

	if _, err := service.Load(context.Background(), "quiz.txt", false, domain.LimitAll(), 2); err != nil {
		t.Fatalf("load: %v", err)
	}
	if view := service.Next(); view == nil {
		t.Fatalf("expected a question")
	}

	waitForEvent(t, events, EventTick)
	waitForEvent(t, events, EventQuestionEnd)

	// The window is closed: late answers are rejected.
	if res := service.Answer("late", 0, 2); res.Accepted {
		t.Fatalf("answer accepted after time up: %+v", res)
	}
}

func TestNextCancelsPreviousTimer(t *testing.T) {
	service := newTestService(t, 2)
	events, cancel := service.Subscribe()
	defer cancel()

	service.Load(context.Background(), "quiz.txt", false, domain.LimitAll(), 1000)
	service.Next()
	waitForEvent(t, events, EventQuestion)

	// Force-advance well before the first countdown would expire.
	view := service.Next()
	if view == nil || view.Number != 2 {
		t.Fatalf("expected question 2, got %+v", view)
	}
	waitForEvent(t, events, EventQuestionEnd)
	waitForEvent(t, events, EventQuestion)

	// Exactly one live timer: a stale expiry from question 1 would close
	// question 2's window early, so answering must still work.
	if res := service.Answer("alice", 0, 1); !res.Accepted {
		t.Fatalf("window closed by stale timer: %+v", res)
	}
}

func TestNextBeyondLastQuestionEndsGame(t *testing.T) {
	service := newTestService(t, 1)
	events, cancel := service.Subscribe()
	defer cancel()

	service.Load(context.Background(), "quiz.txt", false, domain.LimitAll(), 1000)
	service.Next()
	waitForEvent(t, events, EventQuestion)

	if view := service.Next(); view != nil {
		t.Fatalf("expected game end, got %+v", view)
	}
	waitForEvent(t, events, EventGameEnd)
}

func TestPauseStopsTicksAndResumeRestarts(t *testing.T) {
	service := newTestService(t, 1)
	events, cancel := service.Subscribe()
	defer cancel()

	service.Load(context.Background(), "quiz.txt", false, domain.LimitAll(), 1000)
	service.Next()
	waitForEvent(t, events, EventQuestion)
	waitForEvent(t, events, EventTick)

	if !service.TogglePause() {
		t.Fatalf("expected paused")
	}
	waitForEvent(t, events, EventPaused)

	for _, ev := range drainFor(events, 10*testTick) {
		if ev.Type == EventTick {
			t.Fatalf("timer kept ticking while paused")
		}
	}

	if service.TogglePause() {
		t.Fatalf("expected resumed")
	}
	waitForEvent(t, events, EventResumed)
	waitForEvent(t, events, EventTick)
}

func TestResetBroadcastsAndClears(t *testing.T) {
	service := newTestService(t, 1)
	events, cancel := service.Subscribe()
	defer cancel()

	service.Load(context.Background(), "quiz.txt", false, domain.LimitAll(), 1000)
	service.Next()
	service.Answer("alice", 0, 0)

	service.Reset(context.Background())
	waitForEvent(t, events, EventReset)

	if scores := service.Scores(); len(scores) != 0 {
		t.Fatalf("expected empty scores after reset, got %v", scores)
	}
	if view := service.Next(); view != nil {
		t.Fatalf("expected no questions after reset, got %+v", view)
	}
}

// drainFor consumes events for the given duration and returns them for
// the caller to inspect.
func drainFor(ch <-chan Event, d time.Duration) []Event {
	var drained []Event
	deadline := time.After(d)
	for {
		select {
		case ev := <-ch:
			drained = append(drained, ev)
		case <-deadline:
			return drained
		}
	}
}
