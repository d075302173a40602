package game

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/BesuglovS/akaquiz/internal/domain"
)

// Event is the typed notification fanned out to subscribed connections.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Event types broadcast by the service.
const (
	EventQuizLoaded  = "quiz_loaded"
	EventQuestion    = "question"
	EventTick        = "tick"
	EventAnswerCount = "answer_count"
	EventQuestionEnd = "question_end"
	EventScores      = "scores"
	EventPaused      = "paused"
	EventResumed     = "resumed"
	EventGameEnd     = "game_end"
	EventReset       = "reset"
)

// QuizRepository loads parsed quiz content by source identifier.
type QuizRepository interface {
	GetQuiz(ctx context.Context, name string) (domain.Quiz, error)
}

// ScoreMirror publishes scoreboard snapshots to an external store,
// best-effort. Implementations must never block the game path.
type ScoreMirror interface {
	Publish(ctx context.Context, scores map[string]int)
	Clear(ctx context.Context)
}

// GameService binds the Session, the per-question timer and event
// fan-out into the host-facing use cases. It owns at most one live timer
// at a time; every transition that invalidates the countdown cancels it
// synchronously before mutating session state, and timer callbacks are
// ignored unless they come from the current timer instance.
type GameService struct {
	session *Session
	quizzes QuizRepository
	mirror  ScoreMirror

	mu           sync.Mutex
	timer        *QuestionTimer
	tickInterval time.Duration

	subMu       sync.Mutex
	subscribers map[chan Event]struct{}
}

// NewGameService wires a service around an existing session. mirror may
// be nil when no external score store is configured.
func NewGameService(session *Session, quizzes QuizRepository, mirror ScoreMirror) *GameService {
	return &GameService{
		session:      session,
		quizzes:      quizzes,
		mirror:       mirror,
		tickInterval: time.Second,
		subscribers:  make(map[chan Event]struct{}),
	}
}

// Subscribe returns a channel receiving game events. The caller must
// invoke the returned cancel function to avoid leaks.
func (g *GameService) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	g.subMu.Lock()
	g.subscribers[ch] = struct{}{}
	g.subMu.Unlock()

	cancel := func() {
		g.subMu.Lock()
		if _, ok := g.subscribers[ch]; ok {
			delete(g.subscribers, ch)
			close(ch)
		}
		g.subMu.Unlock()
	}
	return ch, cancel
}

func (g *GameService) broadcast(ev Event) {
	g.subMu.Lock()
	defer g.subMu.Unlock()
	for ch := range g.subscribers {
		select {
		case ch <- ev:
		default:
			// Slow subscriber: drop its oldest event rather than block.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

// Load fetches, parses and installs a quiz into the session, cancelling
// any question in flight.
func (g *GameService) Load(ctx context.Context, name string, shuffle bool, limit domain.QuestionLimit, timeLimitSeconds int) (domain.LoadResult, error) {
	quiz, err := g.quizzes.GetQuiz(ctx, name)
	if err != nil {
		return domain.LoadResult{}, err
	}

	g.mu.Lock()
	g.cancelTimerLocked()
	result := g.session.LoadQuiz(quiz.Name, quiz.Questions, shuffle, limit, timeLimitSeconds)
	g.mu.Unlock()

	if g.mirror != nil {
		g.mirror.Clear(ctx)
	}
	g.broadcast(Event{Type: EventQuizLoaded, Payload: result})
	return result, nil
}

// Next ends any open question and advances to the following one. The
// stop-then-relaunch sequencing lives here, layered on the two primitive
// session operations; nil means the quiz is exhausted.
func (g *GameService) Next() *domain.QuestionView {
	g.mu.Lock()
	g.cancelTimerLocked()
	end := g.session.EndQuestion()
	view := g.session.Advance()
	if view != nil {
		g.startTimerLocked(view.SecondsAllowed)
	}
	g.mu.Unlock()

	if end != nil {
		g.publishQuestionEnd(end)
	}
	if view == nil {
		g.broadcast(Event{Type: EventGameEnd, Payload: g.session.Scores()})
		return nil
	}
	g.broadcast(Event{Type: EventQuestion, Payload: view})
	return view
}

// Stop force-ends the active question without advancing.
func (g *GameService) Stop() *domain.EndResult {
	g.mu.Lock()
	g.cancelTimerLocked()
	end := g.session.EndQuestion()
	g.mu.Unlock()

	if end != nil {
		g.publishQuestionEnd(end)
	}
	return end
}

// Answer records a participant's submission and reports progress to
// subscribers when it was accepted.
func (g *GameService) Answer(participant string, optionIndex int, elapsedSeconds float64) domain.AnswerResult {
	result := g.session.SubmitAnswer(participant, optionIndex, elapsedSeconds)
	if !result.Accepted {
		return result
	}

	g.broadcast(Event{Type: EventAnswerCount, Payload: map[string]int{"answered": g.session.AnsweredCount()}})
	if result.ScoreEarned > 0 && g.mirror != nil {
		g.mirror.Publish(context.Background(), g.session.Scores())
	}
	return result
}

// TogglePause freezes or resumes the active question. Pausing cancels
// the countdown; resuming starts a fresh timer with the remaining time.
func (g *GameService) TogglePause() bool {
	g.mu.Lock()
	wasPaused := g.session.IsPaused()
	nowPaused := g.session.TogglePause()
	switch {
	case nowPaused:
		g.cancelTimerLocked()
	case wasPaused:
		g.startTimerLocked(g.session.RemainingSeconds())
	}
	g.mu.Unlock()

	if nowPaused {
		g.broadcast(Event{Type: EventPaused, Payload: map[string]int{"remaining": g.session.RemainingSeconds()}})
	} else if wasPaused {
		g.broadcast(Event{Type: EventResumed, Payload: map[string]int{"remaining": g.session.RemainingSeconds()}})
	}
	return nowPaused
}

// Reset returns the whole game to its initial empty state.
func (g *GameService) Reset(ctx context.Context) {
	g.mu.Lock()
	g.cancelTimerLocked()
	g.session.Reset()
	g.mu.Unlock()

	if g.mirror != nil {
		g.mirror.Clear(ctx)
	}
	g.broadcast(Event{Type: EventReset})
}

// Scores returns the cumulative scoreboard.
func (g *GameService) Scores() map[string]int { return g.session.Scores() }

// Analytics returns the cumulative analytics snapshot.
func (g *GameService) Analytics() domain.AnalyticsSnapshot { return g.session.Analytics() }

// QuestionAnalytics returns per-question stats; -1 selects the most
// recent question with data.
func (g *GameService) QuestionAnalytics(index int) domain.QuestionStat {
	return g.session.QuestionAnalytics(index)
}

// OptionCount reports the option count of the open question, 0 when none.
func (g *GameService) OptionCount() int { return g.session.OptionCount() }

// AnsweredCount reports how many participants answered the open question.
func (g *GameService) AnsweredCount() int { return g.session.AnsweredCount() }

// RemainingSeconds reports the time left in the open answer window.
func (g *GameService) RemainingSeconds() int { return g.session.RemainingSeconds() }

// ResultsSnapshot bundles scores and analytics for the export layer.
func (g *GameService) ResultsSnapshot() domain.ResultsSnapshot {
	return domain.ResultsSnapshot{
		QuizName:  g.session.QuizName(),
		Scores:    g.session.Scores(),
		Analytics: g.session.Analytics(),
	}
}

func (g *GameService) startTimerLocked(seconds int) {
	var t *QuestionTimer
	t = newQuestionTimerWithInterval(g.tickInterval,
		func(remaining int) { g.onTimerTick(t, remaining) },
		func() { g.onTimerExpire(t) },
	)
	g.timer = t
	t.Start(seconds)
}

func (g *GameService) cancelTimerLocked() {
	if g.timer != nil {
		g.timer.Cancel()
		g.timer = nil
	}
}

func (g *GameService) onTimerTick(t *QuestionTimer, remaining int) {
	// Check-and-broadcast stays under the lock so a tick can never land
	// after the transition that cancelled its timer was announced.
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != t {
		return
	}
	g.broadcast(Event{Type: EventTick, Payload: map[string]int{"remaining": remaining}})
}

func (g *GameService) onTimerExpire(t *QuestionTimer) {
	g.mu.Lock()
	if g.timer != t {
		g.mu.Unlock()
		return
	}
	g.timer = nil
	end := g.session.EndQuestion()
	g.mu.Unlock()

	if end == nil {
		return
	}
	log.Printf("question time up, closing answer window")
	g.publishQuestionEnd(end)
}

func (g *GameService) publishQuestionEnd(end *domain.EndResult) {
	scores := g.session.Scores()
	if g.mirror != nil {
		g.mirror.Publish(context.Background(), scores)
	}
	g.broadcast(Event{Type: EventQuestionEnd, Payload: end})
	g.broadcast(Event{Type: EventScores, Payload: scores})
}
