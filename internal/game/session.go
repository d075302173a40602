package game

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/BesuglovS/akaquiz/internal/domain"
)

type questionState int

const (
	stateIdle questionState = iota
	stateActive
	stateEnded
)

// Policy holds the constructor-time game constants. Zero fields fall back
// to the package defaults below.
type Policy struct {
	DefaultTimeLimit int // seconds per question when the load does not override it
	MinScore         int // floor credit for a correct answer at the time limit
	MaxScore         int // full credit for an instant correct answer
}

const (
	defaultTimeLimit = 15
	defaultMinScore  = 20
	defaultMaxScore  = 100
)

func (p Policy) withDefaults() Policy {
	if p.DefaultTimeLimit <= 0 {
		p.DefaultTimeLimit = defaultTimeLimit
	}
	if p.MaxScore <= 0 {
		p.MaxScore = defaultMaxScore
	}
	if p.MinScore <= 0 {
		p.MinScore = defaultMinScore
	}
	return p
}

// Session is the single authoritative owner of all game state: quiz
// content, question cursor, the active-question window, votes, scores,
// pause accounting and analytics. All state lives behind its mutex and is
// mutated only by its own methods, so every operation is atomic.
type Session struct {
	mu     sync.Mutex
	now    func() time.Time
	rnd    *rand.Rand
	policy Policy

	quizName  string
	questions []domain.Question
	cursor    int
	state     questionState
	timeLimit int

	windowStart time.Time
	votes       map[int]int
	answered    map[string]struct{}
	scores      map[string]int

	paused      bool
	pauseStart  time.Time
	pausedTotal time.Duration

	stats sessionStats
}

type sessionStats struct {
	totalAnswers   int
	correctAnswers int
	responseTimes  []float64
	perQuestion    map[int]*domain.QuestionStat
}

func (a *sessionStats) reset() {
	a.totalAnswers = 0
	a.correctAnswers = 0
	a.responseTimes = nil
	a.perQuestion = make(map[int]*domain.QuestionStat)
}

// NewSession builds an empty session with the given policy.
func NewSession(policy Policy) *Session {
	return NewSessionWithClock(policy, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(policy Policy, now func() time.Time) *Session {
	s := &Session{
		now:    now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		policy: policy.withDefaults(),
	}
	s.resetLocked()
	return s
}

// LoadQuiz replaces all quiz state wholesale: questions (optionally
// shuffled and truncated), cursor, scores and analytics. Loading zero
// questions is valid; subsequent Advance calls report exhaustion.
func (s *Session) LoadQuiz(name string, questions []domain.Question, shuffle bool, limit domain.QuestionLimit, timeLimitSeconds int) domain.LoadResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	qs := make([]domain.Question, len(questions))
	copy(qs, questions)
	if shuffle {
		s.rnd.Shuffle(len(qs), func(i, j int) {
			qs[i], qs[j] = qs[j], qs[i]
		})
	}
	if !limit.All && limit.N > 0 && limit.N < len(qs) {
		qs = qs[:limit.N]
	}

	s.resetLocked()
	s.quizName = name
	s.questions = qs
	if timeLimitSeconds > 0 {
		s.timeLimit = timeLimitSeconds
	}

	return domain.LoadResult{
		Name:          name,
		QuestionCount: len(qs),
		TimeLimit:     s.timeLimit,
	}
}

// Advance moves the cursor to the next question and opens its answer
// window. It returns nil when the quiz is exhausted (or empty). Calling
// it while a question is still active is a sequencing error; the session
// refuses to double-advance and returns nil, leaving state untouched.
func (s *Session) Advance() *domain.QuestionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateActive {
		return nil
	}
	next := s.cursor + 1
	if next >= len(s.questions) {
		s.cursor = len(s.questions)
		s.state = stateIdle
		return nil
	}

	s.cursor = next
	s.state = stateActive
	s.votes = make(map[int]int)
	s.answered = make(map[string]struct{})
	s.paused = false
	s.pausedTotal = 0
	s.windowStart = s.now()

	q := s.questions[next]
	return &domain.QuestionView{
		Text:           q.Text,
		ImageRef:       q.ImageRef,
		Options:        copyOptions(q.Options),
		SecondsAllowed: s.timeLimit,
		Number:         next + 1,
		Total:          len(s.questions),
	}
}

// EndQuestion closes the active answer window and reveals the correct
// option together with the vote snapshot. It is a no-op returning nil
// when no question is active.
func (s *Session) EndQuestion() *domain.EndResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateActive {
		return nil
	}
	s.state = stateEnded

	q := s.questions[s.cursor]
	votes := make(map[int]int, len(s.votes))
	for idx, n := range s.votes {
		votes[idx] = n
	}
	return &domain.EndResult{
		CorrectIndex: q.CorrectIndex,
		Options:      copyOptions(q.Options),
		Votes:        votes,
	}
}

// SubmitAnswer records one participant's answer to the active question.
// Checks run in order: question in progress, window open, not a
// duplicate. Past those the answer is trusted; index and elapsed-time
// bounds are the transport layer's job. A late answer that arrives while
// the window is still open is scored, floored at MinScore.
func (s *Session) SubmitAnswer(participant string, optionIndex int, elapsedSeconds float64) domain.AnswerResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor < 0 || s.cursor >= len(s.questions) {
		return domain.AnswerResult{Reason: domain.ReasonNoQuestion}
	}
	if s.state != stateActive {
		return domain.AnswerResult{Reason: domain.ReasonNoQuestion}
	}
	if _, dup := s.answered[participant]; dup {
		return domain.AnswerResult{Reason: domain.ReasonAlreadyAnswered}
	}

	q := s.questions[s.cursor]
	correct := q.CorrectIndex >= 0 && optionIndex == q.CorrectIndex

	s.stats.totalAnswers++
	s.stats.responseTimes = append(s.stats.responseTimes, elapsedSeconds)
	stat, ok := s.stats.perQuestion[s.cursor]
	if !ok {
		stat = &domain.QuestionStat{QuestionText: q.Text}
		s.stats.perQuestion[s.cursor] = stat
	}
	stat.TotalAnswers++
	stat.ResponseTimes = append(stat.ResponseTimes, elapsedSeconds)
	if correct {
		s.stats.correctAnswers++
		stat.CorrectAnswers++
	}
	stat.AverageSeconds = mean(stat.ResponseTimes)

	earned := 0
	if correct && participant != "" {
		earned = s.scoreFor(elapsedSeconds)
		s.scores[participant] += earned
	}

	s.answered[participant] = struct{}{}
	s.votes[optionIndex]++

	return domain.AnswerResult{
		Accepted:       true,
		Correct:        correct,
		ScoreEarned:    earned,
		TotalAnswers:   s.stats.totalAnswers,
		CorrectAnswers: s.stats.correctAnswers,
	}
}

// scoreFor decays linearly from MaxScore at t=0 to MinScore at the
// configured time limit, clamped to [MinScore, MaxScore].
func (s *Session) scoreFor(elapsedSeconds float64) int {
	span := float64(s.policy.MaxScore - s.policy.MinScore)
	raw := float64(s.policy.MaxScore) - elapsedSeconds*span/float64(s.timeLimit)
	earned := int(math.Round(raw))
	if earned < s.policy.MinScore {
		earned = s.policy.MinScore
	}
	if earned > s.policy.MaxScore {
		earned = s.policy.MaxScore
	}
	return earned
}

// TogglePause suspends or resumes elapsed-time accounting for the active
// question. The reported bool is the new paused state; it is always false
// when no question is active.
func (s *Session) TogglePause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateActive {
		return false
	}
	if s.paused {
		s.pausedTotal += s.now().Sub(s.pauseStart)
		s.paused = false
		return false
	}
	s.pauseStart = s.now()
	s.paused = true
	return true
}

// RemainingSeconds reports the whole seconds left in the active answer
// window, net of paused time. It is 0 whenever no question is active.
func (s *Session) RemainingSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateActive {
		return 0
	}
	ref := s.now()
	if s.paused {
		ref = s.pauseStart
	}
	elapsed := ref.Sub(s.windowStart) - s.pausedTotal
	remaining := int(math.Ceil(float64(s.timeLimit) - elapsed.Seconds()))
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsPaused reports whether the active question is currently paused.
func (s *Session) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateActive && s.paused
}

// OptionCount reports how many options the active question has, 0 when
// no question is active. The transport layer uses it to bounds-check
// submitted option indexes before they reach SubmitAnswer.
func (s *Session) OptionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateActive {
		return 0
	}
	return len(s.questions[s.cursor].Options)
}

// AnsweredCount reports how many distinct participants have answered the
// current question.
func (s *Session) AnsweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answered)
}

// Reset returns the session to its initial empty state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Session) resetLocked() {
	s.quizName = ""
	s.questions = nil
	s.cursor = -1
	s.state = stateIdle
	s.timeLimit = s.policy.DefaultTimeLimit
	s.votes = make(map[int]int)
	s.answered = make(map[string]struct{})
	s.scores = make(map[string]int)
	s.paused = false
	s.pausedTotal = 0
	s.stats.reset()
}

// Scores returns a copy of the cumulative scoreboard.
func (s *Session) Scores() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int, len(s.scores))
	for name, score := range s.scores {
		out[name] = score
	}
	return out
}

// QuizName reports the identifier of the loaded quiz, empty when none.
func (s *Session) QuizName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quizName
}

// Analytics returns a snapshot of the cumulative session analytics.
func (s *Session) Analytics() domain.AnalyticsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	indexes := make([]int, 0, len(s.stats.perQuestion))
	for idx := range s.stats.perQuestion {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	per := make([]domain.QuestionStat, 0, len(indexes))
	for _, idx := range indexes {
		per = append(per, copyStat(s.stats.perQuestion[idx]))
	}

	return domain.AnalyticsSnapshot{
		TotalAnswers:   s.stats.totalAnswers,
		CorrectAnswers: s.stats.correctAnswers,
		AverageSeconds: mean(s.stats.responseTimes),
		ResponseTimes:  append([]float64(nil), s.stats.responseTimes...),
		PerQuestion:    per,
	}
}

// QuestionAnalytics returns the stats for one question index. Passing -1
// resolves to the most recent question that has data; when nothing has
// been answered yet a zeroed placeholder record comes back.
func (s *Session) QuestionAnalytics(index int) domain.QuestionStat {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index == -1 {
		for idx := range s.stats.perQuestion {
			if idx > index {
				index = idx
			}
		}
	}
	if stat, ok := s.stats.perQuestion[index]; ok {
		return copyStat(stat)
	}
	return domain.QuestionStat{QuestionText: "no data"}
}

func copyOptions(opts []domain.Option) []domain.Option {
	out := make([]domain.Option, len(opts))
	copy(out, opts)
	return out
}

func copyStat(stat *domain.QuestionStat) domain.QuestionStat {
	out := *stat
	out.ResponseTimes = append([]float64(nil), stat.ResponseTimes...)
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
