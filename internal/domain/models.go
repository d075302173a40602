package domain

// Option is a single answer choice within a question.
type Option struct {
	Text     string `json:"text"`
	ImageRef string `json:"imageRef,omitempty"`
}

// Question is an immutable quiz question. CorrectIndex is the zero-based
// index of the correct option; -1 means no option is ever correct
// (missing or unparseable answer line in the source file).
type Question struct {
	Text         string   `json:"text"`
	ImageRef     string   `json:"imageRef,omitempty"`
	Options      []Option `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// Quiz is a parsed quiz file: its source identifier plus its questions.
type Quiz struct {
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

// QuestionLimit selects how many questions to keep on load: either all of
// them or the first N. A tagged type instead of a sentinel-string-or-int.
type QuestionLimit struct {
	All bool
	N   int
}

// LimitAll keeps every question.
func LimitAll() QuestionLimit { return QuestionLimit{All: true} }

// LimitN keeps the first n questions.
func LimitN(n int) QuestionLimit { return QuestionLimit{N: n} }

// LoadResult reports the outcome of loading a quiz into the session.
type LoadResult struct {
	Name          string `json:"name"`
	QuestionCount int    `json:"questionCount"`
	TimeLimit     int    `json:"timeLimit"`
}

// QuestionView is what participants see when a question goes live.
// Options keep their original order so option indexes stay valid for
// answer matching; the correct index is deliberately absent.
type QuestionView struct {
	Text           string   `json:"text"`
	ImageRef       string   `json:"imageRef,omitempty"`
	Options        []Option `json:"options"`
	SecondsAllowed int      `json:"secondsAllowed"`
	Number         int      `json:"number"` // 1-based
	Total          int      `json:"total"`
}

// EndResult reveals the just-ended question: its correct index and the
// vote distribution accumulated during the active window.
type EndResult struct {
	CorrectIndex int         `json:"correctIndex"`
	Options      []Option    `json:"options"`
	Votes        map[int]int `json:"votes"`
}

// Answer rejection reasons. These are expected outcomes of a live game,
// not errors.
const (
	ReasonNoQuestion      = "no_question"
	ReasonAlreadyAnswered = "already_answered"
)

// AnswerResult is the outcome of a single answer submission.
type AnswerResult struct {
	Accepted       bool   `json:"accepted"`
	Reason         string `json:"reason,omitempty"`
	Correct        bool   `json:"correct"`
	ScoreEarned    int    `json:"scoreEarned"`
	TotalAnswers   int    `json:"totalAnswers"`
	CorrectAnswers int    `json:"correctAnswers"`
}

// QuestionStat accumulates per-question analytics, created lazily on the
// first answer to that question.
type QuestionStat struct {
	QuestionText   string    `json:"questionText"`
	TotalAnswers   int       `json:"totalAnswers"`
	CorrectAnswers int       `json:"correctAnswers"`
	AverageSeconds float64   `json:"averageSeconds"`
	ResponseTimes  []float64 `json:"responseTimes"`
}

// AnalyticsSnapshot is the cumulative session analytics view.
type AnalyticsSnapshot struct {
	TotalAnswers   int            `json:"totalAnswers"`
	CorrectAnswers int            `json:"correctAnswers"`
	AverageSeconds float64        `json:"averageSeconds"`
	ResponseTimes  []float64      `json:"responseTimes"`
	PerQuestion    []QuestionStat `json:"perQuestion"`
}

// ResultsSnapshot bundles everything the export layer renders.
type ResultsSnapshot struct {
	QuizName  string            `json:"quizName"`
	Scores    map[string]int    `json:"scores"`
	Analytics AnalyticsSnapshot `json:"analytics"`
}
