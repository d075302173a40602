package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/BesuglovS/akaquiz/internal/domain"
)

// WriteCSV renders a results snapshot as delimited text: a scoreboard
// section ordered by score descending (name ascending on ties), a
// session totals row, and one row per question with its accuracy and
// response-time stats.
func WriteCSV(w io.Writer, snapshot domain.ResultsSnapshot) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"quiz", snapshot.QuizName}); err != nil {
		return err
	}

	if err := cw.Write([]string{"participant", "score"}); err != nil {
		return err
	}
	for _, entry := range sortedScores(snapshot.Scores) {
		if err := cw.Write([]string{entry.name, fmt.Sprintf("%d", entry.score)}); err != nil {
			return err
		}
	}

	a := snapshot.Analytics
	if err := cw.Write([]string{"total_answers", "correct_answers", "avg_response_seconds"}); err != nil {
		return err
	}
	if err := cw.Write([]string{
		fmt.Sprintf("%d", a.TotalAnswers),
		fmt.Sprintf("%d", a.CorrectAnswers),
		fmt.Sprintf("%.2f", a.AverageSeconds),
	}); err != nil {
		return err
	}

	if err := cw.Write([]string{"question", "answers", "correct", "avg_response_seconds"}); err != nil {
		return err
	}
	for _, stat := range a.PerQuestion {
		if err := cw.Write([]string{
			stat.QuestionText,
			fmt.Sprintf("%d", stat.TotalAnswers),
			fmt.Sprintf("%d", stat.CorrectAnswers),
			fmt.Sprintf("%.2f", stat.AverageSeconds),
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

type scoreEntry struct {
	name  string
	score int
}

func sortedScores(scores map[string]int) []scoreEntry {
	entries := make([]scoreEntry, 0, len(scores))
	for name, score := range scores {
		entries = append(entries, scoreEntry{name: name, score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].name < entries[j].name
	})
	return entries
}
