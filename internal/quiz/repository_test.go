package quiz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BesuglovS/akaquiz/internal/domain"
)

func TestRepositoryCaches(t *testing.T) {
	source := &countingSource{
		Source: NewStaticSource(map[string]string{
			"quiz.txt": "Вопрос: тест\nВарианты:\nа\nб\nОтвет: 1\n",
		}),
	}
	repo := NewRepository(source, NewParser("/media"), time.Minute)

	quiz, err := repo.GetQuiz(context.Background(), "quiz.txt")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if len(quiz.Questions) != 1 {
		t.Fatalf("expected parsed question, got %+v", quiz)
	}
	if source.calls != 1 {
		t.Fatalf("expected source loaded once, got %d", source.calls)
	}

	if _, err := repo.GetQuiz(context.Background(), "quiz.txt"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected cache hit, source calls %d", source.calls)
	}
}

func TestRepositoryPropagatesNotFound(t *testing.T) {
	repo := NewRepository(NewStaticSource(nil), NewParser("/media"), time.Minute)

	_, err := repo.GetQuiz(context.Background(), "missing.txt")
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

type countingSource struct {
	Source
	calls int
}

func (s *countingSource) Load(ctx context.Context, name string) (string, error) {
	s.calls++
	return s.Source.Load(ctx, name)
}
