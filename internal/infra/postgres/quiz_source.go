package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/BesuglovS/akaquiz/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuizSource serves raw quiz text from Postgres, one row per quiz file.
// It plugs into quiz.Repository in place of the directory source.
type QuizSource struct {
	pool *pgxpool.Pool
}

func NewQuizSource(pool *pgxpool.Pool) *QuizSource {
	return &QuizSource{pool: pool}
}

func (s *QuizSource) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT name FROM quizzes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan quiz name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *QuizSource) Load(ctx context.Context, name string) (string, error) {
	var body string
	err := s.pool.QueryRow(ctx, `SELECT body FROM quizzes WHERE name=$1`, name).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrQuizNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load quiz: %w", err)
	}
	return body, nil
}
