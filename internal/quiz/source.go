package quiz

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BesuglovS/akaquiz/internal/domain"
)

// Source provides raw quiz text by identifier (filesystem, Postgres, ...).
type Source interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, name string) (string, error)
}

// DirSource reads quiz files from a directory. Identifiers are the plain
// file names of .txt files inside it.
type DirSource struct {
	dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (s *DirSource) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (s *DirSource) Load(_ context.Context, name string) (string, error) {
	// Base strips any path components a client might sneak in.
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil {
		if os.IsNotExist(err) {
			return "", domain.ErrQuizNotFound
		}
		return "", fmt.Errorf("%w: %v", domain.ErrQuizUnreadable, err)
	}
	return string(data), nil
}

// StaticSource is an in-memory Source for tests and demos.
type StaticSource struct {
	quizzes map[string]string
}

func NewStaticSource(quizzes map[string]string) *StaticSource {
	return &StaticSource{quizzes: quizzes}
}

func (s *StaticSource) List(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(s.quizzes))
	for name := range s.quizzes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *StaticSource) Load(_ context.Context, name string) (string, error) {
	if raw, ok := s.quizzes[name]; ok {
		return raw, nil
	}
	return "", domain.ErrQuizNotFound
}
