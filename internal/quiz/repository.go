package quiz

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/BesuglovS/akaquiz/internal/domain"
	"golang.org/x/sync/singleflight"
)

// Repository caches parsed quizzes by source identifier with a TTL so a
// host reloading the same file repeatedly does not re-read and re-parse
// it every time. Concurrent loads of the same quiz collapse into one.
type Repository struct {
	source Source
	parser *Parser
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedQuiz
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewRepository(source Source, parser *Parser, ttl time.Duration) *Repository {
	return &Repository{
		source: source,
		parser: parser,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuiz),
	}
}

// List passes through to the underlying source.
func (r *Repository) List(ctx context.Context) ([]string, error) {
	return r.source.List(ctx)
}

func (r *Repository) GetQuiz(ctx context.Context, name string) (domain.Quiz, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[name]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.quiz, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(name, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[name]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.quiz, nil
		}
		r.mu.RUnlock()

		raw, err := r.source.Load(ctx, name)
		if err != nil {
			return domain.Quiz{}, err
		}
		quiz := r.parser.Parse(name, raw)

		r.mu.Lock()
		r.cache[name] = cachedQuiz{
			quiz:      quiz,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (r *Repository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
