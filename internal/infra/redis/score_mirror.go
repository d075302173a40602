package redis

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const scoresKey = "akaquiz:scores"

// ScoreMirror publishes scoreboard snapshots to Redis so dashboards or
// overlay tooling can read them without touching the game process. It is
// strictly write-only and best-effort: the in-process session stays the
// single source of truth, and a Redis outage never blocks the game.
type ScoreMirror struct {
	client *redis.Client
	ttl    time.Duration
}

func NewScoreMirror(client *redis.Client, ttl time.Duration) *ScoreMirror {
	return &ScoreMirror{client: client, ttl: ttl}
}

func (m *ScoreMirror) Publish(ctx context.Context, scores map[string]int) {
	fields := make(map[string]interface{}, len(scores))
	for name, score := range scores {
		fields[name] = strconv.Itoa(score)
	}

	pipe := m.client.Pipeline()
	pipe.Del(ctx, scoresKey)
	if len(fields) > 0 {
		pipe.HSet(ctx, scoresKey, fields)
	}
	if m.ttl > 0 {
		pipe.Expire(ctx, scoresKey, m.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("score mirror publish failed: %v", err)
	}
}

func (m *ScoreMirror) Clear(ctx context.Context) {
	if err := m.client.Del(ctx, scoresKey).Err(); err != nil {
		log.Printf("score mirror clear failed: %v", err)
	}
}
