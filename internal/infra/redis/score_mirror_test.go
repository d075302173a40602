package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestScoreMirrorPublishAndClear(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mirror := NewScoreMirror(client, time.Minute)

	mirror.Publish(context.Background(), map[string]int{"alice": 120, "bob": 60})
	if got := mr.HGet(scoresKey, "alice"); got != "120" {
		t.Fatalf("expected alice=120, got %q", got)
	}
	if got := mr.HGet(scoresKey, "bob"); got != "60" {
		t.Fatalf("expected bob=60, got %q", got)
	}

	// A later snapshot replaces the hash wholesale.
	mirror.Publish(context.Background(), map[string]int{"alice": 200})
	if got := mr.HGet(scoresKey, "bob"); got != "" {
		t.Fatalf("expected bob dropped from snapshot, got %q", got)
	}

	mirror.Clear(context.Background())
	if mr.Exists(scoresKey) {
		t.Fatalf("expected scores key removed")
	}
}

func TestScoreMirrorEmptySnapshot(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mirror := NewScoreMirror(client, time.Minute)

	mirror.Publish(context.Background(), nil)
	if mr.Exists(scoresKey) {
		t.Fatalf("expected no key for an empty scoreboard")
	}
}
