package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/BesuglovS/akaquiz/internal/game"
	"github.com/BesuglovS/akaquiz/internal/quiz"
	"github.com/gorilla/websocket"
)

const testSecret = "host-secret"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	source := quiz.NewStaticSource(map[string]string{
		"geo.txt": "Вопрос: Столица Франции?\nВарианты:\nПариж\nЛион\nОтвет: 1\n",
	})
	repo := quiz.NewRepository(source, quiz.NewParser("/media"), time.Minute)
	session := game.NewSession(game.Policy{})
	service := game.NewGameService(session, repo, nil)
	handler := NewWSHandler(service, repo, testSecret, 24)

	mux := http.NewServeMux()
	handler.Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + path
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, expect string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var msg struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		_ = conn.SetReadDeadline(deadline)
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read waiting for %s: %v", expect, err)
		}
		if msg.Type == expect {
			return msg.Payload
		}
	}
	t.Fatalf("timed out waiting for %s", expect)
	return nil
}

func TestHostAndPlayerFlow(t *testing.T) {
	server := newTestServer(t)

	host := dial(t, server, "/ws/host?secret="+testSecret)
	readUntil(t, host, "host_ready")

	player := dial(t, server, "/ws/play?name=alice")
	readUntil(t, player, "joined")

	// Host loads the quiz; both sides see it.
	if err := host.WriteJSON(map[string]any{
		"type":    "load",
		"payload": map[string]any{"file": "geo.txt", "limit": "all", "timeLimit": 60},
	}); err != nil {
		t.Fatalf("write load: %v", err)
	}
	loadResult := readUntil(t, host, "load_result")
	if loadResult["questionCount"].(float64) != 1 {
		t.Fatalf("expected 1 question, got %v", loadResult)
	}
	readUntil(t, player, "quiz_loaded")

	// Host launches the question.
	if err := host.WriteJSON(map[string]any{"type": "next"}); err != nil {
		t.Fatalf("write next: %v", err)
	}
	question := readUntil(t, player, "question")
	if question["number"].(float64) != 1 {
		t.Fatalf("expected question 1, got %v", question)
	}

	// Player answers correctly; with a single player the question ends
	// immediately (everyone has answered).
	if err := player.WriteJSON(map[string]any{
		"type":    "answer",
		"payload": map[string]any{"option": 0, "elapsed": 0},
	}); err != nil {
		t.Fatalf("write answer: %v", err)
	}
	readUntil(t, player, "answer_accepted")

	end := readUntil(t, player, "question_end")
	if end["correctIndex"].(float64) != 0 {
		t.Fatalf("expected correct index 0, got %v", end)
	}
	scores := readUntil(t, host, "scores")
	if scores["alice"].(float64) != 100 {
		t.Fatalf("expected alice at 100, got %v", scores)
	}
}

func TestHostSecretRequired(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/ws/host?secret=wrong")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestPlayerNicknameValidation(t *testing.T) {
	server := newTestServer(t)

	for _, name := range []string{"", strings.Repeat("x", 25)} {
		resp, err := http.Get(server.URL + "/ws/play?name=" + name)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for name %q, got %d", name, resp.StatusCode)
		}
	}

	_ = dial(t, server, "/ws/play?name=alice")
	resp, err := http.Get(server.URL + "/ws/play?name=alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate name, got %d", resp.StatusCode)
	}
}

func TestQuizListEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/quizzes")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestExportRequiresSecret(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/export/results.csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 without secret, got %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/export/results.csv?secret=" + testSecret)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with secret, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected text/csv, got %s", ct)
	}
}
