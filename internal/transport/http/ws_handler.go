package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/BesuglovS/akaquiz/internal/domain"
	"github.com/BesuglovS/akaquiz/internal/export"
	"github.com/BesuglovS/akaquiz/internal/game"
	"github.com/gorilla/websocket"
)

// QuizLister enumerates the quiz identifiers available to the host.
type QuizLister interface {
	List(ctx context.Context) ([]string, error)
}

// WSHandler wires host and player websocket connections into the game
// service. All authoritative state lives in the session; the handler only
// keeps per-connection transient bookkeeping (live nicknames) used to
// gate joins and detect the all-answered condition.
type WSHandler struct {
	service  *game.GameService
	lister   QuizLister
	secret   string
	maxNick  int
	upgrader websocket.Upgrader

	mu      sync.Mutex
	players map[string]struct{}
}

func NewWSHandler(service *game.GameService, lister QuizLister, hostSecret string, maxNicknameLength int) *WSHandler {
	return &WSHandler{
		service: service,
		lister:  lister,
		secret:  hostSecret,
		maxNick: maxNicknameLength,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		players: make(map[string]struct{}),
	}
}

// Register mounts all HTTP endpoints on the mux.
func (h *WSHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/quizzes", h.ServeQuizList)
	mux.HandleFunc("/export/results.csv", h.ServeExport)
	mux.HandleFunc("/ws/host", h.ServeHost)
	mux.HandleFunc("/ws/play", h.ServePlay)
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type loadPayload struct {
	File      string `json:"file"`
	Shuffle   bool   `json:"shuffle"`
	Limit     string `json:"limit"` // "all" (or empty) or a positive integer
	TimeLimit int    `json:"timeLimit"`
}

type answerPayload struct {
	Option  int     `json:"option"`
	Elapsed float64 `json:"elapsed"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeQuizList returns the available quiz identifiers as JSON.
func (h *WSHandler) ServeQuizList(w http.ResponseWriter, r *http.Request) {
	names, err := h.lister.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string][]string{"quizzes": names})
}

// ServeExport renders the current results as CSV, host secret required.
func (h *WSHandler) ServeExport(w http.ResponseWriter, r *http.Request) {
	if !h.checkSecret(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="results.csv"`)
	if err := export.WriteCSV(w, h.service.ResultsSnapshot()); err != nil {
		log.Printf("export failed: %v", err)
	}
}

// ServeHost upgrades the host connection and maps its commands onto the
// game service. Closing the host connection force-ends any open question
// so no timer outlives its controller.
func (h *WSHandler) ServeHost(w http.ResponseWriter, r *http.Request) {
	if !h.checkSecret(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("host ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	defer h.service.Stop()

	send, cleanup := h.startEventPump(conn)
	defer cleanup()

	send <- outboundMessage{Type: "host_ready", Payload: map[string]int{
		"players": h.playerCount(),
	}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.handleHostMessage(r.Context(), inbound, send)
	}
}

func (h *WSHandler) handleHostMessage(ctx context.Context, inbound inboundMessage, send chan outboundMessage) {
	switch inbound.Type {
	case "load":
		var payload loadPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid load payload")
			return
		}
		result, err := h.service.Load(ctx, payload.File, payload.Shuffle, parseLimit(payload.Limit), payload.TimeLimit)
		if err != nil {
			send <- errorMessage(err.Error())
			return
		}
		send <- outboundMessage{Type: "load_result", Payload: result}
	case "next":
		h.service.Next()
	case "stop":
		h.service.Stop()
	case "pause":
		h.service.TogglePause()
	case "reset":
		h.service.Reset(ctx)
	default:
		send <- errorMessage("unsupported message type")
	}
}

// ServePlay upgrades a player connection. The nickname is validated and
// reserved before the upgrade; answers are bounds-checked here so the
// session only ever sees trusted inputs.
func (h *WSHandler) ServePlay(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if err := h.claimName(name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer h.releaseName(name)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("player ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send, cleanup := h.startEventPump(conn)
	defer cleanup()

	send <- outboundMessage{Type: "joined", Payload: map[string]any{
		"name":      name,
		"remaining": h.service.RemainingSeconds(),
	}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if inbound.Type != "answer" {
			send <- errorMessage("unsupported message type")
			continue
		}
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid answer payload")
			continue
		}
		// Out-of-range submissions are ordinary traffic, dropped silently.
		if payload.Option < 0 || payload.Option >= h.service.OptionCount() || payload.Elapsed < 0 {
			continue
		}
		result := h.service.Answer(name, payload.Option, payload.Elapsed)
		if !result.Accepted {
			continue
		}
		// Correctness stays hidden until the question ends.
		send <- outboundMessage{Type: "answer_accepted"}
		if h.service.AnsweredCount() >= h.playerCount() {
			h.service.Stop()
		}
	}
}

// startEventPump subscribes the connection to game events and starts the
// writer goroutine. All writes to the socket go through the returned
// channel so no two goroutines ever write concurrently.
func (h *WSHandler) startEventPump(conn *websocket.Conn) (chan outboundMessage, func()) {
	updates, unsubscribe := h.service.Subscribe()

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case ev, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage{Type: ev.Type, Payload: ev.Payload}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	cleanup := func() {
		unsubscribe()
		close(closeSignals)
		<-updatesDone
		close(send)
		<-writerDone
	}
	return send, cleanup
}

func (h *WSHandler) checkSecret(r *http.Request) bool {
	return h.secret == "" || r.URL.Query().Get("secret") == h.secret
}

func (h *WSHandler) claimName(name string) error {
	if name == "" || len([]rune(name)) > h.maxNick {
		return domain.ErrNameInvalid
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, taken := h.players[name]; taken {
		return domain.ErrNameTaken
	}
	h.players[name] = struct{}{}
	return nil
}

func (h *WSHandler) releaseName(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.players, name)
}

func (h *WSHandler) playerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.players)
}

func errorMessage(msg string) outboundMessage {
	return outboundMessage{Type: "error", Payload: errorPayload{Message: msg}}
}

func parseLimit(raw string) domain.QuestionLimit {
	if raw == "" || raw == "all" {
		return domain.LimitAll()
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return domain.LimitAll()
	}
	return domain.LimitN(n)
}
