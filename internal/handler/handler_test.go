package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tradingpit/tradingpit/internal/game"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := game.DefaultConfig()
	cfg.RoundDuration = 0
	cfg.Seed = 42
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := game.NewRegistry(cfg, logger)
	t.Cleanup(registry.Shutdown)

	server := httptest.NewServer(NewRouter(registry, "*", logger))
	t.Cleanup(server.Close)
	return server
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

// readFrame reads server frames until one of the wanted type arrives.
func readFrame(t *testing.T, conn *websocket.Conn, msgType string) game.ServerMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	conn.SetReadDeadline(deadline)
	for {
		var msg game.ServerMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", msgType, err)
		}
		if msg.Type == msgType {
			return msg
		}
		if time.Now().After(deadline) {
			t.Fatalf("no %s frame before deadline", msgType)
		}
	}
}

func dialSession(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t)

	var body map[string]string
	status := getJSON(t, server.URL+"/healthz", &body)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v, want status ok", body)
	}
}

func TestGetSession_Unknown(t *testing.T) {
	server := newTestServer(t)

	var body map[string]string
	status := getJSON(t, server.URL+"/sessions/nope", &body)
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
	if body["error"] != "unknown_session" {
		t.Errorf("error = %q, want unknown_session", body["error"])
	}
}

func TestWebsocket_ConnectAndJoin(t *testing.T) {
	server := newTestServer(t)
	conn := dialSession(t, server, "room-1")

	// The first frame is always the current snapshot.
	snap := readFrame(t, conn, "STATE_SNAPSHOT")
	if snap.State == nil || snap.State.Phase != game.PhaseLobby {
		t.Fatalf("expected LOBBY snapshot, got %+v", snap.State)
	}
	if snap.State.SessionID != "room-1" {
		t.Errorf("session id = %q, want room-1", snap.State.SessionID)
	}

	if err := conn.WriteJSON(map[string]any{"type": "JOIN", "playerName": "alice"}); err != nil {
		t.Fatalf("write JOIN: %v", err)
	}
	assigned := readFrame(t, conn, "PARTICIPANT_ASSIGNED")
	if assigned.ParticipantID == "" {
		t.Fatal("expected a participant id")
	}

	snap = readFrame(t, conn, "STATE_SNAPSHOT")
	found := false
	for _, p := range snap.State.Players {
		if p.ID == assigned.ParticipantID && p.Name == "alice" {
			found = true
		}
	}
	if !found {
		t.Error("joined player missing from broadcast snapshot")
	}
}

func TestWebsocket_MalformedFrameGetsError(t *testing.T) {
	server := newTestServer(t)
	conn := dialSession(t, server, "room-err")
	readFrame(t, conn, "STATE_SNAPSHOT")

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"DANCE"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg := readFrame(t, conn, "ERROR")
	if msg.Kind != "invalid_request" {
		t.Errorf("kind = %q, want invalid_request", msg.Kind)
	}
}

func TestRESTViews_AfterJoin(t *testing.T) {
	server := newTestServer(t)
	conn := dialSession(t, server, "room-2")
	readFrame(t, conn, "STATE_SNAPSHOT")
	if err := conn.WriteJSON(map[string]any{"type": "JOIN", "playerName": "bob"}); err != nil {
		t.Fatalf("write JOIN: %v", err)
	}
	readFrame(t, conn, "STATE_SNAPSHOT")

	var snap game.Snapshot
	if status := getJSON(t, server.URL+"/sessions/room-2", &snap); status != http.StatusOK {
		t.Fatalf("session status = %d, want 200", status)
	}
	if len(snap.Players) == 0 {
		t.Error("expected players in the session view")
	}

	var book struct {
		Symbol string        `json:"symbol"`
		Book   game.BookView `json:"book"`
	}
	if status := getJSON(t, server.URL+"/sessions/room-2/book/CAMB", &book); status != http.StatusOK {
		t.Fatalf("book status = %d, want 200", status)
	}
	if book.Symbol != "CAMB" {
		t.Errorf("symbol = %q, want CAMB", book.Symbol)
	}

	if status := getJSON(t, server.URL+"/sessions/room-2/book/ZZZZ", nil); status != http.StatusNotFound {
		t.Errorf("unknown symbol status = %d, want 404", status)
	}

	var history struct {
		History []struct {
			Day   int   `json:"day"`
			Price int64 `json:"price"`
		} `json:"history"`
	}
	if status := getJSON(t, server.URL+"/sessions/room-2/history/CAMB", &history); status != http.StatusOK {
		t.Fatalf("history status = %d, want 200", status)
	}
	if len(history.History) == 0 {
		t.Error("expected seeded history points")
	}

	if status := getJSON(t, server.URL+"/sessions/room-2/trades/CAMB", nil); status != http.StatusOK {
		t.Errorf("trades status = %d, want 200", status)
	}
}
