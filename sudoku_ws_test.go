/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

const wsTestTimeout = 5 * time.Second

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	cfg := &Config{codeLength: 4}
	mux := httprouter.New()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	registerSudokuGame(ctx, cfg, "/sudoku", mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv, "ws" + strings.TrimPrefix(srv.URL, "http") + "/sudoku/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()

	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", msg.Type, err)
	}
}

// awaitEvent reads until a message of the wanted type arrives, discarding
// interleaved broadcasts.
func awaitEvent(t *testing.T, conn *websocket.Conn, wanted string) map[string]any {
	t.Helper()

	deadline := time.Now().Add(wsTestTimeout)
	_ = conn.SetReadDeadline(deadline)

	for {
		var event map[string]any
		if err := conn.ReadJSON(&event); err != nil {
			t.Fatalf("waiting for %q: %v", wanted, err)
		}

		kind, _ := event["type"].(string)
		if kind == "error" && wanted != "error" {
			t.Fatalf("waiting for %q, got error: %v", wanted, event["message"])
		}
		if kind == wanted {
			return event
		}
	}
}

func createAndJoin(t *testing.T, conn *websocket.Conn, mode, username string) string {
	t.Helper()

	send(t, conn, ClientMessage{Type: "create_room", Mode: mode})
	code, _ := awaitEvent(t, conn, "room_created")["code"].(string)
	if code == "" {
		t.Fatal("room_created carried no code")
	}

	send(t, conn, ClientMessage{Type: "join_room", RoomCode: code, Username: username})
	awaitEvent(t, conn, "joined_success")
	awaitEvent(t, conn, "update_lobby")

	return code
}

func joinAs(t *testing.T, conn *websocket.Conn, code, username string) map[string]any {
	t.Helper()

	send(t, conn, ClientMessage{Type: "join_room", RoomCode: code, Username: username})
	return awaitEvent(t, conn, "joined_success")
}

func TestWebSocketSpeedrunRoundTrip(t *testing.T) {
	_, wsURL := newTestServer(t)

	alice := dial(t, wsURL)
	bob := dial(t, wsURL)

	code := createAndJoin(t, alice, "speedrun", "alice")
	joinAs(t, bob, code, "bob")

	lobby := awaitEvent(t, alice, "update_lobby")
	players, _ := lobby["players"].([]any)
	if len(players) != 2 {
		t.Fatalf("lobby has %d players, want 2", len(players))
	}

	send(t, alice, ClientMessage{Type: "start_game", RoomCode: code})
	started := awaitEvent(t, bob, "game_started")
	initial, _ := started["initial"].([]any)
	if len(initial) != gridCells {
		t.Fatalf("initial grid has %d cells, want %d", len(initial), gridCells)
	}
	awaitEvent(t, alice, "game_started")

	halfway := 50.0
	send(t, bob, ClientMessage{Type: "update_progress", RoomCode: code, Progress: &halfway})
	update := awaitEvent(t, alice, "progress_update")
	head := update["players"].([]any)[0].(map[string]any)
	if head["username"] != "bob" || head["progress"].(float64) != 50 {
		t.Fatalf("standings head %v, want bob at 50", head)
	}

	done := 100.0
	send(t, bob, ClientMessage{Type: "update_progress", RoomCode: code, Progress: &done})
	over := awaitEvent(t, alice, "game_over")
	if over["winner"] != "bob" {
		t.Fatalf("winner %v, want bob", over["winner"])
	}
	awaitEvent(t, bob, "game_over")
}

func TestWebSocketReconnectResync(t *testing.T) {
	_, wsURL := newTestServer(t)

	alice := dial(t, wsURL)
	bob := dial(t, wsURL)

	code := createAndJoin(t, alice, "territory", "alice")
	joined := joinAs(t, bob, code, "bob")
	bobID, _ := joined["playerId"].(string)
	bobColor, _ := joined["color"].(string)

	send(t, alice, ClientMessage{Type: "start_game", RoomCode: code})
	awaitEvent(t, alice, "game_started")
	awaitEvent(t, bob, "game_started")

	bob.Close()
	left := awaitEvent(t, alice, "player_left_game")
	if left["temporary"] != true {
		t.Fatal("mid-match drop was not announced as temporary")
	}

	revived := dial(t, wsURL)
	rejoined := joinAs(t, revived, code, "bob")
	if rejoined["playerId"] != bobID {
		t.Fatalf("reconnect minted a new identity: %v, want %v", rejoined["playerId"], bobID)
	}
	if rejoined["color"] != bobColor {
		t.Fatalf("reconnect changed color: %v, want %v", rejoined["color"], bobColor)
	}

	started := awaitEvent(t, revived, "game_started")
	if elapsed, _ := started["elapsed"].(float64); elapsed < 0 {
		t.Fatalf("negative elapsed time %f", elapsed)
	}
	refresh := awaitEvent(t, revived, "territory_update")
	if refresh["index"].(float64) != -1 {
		t.Fatalf("resync tail index %v, want -1 with no prior claims", refresh["index"])
	}
}

func TestQRCodeEndpoint(t *testing.T) {
	srv, wsURL := newTestServer(t)

	conn := dial(t, wsURL)
	code := createAndJoin(t, conn, "speedrun", "alice")

	resp, err := http.Get(srv.URL + "/sudoku/qr/" + strings.ToLower(code))
	if err != nil {
		t.Fatalf("qr request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("qr status %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "image/png" {
		t.Fatalf("qr content type %q, want image/png", got)
	}

	missing := "ZZZ0"
	if missing == code {
		missing = "ZZZ1"
	}
	resp, err = http.Get(srv.URL + "/sudoku/qr/" + missing)
	if err != nil {
		t.Fatalf("qr request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("qr status for dead room %d, want 404", resp.StatusCode)
	}
}
