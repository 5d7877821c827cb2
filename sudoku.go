/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one websocket connection. Its id is the volatile transport
// identity, minted fresh per connection; roomCode and playerID are the
// broker's binding to a durable player and are only touched from the
// broker loop.
type Client struct {
	conn *websocket.Conn
	send chan any
	id   string

	roomCode string
	playerID string
}

// The resync replay can enqueue one message per claimed cell, so the send
// buffer must comfortably hold a full board.
const sendBufferSize = 128

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		conn: conn,
		send: make(chan any, sendBufferSize),
		id:   uuid.NewString(),
	}
}

func newPlayerID() string {
	return uuid.NewString()
}

func (c *Client) readPump(b *Broker) {
	defer func() {
		b.closes <- c
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "create_room":
			b.creates <- request{client: c, msg: msg}
		case "join_room":
			b.joins <- request{client: c, msg: msg}
		case "start_game":
			b.starts <- request{client: c, msg: msg}
		case "change_difficulty":
			b.difficulties <- request{client: c, msg: msg}
		case "submit_move":
			b.moves <- request{client: c, msg: msg}
		case "update_progress":
			b.progress <- request{client: c, msg: msg}
		case "leave_room":
			b.leaves <- request{client: c, msg: msg}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func serveWS(cfg *Config, b *Broker) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ERROR: Websocket upgrade from %s failed: %v", realIP(r), err)
			return
		}

		client := newClient(conn)
		b.registers <- client

		go client.writePump()
		client.readPump(b)
	}
}

// qrHandler generates a PNG QR code for a live room's join URL, so a lobby
// can be shared to phones without typing the code.
func qrHandler(cfg *Config, path string, b *Broker) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		code := canonicalCode(ps.ByName("code"))
		if !b.roomExists(code) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + cfg.prefix + path + "?room=" + code

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		written, _ := w.Write(png)

		logf(cfg, "SERVE: QR code for room %s (%s) to %s in %s",
			code,
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// registerSudokuGame sets up routes so that:
//   - $path/ws        → the websocket endpoint, one per client
//   - $path/qr/:code  → PNG QR code for a live room's join URL
//
// and starts the broker loop that owns all room state.
func registerSudokuGame(ctx context.Context, cfg *Config, path string, mux *httprouter.Router) *Broker {
	path = strings.TrimSuffix(path, "/")

	b := newBroker(cfg)
	go b.run(ctx)

	mux.GET(cfg.prefix+path+"/ws", serveWS(cfg, b))

	mux.GET(cfg.prefix+path+"/qr/:code", qrHandler(cfg, path, b))

	return b
}
