// Gridbox Sudoku Broker
//
// Several remote players solve the same sudoku board competitively, in one
// of two modes: speedrun (first to fill their own board wins) and territory
// (each correctly answered cell is permanently claimed by the fastest
// player).
//
// Features:
// - Rooms addressed by short human-typeable codes, created over the socket
// - One broker goroutine owns all room state; client messages are funneled
//   through per-kind channels and processed strictly one at a time, which
//   makes every room mutation atomic without locks
// - Players carry a durable logical ID, assigned at first join and looked
//   up by username; the websocket connection is a volatile binding replaced
//   on every reconnect
// - Territory claims are keyed by logical ID, so a reconnect never touches
//   ownership data
// - A client that drops mid-match keeps its roster slot, score, and claims
//   until it rejoins with the same username or another player leaves
// - Reconnecting clients receive a full resync: board, roster, elapsed
//   time, and a replay of every claimed cell
// - Host-only controls (start, difficulty) with silent rejection
// - In-browser QR endpoint to share a room code, backed by go-qrcode

/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"crypto/rand"
	"strings"
	"sync"
	"time"
)

type roomState string

const (
	stateLobby    roomState = "lobby"
	statePlaying  roomState = "playing"
	stateFinished roomState = "finished"
)

const (
	modeSpeedrun  = "speedrun"
	modeTerritory = "territory"
)

// Colors assigned to players by join order.
var palette = []string{
	"#86efac",
	"#fca5a5",
	"#93c5fd",
	"#fde047",
	"#d8b4fe",
	"#fdba74",
}

const (
	claimPoints  = 10
	wrongPenalty = 5
)

// player is a participant's durable identity within one room. ID is stable
// for the life of the room; client is rebound on every reconnect and nil
// while the transport is down mid-match.
type player struct {
	ID       string
	Username string
	Color    string
	Score    int
	Progress float64

	client *Client
}

type room struct {
	code       string
	state      roomState
	mode       string
	difficulty string
	players    []*player // join order; host transfers follow this order
	hostID     string
	puzzle     *Puzzle
	claims     [gridCells]string // owner logical IDs; empty string = unclaimed
	claimCount int
	totalEmpty int
	startedAt  time.Time
	winner     string

	// Colors of players who left mid-match. Their claims stay on the
	// board, so resync replays still need display data for them.
	departed map[string]string
}

func (rm *room) findByUsername(username string) *player {
	for _, p := range rm.players {
		if p.Username == username {
			return p
		}
	}
	return nil
}

func (rm *room) findByClient(c *Client) *player {
	for _, p := range rm.players {
		if p.client == c {
			return p
		}
	}
	return nil
}

type request struct {
	client *Client
	msg    ClientMessage
}

// Broker owns the room registry and processes every client event
// sequentially in run(). All fields below the channels are touched only
// from that loop, except codes, which mirrors live room codes for the
// HTTP-side QR handler.
type Broker struct {
	cfg *Config

	registers    chan *Client
	creates      chan request
	joins        chan request
	starts       chan request
	difficulties chan request
	moves        chan request
	progress     chan request
	leaves       chan request
	closes       chan *Client

	rooms   map[string]*room
	clients map[*Client]struct{}

	codesMu sync.RWMutex
	codes   map[string]struct{}
}

func newBroker(cfg *Config) *Broker {
	return &Broker{
		cfg:          cfg,
		registers:    make(chan *Client),
		creates:      make(chan request),
		joins:        make(chan request),
		starts:       make(chan request),
		difficulties: make(chan request),
		moves:        make(chan request),
		progress:     make(chan request),
		leaves:       make(chan request),
		closes:       make(chan *Client),
		rooms:        make(map[string]*room),
		clients:      make(map[*Client]struct{}),
		codes:        make(map[string]struct{}),
	}
}

func (b *Broker) run(ctx context.Context) {
	for {
		select {
		case c := <-b.registers:
			b.clients[c] = struct{}{}
			metricConnectedClients.Inc()

		case req := <-b.creates:
			metricClientEvents.WithLabelValues("create_room").Inc()
			b.handleCreate(req)

		case req := <-b.joins:
			metricClientEvents.WithLabelValues("join_room").Inc()
			b.handleJoin(req)

		case req := <-b.starts:
			metricClientEvents.WithLabelValues("start_game").Inc()
			b.handleStart(req)

		case req := <-b.difficulties:
			metricClientEvents.WithLabelValues("change_difficulty").Inc()
			b.handleDifficulty(req)

		case req := <-b.moves:
			metricClientEvents.WithLabelValues("submit_move").Inc()
			b.handleMove(req)

		case req := <-b.progress:
			metricClientEvents.WithLabelValues("update_progress").Inc()
			b.handleProgress(req)

		case req := <-b.leaves:
			metricClientEvents.WithLabelValues("leave_room").Inc()
			b.handleLeave(req)

		case c := <-b.closes:
			b.handleClose(c)

		case <-ctx.Done():
			return
		}
	}
}

// roomExists is the only broker query safe to call off the loop.
func (b *Broker) roomExists(code string) bool {
	b.codesMu.RLock()
	defer b.codesMu.RUnlock()

	_, ok := b.codes[code]
	return ok
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// canonicalCode normalizes user-typed room codes; codes are matched
// case-insensitively.
func canonicalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// randomRoomCode generates n crypto-random characters from the code
// alphabet, rejection-sampled to stay unbiased.
func randomRoomCode(n int) string {
	const max = byte(255 - (256 % len(codeAlphabet)))

	out := make([]byte, 0, n)
	buf := make([]byte, n*2)

	for {
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}

		for _, c := range buf {
			if c <= max {
				out = append(out, codeAlphabet[int(c)%len(codeAlphabet)])
				if len(out) == n {
					return string(out)
				}
			}
		}
	}
}

func (b *Broker) newRoomCode() string {
	for {
		code := randomRoomCode(b.cfg.codeLength)
		if _, exists := b.rooms[code]; !exists {
			return code
		}
	}
}

// =========================================================================
// Registry and identity resolution
// =========================================================================

func (b *Broker) handleCreate(req request) {
	c := req.client
	mode := req.msg.Mode
	if mode != modeSpeedrun && mode != modeTerritory {
		b.sendError(c, "Unknown game mode.")
		return
	}

	code := b.newRoomCode()
	b.rooms[code] = &room{
		code:       code,
		state:      stateLobby,
		mode:       mode,
		difficulty: defaultDifficulty,
		departed:   make(map[string]string),
	}

	b.codesMu.Lock()
	b.codes[code] = struct{}{}
	b.codesMu.Unlock()

	metricActiveRooms.Inc()
	logf(b.cfg, "GAMES: Created %s room %s", mode, code)

	b.enqueue(c, RoomCreatedMessage{
		Type: "room_created",
		Code: code,
	})
}

func (b *Broker) destroyRoom(rm *room) {
	delete(b.rooms, rm.code)

	b.codesMu.Lock()
	delete(b.codes, rm.code)
	b.codesMu.Unlock()

	metricActiveRooms.Dec()
	logf(b.cfg, "GAMES: Destroyed room %s", rm.code)
}

func (b *Broker) handleJoin(req request) {
	c := req.client
	username := req.msg.Username
	if username == "" {
		b.sendError(c, "A username is required.")
		return
	}
	if c.roomCode != "" {
		// One room per client; leave first.
		return
	}

	rm, ok := b.rooms[canonicalCode(req.msg.RoomCode)]
	if !ok {
		b.sendError(c, "That room does not exist.")
		return
	}

	if p := rm.findByUsername(username); p != nil {
		if p.client != nil {
			b.sendError(c, "That username is taken in this room.")
			return
		}
		b.reconnect(rm, p, c)
		return
	}

	if rm.state != stateLobby {
		b.sendError(c, "The game has already started.")
		return
	}

	p := &player{
		ID:       newPlayerID(),
		Username: username,
		Color:    palette[len(rm.players)%len(palette)],
		client:   c,
	}
	rm.players = append(rm.players, p)
	if len(rm.players) == 1 {
		rm.hostID = p.ID
	}
	c.roomCode = rm.code
	c.playerID = p.ID

	logf(b.cfg, "GAMES: Player %q joined %s", username, rm.code)

	b.enqueue(c, JoinedSuccessMessage{
		Type:     "joined_success",
		RoomCode: rm.code,
		PlayerID: p.ID,
		Mode:     rm.mode,
		Color:    p.Color,
	})
	b.broadcastLobby(rm)
}

// reconnect rebinds a held roster slot to a fresh transport and resyncs
// the match state the client missed. Claims are keyed by logical ID, so
// nothing beyond the binding changes.
func (b *Broker) reconnect(rm *room, p *player, c *Client) {
	p.client = c
	c.roomCode = rm.code
	c.playerID = p.ID

	logf(b.cfg, "GAMES: Player %q reconnected to %s", p.Username, rm.code)

	b.enqueue(c, JoinedSuccessMessage{
		Type:     "joined_success",
		RoomCode: rm.code,
		PlayerID: p.ID,
		Mode:     rm.mode,
		Color:    p.Color,
	})

	switch rm.state {
	case statePlaying:
		b.sendResync(rm, c)
	case stateFinished:
		// The ending happened while this client was gone; replay it.
		over := GameOverMessage{
			Type:   "game_over",
			Winner: rm.winner,
		}
		if rm.mode == modeTerritory && rm.puzzle != nil {
			over.FullGrid = gridSlice(rm.puzzle.Solution)
		}
		b.enqueue(c, over)
	default:
		b.broadcastLobby(rm)
	}
}

// sendResync unicasts the full match state to one client: the board and
// roster as a game_started message carrying elapsed time, then one claim
// event per owned cell, then a score-only refresh. Pure reads; sending it
// twice yields the same sequence.
func (b *Broker) sendResync(rm *room, c *Client) {
	started := GameStartedMessage{
		Type:       "game_started",
		Initial:    gridSlice(rm.puzzle.Initial),
		Players:    rm.roster(),
		TotalEmpty: rm.totalEmpty,
		Elapsed:    time.Since(rm.startedAt).Seconds(),
	}
	b.enqueue(c, started)

	if rm.mode != modeTerritory {
		return
	}

	scores := rm.scoreTable()
	for idx, owner := range rm.claims {
		if owner == "" {
			continue
		}
		// Claims of players who left mid-match stay on the board; their
		// color survives in rm.departed.
		color := rm.departed[owner]
		if p := rm.findByID(owner); p != nil {
			color = p.Color
		}
		b.enqueue(c, TerritoryUpdateMessage{
			Type:    "territory_update",
			Index:   idx,
			Value:   rm.puzzle.Solution[idx],
			OwnerID: owner,
			Color:   color,
			Scores:  scores,
		})
	}

	b.enqueue(c, TerritoryUpdateMessage{
		Type:   "territory_update",
		Index:  -1,
		Scores: scores,
	})
}

func (rm *room) findByID(id string) *player {
	for _, p := range rm.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// =========================================================================
// Broadcast assembly
// =========================================================================

func (rm *room) roster() []RosterEntry {
	roster := make([]RosterEntry, 0, len(rm.players))
	for _, p := range rm.players {
		roster = append(roster, RosterEntry{
			ID:       p.ID,
			Username: p.Username,
			Color:    p.Color,
			Score:    p.Score,
			Progress: p.Progress,
		})
	}
	return roster
}

func (rm *room) scoreTable() []PlayerScore {
	scores := make([]PlayerScore, 0, len(rm.players))
	for _, p := range rm.players {
		scores = append(scores, PlayerScore{
			ID:    p.ID,
			Score: p.Score,
		})
	}
	return scores
}

func (b *Broker) broadcastLobby(rm *room) {
	b.broadcast(rm, UpdateLobbyMessage{
		Type:       "update_lobby",
		Players:    rm.roster(),
		Mode:       rm.mode,
		Difficulty: rm.difficulty,
		HostID:     rm.hostID,
	})
}

// broadcast enqueues msg for every currently-connected transport in the
// room. Disconnected players are skipped; their slots are still held.
// Iterates a snapshot: dropping an unresponsive client mid-broadcast can
// mutate the roster underneath us.
func (b *Broker) broadcast(rm *room, msg any) {
	players := make([]*player, len(rm.players))
	copy(players, rm.players)

	for _, p := range players {
		if p.client != nil {
			b.enqueue(p.client, msg)
		}
	}
}

// enqueue hands a message to the client's write pump without blocking the
// loop. A client too slow to drain its buffer is treated as dead.
func (b *Broker) enqueue(c *Client, msg any) {
	if _, ok := b.clients[c]; !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		logf(b.cfg, "GAMES: Dropping unresponsive client %s", c.id)
		b.handleClose(c)
	}
}

func (b *Broker) sendError(c *Client, message string) {
	b.enqueue(c, ErrorMessage{
		Type:    "error",
		Message: message,
	})
}

func gridSlice(grid [gridCells]int) []int {
	out := make([]int, gridCells)
	copy(out, grid[:])
	return out
}
