/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"sort"
	"time"
)

// handleStart transitions a room from lobby to playing. Host-only; silently
// ignored otherwise.
func (b *Broker) handleStart(req request) {
	rm, ok := b.rooms[canonicalCode(req.msg.RoomCode)]
	if !ok || rm.state != stateLobby {
		return
	}

	p := rm.findByClient(req.client)
	if p == nil || p.ID != rm.hostID {
		return
	}

	rm.puzzle = generatePuzzle(rm.difficulty)
	rm.totalEmpty = emptyCells(rm.puzzle.Initial)
	rm.claims = [gridCells]string{}
	rm.claimCount = 0
	for _, p := range rm.players {
		p.Score = 0
		p.Progress = 0
	}
	rm.state = statePlaying
	rm.startedAt = time.Now()

	logf(b.cfg, "GAMES: Started %s round in %s (%s, %d empty cells)",
		rm.mode, rm.code, rm.difficulty, rm.totalEmpty)

	b.broadcast(rm, GameStartedMessage{
		Type:       "game_started",
		Initial:    gridSlice(rm.puzzle.Initial),
		Players:    rm.roster(),
		TotalEmpty: rm.totalEmpty,
	})
}

// handleDifficulty updates the lobby's difficulty. Host-only; silently
// ignored otherwise.
func (b *Broker) handleDifficulty(req request) {
	rm, ok := b.rooms[canonicalCode(req.msg.RoomCode)]
	if !ok || rm.state != stateLobby {
		return
	}

	p := rm.findByClient(req.client)
	if p == nil || p.ID != rm.hostID {
		return
	}

	if _, known := difficultyErasures[req.msg.Difficulty]; !known {
		return
	}

	rm.difficulty = req.msg.Difficulty
	b.broadcastLobby(rm)
}

// handleMove arbitrates a submitted cell value. In territory mode a claim
// succeeds only if the value is correct and the cell is still unowned; the
// loop's sequential processing guarantees the first submission processed
// wins a contested cell.
func (b *Broker) handleMove(req request) {
	rm, ok := b.rooms[canonicalCode(req.msg.RoomCode)]
	if !ok || rm.state != statePlaying || rm.puzzle == nil {
		return
	}

	p := rm.findByClient(req.client)
	if p == nil || req.msg.Index == nil {
		return
	}

	idx := *req.msg.Index
	if idx < 0 || idx >= gridCells || rm.puzzle.Initial[idx] != 0 {
		return
	}

	correct := req.msg.Value == rm.puzzle.Solution[idx]

	if rm.mode != modeTerritory {
		// Speedrun boards live client-side; progress arrives separately
		// via update_progress and move results are intentionally unused.
		return
	}

	switch {
	case !correct:
		metricClaims.WithLabelValues(claimResultRejectedWrong).Inc()
		p.Score -= wrongPenalty
		b.broadcast(rm, TerritoryPenaltyMessage{
			Type:     "territory_penalty",
			TargetID: p.ID,
			Index:    idx,
			Scores:   rm.scoreTable(),
		})

	case rm.claims[idx] != "":
		// Correct but already owned: the slower of two contested claims.
		// No penalty, no broadcast.
		metricClaims.WithLabelValues(claimResultRejectedTaken).Inc()

	default:
		metricClaims.WithLabelValues(claimResultClaimed).Inc()
		rm.claims[idx] = p.ID
		rm.claimCount++
		p.Score += claimPoints

		b.broadcast(rm, TerritoryUpdateMessage{
			Type:    "territory_update",
			Index:   idx,
			Value:   req.msg.Value,
			OwnerID: p.ID,
			Color:   p.Color,
			Scores:  rm.scoreTable(),
		})

		if rm.claimCount == rm.totalEmpty {
			b.finishTerritory(rm)
		}
	}
}

// finishTerritory ends a fully-claimed round: the highest score wins, ties
// broken by join order.
func (b *Broker) finishTerritory(rm *room) {
	rm.state = stateFinished

	winner := rm.players[0]
	for _, p := range rm.players[1:] {
		if p.Score > winner.Score {
			winner = p
		}
	}
	rm.winner = winner.Username

	logf(b.cfg, "GAMES: Room %s finished, %q wins with %d points",
		rm.code, winner.Username, winner.Score)

	b.broadcast(rm, GameOverMessage{
		Type:     "game_over",
		Winner:   winner.Username,
		FullGrid: gridSlice(rm.puzzle.Solution),
	})
}

// handleProgress stores a speedrun player's self-reported completion
// percentage and rebroadcasts the standings. Reaching 100 ends the match.
func (b *Broker) handleProgress(req request) {
	rm, ok := b.rooms[canonicalCode(req.msg.RoomCode)]
	if !ok || rm.state != statePlaying || rm.mode != modeSpeedrun {
		return
	}

	p := rm.findByClient(req.client)
	if p == nil || req.msg.Progress == nil {
		return
	}

	progress := *req.msg.Progress
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	p.Progress = progress

	standings := make([]PlayerProgress, 0, len(rm.players))
	for _, entry := range rm.players {
		standings = append(standings, PlayerProgress{
			ID:       entry.ID,
			Username: entry.Username,
			Progress: entry.Progress,
			Color:    entry.Color,
		})
	}
	// Presentation order only; roster order stays untouched.
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Progress > standings[j].Progress
	})

	b.broadcast(rm, ProgressUpdateMessage{
		Type:    "progress_update",
		Players: standings,
	})

	if p.Progress >= 100 {
		rm.state = stateFinished
		rm.winner = p.Username
		logf(b.cfg, "GAMES: Room %s finished, %q completed their board", rm.code, p.Username)
		b.broadcast(rm, GameOverMessage{
			Type:   "game_over",
			Winner: p.Username,
		})
	}
}

// handleLeave removes a player on explicit request, in any lifecycle state.
func (b *Broker) handleLeave(req request) {
	rm, ok := b.rooms[canonicalCode(req.msg.RoomCode)]
	if !ok {
		return
	}

	p := rm.findByClient(req.client)
	if p == nil {
		return
	}

	req.client.roomCode = ""
	req.client.playerID = ""
	b.removePlayer(rm, p)
}

// handleClose processes a transport drop. Mid-match the player's slot is
// held for reconnection; in any other state there is no match state worth
// preserving and the drop is treated as an explicit leave.
func (b *Broker) handleClose(c *Client) {
	if _, ok := b.clients[c]; !ok {
		return
	}
	delete(b.clients, c)
	metricConnectedClients.Dec()
	close(c.send)
	if c.conn != nil {
		_ = c.conn.Close()
	}

	if c.roomCode == "" {
		return
	}
	rm, ok := b.rooms[c.roomCode]
	if !ok {
		return
	}
	p := rm.findByID(c.playerID)
	if p == nil || p.client != c {
		return
	}

	if rm.state == statePlaying {
		p.client = nil
		logf(b.cfg, "GAMES: Player %q disconnected from %s, slot held", p.Username, rm.code)
		b.broadcast(rm, PlayerLeftMessage{
			Type:      "player_left_game",
			ID:        p.ID,
			Username:  p.Username,
			Temporary: true,
		})
		return
	}

	b.removePlayer(rm, p)
}

// removePlayer permanently drops a player from the roster, reassigning the
// host and destroying the room once empty.
func (b *Broker) removePlayer(rm *room, p *player) {
	p.client = nil

	if rm.state == statePlaying {
		// Their claims stay on the board; keep the color for resyncs.
		rm.departed[p.ID] = p.Color
	}

	for i, entry := range rm.players {
		if entry == p {
			rm.players = append(rm.players[:i], rm.players[i+1:]...)
			break
		}
	}

	logf(b.cfg, "GAMES: Player %q left %s", p.Username, rm.code)

	if len(rm.players) == 0 {
		b.destroyRoom(rm)
		return
	}

	if rm.hostID == p.ID {
		rm.hostID = rm.players[0].ID
	}

	if rm.state == stateLobby {
		b.broadcastLobby(rm)
		return
	}

	b.broadcast(rm, PlayerLeftMessage{
		Type:      "player_left_game",
		ID:        p.ID,
		Username:  p.Username,
		Temporary: false,
	})
}
