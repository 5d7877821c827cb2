/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

// ClientMessage covers every message a client may send. Unused fields are
// left empty for any given type.
type ClientMessage struct {
	Type       string   `json:"type"`                 // "create_room", "join_room", "change_difficulty", "start_game", "submit_move", "update_progress", "leave_room"
	Username   string   `json:"username,omitempty"`   // create_room / join_room
	Mode       string   `json:"mode,omitempty"`       // create_room
	RoomCode   string   `json:"roomCode,omitempty"`   // everything except create_room
	Difficulty string   `json:"difficulty,omitempty"` // change_difficulty
	Index      *int     `json:"index,omitempty"`      // submit_move
	Value      int      `json:"value,omitempty"`      // submit_move
	Progress   *float64 `json:"progress,omitempty"`   // update_progress
}

// RoomCreatedMessage confirms room creation to the creator, who still has
// to join with the returned code.
type RoomCreatedMessage struct {
	Type string `json:"type"` // "room_created"
	Code string `json:"code"`
}

// JoinedSuccessMessage confirms a join or reconnection to a single client.
type JoinedSuccessMessage struct {
	Type     string `json:"type"` // "joined_success"
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
	Mode     string `json:"mode"`
	Color    string `json:"color"`
}

// RosterEntry is one player as seen by other clients.
type RosterEntry struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Color    string  `json:"color"`
	Score    int     `json:"score"`
	Progress float64 `json:"progress"`
}

// UpdateLobbyMessage is the lobby roster snapshot.
type UpdateLobbyMessage struct {
	Type       string        `json:"type"` // "update_lobby"
	Players    []RosterEntry `json:"players"`
	Mode       string        `json:"mode"`
	Difficulty string        `json:"difficulty"`
	HostID     string        `json:"hostId"`
}

// GameStartedMessage begins a round. It doubles as the head of the resync
// payload for a reconnecting client, in which case Elapsed carries the
// seconds since the round started.
type GameStartedMessage struct {
	Type       string        `json:"type"` // "game_started"
	Initial    []int         `json:"initial"`
	Players    []RosterEntry `json:"players"`
	TotalEmpty int           `json:"totalEmpty"`
	Elapsed    float64       `json:"elapsed,omitempty"`
}

// PlayerScore is one row of the score table.
type PlayerScore struct {
	ID    string `json:"id"`
	Score int    `json:"score"`
}

// TerritoryUpdateMessage broadcasts a successful claim. Index -1 denotes a
// score-only refresh with no cell attached.
type TerritoryUpdateMessage struct {
	Type    string        `json:"type"` // "territory_update"
	Index   int           `json:"index"`
	Value   int           `json:"value,omitempty"`
	OwnerID string        `json:"ownerId,omitempty"`
	Color   string        `json:"color,omitempty"`
	Scores  []PlayerScore `json:"scores"`
}

// TerritoryPenaltyMessage flags a wrong guess and its cost.
type TerritoryPenaltyMessage struct {
	Type     string        `json:"type"` // "territory_penalty"
	TargetID string        `json:"targetId"`
	Index    int           `json:"index"`
	Scores   []PlayerScore `json:"scores"`
}

// PlayerProgress is one row of the speedrun progress table.
type PlayerProgress struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Progress float64 `json:"progress"`
	Color    string  `json:"color"`
}

// ProgressUpdateMessage broadcasts the full roster's progress, sorted
// descending by percentage.
type ProgressUpdateMessage struct {
	Type    string           `json:"type"` // "progress_update"
	Players []PlayerProgress `json:"players"`
}

// GameOverMessage ends the round. FullGrid carries the solved board for
// territory endings so clients can display the final state.
type GameOverMessage struct {
	Type     string `json:"type"` // "game_over"
	Winner   string `json:"winner"`
	FullGrid []int  `json:"fullGrid,omitempty"`
}

// PlayerLeftMessage notifies a room of a departure. Temporary marks a
// transport drop whose slot is held for reconnection.
type PlayerLeftMessage struct {
	Type      string `json:"type"` // "player_left_game"
	ID        string `json:"id"`
	Username  string `json:"username"`
	Temporary bool   `json:"temporary"`
}

// ErrorMessage carries a human-readable failure to a single client.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}
