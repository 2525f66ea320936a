package proto

import "github.com/kushgupta-hiver/tilematch/internal/engine"

// ---- Client -> Server ----
type ClientMsg struct {
	Type  string       `json:"type"`            // "move" | "restart" | "ping"
	From  *engine.Cell `json:"from,omitempty"`  // for "move"
	To    *engine.Cell `json:"to,omitempty"`    // for "move"
	MsgID string       `json:"msgId,omitempty"` // idempotency
}

// ---- Server -> Client ----
type Assigned struct {
	Type string `json:"type"` // "assigned"
	Game string `json:"game"`
}

type State struct {
	Type           string           `json:"type"` // "state"
	Board          [][]engine.Token `json:"board"`
	Score          int              `json:"score"`
	MovesRemaining int              `json:"movesRemaining"`
	GameOver       bool             `json:"gameOver"`
	HasMoved       bool             `json:"hasMoved"`
	Seq            int              `json:"seq"`
}

type MatchInfo struct {
	Cells  []engine.Cell `json:"cells"`
	Length int           `json:"length"`
	Combo  bool          `json:"combo,omitempty"`
}

type Cleared struct {
	Type    string        `json:"type"` // "cleared"
	Cascade int           `json:"cascade"`
	Cells   []engine.Cell `json:"cells"`
	Matches []MatchInfo   `json:"matches"`
}

type Fell struct {
	Type    string        `json:"type"` // "fell"
	Cascade int           `json:"cascade"`
	Falls   []engine.Fall `json:"falls"`
}

type Filled struct {
	Type    string         `json:"type"` // "filled"
	Cascade int            `json:"cascade"`
	Cells   []engine.Cell  `json:"cells"`
	Tokens  []engine.Token `json:"tokens"`
}

type Moved struct {
	Type         string `json:"type"` // "moved"
	MsgID        string `json:"msgId,omitempty"`
	Accepted     bool   `json:"accepted"`
	Matched      bool   `json:"matched"`
	TotalCleared int    `json:"totalCleared"`
	Cascades     int    `json:"cascades"`
}

type Settled struct {
	Type           string `json:"type"` // "settled"
	TotalCleared   int    `json:"totalCleared"`
	Cascades       int    `json:"cascades"`
	Score          int    `json:"score"`
	MovesRemaining int    `json:"movesRemaining"`
	GameOver       bool   `json:"gameOver"`
}

type GameOver struct {
	Type  string `json:"type"` // "gameover"
	Score int    `json:"score"`
}

// Restarted tells views to drop animations; a state message follows.
type Restarted struct {
	Type           string `json:"type"` // "restarted"
	MovesRemaining int    `json:"movesRemaining"`
}

type Pong struct {
	Type string `json:"type"` // "pong"
}

type Error struct {
	Type   string `json:"type"` // "error"
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

// Error codes.
const (
	CodeOutOfBounds      = "out_of_bounds"
	CodeInvalidAdjacency = "invalid_adjacency"
	CodeBusy             = "busy"
	CodeGameOver         = "game_over"
	CodeBadRequest       = "bad_request"
)
