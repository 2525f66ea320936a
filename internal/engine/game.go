package engine

import "fmt"

// State is the session state read by presentation layers.
type State struct {
	Score          int  `json:"score"`
	MovesRemaining int  `json:"movesRemaining"`
	GameOver       bool `json:"gameOver"`
	HasMoved       bool `json:"hasMoved"`
}

// MoveResult reports what AttemptMove did. A rejected move carries the
// unchanged state alongside the error.
type MoveResult struct {
	Accepted bool
	Matched  bool
	Settle   SettleResult
	State    State
}

type Option func(*Game)

// WithListener installs the event hook.
func WithListener(l Listener) Option {
	return func(g *Game) { g.listener = l }
}

// WithBoard starts the game on a prepared board instead of a random one.
// The board dimensions must equal the rules.
func WithBoard(b *Board) Option {
	return func(g *Game) { g.board = b }
}

// Game owns one board and its session state. It is not safe for
// concurrent use; see package session for a guarded handle.
type Game struct {
	rules    Rules
	gen      Generator
	board    *Board
	state    State
	listener Listener
}

// NewGame validates rules and deals a fresh board. A nil gen draws from
// rules.Palette with a random seed.
func NewGame(rules Rules, gen Generator, opts ...Option) (*Game, error) {
	rules, err := rules.Validate()
	if err != nil {
		return nil, err
	}
	if gen == nil {
		rg, err := NewGenerator(rules.Palette, 0)
		if err != nil {
			return nil, err
		}
		gen = rg
	}
	g := &Game{rules: rules, gen: gen}
	for _, o := range opts {
		o(g)
	}
	if g.board != nil {
		if g.board.rows != rules.Rows || g.board.cols != rules.Cols {
			return nil, fmt.Errorf("%w: board is %dx%d, rules want %dx%d",
				ErrInvalidDimensions, g.board.rows, g.board.cols, rules.Rows, rules.Cols)
		}
	} else {
		g.board = g.deal()
	}
	g.state = State{MovesRemaining: rules.Moves}
	return g, nil
}

func (g *Game) deal() *Board {
	b, _ := NewBoard(g.rules.Rows, g.rules.Cols)
	b.Fill(g.gen)
	return b
}

func (g *Game) Rules() Rules { return g.rules }
func (g *Game) State() State { return g.state }

// Board exposes the live board. Callers must not mutate it.
func (g *Game) Board() *Board { return g.board }

func (g *Game) Cell(c Cell) (Token, error) { return g.board.Get(c) }

// Restart deals a new board and resets the session state in one step.
func (g *Game) Restart() State {
	b := g.deal()
	g.board, g.state = b, State{MovesRemaining: g.rules.Moves}
	g.listener.emit(GameRestarted{State: g.state})
	return g.state
}

// AttemptMove swaps two adjacent cells and settles the board. A swap that
// clears nothing is undone and its move refunded.
func (g *Game) AttemptMove(from, to Cell) (MoveResult, error) {
	if g.state.GameOver {
		return MoveResult{State: g.state}, ErrGameOver
	}
	if !g.board.InBounds(from) || !g.board.InBounds(to) {
		return MoveResult{State: g.state}, fmt.Errorf("move %v->%v: %w", from, to, ErrOutOfBounds)
	}
	if !Adjacent(from, to) {
		return MoveResult{State: g.state}, fmt.Errorf("move %v->%v: %w", from, to, ErrInvalidAdjacency)
	}

	_ = g.board.Swap(from, to)
	g.state.MovesRemaining--

	res := g.settle()
	matched := res.TotalCleared > 0
	if !matched {
		_ = g.board.Swap(from, to)
		g.state.MovesRemaining++
	}
	ended := false
	if g.state.MovesRemaining <= 0 && !g.state.GameOver {
		g.state.GameOver = true
		ended = true
	}
	g.state.HasMoved = true

	if res.Cascades > 0 {
		g.listener.emit(Settled{Result: res, State: g.state})
	}
	if ended {
		g.listener.emit(GameEnded{Score: g.state.Score})
	}
	return MoveResult{Accepted: true, Matched: matched, Settle: res, State: g.state}, nil
}

// Idle resolves any leftover matches once play has started. It is a no-op
// on a stable board, before the first move and after game over.
func (g *Game) Idle() SettleResult {
	if !g.state.HasMoved || g.state.GameOver {
		return SettleResult{}
	}
	res := g.settle()
	if res.Cascades > 0 {
		g.listener.emit(Settled{Result: res, State: g.state})
	}
	return res
}

func (g *Game) settle() SettleResult {
	res := Settle(g.board, g.gen, g.rules.PointsPerToken, g.rules.MaxCascades, g.listener)
	g.state.Score += res.Points
	return res
}
