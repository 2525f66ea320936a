package proto

import (
	"errors"

	"github.com/kushgupta-hiver/tilematch/internal/engine"
	"github.com/kushgupta-hiver/tilematch/internal/session"
)

func FromSnapshot(s session.Snapshot) State {
	return State{
		Type:           "state",
		Board:          s.Board,
		Score:          s.State.Score,
		MovesRemaining: s.State.MovesRemaining,
		GameOver:       s.State.GameOver,
		HasMoved:       s.State.HasMoved,
		Seq:            s.Seq,
	}
}

// FromEvent maps an engine event onto its wire message. ok is false for
// events that have no wire form.
func FromEvent(ev engine.Event) (msg any, ok bool) {
	switch e := ev.(type) {
	case engine.CellsCleared:
		infos := make([]MatchInfo, len(e.Matches))
		for i, m := range e.Matches {
			infos[i] = MatchInfo{Cells: m.Cells(), Length: m.Length, Combo: m.Combo()}
		}
		return Cleared{Type: "cleared", Cascade: e.Cascade, Cells: e.Cells, Matches: infos}, true
	case engine.CellsFell:
		falls := e.Falls
		if falls == nil {
			falls = []engine.Fall{}
		}
		return Fell{Type: "fell", Cascade: e.Cascade, Falls: falls}, true
	case engine.CellsFilled:
		return Filled{Type: "filled", Cascade: e.Cascade, Cells: e.Cells, Tokens: e.Tokens}, true
	case engine.Settled:
		return Settled{
			Type:           "settled",
			TotalCleared:   e.Result.TotalCleared,
			Cascades:       e.Result.Cascades,
			Score:          e.State.Score,
			MovesRemaining: e.State.MovesRemaining,
			GameOver:       e.State.GameOver,
		}, true
	case engine.GameEnded:
		return GameOver{Type: "gameover", Score: e.Score}, true
	case engine.GameRestarted:
		return Restarted{Type: "restarted", MovesRemaining: e.State.MovesRemaining}, true
	case session.Changed:
		return FromSnapshot(e.Snapshot), true
	}
	return nil, false
}

// ErrorFor maps a rejection onto an error message.
func ErrorFor(err error) Error {
	code := CodeBadRequest
	switch {
	case errors.Is(err, engine.ErrOutOfBounds):
		code = CodeOutOfBounds
	case errors.Is(err, engine.ErrInvalidAdjacency):
		code = CodeInvalidAdjacency
	case errors.Is(err, engine.ErrBusy):
		code = CodeBusy
	case errors.Is(err, engine.ErrGameOver):
		code = CodeGameOver
	}
	return Error{Type: "error", Code: code, Detail: err.Error()}
}
