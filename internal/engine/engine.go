package engine

import (
	"errors"
	"fmt"
)

// Token is a colour identifier from the palette. Empty means no token.
type Token string

const Empty Token = ""

const (
	Red    Token = "Red"
	Yellow Token = "Yellow"
	Orange Token = "Orange"
	Purple Token = "Purple"
	Green  Token = "Green"
	Blue   Token = "Blue"
)

// DefaultPalette is the six-colour palette of the classic game.
var DefaultPalette = []Token{Red, Yellow, Orange, Purple, Green, Blue}

var (
	ErrOutOfBounds       = errors.New("cell out of bounds")
	ErrInvalidAdjacency  = errors.New("cells are not adjacent")
	ErrBusy              = errors.New("move already in progress")
	ErrGameOver          = errors.New("game already finished")
	ErrInvalidDimensions = errors.New("invalid board dimensions")
	ErrInvalidPalette    = errors.New("invalid palette")
)

// Cell addresses one grid position.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Cell) String() string { return fmt.Sprintf("(%d,%d)", c.Row, c.Col) }

// Adjacent reports whether a and b share an edge. Diagonals are not adjacent.
func Adjacent(a, b Cell) bool {
	dr, dc := a.Row-b.Row, a.Col-b.Col
	if dr < 0 {
		dr = -dr
	}
	if dc < 0 {
		dc = -dc
	}
	return dr+dc == 1
}

// Rules fixes the shape and economy of a game.
type Rules struct {
	Rows           int
	Cols           int
	Palette        []Token
	Moves          int
	PointsPerToken int
	MaxCascades    int
}

func DefaultRules() Rules {
	return Rules{
		Rows:           9,
		Cols:           9,
		Palette:        DefaultPalette,
		Moves:          20,
		PointsPerToken: 5,
		MaxCascades:    1000,
	}
}

// Validate checks dimensions and palette and fills zero economy fields
// with their defaults.
func (r Rules) Validate() (Rules, error) {
	if r.Rows <= 0 || r.Cols <= 0 {
		return r, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, r.Rows, r.Cols)
	}
	if err := checkPalette(r.Palette); err != nil {
		return r, err
	}
	d := DefaultRules()
	if r.Moves <= 0 {
		r.Moves = d.Moves
	}
	if r.PointsPerToken <= 0 {
		r.PointsPerToken = d.PointsPerToken
	}
	if r.MaxCascades <= 0 {
		r.MaxCascades = d.MaxCascades
	}
	return r, nil
}

func checkPalette(p []Token) error {
	if len(p) == 0 {
		return fmt.Errorf("%w: no colours", ErrInvalidPalette)
	}
	for i, t := range p {
		if t == Empty {
			return fmt.Errorf("%w: colour %d is empty", ErrInvalidPalette, i)
		}
	}
	return nil
}
