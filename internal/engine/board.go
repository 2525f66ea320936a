package engine

import (
	"fmt"
	"strings"
)

// Board is a fixed R×C grid of tokens stored in row-major order.
type Board struct {
	rows, cols int
	cells      []Token
}

// NewBoard returns an all-empty board.
func NewBoard(rows, cols int) (*Board, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rows, cols)
	}
	return &Board{rows: rows, cols: cols, cells: make([]Token, rows*cols)}, nil
}

// NewBoardFromRows builds a board from a rectangular literal, top row first.
func NewBoardFromRows(rows [][]Token) (*Board, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty literal", ErrInvalidDimensions)
	}
	b, err := NewBoard(len(rows), len(rows[0]))
	if err != nil {
		return nil, err
	}
	for r, row := range rows {
		if len(row) != b.cols {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidDimensions, r, len(row), b.cols)
		}
		copy(b.cells[r*b.cols:], row)
	}
	return b, nil
}

func (b *Board) Rows() int { return b.rows }
func (b *Board) Cols() int { return b.cols }

// InBounds reports whether c lies on the grid.
func (b *Board) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < b.rows && c.Col >= 0 && c.Col < b.cols
}

func (b *Board) index(c Cell) int { return c.Row*b.cols + c.Col }

// at is the unchecked read used by the scanners.
func (b *Board) at(r, c int) Token { return b.cells[r*b.cols+c] }

func (b *Board) Get(c Cell) (Token, error) {
	if !b.InBounds(c) {
		return Empty, fmt.Errorf("get %v: %w", c, ErrOutOfBounds)
	}
	return b.cells[b.index(c)], nil
}

func (b *Board) Set(c Cell, t Token) error {
	if !b.InBounds(c) {
		return fmt.Errorf("set %v: %w", c, ErrOutOfBounds)
	}
	b.cells[b.index(c)] = t
	return nil
}

// Swap exchanges two cells. No match checking happens here.
func (b *Board) Swap(x, y Cell) error {
	if !b.InBounds(x) || !b.InBounds(y) {
		return fmt.Errorf("swap %v<->%v: %w", x, y, ErrOutOfBounds)
	}
	i, j := b.index(x), b.index(y)
	b.cells[i], b.cells[j] = b.cells[j], b.cells[i]
	return nil
}

func (b *Board) Clear(c Cell) error { return b.Set(c, Empty) }

// Fill puts gen.Next() into every empty cell, row by row.
func (b *Board) Fill(gen Generator) {
	for i, t := range b.cells {
		if t == Empty {
			b.cells[i] = gen.Next()
		}
	}
}

func (b *Board) Clone() *Board {
	out := &Board{rows: b.rows, cols: b.cols, cells: make([]Token, len(b.cells))}
	copy(out.cells, b.cells)
	return out
}

func (b *Board) Equal(o *Board) bool {
	if o == nil || b.rows != o.rows || b.cols != o.cols {
		return false
	}
	for i := range b.cells {
		if b.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// Snapshot copies the grid out for rendering, top row first.
func (b *Board) Snapshot() [][]Token {
	out := make([][]Token, b.rows)
	for r := range out {
		out[r] = make([]Token, b.cols)
		copy(out[r], b.cells[r*b.cols:(r+1)*b.cols])
	}
	return out
}

// String prints one letter per token and '.' for empty cells.
func (b *Board) String() string {
	var sb strings.Builder
	for r := 0; r < b.rows; r++ {
		for c := 0; c < b.cols; c++ {
			t := b.at(r, c)
			if t == Empty {
				sb.WriteByte('.')
			} else {
				sb.WriteByte(t[0])
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
