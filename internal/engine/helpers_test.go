package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

var letters = map[byte]Token{
	'R': Red,
	'Y': Yellow,
	'O': Orange,
	'P': Purple,
	'G': Green,
	'B': Blue,
}

// mustBoard parses one string per row: upper case letters are palette
// colours, '.' is empty and every lower case letter is a token unique to
// its cell.
func mustBoard(t *testing.T, rows ...string) *Board {
	t.Helper()
	lit := make([][]Token, len(rows))
	for r, s := range rows {
		lit[r] = make([]Token, len(s))
		for c := 0; c < len(s); c++ {
			ch := s[c]
			switch {
			case ch == '.':
				lit[r][c] = Empty
			case ch >= 'a' && ch <= 'z':
				lit[r][c] = Token(fmt.Sprintf("x%d.%d", r, c))
			default:
				tok, ok := letters[ch]
				require.Truef(t, ok, "unknown token letter %q", ch)
				lit[r][c] = tok
			}
		}
	}
	b, err := NewBoardFromRows(lit)
	require.NoError(t, err)
	return b
}

// uniqueGen never repeats a token, so refills cannot start new matches.
func uniqueGen() Generator {
	n := 0
	return GeneratorFunc(func() Token {
		n++
		return Token(fmt.Sprintf("n%d", n))
	})
}

func rulesFor(b *Board) Rules {
	r := DefaultRules()
	r.Rows, r.Cols = b.Rows(), b.Cols()
	return r
}

func column(b *Board, c int) []Token {
	out := make([]Token, b.Rows())
	for r := range out {
		out[r] = b.at(r, c)
	}
	return out
}

type recorder struct {
	events []Event
}

func (r *recorder) listen(ev Event) { r.events = append(r.events, ev) }

func (r *recorder) kinds() []string {
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind()
	}
	return out
}
