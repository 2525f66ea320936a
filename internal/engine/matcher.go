package engine

// MinRun is the shortest run that counts as a match.
const MinRun = 3

type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// Match is a maximal run of one token inside a single row or column.
type Match struct {
	Orientation Orientation `json:"orientation"`
	Start       Cell        `json:"start"`
	Length      int         `json:"length"`
	Token       Token       `json:"token"`
}

// Cells lists the run from its leftmost/topmost cell.
func (m Match) Cells() []Cell {
	out := make([]Cell, m.Length)
	for i := range out {
		if m.Orientation == Horizontal {
			out[i] = Cell{Row: m.Start.Row, Col: m.Start.Col + i}
		} else {
			out[i] = Cell{Row: m.Start.Row + i, Col: m.Start.Col}
		}
	}
	return out
}

// Combo reports a run of at least four tokens.
func (m Match) Combo() bool { return m.Length >= 4 }

// FindMatches scans b without modifying it. Row matches come first, in row
// then column order, followed by column matches in column then row order.
// Runs in one line never overlap; a cell can sit in one row match and one
// column match at the same time.
func FindMatches(b *Board) []Match {
	var out []Match
	for r := 0; r < b.rows; r++ {
		out = scanLine(out, b.cols, func(i int) Token { return b.at(r, i) }, func(i, n int, t Token) Match {
			return Match{Orientation: Horizontal, Start: Cell{Row: r, Col: i}, Length: n, Token: t}
		})
	}
	for c := 0; c < b.cols; c++ {
		out = scanLine(out, b.rows, func(i int) Token { return b.at(i, c) }, func(i, n int, t Token) Match {
			return Match{Orientation: Vertical, Start: Cell{Row: i, Col: c}, Length: n, Token: t}
		})
	}
	return out
}

func scanLine(out []Match, n int, get func(int) Token, mk func(start, length int, t Token) Match) []Match {
	i := 0
	for i+MinRun <= n {
		t := get(i)
		if t == Empty || get(i+1) != t || get(i+2) != t {
			i++
			continue
		}
		end := i + MinRun
		for end < n && get(end) == t {
			end++
		}
		out = append(out, mk(i, end-i, t))
		i = end
	}
	return out
}

// Coverage returns the distinct cells covered by matches in row-major order.
func Coverage(rows, cols int, matches []Match) []Cell {
	if len(matches) == 0 {
		return nil
	}
	seen := make([]bool, rows*cols)
	for _, m := range matches {
		for _, c := range m.Cells() {
			seen[c.Row*cols+c.Col] = true
		}
	}
	var out []Cell
	for i, ok := range seen {
		if ok {
			out = append(out, Cell{Row: i / cols, Col: i % cols})
		}
	}
	return out
}
