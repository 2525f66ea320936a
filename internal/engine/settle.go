package engine

// StepResult describes a single cascade.
type StepResult struct {
	Matches []Match
	Cleared []Cell
	Falls   []Fall
	Filled  []Cell
	Tokens  []Token
	Points  int
}

// SettleResult sums every cascade of one settle.
type SettleResult struct {
	TotalCleared int
	Cascades     int
	Points       int
	Combos       int
	Matches      []Match
	// Capped is set when MaxCascades stopped the loop before a fixpoint.
	Capped bool
}

// Step runs one clear→fall→fill pass. It reports false, and touches
// nothing, when the board has no match.
func Step(b *Board, gen Generator, cascade, pointsPerToken int, emit Listener) (StepResult, bool) {
	matches := FindMatches(b)
	if len(matches) == 0 {
		return StepResult{}, false
	}

	cleared := Coverage(b.rows, b.cols, matches)
	for _, c := range cleared {
		b.cells[b.index(c)] = Empty
	}
	points := 0
	for _, m := range matches {
		points += m.Length * pointsPerToken
	}
	emit.emit(CellsCleared{Cascade: cascade, Cells: cleared, Matches: matches})

	falls := ApplyGravity(b)
	emit.emit(CellsFell{Cascade: cascade, Falls: falls})

	filled, tokens := Refill(b, gen)
	emit.emit(CellsFilled{Cascade: cascade, Cells: filled, Tokens: tokens})

	return StepResult{
		Matches: matches,
		Cleared: cleared,
		Falls:   falls,
		Filled:  filled,
		Tokens:  tokens,
		Points:  points,
	}, true
}

// Settle repeats Step until the board holds no match or maxCascades
// passes have run (maxCascades <= 0 means no cap).
func Settle(b *Board, gen Generator, pointsPerToken, maxCascades int, emit Listener) SettleResult {
	var res SettleResult
	for {
		if maxCascades > 0 && res.Cascades >= maxCascades {
			res.Capped = len(FindMatches(b)) > 0
			return res
		}
		step, ok := Step(b, gen, res.Cascades+1, pointsPerToken, emit)
		if !ok {
			return res
		}
		res.Cascades++
		res.TotalCleared += len(step.Cleared)
		res.Points += step.Points
		res.Matches = append(res.Matches, step.Matches...)
		for _, m := range step.Matches {
			if m.Combo() {
				res.Combos++
			}
		}
	}
}

// ApplyGravity compacts every column downward, keeping the top-to-bottom
// order of its tokens. Only tokens that actually moved are reported.
func ApplyGravity(b *Board) []Fall {
	var falls []Fall
	for c := 0; c < b.cols; c++ {
		write := b.rows - 1
		for r := b.rows - 1; r >= 0; r-- {
			t := b.at(r, c)
			if t == Empty {
				continue
			}
			if r != write {
				b.cells[write*b.cols+c] = t
				b.cells[r*b.cols+c] = Empty
				falls = append(falls, Fall{From: Cell{Row: r, Col: c}, To: Cell{Row: write, Col: c}})
			}
			write--
		}
	}
	return falls
}

// Refill fills each empty cell column by column, bottom-most gap first.
func Refill(b *Board, gen Generator) ([]Cell, []Token) {
	var cells []Cell
	var tokens []Token
	for c := 0; c < b.cols; c++ {
		for r := b.rows - 1; r >= 0; r-- {
			if b.at(r, c) != Empty {
				continue
			}
			t := gen.Next()
			b.cells[r*b.cols+c] = t
			cells = append(cells, Cell{Row: r, Col: c})
			tokens = append(tokens, t)
		}
	}
	return cells, tokens
}
