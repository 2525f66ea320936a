package engine

// Event is one discrete step a presentation layer can animate. Per cascade
// the order is always CellsCleared, CellsFell, CellsFilled.
type Event interface {
	Kind() string
}

// Listener receives events synchronously, in emission order.
type Listener func(Event)

func (l Listener) emit(ev Event) {
	if l != nil {
		l(ev)
	}
}

// CellsCleared lists the union of matched cells removed in one cascade.
type CellsCleared struct {
	Cascade int
	Cells   []Cell
	Matches []Match
}

// Fall moves one token down its column.
type Fall struct {
	From Cell `json:"from"`
	To   Cell `json:"to"`
}

type CellsFell struct {
	Cascade int
	Falls   []Fall
}

// CellsFilled carries the new tokens; Tokens[i] landed in Cells[i].
type CellsFilled struct {
	Cascade int
	Cells   []Cell
	Tokens  []Token
}

// Settled closes a settle that cleared something, carrying the session
// state after scoring.
type Settled struct {
	Result SettleResult
	State  State
}

type GameRestarted struct {
	State State
}

type GameEnded struct {
	Score int
}

func (CellsCleared) Kind() string  { return "cleared" }
func (CellsFell) Kind() string     { return "fell" }
func (CellsFilled) Kind() string   { return "filled" }
func (Settled) Kind() string       { return "settled" }
func (GameRestarted) Kind() string { return "restarted" }
func (GameEnded) Kind() string     { return "gameover" }
