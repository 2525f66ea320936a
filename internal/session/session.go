package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/kushgupta-hiver/tilematch/internal/engine"
)

// historyLimit bounds the msgID replay window.
const historyLimit = 128

// ErrClosed is returned by a registry that has been shut down.
var ErrClosed = errors.New("closed")

// Move is a swap request. A non-empty MsgID makes retries idempotent.
type Move struct {
	From  engine.Cell
	To    engine.Cell
	MsgID string
}

type Options struct {
	Rules engine.Rules
	// Seed 0 picks a random seed; ignored when Generator is set.
	Seed      uint64
	Generator engine.Generator
	Board     *engine.Board
	Logger    *slog.Logger
}

// Snapshot is a consistent copy of everything a renderer needs.
type Snapshot struct {
	ID    string
	Board [][]engine.Token
	State engine.State
	Seq   int
}

// Changed follows every accepted move, every restart and every idle settle
// that cleared something. It carries the snapshot all views should show.
type Changed struct {
	Snapshot Snapshot
}

func (Changed) Kind() string { return "state" }

// Session guards one game. Only one move, restart or idle settle runs at a
// time; anything arriving meanwhile is rejected with engine.ErrBusy.
type Session struct {
	id   string
	log  *slog.Logger
	busy atomic.Bool

	mu    sync.Mutex
	game  *engine.Game
	seq   int
	hist  map[string]engine.MoveResult // msgID -> result (idempotency)
	order []string                     // msgIDs in hist, oldest first

	done      chan struct{}
	closeOnce sync.Once

	subMu   sync.Mutex
	subs    []subscriber
	nextSub int
}

type subscriber struct {
	id int
	fn engine.Listener
}

func New(id string, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		id:   id,
		log:  logger.With("session", id),
		hist: make(map[string]engine.MoveResult, 8),
		done: make(chan struct{}),
	}

	gen := opts.Generator
	if gen == nil {
		rules, err := opts.Rules.Validate()
		if err != nil {
			return nil, err
		}
		rg, err := engine.NewGenerator(rules.Palette, opts.Seed)
		if err != nil {
			return nil, err
		}
		gen = rg
	}
	gopts := []engine.Option{engine.WithListener(s.dispatch)}
	if opts.Board != nil {
		gopts = append(gopts, engine.WithBoard(opts.Board))
	}
	g, err := engine.NewGame(opts.Rules, gen, gopts...)
	if err != nil {
		return nil, err
	}
	s.game = g
	return s, nil
}

func (s *Session) ID() string { return s.id }

// Close marks the session finished. Views watching Done should detach.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Session) Done() <-chan struct{} { return s.done }

// Submit applies a move. A repeated MsgID returns the recorded result
// without touching the board again.
func (s *Session) Submit(ctx context.Context, m Move) (engine.MoveResult, error) {
	if err := ctx.Err(); err != nil {
		return engine.MoveResult{}, err
	}
	if !s.busy.CompareAndSwap(false, true) {
		s.log.Debug("move rejected", "reason", engine.ErrBusy)
		return engine.MoveResult{}, engine.ErrBusy
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()

	if m.MsgID != "" {
		if res, ok := s.hist[m.MsgID]; ok {
			return res, nil
		}
	}

	res, err := s.game.AttemptMove(m.From, m.To)
	if err != nil {
		s.log.Debug("move rejected", "from", m.From, "to", m.To, "reason", err)
		return res, err
	}

	s.seq++
	if m.MsgID != "" {
		s.remember(m.MsgID, res)
	}
	s.log.Info("move",
		"from", m.From,
		"to", m.To,
		"matched", res.Matched,
		"cleared", res.Settle.TotalCleared,
		"cascades", res.Settle.Cascades,
		"score", res.State.Score,
		"moves", res.State.MovesRemaining,
	)
	if res.Settle.Capped {
		s.log.Warn("settle stopped at cascade cap", "cascades", res.Settle.Cascades)
	}
	if res.State.GameOver {
		s.log.Info("game over", "score", res.State.Score)
	}
	s.dispatch(Changed{Snapshot: s.snapshotLocked()})
	return res, nil
}

// remember requires s.mu.
func (s *Session) remember(msgID string, res engine.MoveResult) {
	s.hist[msgID] = res
	s.order = append(s.order, msgID)
	if len(s.order) > historyLimit {
		delete(s.hist, s.order[0])
		s.order = s.order[1:]
	}
}

// Idle runs the between-moves settle. ok is false when the session was
// busy and the check was skipped.
func (s *Session) Idle(ctx context.Context) (res engine.SettleResult, ok bool) {
	if ctx.Err() != nil || !s.busy.CompareAndSwap(false, true) {
		return engine.SettleResult{}, false
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()

	res = s.game.Idle()
	if res.Cascades > 0 {
		s.seq++
		s.log.Info("idle settle", "cleared", res.TotalCleared, "cascades", res.Cascades, "score", s.game.State().Score)
		s.dispatch(Changed{Snapshot: s.snapshotLocked()})
	}
	return res, true
}

// Restart replaces board and state together.
func (s *Session) Restart(ctx context.Context) (engine.State, error) {
	if err := ctx.Err(); err != nil {
		return engine.State{}, err
	}
	if !s.busy.CompareAndSwap(false, true) {
		return engine.State{}, engine.ErrBusy
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.game.Restart()
	s.seq++
	clear(s.hist)
	s.order = s.order[:0]
	s.log.Info("restart")
	s.dispatch(Changed{Snapshot: s.snapshotLocked()})
	return st, nil
}

func (s *Session) Cell(c engine.Cell) (engine.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Cell(c)
}

func (s *Session) State() engine.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.State()
}

func (s *Session) Rules() engine.Rules {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Rules()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:    s.id,
		Board: s.game.Board().Snapshot(),
		State: s.game.State(),
		Seq:   s.seq,
	}
}

// Subscribe registers fn for engine events. fn runs synchronously while the
// session is locked, so it must not call back into the session.
func (s *Session) Subscribe(fn engine.Listener) (cancel func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Session) dispatch(ev engine.Event) {
	s.subMu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()
	for _, sub := range subs {
		sub.fn(ev)
	}
}
