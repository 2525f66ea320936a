// Package tui is a terminal front end for one session.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode"

	"github.com/gdamore/tcell/v2"
	"github.com/kushgupta-hiver/tilematch/internal/engine"
	"github.com/kushgupta-hiver/tilematch/internal/session"
)

const (
	flashTTL      = 300 * time.Millisecond
	comboTTL      = 600 * time.Millisecond
	noticeTTL     = 2 * time.Second
	frameInterval = 16 * time.Millisecond

	cellWidth = 3
	originX   = 2
	originY   = 2
)

const helpLine = "arrows/hjkl move  space select  r restart  q quit"

type Option func(*UI)

func WithLogger(l *slog.Logger) Option { return func(u *UI) { u.log = l } }

// WithListener forwards every session event to l after the UI has seen it.
func WithListener(l engine.Listener) Option { return func(u *UI) { u.extra = l } }

func WithClock(now func() time.Time) Option { return func(u *UI) { u.now = now } }

// UI draws a session onto a tcell screen and turns keys into moves.
type UI struct {
	screen tcell.Screen
	sess   *session.Session
	log    *slog.Logger
	extra  engine.Listener
	now    func() time.Time
	unsub  func()

	mu       sync.Mutex
	cursor   engine.Cell
	selected bool
	flash    map[engine.Cell]time.Time // expiry
	combo    map[engine.Cell]time.Time
	notice   string
	noticeAt time.Time
}

func New(screen tcell.Screen, sess *session.Session, opts ...Option) *UI {
	u := &UI{
		screen: screen,
		sess:   sess,
		log:    slog.Default(),
		now:    time.Now,
		flash:  make(map[engine.Cell]time.Time),
		combo:  make(map[engine.Cell]time.Time),
	}
	for _, o := range opts {
		o(u)
	}
	r := sess.Rules()
	u.cursor = engine.Cell{Row: r.Rows / 2, Col: r.Cols / 2}
	u.unsub = sess.Subscribe(u.onEvent)
	return u
}

// Close detaches from the session. The screen is left to the caller.
func (u *UI) Close() {
	if u.unsub != nil {
		u.unsub()
		u.unsub = nil
	}
}

func (u *UI) onEvent(ev engine.Event) {
	u.mu.Lock()
	now := u.now()
	switch e := ev.(type) {
	case engine.CellsCleared:
		for _, c := range e.Cells {
			u.flash[c] = now.Add(flashTTL)
		}
		combos := 0
		for _, m := range e.Matches {
			if !m.Combo() {
				continue
			}
			combos++
			for _, c := range m.Cells() {
				u.combo[c] = now.Add(comboTTL)
			}
		}
		switch {
		case combos > 0:
			u.setNotice(fmt.Sprintf("combo x%d", combos))
		case e.Cascade > 1:
			u.setNotice(fmt.Sprintf("cascade %d", e.Cascade))
		}
	case engine.GameRestarted:
		clear(u.flash)
		clear(u.combo)
		u.selected = false
		u.notice = ""
	case engine.GameEnded:
		u.selected = false
	}
	u.mu.Unlock()

	if u.extra != nil {
		u.extra(ev)
	}
}

// setNotice requires u.mu.
func (u *UI) setNotice(s string) {
	u.notice = s
	u.noticeAt = u.now()
}

func direction(key tcell.Key, r rune) (engine.Cell, bool) {
	switch {
	case key == tcell.KeyUp || key == tcell.KeyRune && r == 'k':
		return engine.Cell{Row: -1}, true
	case key == tcell.KeyDown || key == tcell.KeyRune && r == 'j':
		return engine.Cell{Row: 1}, true
	case key == tcell.KeyLeft || key == tcell.KeyRune && r == 'h':
		return engine.Cell{Col: -1}, true
	case key == tcell.KeyRight || key == tcell.KeyRune && r == 'l':
		return engine.Cell{Col: 1}, true
	}
	return engine.Cell{}, false
}

// HandleEvent reacts to one terminal event and reports whether to keep
// running.
func (u *UI) HandleEvent(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return u.HandleKey(ctx, ev.Key(), ev.Rune())
	case *tcell.EventResize:
		u.screen.Sync()
	}
	return true
}

// HandleKey applies one key press. The session is never called with u.mu
// held since its events come back through onEvent.
func (u *UI) HandleKey(ctx context.Context, key tcell.Key, r rune) bool {
	switch {
	case key == tcell.KeyEscape || key == tcell.KeyCtrlC:
		return false
	case key == tcell.KeyRune && r == 'q':
		return false
	case key == tcell.KeyRune && r == 'r':
		if _, err := u.sess.Restart(ctx); err != nil {
			u.reject(err)
		}
		return true
	case key == tcell.KeyEnter || key == tcell.KeyRune && r == ' ':
		u.mu.Lock()
		u.selected = !u.selected
		u.mu.Unlock()
		return true
	}

	d, ok := direction(key, r)
	if !ok {
		return true
	}
	rules := u.sess.Rules()

	u.mu.Lock()
	from := u.cursor
	to := engine.Cell{Row: from.Row + d.Row, Col: from.Col + d.Col}
	inside := to.Row >= 0 && to.Row < rules.Rows && to.Col >= 0 && to.Col < rules.Cols
	swap := u.selected
	if inside {
		u.cursor = to
	}
	u.selected = false
	u.mu.Unlock()

	if !swap {
		return true
	}
	if !inside {
		u.reject(engine.ErrOutOfBounds)
		return true
	}
	res, err := u.sess.Submit(ctx, session.Move{From: from, To: to})
	if err != nil {
		u.reject(err)
		return true
	}
	if !res.Matched {
		u.mu.Lock()
		u.setNotice("no match")
		u.mu.Unlock()
	}
	return true
}

func (u *UI) reject(err error) {
	msg := err.Error()
	switch {
	case errors.Is(err, engine.ErrGameOver):
		msg = "game over, press r"
	case errors.Is(err, engine.ErrBusy):
		msg = "busy"
	case errors.Is(err, engine.ErrOutOfBounds):
		msg = "off the board"
	}
	u.log.Debug("move rejected", "err", err)
	u.mu.Lock()
	u.setNotice(msg)
	u.mu.Unlock()
}

func tokenColor(t engine.Token) tcell.Color {
	switch t {
	case engine.Red:
		return tcell.ColorRed
	case engine.Yellow:
		return tcell.ColorYellow
	case engine.Orange:
		return tcell.ColorOrange
	case engine.Purple:
		return tcell.ColorPurple
	case engine.Green:
		return tcell.ColorGreen
	case engine.Blue:
		return tcell.ColorBlue
	}
	return tcell.ColorWhite
}

func glyph(t engine.Token) rune {
	if t == engine.Empty {
		return '.'
	}
	return unicode.ToUpper([]rune(string(t))[0])
}

// cellStyle requires u.mu.
func (u *UI) cellStyle(c engine.Cell, t engine.Token, now time.Time) tcell.Style {
	st := tcell.StyleDefault.Foreground(tokenColor(t))
	switch {
	case now.Before(u.combo[c]):
		st = st.Background(tcell.ColorYellow).Foreground(tcell.ColorBlack).Bold(true)
	case now.Before(u.flash[c]):
		st = st.Background(tcell.ColorWhite).Foreground(tcell.ColorBlack)
	}
	if c == u.cursor {
		st = st.Reverse(true)
		if u.selected {
			st = st.Underline(true).Bold(true)
		}
	}
	return st
}

func (u *UI) text(x, y int, s string, st tcell.Style) {
	for i, r := range s {
		u.screen.SetContent(x+i, y, r, nil, st)
	}
}

// Draw renders one frame from a fresh snapshot.
func (u *UI) Draw() {
	snap := u.sess.Snapshot()
	rows := len(snap.Board)
	cols := 0
	if rows > 0 {
		cols = len(snap.Board[0])
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	now := u.now()

	u.screen.Clear()
	u.text(originX, 0, "tilematch", tcell.StyleDefault.Bold(true))

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cell := engine.Cell{Row: r, Col: c}
			t := snap.Board[r][c]
			st := u.cellStyle(cell, t, now)
			x, y := originX+c*cellWidth, originY+r
			u.screen.SetContent(x, y, ' ', nil, st)
			u.screen.SetContent(x+1, y, glyph(t), nil, st)
			u.screen.SetContent(x+2, y, ' ', nil, st)
		}
	}

	y := originY + rows + 1
	u.text(originX, y, fmt.Sprintf("Score %d  Moves %d", snap.State.Score, snap.State.MovesRemaining), tcell.StyleDefault)
	if u.notice != "" && now.Sub(u.noticeAt) < noticeTTL {
		u.text(originX, y+1, u.notice, tcell.StyleDefault.Foreground(tcell.ColorYellow))
	}
	u.text(originX, y+2, helpLine, tcell.StyleDefault.Dim(true))

	if snap.State.GameOver {
		banner := fmt.Sprintf(" GAME OVER  score %d  r to restart ", snap.State.Score)
		x := originX + (cols*cellWidth-len(banner))/2
		if x < 0 {
			x = 0
		}
		u.text(x, originY+rows/2, banner, tcell.StyleDefault.Background(tcell.ColorRed).Foreground(tcell.ColorWhite).Bold(true))
	}

	for c, exp := range u.flash {
		if !now.Before(exp) {
			delete(u.flash, c)
		}
	}
	for c, exp := range u.combo {
		if !now.Before(exp) {
			delete(u.combo, c)
		}
	}
	u.screen.Show()
}

// Run polls the screen until quit or ctx ends, redrawing every frame.
func (u *UI) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan tcell.Event, 64)
	go func() {
		defer close(events)
		for {
			ev := u.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	u.Draw()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !u.HandleEvent(ctx, ev) {
				return nil
			}
			u.Draw()
		case <-ticker.C:
			u.Draw()
		}
	}
}
