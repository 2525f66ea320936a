package tui

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/kushgupta-hiver/tilematch/internal/engine"
	"github.com/kushgupta-hiver/tilematch/internal/session"
)

// rowText is the visible text of screen row y, trailing blanks trimmed.
func rowText(s tcell.Screen, y int) string {
	w, _ := s.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := s.GetContent(x, y)
		if r == 0 {
			r = ' '
		}
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), " ")
}

// testBoard reads 'R' as red and every other letter as a token unique to
// its cell.
func testBoard(t *testing.T, rows ...string) *engine.Board {
	t.Helper()
	lit := make([][]engine.Token, len(rows))
	for r, s := range rows {
		lit[r] = make([]engine.Token, len(s))
		for c := 0; c < len(s); c++ {
			if s[c] == 'R' {
				lit[r][c] = engine.Red
				continue
			}
			lit[r][c] = engine.Token(fmt.Sprintf("x%d.%d", r, c))
		}
	}
	b, err := engine.NewBoardFromRows(lit)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	return b
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestUI(t *testing.T, moves int, rows ...string) (*UI, tcell.Screen, *fakeClock) {
	t.Helper()
	b := testBoard(t, rows...)
	rules := engine.DefaultRules()
	rules.Rows, rules.Cols, rules.Moves = b.Rows(), b.Cols(), moves
	n := 0
	gen := engine.GeneratorFunc(func() engine.Token {
		n++
		return engine.Token(fmt.Sprintf("n%d", n))
	})
	sess, err := session.New("tui-test", session.Options{Rules: rules, Generator: gen, Board: b})
	if err != nil {
		t.Fatalf("session: %v", err)
	}

	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen init: %v", err)
	}
	screen.SetSize(80, 24)
	t.Cleanup(screen.Fini)

	clk := &fakeClock{t: time.Unix(1000, 0)}
	u := New(screen, sess, WithClock(clk.now))
	t.Cleanup(u.Close)
	return u, screen, clk
}

func press(t *testing.T, u *UI, keys ...any) {
	t.Helper()
	ctx := context.Background()
	for _, k := range keys {
		var ok bool
		switch k := k.(type) {
		case rune:
			ok = u.HandleKey(ctx, tcell.KeyRune, k)
		case tcell.Key:
			ok = u.HandleKey(ctx, k, 0)
		}
		if !ok {
			t.Fatalf("key %v quit unexpectedly", k)
		}
	}
}

func TestCursor_MovesAndClamps(t *testing.T) {
	u, _, _ := newTestUI(t, 20, "abcd", "efgh")
	if u.cursor != (engine.Cell{Row: 1, Col: 2}) {
		t.Fatalf("expected cursor to start at the centre, got %v", u.cursor)
	}

	press(t, u, tcell.KeyLeft, tcell.KeyLeft, tcell.KeyLeft, tcell.KeyLeft)
	if u.cursor.Col != 0 {
		t.Fatalf("cursor should stop at column 0, got %v", u.cursor)
	}
	press(t, u, 'k', 'k', 'l')
	if u.cursor != (engine.Cell{Row: 0, Col: 1}) {
		t.Fatalf("expected (0,1), got %v", u.cursor)
	}
	press(t, u, 'j', tcell.KeyDown)
	if u.cursor.Row != 1 {
		t.Fatalf("cursor should stop at the last row, got %v", u.cursor)
	}
	if st := u.sess.State(); st.HasMoved {
		t.Fatalf("cursor keys must not move tokens")
	}
}

func TestSelectThenArrow_Swaps(t *testing.T) {
	u, _, clk := newTestUI(t, 20, "RRaR", "bcde")

	press(t, u, tcell.KeyUp, ' ', tcell.KeyRight)

	st := u.sess.State()
	if st.Score != 15 || st.MovesRemaining != 19 {
		t.Fatalf("expected a scoring move, got %+v", st)
	}
	if u.cursor != (engine.Cell{Row: 0, Col: 3}) || u.selected {
		t.Fatalf("cursor should follow the swap and drop the selection: %v selected=%v", u.cursor, u.selected)
	}
	for c := 0; c < 3; c++ {
		if _, ok := u.flash[engine.Cell{Row: 0, Col: c}]; !ok {
			t.Fatalf("expected (0,%d) to flash", c)
		}
	}
	if len(u.combo) != 0 {
		t.Fatalf("a run of three is not a combo")
	}

	u.Draw()
	x, y := originX+0*cellWidth+1, originY
	_, _, style, _ := u.screen.GetContent(x, y)
	_, bg, _ := style.Decompose()
	if bg != tcell.ColorWhite {
		t.Fatalf("expected flashing background, got %v", bg)
	}

	clk.t = clk.t.Add(time.Second)
	u.Draw()
	if len(u.flash) != 0 {
		t.Fatalf("expired flashes should be dropped, %d left", len(u.flash))
	}
}

func TestCombo_Highlighted(t *testing.T) {
	u, _, _ := newTestUI(t, 20, "RRRaR", "bcdef")

	press(t, u, tcell.KeyUp, tcell.KeyRight, ' ', tcell.KeyRight)

	if len(u.combo) != 4 {
		t.Fatalf("expected 4 combo cells, got %d", len(u.combo))
	}
	if u.notice != "combo x1" {
		t.Fatalf("expected combo notice, got %q", u.notice)
	}
}

func TestNonMatchingSwap_Refunded(t *testing.T) {
	u, _, _ := newTestUI(t, 20, "abc", "def")

	press(t, u, ' ', tcell.KeyLeft)

	st := u.sess.State()
	if st.MovesRemaining != 20 || st.Score != 0 {
		t.Fatalf("non-matching swap should be refunded, got %+v", st)
	}
	if u.notice != "no match" {
		t.Fatalf("expected notice, got %q", u.notice)
	}
}

func TestSwapOffBoard_Rejected(t *testing.T) {
	u, _, _ := newTestUI(t, 20, "abc", "def")

	press(t, u, tcell.KeyDown, ' ', tcell.KeyDown)

	if u.sess.State().HasMoved {
		t.Fatalf("swap off the board must not reach the game")
	}
	if u.notice != "off the board" {
		t.Fatalf("expected notice, got %q", u.notice)
	}
}

func TestDraw_StatusAndCursor(t *testing.T) {
	u, screen, _ := newTestUI(t, 20, "abc", "dRf")
	u.Draw()

	if got := rowText(screen, 0); !strings.Contains(got, "tilematch") {
		t.Fatalf("missing title: %q", got)
	}
	if got := rowText(screen, originY+1); !strings.Contains(got, "R") {
		t.Fatalf("expected board row to show R, got %q", got)
	}
	status := rowText(screen, originY+2+1)
	if !strings.Contains(status, "Score 0") || !strings.Contains(status, "Moves 20") {
		t.Fatalf("unexpected status line %q", status)
	}

	r, _, style, _ := screen.GetContent(originX+1*cellWidth+1, originY+1)
	if r != 'R' {
		t.Fatalf("expected R under the cursor, got %q", r)
	}
	_, _, attrs := style.Decompose()
	if attrs&tcell.AttrReverse == 0 {
		t.Fatalf("cursor cell should be reversed")
	}
}

func TestGameOver_BannerAndRestart(t *testing.T) {
	u, screen, _ := newTestUI(t, 1, "RRaR", "bcde")

	press(t, u, tcell.KeyUp, ' ', tcell.KeyRight)
	if !u.sess.State().GameOver {
		t.Fatalf("expected game over")
	}
	u.Draw()
	found := false
	for y := 0; y < 24; y++ {
		if strings.Contains(rowText(screen, y), "GAME OVER") {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("expected a game over banner")
	}

	press(t, u, tcell.KeyLeft, ' ', tcell.KeyLeft)
	if u.notice != "game over, press r" {
		t.Fatalf("expected game over notice, got %q", u.notice)
	}

	press(t, u, 'r')
	st := u.sess.State()
	if st.GameOver || st.MovesRemaining != 1 || st.Score != 0 {
		t.Fatalf("unexpected state after restart: %+v", st)
	}
	if len(u.flash) != 0 || u.notice != "" {
		t.Fatalf("restart should clear highlights")
	}
}

func TestQuitKeys(t *testing.T) {
	u, _, _ := newTestUI(t, 20, "abc", "def")
	ctx := context.Background()
	if u.HandleKey(ctx, tcell.KeyRune, 'q') {
		t.Errorf("q should quit")
	}
	if u.HandleKey(ctx, tcell.KeyEscape, 0) {
		t.Errorf("esc should quit")
	}
	if !u.HandleKey(ctx, tcell.KeyRune, 'z') {
		t.Errorf("unbound keys should be ignored")
	}
}

func TestListenerForwarded(t *testing.T) {
	b := testBoard(t, "RRaR", "bcde")
	rules := engine.DefaultRules()
	rules.Rows, rules.Cols = b.Rows(), b.Cols()
	n := 0
	gen := engine.GeneratorFunc(func() engine.Token {
		n++
		return engine.Token(fmt.Sprintf("n%d", n))
	})
	sess, err := session.New("fwd", session.Options{Rules: rules, Generator: gen, Board: b})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen init: %v", err)
	}
	defer screen.Fini()

	var kinds []string
	u := New(screen, sess, WithListener(func(ev engine.Event) { kinds = append(kinds, ev.Kind()) }))
	defer u.Close()

	press(t, u, tcell.KeyUp, ' ', tcell.KeyRight)
	if len(kinds) == 0 || kinds[0] != "cleared" {
		t.Fatalf("expected events forwarded, got %v", kinds)
	}
}
