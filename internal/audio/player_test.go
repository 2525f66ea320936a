package audio

import (
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/kushgupta-hiver/tilematch/internal/engine"
)

func drain(t *testing.T, s beep.Streamer) int {
	t.Helper()
	buf := make([][2]float64, 512)
	total := 0
	for i := 0; i < 10000; i++ {
		n, ok := s.Stream(buf)
		for j := 0; j < n; j++ {
			if buf[j][0] < -1 || buf[j][0] > 1 || buf[j][1] < -1 || buf[j][1] > 1 {
				t.Fatalf("sample %d out of range: %v", total+j, buf[j])
			}
		}
		total += n
		if !ok {
			return total
		}
	}
	t.Fatalf("streamer never drained")
	return 0
}

func TestTone_LengthAndRange(t *testing.T) {
	rate := beep.SampleRate(44100)
	for _, w := range []Wave{WaveSine, WaveSquare, WaveSaw} {
		got := drain(t, Tone(440, 50*time.Millisecond, w, rate))
		if want := rate.N(50 * time.Millisecond); got != want {
			t.Errorf("wave %d: expected %d samples, got %d", w, want, got)
		}
	}
}

func TestClearFreq_RisesPerCascade(t *testing.T) {
	prev := 0.0
	for c := 1; c <= 6; c++ {
		f := ClearFreq(c)
		if f <= prev {
			t.Fatalf("cascade %d: %f not above %f", c, f, prev)
		}
		prev = f
	}
	if ClearFreq(0) != ClearFreq(1) {
		t.Errorf("cascade below 1 should use the base pitch")
	}
	if ClearFreq(100) != ClearFreq(maxStepUp+1) {
		t.Errorf("pitch should stop rising after %d steps", maxStepUp)
	}
}

func TestCues_Drain(t *testing.T) {
	rate := beep.SampleRate(22050)
	if n := drain(t, ClearCue(1, false, rate)); n != rate.N(clearDuration) {
		t.Errorf("clear cue: expected %d samples, got %d", rate.N(clearDuration), n)
	}
	if n := drain(t, ClearCue(3, true, rate)); n != rate.N(comboDuration) {
		t.Errorf("combo cue: expected %d samples, got %d", rate.N(comboDuration), n)
	}
	if n := drain(t, GameOverCue(rate)); n != 2*rate.N(overDuration/2) {
		t.Errorf("game over cue: expected %d samples, got %d", 2*rate.N(overDuration/2), n)
	}
}

func TestPlayer_OnEvent(t *testing.T) {
	var got []beep.Streamer
	p := NewWithSink(DefaultConfig(), func(s beep.Streamer) { got = append(got, s) })

	run := engine.Match{Orientation: engine.Horizontal, Length: 3, Token: engine.Red}
	p.OnEvent(engine.CellsCleared{Cascade: 1, Matches: []engine.Match{run}})
	p.OnEvent(engine.CellsFell{Cascade: 1})
	p.OnEvent(engine.CellsFilled{Cascade: 1})
	p.OnEvent(engine.GameEnded{Score: 15})

	if len(got) != 2 || p.Played() != 2 {
		t.Fatalf("expected 2 cues, got %d (played=%d)", len(got), p.Played())
	}
	for _, s := range got {
		drain(t, s)
	}

	p.SetMuted(true)
	p.OnEvent(engine.GameEnded{})
	if len(got) != 2 {
		t.Fatalf("muted player should not play")
	}
}

func TestPlayer_DisabledIsSilent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	p := New(cfg, nil)
	defer p.Close()

	if p.Active() {
		t.Fatalf("disabled player reports active")
	}
	p.OnEvent(engine.GameEnded{})
	if p.Played() != 0 {
		t.Fatalf("disabled player played a cue")
	}
}
