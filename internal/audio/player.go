package audio

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/kushgupta-hiver/tilematch/internal/engine"
)

type Config struct {
	SampleRate int
	Volume     float64
	Enabled    bool
}

func DefaultConfig() Config {
	return Config{SampleRate: 44100, Volume: 0.5, Enabled: true}
}

// Player turns engine events into short cues. A player whose output failed
// to open stays usable and silent.
type Player struct {
	rate   beep.SampleRate
	vol    float64
	sink   func(beep.Streamer)
	closer func()
	log    *slog.Logger

	muted  atomic.Bool
	played atomic.Uint64
}

// New opens the speaker. Failure is logged and leaves the player silent.
func New(cfg Config, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultConfig().SampleRate
	}
	p := &Player{rate: beep.SampleRate(cfg.SampleRate), vol: cfg.Volume, log: logger}
	p.muted.Store(!cfg.Enabled)
	if !cfg.Enabled {
		return p
	}
	if err := initSpeaker(p.rate); err != nil {
		logger.Warn("audio disabled", "err", err)
		return p
	}
	p.sink = func(s beep.Streamer) { speaker.Play(s) }
	p.closer = speaker.Close
	return p
}

func initSpeaker(rate beep.SampleRate) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("speaker init: %v", r)
		}
	}()
	return speaker.Init(rate, rate.N(100*time.Millisecond))
}

// NewWithSink routes cues to sink instead of the speaker.
func NewWithSink(cfg Config, sink func(beep.Streamer)) *Player {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultConfig().SampleRate
	}
	p := &Player{rate: beep.SampleRate(cfg.SampleRate), vol: cfg.Volume, sink: sink, log: slog.Default()}
	p.muted.Store(!cfg.Enabled)
	return p
}

// Active reports whether cues are reaching an output.
func (p *Player) Active() bool { return p.sink != nil && !p.muted.Load() }

func (p *Player) SetMuted(m bool) { p.muted.Store(m) }

func (p *Player) Muted() bool { return p.muted.Load() }

// Played counts cues handed to the output.
func (p *Player) Played() uint64 { return p.played.Load() }

// OnEvent has the engine.Listener signature.
func (p *Player) OnEvent(ev engine.Event) {
	if !p.Active() {
		return
	}
	switch e := ev.(type) {
	case engine.CellsCleared:
		combo := false
		for _, m := range e.Matches {
			if m.Combo() {
				combo = true
				break
			}
		}
		p.play(ClearCue(e.Cascade, combo, p.rate))
	case engine.GameEnded:
		p.play(GameOverCue(p.rate))
	}
}

func (p *Player) play(s beep.Streamer) {
	p.sink(volume(s, p.vol))
	p.played.Add(1)
}

func (p *Player) Close() {
	if p.closer != nil {
		p.closer()
		p.closer = nil
	}
}
