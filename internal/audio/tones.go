package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
)

const (
	clearBaseFreq = 523.25 // C5
	maxStepUp     = 12
	clearDuration = 90 * time.Millisecond
	comboDuration = 160 * time.Millisecond
	overDuration  = 260 * time.Millisecond
)

// Wave is an oscillator shape.
type Wave int

const (
	WaveSine Wave = iota
	WaveSquare
	WaveSaw
)

type tone struct {
	freq  float64
	phase float64
	pos   int
	total int
	wave  Wave
	rate  beep.SampleRate
}

// Tone returns a finite streamer of one frequency.
func Tone(freq float64, d time.Duration, wave Wave, rate beep.SampleRate) beep.Streamer {
	return &tone{freq: freq, total: rate.N(d), wave: wave, rate: rate}
}

func (o *tone) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.pos >= o.total {
			return i, i > 0
		}
		var v float64
		switch o.wave {
		case WaveSquare:
			v = 1
			if o.phase >= 0.5 {
				v = -1
			}
		case WaveSaw:
			v = 2 * (o.phase - 0.5)
		default:
			v = math.Sin(2 * math.Pi * o.phase)
		}
		samples[i][0], samples[i][1] = v, v
		o.phase += o.freq / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.pos++
	}
	return len(samples), true
}

func (o *tone) Err() error { return nil }

// fade applies a linear release over the last part of s.
type fade struct {
	s       beep.Streamer
	pos     int
	total   int
	release int
}

func newFade(s beep.Streamer, d, release time.Duration, rate beep.SampleRate) beep.Streamer {
	return &fade{s: s, total: rate.N(d), release: rate.N(release)}
}

func (f *fade) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = f.s.Stream(samples)
	start := f.total - f.release
	for i := 0; i < n; i++ {
		if f.pos >= start && f.release > 0 {
			g := float64(f.total-f.pos) / float64(f.release)
			if g < 0 {
				g = 0
			}
			samples[i][0] *= g
			samples[i][1] *= g
		}
		f.pos++
	}
	return n, ok
}

func (f *fade) Err() error { return f.s.Err() }

// volume scales s linearly; zero or less is silence.
func volume(s beep.Streamer, v float64) beep.Streamer {
	if v <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(v)}
}

// ClearFreq is the pitch for a clear in the given cascade, two semitones
// higher per cascade.
func ClearFreq(cascade int) float64 {
	step := cascade - 1
	if step < 0 {
		step = 0
	}
	if step > maxStepUp {
		step = maxStepUp
	}
	return clearBaseFreq * math.Pow(2, float64(2*step)/12)
}

// ClearCue is the blip for one cascade's clear. Combos add a major chord on
// top of the root.
func ClearCue(cascade int, combo bool, rate beep.SampleRate) beep.Streamer {
	root := ClearFreq(cascade)
	if !combo {
		sine, err := generators.SineTone(rate, root)
		if err != nil {
			sine = Tone(root, clearDuration, WaveSine, rate)
		}
		return newFade(beep.Take(rate.N(clearDuration), sine), clearDuration, clearDuration/2, rate)
	}
	chord := beep.Mix(
		volume(Tone(root, comboDuration, WaveSine, rate), 0.5),
		volume(Tone(root*math.Pow(2, 4.0/12), comboDuration, WaveSine, rate), 0.3),
		volume(Tone(root*math.Pow(2, 7.0/12), comboDuration, WaveSquare, rate), 0.2),
	)
	return newFade(chord, comboDuration, comboDuration/2, rate)
}

// GameOverCue is a falling two-note saw.
func GameOverCue(rate beep.SampleRate) beep.Streamer {
	half := overDuration / 2
	return beep.Seq(
		newFade(Tone(196, half, WaveSaw, rate), half, half/4, rate),
		newFade(Tone(147, half, WaveSaw, rate), half, half/2, rate),
	)
}
