package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// Generator produces refill tokens. Next must never return Empty.
type Generator interface {
	Next() Token
}

// RandomGenerator draws uniformly from a palette.
type RandomGenerator struct {
	palette []Token
	rng     *rand.Rand
}

// NewGenerator returns a generator over palette. A zero seed draws one from
// crypto/rand; any other seed gives a reproducible sequence.
func NewGenerator(palette []Token, seed uint64) (*RandomGenerator, error) {
	if err := checkPalette(palette); err != nil {
		return nil, err
	}
	if seed == 0 {
		var b [8]byte
		_, _ = crand.Read(b[:])
		seed = binary.LittleEndian.Uint64(b[:])
	}
	p := make([]Token, len(palette))
	copy(p, palette)
	return &RandomGenerator{
		palette: p,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}, nil
}

func (g *RandomGenerator) Next() Token {
	return g.palette[g.rng.IntN(len(g.palette))]
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func() Token

func (f GeneratorFunc) Next() Token { return f() }
