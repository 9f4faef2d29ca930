package attack

import (
	"github.com/AeonDave/fealdiff/internal/feal"
	"github.com/AeonDave/fealdiff/internal/oracle"
)

// State is a block split into halves.
type State struct {
	L, R uint32
}

func stateOf(b uint64) State {
	l, r := feal.Halves(b)
	return State{L: l, R: r}
}

func (s State) block() uint64 { return feal.Join(s.L, s.R) }

// Peeled is a pair whose ciphertexts have had the final fold and zero or
// more outer rounds removed.
type Peeled struct {
	P0, P1 uint64
	X0, X1 State
}

// Peel undoes the final fold of both ciphertexts of every pair, then one
// round per key in keysDescending, which must start with round 4's key.
func Peel(pairs []oracle.Pair, keysDescending []uint32) []Peeled {
	out := make([]Peeled, len(pairs))
	for i, p := range pairs {
		l0, r0 := feal.UndoFinalFold(p.C0)
		l1, r1 := feal.UndoFinalFold(p.C1)
		b0, b1 := feal.Join(l0, r0), feal.Join(l1, r1)
		for _, k := range keysDescending {
			b0 = feal.InverseRoundStep(b0, k)
			b1 = feal.InverseRoundStep(b1, k)
		}
		out[i] = Peeled{P0: p.P0, P1: p.P1, X0: stateOf(b0), X1: stateOf(b1)}
	}
	return out
}

// PeelStep removes one more round with key from already peeled pairs.
func PeelStep(peeled []Peeled, key uint32) []Peeled {
	out := make([]Peeled, len(peeled))
	for i, p := range peeled {
		out[i] = Peeled{
			P0: p.P0,
			P1: p.P1,
			X0: stateOf(feal.InverseRoundStep(p.X0.block(), key)),
			X1: stateOf(feal.InverseRoundStep(p.X1.block(), key)),
		}
	}
	return out
}
