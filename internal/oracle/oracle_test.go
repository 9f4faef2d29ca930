package oracle

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/AeonDave/fealdiff/internal/feal"
)

func TestRandDeterministic(t *testing.T) {
	a := NewRand(7, "x")
	b := NewRand(7, "x")
	for i := 0; i < 100; i++ {
		qt.Assert(t, qt.Equals(a.Uint64(), b.Uint64()))
		qt.Assert(t, qt.Equals(a.Uint16(), b.Uint16()))
		qt.Assert(t, qt.Equals(a.Uint32(), b.Uint32()))
	}
}

func TestRandSeparatesSeedsAndLabels(t *testing.T) {
	base := NewRand(7, "x").Uint64()
	qt.Assert(t, qt.Not(qt.Equals(NewRand(8, "x").Uint64(), base)))
	qt.Assert(t, qt.Not(qt.Equals(NewRand(7, "y").Uint64(), base)))
}

func TestRandCoversHighBits(t *testing.T) {
	r := NewRand(1, "bits")
	var or, and uint64 = 0, ^uint64(0)
	for i := 0; i < 256; i++ {
		v := r.Uint64()
		or |= v
		and &= v
	}
	qt.Assert(t, qt.Equals(or, ^uint64(0)))
	qt.Assert(t, qt.Equals(and, uint64(0)))
}

func TestPairsDifferenceInvariant(t *testing.T) {
	ks := feal.KeySetFromSeed(3)
	o := New(ks)
	gen := NewGenerator(o, 11)

	for _, dP := range []uint64{0x8080000080800000, 0x0000000080800000, 0x0000000002000000} {
		set := gen.Pairs(dP, 32)
		qt.Assert(t, qt.Equals(set.Diff, dP))
		qt.Assert(t, qt.HasLen(set.Pairs, 32))
		for _, p := range set.Pairs {
			qt.Assert(t, qt.Equals(p.P0^p.P1, dP))
			qt.Assert(t, qt.Equals(p.C0, feal.Encrypt(p.P0, &ks)))
			qt.Assert(t, qt.Equals(p.C1, feal.Encrypt(p.P1, &ks)))
		}
	}
}

func TestPairsReproducible(t *testing.T) {
	o := NewSeeded(5)
	a := NewGenerator(o, 9).Pairs(0x0000000002000000, 8)
	b := NewGenerator(o, 9).Pairs(0x0000000002000000, 8)
	qt.Assert(t, qt.DeepEquals(a, b))

	c := NewGenerator(o, 10).Pairs(0x0000000002000000, 8)
	qt.Assert(t, qt.Not(qt.DeepEquals(a, c)))
}

func TestPairsEmpty(t *testing.T) {
	set := NewGenerator(NewSeeded(1), 1).Pairs(1, 0)
	qt.Assert(t, qt.HasLen(set.Pairs, 0))
	qt.Assert(t, qt.Equals(set.Diff, uint64(1)))
}

func TestCipherContextMatchesEngine(t *testing.T) {
	ks := feal.KeySetFromSeed(99)
	o := New(ks)
	qt.Assert(t, qt.Equals(o.Encrypt(0x0123456789abcdef), feal.Encrypt(0x0123456789abcdef, &ks)))
}
