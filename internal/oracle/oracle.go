// Package oracle models the attacker's view of the cipher: a context that
// encrypts chosen plaintexts under keys it never reveals, and a generator of
// chosen-plaintext pairs with a fixed difference.
package oracle

import (
	"github.com/golang/glog"

	"github.com/AeonDave/fealdiff/internal/feal"
)

// Encrypter encrypts single blocks under a fixed, hidden key set.
type Encrypter interface {
	Encrypt(p uint64) uint64
}

// CipherContext owns a key set and answers encryption queries with it.
// It is immutable and safe for concurrent use.
type CipherContext struct {
	keys feal.KeySet
}

// New returns a context encrypting under ks.
func New(ks feal.KeySet) *CipherContext {
	return &CipherContext{keys: ks}
}

// NewSeeded returns a context whose keys are derived from seed.
func NewSeeded(seed uint64) *CipherContext {
	return New(feal.KeySetFromSeed(seed))
}

// Encrypt implements Encrypter.
func (c *CipherContext) Encrypt(p uint64) uint64 {
	return feal.Encrypt(p, &c.keys)
}

// Pair is a chosen-plaintext pair and its two ciphertexts.
type Pair struct {
	P0, P1 uint64
	C0, C1 uint64
}

// SampleSet holds pairs generated for a single plaintext difference.
type SampleSet struct {
	Diff  uint64
	Pairs []Pair
}

// Generator draws chosen-plaintext pairs and has them encrypted by an
// Encrypter.
type Generator struct {
	oracle Encrypter
	rng    *Rand
}

// NewGenerator returns a generator querying o, with plaintexts drawn from a
// stream seeded by seed.
func NewGenerator(o Encrypter, seed uint64) *Generator {
	return &Generator{oracle: o, rng: NewRand(seed, "pairs")}
}

// Pairs returns count pairs with P0^P1 == dP. Each P0 is assembled from four
// independent 16-bit lanes.
func (g *Generator) Pairs(dP uint64, count int) SampleSet {
	set := SampleSet{Diff: dP}
	if count <= 0 {
		return set
	}
	set.Pairs = make([]Pair, count)
	for i := range set.Pairs {
		p0 := uint64(g.rng.Uint16())<<48 |
			uint64(g.rng.Uint16())<<32 |
			uint64(g.rng.Uint16())<<16 |
			uint64(g.rng.Uint16())
		p1 := p0 ^ dP
		set.Pairs[i] = Pair{
			P0: p0,
			P1: p1,
			C0: g.oracle.Encrypt(p0),
			C1: g.oracle.Encrypt(p1),
		}
	}
	if glog.V(1) {
		glog.Infof("generated %d pairs with dP=%#016x", count, dP)
	}
	return set
}
