package attack

import (
	"context"

	"github.com/golang/glog"

	"github.com/AeonDave/fealdiff/internal/feal"
)

// SearchRoundKey returns the lowest hypothesis H for which every peeled pair
// satisfies L0 ^ F(R0^H) ^ L1 ^ F(R1^H) == dY, where (L, R) are the exposed
// halves of each ciphertext. It returns ErrNoCandidate when no hypothesis
// up to opts.Bound qualifies.
func SearchRoundKey(ctx context.Context, peeled []Peeled, dY uint32, opts SearchOptions) (uint32, error) {
	if len(peeled) == 0 {
		return 0, ErrNoPairs
	}
	if glog.V(1) {
		glog.Infof("searching round key over [0, %#08x] with %d pairs and %d workers", opts.bound(), len(peeled), opts.workers())
	}
	return scan(ctx, opts, func(h uint32) bool {
		return Consistent(peeled, dY, h)
	})
}

// Consistent reports whether h predicts dY for every pair, stopping at the
// first pair that disagrees.
func Consistent(peeled []Peeled, dY, h uint32) bool {
	for _, p := range peeled {
		got := p.X0.L ^ feal.RoundFunction(p.X0.R^h) ^ p.X1.L ^ feal.RoundFunction(p.X1.R^h)
		if got != dY {
			return false
		}
	}
	return true
}
