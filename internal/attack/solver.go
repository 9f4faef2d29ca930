package attack

import (
	"context"

	"github.com/golang/glog"

	"github.com/AeonDave/fealdiff/internal/feal"
)

// SolveFirstRound recovers K1 and the whitening keys from pairs peeled down
// to the output of round 2. It peels round 2 with k2 and then looks for the
// lowest K1 for which every plaintext/ciphertext relation implies the same
// (KL, KR). Acceptance depends only on agreement between the pairs.
func SolveFirstRound(ctx context.Context, peeled []Peeled, k2 uint32, opts SearchOptions) (k1, kl, kr uint32, err error) {
	if len(peeled) == 0 {
		return 0, 0, 0, ErrNoPairs
	}
	inner := PeelStep(peeled, k2)
	if glog.V(1) {
		glog.Infof("solving K1 over [0, %#08x] with %d pairs", opts.bound(), len(inner))
	}

	k1, err = scan(ctx, opts, func(h uint32) bool {
		return whiteningAgrees(inner, h)
	})
	if err != nil {
		return 0, 0, 0, err
	}
	kl, kr = whitening(inner[0].P0, inner[0].X0, k1)
	return k1, kl, kr, nil
}

// whitening derives (KL, KR) from one plaintext and its ciphertext peeled to
// the output of round 1, assuming K1 = k1. The peeled halves (a, b) are the
// round-1 output swapped: b is the folded, whitened right half that entered
// round 1 and a is the whitened left half XOR F(b ^ K1).
func whitening(p uint64, x State, k1 uint32) (kl, kr uint32) {
	a, b := x.L, x.R
	pl, pr := feal.Halves(p)
	t := feal.RoundFunction(b^k1) ^ a
	return t ^ pl, t ^ b ^ pr
}

// whiteningAgrees reports whether every text of every pair derives the
// same whitening keys as the first one under k1.
func whiteningAgrees(inner []Peeled, k1 uint32) bool {
	kl, kr := whitening(inner[0].P0, inner[0].X0, k1)
	if l, r := whitening(inner[0].P1, inner[0].X1, k1); l != kl || r != kr {
		return false
	}
	for _, p := range inner[1:] {
		if l, r := whitening(p.P0, p.X0, k1); l != kl || r != kr {
			return false
		}
		if l, r := whitening(p.P1, p.X1, k1); l != kl || r != kr {
			return false
		}
	}
	return true
}
