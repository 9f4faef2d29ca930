// Package analysis measures the differential behaviour the attack depends
// on: how often each stage's characteristic holds, how often a key search
// with few pairs settles on a wrong key, and the difference distribution
// of the Mix primitive.
package analysis

import (
	"context"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/AeonDave/fealdiff/internal/attack"
	"github.com/AeonDave/fealdiff/internal/feal"
	"github.com/AeonDave/fealdiff/internal/oracle"
)

// StageFrequency is the observed frequency of the characteristic at one
// attacked round.
type StageFrequency struct {
	Round  int
	Diff   uint64
	Hits   int
	Trials int
}

// Rate returns Hits/Trials.
func (s StageFrequency) Rate() float64 {
	if s.Trials == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Trials)
}

// CharacteristicFrequency draws a random key set and one pair per trial and
// counts, for rounds 4, 3 and 2, how often the true round key predicts the
// characteristic's output difference once the outer rounds are peeled with
// the true keys.
func CharacteristicFrequency(seed uint64, trials int) []StageFrequency {
	rng := oracle.NewRand(seed, "analysis/characteristic")
	out := make([]StageFrequency, 0, feal.Rounds-1)
	for r := feal.Rounds; r >= 2; r-- {
		out = append(out, StageFrequency{Round: r, Diff: attack.FEAL4.InputDiff(r), Trials: trials})
	}
	for i := 0; i < trials; i++ {
		ks := feal.KeySetFromSeed(rng.Uint64())
		gen := oracle.NewGenerator(oracle.New(ks), rng.Uint64())
		var outer []uint32
		for j, r := 0, feal.Rounds; r >= 2; j, r = j+1, r-1 {
			set := gen.Pairs(attack.FEAL4.InputDiff(r), 1)
			peeled := attack.Peel(set.Pairs, outer)
			if attack.Consistent(peeled, attack.FEAL4.OutputDiff, ks.Round(r)) {
				out[j].Hits++
			}
			outer = append(outer, ks.Round(r))
		}
	}
	return out
}

// FalsePositives is the outcome of repeated round-4 searches with a fixed
// number of pairs.
type FalsePositives struct {
	Pairs  int
	Trials int
	// Wrong counts searches that returned a hypothesis other than the key.
	Wrong int
}

// Rate returns Wrong/Trials.
func (f FalsePositives) Rate() float64 {
	if f.Trials == 0 {
		return 0
	}
	return float64(f.Wrong) / float64(f.Trials)
}

// FalsePositiveRate runs trials searches for K4 with the given number of
// pairs each. Every trial plants a K4 from plantKey and searches up to it:
// any other result is a consistent wrong hypothesis.
func FalsePositiveRate(ctx context.Context, seed uint64, trials, pairs int, bound uint32) (FalsePositives, error) {
	if bound < 2 {
		return FalsePositives{}, fmt.Errorf("bound must be at least 2, got %d", bound)
	}
	res := FalsePositives{Pairs: pairs, Trials: trials}
	rng := oracle.NewRand(seed, "analysis/false-positives")
	for i := 0; i < trials; i++ {
		ks := feal.KeySetFromSeed(rng.Uint64())
		k4 := plantKey(rng, bound)
		ks.K[3] = k4

		set := oracle.NewGenerator(oracle.New(ks), rng.Uint64()).Pairs(attack.FEAL4.InputDiff(4), pairs)
		got, err := attack.SearchRoundKey(ctx, attack.Peel(set.Pairs, nil), attack.FEAL4.OutputDiff, attack.SearchOptions{Bound: k4})
		if err != nil {
			return res, fmt.Errorf("trial %d: %w", i, err)
		}
		if got != k4 {
			res.Wrong++
		}
	}
	return res, nil
}

// plantKey draws a key from the upper half of [1, bound] and clears bits
// 31 and 15, so it is the lowest member of its equivalence class. The
// result is never zero and never above bound; clearing the bits may move
// it below the upper half. bound must be at least 2.
func plantKey(rng *oracle.Rand, bound uint32) uint32 {
	half := bound / 2
	k := (half + 1 + rng.Uint32()%half) &^ 0x80008000
	if k == 0 {
		k = 1
	}
	return k
}

// MixTable returns the difference distribution table of feal.Mix for a
// difference in its first operand: entry (din, dout) counts the operand
// pairs (a, b) with Mix(a^din, b, c) ^ Mix(a, b, c) == dout. The round
// constant only shifts b, so the table does not depend on it.
func MixTable() *mat.Dense {
	t := mat.NewDense(256, 256, nil)
	for din := 0; din < 256; din++ {
		row := t.RawRowView(din)
		for a := 0; a < 256; a++ {
			for b := 0; b < 256; b++ {
				dout := feal.Mix(byte(a^din), byte(b), 0) ^ feal.Mix(byte(a), byte(b), 0)
				row[dout]++
			}
		}
	}
	return t
}

// Transition is one entry of a difference distribution table.
type Transition struct {
	In, Out byte
	Prob    float64
}

// StrongestTransitions returns the n most probable transitions with a
// non-zero input difference, most probable first. Ties are ordered by
// input, then output difference.
func StrongestTransitions(t *mat.Dense, n int) []Transition {
	rows, cols := t.Dims()
	var all []Transition
	for din := 1; din < rows; din++ {
		row := t.RawRowView(din)
		total := mat.Sum(t.RowView(din))
		for dout := 0; dout < cols; dout++ {
			if row[dout] == 0 {
				continue
			}
			all = append(all, Transition{In: byte(din), Out: byte(dout), Prob: row[dout] / total})
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Prob != all[j].Prob {
			return all[i].Prob > all[j].Prob
		}
		if all[i].In != all[j].In {
			return all[i].In < all[j].In
		}
		return all[i].Out < all[j].Out
	})
	if len(all) > n {
		all = all[:n]
	}
	return all
}
