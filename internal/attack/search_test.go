package attack

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-quicktest/qt"

	"github.com/AeonDave/fealdiff/internal/feal"
	"github.com/AeonDave/fealdiff/internal/oracle"
)

func sequentialScan(bound uint32, accept func(uint32) bool) (uint32, bool) {
	for h := uint64(0); h <= uint64(bound); h++ {
		if accept(uint32(h)) {
			return uint32(h), true
		}
	}
	return 0, false
}

func TestScanMatchesSequential(t *testing.T) {
	const bound = 1<<18 + 123
	for _, target := range []uint32{0, 1, 77, 0x1f3, 0xabc} {
		accept := func(h uint32) bool { return (h*0x9e3779b1)>>20 == target }
		want, ok := sequentialScan(bound, accept)
		for _, workers := range []int{1, 2, 3, 8, 64} {
			t.Run(fmt.Sprintf("target=%#x/workers=%d", target, workers), func(t *testing.T) {
				got, err := scan(context.Background(), SearchOptions{Bound: bound, Workers: workers}, accept)
				if !ok {
					qt.Assert(t, qt.ErrorIs(err, ErrNoCandidate))
					return
				}
				qt.Assert(t, qt.IsNil(err))
				qt.Assert(t, qt.Equals(got, want))
			})
		}
	}
}

func TestScanPrefersLowestAcrossChunks(t *testing.T) {
	accepted := map[uint32]bool{3*chunkSize + 5: true, chunkSize + 1: true, 2*chunkSize - 1: true}
	accept := func(h uint32) bool { return accepted[h] }
	for _, workers := range []int{1, 4, 16} {
		got, err := scan(context.Background(), SearchOptions{Bound: 4 * chunkSize, Workers: workers}, accept)
		qt.Assert(t, qt.IsNil(err))
		qt.Assert(t, qt.Equals(got, uint32(chunkSize+1)))
	}
}

func TestScanInclusiveBound(t *testing.T) {
	const bound = 5*chunkSize + 17
	got, err := scan(context.Background(), SearchOptions{Bound: bound, Workers: 3}, func(h uint32) bool { return h == bound })
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(got, uint32(bound)))

	_, err = scan(context.Background(), SearchOptions{Bound: bound, Workers: 3}, func(h uint32) bool { return h == bound+1 })
	qt.Assert(t, qt.ErrorIs(err, ErrNoCandidate))
}

func TestScanFullDomainTopValue(t *testing.T) {
	if testing.Short() {
		t.Skip("scans the whole 32-bit domain")
	}
	got, err := scan(context.Background(), SearchOptions{}, func(h uint32) bool { return h == 0xffffffff })
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(got, uint32(0xffffffff)))
}

func TestScanHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := scan(ctx, SearchOptions{Workers: 2}, func(uint32) bool { return false })
	qt.Assert(t, qt.ErrorIs(err, context.DeadlineExceeded))
	qt.Assert(t, qt.IsTrue(time.Since(start) < 5*time.Second))
}

func TestScanCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	_, err := scan(ctx, SearchOptions{Workers: 1}, func(uint32) bool { calls++; return true })
	qt.Assert(t, qt.ErrorIs(err, context.Canceled))
	qt.Assert(t, qt.Equals(calls, 0))
}

func stagePeeled(t *testing.T, ks feal.KeySet, r, pairs int, seed uint64) []Peeled {
	t.Helper()
	set := oracle.NewGenerator(oracle.New(ks), seed).Pairs(FEAL4.InputDiff(r), pairs)
	var outer []uint32
	for j := feal.Rounds; j > r; j-- {
		outer = append(outer, ks.Round(j))
	}
	return Peel(set.Pairs, outer)
}

func TestSearchRoundKeyFindsEachRound(t *testing.T) {
	for r := feal.Rounds; r >= 2; r-- {
		peeled := stagePeeled(t, testKeys, r, DefaultPairs, uint64(r))
		key, err := SearchRoundKey(context.Background(), peeled, FEAL4.OutputDiff, SearchOptions{Workers: 4})
		qt.Assert(t, qt.IsNil(err))
		qt.Assert(t, qt.Equals(key, testKeys.Round(r)), qt.Commentf("round %d", r))
	}
}

func TestSearchRoundKeyExhausted(t *testing.T) {
	peeled := stagePeeled(t, testKeys, 4, DefaultPairs, 1)
	_, err := SearchRoundKey(context.Background(), peeled, FEAL4.OutputDiff, SearchOptions{Bound: testKeys.Round(4) - 1})
	qt.Assert(t, qt.ErrorIs(err, ErrNoCandidate))
}

func TestSearchRoundKeyNoPairs(t *testing.T) {
	_, err := SearchRoundKey(context.Background(), nil, FEAL4.OutputDiff, SearchOptions{})
	qt.Assert(t, qt.ErrorIs(err, ErrNoPairs))
}

// All four members of a key's class satisfy the difference equation, so
// the search returns the lowest of them.
func TestSearchRoundKeyReturnsLowestEquivalent(t *testing.T) {
	ks := testKeys
	ks.K[3] = 0x80801234
	peeled := stagePeeled(t, ks, 4, DefaultPairs, 2)
	for _, flip := range []uint32{0, 0x80800000, 0x00008080, 0x80808080} {
		qt.Assert(t, qt.IsTrue(Consistent(peeled, FEAL4.OutputDiff, ks.K[3]^flip)))
	}
	key, err := SearchRoundKey(context.Background(), peeled, FEAL4.OutputDiff, SearchOptions{Bound: 0x00ffffff})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(key, uint32(0x00001234)))
}

// With a single pair many wrong hypotheses below the key are consistent;
// eight pairs leave only the key.
func TestSearchFalsePositivesShrinkWithPairs(t *testing.T) {
	rng := oracle.NewRand(17, "false-positives")
	wrong := map[int]int{}
	const trials = 12
	for i := 0; i < trials; i++ {
		ks := feal.KeySetFromSeed(rng.Uint64())
		for j := range ks.K {
			ks.K[j] &= 0x7fff7fff
		}
		ks.K[3] = 0x10000 | rng.Uint32()&0x7fff
		for _, pairs := range []int{1, DefaultPairs} {
			peeled := stagePeeled(t, ks, 4, pairs, uint64(i))
			key, err := SearchRoundKey(context.Background(), peeled, FEAL4.OutputDiff, SearchOptions{Bound: ks.K[3], Workers: 2})
			qt.Assert(t, qt.IsNil(err))
			if key != ks.K[3] {
				wrong[pairs]++
			}
		}
	}
	qt.Assert(t, qt.Equals(wrong[DefaultPairs], 0))
	qt.Assert(t, qt.IsTrue(wrong[1] > trials/2), qt.Commentf("wrong with one pair: %d/%d", wrong[1], trials))
}

func BenchmarkSearchRoundKey(b *testing.B) {
	set := oracle.NewGenerator(oracle.New(testKeys), 1).Pairs(FEAL4.InputDiff(4), DefaultPairs)
	peeled := Peel(set.Pairs, nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := SearchRoundKey(context.Background(), peeled, FEAL4.OutputDiff, SearchOptions{Bound: 1 << 20}); err != nil {
			b.Fatal(err)
		}
	}
}
