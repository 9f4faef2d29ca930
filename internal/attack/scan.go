package attack

import (
	"context"
	"math"
	"runtime"
	"sync/atomic"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"
)

const (
	// chunkSize is the number of consecutive hypotheses a worker claims at
	// once. Chunks are claimed in ascending order.
	chunkSize = 1 << 16

	// bestCheckMask sets how often a worker rereads the shared best
	// candidate while inside a chunk.
	bestCheckMask = 1<<10 - 1

	notFound = math.MaxUint64
)

// SearchOptions configures a hypothesis scan.
type SearchOptions struct {
	// Bound is the highest hypothesis tried, inclusive. Zero means the
	// whole 32-bit domain.
	Bound uint32
	// Workers is the number of scanning goroutines. Zero or less means
	// runtime.GOMAXPROCS(0).
	Workers int
}

func (o SearchOptions) bound() uint64 {
	if o.Bound == 0 {
		return math.MaxUint32
	}
	return uint64(o.Bound)
}

func (o SearchOptions) workers() int {
	if o.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return o.Workers
}

// scan returns the lowest h in [0, bound] for which accept returns true.
// accept must be safe to call from several goroutines at once.
//
// Workers claim chunks in ascending order and never claim a chunk starting
// above the best candidate found so far, so every hypothesis below the
// result has been rejected when scan returns.
func scan(ctx context.Context, opts SearchOptions, accept func(h uint32) bool) (uint32, error) {
	hi := opts.bound()
	chunks := hi/chunkSize + 1
	workers := opts.workers()
	if uint64(workers) > chunks {
		workers = int(chunks)
	}

	var next, best atomic.Uint64
	best.Store(notFound)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				c := next.Add(1) - 1
				if c >= chunks {
					return nil
				}
				start := c * chunkSize
				if start > best.Load() {
					return nil
				}
				if err := gctx.Err(); err != nil {
					return err
				}
				if glog.V(2) && c%1024 == 0 {
					glog.Infof("worker %d scanning from %#08x", w, start)
				}
				end := min(start+chunkSize-1, hi)
				for h := start; h <= end; h++ {
					if h&bestCheckMask == 0 && h > best.Load() {
						break
					}
					if accept(uint32(h)) {
						storeMin(&best, h)
						break
					}
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	found := best.Load()
	if found == notFound {
		return 0, ErrNoCandidate
	}
	return uint32(found), nil
}

func storeMin(v *atomic.Uint64, h uint64) {
	for {
		cur := v.Load()
		if h >= cur || v.CompareAndSwap(cur, h) {
			return
		}
	}
}
