// Package attack recovers the six keys of the 4-round cipher in package feal
// with a chosen-plaintext differential attack. Rounds 4, 3 and 2 are
// attacked one at a time with a probability-one characteristic, peeling each
// recovered round off the ciphertexts before the next; K1 and the whitening
// keys are then solved jointly.
package attack

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/AeonDave/fealdiff/internal/feal"
	"github.com/AeonDave/fealdiff/internal/oracle"
	"github.com/AeonDave/fealdiff/internal/pipeline"
)

// DefaultPairs is the number of chosen-plaintext pairs per round.
const DefaultPairs = 8

// DefaultRetries is the number of extra attempts per round. A retry of
// round r first re-attacks the rounds above it: a wrong key that happens
// to fit every pair leaves the rounds below it with no consistent key.
const DefaultRetries = 3

// Options configures an attack.
type Options struct {
	// Pairs is the number of pairs generated for each round.
	Pairs int
	// Search bounds the hypothesis space and sets the worker count.
	Search SearchOptions
	// Retries is how many more times a round is attempted after its search
	// finds no consistent key. Attempt n of round r re-attacks rounds
	// r+n-1 down to r+1 with fresh pairs before trying r again.
	Retries int
	// RoundTimeout bounds each round, retries included. Zero disables it.
	RoundTimeout time.Duration
	// Seed seeds the plaintext stream.
	Seed uint64
	// Observer, if set, is called once per finished or failed round, and
	// once per round re-attacked during a retry.
	Observer func(RoundReport)
}

// DefaultOptions returns the reference configuration: eight pairs per
// round, the full 32-bit search space and DefaultRetries retries.
func DefaultOptions() Options {
	return Options{Pairs: DefaultPairs, Retries: DefaultRetries}
}

func (o Options) validate() error {
	if o.Pairs < 1 {
		return fmt.Errorf("pairs per round must be at least 1, got %d", o.Pairs)
	}
	if o.Retries < 0 {
		return fmt.Errorf("retries must not be negative, got %d", o.Retries)
	}
	if o.RoundTimeout < 0 {
		return fmt.Errorf("round timeout must not be negative, got %v", o.RoundTimeout)
	}
	return nil
}

// RoundReport describes the outcome of one round.
type RoundReport struct {
	// Round is 4, 3 or 2 for a single round key, and 1 for K1 solved
	// together with KL and KR.
	Round int
	Key   uint32
	// KL and KR are only set when Round is 1.
	KL, KR   uint32
	Attempts int
	// Redo is set when the round was attacked again while retrying a
	// lower round.
	Redo    bool
	Elapsed time.Duration
	Err     error
}

type session struct {
	opts Options
	gen  *oracle.Generator

	keys feal.KeySet
	// round2 holds the pairs round 2 was last attacked with, peeled to
	// the output of round 2.
	round2 []Peeled
}

// RunSeeded derives a key set from seed, hides it behind an
// oracle.CipherContext and attacks it, drawing plaintexts from the same
// seed.
func RunSeeded(ctx context.Context, seed uint64, opts Options) (feal.KeySet, error) {
	opts.Seed = seed
	return Run(ctx, oracle.NewSeeded(seed), opts)
}

// Run attacks the cipher behind o. It returns the recovered key set, or an
// error satisfying errors.As(err, new(*AttackFailure)) when a round has no
// consistent key. No partial key set is returned on failure.
//
// The result may differ from the oracle's keys while encrypting
// identically: flipping 0x80800000 or 0x00008080 in a round key is
// invisible to the characteristic, and the search keeps the lowest
// representative. Use Verify to check a result against the oracle.
func Run(ctx context.Context, o oracle.Encrypter, opts Options) (feal.KeySet, error) {
	if err := opts.validate(); err != nil {
		return feal.KeySet{}, err
	}
	s := &session{
		opts: opts,
		gen:  oracle.NewGenerator(o, opts.Seed),
	}

	pipe := pipeline.New[*session]()
	for r := feal.Rounds; r >= 1; r-- {
		pipe.Add(pipeline.NewFuncStep(fmt.Sprintf("round %d", r), func(ctx context.Context, s *session) error {
			return s.attackRound(ctx, r)
		}))
	}
	pipe.Observe(func(name string, elapsed time.Duration, err error) {
		if err != nil {
			glog.Warningf("%s failed after %v: %v", name, elapsed, err)
			return
		}
		glog.Infof("%s done in %v", name, elapsed)
	})

	glog.V(1).Infof("attack runs %d steps with %d pairs and up to %d retries each", pipe.Len(), opts.Pairs, opts.Retries)
	if err := pipe.Execute(ctx, s); err != nil {
		return feal.KeySet{}, err
	}
	return s.keys, nil
}

func (s *session) roundContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.RoundTimeout > 0 {
		return context.WithTimeout(ctx, s.opts.RoundTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *session) report(r RoundReport) {
	if s.opts.Observer != nil {
		s.opts.Observer(r)
	}
}

// outer returns the keys held for the rounds above r, round 4's first.
func (s *session) outer(r int) []uint32 {
	var keys []uint32
	for j := feal.Rounds; j > r; j-- {
		keys = append(keys, s.keys.Round(j))
	}
	return keys
}

// retry decides what happens after a failed attempt. It returns nil when
// the round should be tried again.
func (s *session) retry(r, attempt int, err error) error {
	if !errors.Is(err, ErrNoCandidate) {
		return fmt.Errorf("round %d: %w", r, err)
	}
	if attempt <= s.opts.Retries {
		glog.Warningf("round %d: no consistent key with attempt %d, retrying with fresh pairs", r, attempt)
		return nil
	}
	return &AttackFailure{Round: r, Attempts: attempt, Err: err}
}

func (s *session) attackRound(ctx context.Context, r int) error {
	ctx, cancel := s.roundContext(ctx)
	defer cancel()

	if r == 1 {
		glog.Infof("solving K1 and whitening keys")
	} else {
		glog.Infof("attacking round %d with dP=%#016x", r, FEAL4.InputDiff(r))
	}
	start := time.Now()
	for attempt := 1; ; attempt++ {
		err := s.attempt(ctx, r, attempt)
		if err == nil {
			rep := RoundReport{Round: r, Key: s.keys.Round(r), Attempts: attempt, Elapsed: time.Since(start)}
			if r == 1 {
				rep.KL, rep.KR = s.keys.KL, s.keys.KR
			}
			s.report(rep)
			return nil
		}
		if err := s.retry(r, attempt, err); err != nil {
			s.report(RoundReport{Round: r, Attempts: attempt, Elapsed: time.Since(start), Err: err})
			return err
		}
	}
}

// attempt makes one attempt at round r. From the second attempt on it
// first re-attacks one more round above r per earlier failure, so a wrong
// key held for any of them is replaced before r is searched again.
func (s *session) attempt(ctx context.Context, r, attempt int) error {
	for u := min(r+attempt-1, feal.Rounds); u > r; u-- {
		start := time.Now()
		if err := s.solve(ctx, u); err != nil {
			return fmt.Errorf("re-attacking round %d: %w", u, err)
		}
		glog.Infof("round %d: re-attacked round %d, key now %#08x", r, u, s.keys.Round(u))
		s.report(RoundReport{Round: u, Key: s.keys.Round(u), Attempts: 1, Redo: true, Elapsed: time.Since(start)})
	}
	return s.solve(ctx, r)
}

// solve searches round r once with a fresh pair set, peeled with the keys
// currently held for the rounds above it. Round 1 reuses the pairs round 2
// was last attacked with.
func (s *session) solve(ctx context.Context, r int) error {
	if r == 1 {
		k1, kl, kr, err := SolveFirstRound(ctx, s.round2, s.keys.Round(2), s.opts.Search)
		if err != nil {
			return err
		}
		s.keys.K[0], s.keys.KL, s.keys.KR = k1, kl, kr
		return nil
	}
	set := s.gen.Pairs(FEAL4.InputDiff(r), s.opts.Pairs)
	peeled := Peel(set.Pairs, s.outer(r))
	key, err := SearchRoundKey(ctx, peeled, FEAL4.OutputDiff, s.opts.Search)
	if err != nil {
		return err
	}
	s.keys.K[r-1] = key
	if r == 2 {
		s.round2 = peeled
	}
	return nil
}

// Verify encrypts n random plaintexts drawn from rng with both the oracle
// and ks and returns ErrKeyMismatch on the first disagreement.
func Verify(o oracle.Encrypter, ks feal.KeySet, rng *oracle.Rand, n int) error {
	for i := 0; i < n; i++ {
		p := rng.Uint64()
		if want, got := o.Encrypt(p), feal.Encrypt(p, &ks); want != got {
			return fmt.Errorf("plaintext %#016x: oracle %#016x, recovered %#016x: %w", p, want, got, ErrKeyMismatch)
		}
	}
	return nil
}
