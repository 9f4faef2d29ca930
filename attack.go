// Copyright (c) 2025, The Garble Authors.
// See LICENSE for licensing information.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/AeonDave/fealdiff/internal/attack"
	"github.com/AeonDave/fealdiff/internal/feal"
	"github.com/AeonDave/fealdiff/internal/oracle"
)

func commandAttack(ctx context.Context, stdout io.Writer, args []string) error {
	fs := flag.NewFlagSet("attack", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), `
Usage of attack:

	fealdiff attack [flags]

Without -keys, a key set is derived from -seed and kept inside the oracle.
The flags are:

`[1:])
		fs.PrintDefaults()
	}

	var (
		keys   keySetFlag
		bound  hexUint32Flag
		seed   = fs.Uint64("seed", 0, "seed for the key set and plaintexts (default: derived from the clock)")
		verify = fs.Int("verify", 64, "number of random plaintexts used to verify the recovered keys; 0 skips it")
		opts   = attack.DefaultOptions()
	)
	fs.Var(&keys, "keys", "attack this key set instead: K1,K2,K3,K4,KL,KR as hex words")
	fs.Var(&bound, "bound", "inclusive upper bound for round key hypotheses; 0 searches all 2^32")
	fs.IntVar(&opts.Pairs, "pairs", opts.Pairs, "chosen-plaintext pairs per round")
	fs.IntVar(&opts.Search.Workers, "workers", 0, "search goroutines (default: GOMAXPROCS)")
	fs.IntVar(&opts.Retries, "retries", opts.Retries, "times a round is retried, re-attacking the rounds above it first")
	fs.DurationVar(&opts.RoundTimeout, "timeout", 0, "time limit per round; 0 disables it")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "attack takes no arguments, got %q\n", fs.Args())
		return errUsage
	}
	if *verify < 0 {
		fmt.Fprintf(fs.Output(), "-verify must not be negative, got %d\n", *verify)
		return errUsage
	}

	seedSet := false
	fs.Visit(func(f *flag.Flag) { seedSet = seedSet || f.Name == "seed" })
	if !seedSet {
		*seed = uint64(time.Now().UnixNano())
	}
	opts.Seed = *seed
	opts.Search.Bound = uint32(bound)

	var o oracle.Encrypter
	if keys.set {
		o = oracle.New(keys.keys)
	} else {
		o = oracle.NewSeeded(*seed)
	}

	p := &printer{w: stdout}
	opts.Observer = p.round
	fmt.Fprintf(stdout, "seed: %d\n", *seed)
	fmt.Fprintf(stdout, "attacking %d-round FEAL with %d pairs per round\n", feal.Rounds, opts.Pairs)

	start := time.Now()
	ks, err := attack.Run(ctx, o, opts)
	if err != nil {
		return err
	}
	p.keys(ks)

	if *verify > 0 {
		rng := oracle.NewRand(*seed, "verify")
		if err := attack.Verify(o, ks, rng, *verify); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "verified against %d plaintexts\n", *verify)
	}
	if keys.set && ks != keys.keys {
		glog.Infof("recovered %s, oracle holds %s", ks, keys.keys)
	}
	fmt.Fprintf(stdout, "total time %s\n", seconds(time.Since(start)))
	return nil
}

type printer struct {
	w io.Writer
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}

func (p *printer) round(r attack.RoundReport) {
	if r.Err != nil {
		fmt.Fprintf(p.w, "round %d: FAILED after %d attempt(s) (%s)\n", r.Round, r.Attempts, seconds(r.Elapsed))
		return
	}
	if r.Redo {
		fmt.Fprintf(p.w, "round %d: key 0x%08X ok, re-attacked (%s)\n", r.Round, r.Key, seconds(r.Elapsed))
		return
	}
	if r.Round == 1 {
		fmt.Fprintf(p.w, "round 1: K1=0x%08X KL=0x%08X KR=0x%08X ok (%s)\n", r.Key, r.KL, r.KR, seconds(r.Elapsed))
		return
	}
	fmt.Fprintf(p.w, "round %d: key 0x%08X ok (%s)\n", r.Round, r.Key, seconds(r.Elapsed))
}

func (p *printer) keys(ks feal.KeySet) {
	fmt.Fprintln(p.w, "recovered keys:")
	for i, k := range ks.K {
		fmt.Fprintf(p.w, "  K%d = 0x%08X\n", i+1, k)
	}
	fmt.Fprintf(p.w, "  KL = 0x%08X\n", ks.KL)
	fmt.Fprintf(p.w, "  KR = 0x%08X\n", ks.KR)
	fmt.Fprintf(p.w, "  %s\n", ks)
}
