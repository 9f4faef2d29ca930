// Copyright (c) 2025, The Garble Authors.
// See LICENSE for licensing information.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/AeonDave/fealdiff/internal/analysis"
)

func commandAnalyze(ctx context.Context, stdout io.Writer, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), `
Usage of analyze:

	fealdiff analyze [flags]

The flags are:

`[1:])
		fs.PrintDefaults()
	}

	var (
		pairs  = intListFlag{1, 8}
		bound  = hexUint32Flag(0x1ffff)
		seed   = fs.Uint64("seed", 1, "seed for keys and plaintexts")
		trials = fs.Int("trials", 32, "trials per measurement")
		top    = fs.Int("top", 5, "number of Mix transitions to list")
	)
	fs.Var(&pairs, "pairs", "comma-separated pair counts for the false positive measurement")
	fs.Var(&bound, "bound", "search bound for the false positive measurement")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "analyze takes no arguments, got %q\n", fs.Args())
		return errUsage
	}
	if *trials < 1 {
		fmt.Fprintf(fs.Output(), "-trials must be at least 1, got %d\n", *trials)
		return errUsage
	}

	fmt.Fprintf(stdout, "characteristic over %d trials:\n", *trials)
	for _, s := range analysis.CharacteristicFrequency(*seed, *trials) {
		fmt.Fprintf(stdout, "  round %d  dP=0x%016X  %d/%d (%.3f)\n", s.Round, s.Diff, s.Hits, s.Trials, s.Rate())
	}

	fmt.Fprintf(stdout, "false positives searching K4 up to %#x over %d trials:\n", uint32(bound), *trials)
	for _, n := range pairs {
		fp, err := analysis.FalsePositiveRate(ctx, *seed, *trials, n, uint32(bound))
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "  %d pair(s): %d/%d wrong (%.3f)\n", fp.Pairs, fp.Wrong, fp.Trials, fp.Rate())
	}

	fmt.Fprintln(stdout, "strongest Mix transitions:")
	for _, tr := range analysis.StrongestTransitions(analysis.MixTable(), *top) {
		fmt.Fprintf(stdout, "  0x%02X -> 0x%02X  p=%.3f\n", tr.In, tr.Out, tr.Prob)
	}
	return nil
}
