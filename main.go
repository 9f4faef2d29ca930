// Copyright (c) 2025, The Garble Authors.
// See LICENSE for licensing information.

// fealdiff recovers the six keys of a 4-round FEAL cipher with a
// chosen-plaintext differential attack.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/golang/glog"
)

// errUsage is returned by commands whose flags or arguments were invalid.
// The command has already told the user what went wrong.
var errUsage = errors.New("usage error")

func usage() {
	fmt.Fprint(os.Stderr, `
Usage of fealdiff:

	fealdiff [logging flags] command [arguments]

The commands are:

	attack    recover all six keys of a FEAL-4 oracle
	analyze   measure the differential properties the attack relies on
	help      print this message

Run 'fealdiff command -h' for the arguments of a command.

The logging flags are:

`[1:])
	flag.PrintDefaults()
}

func main() { os.Exit(main1()) }

func main1() int {
	flag.Usage = usage
	// glog writes to files under the temp dir by default; keep it on stderr.
	flag.Set("logtostderr", "true")
	flag.Parse()
	defer glog.Flush()

	args := flag.Args()
	if len(args) < 1 {
		usage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch cmd, args := args[0], args[1:]; cmd {
	case "help", "-h", "-help", "--help":
		usage()
		return 0
	case "attack":
		err = commandAttack(ctx, os.Stdout, args)
	case "analyze":
		err = commandAnalyze(ctx, os.Stdout, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %q\n", cmd)
		return 2
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return 2
	default:
		fmt.Fprintf(os.Stderr, "fealdiff: %v\n", err)
		return 1
	}
}
