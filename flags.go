// Copyright (c) 2025, The Garble Authors.
// See LICENSE for licensing information.

package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/AeonDave/fealdiff/internal/feal"
)

// keySetFlag parses a key set in the form printed by feal.KeySet.String.
type keySetFlag struct {
	keys feal.KeySet
	set  bool
}

var _ flag.Value = (*keySetFlag)(nil)

// Set implements flag.Value.
func (f *keySetFlag) Set(v string) error {
	ks, err := feal.ParseKeySet(v)
	if err != nil {
		return err
	}
	f.keys, f.set = ks, true
	return nil
}

// String implements flag.Value.
func (f *keySetFlag) String() string {
	if f == nil || !f.set {
		return ""
	}
	return f.keys.String()
}

// hexUint32Flag is a uint32 accepting any integer literal strconv
// understands, so "0xffff" and "65535" are the same value.
type hexUint32Flag uint32

var _ flag.Value = (*hexUint32Flag)(nil)

// Set implements flag.Value.
func (f *hexUint32Flag) Set(v string) error {
	n, err := strconv.ParseUint(v, 0, 32)
	if err != nil {
		return err
	}
	*f = hexUint32Flag(n)
	return nil
}

// String implements flag.Value.
func (f *hexUint32Flag) String() string {
	if f == nil {
		return "0x0"
	}
	return fmt.Sprintf("%#x", uint32(*f))
}

// intListFlag is a comma-separated list of positive integers.
type intListFlag []int

var _ flag.Value = (*intListFlag)(nil)

// Set implements flag.Value.
func (f *intListFlag) Set(v string) error {
	var list []int
	for i, field := range strings.Split(v, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return fmt.Errorf("element %d: %w", i+1, err)
		}
		if n < 1 {
			return fmt.Errorf("element %d: must be at least 1, got %d", i+1, n)
		}
		list = append(list, n)
	}
	*f = list[:len(list):len(list)]
	return nil
}

// String implements flag.Value.
func (f *intListFlag) String() string {
	if f == nil {
		return ""
	}
	fields := make([]string, len(*f))
	for i, n := range *f {
		fields[i] = strconv.Itoa(n)
	}
	return strings.Join(fields, ",")
}
