// Package feal implements the 4-round FEAL-style Feistel cipher attacked by
// fealdiff. The wiring of Mix inside RoundFunction is load-bearing: the
// differential constants used by the attack only hold for this exact graph.
package feal

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// Rounds is the number of Feistel rounds.
const Rounds = 4

// KeySet holds the six secret words of the cipher.
type KeySet struct {
	// K holds the round keys K1..K4; K[0] is K1.
	K [Rounds]uint32
	// KL and KR whiten the left and right plaintext halves.
	KL, KR uint32
}

// Round returns the key of round r, counting from 1.
func (ks KeySet) Round(r int) uint32 { return ks.K[r-1] }

// String formats the key set as K1,K2,K3,K4,KL,KR in hexadecimal, the
// format accepted by ParseKeySet.
func (ks KeySet) String() string {
	return fmt.Sprintf("%08X,%08X,%08X,%08X,%08X,%08X",
		ks.K[0], ks.K[1], ks.K[2], ks.K[3], ks.KL, ks.KR)
}

// ParseKeySet parses six comma-separated hexadecimal words in the order
// K1,K2,K3,K4,KL,KR. A 0x prefix on each word is optional.
func ParseKeySet(s string) (KeySet, error) {
	fields := strings.Split(s, ",")
	if len(fields) != Rounds+2 {
		return KeySet{}, fmt.Errorf("key set needs %d comma-separated words, got %d", Rounds+2, len(fields))
	}
	var words [Rounds + 2]uint32
	for i, field := range fields {
		field = strings.TrimSpace(field)
		field = strings.TrimPrefix(strings.TrimPrefix(field, "0x"), "0X")
		v, err := strconv.ParseUint(field, 16, 32)
		if err != nil {
			return KeySet{}, fmt.Errorf("key word %d: %w", i+1, err)
		}
		words[i] = uint32(v)
	}
	var ks KeySet
	copy(ks.K[:], words[:Rounds])
	ks.KL, ks.KR = words[Rounds], words[Rounds+1]
	return ks, nil
}

// KeySetFromSeed derives the six key words from a seed using SHA-256.
// Each word is derived by hashing (seed || label || index).
func KeySetFromSeed(seed uint64) KeySet {
	var seedBytes [8]byte
	binary.LittleEndian.PutUint64(seedBytes[:], seed)

	var words [Rounds + 2]uint32
	for i := range words {
		hasher := sha256.New()
		hasher.Write(seedBytes[:])
		hasher.Write([]byte("fealdiff/keys:v1"))
		hasher.Write([]byte{byte(i)})
		sum := hasher.Sum(nil)
		words[i] = binary.LittleEndian.Uint32(sum[:4])
	}
	var ks KeySet
	copy(ks.K[:], words[:Rounds])
	ks.KL, ks.KR = words[Rounds], words[Rounds+1]
	return ks
}

// Halves splits a block into its left (high) and right (low) halves.
func Halves(b uint64) (l, r uint32) {
	return uint32(b >> 32), uint32(b)
}

// Join combines two halves into a block with l as the high half.
func Join(l, r uint32) uint64 {
	return uint64(l)<<32 | uint64(r)
}

// Mix adds two bytes and a round constant of 0 or 1 modulo 256 and rotates
// the sum left by two bits.
func Mix(a, b, roundConst byte) byte {
	return bits.RotateLeft8(a+b+roundConst, 2)
}

// RoundFunction is the F-function of one round. Byte 0 is the least
// significant byte of both input and output.
func RoundFunction(r uint32) uint32 {
	x0, x1, x2, x3 := byte(r), byte(r>>8), byte(r>>16), byte(r>>24)

	y1 := Mix(x0^x1, x2^x3, 1)
	y0 := Mix(x0, y1, 0)
	y2 := Mix(x2^x3, y1, 0)
	y3 := Mix(x3, y2, 1)

	return uint32(y0) | uint32(y1)<<8 | uint32(y2)<<16 | uint32(y3)<<24
}

// Encrypt encrypts one block. The last round does not swap halves, and the
// right half is folded with the left half before the first round and after
// the last one.
func Encrypt(p uint64, ks *KeySet) uint64 {
	l, r := Halves(p)
	l ^= ks.KL
	r ^= ks.KR
	r ^= l

	for i := 0; i < Rounds-1; i++ {
		l, r = r, l^RoundFunction(r^ks.K[i])
	}
	l ^= RoundFunction(r ^ ks.K[Rounds-1])

	r ^= l
	return Join(l, r)
}

// Decrypt inverts Encrypt.
func Decrypt(c uint64, ks *KeySet) uint64 {
	l, r := UndoFinalFold(c)
	l ^= RoundFunction(r ^ ks.K[Rounds-1])
	for i := Rounds - 2; i >= 0; i-- {
		l, r = r^RoundFunction(l^ks.K[i]), l
	}
	r ^= l
	return Join(l^ks.KL, r^ks.KR)
}

// UndoFinalFold splits a ciphertext into halves and removes the final fold
// of the right half. The fold is its own inverse.
func UndoFinalFold(c uint64) (l, r uint32) {
	l, r = Halves(c)
	return l, l ^ r
}

// InverseRoundStep maps the halves (L, R) of b to (R, L ^ F(R ^ key)).
// Applied to the unfolded ciphertext with K4, then K3 and so on, it peels
// one round at a time and leaves the state with its halves swapped.
func InverseRoundStep(b uint64, key uint32) uint64 {
	l, r := Halves(b)
	return Join(r, l^RoundFunction(r^key))
}
