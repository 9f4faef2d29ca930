package oracle

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/chacha20"
)

const randBlockSize = 64

// Rand is a deterministic random source backed by the ChaCha20 keystream.
// Two sources built from the same seed yield the same sequence.
// A Rand must not be shared between goroutines.
type Rand struct {
	stream *chacha20.Cipher
	buf    [randBlockSize]byte
	off    int
}

// NewRand returns a source seeded with seed. The label separates streams
// drawn from one seed for different purposes.
func NewRand(seed uint64, label string) *Rand {
	var seedBytes [8]byte
	binary.LittleEndian.PutUint64(seedBytes[:], seed)

	h := sha256.New()
	h.Write(seedBytes[:])
	h.Write([]byte("fealdiff/rand:v1"))
	h.Write([]byte(label))
	key := h.Sum(nil)

	stream, err := chacha20.NewUnauthenticatedCipher(key, make([]byte, chacha20.NonceSize))
	if err != nil {
		// Only reachable with a malformed key or nonce length.
		panic(fmt.Sprintf("oracle: chacha20 setup failed: %v", err))
	}
	return &Rand{stream: stream, off: randBlockSize}
}

func (r *Rand) next(n int) []byte {
	if r.off+n > randBlockSize {
		clear(r.buf[:])
		r.stream.XORKeyStream(r.buf[:], r.buf[:])
		r.off = 0
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

// Uint16 returns 16 uniformly random bits.
func (r *Rand) Uint16() uint16 { return binary.LittleEndian.Uint16(r.next(2)) }

// Uint32 returns 32 uniformly random bits.
func (r *Rand) Uint32() uint32 { return binary.LittleEndian.Uint32(r.next(4)) }

// Uint64 returns 64 uniformly random bits.
func (r *Rand) Uint64() uint64 { return binary.LittleEndian.Uint64(r.next(8)) }
