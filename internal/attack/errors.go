package attack

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCandidate reports that a search exhausted its space without
	// finding a hypothesis consistent with every pair.
	ErrNoCandidate = errors.New("no consistent candidate in search space")

	// ErrNoPairs reports a search called without any pairs to test
	// hypotheses against.
	ErrNoPairs = errors.New("no pairs to test candidates against")

	// ErrKeyMismatch reports a recovered key set that encrypts differently
	// from the oracle.
	ErrKeyMismatch = errors.New("recovered keys disagree with the oracle")
)

// AttackFailure aborts an attack at the given round after its search found
// no consistent key. Round 1 covers K1 together with the whitening keys.
type AttackFailure struct {
	Round    int
	Attempts int
	Err      error
}

func (e *AttackFailure) Error() string {
	return fmt.Sprintf("no consistent key for round %d after %d attempt(s)", e.Round, e.Attempts)
}

func (e *AttackFailure) Unwrap() error { return e.Err }
