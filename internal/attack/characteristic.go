package attack

// Characteristic is the differential characteristic the key search relies
// on. Both differences are properties of feal.RoundFunction and are not
// derived at run time.
type Characteristic struct {
	// InputDiffs holds the plaintext difference for each peeling depth:
	// index 0 attacks round 4, index 1 round 3, index 2 round 2.
	InputDiffs [3]uint64
	// OutputDiff is the difference expected in the left half of the state
	// right after the round under attack.
	OutputDiff uint32
}

// FEAL4 is the characteristic for the 4-round cipher in package feal.
// Each input difference reaches OutputDiff with probability one.
var FEAL4 = Characteristic{
	InputDiffs: [3]uint64{
		0x8080000080800000,
		0x0000000080800000,
		0x0000000002000000,
	},
	OutputDiff: 0x02000000,
}

// InputDiff returns the plaintext difference used to attack round r.
func (c Characteristic) InputDiff(r int) uint64 {
	return c.InputDiffs[4-r]
}
