package hash

// Mode selects how many of the 9 drift sub-windows FuzzyAHash
// extracts. FAST trades drift coverage for speed; ALL is exhaustive.
type Mode int

const (
	// FAST returns only the 5 edge/center sub-windows.
	FAST Mode = iota
	// ALL returns all 9 sub-windows.
	ALL
)

// offset is one of the 9 +/-1px drift sub-windows, in the required
// center-first iteration order: center, then the four edge-adjacent
// offsets, then the four corners. This must track
// internal/lattice.DriftOffsets exactly since "drift_offset" indices
// are shared between the two packages.
type offset struct{ dx, dy int }

var subWindowOffsets = [9]offset{
	{0, 0},
	{0, -1},
	{0, 1},
	{-1, 0},
	{1, 0},
	{-1, -1},
	{1, -1},
	{-1, 1},
	{1, 1},
}

// Candidate is one hash produced by FuzzyAHash, tagged with the
// drift_offset index (into the 9-entry center-first enumeration) it
// came from.
type Candidate struct {
	Hash   uint64
	Offset int
}

// FuzzyAHash extracts a family of average hashes from a 10x10
// grayscale window (an 8x8 tile plus a 1px border on every side),
// one per drift offset, in center-first order. FAST returns only the
// first 5 candidates (center + 4 edges); ALL returns all 9.
func FuzzyAHash(g Grayscale, mode Mode) []Candidate {
	n := len(subWindowOffsets)
	if mode == FAST {
		n = 5
	}
	out := make([]Candidate, n)
	for i := 0; i < n; i++ {
		off := subWindowOffsets[i]
		// The 10x10 window's center 8x8 sub-window starts at (1,1);
		// a drift of (dx, dy) shifts that origin by the same amount.
		out[i] = Candidate{
			Hash:   AverageHash(g, 1+off.dx, 1+off.dy),
			Offset: i,
		}
	}
	return out
}

// Match compares a candidate family against a hash catalog (indexed
// by symbol value) and returns the best symbol, the winning
// drift_offset, and the Hamming distance. It early-exits as soon as a
// zero-distance match is found, per the spec's greedy center-first
// matching rule.
func Match(candidates []Candidate, catalog []uint64) (symbol, driftOffset, distance int) {
	best := -1
	bestDist := 65 // larger than any possible 64-bit Hamming distance
	bestOffset := 0

	for _, c := range candidates {
		for sym, ideal := range catalog {
			d := HammingDistance(c.Hash, ideal)
			if d < bestDist {
				bestDist = d
				best = sym
				bestOffset = c.Offset
			}
			if bestDist == 0 {
				return best, bestOffset, bestDist
			}
		}
	}
	return best, bestOffset, bestDist
}
