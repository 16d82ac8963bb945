package lattice

// Drift is a small signed per-cell pixel offset, constrained to
// {-1, 0, +1} on each axis (max_drift == 1 in the baseline config).
type Drift struct {
	DX, DY int
}

// driftOffsets enumerates the 9 (dx, dy) combinations in the
// center-first order required by the fuzzy hash matcher: center,
// then the four edge-adjacent offsets, then the four corners. This
// must match internal/hash's sub-window iteration order exactly, since
// the "drift_offset" index is threaded between the two packages.
var driftOffsets = [9]Drift{
	{0, 0},   // 4: center
	{0, -1},  // 5: top
	{0, 1},   // 7: bottom
	{-1, 0},  // 3: left
	{1, 0},   // 1: right
	{-1, -1}, // 8: top-left
	{1, -1},  // 0: top-right
	{-1, 1},  // 2: bottom-left
	{1, 1},   // 6: bottom-right
}

// DriftOffsets returns the fixed 9-entry center-first drift
// enumeration shared by the lattice and hash packages.
func DriftOffsets() [9]Drift {
	return driftOffsets
}

// DriftAt returns the (dx, dy) for a drift_offset index in [0, 9).
func DriftAt(offset int) Drift {
	return driftOffsets[offset]
}
