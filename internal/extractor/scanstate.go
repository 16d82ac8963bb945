// Package extractor locates anchor fiducials in an arbitrary camera
// frame and rectifies the frame into a fixed-size lattice image: the
// anchor scanner (run-length state machines over threshold runs) plus
// the deskew perspective transform.
package extractor

// ratio is a run-length pattern like {1,1,4,1,1} or {1,2,2,1}, along
// with its tolerances. matchesRatio accepts a run whose relative
// deviation from its expected width is at most 1/lowTol; highTol is
// not used by the matcher.
type ratio struct {
	weights []float64
	lowTol  float64
	highTol float64
}

var primaryRatio = ratio{weights: []float64{1, 1, 4, 1, 1}, lowTol: 3.0, highTol: 6.0}
var secondaryRatio = ratio{weights: []float64{1, 2, 2, 1}, lowTol: 1.0, highTol: 3.0}

// ScanState is a sliding-window run-length state machine: it tracks
// the lengths of the last len(pattern) runs of alternating
// bright/dark pixels and, each time a new run completes, checks
// whether the tallies match the target ratio within tolerance. A
// match does not reset the machine; it pops the oldest run and keeps
// scanning, so overlapping candidate hits along a single row are all
// found.
type ScanState struct {
	pattern ratio
	runs    []int
	current int
	color   bool // current run's pixel polarity (true == bright)
}

// NewScanState builds a state machine for the given pattern.
func NewScanState(p ratio) *ScanState {
	return &ScanState{pattern: p, runs: make([]int, 0, len(p.weights))}
}

// Feed advances the machine by one pixel of the given polarity. It
// returns true exactly when a new run just completed and the
// resulting window matches the pattern ratio.
func (s *ScanState) Feed(bright bool) bool {
	if len(s.runs) == 0 && s.current == 0 {
		s.color = bright
	}
	if bright == s.color {
		s.current++
		return false
	}

	// Run ended: push it and advance.
	s.runs = append(s.runs, s.current)
	if len(s.runs) > len(s.pattern.weights) {
		s.runs = s.runs[1:]
	}
	s.current = 1
	s.color = bright

	if len(s.runs) < len(s.pattern.weights) {
		return false
	}
	return matchesRatio(s.runs, s.pattern)
}

// matchesRatio checks each run against the unit width implied by the
// first run; any run whose relative deviation from its expected width
// exceeds 1/lowTol rejects the whole window.
func matchesRatio(runs []int, p ratio) bool {
	unit := float64(runs[0]) / p.weights[0]
	if unit <= 0 {
		return false
	}
	for i, w := range p.weights {
		expect := unit * w
		if expect <= 0 {
			return false
		}
		deviation := absF(float64(runs[i])-expect) / expect
		if deviation > 1/p.lowTol {
			return false
		}
	}
	return true
}

func absF(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
