package extractor

import "image"

// Scanner locates anchor fiducials in an arbitrary camera frame.
type Scanner struct {
	skip int // row stride for the horizontal scan pass
}

// NewScanner builds a Scanner. skip rows are skipped between scan
// lines; smaller values find anchors more reliably at the cost of
// scan time.
func NewScanner(skip int) *Scanner {
	if skip < 1 {
		skip = 1
	}
	return &Scanner{skip: skip}
}

// scanRow runs the 1:1:4:1:1 state machine across one row of a binary
// image and returns every (x, run-width) hit found.
func scanRow(bits []bool, w, y int) []Anchor {
	var hits []Anchor
	sm := NewScanState(primaryRatio)
	for x := 0; x < w; x++ {
		if sm.Feed(bits[y*w+x]) {
			width := sumLast(sm, 5)
			hits = append(hits, Anchor{Center: Point{float64(x) - width/2, float64(y)}, Size: width})
		}
	}
	return hits
}

func sumLast(sm *ScanState, n int) float64 {
	var sum int
	start := len(sm.runs) - n
	if start < 0 {
		start = 0
	}
	for _, r := range sm.runs[start:] {
		sum += r
	}
	return float64(sum)
}

// confirmVertical re-runs the same pattern match down the column at
// hit.Center.X, accepting the hit only if a matching run is also
// found vertically -- this is the scanner's vertical confirm pass.
func confirmVertical(bits []bool, w, h int, hit Anchor) bool {
	x := int(hit.Center.X)
	if x < 0 || x >= w {
		return false
	}
	sm := NewScanState(primaryRatio)
	for y := 0; y < h; y++ {
		if sm.Feed(bits[y*w+x]) {
			return true
		}
	}
	return false
}

// Scan finds the three primary anchors and orders them TL, TR, BL.
// It returns ok == false if fewer than three anchors were found
// (AnchorsNotFound).
func (s *Scanner) Scan(img *image.RGBA) (corners Corners, ok bool) {
	pix, w, h := toGray(img)
	t := otsuThreshold(pix)
	bits := binarize(pix, t)

	var hits []Anchor
	for y := 0; y < h; y += s.skip {
		for _, hit := range scanRow(bits, w, y) {
			if confirmVertical(bits, w, h, hit) {
				hits = append(hits, hit)
			}
		}
	}

	merged := mergeAnchors(hits, float64(w)/30)
	top3 := topByArea(merged, 3)
	if len(top3) < 3 {
		return Corners{}, false
	}

	tl, tr, bl := orderCorners(top3[0], top3[1], top3[2])
	br := deriveFourthCorner(tl, tr, bl)
	return Corners{TL: tl.Center, TR: tr.Center, BL: bl.Center, BR: br}, true
}

// orderCorners decides TL/TR/BL among three unordered anchor hits:
// the longest of the three connecting edges is opposite TL, and a
// winding test (cross product sign of the incoming edges) separates
// TR from BL.
func orderCorners(a, b, c Anchor) (tl, tr, bl Anchor) {
	dab := dist(a.Center, b.Center)
	dbc := dist(b.Center, c.Center)
	dac := dist(a.Center, c.Center)

	// The longest edge is opposite TL, so TL is the vertex NOT on that edge.
	switch {
	case dab >= dbc && dab >= dac:
		tl = c
		tr, bl = orderByWinding(tl, a, b)
	case dbc >= dab && dbc >= dac:
		tl = a
		tr, bl = orderByWinding(tl, b, c)
	default:
		tl = b
		tr, bl = orderByWinding(tl, a, c)
	}
	return tl, tr, bl
}

// orderByWinding decides which of p, q is TR vs BL: rotate the vector
// tl->p by 90 degrees and check its sign against tl->q.
func orderByWinding(tl, p, q Anchor) (tr, bl Anchor) {
	vx, vy := p.Center.X-tl.Center.X, p.Center.Y-tl.Center.Y
	// Rotate (vx, vy) by +90 degrees: (-vy, vx).
	rx, ry := -vy, vx
	wx, wy := q.Center.X-tl.Center.X, q.Center.Y-tl.Center.Y
	dot := rx*wx + ry*wy
	if dot >= 0 {
		return p, q
	}
	return q, p
}

func deriveFourthCorner(tl, tr, bl Anchor) Point {
	return Point{
		X: tr.Center.X + bl.Center.X - tl.Center.X,
		Y: tr.Center.Y + bl.Center.Y - tl.Center.Y,
	}
}

// ScanSecondary confirms the predicted BR corner by re-scanning a
// small bounding box around it for the 1:2:2:1 secondary anchor
// pattern, using a halved row skip relative to the primary pass.
func (s *Scanner) ScanSecondary(img *image.RGBA, predicted Point, boxRadius float64) (Point, bool) {
	pix, w, h := toGray(img)
	t := otsuThreshold(pix)
	bits := binarize(pix, t)

	x0 := clampInt(int(predicted.X-boxRadius), 0, w-1)
	x1 := clampInt(int(predicted.X+boxRadius), 0, w-1)
	y0 := clampInt(int(predicted.Y-boxRadius), 0, h-1)
	y1 := clampInt(int(predicted.Y+boxRadius), 0, h-1)

	skip := s.skip / 2
	if skip < 1 {
		skip = 1
	}
	for y := y0; y <= y1; y += skip {
		sm := NewScanState(secondaryRatio)
		for x := x0; x <= x1; x++ {
			if sm.Feed(bits[y*w+x]) {
				width := sumLast(sm, 4)
				return Point{float64(x) - width/2, float64(y)}, true
			}
		}
	}
	return none, false
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
