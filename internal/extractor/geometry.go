package extractor

// Point is a 2D floating point coordinate.
type Point struct {
	X, Y float64
}

// none is the sentinel "no point" value, mirroring point<V>::NONE().
var none = Point{X: -1, Y: -1}

// IsNone reports whether p is the sentinel "no point" value.
func (p Point) IsNone() bool {
	return p == none
}

func dist(a, b Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy // squared distance is enough for comparisons
}

// lineIntersection returns the intersection of line (p1,p2) with line
// (p3,p4), via the standard determinant formula. Returns the none
// sentinel if the lines are parallel.
func lineIntersection(p1, p2, p3, p4 Point) Point {
	denom := (p1.X-p2.X)*(p3.Y-p4.Y) - (p1.Y-p2.Y)*(p3.X-p4.X)
	if absF(denom) < 1e-9 {
		return none
	}
	a := p1.X*p2.Y - p1.Y*p2.X
	b := p3.X*p4.Y - p3.Y*p4.X
	x := (a*(p3.X-p4.X) - (p1.X-p2.X)*b) / denom
	y := (a*(p3.Y-p4.Y) - (p1.Y-p2.Y)*b) / denom
	return Point{X: x, Y: y}
}

// Corners holds the ordered quadrilateral found by the scanner: three
// primary anchor centers plus the derived fourth (secondary anchor)
// corner.
type Corners struct {
	TL, TR, BL, BR Point
}

// calculateMidpoints finds the midpoints of the quadrilateral's four
// sides by intersecting the diagonals, then projecting through the
// diagonal crossing point onto each side -- mirroring the source's
// diagonal-crossing-then-side-line approach.
func calculateMidpoints(c Corners) (top, bottom, left, right Point) {
	cross := lineIntersection(c.TL, c.BR, c.TR, c.BL)
	if cross.IsNone() {
		mid := func(a, b Point) Point { return Point{(a.X + b.X) / 2, (a.Y + b.Y) / 2} }
		return mid(c.TL, c.TR), mid(c.BL, c.BR), mid(c.TL, c.BL), mid(c.TR, c.BR)
	}
	top = lineIntersection(c.TL, c.TR, cross, Point{cross.X, cross.Y - 1})
	bottom = lineIntersection(c.BL, c.BR, cross, Point{cross.X, cross.Y + 1})
	left = lineIntersection(c.TL, c.BL, cross, Point{cross.X - 1, cross.Y})
	right = lineIntersection(c.TR, c.BR, cross, Point{cross.X + 1, cross.Y})
	return top, bottom, left, right
}
