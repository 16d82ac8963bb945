package extractor

import (
	"image"
	"image/color"
	"math"
)

// Result is the scanner+deskew exit code.
type Result int

const (
	// Failure means fewer than three primary anchors were found.
	Failure Result = iota
	// Success means the frame was located and rectified at full
	// resolution.
	Success
	// NeedsSharpen means the frame was rectified but came from a
	// source region smaller than the target size, so the caller
	// should apply the reader's sharpen preprocessing path.
	NeedsSharpen
)

// homography is a 3x3 projective transform matrix.
type homography [3][3]float64

// solveHomography computes the projective transform mapping src[i] to
// dst[i] for four point correspondences, via Gaussian elimination on
// the standard 8-unknown DLT linear system (h22 fixed to 1).
func solveHomography(src, dst [4]Point) homography {
	var a [8][9]float64
	for i := 0; i < 4; i++ {
		sx, sy := src[i].X, src[i].Y
		dx, dy := dst[i].X, dst[i].Y
		a[2*i] = [9]float64{sx, sy, 1, 0, 0, 0, -dx * sx, -dx * sy, dx}
		a[2*i+1] = [9]float64{0, 0, 0, sx, sy, 1, -dy * sx, -dy * sy, dy}
	}
	h := gaussSolve8(a)
	return homography{
		{h[0], h[1], h[2]},
		{h[3], h[4], h[5]},
		{h[6], h[7], 1},
	}
}

// gaussSolve8 solves the 8x8 linear system encoded as augmented rows
// a[i][0..7] * x = a[i][8], via Gauss-Jordan elimination with partial
// pivoting.
func gaussSolve8(a [8][9]float64) [8]float64 {
	for col := 0; col < 8; col++ {
		pivot := col
		for r := col + 1; r < 8; r++ {
			if absF(a[r][col]) > absF(a[pivot][col]) {
				pivot = r
			}
		}
		a[col], a[pivot] = a[pivot], a[col]
		if absF(a[col][col]) < 1e-12 {
			continue
		}
		inv := 1 / a[col][col]
		for k := col; k < 9; k++ {
			a[col][k] *= inv
		}
		for r := 0; r < 8; r++ {
			if r == col {
				continue
			}
			factor := a[r][col]
			for k := col; k < 9; k++ {
				a[r][k] -= factor * a[col][k]
			}
		}
	}
	var x [8]float64
	for i := 0; i < 8; i++ {
		x[i] = a[i][8]
	}
	return x
}

// apply maps a source-space point through the homography.
func (h homography) apply(p Point) Point {
	x := h[0][0]*p.X + h[0][1]*p.Y + h[0][2]
	y := h[1][0]*p.X + h[1][1]*p.Y + h[1][2]
	w := h[2][0]*p.X + h[2][1]*p.Y + h[2][2]
	if w == 0 {
		return none
	}
	return Point{x / w, y / w}
}

// invert returns the inverse homography via 3x3 matrix adjugate.
func (h homography) invert() homography {
	a, b, c := h[0][0], h[0][1], h[0][2]
	d, e, f := h[1][0], h[1][1], h[1][2]
	g, i, j := h[2][0], h[2][1], h[2][2]

	det := a*(e*j-f*i) - b*(d*j-f*g) + c*(d*i-e*g)
	if absF(det) < 1e-12 {
		return homography{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	}
	invDet := 1 / det
	return homography{
		{(e*j - f*i) * invDet, (c*i - b*j) * invDet, (b*f - c*e) * invDet},
		{(f*g - d*j) * invDet, (a*j - c*g) * invDet, (c*d - a*f) * invDet},
		{(d*i - e*g) * invDet, (b*g - a*i) * invDet, (a*e - b*d) * invDet},
	}
}

// Deskew perspective-transforms the quadrilateral defined by corners
// into a destSize x destSize image (plus padding), sampling the
// source image via the inverse transform. It returns NeedsSharpen if
// any source edge is shorter than destSize, indicating the captured
// anchor span less resolution than the target frame.
func Deskew(img *image.RGBA, corners Corners, destSize, padding int) (*image.RGBA, Result) {
	full := destSize + 2*padding
	dst := [4]Point{
		{float64(padding), float64(padding)},
		{float64(padding + destSize), float64(padding)},
		{float64(padding), float64(padding + destSize)},
		{float64(padding + destSize), float64(padding + destSize)},
	}
	src := [4]Point{corners.TL, corners.TR, corners.BL, corners.BR}
	h := solveHomography(src, dst)
	inv := h.invert()

	out := image.NewRGBA(image.Rect(0, 0, full, full))
	for y := 0; y < full; y++ {
		for x := 0; x < full; x++ {
			sp := inv.apply(Point{float64(x), float64(y)})
			out.SetRGBA(x, y, sampleNearest(img, sp))
		}
	}

	result := Success
	if shortestEdge(corners) < float64(destSize) {
		result = NeedsSharpen
	}
	return out, result
}

func sampleNearest(img *image.RGBA, p Point) color.RGBA {
	b := img.Bounds()
	x, y := int(p.X+0.5), int(p.Y+0.5)
	if x < b.Min.X || x >= b.Max.X || y < b.Min.Y || y >= b.Max.Y {
		return color.RGBA{}
	}
	return img.RGBAAt(x, y)
}

func shortestEdge(c Corners) float64 {
	edges := []float64{
		dist(c.TL, c.TR),
		dist(c.TR, c.BR),
		dist(c.BR, c.BL),
		dist(c.BL, c.TL),
	}
	min := edges[0]
	for _, e := range edges[1:] {
		if e < min {
			min = e
		}
	}
	// dist() returns squared length; undo that for the px comparison.
	return math.Sqrt(min)
}
