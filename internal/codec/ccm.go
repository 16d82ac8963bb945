package codec

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// ColorCorrector is a fitted 3x3 linear transform mapping observed
// (captured, camera-tinted) RGB to the palette's reference RGB.
// frame.Reader fits a new one for every frame it decodes, from that
// frame's early cells (see DESIGN.md's "color-correction training
// points" open-question resolution), unless a caller pins one with
// SetColorCorrector; a fitted corrector is not carried over from one
// frame to the next.
type ColorCorrector struct {
	m [3][3]float64
}

// Identity returns a no-op color corrector.
func Identity() *ColorCorrector {
	c := &ColorCorrector{}
	c.m[0][0], c.m[1][1], c.m[2][2] = 1, 1, 1
	return c
}

// Apply maps an observed RGB triple through the fitted matrix.
func (c *ColorCorrector) Apply(r, g, b float64) (float64, float64, float64) {
	or := c.m[0][0]*r + c.m[0][1]*g + c.m[0][2]*b
	og := c.m[1][0]*r + c.m[1][1]*g + c.m[1][2]*b
	ob := c.m[2][0]*r + c.m[2][1]*g + c.m[2][2]*b
	return or, og, ob
}

// Sample is one (observed, reference) RGB pair used to fit the CCM.
type Sample struct {
	ObservedR, ObservedG, ObservedB float64
	ReferenceR, ReferenceG, ReferenceB float64
}

// Fit solves, independently per output channel, the least-squares 3x1
// coefficient vector mapping observed RGB to one reference channel,
// via the normal equations solved by Gauss-Jordan elimination. No
// matrix/linear-algebra library appears anywhere in the retrieval
// corpus, and a 3x3 solve is small enough that hand-rolled elimination
// is the pragmatic, dependency-free choice here (see DESIGN.md).
func Fit(samples []Sample) *ColorCorrector {
	if len(samples) < 3 {
		return Identity()
	}
	c := &ColorCorrector{}
	for ch := 0; ch < 3; ch++ {
		row := solveChannel(samples, ch)
		c.m[ch] = row
	}
	return c
}

func solveChannel(samples []Sample, channel int) [3]float64 {
	// Normal equations: (A^T A) x = A^T y, A's rows are (obsR, obsG, obsB).
	var ata [3][3]float64
	var aty [3]float64
	for _, s := range samples {
		a := [3]float64{s.ObservedR, s.ObservedG, s.ObservedB}
		var y float64
		switch channel {
		case 0:
			y = s.ReferenceR
		case 1:
			y = s.ReferenceG
		default:
			y = s.ReferenceB
		}
		for i := 0; i < 3; i++ {
			aty[i] += a[i] * y
			for j := 0; j < 3; j++ {
				ata[i][j] += a[i] * a[j]
			}
		}
	}
	return gaussSolve(ata, aty)
}

// gaussSolve solves the 3x3 linear system m*x = v via Gauss-Jordan
// elimination with partial pivoting. Falls back to the identity row
// if the system is singular (degenerate/duplicate training samples).
func gaussSolve(m [3][3]float64, v [3]float64) [3]float64 {
	var a [3][4]float64
	for i := 0; i < 3; i++ {
		copy(a[i][:3], m[i][:])
		a[i][3] = v[i]
	}
	for col := 0; col < 3; col++ {
		pivot := col
		for r := col + 1; r < 3; r++ {
			if abs(a[r][col]) > abs(a[pivot][col]) {
				pivot = r
			}
		}
		a[col], a[pivot] = a[pivot], a[col]
		if abs(a[col][col]) < 1e-9 {
			var fallback [3]float64
			fallback[col] = 1
			return fallback
		}
		inv := 1 / a[col][col]
		for k := 0; k < 4; k++ {
			a[col][k] *= inv
		}
		for r := 0; r < 3; r++ {
			if r == col {
				continue
			}
			factor := a[r][col]
			for k := 0; k < 4; k++ {
				a[r][k] -= factor * a[col][k]
			}
		}
	}
	return [3]float64{a[0][3], a[1][3], a[2][3]}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// Save writes the 9 matrix coefficients as big-endian float64s, the
// Go equivalent of DecoderPlus::save_ccm's flat binary dump, so a
// receiver doesn't need to refit the matrix every session.
func (c *ColorCorrector) Save(w io.Writer) error {
	var buf [8]byte
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			binary.BigEndian.PutUint64(buf[:], math.Float64bits(c.m[i][j]))
			if _, err := w.Write(buf[:]); err != nil {
				return fmt.Errorf("cimbar: ccm save: %w", err)
			}
		}
	}
	return nil
}

// Load reads a matrix previously written by Save.
func Load(r io.Reader) (*ColorCorrector, error) {
	c := &ColorCorrector{}
	var buf [8]byte
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if _, err := io.ReadFull(r, buf[:]); err != nil {
				return nil, fmt.Errorf("cimbar: ccm load: %w", err)
			}
			c.m[i][j] = math.Float64frombits(binary.BigEndian.Uint64(buf[:]))
		}
	}
	return c, nil
}
