package codec

import (
	"github.com/sz3/libcimbar-sub001/internal/hash"
	"github.com/sz3/libcimbar-sub001/internal/lattice"
)

// Cell is a 10x10 RGBA window (an 8x8 tile plus a 1px border on every
// side) the decoder samples from a rectified frame. It owns no pixel
// data; it is a view into the frame's flat buffer, per the "no
// pointer-heavy framebuffers" redesign guidance.
type Cell struct {
	Pix    []byte // RGBA, row-major
	Stride int    // bytes per row
	X0, Y0 int     // top-left of the 10x10 window within the frame
}

// rgbAt returns the RGB triple at local (x, y) within the cell window.
// Coordinates that fall outside the frame (the border of a cell on the
// frame's edge) are clamped to the nearest edge pixel.
func (c Cell) rgbAt(x, y int) (r, g, b int) {
	px, py := c.X0+x, c.Y0+y
	if w := c.Stride / 4; px >= w {
		px = w - 1
	}
	if h := len(c.Pix) / c.Stride; py >= h {
		py = h - 1
	}
	if px < 0 {
		px = 0
	}
	if py < 0 {
		py = 0
	}
	off := py*c.Stride + px*4
	return int(c.Pix[off]), int(c.Pix[off+1]), int(c.Pix[off+2])
}

// Grayscale returns the cell's 10x10 luminance raster for hashing.
func (c Cell) Grayscale() hash.Grayscale {
	pix := make([]byte, 100)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			r, g, b := c.rgbAt(x, y)
			pix[y*10+x] = byte((r + g + b) / 3)
		}
	}
	return hash.Grayscale{Pix: pix, Stride: 10}
}

// meanRGBCrop averages RGB over a (size x size) square centered on
// the drift-adjusted cell origin, mirroring Cell::mean_rgb's 6x6
// center crop used for color decode (skips the 1px hash border).
func (c Cell) meanRGBCrop(drift lattice.Drift, size int) (r, g, b float64) {
	inset := (8 - size) / 2
	x0 := 1 + drift.DX + inset
	y0 := 1 + drift.DY + inset
	var sr, sg, sb int
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			pr, pg, pb := c.rgbAt(x0+x, y0+y)
			sr += pr
			sg += pg
			sb += pb
		}
	}
	n := float64(size * size)
	return float64(sr) / n, float64(sg) / n, float64(sb) / n
}

// Decoder recovers (bits, drift, hamming_distance) from a rectified
// cell window, optionally applying a fitted color-correction matrix.
type Decoder struct {
	cat  *Catalog
	ccm  *ColorCorrector
	mode hash.Mode
}

// NewDecoder builds a Decoder over cat. mode selects FAST or ALL
// drift-window coverage for the symbol hash match.
func NewDecoder(cat *Catalog, mode hash.Mode) *Decoder {
	return &Decoder{cat: cat, mode: mode}
}

// SetColorCorrector installs a fitted 3x3 color-correction matrix
// (see ColorCorrector); passing nil disables correction.
func (d *Decoder) SetColorCorrector(ccm *ColorCorrector) {
	d.ccm = ccm
}

// ColorCorrector returns the currently installed corrector, or nil if
// color decode is running uncorrected.
func (d *Decoder) ColorCorrector() *ColorCorrector {
	return d.ccm
}

// DecodeSymbol recovers just the symbol bits, committed drift, and
// Hamming distance (symbol confidence) for one cell. It is pass one of
// the two-pass reader: the color pass runs separately, once every
// cell's drift has been committed, via DecodeColor.
func (d *Decoder) DecodeSymbol(c Cell, driftHint lattice.Drift) (symbol int, drift lattice.Drift, errDistance int) {
	gray := c.Grayscale()
	candidates := hash.FuzzyAHash(gray, d.mode)
	symbol, offset, dist := hash.Match(candidates, d.cat.SymbolHashes())
	drift = lattice.DriftAt(offset)
	return symbol, drift, dist
}

// DecodeColor recovers the color bits for a cell at its already
// committed drift, applying the installed color corrector (if any).
// It also returns the raw, uncorrected mean RGB sampled from the
// cell's center crop, for callers that want to fit a corrector from
// this same observation before color decode has been finalized.
func (d *Decoder) DecodeColor(c Cell, drift lattice.Drift) (colorIdx int, rawR, rawG, rawB float64) {
	rawR, rawG, rawB = c.meanRGBCrop(drift, 6)
	r, g, b := rawR, rawG, rawB
	if d.ccm != nil {
		r, g, b = d.ccm.Apply(r, g, b)
	}
	r, g, b = normalizeColor(r, g, b)
	colorIdx = d.bestColor(r, g, b)
	return colorIdx, rawR, rawG, rawB
}

// Decode is the legacy coupled single-pass decode: symbol and color
// bits recovered from the same cell observation in one step, with no
// opportunity to bootstrap a color corrector from this frame's own
// early cells before decoding the rest of it. It is kept for
// interleave_blocks == 0 configurations and other callers that don't
// need the two-pass CCM bootstrap Reader.ReadFrame performs. The
// returned value is the combined bits_per_cell-wide payload: color
// bits shifted left by symbol_bits, OR'd with the symbol bits.
func (d *Decoder) Decode(c Cell, driftHint lattice.Drift) (bits int, drift lattice.Drift, errDistance int) {
	symbol, drift, dist := d.DecodeSymbol(c, driftHint)
	colorIdx, _, _, _ := d.DecodeColor(c, drift)
	bits = symbol | (colorIdx << symbolBitsOf(d.cat))
	return bits, drift, dist
}

func symbolBitsOf(cat *Catalog) int {
	return cat.cfg.SymbolBits
}

// normalizeColor subtracts the channel minimum and rescales to 255
// over (max-min), decoupling the observed luminance from hue so dim
// or overexposed captures still classify correctly.
func normalizeColor(r, g, b float64) (float64, float64, float64) {
	min := r
	if g < min {
		min = g
	}
	if b < min {
		min = b
	}
	max := r
	if g > max {
		max = g
	}
	if b > max {
		max = b
	}
	span := max - min
	if span < 1 {
		return r, g, b
	}
	scale := 255 / span
	return (r - min) * scale, (g - min) * scale, (b - min) * scale
}

// relativeColor computes the hue-stable (r-g, g-b, b-r) difference
// triple used by the color-distance metric; this is invariant to
// uniform brightness scaling, only sensitive to hue.
func relativeColor(r, g, b float64) (rg, gb, br float64) {
	return r - g, g - b, b - r
}

// colorDistance is the squared sum of differences between two
// relative-color triples.
func colorDistance(r1, g1, b1, r2, g2, b2 float64) float64 {
	rg1, gb1, br1 := relativeColor(r1, g1, b1)
	rg2, gb2, br2 := relativeColor(r2, g2, b2)
	d := (rg1 - rg2)
	e := (gb1 - gb2)
	f := (br1 - br2)
	return d*d + e*e + f*f
}

// bestColor returns the argmin palette index under colorDistance.
func (d *Decoder) bestColor(r, g, b float64) int {
	best := 0
	bestDist := -1.0
	for i := 0; i < d.cat.numColors; i++ {
		p := d.cat.Color(i)
		dist := colorDistance(r, g, b, float64(p.R), float64(p.G), float64(p.B))
		if bestDist < 0 || dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	return best
}
