package frame

import (
	"errors"
	"fmt"
	"image"

	"github.com/sz3/libcimbar-sub001/internal/codec"
	"github.com/sz3/libcimbar-sub001/internal/config"
	"github.com/sz3/libcimbar-sub001/internal/hash"
	"github.com/sz3/libcimbar-sub001/internal/lattice"
)

// ErrNotRectified is returned when the input image is not already
// image_size x image_size; the extractor is expected to have produced
// such an image before the reader sees it.
var ErrNotRectified = errors.New("cimbar: frame is not rectified to the configured image size")

// Reader drives the cell decoder over a rectified frame in flood-fill
// order, tracking drift per cell, and returns the decoded cells' bits
// from ReadFrame as a slice in logical (bitstream) order.
type Reader struct {
	cfg config.Config
	cat *codec.Catalog
	pos *lattice.Positions
	dec *codec.Decoder

	// fixedCCM marks a corrector installed by the caller (e.g. loaded
	// from a prior session's saved matrix) as authoritative: per-frame
	// bootstrapping must not overwrite it.
	fixedCCM bool
}

// NewReader builds a Reader over cfg, sharing the lattice/catalog
// tables with the writer side.
func NewReader(cfg config.Config, cat *codec.Catalog, pos *lattice.Positions, mode hash.Mode) *Reader {
	return &Reader{cfg: cfg, cat: cat, pos: pos, dec: codec.NewDecoder(cat, mode)}
}

// SetColorCorrector installs a fitted CCM on the underlying decoder,
// pinning it as the one ReadFrame's per-frame bootstrap must defer to
// instead of overwriting with a freshly fit one. Passing nil reverts
// to per-frame bootstrapping.
func (r *Reader) SetColorCorrector(ccm *codec.ColorCorrector) {
	r.dec.SetColorCorrector(ccm)
	r.fixedCCM = ccm != nil
}

// ColorCorrector returns the corrector currently installed on the
// decoder, whether pinned by the caller or fit from the most recently
// decoded frame, so a caller can persist it with ColorCorrector.Save.
func (r *Reader) ColorCorrector() *codec.ColorCorrector {
	return r.dec.ColorCorrector()
}

// ccmTrainingBytes is the leading span of the decoded bitstream (the
// fountain packet's header + block_id prefix, see
// internal/fountain.PacketOverhead) whose cells seed the color
// corrector: by the time these bytes are in hand, the decoder "hopefully"
// knows enough about the stream to fit a transform that applies
// uniformly across the rest of the frame, matching how the reference
// decoder bootstraps color correction from early fountain header bytes.
const ccmTrainingBytes = 8

// decodedCell is one cell's pass-one (symbol) result, kept around for
// pass two (color).
type decodedCell struct {
	cell   codec.Cell
	drift  lattice.Drift
	symbol int
}

// ReadFrame decodes every lattice cell of img and returns the payload
// bits in logical (bitstream) order, alongside the mean symbol
// confidence (average Hamming distance) for diagnostics.
//
// This is the real two-pass decode spec.md §4.5 describes: pass one
// walks the flood-fill order and recovers symbol bits and committed
// drift for every cell; pass two then decodes color bits for every
// cell from the raw image using those committed drifts, after
// bootstrapping a color corrector from the first ccmTrainingBytes
// bytes' provisional (uncorrected) classification, so the fitted
// correction applies uniformly to the whole frame rather than
// adapting cell by cell. codec.Decoder's single-pass Decode remains
// available as the coupled legacy fallback for callers that don't
// need this.
func (r *Reader) ReadFrame(img *image.RGBA) ([]int, float64, error) {
	size := r.cfg.ImageSize
	b := img.Bounds()
	if b.Dx() != size || b.Dy() != size {
		return nil, 0, fmt.Errorf("%w: got %dx%d, want %dx%d", ErrNotRectified, b.Dx(), b.Dy(), size, size)
	}

	total := r.pos.TotalCells()
	cells := make([]decodedCell, total)
	flood := lattice.NewFloodOrder(r.pos)

	var distSum int
	for {
		physical, hint, ok := flood.Next()
		if !ok {
			break
		}
		x, y := r.pos.PixelXY(physical)
		cell := codec.Cell{Pix: img.Pix, Stride: img.Stride, X0: x - 1, Y0: y - 1}
		symbol, drift, dist := r.dec.DecodeSymbol(cell, hint)

		logical := r.pos.Reverse(physical)
		cells[logical] = decodedCell{cell: cell, drift: drift, symbol: symbol}
		distSum += dist
		flood.Update(physical, drift, dist)
	}

	if !r.fixedCCM {
		r.bootstrapColorCorrector(cells)
	}

	logicalBits := make([]int, total)
	symbolBits := r.cfg.SymbolBits
	for logical, dc := range cells {
		colorIdx, _, _, _ := r.dec.DecodeColor(dc.cell, dc.drift)
		logicalBits[logical] = dc.symbol | (colorIdx << uint(symbolBits))
	}

	meanDist := float64(distSum) / float64(total)
	return logicalBits, meanDist, nil
}

// bootstrapColorCorrector fits a CCM from the first ccmTrainingBytes
// worth of cells' provisional (uncorrected) color classification, and
// installs it on the decoder for the color pass that follows. The
// "reference" half of each training sample is the palette RGB of
// whichever color index the raw, uncorrected observation already
// classifies closest to: a provisional guess good enough to bootstrap
// from even under a moderate color cast, per the hue-stable distance
// metric DecodeColor already applies.
func (r *Reader) bootstrapColorCorrector(cells []decodedCell) {
	trainCells := (ccmTrainingBytes*8 + r.cfg.BitsPerCell() - 1) / r.cfg.BitsPerCell()
	if trainCells > len(cells) {
		trainCells = len(cells)
	}

	var samples []codec.Sample
	for i := 0; i < trainCells; i++ {
		dc := cells[i]
		provisionalIdx, rawR, rawG, rawB := r.dec.DecodeColor(dc.cell, dc.drift)
		ref := r.cat.Color(provisionalIdx)
		samples = append(samples, codec.Sample{
			ObservedR: rawR, ObservedG: rawG, ObservedB: rawB,
			ReferenceR: float64(ref.R), ReferenceG: float64(ref.G), ReferenceB: float64(ref.B),
		})
	}

	r.dec.SetColorCorrector(codec.Fit(samples))
}
