package frame

import (
	"image"
	"image/draw"

	"github.com/sz3/libcimbar-sub001/internal/codec"
	"github.com/sz3/libcimbar-sub001/internal/config"
	"github.com/sz3/libcimbar-sub001/internal/lattice"
	"github.com/sz3/libcimbar-sub001/internal/pool"
)

// Writer composes a full cimbar frame: anchors, guides, and the
// lattice of encoded cells, in that order, matching CimbWriter's
// paste sequence.
type Writer struct {
	cfg      config.Config
	cat      *codec.Catalog
	enc      *codec.Encoder
	pos      *lattice.Positions
	anchorPx int
}

// NewWriter builds a Writer over cfg, sharing the immutable tile
// catalog and lattice tables (built once, read concurrently).
func NewWriter(cfg config.Config, cat *codec.Catalog, pos *lattice.Positions) *Writer {
	return &Writer{
		cfg:      cfg,
		cat:      cat,
		enc:      codec.NewEncoder(cat),
		pos:      pos,
		anchorPx: cfg.CornerPadding * cfg.CellSpacing,
	}
}

// WriteFrame paints one frame from the next cells.Capacity()/bits_per_cell
// symbol values a bit reader supplies. next is called once per lattice
// cell and must return the bits_per_cell-wide payload for that cell,
// in write order. The backing pixel buffer is drawn from the shared
// byte-slice pool and should be returned via ReleaseFrame once the
// caller is done with it (e.g. after display/encode).
func (w *Writer) WriteFrame(next func() int) *image.RGBA {
	size := w.cfg.ImageSize
	pix := pool.Get(size * size * 4)
	img := &image.RGBA{Pix: pix, Stride: size * 4, Rect: image.Rect(0, 0, size, size)}
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	w.paintAnchors(img)
	w.paintGuides(img)

	order := w.pos.WriteOrder()
	for _, p := range order {
		bits := next()
		tile := w.enc.Encode(bits)
		draw.Draw(img, image.Rect(p.X, p.Y, p.X+w.cfg.CellSize, p.Y+w.cfg.CellSize), tile, image.Point{}, draw.Src)
	}
	return img
}

// ReleaseFrame returns a frame's backing pixel buffer to the shared
// pool. The image must not be used again after this call.
func ReleaseFrame(img *image.RGBA) {
	pool.Put(img.Pix)
}

func (w *Writer) paintAnchors(img *image.RGBA) {
	size := w.cfg.ImageSize
	a := anchorBitmap(w.anchorPx)
	sa := secondaryAnchorBitmap(w.anchorPx)

	pasteGray(img, a, 0, 0)
	pasteGray(img, a, size-w.anchorPx, 0)
	pasteGray(img, a, 0, size-w.anchorPx)
	pasteGray(img, sa, size-w.anchorPx, size-w.anchorPx)
}

func (w *Writer) paintGuides(img *image.RGBA) {
	size := w.cfg.ImageSize
	length := 4 * w.cfg.CellSpacing
	thickness := w.cfg.CellSpacing

	hg := guideBitmap(length, thickness, true)
	vg := guideBitmap(length, thickness, false)

	mid := size/2 - length/2
	pasteGray(img, hg, mid, 0)
	pasteGray(img, hg, mid, size-thickness)
	pasteGray(img, vg, 0, mid)
	pasteGray(img, vg, size-thickness, mid)
}

func pasteGray(dst *image.RGBA, src *image.Gray, x0, y0 int) {
	b := src.Bounds()
	draw.Draw(dst, image.Rect(x0, y0, x0+b.Dx(), y0+b.Dy()), src, image.Point{}, draw.Src)
}
