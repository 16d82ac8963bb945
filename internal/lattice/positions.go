// Package lattice enumerates the grid of tile positions a cimbar
// frame is built from: which (x, y) pixel cells are usable payload
// cells (as opposed to anchor-reserved corners), the interleave
// permutation that spreads consecutive bitstream symbols across
// spaced-apart cells, and the flood-fill order the decoder walks so
// drift estimates propagate from already-decoded neighbors.
package lattice

import "github.com/sz3/libcimbar-sub001/internal/config"

// Position is one lattice cell: its logical (interleaved) index and
// its pixel origin within the frame interior.
type Position struct {
	Index int
	X, Y  int
}

// Positions holds the full cell enumeration for a Config: the set of
// non-anchor (row, col) grid coordinates in raster order, their pixel
// origins, and the interleave forward/reverse tables mapping logical
// bitstream index to physical cell index and back.
type Positions struct {
	cfg config.Config

	// cells[i] is the i-th non-anchor cell in raster (row-major) scan
	// order; this is the "physical" cell index space.
	cells []cellCoord

	// fwd[logical] = physical cell index written to for that logical
	// position; rev is its inverse.
	fwd []int
	rev []int
}

type cellCoord struct {
	row, col int
}

// New builds the position tables for cfg. This is done once per
// session; the result is immutable and safe to share across threads.
func New(cfg config.Config) *Positions {
	p := &Positions{cfg: cfg}
	p.buildCells()
	p.buildInterleave()
	return p
}

// isAnchorCell reports whether (row, col) falls in one of the four
// corner_padding x corner_padding reserved squares.
func isAnchorCell(row, col, numCells, cornerPadding int) bool {
	inTop := row < cornerPadding
	inBottom := row >= numCells-cornerPadding
	inLeft := col < cornerPadding
	inRight := col >= numCells-cornerPadding
	return (inTop || inBottom) && (inLeft || inRight)
}

func (p *Positions) buildCells() {
	n := p.cfg.NumCells
	pad := p.cfg.CornerPadding
	p.cells = make([]cellCoord, 0, p.cfg.TotalCells())
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			if isAnchorCell(row, col, n, pad) {
				continue
			}
			p.cells = append(p.cells, cellCoord{row, col})
		}
	}
}

// buildInterleave splits [0, total_cells) into interleave_partitions
// contiguous partitions; within each partition, a block-strided
// permutation with stride interleave_blocks maps logical index to
// physical cell index, so consecutive bitstream symbols land on cells
// spread interleave_blocks apart within their partition.
func (p *Positions) buildInterleave() {
	total := len(p.cells)
	partitions := p.cfg.InterleavePartitions
	if partitions <= 0 {
		partitions = 1
	}
	blockStride := p.cfg.InterleaveBlocks
	if blockStride <= 0 {
		blockStride = 1
	}

	p.fwd = make([]int, total)
	p.rev = make([]int, total)

	base := 0
	for part := 0; part < partitions; part++ {
		size := total / partitions
		if part == partitions-1 {
			size = total - base // last partition absorbs the remainder
		}
		order := interleaveOrder(size, blockStride)
		for logicalOffset, physicalOffset := range order {
			logical := base + logicalOffset
			physical := base + physicalOffset
			p.fwd[logical] = physical
		}
		base += size
	}
	for logical, physical := range p.fwd {
		p.rev[physical] = logical
	}
}

// interleaveOrder returns a permutation of [0, size) such that walking
// it in order visits indices blocks apart, where blocks =
// ceil(size / blockStride): when size is a multiple of blockStride,
// position i in the permutation is (i % blockStride) * blocks +
// i / blockStride (otherwise out-of-range indices are skipped and
// later positions shift down). This is the classic block
// interleaver used to scatter a burst of contiguous input symbols
// across widely-separated output cells.
func interleaveOrder(size, blockStride int) []int {
	order := make([]int, 0, size)
	if size == 0 {
		return order
	}
	blocks := (size + blockStride - 1) / blockStride
	for b := 0; b < blocks; b++ {
		for s := 0; s < blockStride; s++ {
			idx := s*blocks + b
			if idx < size {
				order = append(order, idx)
			}
		}
	}
	return order
}

// TotalCells returns the number of usable (non-anchor) lattice cells.
func (p *Positions) TotalCells() int {
	return len(p.cells)
}

// Forward returns the physical cell index written to for logical
// bitstream position i.
func (p *Positions) Forward(i int) int {
	return p.fwd[i]
}

// Reverse returns the logical bitstream position that physical cell
// index i was written from.
func (p *Positions) Reverse(i int) int {
	return p.rev[i]
}

// PixelXY returns the pixel origin of physical cell index i within
// the frame interior.
func (p *Positions) PixelXY(physicalIndex int) (x, y int) {
	c := p.cells[physicalIndex]
	return c.col * p.cfg.CellSpacing, c.row * p.cfg.CellSpacing
}

// WriteOrder returns, for the encoder, the sequence of Positions in
// writer (logical) order: WriteOrder()[i] is where logical bitstream
// symbol i gets painted.
func (p *Positions) WriteOrder() []Position {
	out := make([]Position, p.TotalCells())
	for logical := 0; logical < p.TotalCells(); logical++ {
		physical := p.Forward(logical)
		x, y := p.PixelXY(physical)
		out[logical] = Position{Index: logical, X: x, Y: y}
	}
	return out
}
