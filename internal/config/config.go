// Package config holds the session-scoped tuning knobs for the cimbar
// codec, extractor and transport layers. There is no global registry:
// a Config is built once and passed by value into every component
// constructor.
package config

// Config mirrors the baseline "mode B" configuration surface. Fields
// are exported so callers can override individual knobs (tests in
// particular build non-baseline configs for RS/ecc regression cases).
type Config struct {
	SymbolBits int // bits carried by the tile symbol (catalog size 2^SymbolBits)
	ColorBits  int // bits carried by the tile color (palette size 2^ColorBits)

	EccBytes     int // parity bytes per RS block
	EccBlockSize int // total RS block size (data + parity)

	CellSize    int // tile side, px
	CellSpacing int // tile stride, px (cell_size + gap)
	NumCells    int // lattice side, in cells
	CornerPadding int // anchor-reserved cells per corner

	InterleaveBlocks     int
	InterleavePartitions int

	ImageSize int // frame side, px

	FountainChunksPerFrame int
	CompressionLevel       int // zstd level; 0 disables compression

	// ColorMode selects the palette/tile-catalog ordering. Only mode 1
	// (the baseline ordering) has populated tables; see DESIGN.md's
	// "Config modes 4/66/67/68" open-question resolution.
	ColorMode int
}

// Baseline returns the "mode B" configuration from the external
// interface table: symbol_bits=4, color_bits=2, ecc_bytes=30,
// ecc_block_size=155, cell_size=8, cell_spacing=9, num_cells=112,
// corner_padding=6, interleave_blocks=155, interleave_partitions=4,
// image_size=1024, fountain_chunks_per_frame=10, compression_level=6.
func Baseline() Config {
	return Config{
		SymbolBits:             4,
		ColorBits:              2,
		EccBytes:               30,
		EccBlockSize:           155,
		CellSize:               8,
		CellSpacing:            9,
		NumCells:               112,
		CornerPadding:          6,
		InterleaveBlocks:       155,
		InterleavePartitions:   4,
		ImageSize:              1024,
		FountainChunksPerFrame: 10,
		CompressionLevel:       6,
		ColorMode:              1,
	}
}

// BitsPerCell is the total number of payload bits one tile carries.
func (c Config) BitsPerCell() int {
	return c.SymbolBits + c.ColorBits
}

// EccDataBytes is the number of data (non-parity) bytes per RS block.
func (c Config) EccDataBytes() int {
	return c.EccBlockSize - c.EccBytes
}

// TotalCells is the number of lattice positions usable for encoded
// cells once the four anchor corners are excluded: num_cells^2 -
// 4*corner_padding^2.
func (c Config) TotalCells() int {
	return c.NumCells*c.NumCells - 4*c.CornerPadding*c.CornerPadding
}

// Capacity is the number of whole bits the lattice can carry per frame.
func (c Config) Capacity() int {
	return c.TotalCells() * c.BitsPerCell()
}

// CapacityBytes is Capacity rounded down to a whole byte count.
func (c Config) CapacityBytes() int {
	return c.Capacity() / 8
}

// FountainChunkSize mirrors cimbar::Config::fountain_chunk_size: the
// per-frame payload capacity (the data bytes of the whole RS blocks
// that fit in one frame), divided evenly across
// fountain_chunks_per_frame packets.
func (c Config) FountainChunkSize() int {
	blocks := c.CapacityBytes() / c.EccBlockSize
	perFrame := blocks * c.EccDataBytes() / c.FountainChunksPerFrame
	return perFrame
}
