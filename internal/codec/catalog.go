// Package codec implements the cimb tile encoder/decoder (C4, C5):
// mapping a bits_per_cell-wide value to a tile image and back, via a
// fixed symbol hash catalog and color palette built once from
// configuration.
package codec

import (
	"image"
	"image/color"

	"github.com/sz3/libcimbar-sub001/internal/config"
)

// palette is the baseline 8-entry RGB table mode B's color_bits index
// into (only the first 2^color_bits entries are used). Ordering
// follows cimbar's getColor table: black is never used as a tile
// background since it collides with the foreground ink color.
var palette = [8]color.RGBA{
	{0xff, 0x00, 0xff, 0xff}, // magenta
	{0x00, 0xff, 0xff, 0xff}, // cyan
	{0xff, 0xff, 0x00, 0xff}, // yellow
	{0x00, 0xff, 0x00, 0xff}, // green
	{0xff, 0x00, 0x00, 0xff}, // red
	{0x00, 0x00, 0xff, 0xff}, // blue
	{0xff, 0x80, 0x00, 0xff}, // orange
	{0xff, 0xff, 0xff, 0xff}, // white
}

// foreground is the tile's "ink" color: the bit-0 pixels of a symbol
// pattern always render at this darker shade, regardless of the
// background palette color, so the grayscale average-hash separates
// ink from background independent of hue.
var foreground = color.RGBA{0x10, 0x10, 0x10, 0xff}

// Catalog holds the immutable symbol-hash and color-palette tables
// built once from a Config. Catalog is safe for concurrent read-only
// use by multiple encoder/decoder instances.
type Catalog struct {
	cfg config.Config

	// symbolBits[s] is the 64-bit bilevel pattern (ideal average hash)
	// for symbol s, laid out row-major over an 8x8 tile.
	symbolBits []uint64

	numSymbols int
	numColors  int
}

// NewCatalog builds the symbol and color tables for cfg.
func NewCatalog(cfg config.Config) *Catalog {
	c := &Catalog{
		cfg:        cfg,
		numSymbols: 1 << uint(cfg.SymbolBits),
		numColors:  1 << uint(cfg.ColorBits),
	}
	c.symbolBits = make([]uint64, c.numSymbols)
	for s := 0; s < c.numSymbols; s++ {
		c.symbolBits[s] = symbolPattern(s)
	}
	return c
}

// symbolPattern deterministically generates a well-spread 64-bit
// bilevel pattern for symbol index s. There are no shipped tile
// bitmap assets in this port (the original ships PNG resources); the
// patterns here are procedurally generated but fixed for a given s,
// so encode and decode always agree.
func symbolPattern(s int) uint64 {
	// A simple splitmix64-style finalizer gives good avalanche so
	// adjacent symbol indices don't produce near-identical patterns
	// (which would make Hamming-distance matching ambiguous).
	x := uint64(s)*0x9e3779b97f4a7c15 + 0x9e3779b97f4a7c15
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// SymbolHash returns the ideal (noise-free) average hash for symbol s.
func (c *Catalog) SymbolHash(s int) uint64 {
	return c.symbolBits[s]
}

// SymbolHashes returns the full symbol catalog, indexed by symbol
// value, for use with hash.Match.
func (c *Catalog) SymbolHashes() []uint64 {
	return c.symbolBits
}

// NumSymbols is 2^symbol_bits.
func (c *Catalog) NumSymbols() int { return c.numSymbols }

// NumColors is 2^color_bits.
func (c *Catalog) NumColors() int { return c.numColors }

// Color returns the palette RGB for color index idx.
func (c *Catalog) Color(idx int) color.RGBA {
	return palette[idx%len(palette)]
}

// RenderSymbol paints an 8x8 tile for (symbol, colorIdx): background
// pixels (hash bit 1, brighter than the tile mean) take the palette
// color, foreground pixels (hash bit 0) take the fixed ink color.
func (c *Catalog) RenderSymbol(symbol, colorIdx int) *image.RGBA {
	pattern := c.symbolBits[symbol%c.numSymbols]
	bg := c.Color(colorIdx)
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	bit := uint(63)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if (pattern>>bit)&1 == 1 {
				img.SetRGBA(x, y, bg)
			} else {
				img.SetRGBA(x, y, foreground)
			}
			bit--
		}
	}
	return img
}
