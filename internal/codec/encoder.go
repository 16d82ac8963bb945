package codec

import "image"

// Encoder maps a bits_per_cell-wide value to a tile image: the low
// symbol_bits select the symbol pattern, the remaining color_bits
// select the palette tint.
type Encoder struct {
	cat *Catalog
}

// NewEncoder builds an Encoder over cat.
func NewEncoder(cat *Catalog) *Encoder {
	return &Encoder{cat: cat}
}

// Encode renders the tile for bits.
func (e *Encoder) Encode(bits int) *image.RGBA {
	symbolMask := e.cat.numSymbols - 1
	colorMask := e.cat.numColors - 1
	symbol := bits & symbolMask
	colorIdx := (bits >> e.cat.cfg.SymbolBits) & colorMask
	return e.cat.RenderSymbol(symbol, colorIdx)
}
