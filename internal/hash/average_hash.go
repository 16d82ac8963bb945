// Package hash implements the fuzzy average-hash symbol classifier:
// given a grayscale tile window, produce a family of candidate 64-bit
// hashes under +/-1px drift, and match them against the codec's tile
// catalog by Hamming distance.
package hash

import "math/bits"

// Grayscale is a row-major 8-bit grayscale raster with an explicit
// stride, so callers can hash a sub-window of a larger image buffer
// without copying.
type Grayscale struct {
	Pix    []byte
	Stride int
}

// At returns the grayscale sample at (x, y).
func (g Grayscale) At(x, y int) byte {
	return g.Pix[y*g.Stride+x]
}

// AverageHash computes the 8x8 average hash of the window with
// top-left corner (x0, y0): the mean grayscale value is thresholded
// against every pixel in row-major order, emitting a 1 bit where the
// pixel exceeds the mean.
func AverageHash(g Grayscale, x0, y0 int) uint64 {
	var sum int
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			sum += int(g.At(x0+x, y0+y))
		}
	}
	mean := sum / 64

	var h uint64
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			h <<= 1
			if int(g.At(x0+x, y0+y)) > mean {
				h |= 1
			}
		}
	}
	return h
}

// HammingDistance is the popcount of the XOR of two hashes.
func HammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}
