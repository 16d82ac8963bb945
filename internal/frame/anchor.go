// Package frame composes and decomposes whole cimbar frames: painting
// anchors, guides and the encoded lattice onto a blank image (the
// writer), and driving the tile decoder over a rectified image in
// flood-fill order (the reader).
package frame

import (
	"image"
	"image/color"
)

// anchorBitmap renders the 1:1:4:1:1 concentric-square primary
// fiducial at side-length size, alternating dark/light rings in the
// 1:1:4:1:1 ratio (so the extractor's run-length scanner finds it).
func anchorBitmap(size int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	unit := float64(size) / 8 // 1+1+4+1+1 = 8 units
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetGray(x, y, ringColor(x, y, size, unit))
		}
	}
	return img
}

func ringColor(x, y, size int, unit float64) color.Gray {
	cx, cy := float64(size)/2, float64(size)/2
	dx, dy := absF(float64(x)+0.5-cx), absF(float64(y)+0.5-cy)
	d := maxF(dx, dy) // Chebyshev distance -> concentric squares
	ring := int(d / unit)
	// Radial band edges at 2 and 3 units: a dark core out to 2 units, a
	// light ring from 2 to 3, a dark ring from 3 to 4, so a line through
	// the center crosses dark-light-dark-light-dark runs of 1:1:4:1:1.
	switch {
	case ring < 2:
		return color.Gray{Y: 0}
	case ring < 3:
		return color.Gray{Y: 255}
	default:
		return color.Gray{Y: 0}
	}
}

// secondaryAnchorBitmap renders the 1:2:2:1 fiducial used at the
// frame's fourth (bottom-right) corner.
func secondaryAnchorBitmap(size int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	unit := float64(size) / 6 // 1+2+2+1 = 6 units
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			cx, cy := float64(size)/2, float64(size)/2
			dx, dy := absF(float64(x)+0.5-cx), absF(float64(y)+0.5-cy)
			d := maxF(dx, dy)
			ring := int(d / unit)
			switch {
			case ring < 1:
				img.SetGray(x, y, color.Gray{Y: 0})
			case ring < 3:
				img.SetGray(x, y, color.Gray{Y: 255})
			case ring < 5:
				img.SetGray(x, y, color.Gray{Y: 0})
			default:
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

// guideBitmap renders a short linear bitmap (alternating bars) used
// on each side of the frame for rotational disambiguation.
func guideBitmap(length, thickness int, horizontal bool) *image.Gray {
	w, h := length, thickness
	if !horizontal {
		w, h = thickness, length
	}
	img := image.NewGray(image.Rect(0, 0, w, h))
	bar := length / 6
	if bar < 1 {
		bar = 1
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pos := x
			if !horizontal {
				pos = y
			}
			v := byte(0)
			if (pos/bar)%2 == 0 {
				v = 255
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func absF(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
