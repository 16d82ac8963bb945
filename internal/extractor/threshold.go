package extractor

import "image"

// toGray converts an RGBA image to a flat grayscale buffer using the
// mean of the three channels, matching the decoder's own grayscale
// conversion so scanner and tile-reader agree on "bright" vs "dark".
func toGray(img *image.RGBA) (pix []byte, w, h int) {
	b := img.Bounds()
	w, h = b.Dx(), b.Dy()
	pix = make([]byte, w*h)
	for y := 0; y < h; y++ {
		rowOff := y * img.Stride
		for x := 0; x < w; x++ {
			off := rowOff + x*4
			pix[y*w+x] = byte((int(img.Pix[off]) + int(img.Pix[off+1]) + int(img.Pix[off+2])) / 3)
		}
	}
	return pix, w, h
}

// otsuThreshold computes the Otsu binarization threshold for a
// grayscale histogram: the threshold maximizing inter-class variance
// between the "bright" and "dark" pixel populations. It is the only
// threshold the scanner uses; there is no separate adaptive path for
// uneven lighting.
func otsuThreshold(pix []byte) byte {
	var hist [256]int
	for _, p := range pix {
		hist[p]++
	}
	total := len(pix)
	var sum float64
	for i, c := range hist {
		sum += float64(i * c)
	}
	var sumB, wB float64
	var maxVar float64
	threshold := byte(128)
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > maxVar {
			maxVar = between
			threshold = byte(t)
		}
	}
	return threshold
}

// binarize returns true where pix[i] counts as "bright" under t.
func binarize(pix []byte, t byte) []bool {
	out := make([]bool, len(pix))
	for i, p := range pix {
		out[i] = p > t
	}
	return out
}
