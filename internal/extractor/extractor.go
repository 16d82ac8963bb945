package extractor

import (
	"image"
	"math"
)

// Extractor locates the anchor fiducials in a camera frame and
// rectifies it to the configured lattice size.
type Extractor struct {
	scanner *Scanner
	size    int
	padding int
}

// New builds an Extractor targeting destSize x destSize rectified
// output (plus padding), scanning every skipRows row.
func New(destSize, padding, skipRows int) *Extractor {
	return &Extractor{scanner: NewScanner(skipRows), size: destSize, padding: padding}
}

// Extract runs the full scan -> order -> secondary-confirm -> deskew
// pipeline on img.
func (e *Extractor) Extract(img *image.RGBA) (*image.RGBA, Result) {
	corners, ok := e.scanner.Scan(img)
	if !ok {
		return nil, Failure
	}

	boxRadius := math.Sqrt(dist(corners.TL, corners.TR))
	if br, found := e.scanner.ScanSecondary(img, corners.BR, boxRadius); found {
		corners.BR = br
	}

	return Deskew(img, corners, e.size, e.padding)
}
