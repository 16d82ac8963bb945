// Package camera is the capture-loop boundary: it hands the extractor
// a stream of RGBA frames pulled from a live video source, so the
// decode side can run against a physical air gap instead of files.
package camera

import "image"

// Frame is one captured image plus the sequence number it arrived at,
// for drop/duplicate diagnostics in the caller's decode loop.
type Frame struct {
	Image *image.RGBA
	Seq   uint64
}

// Stream is the capture-loop handle returned by Open: a channel of
// frames plus a way to tear the capture down.
type Stream struct {
	Frames <-chan Frame
	Close  func() error
}
