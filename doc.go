// Package cimbar implements a cimbar-style optical barcode codec for
// transferring files across an air gap: a sender renders a file as a
// sequence of color-coded tile frames, and a receiver photographs or
// screen-captures those frames back into the original bytes.
//
// The wire pipeline is compress (zstd) -> fountain encode -> Reed-
// Solomon encode -> bit pack into a tile lattice -> frame image, and
// the inverse on receive: anchor-scan and deskew the captured frame,
// decode tiles back to bits, Reed-Solomon decode, realign, fountain
// decode, and decompress.
//
// See cmd/cimbar for the command-line interface and the internal/
// packages for the individual pipeline stages.
package cimbar

// Version is the codec's on-wire format version, bumped whenever the
// packet header layout or tile catalog ordering changes in a way that
// breaks compatibility with previously rendered frames.
const Version = "1.0.0"
