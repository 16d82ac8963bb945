package codec

import (
	"bytes"
	"testing"

	"github.com/sz3/libcimbar-sub001/internal/config"
	"github.com/sz3/libcimbar-sub001/internal/hash"
	"github.com/sz3/libcimbar-sub001/internal/lattice"
)

func cellFromTile(tileRGBA []byte, w int) Cell {
	// Build a 10x10 RGBA buffer with a uniform 1px border matching the
	// tile's own edge color, so the hash/crop windows see a clean tile.
	stride := (w + 2) * 4
	pix := make([]byte, stride*(w+2))
	for y := 0; y < w+2; y++ {
		for x := 0; x < w+2; x++ {
			sx, sy := x-1, y-1
			if sx < 0 {
				sx = 0
			}
			if sy < 0 {
				sy = 0
			}
			if sx >= w {
				sx = w - 1
			}
			if sy >= w {
				sy = w - 1
			}
			srcOff := (sy*w + sx) * 4
			dstOff := y*stride + x*4
			copy(pix[dstOff:dstOff+4], tileRGBA[srcOff:srcOff+4])
		}
	}
	return Cell{Pix: pix, Stride: stride, X0: 0, Y0: 0}
}

// TestTileRoundTrip is testable property #4: a pristine rendered tile
// decodes to the same bits with hamming_distance == 0 and the center
// drift offset.
func TestTileRoundTrip(t *testing.T) {
	cfg := config.Baseline()
	cat := NewCatalog(cfg)
	enc := NewEncoder(cat)
	dec := NewDecoder(cat, hash.ALL)

	for bits := 0; bits < cat.NumSymbols()*cat.NumColors(); bits++ {
		img := enc.Encode(bits)
		cell := cellFromTile(img.Pix, 8)
		got, drift, dist := dec.Decode(cell, lattice.Drift{})
		if dist != 0 {
			t.Fatalf("bits=%d: hamming distance %d, want 0", bits, dist)
		}
		if drift != (lattice.Drift{}) {
			t.Fatalf("bits=%d: drift %+v, want center (0,0)", bits, drift)
		}
		if got&(cat.NumSymbols()-1) != bits&(cat.NumSymbols()-1) {
			t.Fatalf("bits=%d: symbol mismatch, got %d", bits, got)
		}
	}
}

func TestCCMIdentitySaveLoad(t *testing.T) {
	ccm := Identity()
	var buf bytes.Buffer
	if err := ccm.Save(&buf); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(&buf)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	r, g, b := loaded.Apply(10, 20, 30)
	if r != 10 || g != 20 || b != 30 {
		t.Fatalf("identity round trip: got (%v,%v,%v)", r, g, b)
	}
}

func TestCCMFitRecoversLinearMap(t *testing.T) {
	// Reference = 2x observed, independently per channel.
	samples := []Sample{
		{ObservedR: 10, ObservedG: 0, ObservedB: 0, ReferenceR: 20, ReferenceG: 0, ReferenceB: 0},
		{ObservedR: 0, ObservedG: 10, ObservedB: 0, ReferenceR: 0, ReferenceG: 20, ReferenceB: 0},
		{ObservedR: 0, ObservedG: 0, ObservedB: 10, ReferenceR: 0, ReferenceG: 0, ReferenceB: 20},
	}
	ccm := Fit(samples)
	r, g, b := ccm.Apply(5, 5, 5)
	if r != 10 || g != 10 || b != 10 {
		t.Fatalf("fit did not recover 2x scaling: got (%v,%v,%v)", r, g, b)
	}
}
