package xfer

import (
	"bytes"
	"testing"

	"github.com/sz3/libcimbar-sub001/internal/config"
	"github.com/sz3/libcimbar-sub001/internal/frame"
)

// smallConfig shrinks every lattice/RS dimension down to sizes a unit
// test can afford, while keeping every ratio (anchor padding, RS
// parity fraction) structurally the same as the baseline.
func smallConfig() config.Config {
	return config.Config{
		SymbolBits:             4,
		ColorBits:              2,
		EccBytes:               4,
		EccBlockSize:           20,
		CellSize:               8,
		CellSpacing:            9,
		NumCells:               40,
		CornerPadding:          3,
		InterleaveBlocks:       20,
		InterleavePartitions:   2,
		ImageSize:              40 * 9,
		FountainChunksPerFrame: 2,
		CompressionLevel:       0,
		ColorMode:              1,
	}
}

func TestEncodeSimpleDecodeSimpleRoundTrip(t *testing.T) {
	cfg := smallConfig()
	sess, err := NewSession(cfg)
	if err != nil {
		t.Fatal(err)
	}

	payload := []byte("hello, this is a short fixed payload for the simple path")
	frames, err := EncodeSimple(sess, payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) == 0 {
		t.Fatal("expected at least one frame")
	}

	got, err := DecodeSimple(sess, frames, false, false)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(got, payload) {
		t.Fatalf("got %q, want a payload starting with %q", got, payload)
	}

	for _, img := range frames {
		frame.ReleaseFrame(img)
	}
}

func TestEncodeFountainFeedsSinkToCompletion(t *testing.T) {
	cfg := smallConfig()
	sess, err := NewSession(cfg)
	if err != nil {
		t.Fatal(err)
	}

	payload := bytes.Repeat([]byte("fountain-round-trip-data "), 20)
	enc, err := NewFountainEncoder(sess, payload, 5)
	if err != nil {
		t.Fatal(err)
	}

	dec, err := NewDecoder(sess, false, false)
	if err != nil {
		t.Fatal(err)
	}

	blocksPerFrame := cfg.FountainChunksPerFrame
	framesNeeded := (enc.BlocksRequired() + blocksPerFrame - 1) / blocksPerFrame
	for i := 0; i < framesNeeded+2; i++ {
		img, err := enc.NextFrame()
		if err != nil {
			t.Fatal(err)
		}
		if _, err := dec.FeedFrame(img); err != nil {
			t.Fatal(err)
		}
		frame.ReleaseFrame(img)
		if len(dec.Completed()) > 0 {
			break
		}
	}

	completed := dec.Completed()
	if len(completed) != 1 {
		t.Fatalf("expected exactly one completed stream, got %d", len(completed))
	}
	for _, data := range completed {
		if !bytes.Equal(data, payload) {
			t.Fatalf("recovered %d bytes, want %d matching bytes", len(data), len(payload))
		}
	}
}
