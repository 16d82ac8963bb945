package frame

import (
	"testing"

	"github.com/sz3/libcimbar-sub001/internal/codec"
	"github.com/sz3/libcimbar-sub001/internal/config"
	"github.com/sz3/libcimbar-sub001/internal/hash"
	"github.com/sz3/libcimbar-sub001/internal/lattice"
)

// TestFrameRoundTrip exercises a small lattice (not the full baseline
// 1024px frame, to keep the test fast) through writer then reader and
// checks every cell's payload bits survive.
func smallConfig() config.Config {
	cfg := config.Baseline()
	cfg.NumCells = 16
	cfg.CornerPadding = 2
	cfg.ImageSize = cfg.NumCells * cfg.CellSpacing
	return cfg
}

func TestFrameRoundTrip(t *testing.T) {
	cfg := smallConfig()
	cat := codec.NewCatalog(cfg)
	pos := lattice.New(cfg)

	writer := NewWriter(cfg, cat, pos)
	reader := NewReader(cfg, cat, pos, hash.ALL)

	total := pos.TotalCells()
	want := make([]int, total)
	for i := range want {
		want[i] = i % (cat.NumSymbols() * cat.NumColors())
	}

	i := 0
	img := writer.WriteFrame(func() int {
		v := want[i]
		i++
		return v
	})

	got, _, err := reader.ReadFrame(img)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if len(got) != total {
		t.Fatalf("got %d cells, want %d", len(got), total)
	}
	mismatches := 0
	for idx := range want {
		if got[idx]&(cat.NumSymbols()-1) != want[idx]&(cat.NumSymbols()-1) {
			mismatches++
		}
	}
	if mismatches != 0 {
		t.Errorf("%d/%d cells decoded the wrong symbol", mismatches, total)
	}
}

func TestReaderRejectsUnrectifiedFrame(t *testing.T) {
	cfg := smallConfig()
	cat := codec.NewCatalog(cfg)
	pos := lattice.New(cfg)
	reader := NewReader(cfg, cat, pos, hash.FAST)

	writer := NewWriter(cfg, cat, pos)
	img := writer.WriteFrame(func() int { return 0 })
	img.Rect.Max.X-- // corrupt the dimensions

	if _, _, err := reader.ReadFrame(img); err == nil {
		t.Fatal("expected ErrNotRectified for a mis-sized frame")
	}
}
