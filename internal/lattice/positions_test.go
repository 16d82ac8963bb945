package lattice

import (
	"testing"

	"github.com/sz3/libcimbar-sub001/internal/config"
)

func TestTotalCellsMatchesConfig(t *testing.T) {
	cfg := config.Baseline()
	p := New(cfg)
	if p.TotalCells() != cfg.TotalCells() {
		t.Fatalf("TotalCells: got %d, want %d", p.TotalCells(), cfg.TotalCells())
	}
}

// TestInterleaveBijection is testable property #3: inv[fwd[i]] == i
// for all i in [0, total_cells).
func TestInterleaveBijection(t *testing.T) {
	p := New(config.Baseline())
	for i := 0; i < p.TotalCells(); i++ {
		physical := p.Forward(i)
		if p.Reverse(physical) != i {
			t.Fatalf("interleave not a bijection at i=%d: fwd=%d, rev(fwd)=%d", i, physical, p.Reverse(physical))
		}
	}
}

func TestFloodOrderVisitsEveryCellOnce(t *testing.T) {
	p := New(config.Baseline())
	f := NewFloodOrder(p)
	seen := make([]bool, p.TotalCells())
	count := 0
	for {
		idx, _, ok := f.Next()
		if !ok {
			break
		}
		if seen[idx] {
			t.Fatalf("cell %d visited twice", idx)
		}
		seen[idx] = true
		count++
		f.Update(idx, Drift{}, 0)
	}
	if count != p.TotalCells() {
		t.Fatalf("flood order visited %d cells, want %d", count, p.TotalCells())
	}
}
