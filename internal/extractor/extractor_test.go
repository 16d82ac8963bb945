package extractor

import "testing"

func TestScanStateMatchesCleanRatio(t *testing.T) {
	sm := NewScanState(primaryRatio)
	// Runs of widths 2,2,8,2,2 (exact 1:1:4:1:1 ratio), alternating
	// polarity starting bright.
	widths := []int{2, 2, 8, 2, 2}
	bright := true
	matched := false
	for _, w := range widths {
		for i := 0; i < w; i++ {
			if sm.Feed(bright) {
				matched = true
			}
		}
		bright = !bright
	}
	// Feed one more run to force the 5th run to close out and evaluate.
	for i := 0; i < 2; i++ {
		if sm.Feed(bright) {
			matched = true
		}
	}
	if !matched {
		t.Fatal("expected a clean 1:1:4:1:1 run sequence to match")
	}
}

func TestIsMergeableRejectsDistantOrDifferentSizedHits(t *testing.T) {
	a := Anchor{Center: Point{0, 0}, Size: 10}
	near := Anchor{Center: Point{1, 1}, Size: 10}
	far := Anchor{Center: Point{1000, 1000}, Size: 10}
	tinySize := Anchor{Center: Point{1, 1}, Size: 1}

	if !isMergeable(a, near, 50) {
		t.Error("expected near, same-size hits to merge")
	}
	if isMergeable(a, far, 50) {
		t.Error("expected distant hits not to merge")
	}
	if isMergeable(a, tinySize, 50) {
		t.Error("expected very differently sized hits not to merge")
	}
}

func TestOrderCornersIsConsistent(t *testing.T) {
	tlAnchor := Anchor{Center: Point{0, 0}, Size: 10}
	trAnchor := Anchor{Center: Point{100, 0}, Size: 10}
	blAnchor := Anchor{Center: Point{0, 100}, Size: 10}

	tl, tr, bl := orderCorners(trAnchor, blAnchor, tlAnchor)
	if tl.Center != tlAnchor.Center {
		t.Fatalf("expected TL at origin, got %+v", tl.Center)
	}
	if tr.Center != trAnchor.Center || bl.Center != blAnchor.Center {
		t.Fatalf("TR/BL swapped: tr=%+v bl=%+v", tr.Center, bl.Center)
	}
}

func TestSolveHomographyIdentityMapping(t *testing.T) {
	src := [4]Point{{0, 0}, {10, 0}, {0, 10}, {10, 10}}
	dst := src
	h := solveHomography(src, dst)
	for _, p := range src {
		got := h.apply(p)
		if absF(got.X-p.X) > 1e-6 || absF(got.Y-p.Y) > 1e-6 {
			t.Errorf("identity mapping failed at %+v: got %+v", p, got)
		}
	}
}
