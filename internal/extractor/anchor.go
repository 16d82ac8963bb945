package extractor

// Anchor is one candidate fiducial hit: its center, the bounding
// square side length used to estimate hit "size", and the pixel area
// covered, used for top-3 selection.
type Anchor struct {
	Center Point
	Size   float64
}

func (a Anchor) area() float64 {
	return a.Size * a.Size
}

// isMergeable mirrors Anchor::is_mergeable: two hits are the same
// anchor if their sizes are within 60% of each other and their
// centers are closer than maxDistance.
func isMergeable(a, b Anchor, maxDistance float64) bool {
	if a.Size == 0 || b.Size == 0 {
		return false
	}
	ratio := a.Size / b.Size
	if ratio < 0.6 || ratio > 1/0.6 {
		return false
	}
	return dist(a.Center, b.Center) <= maxDistance*maxDistance
}

// mergeAnchors merges near-duplicate hits within maxDistance pixels:
// each not-yet-merged hit, together with every later hit mergeable
// with it, is replaced by one anchor at the cluster's mean center and
// mean size.
func mergeAnchors(hits []Anchor, maxDistance float64) []Anchor {
	merged := make([]Anchor, 0, len(hits))
	used := make([]bool, len(hits))
	for i, h := range hits {
		if used[i] {
			continue
		}
		sumX, sumY, sumSize, n := h.Center.X, h.Center.Y, h.Size, 1.0
		for j := i + 1; j < len(hits); j++ {
			if used[j] {
				continue
			}
			if isMergeable(h, hits[j], maxDistance) {
				used[j] = true
				sumX += hits[j].Center.X
				sumY += hits[j].Center.Y
				sumSize += hits[j].Size
				n++
			}
		}
		merged = append(merged, Anchor{
			Center: Point{sumX / n, sumY / n},
			Size:   sumSize / n,
		})
	}
	return merged
}

// topByArea returns up to n of the largest-area anchors.
func topByArea(hits []Anchor, n int) []Anchor {
	out := append([]Anchor(nil), hits...)
	// Simple selection sort; n and len(hits) are both tiny (scanner
	// output, not image pixels).
	for i := 0; i < len(out) && i < n; i++ {
		maxIdx := i
		for j := i + 1; j < len(out); j++ {
			if out[j].area() > out[maxIdx].area() {
				maxIdx = j
			}
		}
		out[i], out[maxIdx] = out[maxIdx], out[i]
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}
