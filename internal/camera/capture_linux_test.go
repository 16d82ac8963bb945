//go:build linux

package camera

import "testing"

func TestRGB24ToRGBA(t *testing.T) {
	width, height, stride := 2, 1, 6
	src := []byte{10, 20, 30, 40, 50, 60}
	img := rgb24ToRGBA(src, width, height, stride)
	if img == nil {
		t.Fatal("expected a converted image")
	}
	if r, g, b, a := img.RGBAAt(0, 0).R, img.RGBAAt(0, 0).G, img.RGBAAt(0, 0).B, img.RGBAAt(0, 0).A; r != 10 || g != 20 || b != 30 || a != 255 {
		t.Fatalf("pixel (0,0) = %d,%d,%d,%d", r, g, b, a)
	}
	if r, g, b := img.RGBAAt(1, 0).R, img.RGBAAt(1, 0).G, img.RGBAAt(1, 0).B; r != 40 || g != 50 || b != 60 {
		t.Fatalf("pixel (1,0) = %d,%d,%d", r, g, b)
	}
}

func TestRGB24ToRGBARejectsShortBuffer(t *testing.T) {
	if img := rgb24ToRGBA([]byte{1, 2, 3}, 4, 4, 12); img != nil {
		t.Fatal("expected nil for a buffer too short for the claimed dimensions")
	}
}
