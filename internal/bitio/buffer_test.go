package bitio

import "testing"

func TestBufferRoundTrip(t *testing.T) {
	cases := []struct {
		value    uint32
		bitIndex int
		bitCount int
	}{
		{0x1, 0, 1},
		{0xff, 0, 8},
		{0xabc, 3, 12},
		{0xffffffff, 0, 32},
		{0x5a5a5a5a, 17, 32},
		{0, 100, 1},
	}
	for _, c := range cases {
		b := NewBuffer(32)
		b.Write(c.value, c.bitIndex, c.bitCount)
		got := b.Read(c.bitIndex, c.bitCount)
		want := c.value & mask32(c.bitCount)
		if got != want {
			t.Errorf("Write/Read(%#x, %d, %d): got %#x, want %#x", c.value, c.bitIndex, c.bitCount, got, want)
		}
	}
}

func TestBufferAdditiveWrite(t *testing.T) {
	b := NewBuffer(8)
	b.Write(0xf, 0, 4)
	b.Write(0x3, 4, 4)
	if got := b.Read(0, 8); got != 0xf3 {
		t.Errorf("adjacent writes: got %#x, want 0xf3", got)
	}
}

func TestBufferGrows(t *testing.T) {
	b := NewBuffer(1)
	b.Write(0x1, 100000, 1)
	if got := b.Read(100000, 1); got != 1 {
		t.Errorf("growth write/read: got %d, want 1", got)
	}
}

func TestWriterSequentialCursor(t *testing.T) {
	w := NewWriter(8)
	w.WriteBits(0xa, 4)
	w.WriteBits(0x5, 4)
	got := w.Bytes()
	if len(got) != 1 || got[0] != 0xa5 {
		t.Errorf("sequential writer: got %x, want [a5]", got)
	}
}
