package align

import (
	"bytes"
	"testing"
)

// TestAlignedStreamRecovery is testable property #9: with the 3rd and
// 4th increment-sized chunks marked bad, the sink sees chunks 1, 2, 5,
// 6, ... in order with no byte misalignment.
func TestAlignedStreamRecovery(t *testing.T) {
	const increment = 8
	chunk := func(n byte) []byte {
		b := make([]byte, increment)
		for i := range b {
			b[i] = n
		}
		return b
	}

	s := New(increment, 0)
	var seen [][]byte
	s.Sink = func(c []byte) {
		seen = append(seen, append([]byte(nil), c...))
	}

	if err := s.Write(chunk(1)); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(chunk(2)); err != nil {
		t.Fatal(err)
	}
	s.MarkBad(increment)
	s.MarkBad(increment)
	if err := s.Write(chunk(5)); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(chunk(6)); err != nil {
		t.Fatal(err)
	}

	if len(seen) != 4 {
		t.Fatalf("got %d flushed chunks, want 4", len(seen))
	}
	want := [][]byte{chunk(1), chunk(2), chunk(5), chunk(6)}
	for i := range want {
		if !bytes.Equal(seen[i], want[i]) {
			t.Errorf("chunk %d: got %v, want %v", i, seen[i], want[i])
		}
	}
}

func TestHeaderPassthrough(t *testing.T) {
	s := New(4, 2)
	var chunks []byte
	s.Sink = func(c []byte) {
		chunks = append(chunks, c...)
	}

	if err := s.Write([]byte{0xaa, 0xbb, 1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(chunks, []byte{0xaa, 0xbb, 1, 2, 3, 4}) {
		t.Fatalf("got %v", chunks)
	}
}

func TestBadChunkDuringHeaderIsPermanentlyBad(t *testing.T) {
	s := New(4, 2)
	s.MarkBad(2)
	if !s.Bad() {
		t.Fatal("expected stream to be permanently bad")
	}
	if err := s.Write([]byte{1, 2, 3, 4}); err == nil {
		t.Fatal("expected writes to a permanently bad stream to fail")
	}
}
