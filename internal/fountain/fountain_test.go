package fountain

import (
	"bytes"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{EncodeID: 0x55, PayloadSize: 23586}
	wire := EncodeHeader(h)
	got, err := DecodeHeader(wire[:])
	if err != nil {
		t.Fatal(err)
	}
	if got != h {
		t.Fatalf("got %+v, want %+v", got, h)
	}
}

func TestHeaderTopBitReserved(t *testing.T) {
	// encode_id is 7 bits; the top bit of byte 0 must carry payload_size,
	// never part of encode_id.
	h := Header{EncodeID: 0x7f, PayloadSize: 1 << 24}
	wire := EncodeHeader(h)
	if wire[0]&0x80 == 0 {
		t.Fatal("expected high payload_size bit set in byte 0's top bit")
	}
	got, _ := DecodeHeader(wire[:])
	if got.EncodeID != 0x7f || got.PayloadSize != 1<<24 {
		t.Fatalf("got %+v", got)
	}
}

func TestStreamEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte("the LICENSE text would go here, but any byte string will do for this test")
	enc := NewEncoderStream(payload, 32, 7)

	var recovered []byte
	sink := NewSink(32-PacketOverhead, func(id Identity, data []byte) {
		recovered = data
	})

	for i := 0; i < enc.BlocksRequired(); i++ {
		done, err := sink.Feed(enc.Next())
		if err != nil {
			t.Fatal(err)
		}
		if done {
			break
		}
	}
	if !bytes.Equal(recovered, payload) {
		t.Fatalf("got %q, want %q", recovered, payload)
	}
}

// TestFeedDedupLeavesStreamAccumulating is testable property #11:
// feeding the same (stream, block_id) 40 times is a stable no-op.
func TestFeedDedupLeavesStreamAccumulating(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 500)
	enc := NewEncoderStream(payload, 32, 3)
	sink := NewSink(32-PacketOverhead, nil)

	first := enc.Packet(0)
	for i := 0; i < 40; i++ {
		done, err := sink.Feed(first)
		if err != nil {
			t.Fatal(err)
		}
		if done {
			t.Fatal("a single repeated block should never complete the stream")
		}
	}
	progress := sink.Progress()
	if len(progress) != 1 || progress[0].Fraction <= 0 || progress[0].Complete {
		t.Fatalf("unexpected progress state: %+v", progress)
	}
}

// TestSlotCollisionEvictsIncompleteStream is testable property #12:
// a 9th stream whose encode_id & 0x7 collides with an existing,
// incomplete stream evicts it and can itself complete.
func TestSlotCollisionEvictsIncompleteStream(t *testing.T) {
	sink := NewSink(32-PacketOverhead, nil)

	victim := NewEncoderStream(bytes.Repeat([]byte("a"), 2000), 32, 0) // slot 0
	// Feed only part of the victim's blocks, leaving it incomplete.
	for i := 0; i < victim.BlocksRequired()/2; i++ {
		if _, err := sink.Feed(victim.Next()); err != nil {
			t.Fatal(err)
		}
	}
	if p := sink.Progress(); len(p) != 1 || p[0].Complete {
		t.Fatalf("expected victim stream still accumulating, got %+v", p)
	}

	intruder := NewEncoderStream([]byte("short payload"), 32, 8) // 8 & 0x7 == 0, same slot
	var done bool
	for i := 0; i < intruder.BlocksRequired(); i++ {
		ok, err := sink.Feed(intruder.Next())
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			done = true
			break
		}
	}
	if !done {
		t.Fatal("intruder stream never completed after evicting the victim")
	}
	completed := sink.Completed()
	if len(completed) != 1 || completed[0].EncodeID != 8 {
		t.Fatalf("unexpected completion set: %+v", completed)
	}
}

// TestFeedRejectsFirstPacketWrongChunkSize confirms a sink configured
// with a fixed chunk size rejects even a slot's very first packet if
// its chunk length doesn't match, not just later packets within an
// already-established stream.
func TestFeedRejectsFirstPacketWrongChunkSize(t *testing.T) {
	enc := NewEncoderStream(bytes.Repeat([]byte("q"), 100), 32, 4)
	sink := NewSink(16, nil) // wrong chunk size: this stream's packets carry 32-PacketOverhead bytes

	if _, err := sink.Feed(enc.Next()); err == nil {
		t.Fatal("expected chunk_size mismatch error on the first packet for a new slot")
	}
}

func TestHeaderMismatchRejected(t *testing.T) {
	sink := NewSink(0, nil)
	if _, err := sink.Feed([]byte{0, 0}); err == nil {
		t.Fatal("expected an error for a too-short packet")
	}
}
