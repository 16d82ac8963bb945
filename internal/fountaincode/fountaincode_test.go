package fountaincode

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestSystematicOnlyRoundTrip(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog, repeatedly, many times over")
	chunkSize := 8
	enc := NewEncoder(payload, chunkSize)
	dec := NewDecoder(len(payload), chunkSize)

	for i := 0; i < enc.K(); i++ {
		dec.Feed(i, enc.Encode(i))
	}
	if !dec.Done() {
		t.Fatal("expected systematic-only feed to complete the stream")
	}
	if !bytes.Equal(dec.Payload(), payload) {
		t.Fatalf("payload mismatch:\ngot  %q\nwant %q", dec.Payload(), payload)
	}
}

// TestFountainRecoveryWithDroppedSystematicBlocks is testable property
// #10 in miniature: feeding distinct blocks in id order (stopping at
// 20x blocks_required), skipping every third systematic one and
// relying on parity blocks to fill the gaps, still reconstructs the
// exact payload.
func TestFountainRecoveryWithDroppedSystematicBlocks(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	payload := make([]byte, 2000)
	r.Read(payload)

	chunkSize := 64
	enc := NewEncoder(payload, chunkSize)
	dec := NewDecoder(len(payload), chunkSize)

	blockID := 0
	for !dec.Done() && blockID < enc.BlocksRequired()*20 {
		// Drop every 3rd systematic block on the first pass to force
		// reliance on parity blocks.
		if blockID < enc.K() && blockID%3 == 0 {
			blockID++
			continue
		}
		dec.Feed(blockID, enc.Encode(blockID))
		blockID++
	}
	if !dec.Done() {
		t.Fatalf("decoder did not converge after %d blocks", blockID)
	}
	if !bytes.Equal(dec.Payload(), payload) {
		t.Fatal("recovered payload does not match original")
	}
}

func TestFeedDedup(t *testing.T) {
	payload := []byte("0123456789abcdef")
	enc := NewEncoder(payload, 4)
	dec := NewDecoder(len(payload), 4)

	dec.Feed(0, enc.Encode(0))
	for i := 0; i < 40; i++ {
		dec.Feed(0, enc.Encode(0))
	}
	if dec.Done() {
		t.Fatal("expected stream to still need more blocks")
	}
}
