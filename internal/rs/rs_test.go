package rs

import (
	"bytes"
	"errors"
	"testing"
)

// TestRSRoundTrip is testable property #8: encode then decode returns
// the original bytes; flipping up to floor((n-k)/2) bytes still
// decodes; one more flip is unrecoverable.
func TestRSRoundTrip(t *testing.T) {
	k, n := 115, 155
	codec, err := New(k, n)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	data := make([]byte, k)
	for i := range data {
		data[i] = byte(i * 7)
	}

	block, err := codec.Encode(data)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := codec.Decode(block)
	if err != nil {
		t.Fatalf("Decode clean block: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("clean round trip mismatch")
	}

	maxCorrectable := (n - k) / 2
	corrupted := append([]byte(nil), block...)
	for i := 0; i < maxCorrectable; i++ {
		corrupted[i] ^= 0xff
	}
	got, err = codec.Decode(corrupted)
	if err != nil {
		t.Fatalf("expected correction of %d byte errors to succeed: %v", maxCorrectable, err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("corrected round trip mismatch")
	}

	overCorrupted := append([]byte(nil), block...)
	for i := 0; i < maxCorrectable+1; i++ {
		overCorrupted[i] ^= 0xff
	}
	_, err = codec.Decode(overCorrupted)
	if !errors.Is(err, ErrChunkUnrecoverable) {
		t.Fatalf("expected ErrChunkUnrecoverable for %d byte errors, got %v", maxCorrectable+1, err)
	}
}

func TestEncodeDecodeStream(t *testing.T) {
	k, n := 10, 14
	codec, err := New(k, n)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	payload := []byte("this is a stream of bytes spanning multiple rs blocks!!")
	var encoded bytes.Buffer
	if err := EncodeStream(codec, bytes.NewReader(payload), &encoded); err != nil {
		t.Fatalf("EncodeStream: %v", err)
	}

	var recovered []byte
	err = DecodeStream(codec, bytes.NewReader(encoded.Bytes()), func(c Chunk) {
		if !c.Bad {
			recovered = append(recovered, c.Data...)
		}
	})
	if err != nil {
		t.Fatalf("DecodeStream: %v", err)
	}
	if !bytes.HasPrefix(recovered, payload) {
		t.Fatalf("recovered payload does not match: got %q", recovered)
	}
}
