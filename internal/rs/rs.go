// Package rs wraps github.com/klauspost/reedsolomon as the chunked
// Reed-Solomon stream codec C9 describes: encode up to k bytes into
// an n-byte block, decode an n-byte block back to k bytes or signal
// that the block exceeded the code's correction capability.
package rs

import (
	"errors"
	"fmt"

	"github.com/klauspost/reedsolomon"
)

// ErrChunkUnrecoverable is returned by Decode when a block has more
// byte errors than the code's parity can correct.
var ErrChunkUnrecoverable = errors.New("cimbar: rs chunk exceeds correction capability")

// Codec is a single-codeword-at-a-time Reed-Solomon block coder: k
// data bytes in, n total bytes out, one GF(256) symbol per shard.
// klauspost/reedsolomon is built for splitting large buffers across
// N equal-length shards; using 1-byte shards degenerates it into a
// classical RS(n,k) block code, which is the shape C9 specifies.
type Codec struct {
	enc  reedsolomon.Encoder
	k, n int
}

// New builds a Codec for k data bytes and n-k parity bytes per block.
func New(k, n int) (*Codec, error) {
	enc, err := reedsolomon.New(k, n-k)
	if err != nil {
		return nil, fmt.Errorf("cimbar: rs.New(%d,%d): %w", k, n-k, err)
	}
	return &Codec{enc: enc, k: k, n: n}, nil
}

// K returns the data-byte capacity of one block.
func (c *Codec) K() int { return c.k }

// N returns the total byte size of one encoded block.
func (c *Codec) N() int { return c.n }

// Encode produces an n-byte block from up to k bytes of data. Short
// input is zero-padded internally (the last block of a stream is
// allowed to be short); the caller is responsible for remembering the
// true data length out of band if it must be recovered exactly.
func (c *Codec) Encode(data []byte) ([]byte, error) {
	if len(data) > c.k {
		return nil, fmt.Errorf("cimbar: rs.Encode: %d bytes exceeds block capacity %d", len(data), c.k)
	}
	shards := make([][]byte, c.n)
	for i := 0; i < c.k; i++ {
		shards[i] = make([]byte, 1)
		if i < len(data) {
			shards[i][0] = data[i]
		}
	}
	for i := c.k; i < c.n; i++ {
		shards[i] = make([]byte, 1)
	}
	if err := c.enc.Encode(shards); err != nil {
		return nil, fmt.Errorf("cimbar: rs.Encode: %w", err)
	}
	block := make([]byte, c.n)
	for i, s := range shards {
		block[i] = s[0]
	}
	return block, nil
}

// Decode recovers the k data bytes from an n-byte block, correcting
// up to floor((n-k)/2) byte errors. It returns ErrChunkUnrecoverable
// if the block cannot be reconstructed.
func (c *Codec) Decode(block []byte) ([]byte, error) {
	if len(block) != c.n {
		return nil, fmt.Errorf("cimbar: rs.Decode: block is %d bytes, want %d", len(block), c.n)
	}
	shards := make([][]byte, c.n)
	for i, b := range block {
		shards[i] = []byte{b}
	}
	ok, err := c.enc.Verify(shards)
	if err == nil && ok {
		data := make([]byte, c.k)
		for i := 0; i < c.k; i++ {
			data[i] = shards[i][0]
		}
		return data, nil
	}
	if err := c.enc.Reconstruct(shards); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChunkUnrecoverable, err)
	}
	ok, err = c.enc.Verify(shards)
	if err != nil || !ok {
		return nil, ErrChunkUnrecoverable
	}
	data := make([]byte, c.k)
	for i := 0; i < c.k; i++ {
		data[i] = shards[i][0]
	}
	return data, nil
}
