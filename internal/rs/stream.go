package rs

import "io"

// Chunk is one decoded unit handed to the aligned stream (C10): either
// Data holds k recovered bytes, or Bad is true and Missing records how
// many data bytes were lost so alignment can be preserved without
// silently filling in garbage.
type Chunk struct {
	Data    []byte
	Bad     bool
	Missing int
}

// EncodeStream reads r to EOF in k-byte groups and writes consecutive
// n-byte RS blocks to w. The final group may be shorter than k (a
// short last block is permitted).
func EncodeStream(codec *Codec, r io.Reader, w io.Writer) error {
	buf := make([]byte, codec.K())
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			block, encErr := codec.Encode(buf[:n])
			if encErr != nil {
				return encErr
			}
			if _, werr := w.Write(block); werr != nil {
				return werr
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// DecodeStream reads r in n-byte blocks and invokes emit once per
// block with either the recovered k-byte chunk or a bad-chunk marker.
// It stops at the first short read (a clean EOF between blocks) and
// returns an error for any other I/O failure.
func DecodeStream(codec *Codec, r io.Reader, emit func(Chunk)) error {
	buf := make([]byte, codec.N())
	for {
		_, err := io.ReadFull(r, buf)
		if err == io.EOF {
			return nil
		}
		if err == io.ErrUnexpectedEOF {
			return nil
		}
		if err != nil {
			return err
		}

		data, decErr := codec.Decode(buf)
		if decErr != nil {
			emit(Chunk{Bad: true, Missing: codec.K()})
			continue
		}
		emit(Chunk{Data: data})
	}
}
