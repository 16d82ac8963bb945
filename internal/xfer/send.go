package xfer

import (
	"bytes"
	"image"

	"github.com/klauspost/compress/zstd"

	"github.com/sz3/libcimbar-sub001/internal/bitio"
	"github.com/sz3/libcimbar-sub001/internal/fountain"
	"github.com/sz3/libcimbar-sub001/internal/frame"
	"github.com/sz3/libcimbar-sub001/internal/rs"
)

// FountainEncoder drives the send-side streaming pipeline: compress
// -> fountain encode -> RS encode -> bit pack -> tile write, matching
// Encoder.h's encode_next / encode_fountain frame loop. It emits an
// unbounded sequence of frames; callers stop once BlocksRequired()
// worth of fountain packets have been sent (plus any desired margin
// for lossy decode conditions).
type FountainEncoder struct {
	sess    *Session
	writer  *frame.Writer
	packet  int // total wire bytes per fountain packet, header included
	stream  *fountain.EncoderStream
	nextID  uint32
}

// NewFountainEncoder compresses payload (unless cfg.CompressionLevel == 0,
// the "PayloadTooSmall"/no-compression escape hatch some scenarios
// exercise) and prepares a fountain encoder stream over the result.
func NewFountainEncoder(sess *Session, payload []byte, encodeID uint8) (*FountainEncoder, error) {
	body := payload
	if sess.cfg.CompressionLevel > 0 {
		compressed, err := compress(payload, sess.cfg.CompressionLevel)
		if err != nil {
			return nil, err
		}
		body = compressed
	}

	packet := sess.cfg.FountainChunkSize()
	return &FountainEncoder{
		sess:   sess,
		writer: frame.NewWriter(sess.cfg, sess.cat, sess.pos),
		packet: packet,
		stream: fountain.NewEncoderStream(body, packet, encodeID),
	}, nil
}

// BlocksRequired returns the minimum fountain packets a receiver needs.
func (e *FountainEncoder) BlocksRequired() int {
	return e.stream.BlocksRequired()
}

func compress(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NextFrame renders one full frame carrying
// cfg.FountainChunksPerFrame consecutive fountain packets, RS-encoded
// and bit-packed into the lattice. Callers must call
// frame.ReleaseFrame on the result once done with it.
func (e *FountainEncoder) NextFrame() (*image.RGBA, error) {
	var packets bytes.Buffer
	for i := 0; i < e.sess.cfg.FountainChunksPerFrame; i++ {
		packets.Write(e.stream.Packet(e.nextID))
		e.nextID++
	}

	var rsBlocks bytes.Buffer
	if err := rs.EncodeStream(e.sess.rs, bytes.NewReader(packets.Bytes()), &rsBlocks); err != nil {
		return nil, err
	}

	bits := bitio.NewReader(rsBlocks.Bytes())
	width := e.sess.cfg.BitsPerCell()
	exhausted := false
	img := e.writer.WriteFrame(func() int {
		if exhausted {
			return 0
		}
		v, got := bits.Read(width)
		if got < width {
			// Out of real data for this frame: pad with zero bits, the
			// same "PayloadTooSmall" accommodation EncodeStream's short
			// final block already allows at the byte level.
			exhausted = true
			v <<= uint(width - got)
		}
		return int(v)
	})
	e.sess.log.Debug().Uint32("next_block_id", e.nextID).Msg("frame rendered")
	return img, nil
}

// EncodeSimple renders payload as a plain chunked RS-only sequence of
// frames, with no fountain wrapping: every frame's bits are needed
// and in order, the way a small fixed payload that fits in one or two
// frames doesn't need the overhead (and loss tolerance) of the
// fountain-wrapped streaming mode.
func EncodeSimple(sess *Session, payload []byte) ([]*image.RGBA, error) {
	body := payload
	if sess.cfg.CompressionLevel > 0 {
		compressed, err := compress(payload, sess.cfg.CompressionLevel)
		if err != nil {
			return nil, err
		}
		body = compressed
	}

	var rsBlocks bytes.Buffer
	if err := rs.EncodeStream(sess.rs, bytes.NewReader(body), &rsBlocks); err != nil {
		return nil, err
	}

	writer := frame.NewWriter(sess.cfg, sess.cat, sess.pos)
	width := sess.cfg.BitsPerCell()
	bits := bitio.NewReader(rsBlocks.Bytes())

	var frames []*image.RGBA
	exhausted := false
	for bits.BitsRemaining() > 0 {
		img := writer.WriteFrame(func() int {
			if exhausted {
				return 0
			}
			v, got := bits.Read(width)
			if got < width {
				exhausted = true
				v <<= uint(width - got)
			}
			return int(v)
		})
		frames = append(frames, img)
	}
	return frames, nil
}
