package xfer

import (
	"bytes"
	"image"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/sz3/libcimbar-sub001/internal/align"
	"github.com/sz3/libcimbar-sub001/internal/bitio"
	"github.com/sz3/libcimbar-sub001/internal/codec"
	"github.com/sz3/libcimbar-sub001/internal/fountain"
	"github.com/sz3/libcimbar-sub001/internal/frame"
	"github.com/sz3/libcimbar-sub001/internal/rs"
)

// Decoder drives the receive-side pipeline: tile read -> RS decode ->
// align -> fountain decode -> decompress, matching Decoder.h's
// do_decode loop.
type Decoder struct {
	sess      *Session
	reader    *frame.Reader
	packet    int
	sink      *fountain.Sink
	realigner *align.Stream
	pending   []byte

	recovered map[fountain.Identity][]byte
}

// NewDecoder builds a Decoder ready to consume successive frames for
// cfg. decompress controls whether recovered payloads are zstd
// decompressed before being reported (matching whichever
// compression_level the sender used).
func NewDecoder(sess *Session, decompress bool, needsSharpen bool) (*Decoder, error) {
	d := &Decoder{
		sess:      sess,
		reader:    frame.NewReader(sess.cfg, sess.cat, sess.pos, decoderMode(needsSharpen)),
		packet:    sess.cfg.FountainChunkSize(),
		recovered: make(map[fountain.Identity][]byte),
	}
	d.sink = fountain.NewSink(d.packet-fountain.PacketOverhead, func(id fountain.Identity, payload []byte) {
		if decompress {
			if out, err := decompressZstd(payload); err == nil {
				payload = out
			}
		}
		d.recovered[id] = payload
		sess.log.Info().
			Uint8("encode_id", id.EncodeID).
			Uint32("payload_size", id.PayloadSize).
			Msg("stream complete")
	})
	d.realigner = align.New(d.packet, 0)
	d.realigner.Sink = d.feedAlignedChunk
	return d, nil
}

// SetColorCorrector installs a fitted CCM on the underlying frame
// reader, pinning it so per-frame bootstrapping doesn't overwrite it.
func (d *Decoder) SetColorCorrector(ccm *codec.ColorCorrector) {
	d.reader.SetColorCorrector(ccm)
}

// ColorCorrector returns the corrector currently installed on the
// underlying frame reader, for callers that want to persist whatever
// was bootstrapped from the stream just decoded.
func (d *Decoder) ColorCorrector() *codec.ColorCorrector {
	return d.reader.ColorCorrector()
}

// FeedFrame decodes one rectified frame and drives it through RS
// decode and realignment. It returns the mean symbol-match confidence
// for diagnostics.
func (d *Decoder) FeedFrame(img *image.RGBA) (float64, error) {
	bits, meanDist, err := d.reader.ReadFrame(img)
	if err != nil {
		return 0, err
	}

	w := bitio.NewWriter(d.sess.cfg.CapacityBytes())
	width := d.sess.cfg.BitsPerCell()
	for _, b := range bits {
		w.WriteBits(uint32(b), width)
	}

	return meanDist, rs.DecodeStream(d.sess.rs, bytes.NewReader(w.Bytes()), func(c rs.Chunk) {
		if c.Bad {
			d.sess.log.Warn().Int("missing_bytes", c.Missing).Msg("RS block unrecoverable")
			d.realigner.MarkBad(c.Missing)
			return
		}
		if err := d.realigner.Write(c.Data); err != nil {
			// Permanently corrupted stream; nothing more can be salvaged
			// from this realigner, but other streams are unaffected.
			return
		}
	})
}

// feedAlignedChunk accumulates packet-sized aligned chunks and hands
// each complete fountain packet to the sink.
func (d *Decoder) feedAlignedChunk(chunk []byte) {
	d.pending = append(d.pending, chunk...)
	for len(d.pending) >= d.packet {
		pkt := d.pending[:d.packet]
		d.sink.Feed(pkt)
		d.pending = append([]byte(nil), d.pending[d.packet:]...)
	}
}

// Completed returns every stream identity fully reassembled so far,
// with its recovered (and, if requested, decompressed) payload.
func (d *Decoder) Completed() map[fountain.Identity][]byte {
	return d.recovered
}

// DecodeSimple is the counterpart to EncodeSimple: it reads a fixed,
// ordered sequence of rectified frames with no fountain redundancy, so
// any RS-unrecoverable block is fatal rather than something alignment
// can route around.
func DecodeSimple(sess *Session, frames []*image.RGBA, decompress bool, needsSharpen bool) ([]byte, error) {
	reader := frame.NewReader(sess.cfg, sess.cat, sess.pos, decoderMode(needsSharpen))
	width := sess.cfg.BitsPerCell()

	// A single continuous bit writer spans every frame, mirroring
	// EncodeSimple's single continuous bit reader: per-frame bit counts
	// need not be byte-aligned, and re-aligning at each frame boundary
	// would corrupt the RS block bytes that straddle it.
	w := bitio.NewWriter(sess.cfg.CapacityBytes() * len(frames))
	for _, img := range frames {
		bits, _, err := reader.ReadFrame(img)
		if err != nil {
			return nil, err
		}
		for _, b := range bits {
			w.WriteBits(uint32(b), width)
		}
	}

	var out bytes.Buffer
	var rsErr error
	err := rs.DecodeStream(sess.rs, bytes.NewReader(w.Bytes()), func(c rs.Chunk) {
		if c.Bad {
			rsErr = rs.ErrChunkUnrecoverable
			return
		}
		out.Write(c.Data)
	})
	if err != nil {
		return nil, err
	}
	if rsErr != nil {
		return nil, rsErr
	}

	if decompress {
		return decompressZstd(out.Bytes())
	}
	return out.Bytes(), nil
}

func decompressZstd(data []byte) ([]byte, error) {
	r, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
