package xfer

import (
	"bytes"
	"image"
	"sync"

	"github.com/sz3/libcimbar-sub001/internal/align"
	"github.com/sz3/libcimbar-sub001/internal/bitio"
	"github.com/sz3/libcimbar-sub001/internal/fountain"
	"github.com/sz3/libcimbar-sub001/internal/frame"
	"github.com/sz3/libcimbar-sub001/internal/rs"
	"github.com/sz3/libcimbar-sub001/internal/sink"
)

// ConcurrentDecoder is the decode-side half of a live-capture
// pipeline: it parallelizes the expensive per-frame tile decode
// (flood-fill symbol/color match) across a pool of independent frame
// readers, one per in-flight camera frame, while serializing the
// RS-decode-and-realign step so each frame's recovered chunks reach
// the realigner as one unbroken run (frames are realigned in the order
// their Submit calls take the lock), and finally funnels reassembled fountain packets
// through a sink.Concurrent queue exactly the way a multi-worker
// capture loop would: many producers calling Submit, one consumer
// goroutine periodically calling Process.
type ConcurrentDecoder struct {
	sess       *Session
	decompress bool
	packet     int

	readers chan *frame.Reader

	mu        sync.Mutex
	realigner *align.Stream
	pending   []byte

	csink     *sink.Concurrent
	recovered sync.Map // fountain.Identity -> []byte
}

// NewConcurrentDecoder builds a ConcurrentDecoder with a pool of
// workers independent frame readers (so concurrent Submit calls never
// share decoder state) and a sink.Concurrent of the given queueDepth.
func NewConcurrentDecoder(sess *Session, workers, queueDepth int, decompress, needsSharpen bool) *ConcurrentDecoder {
	packet := sess.cfg.FountainChunkSize()
	if workers < 1 {
		workers = 1
	}

	d := &ConcurrentDecoder{
		sess:       sess,
		decompress: decompress,
		packet:     packet,
		readers:    make(chan *frame.Reader, workers),
	}
	for i := 0; i < workers; i++ {
		d.readers <- frame.NewReader(sess.cfg, sess.cat, sess.pos, decoderMode(needsSharpen))
	}

	d.realigner = align.New(packet, 0)
	d.realigner.Sink = d.feedAlignedChunk

	d.csink = sink.NewConcurrent(packet-fountain.PacketOverhead, queueDepth, func(id fountain.Identity, payload []byte) {
		if d.decompress {
			if out, err := decompressZstd(payload); err == nil {
				payload = out
			}
		}
		d.recovered.Store(id, payload)
		sess.log.Info().
			Uint8("encode_id", id.EncodeID).
			Uint32("payload_size", id.PayloadSize).
			Msg("stream complete")
	})

	return d
}

// Submit decodes one captured frame: it checks out a reader from the
// pool (blocking if every worker slot is busy, mirroring a bounded
// camera worker pool), runs the tile decode and RS decode, and
// realigns the recovered bytes under a lock before enqueueing any now
// complete fountain packets. Safe to call concurrently from multiple
// goroutines, one per in-flight frame.
func (d *ConcurrentDecoder) Submit(img *image.RGBA) error {
	reader := <-d.readers
	defer func() { d.readers <- reader }()

	bits, _, err := reader.ReadFrame(img)
	if err != nil {
		return err
	}

	w := bitio.NewWriter(d.sess.cfg.CapacityBytes())
	width := d.sess.cfg.BitsPerCell()
	for _, b := range bits {
		w.WriteBits(uint32(b), width)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return rs.DecodeStream(d.sess.rs, bytes.NewReader(w.Bytes()), func(c rs.Chunk) {
		if c.Bad {
			d.realigner.MarkBad(c.Missing)
			return
		}
		if err := d.realigner.Write(c.Data); err != nil {
			return
		}
	})
}

// feedAlignedChunk accumulates packet-sized aligned chunks (called
// under d.mu, from within Submit's RS-decode callback) and hands each
// complete fountain packet to the concurrent sink's queue.
func (d *ConcurrentDecoder) feedAlignedChunk(chunk []byte) {
	d.pending = append(d.pending, chunk...)
	for len(d.pending) >= d.packet {
		pkt := d.pending[:d.packet]
		d.csink.Write(pkt)
		d.pending = append([]byte(nil), d.pending[d.packet:]...)
	}
}

// Process drains whatever fountain packets are currently queued. Call
// this periodically from a dedicated consumer goroutine; it is always
// safe to call concurrently with Submit or with itself.
func (d *ConcurrentDecoder) Process() {
	d.csink.Process()
}

// Progress returns the last published per-stream completion fractions.
func (d *ConcurrentDecoder) Progress() []fountain.Progress {
	return d.csink.Progress()
}

// Completed returns every stream identity fully reassembled so far,
// with its recovered (and, if requested, decompressed) payload.
func (d *ConcurrentDecoder) Completed() map[fountain.Identity][]byte {
	out := make(map[fountain.Identity][]byte)
	d.recovered.Range(func(k, v interface{}) bool {
		out[k.(fountain.Identity)] = v.([]byte)
		return true
	})
	return out
}
