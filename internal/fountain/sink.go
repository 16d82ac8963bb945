package fountain

import "github.com/sz3/libcimbar-sub001/internal/fountaincode"

const numSlots = 8

// streamState mirrors the C12 state machine: EMPTY -> ACCUMULATING ->
// COMPLETE. A slot reassigned to a new identity is replaced by a fresh
// stream; there is no separate evicted state.
type streamState int

const (
	stateEmpty streamState = iota
	stateAccumulating
	stateComplete
)

type stream struct {
	identity Identity
	chunkLen int
	dec      *fountaincode.Decoder
	state    streamState
}

// Progress is one stream's completion fraction, reported by Sink.
type Progress struct {
	Identity Identity
	Fraction float64
	Complete bool
}

// Sink is the C12 fountain decoder sink: up to 8 concurrent streams,
// addressed by encode_id & 0x7, with a completion set (kept for the
// Sink's lifetime, with no size bound) so packets for an
// already-finished stream are cheaply dropped.
//
// Sink is not safe for concurrent use; internal/sink wraps it with the
// C14 single-consumer-lock adapter for that.
type Sink struct {
	chunkSize  int // configured payload length per packet; 0 disables the check
	slots      [numSlots]*stream
	completed  map[Identity]bool
	onComplete func(Identity, []byte)
}

// NewSink builds an empty sink expecting chunkSize-byte payloads (the
// "encoded chunk" area, i.e. packet length minus PacketOverhead) on
// every packet it's fed, per spec.md §4.10's chunk_size-mismatch
// rejection. Pass 0 to accept whatever length the first packet for a
// given slot arrives with (the prior, unchecked behavior). onComplete
// is invoked once per stream, the moment its payload is fully
// recovered, with the exact original bytes.
func NewSink(chunkSize int, onComplete func(Identity, []byte)) *Sink {
	return &Sink{
		chunkSize:  chunkSize,
		completed:  make(map[Identity]bool),
		onComplete: onComplete,
	}
}

// Feed ingests one wire packet (header || block_id || chunk). It
// returns true if this packet completed its stream.
func (s *Sink) Feed(packet []byte) (bool, error) {
	hdr, err := DecodeHeader(packet)
	if err != nil {
		return false, err
	}
	if len(packet) < PacketOverhead {
		return false, errHeaderMismatch("packet shorter than fixed overhead")
	}
	identity := hdr.Identity()
	if s.completed[identity] {
		return false, nil // DuplicateBlock-of-a-finished-stream: silently ignored.
	}

	blockID := decodeBlockID(packet[headerSize : headerSize+blockIDSize])
	chunk := packet[PacketOverhead:]
	if s.chunkSize > 0 && len(chunk) != s.chunkSize {
		return false, errHeaderMismatch("chunk_size mismatch with sink configuration")
	}

	slotIdx := identity.Slot()
	st := s.slots[slotIdx]
	if st == nil || st.identity != identity {
		// New stream claims the slot; any incomplete occupant is
		// evicted (SlotEviction: not an error, progress is freed).
		st = &stream{
			identity: identity,
			chunkLen: len(chunk),
			dec:      fountaincode.NewDecoder(int(identity.PayloadSize), len(chunk)),
			state:    stateAccumulating,
		}
		s.slots[slotIdx] = st
	}
	if len(chunk) != st.chunkLen {
		return false, errHeaderMismatch("chunk_size mismatch within stream")
	}

	done := st.dec.Feed(int(blockID), chunk)
	if done {
		st.state = stateComplete
		s.completed[identity] = true
		payload := st.dec.Payload()
		s.slots[slotIdx] = nil
		if s.onComplete != nil {
			s.onComplete(identity, payload)
		}
	}
	return done, nil
}

// Progress reports the fraction of distinct blocks received for every
// stream currently occupying a slot.
func (s *Sink) Progress() []Progress {
	var out []Progress
	for _, st := range s.slots {
		if st == nil {
			continue
		}
		out = append(out, Progress{
			Identity: st.identity,
			Fraction: st.dec.Progress(),
			Complete: st.state == stateComplete,
		})
	}
	return out
}

// Completed reports every stream identity fully reassembled so far.
func (s *Sink) Completed() []Identity {
	out := make([]Identity, 0, len(s.completed))
	for id := range s.completed {
		out = append(out, id)
	}
	return out
}

type headerMismatchError string

func (e headerMismatchError) Error() string { return "fountain: " + string(e) }

func errHeaderMismatch(msg string) error { return headerMismatchError(msg) }
