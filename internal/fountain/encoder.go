package fountain

import "github.com/sz3/libcimbar-sub001/internal/fountaincode"

// EncoderStream emits fixed-size fountain packets for one file over an
// unbounded stream of block IDs. Each packet is
// header(4) || block_id(4) || chunk(chunk_size - 8 bytes).
type EncoderStream struct {
	enc      *fountaincode.Encoder
	header   Header
	chunkLen int
	nextID   uint32
}

// NewEncoderStream builds an encoder stream for payload, identified on
// the wire by encodeID. chunkSize is the total packet size the caller
// wants emitted (including the 8 bytes of overhead).
func NewEncoderStream(payload []byte, chunkSize int, encodeID uint8) *EncoderStream {
	dataLen := chunkSize - PacketOverhead
	return &EncoderStream{
		enc: fountaincode.NewEncoder(payload, dataLen),
		header: Header{
			EncodeID:    encodeID & 0x7f,
			PayloadSize: uint32(len(payload)),
		},
		chunkLen: dataLen,
	}
}

// BlocksRequired returns the minimum number of packets a decoder needs
// to reconstruct the payload.
func (s *EncoderStream) BlocksRequired() int {
	return s.enc.BlocksRequired()
}

// K returns the number of systematic chunks.
func (s *EncoderStream) K() int {
	return s.enc.K()
}

// Next emits the next packet in sequence (systematic first, then
// parity), advancing an internal block-id counter.
func (s *EncoderStream) Next() []byte {
	pkt := s.Packet(s.nextID)
	s.nextID++
	return pkt
}

// Packet emits the packet for an explicit blockID, without advancing
// the internal counter. Used by callers that want to interleave
// several streams' packets across frames.
func (s *EncoderStream) Packet(blockID uint32) []byte {
	hdr := EncodeHeader(s.header)
	bid := encodeBlockID(blockID)
	chunk := s.enc.Encode(int(blockID))

	out := make([]byte, 0, PacketOverhead+len(chunk))
	out = append(out, hdr[:]...)
	out = append(out, bid[:]...)
	out = append(out, chunk...)
	return out
}
