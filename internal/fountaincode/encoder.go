package fountaincode

// Encoder produces chunkSize-byte blocks for any blockID >= 0 over a
// fixed payload: systematic for blockID < k, XOR parity otherwise.
type Encoder struct {
	chunks    [][]byte
	chunkSize int
	k         int
}

// NewEncoder splits payload into chunkSize-byte chunks (zero-padding
// the last one) and returns an Encoder over them.
func NewEncoder(payload []byte, chunkSize int) *Encoder {
	k := chunkCount(len(payload), chunkSize)
	chunks := make([][]byte, k)
	for i := 0; i < k; i++ {
		c := make([]byte, chunkSize)
		start := i * chunkSize
		end := start + chunkSize
		if end > len(payload) {
			end = len(payload)
		}
		copy(c, payload[start:end])
		chunks[i] = c
	}
	return &Encoder{chunks: chunks, chunkSize: chunkSize, k: k}
}

// K returns the number of systematic (payload) chunks.
func (e *Encoder) K() int { return e.k }

// BlocksRequired returns the minimum number of distinct blocks a
// decoder needs to reconstruct the payload: k systematic chunks plus
// a small fixed overhead to make peeling converge with high
// probability even though blocks arrive in arbitrary order.
func (e *Encoder) BlocksRequired() int {
	overhead := e.k/10 + 2
	return e.k + overhead
}

// Encode returns the chunkSize-byte block for blockID.
func (e *Encoder) Encode(blockID int) []byte {
	if blockID < e.k {
		out := make([]byte, e.chunkSize)
		copy(out, e.chunks[blockID])
		return out
	}
	out := make([]byte, e.chunkSize)
	for _, idx := range neighbors(blockID, e.k) {
		xorInto(out, e.chunks[idx])
	}
	return out
}
