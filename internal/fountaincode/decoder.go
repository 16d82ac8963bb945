package fountaincode

// equation is a pending parity constraint: value is the running XOR
// of the block's original payload with every already-known neighbor
// chunk removed, and unknown lists the neighbor indices not yet
// resolved. Once len(unknown) == 1, the equation directly yields that
// chunk.
type equation struct {
	unknown []int
	value   []byte
}

// Decoder accumulates fountain blocks for one (payloadSize, chunkSize)
// stream and peels parity equations as systematic and resolved chunks
// arrive. Feeding the same blockID twice is a no-op (the caller is
// still expected to deduplicate at the block_id level, matching the
// C12 contract, but Decoder itself tolerates a second feed safely).
type Decoder struct {
	chunkSize   int
	k           int
	payloadSize int

	data  [][]byte
	known []bool
	have  int

	pending []equation
	seen    map[int]bool
}

// NewDecoder builds a Decoder for a stream whose true payload is
// payloadSize bytes, split into chunkSize-byte chunks.
func NewDecoder(payloadSize, chunkSize int) *Decoder {
	k := chunkCount(payloadSize, chunkSize)
	return &Decoder{
		chunkSize:   chunkSize,
		k:           k,
		payloadSize: payloadSize,
		data:        make([][]byte, k),
		known:       make([]bool, k),
		seen:        make(map[int]bool),
	}
}

// K returns the number of systematic chunks this stream splits into.
func (d *Decoder) K() int { return d.k }

// Done reports whether every systematic chunk has been recovered.
func (d *Decoder) Done() bool {
	return d.have == d.k
}

// Feed ingests one block. It returns true if this call completed the
// stream (Done() became true as a result of this specific block).
func (d *Decoder) Feed(blockID int, block []byte) bool {
	if d.seen[blockID] {
		return false
	}
	d.seen[blockID] = true

	if blockID < d.k {
		d.resolve(blockID, block)
		return d.Done()
	}

	idx := neighbors(blockID, d.k)
	value := make([]byte, d.chunkSize)
	copy(value, block)
	var unknown []int
	for _, i := range idx {
		if d.known[i] {
			xorInto(value, d.data[i])
		} else {
			unknown = append(unknown, i)
		}
	}
	switch len(unknown) {
	case 0:
		// Fully redundant; nothing new to learn.
	case 1:
		d.resolve(unknown[0], value)
	default:
		d.pending = append(d.pending, equation{unknown: unknown, value: value})
	}
	return d.Done()
}

// resolve commits chunk i and cascades through pending equations,
// peeling any that become solvable as a result.
func (d *Decoder) resolve(i int, chunk []byte) {
	if d.known[i] {
		return
	}
	d.known[i] = true
	d.data[i] = append([]byte(nil), chunk...)
	d.have++

	progress := true
	for progress {
		progress = false
		remaining := d.pending[:0]
		for _, eq := range d.pending {
			eq.unknown = removeKnown(eq.unknown, d.known, eq.value, d.data)
			switch len(eq.unknown) {
			case 0:
				// fully redundant now
			case 1:
				d.resolve(eq.unknown[0], eq.value)
				progress = true
			default:
				remaining = append(remaining, eq)
			}
		}
		d.pending = remaining
	}
}

func removeKnown(unknown []int, known []bool, value []byte, data [][]byte) []int {
	out := unknown[:0]
	for _, i := range unknown {
		if known[i] {
			xorInto(value, data[i])
			continue
		}
		out = append(out, i)
	}
	return out
}

// Payload returns the reconstructed payload, truncated to the true
// payloadSize. It panics if Done() is false.
func (d *Decoder) Payload() []byte {
	if !d.Done() {
		panic("fountaincode: Payload called before decoding completed")
	}
	out := make([]byte, 0, d.k*d.chunkSize)
	for _, c := range d.data {
		out = append(out, c...)
	}
	return out[:d.payloadSize]
}

// Progress returns the fraction [0,1] of distinct systematic chunks
// recovered so far.
func (d *Decoder) Progress() float64 {
	return float64(d.have) / float64(d.k)
}
