// Package align sits between the RS decode stream and the fountain
// sink, re-aligning bytes to fountain-chunk boundaries across RS
// failures so a bad chunk doesn't shift every subsequent packet's
// header out of place.
package align

import "errors"

// ErrPermanentlyBad is returned once a bad chunk has straddled the
// header passthrough region; the stream can no longer be trusted to
// realign and further writes are rejected.
var ErrPermanentlyBad = errors.New("cimbar: aligned stream corrupted during header passthrough")

// Stream re-aligns a byte stream to increment-sized chunks. The first
// offset bytes pass straight through to Sink (the fountain packet
// header, peeked early for color-correction seeding); thereafter,
// bytes accumulate into increment-sized buffers and flush as whole
// chunks. OnFlush, if set, is invoked once per complete chunk in
// addition to Sink.
type Stream struct {
	increment int
	headerLeft int

	buf      []byte
	fillLevel int // bytes already accounted for in the current cycle (real + bad)
	bad      bool

	Sink    func(chunk []byte)
	OnFlush func(chunk []byte)
}

// New builds a Stream with the given chunk increment and header
// passthrough length.
func New(increment, headerOffset int) *Stream {
	return &Stream{increment: increment, headerLeft: headerOffset}
}

// Bad reports whether the stream has been permanently corrupted.
func (s *Stream) Bad() bool {
	return s.bad
}

// Write feeds good (RS-recovered) bytes into the stream.
func (s *Stream) Write(data []byte) error {
	if s.bad {
		return ErrPermanentlyBad
	}
	for len(data) > 0 && s.headerLeft > 0 {
		take := s.headerLeft
		if take > len(data) {
			take = len(data)
		}
		if s.Sink != nil {
			s.Sink(data[:take])
		}
		s.headerLeft -= take
		data = data[take:]
	}
	if len(data) == 0 {
		return nil
	}

	s.buf = append(s.buf, data...)
	for s.fillLevel+len(s.buf) >= s.increment {
		need := s.increment - s.fillLevel
		if need > len(s.buf) {
			need = len(s.buf)
		}
		chunk := s.buf[:need]
		// A cycle that already holds bad bytes is incomplete: drop its
		// good remainder instead of flushing a short chunk.
		if s.fillLevel == 0 {
			if s.Sink != nil {
				s.Sink(chunk)
			}
			if s.OnFlush != nil {
				s.OnFlush(chunk)
			}
		}
		s.buf = append([]byte(nil), s.buf[need:]...)
		s.fillLevel = 0
	}
	return nil
}

// MarkBad records an m-byte bad chunk (an RS block the decoder could
// not recover). Per the spec, this advances the logical offset by m
// mod increment and discards any partial buffer contents, so
// alignment with the next good chunk is preserved. If the bad chunk
// occurs while the header is still being passed through, the stream
// is permanently marked bad.
func (s *Stream) MarkBad(m int) {
	if s.bad {
		return
	}
	if s.headerLeft > 0 {
		s.bad = true
		return
	}
	s.fillLevel = (s.fillLevel + len(s.buf) + m) % s.increment
	s.buf = s.buf[:0]
}
