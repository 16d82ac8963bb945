// Package sink implements the C14 concurrency adapter: a single-writer
// many-reader queue in front of a fountain.Sink, so a camera-reader
// thread and the sink's own consumer never touch the underlying
// decoder state from more than one goroutine at a time.
package sink

import (
	"sync"

	"github.com/sz3/libcimbar-sub001/internal/fountain"
)

// snapshot is the consistent, read-only view published after each
// drain so progress readers never block writers.
type snapshot struct {
	completed []fountain.Identity
	progress  []fountain.Progress
}

// Concurrent wraps a fountain.Sink behind a buffered channel standing
// in for the lock-free MPSC queue the original design uses (no
// channel-free concurrent queue library appears anywhere in the
// retrieval corpus; a buffered channel is the idiomatic Go substitute
// for that role) plus a consumer mutex and an RWMutex-guarded
// snapshot.
type Concurrent struct {
	queue chan []byte

	consumerLock sync.Mutex
	underlying   *fountain.Sink

	mu   sync.RWMutex
	snap snapshot
}

// NewConcurrent builds a Concurrent sink around a fresh fountain.Sink
// configured for chunkSize-byte packet payloads (see fountain.NewSink).
// queueDepth bounds how many pending packets Write can buffer before
// it blocks the producer.
func NewConcurrent(chunkSize, queueDepth int, onComplete func(fountain.Identity, []byte)) *Concurrent {
	c := &Concurrent{
		queue: make(chan []byte, queueDepth),
	}
	c.underlying = fountain.NewSink(chunkSize, func(id fountain.Identity, payload []byte) {
		if onComplete != nil {
			onComplete(id, payload)
		}
	})
	return c
}

// Write enqueues a copy of a packet. It never blocks on sink-internal
// work, only (rarely) on queue capacity.
func (c *Concurrent) Write(packet []byte) {
	cp := append([]byte(nil), packet...)
	c.queue <- cp
}

// Process drains whatever is currently queued into the underlying
// sink and publishes a fresh snapshot. Safe to call from any number of
// goroutines; only one drains at a time, the rest return immediately.
func (c *Concurrent) Process() {
	if !c.consumerLock.TryLock() {
		return
	}
	defer c.consumerLock.Unlock()

	for {
		select {
		case pkt := <-c.queue:
			c.underlying.Feed(pkt) // malformed packets are dropped, matching HeaderMismatch semantics
		default:
			c.publish()
			return
		}
	}
}

func (c *Concurrent) publish() {
	s := snapshot{
		completed: c.underlying.Completed(),
		progress:  c.underlying.Progress(),
	}
	c.mu.Lock()
	c.snap = s
	c.mu.Unlock()
}

// Completed returns the last published set of fully reassembled
// stream identities.
func (c *Concurrent) Completed() []fountain.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.completed
}

// Progress returns the last published per-stream completion fractions.
func (c *Concurrent) Progress() []fountain.Progress {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.progress
}
