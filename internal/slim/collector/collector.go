// Package collector buffers incoming chunks by snowflake, validates
// sender/count consistency across a fragment's chunks, and emits a
// reassembled packet once every chunk for a snowflake has arrived.
package collector

import (
	"sync"
	"time"

	protoerr "github.com/SamJakob/SLIM/internal/errors"
	"github.com/SamJakob/SLIM/internal/slim/chunk"
	"github.com/SamJakob/SLIM/internal/slim/packet"
)

// DefaultEntryTTL is how long a pending-reassembly entry survives without a
// new chunk arriving before Sweep evicts it.
const DefaultEntryTTL = 5 * time.Second

type entry struct {
	sender    string
	slots     [][]byte
	remaining int
	deadline  time.Time
}

// Collector holds pending-reassembly state for one socket. The dispatcher
// drives it from two goroutines, its receive loop (AddChunk) and its sweep
// loop (Sweep), plus Close from the caller; the mutex serializes them.
type Collector struct {
	mu      sync.Mutex
	entries map[[16]byte]*entry
	ttl     time.Duration
	closed  bool
}

// New returns an empty Collector with the given per-entry eviction TTL. A
// ttl of 0 uses DefaultEntryTTL.
func New(ttl time.Duration) *Collector {
	if ttl <= 0 {
		ttl = DefaultEntryTTL
	}
	return &Collector{entries: make(map[[16]byte]*entry), ttl: ttl}
}

// AddChunk folds c into its snowflake's pending entry. It returns a
// reassembled packet once the last chunk for that snowflake arrives, or nil
// while reassembly is still in progress.
func (col *Collector) AddChunk(sender string, c *chunk.Chunk) (*packet.Packet, error) {
	col.mu.Lock()
	defer col.mu.Unlock()

	if col.closed {
		return nil, protoerr.NewSocketError("collector.add_chunk", protoerr.ErrAlreadyClosed)
	}
	if c.Index >= c.Count {
		return nil, protoerr.NewRejectableChunkError("collector.add_chunk.index_out_of_range",
			errIndexOutOfRange, c.Snowflake, protoerr.ReasonInvalidChunk)
	}

	e, ok := col.entries[c.Snowflake]
	if !ok {
		e = &entry{
			sender:    sender,
			slots:     make([][]byte, c.Count),
			remaining: int(c.Count),
			deadline:  time.Now().Add(col.ttl),
		}
		col.entries[c.Snowflake] = e
	} else {
		if e.sender != sender {
			return nil, protoerr.NewReassemblyError("collector.add_chunk.sender_mismatch", errSenderMismatch, c.Snowflake)
		}
		if uint32(len(e.slots)) != c.Count {
			return nil, protoerr.NewReassemblyError("collector.add_chunk.count_mismatch", errCountMismatch, c.Snowflake)
		}
	}

	if e.slots[c.Index] == nil {
		e.remaining--
	}
	e.slots[c.Index] = c.Body
	e.deadline = time.Now().Add(col.ttl)

	if e.remaining > 0 {
		return nil, nil
	}

	delete(col.entries, c.Snowflake)
	body := make([]byte, 0, totalLen(e.slots))
	for _, slot := range e.slots {
		body = append(body, slot...)
	}
	return emit(body)
}

func totalLen(slots [][]byte) int {
	n := 0
	for _, s := range slots {
		n += len(s)
	}
	return n
}

// emit verifies the reassembled body frames a valid packet (§4.6) and
// decodes it.
func emit(body []byte) (*packet.Packet, error) {
	p, err := packet.ParseFramed(body)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Eviction describes a pending-reassembly entry dropped by Sweep.
type Eviction struct {
	Snowflake [16]byte
	Sender    string
}

// Sweep evicts pending entries whose deadline has passed, returning enough
// information for the caller to emit a `timeout` rejection signal back to
// each entry's original sender.
func (col *Collector) Sweep(now time.Time) []Eviction {
	col.mu.Lock()
	defer col.mu.Unlock()

	var evicted []Eviction
	for sf, e := range col.entries {
		if now.After(e.deadline) {
			evicted = append(evicted, Eviction{Snowflake: sf, Sender: e.sender})
			delete(col.entries, sf)
		}
	}
	return evicted
}

// Pending reports how many snowflakes currently have an in-flight reassembly.
func (col *Collector) Pending() int {
	col.mu.Lock()
	defer col.mu.Unlock()
	return len(col.entries)
}

// Close discards all pending reassemblies and marks the collector closed;
// subsequent AddChunk calls fail with ErrAlreadyClosed. Idempotent.
func (col *Collector) Close() {
	col.mu.Lock()
	defer col.mu.Unlock()
	col.closed = true
	col.entries = make(map[[16]byte]*entry)
}
