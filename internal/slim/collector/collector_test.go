package collector

import (
	"math/rand"
	"testing"
	"time"

	"github.com/SamJakob/SLIM/internal/slim/chunk"
	"github.com/SamJakob/SLIM/internal/slim/packet"
	"github.com/SamJakob/SLIM/internal/slim/wire"
)

func TestCollectorEmitsAfterAllChunks(t *testing.T) {
	sf := [16]byte{0x01}
	p := packet.New(0x01, sf, nil)
	chunks := chunk.Chunkify(sf, p.Pack())

	col := New(time.Second)
	got, err := col.AddChunk("peer:1", chunks[0])
	if err != nil {
		t.Fatalf("AddChunk: %v", err)
	}
	if got == nil {
		t.Fatalf("expected packet emitted after single chunk")
	}
	if got.ID != 0x01 {
		t.Fatalf("id mismatch: %d", got.ID)
	}
	if col.Pending() != 0 {
		t.Fatalf("expected no pending entries, got %d", col.Pending())
	}
}

func TestCollectorReassemblesOutOfOrder(t *testing.T) {
	w := wire.NewWriter()
	src := rand.New(rand.NewSource(1))
	body := make([]byte, int(float64(chunk.MaxBodySize)*1.5))
	src.Read(body)
	w.WriteBytes(body)

	sf := [16]byte{0x02}
	p := packet.New(0x02, sf, w.Bytes())
	chunks := chunk.Chunkify(sf, p.Pack())
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}

	col := New(time.Second)
	// Feed in reverse order.
	got, err := col.AddChunk("peer:1", chunks[1])
	if err != nil {
		t.Fatalf("AddChunk[1]: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no packet after first of two chunks")
	}
	got, err = col.AddChunk("peer:1", chunks[0])
	if err != nil {
		t.Fatalf("AddChunk[0]: %v", err)
	}
	if got == nil {
		t.Fatalf("expected packet after final chunk")
	}
	if got.ID != 0x02 {
		t.Fatalf("id mismatch: %d", got.ID)
	}
}

func TestCollectorSenderMismatch(t *testing.T) {
	sf := [16]byte{0x03}
	p := packet.New(0x03, sf, []byte("payload"))
	chunks := chunk.Chunkify(sf, p.Pack())
	// Force two chunks by splitting the single chunk into two artificial halves
	// sharing the same snowflake and count=2.
	c0 := &chunk.Chunk{Snowflake: sf, Index: 0, Count: 2, Body: chunks[0].Body[:3]}
	c1 := &chunk.Chunk{Snowflake: sf, Index: 1, Count: 2, Body: chunks[0].Body[3:]}

	col := New(time.Second)
	if _, err := col.AddChunk("peer:1", c0); err != nil {
		t.Fatalf("AddChunk c0: %v", err)
	}
	if _, err := col.AddChunk("peer:2", c1); err == nil {
		t.Fatalf("expected sender mismatch error")
	}
}

func TestCollectorCountMismatch(t *testing.T) {
	sf := [16]byte{0x04}
	c0 := &chunk.Chunk{Snowflake: sf, Index: 0, Count: 2, Body: []byte("a")}
	c1 := &chunk.Chunk{Snowflake: sf, Index: 1, Count: 3, Body: []byte("b")}

	col := New(time.Second)
	if _, err := col.AddChunk("peer:1", c0); err != nil {
		t.Fatalf("AddChunk c0: %v", err)
	}
	if _, err := col.AddChunk("peer:1", c1); err == nil {
		t.Fatalf("expected count mismatch error")
	}
}

func TestCollectorSweepEvictsStaleEntries(t *testing.T) {
	sf := [16]byte{0x05}
	c0 := &chunk.Chunk{Snowflake: sf, Index: 0, Count: 2, Body: []byte("a")}

	col := New(time.Millisecond)
	if _, err := col.AddChunk("peer:1", c0); err != nil {
		t.Fatalf("AddChunk: %v", err)
	}
	if col.Pending() != 1 {
		t.Fatalf("expected 1 pending entry")
	}

	evicted := col.Sweep(time.Now().Add(time.Second))
	if len(evicted) != 1 || evicted[0].Snowflake != sf || evicted[0].Sender != "peer:1" {
		t.Fatalf("expected snowflake %x from peer:1 evicted, got %v", sf, evicted)
	}
	if col.Pending() != 0 {
		t.Fatalf("expected entry evicted")
	}
}

func TestCollectorClosedRejectsChunks(t *testing.T) {
	col := New(time.Second)
	col.Close()
	sf := [16]byte{0x06}
	c0 := &chunk.Chunk{Snowflake: sf, Index: 0, Count: 1, Body: []byte("a")}
	if _, err := col.AddChunk("peer:1", c0); err == nil {
		t.Fatalf("expected error after close")
	}
}

func TestCollectorIndexOutOfRange(t *testing.T) {
	sf := [16]byte{0x07}
	c0 := &chunk.Chunk{Snowflake: sf, Index: 2, Count: 2, Body: []byte("a")}
	col := New(time.Second)
	if _, err := col.AddChunk("peer:1", c0); err == nil {
		t.Fatalf("expected index-out-of-range error")
	}
}
