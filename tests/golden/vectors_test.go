// Package golden pins the wire-level byte layout of the core SLIM
// primitives against values computed directly from the protocol constants,
// so a change to field ordering or tag placement fails a test even when the
// higher-level round-trip tests would still pass.
package golden

import (
	"encoding/binary"
	"testing"

	protoerr "github.com/SamJakob/SLIM/internal/errors"
	"github.com/SamJakob/SLIM/internal/slim/chunk"
	"github.com/SamJakob/SLIM/internal/slim/packet"
	"github.com/SamJakob/SLIM/internal/slim/signal"
	"github.com/SamJakob/SLIM/internal/slim/varint"
	"github.com/SamJakob/SLIM/internal/slim/wire"
	"github.com/SamJakob/SLIM/internal/slim/xxh3sum"
)

func TestVarIntKnownEncodingsGolden(t *testing.T) {
	cases := []struct {
		v    uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xAC, 0x02}},
		{16384, []byte{0x80, 0x80, 0x01}},
	}
	for _, c := range cases {
		got := varint.EncodeInt(nil, c.v)
		if string(got) != string(c.want) {
			t.Fatalf("EncodeInt(%d) = % X, want % X", c.v, got, c.want)
		}
	}
}

func TestWireTagConstantsGolden(t *testing.T) {
	cases := []struct {
		tag  wire.Tag
		want byte
	}{
		{wire.TagNone, 0x00},
		{wire.TagBool, 0x01},
		{wire.TagByte, 0x02},
		{wire.TagShort, 0x03},
		{wire.TagInteger, 0x04},
		{wire.TagLong, 0x05},
		{wire.TagFloat, 0x06},
		{wire.TagDouble, 0x07},
		{wire.TagVarInt, 0x08},
		{wire.TagVarLong, 0x09},
		{wire.TagString, 0x20},
		{wire.TagBytes, 0x21},
		{wire.TagArray, 0x22},
		{wire.TagFixedBytes, 0xFE},
		{wire.TagMagic, 0xFF},
		{wire.TagSignedByte, 0xA2},
		{wire.TagSignedShort, 0xA3},
		{wire.TagSignedInteger, 0xA4},
		{wire.TagSignedLong, 0xA5},
	}
	for _, c := range cases {
		if byte(c.tag) != c.want {
			t.Fatalf("tag %s = 0x%02X, want 0x%02X", c.tag, byte(c.tag), c.want)
		}
	}
}

func TestProtocolMagicConstantsGolden(t *testing.T) {
	if chunk.Magic != 0x47525252 {
		t.Fatalf("chunk.Magic = 0x%08X, want 0x47525252", chunk.Magic)
	}
	if packet.Magic != 0x4D555354 {
		t.Fatalf("packet.Magic = 0x%08X, want 0x4D555354", packet.Magic)
	}
	if signal.Magic != 0x4D454154 {
		t.Fatalf("signal.Magic = 0x%08X, want 0x4D454154", signal.Magic)
	}
	if chunk.MaxChunkSize != 1024 || chunk.HeaderSize != 44 || chunk.MaxBodySize != 980 {
		t.Fatalf("chunk sizing constants drifted: size=%d header=%d body=%d",
			chunk.MaxChunkSize, chunk.HeaderSize, chunk.MaxBodySize)
	}
}

func TestRejectReasonConstantsGolden(t *testing.T) {
	cases := []struct {
		reason protoerr.RejectReason
		want   byte
	}{
		{protoerr.ReasonChunkHashMismatch, 0x00},
		{protoerr.ReasonInvalidChunk, 0x01},
		{protoerr.ReasonInvalidPacket, 0x02},
		{protoerr.ReasonFieldTypeMismatch, 0x03},
		{protoerr.ReasonBadFieldValue, 0x04},
		{protoerr.ReasonTimeout, 0xEF},
		{protoerr.ReasonRequestResend, 0xFF},
	}
	for _, c := range cases {
		if byte(c.reason) != c.want {
			t.Fatalf("reason = 0x%02X, want 0x%02X", byte(c.reason), c.want)
		}
	}
}

// TestEmptyPacketLayoutGolden pins the exact byte layout of an empty-body
// packet: magic, then a length varInt covering only the snowflake and id
// fields, then the fixed 16-byte snowflake, then the id varInt.
func TestEmptyPacketLayoutGolden(t *testing.T) {
	sf := [16]byte{}
	p := packet.New(0x00, sf, nil)
	got := p.Pack()

	if got[0] != 0xFF {
		t.Fatalf("expected leading magic tag 0xFF, got 0x%02X", got[0])
	}
	if binary.BigEndian.Uint32(got[1:5]) != packet.Magic {
		t.Fatalf("magic mismatch in packed bytes")
	}

	// varInt tag, length 19 (fixedBytes tag + 16 snowflake bytes + varInt
	// tag + 1 id byte), fixedBytes tag, zero snowflake, varInt tag, id 0.
	want := append([]byte{0xFF, 0x4D, 0x55, 0x53, 0x54, 0x08, 0x13, 0xFE}, make([]byte, 16)...)
	want = append(want, 0x08, 0x00)
	if string(got) != string(want) {
		t.Fatalf("packed empty packet = % X, want % X", got, want)
	}
}

// TestChunkLayoutGolden pins a single-chunk datagram's field order for a
// small body, computing the expected hash via the package's own XXH3 wrapper
// (already covered independently by xxh3sum_test.go) rather than a second
// hand-rolled implementation.
func TestChunkLayoutGolden(t *testing.T) {
	sf := [16]byte{0x01, 0x02, 0x03}
	body := []byte("golden")
	chunks := chunk.Chunkify(sf, body)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.Hash != xxh3sum.Sum64(body) {
		t.Fatalf("chunk hash does not match xxh3sum.Sum64 of its body")
	}

	packed := c.Pack()
	if packed[0] != 0xFF {
		t.Fatalf("expected leading magic tag, got 0x%02X", packed[0])
	}
	if binary.BigEndian.Uint32(packed[1:5]) != chunk.Magic {
		t.Fatalf("chunk magic mismatch")
	}
	if len(packed) != chunk.HeaderSize+len(body) {
		t.Fatalf("packed chunk length = %d, want %d", len(packed), chunk.HeaderSize+len(body))
	}
	if packed[5] != 0x03 || binary.BigEndian.Uint16(packed[6:8]) != uint16(len(body)) ||
		packed[8] != 0xFE || string(packed[9:25]) != string(sf[:]) ||
		packed[25] != 0xFE || binary.BigEndian.Uint64(packed[26:34]) != c.Hash ||
		packed[34] != 0x04 || binary.BigEndian.Uint32(packed[35:39]) != 0 ||
		packed[39] != 0x04 || binary.BigEndian.Uint32(packed[40:44]) != 1 ||
		string(packed[44:]) != string(body) {
		t.Fatalf("chunk header fields out of order: % X", packed)
	}

	reparsed, err := chunk.Parse(packed)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if string(reparsed.Body) != string(body) {
		t.Fatalf("body mismatch after parse: got %q want %q", reparsed.Body, body)
	}
}

// TestSignalTypeConstantsGolden pins the signal type byte values.
func TestSignalTypeConstantsGolden(t *testing.T) {
	cases := []struct {
		typ  signal.Type
		want byte
	}{
		{signal.TypeAcknowledged, 0x00},
		{signal.TypePartiallyAcknowledged, 0x01},
		{signal.TypeRejected, 0x02},
		{signal.TypePing, 0x10},
		{signal.TypePong, 0x11},
		{signal.TypeClose, 0xFF},
	}
	for _, c := range cases {
		if byte(c.typ) != c.want {
			t.Fatalf("signal type = 0x%02X, want 0x%02X", byte(c.typ), c.want)
		}
	}
}
