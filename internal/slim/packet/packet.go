// Package packet implements the identified, body-carrying record that rides
// inside a reassembled chunk sequence: a 16-byte fragment identifier (the
// snowflake) shared by every chunk, an application-level id, and an opaque
// self-describing body produced by the wire field writer.
package packet

import (
	protoerr "github.com/SamJakob/SLIM/internal/errors"
	"github.com/SamJakob/SLIM/internal/slim/wire"
)

// Magic is the 4-byte constant leading every packed packet.
const Magic uint32 = 0x4D555354

// Packet is an identified, body-carrying record.
type Packet struct {
	ID        uint32
	Snowflake [16]byte
	Body      []byte
}

// New constructs a Packet ready for Pack.
func New(id uint32, snowflake [16]byte, body []byte) *Packet {
	return &Packet{ID: id, Snowflake: snowflake, Body: body}
}

// Pack composes the on-wire packet layout:
//
//	[magic tag][magic 0x4D555354][varInt tag][length varInt]
//	[fixedBytes tag][snowflake 16B][varInt tag][id varInt][body]
//
// length counts every byte from the end of the length varInt to the end of
// the packet (snowflake field, id field and body), never the tag bytes that
// precede the length field itself.
func (p *Packet) Pack() []byte {
	tail := wire.NewWriter()
	tail.WriteFixedBytes(p.Snowflake[:])
	tail.WriteVarInt(p.ID)
	tail.AppendRaw(p.Body)
	tailBytes := tail.Bytes()

	out := wire.NewWriter()
	out.WriteMagic(Magic)
	out.WriteVarInt(uint32(len(tailBytes)))
	out.AppendRaw(tailBytes)
	return out.Bytes()
}

// Parse decodes the tail of a packed packet — the caller (ParseFramed, after
// verifying the magic and length) hands in only the bytes from the snowflake
// field onward.
func Parse(body []byte) (*Packet, error) {
	r := wire.NewReader(body)
	snowflakeBytes, err := r.ReadFixedBytes(16)
	if err != nil {
		return nil, protoerr.NewPacketError("packet.parse.snowflake", err)
	}
	id, present, err := r.ReadVarInt()
	if err != nil {
		return nil, protoerr.NewPacketError("packet.parse.id", err)
	}
	if !present {
		return nil, protoerr.NewPacketError("packet.parse.id", errMissingID)
	}
	var snowflake [16]byte
	copy(snowflake[:], snowflakeBytes)
	rest := body[len(body)-r.Remaining():]
	payload := make([]byte, len(rest))
	copy(payload, rest)
	return &Packet{ID: id, Snowflake: snowflake, Body: payload}, nil
}

// ParseFramed decodes a full packed packet, including its leading magic and
// length fields, verifying that the declared length matches the number of
// bytes actually present after the length field.
func ParseFramed(data []byte) (*Packet, error) {
	r := wire.NewReader(data)
	if err := r.ReadMagic(Magic); err != nil {
		return nil, protoerr.NewPacketError("packet.parse.magic", err)
	}
	length, present, err := r.ReadVarInt()
	if err != nil {
		return nil, protoerr.NewPacketError("packet.parse.length", err)
	}
	if !present {
		return nil, protoerr.NewPacketError("packet.parse.length", errMissingLength)
	}
	if int(length) != r.Remaining() {
		return nil, protoerr.NewPacketError("packet.parse.length_mismatch", errLengthMismatch)
	}
	tail := data[len(data)-r.Remaining():]
	return Parse(tail)
}
