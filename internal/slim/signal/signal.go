// Package signal implements the small control-message channel that rides
// the same UDP transport as chunks: acknowledgements, rejections and
// keepalive pings/pongs, framed independently of the chunk/packet pipeline.
package signal

import (
	"encoding/binary"

	protoerr "github.com/SamJakob/SLIM/internal/errors"
	"github.com/SamJakob/SLIM/internal/slim/wire"
	"github.com/SamJakob/SLIM/internal/slim/xxh3sum"
)

// Magic is the 4-byte constant leading every signal datagram.
const Magic uint32 = 0x4D454154

// Type identifies the kind of control event a Signal carries.
type Type byte

const (
	TypeAcknowledged          Type = 0x00
	TypePartiallyAcknowledged Type = 0x01
	TypeRejected              Type = 0x02
	TypePing                  Type = 0x10
	TypePong                  Type = 0x11
	TypeClose                 Type = 0xFF
)

// Signal is a framed control message.
type Signal struct {
	Type Type
	Body []byte
}

// NewPing returns a bodyless ping signal.
func NewPing() *Signal { return &Signal{Type: TypePing} }

// NewPong returns a bodyless pong signal.
func NewPong() *Signal { return &Signal{Type: TypePong} }

// NewClose returns a bodyless close signal.
func NewClose() *Signal { return &Signal{Type: TypeClose} }

// NewAcknowledged builds an `acknowledged` signal for the given snowflake.
func NewAcknowledged(snowflake [16]byte) *Signal {
	w := wire.NewWriter()
	w.WriteFixedBytes(snowflake[:])
	return &Signal{Type: TypeAcknowledged, Body: w.Bytes()}
}

// NewPartiallyAcknowledged builds a `partiallyAcknowledged` signal carrying
// the snowflake and the typed array of chunk indices still missing.
func NewPartiallyAcknowledged(snowflake [16]byte, missing []uint32) (*Signal, error) {
	w := wire.NewWriter()
	w.WriteFixedBytes(snowflake[:])
	ab := wire.NewTypedArrayBuilder(wire.TagInteger)
	for _, idx := range missing {
		if err := ab.AppendInteger(int64(idx), 32, false); err != nil {
			return nil, err
		}
	}
	if err := w.WriteArray(ab); err != nil {
		return nil, err
	}
	return &Signal{Type: TypePartiallyAcknowledged, Body: w.Bytes()}, nil
}

// NewRejected builds a `rejected` signal for the given snowflake and reason.
func NewRejected(snowflake [16]byte, reason protoerr.RejectReason) (*Signal, error) {
	w := wire.NewWriter()
	w.WriteFixedBytes(snowflake[:])
	if err := w.WriteByte(int64(reason), false); err != nil {
		return nil, err
	}
	return &Signal{Type: TypeRejected, Body: w.Bytes()}, nil
}

// Snowflake extracts the leading snowflake from an acknowledged,
// partiallyAcknowledged or rejected signal's body.
func (s *Signal) Snowflake() ([16]byte, error) {
	r := wire.NewReader(s.Body)
	b, err := r.ReadFixedBytes(16)
	var out [16]byte
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// RejectReason extracts the optional reason byte from a `rejected` signal's
// body; ok is false when no reason byte was present.
func (s *Signal) RejectReason() (reason protoerr.RejectReason, ok bool, err error) {
	r := wire.NewReader(s.Body)
	if _, err = r.ReadFixedBytes(16); err != nil {
		return 0, false, err
	}
	v, present, err := r.ReadByteValue(false)
	if err != nil {
		return 0, false, err
	}
	if !present {
		return 0, false, nil
	}
	return protoerr.RejectReason(v), true, nil
}

// MissingIndices extracts the typed array of missing chunk indices from a
// `partiallyAcknowledged` signal's body.
func (s *Signal) MissingIndices() ([]uint32, error) {
	r := wire.NewReader(s.Body)
	if _, err := r.ReadFixedBytes(16); err != nil {
		return nil, err
	}
	elemTag, count, present, err := r.ReadArray()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	if elemTag != wire.TagInteger {
		return nil, errBadElementType
	}
	out := make([]uint32, count)
	for i := range out {
		v, err := r.ReadArrayElementInteger(32, false)
		if err != nil {
			return nil, err
		}
		out[i] = uint32(v)
	}
	return out, nil
}

// Pack encodes s into its on-wire datagram layout:
//
//	[magic tag][magic 0x4D454154][byte-or-none tag][length u8]
//	[fixedBytes tag][hash u64][byte tag][type u8][body]
//
// hash covers the 2-byte (tag, type) header and the body.
func (s *Signal) Pack() []byte {
	header := wire.NewWriter()
	_ = header.WriteByte(int64(s.Type), false)
	headerBytes := header.Bytes()

	hash := xxh3sum.Sum64Concat(headerBytes, s.Body)

	out := wire.NewWriter()
	out.WriteMagic(Magic)
	if len(s.Body) == 0 {
		out.WriteNone()
	} else {
		_ = out.WriteByte(int64(len(s.Body)), false)
	}
	var hashBytes [8]byte
	binary.BigEndian.PutUint64(hashBytes[:], hash)
	out.WriteFixedBytes(hashBytes[:])
	out.AppendRaw(headerBytes)
	out.AppendRaw(s.Body)
	return out.Bytes()
}

// IsSignal reports whether the leading magic of data identifies a signal
// datagram, without fully parsing it.
func IsSignal(data []byte) bool {
	return len(data) >= 5 && data[0] == 0xFF && binary.BigEndian.Uint32(data[1:5]) == Magic
}

// Parse decodes a signal datagram, verifying its magic, declared length and
// integrity hash.
func Parse(data []byte) (*Signal, error) {
	r := wire.NewReader(data)
	if err := r.ReadMagic(Magic); err != nil {
		return nil, protoerr.NewCodecError("signal.parse.magic", err)
	}
	length, present, err := r.ReadByteValue(false)
	if err != nil {
		return nil, protoerr.NewCodecError("signal.parse.length", err)
	}
	bodyLen := 0
	if present {
		bodyLen = int(length)
	}
	hashBytes, err := r.ReadFixedBytes(8)
	if err != nil {
		return nil, protoerr.NewCodecError("signal.parse.hash", err)
	}
	hash := binary.BigEndian.Uint64(hashBytes)

	typeVal, present, err := r.ReadByteValue(false)
	if err != nil {
		return nil, protoerr.NewCodecError("signal.parse.type", err)
	}
	if !present {
		return nil, protoerr.NewCodecError("signal.parse.type", errMissingType)
	}

	if r.Remaining() != bodyLen {
		return nil, protoerr.NewCodecError("signal.parse.length_mismatch", errBodyLengthMismatch)
	}
	body := make([]byte, bodyLen)
	copy(body, data[len(data)-r.Remaining():])

	header := wire.NewWriter()
	_ = header.WriteByte(typeVal, false)
	if xxh3sum.Sum64Concat(header.Bytes(), body) != hash {
		return nil, protoerr.NewCodecError("signal.parse.hash_mismatch", errHashMismatch)
	}

	return &Signal{Type: Type(typeVal), Body: body}, nil
}
