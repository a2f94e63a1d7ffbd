// Package varint implements the two variable-length integer encodings used
// throughout the wire format: a 32-bit VarInt (1-5 bytes) and a 64-bit
// VarLong (1-10 bytes), both built from 7-bit segments with a continuation
// bit in the high bit of each byte.
package varint

import (
	"errors"
	"io"

	protoerr "github.com/SamJakob/SLIM/internal/errors"
)

const (
	maxVarIntBytes  = 5
	maxVarLongBytes = 10
)

var (
	errVarIntOverflow  = errors.New("varint: value wider than 32 bits")
	errVarLongOverflow = errors.New("varlong: value wider than 64 bits")
)

// EncodeInt appends the VarInt encoding of v to dst and returns the result.
func EncodeInt(dst []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
		if v == 0 {
			return dst
		}
	}
}

// EncodeLong appends the VarLong encoding of v to dst and returns the result.
func EncodeLong(dst []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
		if v == 0 {
			return dst
		}
	}
}

// DecodeInt reads a VarInt from r, failing with VarIntOverflow if a 5th
// continuation byte carries bits above position 4.
func DecodeInt(r io.ByteReader) (uint32, error) {
	var result uint32
	for i := 0; i < maxVarIntBytes; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, protoerr.NewCodecError("varint.decode", err)
		}
		if i == maxVarIntBytes-1 && b&0xF0 != 0 {
			return 0, protoerr.NewCodecError("varint.decode.overflow", errVarIntOverflow)
		}
		result |= uint32(b&0x7F) << (7 * uint(i))
		if b&0x80 == 0 {
			return result, nil
		}
	}
	return 0, protoerr.NewCodecError("varint.decode.overflow", errVarIntOverflow)
}

// DecodeLong reads a VarLong from r, failing with VarLongOverflow if a 10th
// continuation byte carries bits above position 1.
func DecodeLong(r io.ByteReader) (uint64, error) {
	var result uint64
	for i := 0; i < maxVarLongBytes; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, protoerr.NewCodecError("varlong.decode", err)
		}
		if i == maxVarLongBytes-1 && b&0xFE != 0 {
			return 0, protoerr.NewCodecError("varlong.decode.overflow", errVarLongOverflow)
		}
		result |= uint64(b&0x7F) << (7 * uint(i))
		if b&0x80 == 0 {
			return result, nil
		}
	}
	return 0, protoerr.NewCodecError("varlong.decode.overflow", errVarLongOverflow)
}

// SizeInt returns the number of bytes EncodeInt would produce for v.
func SizeInt(v uint32) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// SizeLong returns the number of bytes EncodeLong would produce for v.
func SizeLong(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
