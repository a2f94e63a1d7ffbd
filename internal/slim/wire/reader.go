package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	protoerr "github.com/SamJakob/SLIM/internal/errors"
	"github.com/SamJakob/SLIM/internal/slim/varint"
)

// Reader walks a cursor over an immutable packet or signal body, decoding
// one tagged field at a time. A Reader is never safe for concurrent use.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a reader positioned at the start of buf.
func NewReader(buf []byte) *Reader { return &Reader{buf: buf} }

// Remaining reports how many bytes are left unread.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// ReadByte implements io.ByteReader so a Reader can directly back VarInt/VarLong decoding.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, protoerr.NewCodecError("reader.read_past_end", io.ErrUnexpectedEOF)
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *Reader) readN(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, protoerr.NewCodecError("reader.read_past_end", io.ErrUnexpectedEOF)
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *Reader) readTag() (Tag, error) {
	b, err := r.ReadByte()
	return Tag(b), err
}

func typeMismatch(want, got Tag) error {
	return protoerr.NewCodecError("reader.type_mismatch",
		fmt.Errorf("expected tag %s, got %s", want, got))
}

// expectTag consumes the next tag and fails unless it equals want.
func (r *Reader) expectTag(want Tag) error {
	tag, err := r.readTag()
	if err != nil {
		return err
	}
	if tag != want {
		return typeMismatch(want, tag)
	}
	return nil
}

// ReadBool reads a `boolean` field. present is false if the field was `none`.
func (r *Reader) ReadBool() (value bool, present bool, err error) {
	tag, err := r.readTag()
	if err != nil {
		return false, false, err
	}
	if tag == TagNone {
		return false, false, nil
	}
	if tag != TagBool {
		return false, false, typeMismatch(TagBool, tag)
	}
	b, err := r.ReadByte()
	if err != nil {
		return false, false, err
	}
	return b != 0, true, nil
}

func (r *Reader) readInteger(width int, signed bool) (int64, bool, error) {
	tag, err := r.readTag()
	if err != nil {
		return 0, false, err
	}
	if tag == TagNone {
		return 0, false, nil
	}
	want, _ := IntegerTag(width, signed)
	if tag != want {
		return 0, false, typeMismatch(want, tag)
	}
	b, err := r.readN(width / 8)
	if err != nil {
		return 0, false, err
	}
	var u uint64
	for _, c := range b {
		u = u<<8 | uint64(c)
	}
	if signed {
		switch width {
		case 8:
			return int64(int8(u)), true, nil
		case 16:
			return int64(int16(u)), true, nil
		case 32:
			return int64(int32(u)), true, nil
		default:
			return int64(u), true, nil
		}
	}
	return int64(u), true, nil
}

// ReadByteValue reads a `byte`/`signedByte` field.
func (r *Reader) ReadByteValue(signed bool) (int64, bool, error) { return r.readInteger(8, signed) }

// ReadShort reads a `short`/`signedShort` field.
func (r *Reader) ReadShort(signed bool) (int64, bool, error) { return r.readInteger(16, signed) }

// ReadInteger reads an `integer`/`signedInteger` field.
func (r *Reader) ReadInteger(signed bool) (int64, bool, error) { return r.readInteger(32, signed) }

// ReadLong reads a `long`/`signedLong` field.
func (r *Reader) ReadLong(signed bool) (int64, bool, error) { return r.readInteger(64, signed) }

// ReadFloat reads a `float` field.
func (r *Reader) ReadFloat() (float32, bool, error) {
	tag, err := r.readTag()
	if err != nil {
		return 0, false, err
	}
	if tag == TagNone {
		return 0, false, nil
	}
	if tag != TagFloat {
		return 0, false, typeMismatch(TagFloat, tag)
	}
	b, err := r.readN(4)
	if err != nil {
		return 0, false, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), true, nil
}

// ReadDouble reads a `double` field.
func (r *Reader) ReadDouble() (float64, bool, error) {
	tag, err := r.readTag()
	if err != nil {
		return 0, false, err
	}
	if tag == TagNone {
		return 0, false, nil
	}
	if tag != TagDouble {
		return 0, false, typeMismatch(TagDouble, tag)
	}
	b, err := r.readN(8)
	if err != nil {
		return 0, false, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), true, nil
}

// ReadVarInt reads a `varInt` field.
func (r *Reader) ReadVarInt() (uint32, bool, error) {
	tag, err := r.readTag()
	if err != nil {
		return 0, false, err
	}
	if tag == TagNone {
		return 0, false, nil
	}
	if tag != TagVarInt {
		return 0, false, typeMismatch(TagVarInt, tag)
	}
	v, err := varint.DecodeInt(r)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// ReadVarLong reads a `varLong` field.
func (r *Reader) ReadVarLong() (uint64, bool, error) {
	tag, err := r.readTag()
	if err != nil {
		return 0, false, err
	}
	if tag == TagNone {
		return 0, false, nil
	}
	if tag != TagVarLong {
		return 0, false, typeMismatch(TagVarLong, tag)
	}
	v, err := varint.DecodeLong(r)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// ReadString reads a `string` field. An absent/empty string is reported as
// present=false, mirroring the writer's none-aliasing of empty values.
func (r *Reader) ReadString() (string, bool, error) {
	tag, err := r.readTag()
	if err != nil {
		return "", false, err
	}
	if tag == TagNone {
		return "", false, nil
	}
	if tag != TagString {
		return "", false, typeMismatch(TagString, tag)
	}
	n, err := varint.DecodeInt(r)
	if err != nil {
		return "", false, err
	}
	b, err := r.readN(int(n))
	if err != nil {
		return "", false, err
	}
	return string(b), true, nil
}

// ReadBytes reads a `bytes` field.
func (r *Reader) ReadBytes() ([]byte, bool, error) {
	tag, err := r.readTag()
	if err != nil {
		return nil, false, err
	}
	if tag == TagNone {
		return nil, false, nil
	}
	if tag != TagBytes {
		return nil, false, typeMismatch(TagBytes, tag)
	}
	n, err := varint.DecodeInt(r)
	if err != nil {
		return nil, false, err
	}
	b, err := r.readN(int(n))
	if err != nil {
		return nil, false, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, true, nil
}

// ReadFixedBytes reads a `fixedBytes` field of exactly n bytes. Used for
// values whose length is known from context (snowflakes, hashes) and are
// never omitted.
func (r *Reader) ReadFixedBytes(n int) ([]byte, error) {
	if err := r.expectTag(TagFixedBytes); err != nil {
		return nil, err
	}
	b, err := r.readN(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// ReadMagic reads a `magic` field and fails unless it matches expected.
func (r *Reader) ReadMagic(expected uint32) error {
	if err := r.expectTag(TagMagic); err != nil {
		return err
	}
	b, err := r.readN(4)
	if err != nil {
		return err
	}
	got := binary.BigEndian.Uint32(b)
	if got != expected {
		return protoerr.NewCodecError("reader.magic_mismatch",
			fmt.Errorf("got %#08x, want %#08x", got, expected))
	}
	return nil
}

// ReadArray reads an `array` (or `none`) tag written by a typed array
// builder: it also reads the element count and the factored element tag
// shared by every element. present is false for an absent array, matching
// the zero-length/absent aliasing used throughout the wire format. Use
// ReadUntypedArrayHeader for an array whose elements carry individual tags.
func (r *Reader) ReadArray() (elementTag Tag, count uint32, present bool, err error) {
	tag, err := r.readTag()
	if err != nil {
		return TagNone, 0, false, err
	}
	if tag == TagNone {
		return TagNone, 0, false, nil
	}
	if tag != TagArray {
		return TagNone, 0, false, typeMismatch(TagArray, tag)
	}
	n, err := varint.DecodeInt(r)
	if err != nil {
		return TagNone, 0, false, err
	}
	elemTag, err := r.readTag()
	if err != nil {
		return TagNone, 0, false, err
	}
	return elemTag, n, true, nil
}

// ReadArrayElementInteger reads one typed-array element of the given width
// in skip-tag mode: the tag is already known (factored out by ReadArray) so
// only the raw value bytes are consumed.
func (r *Reader) ReadArrayElementInteger(width int, signed bool) (int64, error) {
	b, err := r.readN(width / 8)
	if err != nil {
		return 0, err
	}
	var u uint64
	for _, c := range b {
		u = u<<8 | uint64(c)
	}
	if signed {
		switch width {
		case 8:
			return int64(int8(u)), nil
		case 16:
			return int64(int16(u)), nil
		case 32:
			return int64(int32(u)), nil
		}
	}
	return int64(u), nil
}

// ReadArrayElementVarInt reads one typed-array varInt element in skip-tag mode.
func (r *Reader) ReadArrayElementVarInt() (uint32, error) { return varint.DecodeInt(r) }

// ReadUntypedArrayHeader reads an `array` (or `none`) tag for an untyped
// array and returns its element count, with no factored element tag to
// consume: each element carries its own tag and is read with the ordinary
// ReadBool/ReadInteger/ReadString/... methods, once per element. present is
// false for an absent array.
func (r *Reader) ReadUntypedArrayHeader() (count uint32, present bool, err error) {
	tag, err := r.readTag()
	if err != nil {
		return 0, false, err
	}
	if tag == TagNone {
		return 0, false, nil
	}
	if tag != TagArray {
		return 0, false, typeMismatch(TagArray, tag)
	}
	n, err := varint.DecodeInt(r)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}
