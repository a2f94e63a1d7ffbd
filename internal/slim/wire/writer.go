package wire

import (
	"encoding/binary"
	"fmt"
	"math"

	protoerr "github.com/SamJakob/SLIM/internal/errors"
	"github.com/SamJakob/SLIM/internal/slim/varint"
)

// Writer accumulates a tagged, self-describing field sequence into a
// growable byte buffer. Each write is preceded by exactly one type tag,
// except values appended through an array builder constructed with a fixed
// element type, where the tag is factored out once for the whole array.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty field writer.
func NewWriter() *Writer { return &Writer{} }

// NewWriterWithBuf returns a field writer that appends into buf's backing
// array (buf is truncated to zero length first), letting a caller reuse a
// pooled buffer instead of the fresh allocation NewWriter makes.
func NewWriterWithBuf(buf []byte) *Writer { return &Writer{buf: buf[:0]} }

// Bytes returns the accumulated field bytes.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) putTag(t Tag) { w.buf = append(w.buf, byte(t)) }

func checkWidth(v int64, width int, signed bool) error {
	if width == 64 && !signed {
		if v < 0 {
			return protoerr.NewCodecError("writer.value_out_of_range",
				fmt.Errorf("value %d does not fit in unsigned 64-bit width", v))
		}
		return nil
	}
	min, max := widthBounds(width, signed)
	if v < min || v > max {
		return protoerr.NewCodecError("writer.value_out_of_range",
			fmt.Errorf("value %d does not fit in %d-bit %s width", v, width, signedness(signed)))
	}
	return nil
}

func signedness(signed bool) string {
	if signed {
		return "signed"
	}
	return "unsigned"
}

// WriteNone emits a single `none` tag, representing an omitted/null field.
func (w *Writer) WriteNone() { w.putTag(TagNone) }

// WriteBool emits a `boolean` tag followed by a single 0/1 byte.
func (w *Writer) WriteBool(v bool) {
	w.putTag(TagBool)
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

// WriteByte emits a (possibly signed) `byte` tag followed by 1 big-endian byte.
func (w *Writer) WriteByte(v int64, signed bool) error {
	if err := checkWidth(v, 8, signed); err != nil {
		return err
	}
	tag, _ := IntegerTag(8, signed)
	w.putTag(tag)
	w.buf = append(w.buf, byte(v))
	return nil
}

// WriteShort emits a (possibly signed) `short` tag followed by 2 big-endian bytes.
func (w *Writer) WriteShort(v int64, signed bool) error {
	if err := checkWidth(v, 16, signed); err != nil {
		return err
	}
	tag, _ := IntegerTag(16, signed)
	w.putTag(tag)
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(v))
	w.buf = append(w.buf, b[:]...)
	return nil
}

// WriteInteger emits a (possibly signed) `integer` tag followed by 4 big-endian bytes.
func (w *Writer) WriteInteger(v int64, signed bool) error {
	if err := checkWidth(v, 32, signed); err != nil {
		return err
	}
	tag, _ := IntegerTag(32, signed)
	w.putTag(tag)
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	w.buf = append(w.buf, b[:]...)
	return nil
}

// WriteLong emits a (possibly signed) `long` tag followed by 8 big-endian bytes.
func (w *Writer) WriteLong(v int64, signed bool) error {
	if err := checkWidth(v, 64, signed); err != nil {
		return err
	}
	tag, _ := IntegerTag(64, signed)
	w.putTag(tag)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	w.buf = append(w.buf, b[:]...)
	return nil
}

// WriteFloat emits a `float` tag followed by a big-endian IEEE-754 single.
func (w *Writer) WriteFloat(v float32) {
	w.putTag(TagFloat)
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], math.Float32bits(v))
	w.buf = append(w.buf, b[:]...)
}

// WriteDouble emits a `double` tag followed by a big-endian IEEE-754 double.
func (w *Writer) WriteDouble(v float64) {
	w.putTag(TagDouble)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	w.buf = append(w.buf, b[:]...)
}

// WriteVarInt emits a `varInt` tag followed by the VarInt encoding of v.
func (w *Writer) WriteVarInt(v uint32) {
	w.putTag(TagVarInt)
	w.buf = varint.EncodeInt(w.buf, v)
}

// WriteVarLong emits a `varLong` tag followed by the VarLong encoding of v.
func (w *Writer) WriteVarLong(v uint64) {
	w.putTag(TagVarLong)
	w.buf = varint.EncodeLong(w.buf, v)
}

// WriteString emits the UTF-8 bytes of s length-prefixed with a varInt, or a
// single `none` tag when s is empty — empty and absent are indistinguishable
// on the wire by design.
func (w *Writer) WriteString(s string) {
	if len(s) == 0 {
		w.WriteNone()
		return
	}
	w.putTag(TagString)
	w.buf = varint.EncodeInt(w.buf, uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// WriteBytes emits b length-prefixed with a varInt, or a single `none` tag
// when b is empty.
func (w *Writer) WriteBytes(b []byte) {
	if len(b) == 0 {
		w.WriteNone()
		return
	}
	w.putTag(TagBytes)
	w.buf = varint.EncodeInt(w.buf, uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// WriteFixedBytes emits a `fixedBytes` tag followed by b verbatim. Used for
// values whose length is known from context (snowflakes, hashes) rather than
// a length prefix.
func (w *Writer) WriteFixedBytes(b []byte) {
	w.putTag(TagFixedBytes)
	w.buf = append(w.buf, b...)
}

// WriteMagic emits a `magic` tag followed by the 4-byte big-endian constant v.
func (w *Writer) WriteMagic(v uint32) {
	w.putTag(TagMagic)
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// AppendRaw appends already-encoded bytes verbatim, with no tag of its own.
// Used to splice in a body that is itself a complete self-describing field
// sequence (a packet body, a chunk's tail past the header).
func (w *Writer) AppendRaw(b []byte) { w.buf = append(w.buf, b...) }

// WriteArray emits a `array` tag followed by the built payload from b, or a
// single `none` tag if the array is empty (same empty/absent aliasing as
// strings and byte blobs).
func (w *Writer) WriteArray(b *ArrayBuilder) error {
	payload, empty, err := b.build()
	if err != nil {
		return err
	}
	if empty {
		w.WriteNone()
		return nil
	}
	w.putTag(TagArray)
	w.buf = append(w.buf, payload...)
	return nil
}
