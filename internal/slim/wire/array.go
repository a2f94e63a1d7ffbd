package wire

import (
	"fmt"

	protoerr "github.com/SamJakob/SLIM/internal/errors"
	"github.com/SamJakob/SLIM/internal/slim/varint"
)

// ArrayBuilder accumulates array elements for a single `array` field. A
// typed builder fixes the element tag at construction and factors it out of
// the per-element encoding; an untyped builder carries a tag alongside each
// element.
type ArrayBuilder struct {
	elementTag  Tag
	typed       bool
	count       int
	body        []byte
	expectLen   int
	hasExpected bool
}

// NewTypedArrayBuilder returns a builder whose elements all share elementTag.
func NewTypedArrayBuilder(elementTag Tag) *ArrayBuilder {
	return &ArrayBuilder{elementTag: elementTag, typed: true}
}

// NewUntypedArrayBuilder returns a builder that tags each element individually.
func NewUntypedArrayBuilder() *ArrayBuilder {
	return &ArrayBuilder{typed: false}
}

// ValidateLength causes build to fail unless exactly n elements were appended.
func (b *ArrayBuilder) ValidateLength(n int) *ArrayBuilder {
	b.expectLen = n
	b.hasExpected = true
	return b
}

func (b *ArrayBuilder) appendRaw(tag Tag, value []byte) error {
	if b.typed && tag != b.elementTag {
		return protoerr.NewCodecError("array.element_type_mismatch",
			fmt.Errorf("expected element tag %s, got %s", b.elementTag, tag))
	}
	if !b.typed {
		b.body = append(b.body, byte(tag))
	}
	// Append the full value range [0, len(value)) — appends must copy every
	// byte through len(value), not len(value)-1.
	b.body = append(b.body, value...)
	b.count++
	return nil
}

// AppendBool appends a boolean element.
func (b *ArrayBuilder) AppendBool(v bool) error {
	val := byte(0)
	if v {
		val = 1
	}
	return b.appendRaw(TagBool, []byte{val})
}

// AppendInteger appends a byte/short/integer/long element of the given width
// (8, 16, 32 or 64), honoring sign.
func (b *ArrayBuilder) AppendInteger(v int64, width int, signed bool) error {
	if err := checkWidth(v, width, signed); err != nil {
		return err
	}
	tag, err := IntegerTag(width, signed)
	if err != nil {
		return err
	}
	buf := make([]byte, width/8)
	u := uint64(v)
	for i := len(buf) - 1; i >= 0; i-- {
		buf[i] = byte(u)
		u >>= 8
	}
	return b.appendRaw(tag, buf)
}

// AppendVarInt appends a varInt element.
func (b *ArrayBuilder) AppendVarInt(v uint32) error {
	return b.appendRaw(TagVarInt, varint.EncodeInt(nil, v))
}

// AppendVarLong appends a varLong element.
func (b *ArrayBuilder) AppendVarLong(v uint64) error {
	return b.appendRaw(TagVarLong, varint.EncodeLong(nil, v))
}

// AppendString appends a length-prefixed string element.
func (b *ArrayBuilder) AppendString(s string) error {
	buf := varint.EncodeInt(nil, uint32(len(s)))
	buf = append(buf, s...)
	return b.appendRaw(TagString, buf)
}

// build returns the encoded payload (count + optional factored tag +
// elements) and whether the array is empty, which the field writer encodes
// as a bare `none` tag instead.
func (b *ArrayBuilder) build() (payload []byte, empty bool, err error) {
	if b.hasExpected && b.count != b.expectLen {
		return nil, false, protoerr.NewCodecError("array.length_mismatch",
			fmt.Errorf("expected %d elements, got %d", b.expectLen, b.count))
	}
	if b.count == 0 {
		return nil, true, nil
	}
	out := varint.EncodeInt(nil, uint32(b.count))
	if b.typed {
		out = append(out, byte(b.elementTag))
	}
	out = append(out, b.body...)
	return out, false, nil
}
