package wire

import (
	"bytes"
	"testing"
)

func TestWriteReadScalars(t *testing.T) {
	w := NewWriter()
	w.WriteBool(true)
	if err := w.WriteByte(-5, true); err != nil {
		t.Fatalf("WriteByte: %v", err)
	}
	if err := w.WriteShort(40000, false); err != nil {
		t.Fatalf("WriteShort: %v", err)
	}
	if err := w.WriteInteger(-70000, true); err != nil {
		t.Fatalf("WriteInteger: %v", err)
	}
	if err := w.WriteLong(123456789012, false); err != nil {
		t.Fatalf("WriteLong: %v", err)
	}
	w.WriteFloat(3.5)
	w.WriteDouble(2.718281828)
	w.WriteVarInt(300)
	w.WriteVarLong(9000000000)
	w.WriteString("Howdy!")
	w.WriteBytes([]byte{1, 2, 3})
	w.WriteString("")

	r := NewReader(w.Bytes())

	if v, ok, err := r.ReadBool(); err != nil || !ok || !v {
		t.Fatalf("ReadBool: v=%v ok=%v err=%v", v, ok, err)
	}
	if v, ok, err := r.ReadByteValue(true); err != nil || !ok || v != -5 {
		t.Fatalf("ReadByteValue: v=%v ok=%v err=%v", v, ok, err)
	}
	if v, ok, err := r.ReadShort(false); err != nil || !ok || v != 40000 {
		t.Fatalf("ReadShort: v=%v ok=%v err=%v", v, ok, err)
	}
	if v, ok, err := r.ReadInteger(true); err != nil || !ok || v != -70000 {
		t.Fatalf("ReadInteger: v=%v ok=%v err=%v", v, ok, err)
	}
	if v, ok, err := r.ReadLong(false); err != nil || !ok || v != 123456789012 {
		t.Fatalf("ReadLong: v=%v ok=%v err=%v", v, ok, err)
	}
	if v, ok, err := r.ReadFloat(); err != nil || !ok || v != 3.5 {
		t.Fatalf("ReadFloat: v=%v ok=%v err=%v", v, ok, err)
	}
	if v, ok, err := r.ReadDouble(); err != nil || !ok || v != 2.718281828 {
		t.Fatalf("ReadDouble: v=%v ok=%v err=%v", v, ok, err)
	}
	if v, ok, err := r.ReadVarInt(); err != nil || !ok || v != 300 {
		t.Fatalf("ReadVarInt: v=%v ok=%v err=%v", v, ok, err)
	}
	if v, ok, err := r.ReadVarLong(); err != nil || !ok || v != 9000000000 {
		t.Fatalf("ReadVarLong: v=%v ok=%v err=%v", v, ok, err)
	}
	if v, ok, err := r.ReadString(); err != nil || !ok || v != "Howdy!" {
		t.Fatalf("ReadString: v=%v ok=%v err=%v", v, ok, err)
	}
	if v, ok, err := r.ReadBytes(); err != nil || !ok || !bytes.Equal(v, []byte{1, 2, 3}) {
		t.Fatalf("ReadBytes: v=%v ok=%v err=%v", v, ok, err)
	}
	if v, ok, err := r.ReadString(); err != nil || ok || v != "" {
		t.Fatalf("ReadString(empty): v=%v ok=%v err=%v", v, ok, err)
	}
}

func TestWriteIntegerOutOfRange(t *testing.T) {
	w := NewWriter()
	if err := w.WriteByte(300, false); err == nil {
		t.Fatalf("expected out-of-range error for byte value 300")
	}
	if err := w.WriteShort(-1, false); err == nil {
		t.Fatalf("expected out-of-range error for negative unsigned short")
	}
}

func TestReadTypeMismatch(t *testing.T) {
	w := NewWriter()
	w.WriteBool(true)
	r := NewReader(w.Bytes())
	if _, _, err := r.ReadInteger(false); err == nil {
		t.Fatalf("expected type mismatch reading integer over a bool field")
	}
}

func TestReadPastEnd(t *testing.T) {
	r := NewReader([]byte{byte(TagInteger), 0x01})
	if _, _, err := r.ReadInteger(false); err == nil {
		t.Fatalf("expected read-past-end error")
	}
}

func TestSignedVariantTable(t *testing.T) {
	cases := map[Tag]Tag{
		TagByte:    TagSignedByte,
		TagShort:   TagSignedShort,
		TagInteger: TagSignedInteger,
		TagLong:    TagSignedLong,
	}
	for unsigned, signed := range cases {
		if got := SignedVariant(unsigned); got != signed {
			t.Fatalf("SignedVariant(%s) = %s, want %s", unsigned, got, signed)
		}
		if got := UnsignedVariant(signed); got != unsigned {
			t.Fatalf("UnsignedVariant(%s) = %s, want %s", signed, got, unsigned)
		}
	}
}

func TestTypedArrayRoundTrip(t *testing.T) {
	b := NewTypedArrayBuilder(TagInteger)
	for _, v := range []int64{1, 2, 3} {
		if err := b.AppendInteger(v, 32, false); err != nil {
			t.Fatalf("AppendInteger: %v", err)
		}
	}
	w := NewWriter()
	if err := w.WriteArray(b); err != nil {
		t.Fatalf("WriteArray: %v", err)
	}

	r := NewReader(w.Bytes())
	elemTag, count, present, err := r.ReadArray()
	if err != nil || !present {
		t.Fatalf("ReadArray: present=%v err=%v", present, err)
	}
	if elemTag != TagInteger || count != 3 {
		t.Fatalf("unexpected array header: tag=%s count=%d", elemTag, count)
	}
	for i := uint32(0); i < count; i++ {
		v, err := r.ReadArrayElementInteger(32, false)
		if err != nil {
			t.Fatalf("element %d: %v", i, err)
		}
		if v != int64(i+1) {
			t.Fatalf("element %d = %d, want %d", i, v, i+1)
		}
	}
}

func TestEmptyArrayIsNone(t *testing.T) {
	b := NewTypedArrayBuilder(TagInteger)
	w := NewWriter()
	if err := w.WriteArray(b); err != nil {
		t.Fatalf("WriteArray: %v", err)
	}
	r := NewReader(w.Bytes())
	_, _, present, err := r.ReadArray()
	if err != nil {
		t.Fatalf("ReadArray: %v", err)
	}
	if present {
		t.Fatalf("expected empty array to read back as absent")
	}
}

func TestArrayValidateLengthMismatch(t *testing.T) {
	b := NewTypedArrayBuilder(TagInteger).ValidateLength(2)
	if err := b.AppendInteger(1, 32, false); err != nil {
		t.Fatalf("AppendInteger: %v", err)
	}
	w := NewWriter()
	if err := w.WriteArray(b); err == nil {
		t.Fatalf("expected length validation error")
	}
}

func TestArrayElementTypeMismatch(t *testing.T) {
	b := NewTypedArrayBuilder(TagInteger)
	if err := b.AppendVarInt(5); err == nil {
		t.Fatalf("expected element type mismatch error")
	}
}

func TestUntypedArrayRoundTrip(t *testing.T) {
	b := NewUntypedArrayBuilder()
	if err := b.AppendInteger(42, 32, false); err != nil {
		t.Fatalf("AppendInteger: %v", err)
	}
	if err := b.AppendBool(true); err != nil {
		t.Fatalf("AppendBool: %v", err)
	}
	if err := b.AppendString("mixed"); err != nil {
		t.Fatalf("AppendString: %v", err)
	}
	w := NewWriter()
	if err := w.WriteArray(b); err != nil {
		t.Fatalf("WriteArray: %v", err)
	}

	r := NewReader(w.Bytes())
	count, present, err := r.ReadUntypedArrayHeader()
	if err != nil || !present {
		t.Fatalf("ReadUntypedArrayHeader: present=%v err=%v", present, err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}

	i, present, err := r.ReadInteger(false)
	if err != nil || !present || i != 42 {
		t.Fatalf("element 0: i=%d present=%v err=%v", i, present, err)
	}
	bv, present, err := r.ReadBool()
	if err != nil || !present || !bv {
		t.Fatalf("element 1: v=%v present=%v err=%v", bv, present, err)
	}
	s, present, err := r.ReadString()
	if err != nil || !present || s != "mixed" {
		t.Fatalf("element 2: s=%q present=%v err=%v", s, present, err)
	}
}

func TestEmptyUntypedArrayIsNone(t *testing.T) {
	b := NewUntypedArrayBuilder()
	w := NewWriter()
	if err := w.WriteArray(b); err != nil {
		t.Fatalf("WriteArray: %v", err)
	}
	r := NewReader(w.Bytes())
	_, present, err := r.ReadUntypedArrayHeader()
	if err != nil {
		t.Fatalf("ReadUntypedArrayHeader: %v", err)
	}
	if present {
		t.Fatalf("expected empty untyped array to read back as absent")
	}
}

func TestMagicRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteMagic(0x4D555354)
	r := NewReader(w.Bytes())
	if err := r.ReadMagic(0x4D555354); err != nil {
		t.Fatalf("ReadMagic: %v", err)
	}
}

func TestMagicMismatch(t *testing.T) {
	w := NewWriter()
	w.WriteMagic(0x11223344)
	r := NewReader(w.Bytes())
	if err := r.ReadMagic(0x4D555354); err == nil {
		t.Fatalf("expected magic mismatch error")
	}
}
