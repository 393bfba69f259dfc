package packet

import (
	"encoding/binary"
	"testing"
)

func TestWriter_WriteByte(t *testing.T) {
	w := Get()
	defer w.Put()

	if err := w.WriteByte(0x42); err != nil {
		t.Fatalf("WriteByte failed: %v", err)
	}

	data := w.Bytes()
	if len(data) != 1 || data[0] != 0x42 {
		t.Fatalf("Bytes() = %v, want [0x42]", data)
	}
}

func TestWriter_WriteShortInt(t *testing.T) {
	w := Get()
	defer w.Put()
	w.WriteShort(0x1234)
	w.WriteInt(0x12345678)

	data := w.Bytes()
	if len(data) != 6 {
		t.Fatalf("expected length 6, got %d", len(data))
	}
	if v := binary.LittleEndian.Uint16(data); v != 0x1234 {
		t.Errorf("short = 0x%04X, want 0x1234", v)
	}
	if v := binary.LittleEndian.Uint32(data[2:]); v != 0x12345678 {
		t.Errorf("int = 0x%08X, want 0x12345678", v)
	}
}

func TestWriter_PoolCopySurvivesPut(t *testing.T) {
	w := Get()
	w.WriteInt(7)
	cp := w.Copy()
	w.Put()

	w2 := Get()
	defer w2.Put()
	if w2.Len() != 0 {
		t.Errorf("pooled writer Len() = %d, want 0", w2.Len())
	}
	w2.WriteInt(9)

	if v := binary.LittleEndian.Uint32(cp); v != 7 {
		t.Errorf("copy = %d, want 7", v)
	}
}

func TestReader_RoundTrip(t *testing.T) {
	w := Get()
	defer w.Put()
	_ = w.WriteByte(0xAB)
	w.WriteShort(65535)
	w.WriteInt(42)

	r := NewReader(w.Bytes())
	b, err := r.ReadByte()
	if err != nil || b != 0xAB {
		t.Fatalf("ReadByte() = 0x%02X, %v", b, err)
	}
	s, err := r.ReadShort()
	if err != nil || s != 65535 {
		t.Fatalf("ReadShort() = %d, %v", s, err)
	}
	i, err := r.ReadInt()
	if err != nil || i != 42 {
		t.Fatalf("ReadInt() = %d, %v", i, err)
	}
	if r.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", r.Remaining())
	}
}

func TestReader_NotEnoughData(t *testing.T) {
	r := NewReader([]byte{1})
	if _, err := r.ReadInt(); err == nil {
		t.Error("ReadInt on 1 byte: expected error")
	}
	if _, err := r.ReadShort(); err == nil {
		t.Error("ReadShort on 1 byte: expected error")
	}
	if _, err := r.ReadByte(); err != nil {
		t.Errorf("ReadByte: %v", err)
	}
	if _, err := r.ReadByte(); err == nil {
		t.Error("ReadByte past end: expected error")
	}
}
