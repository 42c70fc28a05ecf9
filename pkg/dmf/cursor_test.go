package dmf

import (
	"errors"
	"testing"
)

func TestCursorReads(t *testing.T) {
	c := NewCursor([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0xFE})

	u8, err := c.ReadU8()
	if err != nil || u8 != 0x01 {
		t.Fatalf("ReadU8() = %#x, %v; want 0x01", u8, err)
	}
	u16, err := c.ReadU16()
	if err != nil || u16 != 0x0203 {
		t.Fatalf("ReadU16() = %#x, %v; want 0x0203", u16, err)
	}
	u32, err := c.ReadU32()
	if err != nil || u32 != 0x04050607 {
		t.Fatalf("ReadU32() = %#x, %v; want 0x04050607", u32, err)
	}
	i8, err := c.ReadI8()
	if err != nil || i8 != -2 {
		t.Fatalf("ReadI8() = %d, %v; want -2", i8, err)
	}
	if c.Pos() != 8 {
		t.Errorf("Pos() = %d, want 8", c.Pos())
	}
}

func TestCursorOutOfBounds(t *testing.T) {
	tests := []struct {
		name  string
		start int
		read  func(c *Cursor) error
	}{
		{"u8 at end", 2, func(c *Cursor) error { _, err := c.ReadU8(); return err }},
		{"u16", 1, func(c *Cursor) error { _, err := c.ReadU16(); return err }},
		{"u32", 1, func(c *Cursor) error { _, err := c.ReadU32(); return err }},
		{"bytes", 1, func(c *Cursor) error { _, err := c.ReadBytes(2); return err }},
		{"negative bytes", 1, func(c *Cursor) error { _, err := c.ReadBytes(-1); return err }},
		{"seek past end", 1, func(c *Cursor) error { return c.Seek(3) }},
		{"seek negative", 1, func(c *Cursor) error { return c.Seek(-1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCursor([]byte{0xAA, 0xBB})
			if err := c.Seek(tt.start); err != nil {
				t.Fatal(err)
			}
			err := tt.read(&c)
			if !errors.Is(err, ErrOutOfBounds) {
				t.Fatalf("error = %v, want ErrOutOfBounds", err)
			}
			if c.Pos() != tt.start {
				t.Errorf("failed read moved cursor to %d", c.Pos())
			}
		})
	}
}

func TestCursorCopiesAreIndependent(t *testing.T) {
	a := NewCursor([]byte{1, 2, 3})
	b := a
	if _, err := a.ReadU16(); err != nil {
		t.Fatal(err)
	}
	if b.Pos() != 0 {
		t.Errorf("copy moved with its source: Pos() = %d", b.Pos())
	}
	v, _ := b.ReadU8()
	if v != 1 {
		t.Errorf("copy read %d, want 1", v)
	}
}

func TestCursorSeekToEnd(t *testing.T) {
	c := NewCursor([]byte{1, 2})
	if err := c.Seek(2); err != nil {
		t.Fatalf("Seek(len) error = %v", err)
	}
	if _, err := c.ReadU8(); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("read at end error = %v, want ErrOutOfBounds", err)
	}
}
