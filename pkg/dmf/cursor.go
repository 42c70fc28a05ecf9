package dmf

import (
	"encoding/binary"
	"fmt"
)

// Cursor is a bounds-checked big-endian reader over an immutable buffer.
// It is a value type: copying a Cursor forks the read position, which is how
// every track gets its own pointer into the same sequence data.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor returns a cursor positioned at offset 0 of buf.
func NewCursor(buf []byte) Cursor {
	return Cursor{buf: buf}
}

// Pos returns the current read position.
func (c *Cursor) Pos() int {
	return c.pos
}

// Len returns the size of the underlying buffer.
func (c *Cursor) Len() int {
	return len(c.buf)
}

// Seek moves the cursor to an absolute offset. Seeking to len(buf) is allowed
// (nothing can be read from there).
func (c *Cursor) Seek(offset int) error {
	if offset < 0 || offset > len(c.buf) {
		return fmt.Errorf("%w: seek to 0x%X (size 0x%X)", ErrOutOfBounds, offset, len(c.buf))
	}
	c.pos = offset
	return nil
}

func (c *Cursor) need(n int) error {
	if n < 0 || c.pos+n > len(c.buf) {
		return fmt.Errorf("%w: %d byte(s) at 0x%X (size 0x%X)", ErrOutOfBounds, n, c.pos, len(c.buf))
	}
	return nil
}

// ReadU8 reads one byte.
func (c *Cursor) ReadU8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.buf[c.pos]
	c.pos++
	return v, nil
}

// ReadI8 reads one signed byte.
func (c *Cursor) ReadI8() (int8, error) {
	v, err := c.ReadU8()
	return int8(v), err
}

// ReadU16 reads a big-endian 16-bit value.
func (c *Cursor) ReadU16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v, nil
}

// ReadU32 reads a big-endian 32-bit value.
func (c *Cursor) ReadU32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

// ReadBytes returns the next n bytes. The returned slice aliases the buffer
// and must not be modified.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.buf[c.pos : c.pos+n : c.pos+n]
	c.pos += n
	return b, nil
}
