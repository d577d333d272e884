package graphite

import "encoding/binary"

// byteReader is a bounds-checked big-endian cursor over a table's bytes.
// Every read either returns a value and advances the cursor, or fails
// loudly: there is no silent truncation anywhere in face loading.
type byteReader struct {
	table string // table tag, for error context
	buf   []byte
	pos   int
}

func newByteReader(table string, buf []byte) *byteReader {
	return &byteReader{table: table, buf: buf}
}

func (r *byteReader) remaining() int { return len(r.buf) - r.pos }

func (r *byteReader) need(n int) error {
	if n < 0 || r.pos+n > len(r.buf) {
		return errTable(r.table, ErrTableTooShort, r.pos)
	}
	return nil
}

func (r *byteReader) u8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *byteReader) i8() (int8, error) {
	v, err := r.u8()
	return int8(v), err
}

func (r *byteReader) u16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *byteReader) i16() (int16, error) {
	v, err := r.u16()
	return int16(v), err
}

func (r *byteReader) u32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *byteReader) i32() (int32, error) {
	v, err := r.u32()
	return int32(v), err
}

// bytes reads n raw bytes without interpretation.
func (r *byteReader) bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	v := r.buf[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}

// peekU16 reads without advancing the cursor.
func (r *byteReader) peekU16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(r.buf[r.pos:]), nil
}

func (r *byteReader) seek(pos int) error {
	if pos < 0 || pos > len(r.buf) {
		return errTable(r.table, ErrOffsetOutOfRange, pos)
	}
	r.pos = pos
	return nil
}

// sliceRange returns buf[start:end], bounds-checked against the table end.
func sliceRange(table string, buf []byte, start, end int) ([]byte, error) {
	if start < 0 || end < start || end > len(buf) {
		return nil, errTable(table, ErrOffsetOutOfRange, start)
	}
	return buf[start:end], nil
}
