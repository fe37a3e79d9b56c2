package codec

import "encoding/binary"

// Reader walks a byte slice front-to-back, consuming bytes as primitives
// are decoded from it. It never copies bytes unless explicitly asked to
// (ReadBytesCopy, ReadFixed), so the []byte views ReadBytes returns stay
// backed by the caller's original buffer; ReadWireString returns a Go
// string, which is a copy.
type Reader struct {
	buf []byte
}

// NewReader wraps b for sequential decoding. b is not copied.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Remaining returns the bytes not yet consumed.
func (r *Reader) Remaining() []byte {
	return r.buf
}

// Len returns the number of unconsumed bytes.
func (r *Reader) Len() int {
	return len(r.buf)
}

func (r *Reader) take(n int) ([]byte, error) {
	if len(r.buf) < n {
		return nil, NotEnoughData(len(r.buf), n)
	}
	out := r.buf[:n]
	r.buf = r.buf[n:]
	return out, nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.ReadUint8()
	return int8(v), err
}

func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadUint8()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// ReadUint16BE reads a big-endian u16 (only EntityAddress's port field
// uses this; everything else on the wire is little-endian).
func (r *Reader) ReadUint16BE() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadRaw returns the next n bytes without copying them; the slice
// aliases the Reader's backing array.
func (r *Reader) ReadRaw(n int) ([]byte, error) {
	return r.take(n)
}

// ReadFixed copies the next n bytes into a new slice of length n.
func (r *Reader) ReadFixed(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadBytes decodes a u32 length prefix followed by that many bytes,
// returning a zero-copy view into the Reader's backing array.
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	return r.take(int(n))
}

// ReadBytesCopy is ReadBytes but returns an owned copy.
func (r *Reader) ReadBytesCopy() ([]byte, error) {
	b, err := r.ReadBytes()
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// ReadWireString decodes a length-prefixed UTF-8 string, the original's
// WireString. The result is copied out of the Reader's backing array; it
// is not a view into it.
func (r *Reader) ReadWireString() (string, error) {
	b, err := r.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Writer accumulates encoded bytes. It satisfies the append-only shape
// every wire type's Encode method writes into, plus WriteAt for
// patching a previously reserved length field once the payload size is
// known (used by versioned structs).
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) WriteByte(b byte) {
	w.buf = append(w.buf, b)
}

func (w *Writer) WriteRaw(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *Writer) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) WriteInt8(v int8) {
	w.WriteUint8(uint8(v))
}

func (w *Writer) WriteUint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteInt16(v int16) {
	w.WriteUint16(uint16(v))
}

func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

func (w *Writer) WriteUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteInt64(v int64) {
	w.WriteUint64(uint64(v))
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}
}

// WriteUint16BE writes a big-endian u16 (EntityAddress's port field).
func (w *Writer) WriteUint16BE(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteBytes writes a u32 length prefix followed by b.
func (w *Writer) WriteBytes(b []byte) {
	w.WriteUint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// WriteWireString writes a length-prefixed UTF-8 string.
func (w *Writer) WriteWireString(s string) {
	w.WriteBytes([]byte(s))
}

// ReserveUint32 appends a placeholder u32 and returns its offset so
// WriteAt can patch it once the real value is known.
func (w *Writer) ReserveUint32() int {
	off := len(w.buf)
	w.WriteUint32(0)
	return off
}

// PatchUint32 overwrites the u32 at off (previously produced by
// ReserveUint32) with v.
func (w *Writer) PatchUint32(off int, v uint32) {
	binary.LittleEndian.PutUint32(w.buf[off:off+4], v)
}
