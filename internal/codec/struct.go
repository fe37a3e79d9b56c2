package codec

// StructWriter helps encode a version-prefixed struct: a version byte
// (optionally followed by a compat-version byte), then a u32 byte
// length covering everything that follows, so that a reader built
// against an older version can skip the struct entirely.
type StructWriter struct {
	w      *Writer
	lenOff int
}

// BeginStruct writes a single version byte followed by a reserved u32
// length field, returning a handle that must be closed with End once
// the struct's fields have been written.
func BeginStruct(w *Writer, version uint8) *StructWriter {
	w.WriteUint8(version)
	return &StructWriter{w: w, lenOff: w.ReserveUint32()}
}

// BeginStructCompat writes the {version, compat} byte pair used by
// structs that declare a minimum version a reader must support to even
// attempt decoding, followed by the reserved u32 length field.
func BeginStructCompat(w *Writer, version, compat uint8) *StructWriter {
	w.WriteUint8(version)
	w.WriteUint8(compat)
	return &StructWriter{w: w, lenOff: w.ReserveUint32()}
}

// End patches the reserved length field with the number of bytes
// written since BeginStruct/BeginStructCompat.
func (s *StructWriter) End() {
	inner := s.w.Len() - s.lenOff - 4
	s.w.PatchUint32(s.lenOff, uint32(inner))
}

// StructHeader is the result of decoding a version-prefixed struct's
// header: the version actually found on the wire, and a Reader scoped
// to exactly the struct's declared inner length (so trailing fields
// added by a newer writer are silently and safely skipped).
type StructHeader struct {
	Version uint8
	Compat  uint8
	Inner   *Reader
}

// ReadStruct decodes a single version byte and the u32 inner length,
// validates the version against [min, max], and returns a Reader scoped
// to the struct body.
func ReadStruct(r *Reader, typeName string, min, max uint8) (*StructHeader, error) {
	version, err := r.ReadUint8()
	if err != nil {
		return nil, err.(*DecodeError).ForField("version")
	}
	if version < min || version > max {
		return nil, UnexpectedVersion(typeName, version, min, max)
	}
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err.(*DecodeError).ForField("struct_len")
	}
	body, rawErr := r.ReadRaw(int(n))
	if rawErr != nil {
		return nil, rawErr.(*DecodeError).ForField("struct_body")
	}
	return &StructHeader{Version: version, Inner: NewReader(body)}, nil
}

// ReadStructCompat is ReadStruct for structs encoded with the
// {version, compat} byte pair. compatMax bounds the compat byte: a
// reader only need support compat <= compatMax to decode; compat
// values above that are rejected as this reader is too old for the
// writer's compatibility floor.
func ReadStructCompat(r *Reader, typeName string, min, max, compatMax uint8) (*StructHeader, error) {
	version, err := r.ReadUint8()
	if err != nil {
		return nil, err.(*DecodeError).ForField("version")
	}
	compat, err := r.ReadUint8()
	if err != nil {
		return nil, err.(*DecodeError).ForField("compat")
	}
	if compat > compatMax {
		return nil, UnexpectedVersion(typeName, compat, 0, compatMax)
	}
	if version < min || version > max {
		return nil, UnexpectedVersion(typeName, version, min, max)
	}
	n, lenErr := r.ReadUint32()
	if lenErr != nil {
		return nil, lenErr.(*DecodeError).ForField("struct_len")
	}
	body, rawErr := r.ReadRaw(int(n))
	if rawErr != nil {
		return nil, rawErr.(*DecodeError).ForField("struct_body")
	}
	return &StructHeader{Version: version, Compat: compat, Inner: NewReader(body)}, nil
}
