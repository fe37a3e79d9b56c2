package frame

import (
	"encoding/binary"
	"fmt"
)

const (
	// PreambleSize is the fixed 32-byte size of every frame's preamble:
	// tag, segment count, four 6-byte segment details, flags, a
	// reserved byte, and a trailing 4-byte CRC.
	PreambleSize = 32

	preambleBodySize = 28 // everything the trailing CRC covers

	rev1SecureInlineSize = 48
	rev1SecurePadSize    = 16

	aesGCMTagSize = 16
)

// SegmentDetail describes one frame segment's length and required
// alignment padding, as declared in the preamble ahead of the segment
// data itself.
type SegmentDetail struct {
	Length    uint32
	Alignment uint16
}

func (d SegmentDetail) write(out []byte) []byte {
	var b [6]byte
	binary.LittleEndian.PutUint32(b[0:4], d.Length)
	binary.LittleEndian.PutUint16(b[4:6], d.Alignment)
	return append(out, b[:]...)
}

func parseSegmentDetail(b [6]byte) SegmentDetail {
	return SegmentDetail{
		Length:    binary.LittleEndian.Uint32(b[0:4]),
		Alignment: binary.LittleEndian.Uint16(b[4:6]),
	}
}

// Preamble is the fixed-size header in front of every msgr2 frame: its
// tag, how many of the up to 4 segments are populated and their
// individual lengths/alignments, a flags byte and a reserved byte. The
// CRC32 that follows those 28 bytes on the wire, in every format, is
// written by Encode and checked by DecodePreamble rather than stored.
type Preamble struct {
	Format        Format
	Tag           Tag
	SegmentCount  uint8 // 1..=4
	Segments      [4]SegmentDetail
	Flags         uint8
	Reserved      uint8
}

// PreambleLen returns the number of bytes a preamble occupies on the
// wire for format, including the Rev1Secure inline-data and AEAD-tag
// extension.
func PreambleLen(format Format) int {
	switch format {
	case FormatRev1Secure:
		return PreambleSize + rev1SecureInlineSize + aesGCMTagSize
	default:
		return PreambleSize
	}
}

// activeSegments returns the SegmentCount populated entries of Segments.
func (p Preamble) activeSegments() []SegmentDetail {
	return p.Segments[:p.SegmentCount]
}

// TrailerLen returns the exact number of bytes that follow this
// preamble on the wire for Rev0Crc/Rev1Crc formats: every segment
// (segments beyond the first padded to the format's SegmentPadSize, as
// Decode reads them), Rev1Crc's inline segment-0 CRC when segment 0 is
// non-empty, and the epilogue. Callers read exactly this many bytes past
// the PreambleSize-byte preamble before calling Decode — Decode rejects
// a trailer that is any longer or shorter than what the epilogue
// expects.
//
// Rev1Secure frames don't use this method: their length is the sealed
// inline block of PreambleLen(FormatRev1Secure) bytes plus, for frames
// that overflow it, a sealed trailing block (see internal/connection).
func (p Preamble) TrailerLen() int {
	seg0Len := int(p.Segments[0].Length)
	total := seg0Len

	if p.Format == FormatRev1Crc && seg0Len > 0 {
		total += 4 // segment 0's inline CRC
	}

	padSize := p.Format.SegmentPadSize()
	for i := 1; i < int(p.SegmentCount); i++ {
		total += nextMultipleOf(int(p.Segments[i].Length), padSize)
	}

	switch p.Format {
	case FormatRev0Crc:
		total += epilogueSizeV0
	case FormatRev1Crc:
		if needEpilogueRev1(p.SegmentCount) {
			total += 1 + 4*3
		}
	}

	return total
}

// Encode writes the 32-byte preamble body plus its CRC32.
func (p Preamble) Encode() []byte {
	out := make([]byte, 0, PreambleSize)
	out = append(out, byte(p.Tag), p.SegmentCount)

	for i := 0; i < 4; i++ {
		if uint8(i) < p.SegmentCount {
			out = p.Segments[i].write(out)
		} else {
			out = append(out, 0, 0, 0, 0, 0, 0)
		}
	}

	out = append(out, p.Flags, p.Reserved)

	crc := preambleCRC(out)
	var crcBytes [4]byte
	binary.LittleEndian.PutUint32(crcBytes[:], crc)
	return append(out, crcBytes[:]...)
}

// DecodePreamble parses a PreambleSize-byte buffer for format.
func DecodePreamble(buf []byte, format Format) (Preamble, error) {
	if len(buf) != PreambleSize {
		return Preamble{}, fmt.Errorf("frame: preamble must be exactly %d bytes, got %d", PreambleSize, len(buf))
	}

	tag, err := TagFromByte(buf[0])
	if err != nil {
		return Preamble{}, err
	}

	segmentCount := buf[1]
	if segmentCount == 0 {
		return Preamble{}, fmt.Errorf("frame: segment count was zero")
	}
	if segmentCount > 4 {
		return Preamble{}, fmt.Errorf("frame: segment count %d greater than 4", segmentCount)
	}

	var segments [4]SegmentDetail
	for i := 0; i < int(segmentCount); i++ {
		off := 2 + i*6
		var chunk [6]byte
		copy(chunk[:], buf[off:off+6])
		segments[i] = parseSegmentDetail(chunk)
	}

	flags := buf[26]
	reserved := buf[27]
	crc := binary.LittleEndian.Uint32(buf[28:32])

	calculated := preambleCRC(buf[:preambleBodySize])
	if calculated != crc {
		return Preamble{}, fmt.Errorf("frame: preamble CRC mismatch (received 0x%08X, calculated 0x%08X)", crc, calculated)
	}

	return Preamble{
		Format:       format,
		Tag:          tag,
		SegmentCount: segmentCount,
		Segments:     segments,
		Flags:        flags,
		Reserved:     reserved,
	}, nil
}
