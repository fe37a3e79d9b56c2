package frame

import (
	"encoding/binary"
	"fmt"
)

// Frame is a fully assembled msgr2 frame: a tag and up to four opaque
// segments. Encoding and decoding are format-dependent — see Format —
// but the segment contents themselves are always opaque bytes handed
// in by the msg layer above.
type Frame struct {
	Tag      Tag
	Segments [][]byte // 1..=4 entries
}

// NewFrame builds a Frame from 1 to 4 segments.
func NewFrame(tag Tag, segments ...[]byte) (Frame, error) {
	if len(segments) == 0 || len(segments) > 4 {
		return Frame{}, fmt.Errorf("frame: segment count must be 1..=4, got %d", len(segments))
	}
	return Frame{Tag: tag, Segments: segments}, nil
}

func (f Frame) preamble(format Format) Preamble {
	var details [4]SegmentDetail
	for i, seg := range f.Segments {
		details[i] = SegmentDetail{Length: uint32(len(seg)), Alignment: 1}
	}
	return Preamble{
		Format:       format,
		Tag:          f.Tag,
		SegmentCount: uint8(len(f.Segments)),
		Segments:     details,
	}
}

// Encode serializes the frame for format: preamble, segment data
// (padded and CRC'd per format), and the trailing epilogue.
//
// Rev1Secure's AEAD sealing happens one layer up, in the connection
// state machine, which has access to the session key and nonce;
// Rev0Secure is not encoded anywhere. Encode here only handles the two
// CRC formats.
func (f Frame) Encode(format Format) ([]byte, error) {
	if format != FormatRev0Crc && format != FormatRev1Crc {
		return nil, fmt.Errorf("frame: Encode only supports Rev0Crc/Rev1Crc, got %v", format)
	}

	preamble := f.preamble(format)
	out := preamble.Encode()

	var crcs [4]uint32
	for i, seg := range f.Segments {
		crc := segmentCRC(seg)
		crcs[i] = crc
		out = append(out, seg...)

		if format == FormatRev1Crc && i == 0 && len(seg) > 0 {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], crc)
			out = append(out, b[:]...)
		}
	}

	out = append(out, encodeEpilogue(format, uint8(len(f.Segments)), crcs)...)
	return out, nil
}

// Decode parses a frame's segment data and trailer given an
// already-decoded preamble, validating every segment's CRC against the
// epilogue (or inline CRC, for Rev1Crc's first segment).
func Decode(preamble Preamble, data []byte) (Frame, error) {
	if preamble.Format != FormatRev0Crc && preamble.Format != FormatRev1Crc {
		return Frame{}, fmt.Errorf("frame: Decode only supports Rev0Crc/Rev1Crc, got %v", preamble.Format)
	}

	trailer := data
	segments := make([][]byte, preamble.SegmentCount)

	var crcSegment1 uint32
	haveCRCSegment1 := false

	seg0Len := int(preamble.Segments[0].Length)
	seg, left, err := splitSegment(trailer, seg0Len)
	if err != nil {
		return Frame{}, err
	}
	segments[0] = seg
	trailer = left

	if preamble.Format == FormatRev1Crc && seg0Len == 0 {
		// An empty segment 0 carries no inline CRC on the wire.
		crcSegment1 = segmentCRC(nil)
		haveCRCSegment1 = true
	} else if preamble.Format == FormatRev1Crc {
		if len(trailer) < 4 {
			return Frame{}, fmt.Errorf("frame: not enough data for segment 0's inline CRC: have %d, need 4", len(trailer))
		}
		crcSegment1 = binary.LittleEndian.Uint32(trailer[:4])
		haveCRCSegment1 = true
		trailer = trailer[4:]
	}

	padSize := preamble.Format.SegmentPadSize()
	for i := 1; i < int(preamble.SegmentCount); i++ {
		paddedLen := nextMultipleOf(int(preamble.Segments[i].Length), padSize)
		segData, left, err := splitSegment(trailer, paddedLen)
		if err != nil {
			return Frame{}, err
		}
		segments[i] = segData[:preamble.Segments[i].Length]
		trailer = left
	}

	var crc1 uint32
	if haveCRCSegment1 {
		crc1 = crcSegment1
	}
	crcs, err := decodeEpilogue(preamble.Format, preamble.SegmentCount, crc1, trailer)
	if err != nil {
		return Frame{}, err
	}

	if preamble.Format.HasCRC() {
		for i := 0; i < int(preamble.SegmentCount); i++ {
			calculated := segmentCRC(segments[i])
			if calculated != crcs[i] {
				return Frame{}, fmt.Errorf("frame: CRC mismatch for segment #%d (received 0x%08X, calculated 0x%08X)", i+1, crcs[i], calculated)
			}
		}
		for i := int(preamble.SegmentCount); i < 4; i++ {
			if crcs[i] != 0 {
				return Frame{}, fmt.Errorf("frame: non-zero CRC 0x%08X for trailing segment #%d", crcs[i], i+1)
			}
		}
	}

	return Frame{Tag: preamble.Tag, Segments: segments}, nil
}

func splitSegment(buf []byte, n int) ([]byte, []byte, error) {
	if len(buf) < n {
		return nil, nil, fmt.Errorf("frame: not enough data for segment: have %d, need %d", len(buf), n)
	}
	return buf[:n], buf[n:], nil
}

func nextMultipleOf(n, multiple int) int {
	if multiple <= 1 {
		return n
	}
	rem := n % multiple
	if rem == 0 {
		return n
	}
	return n + (multiple - rem)
}
