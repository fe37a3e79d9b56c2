package frame

import (
	"encoding/binary"
	"fmt"
)

// epilogueSizeV0 is the fixed trailer size Rev0Crc always uses: one
// late_flags byte plus four little-endian u32 CRCs, even for slots
// beyond the frame's actual segment count (those read back as zero).
const epilogueSizeV0 = 1 + 4*4

// needEpilogueRev1 reports whether a Rev1Crc frame needs a trailing
// epilogue at all: segment 0's CRC is already carried inline, so an
// epilogue is only required when a second or later segment exists to
// carry CRCs/completion flags for.
func needEpilogueRev1(segmentCount uint8) bool {
	return segmentCount > 1
}

// lateFlagsComplete is the late_flags byte value written (and expected
// on decode) for a frame whose epilogue indicates normal completion —
// as opposed to a frame abandoned mid-stream, which this implementation
// never produces.
func lateFlagsComplete(format Format) uint8 {
	switch format {
	case FormatRev0Crc:
		return 0x0
	default:
		return 0xE
	}
}

func isEpilogueComplete(format Format, lateFlags uint8) bool {
	switch format {
	case FormatRev0Crc:
		return lateFlags&0x1 == 0x0
	default:
		return lateFlags&0xF == 0xE
	}
}

// encodeEpilogue writes the CRC trailer for Rev0Crc/Rev1Crc frames.
// Rev0Crc always emits all four CRC slots; Rev1Crc only emits one when
// more than one segment is present (segment 0's CRC already rode along
// inline), and in that case emits CRCs for segments 1..3 only.
func encodeEpilogue(format Format, segmentCount uint8, crcs [4]uint32) []byte {
	switch format {
	case FormatRev0Crc:
		out := make([]byte, 0, epilogueSizeV0)
		out = append(out, lateFlagsComplete(format))
		for _, c := range crcs {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], c)
			out = append(out, b[:]...)
		}
		return out
	case FormatRev1Crc:
		if !needEpilogueRev1(segmentCount) {
			return nil
		}
		out := make([]byte, 0, 1+4*3)
		out = append(out, lateFlagsComplete(format))
		for _, c := range crcs[1:] {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], c)
			out = append(out, b[:]...)
		}
		return out
	default:
		return nil
	}
}

// decodeEpilogue reads the trailer for Rev0Crc/Rev1Crc, filling crcs[0]
// (Rev1Crc, already known from the inline CRC) or crcs[0..4] (Rev0Crc)
// and validating the completion marker.
func decodeEpilogue(format Format, segmentCount uint8, crcSegment1 uint32, trailer []byte) ([4]uint32, error) {
	var crcs [4]uint32

	switch format {
	case FormatRev0Crc:
		if len(trailer) != epilogueSizeV0 {
			return crcs, fmt.Errorf("frame: epilogue must be %d bytes, got %d", epilogueSizeV0, len(trailer))
		}
		lateFlags := trailer[0]
		for i := 0; i < 4; i++ {
			crcs[i] = binary.LittleEndian.Uint32(trailer[1+i*4 : 5+i*4])
		}
		if !isEpilogueComplete(format, lateFlags) {
			return crcs, fmt.Errorf("frame: epilogue late_flags 0x%02X did not indicate completion", lateFlags)
		}
		return crcs, nil

	case FormatRev1Crc:
		crcs[0] = crcSegment1
		if needEpilogueRev1(segmentCount) {
			want := 1 + 4*3
			if len(trailer) != want {
				return crcs, fmt.Errorf("frame: epilogue must be %d bytes, got %d", want, len(trailer))
			}
			lateFlags := trailer[0]
			for i := 0; i < 3; i++ {
				crcs[1+i] = binary.LittleEndian.Uint32(trailer[1+i*4 : 5+i*4])
			}
			if !isEpilogueComplete(format, lateFlags) {
				return crcs, fmt.Errorf("frame: epilogue late_flags 0x%02X did not indicate completion", lateFlags)
			}
			return crcs, nil
		}
		if len(trailer) != 0 {
			return crcs, fmt.Errorf("frame: expected empty epilogue, got %d trailing bytes", len(trailer))
		}
		return crcs, nil

	default:
		return crcs, fmt.Errorf("frame: decodeEpilogue does not support format %v", format)
	}
}
