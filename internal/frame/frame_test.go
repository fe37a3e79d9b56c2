package frame

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// validFrame is a real Rev0Crc frame capture: a Hello-tagged frame with
// a single 8-byte segment, its preamble CRC, inline segment, and full
// 17-byte Rev0Crc epilogue.
var validFrame = []byte{
	01, 01, 36, 00, 00, 00, 08, 00, 00, 00, 00, 00, 00, 00, 00, 00, 00, 00, 00, 00, 00, 00, 00,
	00, 00, 00, 00, 00, 63, 189, 107, 06, 01, 01, 01, 01, 28, 00, 00, 00, 02, 00, 00, 00, 00,
	00, 00, 00, 16, 00, 00, 00, 02, 00, 221, 90, 10, 00, 01, 05, 00, 00, 00, 00, 00, 00, 00,
	00, 00, 105, 92, 102, 236, 00, 00, 00, 00, 00, 00, 00, 00, 00, 00, 00, 00,
}

func TestDecodePreambleAndFrame_ValidFrame(t *testing.T) {
	preambleBytes := validFrame[:PreambleSize]
	rest := validFrame[PreambleSize:]

	preamble, err := DecodePreamble(preambleBytes, FormatRev0Crc)
	require.NoError(t, err)
	require.Equal(t, TagHello, preamble.Tag)
	require.Equal(t, uint8(1), preamble.SegmentCount)
	require.Equal(t, uint32(36), preamble.Segments[0].Length)

	f, err := Decode(preamble, rest)
	require.NoError(t, err)
	require.Equal(t, TagHello, f.Tag)
	require.Len(t, f.Segments, 1)
	require.Len(t, f.Segments[0], 36)
}

func TestFrame_EncodeDecodeRoundTrip_Rev0Crc(t *testing.T) {
	f, err := NewFrame(TagClientIdent, []byte("segment one"), []byte("two"))
	require.NoError(t, err)

	encoded, err := f.Encode(FormatRev0Crc)
	require.NoError(t, err)

	preamble, err := DecodePreamble(encoded[:PreambleSize], FormatRev0Crc)
	require.NoError(t, err)

	got, err := Decode(preamble, encoded[PreambleSize:])
	require.NoError(t, err)
	require.Equal(t, f.Tag, got.Tag)
	require.Equal(t, f.Segments, got.Segments)
}

func TestFrame_EncodeDecodeRoundTrip_Rev1Crc(t *testing.T) {
	f, err := NewFrame(TagMessage, []byte("payload segment"), []byte("ab"))
	require.NoError(t, err)

	encoded, err := f.Encode(FormatRev1Crc)
	require.NoError(t, err)

	preamble, err := DecodePreamble(encoded[:PreambleSize], FormatRev1Crc)
	require.NoError(t, err)

	got, err := Decode(preamble, encoded[PreambleSize:])
	require.NoError(t, err)
	require.Equal(t, f.Tag, got.Tag)
	require.Equal(t, f.Segments, got.Segments)
}

func TestFrame_EncodeDecodeRoundTrip_Rev1Crc_SingleSegment(t *testing.T) {
	f, err := NewFrame(TagKeepalive2, []byte{1, 2, 3, 4})
	require.NoError(t, err)

	encoded, err := f.Encode(FormatRev1Crc)
	require.NoError(t, err)

	preamble, err := DecodePreamble(encoded[:PreambleSize], FormatRev1Crc)
	require.NoError(t, err)

	got, err := Decode(preamble, encoded[PreambleSize:])
	require.NoError(t, err)
	require.Equal(t, f.Segments, got.Segments)
}

func TestPreamble_TrailerLen_MatchesEncodedSize(t *testing.T) {
	cases := []struct {
		name     string
		format   Format
		segments [][]byte
	}{
		{"rev0crc single segment", FormatRev0Crc, [][]byte{[]byte("hello")}},
		{"rev0crc two segments", FormatRev0Crc, [][]byte{[]byte("segment one"), []byte("two")}},
		{"rev1crc single segment", FormatRev1Crc, [][]byte{[]byte{1, 2, 3, 4}}},
		{"rev1crc two segments", FormatRev1Crc, [][]byte{[]byte("payload segment"), []byte("ab")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := NewFrame(TagMessage, tc.segments...)
			require.NoError(t, err)

			encoded, err := f.Encode(tc.format)
			require.NoError(t, err)

			preamble, err := DecodePreamble(encoded[:PreambleSize], tc.format)
			require.NoError(t, err)

			require.Equal(t, len(encoded)-PreambleSize, preamble.TrailerLen())

			got, err := Decode(preamble, encoded[PreambleSize:])
			require.NoError(t, err)
			require.Equal(t, f.Segments, got.Segments)
		})
	}
}

func TestFrame_CorruptCRCFails(t *testing.T) {
	f, err := NewFrame(TagHello, []byte("hello"))
	require.NoError(t, err)

	encoded, err := f.Encode(FormatRev0Crc)
	require.NoError(t, err)

	// Flip a byte inside the segment data without touching the
	// preamble's own CRC.
	encoded[PreambleSize] ^= 0xFF

	preamble, err := DecodePreamble(encoded[:PreambleSize], FormatRev0Crc)
	require.NoError(t, err)

	_, err = Decode(preamble, encoded[PreambleSize:])
	require.Error(t, err)
}
