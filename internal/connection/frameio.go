package connection

import (
	"fmt"

	"github.com/marmos91/cephmsgr/internal/frame"
)

// aesGCMTagSize is the detached AES-128-GCM authentication tag length
// EncryptGCM/DecryptGCM append to every sealed blob.
const aesGCMTagSize = 16

// secureInlineCapacity is how many segment-0 bytes this implementation
// seals inline alongside the preamble in Rev1Secure mode, derived from
// internal/frame's own PreambleLen accounting so the two stay in sync.
var secureInlineCapacity = frame.PreambleLen(frame.FormatRev1Secure) - frame.PreambleSize - aesGCMTagSize

// secureEpilogueSize is the fixed size of the completion marker sealed
// alongside any Rev1Secure trailing block.
const secureEpilogueSize = 16

// secureEpilogueLateFlags is the completion marker internal/frame's
// (unexported) lateFlagsComplete writes for every non-Rev0Crc format.
const secureEpilogueLateFlags = 0xE

// encodeFrame serializes f for format, sealing it under enc's tx key
// and nonce when format is a Secure variant.
func encodeFrame(f frame.Frame, enc *FrameEncryption, format frame.Format) ([]byte, error) {
	switch format {
	case frame.FormatRev0Crc, frame.FormatRev1Crc:
		return f.Encode(format)
	case frame.FormatRev1Secure:
		return encodeSecureFrame(f, enc)
	default:
		return nil, fmt.Errorf("connection: %v frames are not implemented by this client", format)
	}
}

// decodeFrame is the inverse of encodeFrame, unsealing wire under enc's
// rx key and nonce for Secure formats.
func decodeFrame(wire []byte, enc *FrameEncryption, format frame.Format) (frame.Frame, error) {
	switch format {
	case frame.FormatRev0Crc, frame.FormatRev1Crc:
		if len(wire) < frame.PreambleSize {
			return frame.Frame{}, fmt.Errorf("connection: frame shorter than a preamble: got %d bytes", len(wire))
		}
		preamble, err := frame.DecodePreamble(wire[:frame.PreambleSize], format)
		if err != nil {
			return frame.Frame{}, err
		}
		return frame.Decode(preamble, wire[frame.PreambleSize:])
	case frame.FormatRev1Secure:
		return decodeSecureFrame(wire, enc)
	default:
		return frame.Frame{}, fmt.Errorf("connection: %v frames are not implemented by this client", format)
	}
}

// encodeSecureFrame seals f into its Rev1Secure wire form. The preamble
// and up to secureInlineCapacity bytes of segment 0 are sealed inline
// as one AES-128-GCM block, matching PreambleLen(Rev1Secure). When
// segment 0 overflows that inline capacity, or the frame carries more
// than one segment, the remaining segment-0 bytes plus any further
// segments (each padded to the format's SegmentPadSize) are sealed as
// a second, independently-nonced
// AEAD block alongside a 16-byte completion epilogue.
func encodeSecureFrame(f frame.Frame, enc *FrameEncryption) ([]byte, error) {
	if len(f.Segments) == 0 || len(f.Segments) > 4 {
		return nil, fmt.Errorf("connection: secure-mode frame must have 1..=4 segments, got %d", len(f.Segments))
	}
	key, ok := enc.SessionKey()
	if !ok {
		return nil, fmt.Errorf("connection: Rev1Secure format selected without a session key installed")
	}

	var details [4]frame.SegmentDetail
	for i, seg := range f.Segments {
		details[i] = frame.SegmentDetail{Length: uint32(len(seg)), Alignment: 1}
	}
	preamble := frame.Preamble{
		Format:       frame.FormatRev1Secure,
		Tag:          f.Tag,
		SegmentCount: uint8(len(f.Segments)),
		Segments:     details,
	}

	seg0 := f.Segments[0]
	inlineLen := len(seg0)
	if inlineLen > secureInlineCapacity {
		inlineLen = secureInlineCapacity
	}

	inlinePlain := make([]byte, frame.PreambleSize+secureInlineCapacity)
	copy(inlinePlain, preamble.Encode())
	copy(inlinePlain[frame.PreambleSize:], seg0[:inlineLen])

	txNonce, err := enc.nextTxNonce()
	if err != nil {
		return nil, err
	}
	tag, err := key.EncryptGCM(txNonce, inlinePlain)
	if err != nil {
		return nil, fmt.Errorf("connection: sealing secure frame: %w", err)
	}
	out := append(inlinePlain, tag[:]...)

	if len(f.Segments) == 1 && inlineLen == len(seg0) {
		return out, nil
	}

	padSize := frame.FormatRev1Secure.SegmentPadSize()
	trailing := secureTrailingPlaintext(f, padSize)
	epilogue := make([]byte, secureEpilogueSize)
	epilogue[0] = secureEpilogueLateFlags
	trailingPlain := append(trailing, epilogue...)

	trailingNonce, err := enc.nextTxNonce()
	if err != nil {
		return nil, err
	}
	trailingTag, err := key.EncryptGCM(trailingNonce, trailingPlain)
	if err != nil {
		return nil, fmt.Errorf("connection: sealing secure frame trailer: %w", err)
	}
	out = append(out, trailingPlain...)
	out = append(out, trailingTag[:]...)
	return out, nil
}

// decodeSecureFrame is the inverse of encodeSecureFrame.
func decodeSecureFrame(wire []byte, enc *FrameEncryption) (frame.Frame, error) {
	key, ok := enc.SessionKey()
	if !ok {
		return frame.Frame{}, fmt.Errorf("connection: Rev1Secure format selected without a session key installed")
	}

	inlineBlockLen := frame.PreambleSize + secureInlineCapacity + aesGCMTagSize
	if len(wire) < inlineBlockLen {
		return frame.Frame{}, fmt.Errorf("connection: secure frame shorter than its inline block: got %d bytes, need at least %d", len(wire), inlineBlockLen)
	}

	rxNonce, err := enc.nextRxNonce()
	if err != nil {
		return frame.Frame{}, err
	}
	inlineSealed := append([]byte(nil), wire[:inlineBlockLen]...)
	inlinePlain, err := key.DecryptGCM(rxNonce, inlineSealed)
	if err != nil {
		return frame.Frame{}, fmt.Errorf("connection: unsealing secure frame: %w", err)
	}

	preamble, err := frame.DecodePreamble(inlinePlain[:frame.PreambleSize], frame.FormatRev1Secure)
	if err != nil {
		return frame.Frame{}, err
	}

	seg0Len := int(preamble.Segments[0].Length)
	inlineLen := seg0Len
	if inlineLen > secureInlineCapacity {
		inlineLen = secureInlineCapacity
	}

	segments := make([][]byte, preamble.SegmentCount)
	segments[0] = append([]byte(nil), inlinePlain[frame.PreambleSize:frame.PreambleSize+inlineLen]...)

	rest := wire[inlineBlockLen:]
	needsTrailing := preamble.SegmentCount > 1 || seg0Len > secureInlineCapacity
	if !needsTrailing {
		if len(rest) != 0 {
			return frame.Frame{}, fmt.Errorf("connection: secure frame has %d unexpected trailing bytes", len(rest))
		}
		return frame.Frame{Tag: preamble.Tag, Segments: segments}, nil
	}

	padSize := frame.FormatRev1Secure.SegmentPadSize()
	trailingPlainLen := secureTrailingLen(preamble, padSize)
	wantTrailingWire := trailingPlainLen + secureEpilogueSize + aesGCMTagSize
	if len(rest) != wantTrailingWire {
		return frame.Frame{}, fmt.Errorf("connection: secure frame trailing block must be %d bytes, got %d", wantTrailingWire, len(rest))
	}

	trailingRxNonce, err := enc.nextRxNonce()
	if err != nil {
		return frame.Frame{}, err
	}
	trailingSealed := append([]byte(nil), rest...)
	trailingPlain, err := key.DecryptGCM(trailingRxNonce, trailingSealed)
	if err != nil {
		return frame.Frame{}, fmt.Errorf("connection: unsealing secure frame trailer: %w", err)
	}

	epilogue := trailingPlain[trailingPlainLen:]
	if epilogue[0] != secureEpilogueLateFlags {
		return frame.Frame{}, fmt.Errorf("connection: secure frame epilogue late_flags 0x%02X did not indicate completion", epilogue[0])
	}

	trailing := trailingPlain[:trailingPlainLen]
	offset := 0
	if seg0Len > secureInlineCapacity {
		remainder := seg0Len - secureInlineCapacity
		segments[0] = append(segments[0], trailing[offset:offset+remainder]...)
		offset += remainder
	}
	for i := 1; i < int(preamble.SegmentCount); i++ {
		padded := nextMultipleOf(int(preamble.Segments[i].Length), padSize)
		segData := trailing[offset : offset+padded]
		segments[i] = append([]byte(nil), segData[:preamble.Segments[i].Length]...)
		offset += padded
	}

	return frame.Frame{Tag: preamble.Tag, Segments: segments}, nil
}

// secureTrailingPlaintext builds the trailing block's plaintext (before
// the epilogue is appended): segment 0's bytes past secureInlineCapacity,
// followed by every further segment padded to padSize, the same rule
// internal/frame.Decode applies to Crc formats.
func secureTrailingPlaintext(f frame.Frame, padSize int) []byte {
	seg0 := f.Segments[0]
	seg0Len := len(seg0)

	var out []byte
	if seg0Len > secureInlineCapacity {
		out = append(out, seg0[secureInlineCapacity:]...)
	}

	for i := 1; i < len(f.Segments); i++ {
		padded := make([]byte, nextMultipleOf(len(f.Segments[i]), padSize))
		copy(padded, f.Segments[i])
		out = append(out, padded...)
	}
	return out
}

// secureTrailingLen computes the same length secureTrailingPlaintext
// produces, from a decoded preamble's declared segment lengths alone.
func secureTrailingLen(p frame.Preamble, padSize int) int {
	seg0Len := int(p.Segments[0].Length)

	total := 0
	if seg0Len > secureInlineCapacity {
		total += seg0Len - secureInlineCapacity
	}
	for i := 1; i < int(p.SegmentCount); i++ {
		total += nextMultipleOf(int(p.Segments[i].Length), padSize)
	}
	return total
}

// nextMultipleOf rounds n up to the next multiple of multiple.
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
