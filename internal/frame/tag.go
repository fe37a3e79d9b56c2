package frame

import "fmt"

// Tag identifies the kind of frame a Preamble introduces.
type Tag uint8

const (
	TagHello                Tag = 1
	TagAuthRequest           Tag = 2
	TagAuthBadMethod         Tag = 3
	TagAuthReplyMore         Tag = 4
	TagAuthRequestMore       Tag = 5
	TagAuthDone              Tag = 6
	TagAuthSignature         Tag = 7
	TagClientIdent           Tag = 8
	TagServerIdent           Tag = 9
	TagIdentMissingFeatures  Tag = 10
	TagSessionReconnect      Tag = 11
	TagSessionReset          Tag = 12
	TagSessionRetry          Tag = 13
	TagSessionRetryGlobal    Tag = 14
	TagSessionReconnectOk    Tag = 15
	TagWait                  Tag = 16
	TagMessage               Tag = 17
	TagKeepalive2            Tag = 18
	TagKeepalive2Ack         Tag = 19
	TagAck                   Tag = 20
	TagCompressionRequest    Tag = 21
	TagCompressionDone       Tag = 22
)

// TagFromByte validates a raw wire byte against the known Tag values.
func TagFromByte(v uint8) (Tag, error) {
	switch Tag(v) {
	case TagHello, TagAuthRequest, TagAuthBadMethod, TagAuthReplyMore, TagAuthRequestMore,
		TagAuthDone, TagAuthSignature, TagClientIdent, TagServerIdent, TagIdentMissingFeatures,
		TagSessionReconnect, TagSessionReset, TagSessionRetry, TagSessionRetryGlobal,
		TagSessionReconnectOk, TagWait, TagMessage, TagKeepalive2, TagKeepalive2Ack, TagAck,
		TagCompressionRequest, TagCompressionDone:
		return Tag(v), nil
	default:
		return 0, fmt.Errorf("frame: unknown tag value %d", v)
	}
}

func (t Tag) String() string {
	switch t {
	case TagHello:
		return "hello"
	case TagAuthRequest:
		return "auth_request"
	case TagAuthBadMethod:
		return "auth_bad_method"
	case TagAuthReplyMore:
		return "auth_reply_more"
	case TagAuthRequestMore:
		return "auth_request_more"
	case TagAuthDone:
		return "auth_done"
	case TagAuthSignature:
		return "auth_signature"
	case TagClientIdent:
		return "client_ident"
	case TagServerIdent:
		return "server_ident"
	case TagIdentMissingFeatures:
		return "ident_missing_features"
	case TagSessionReconnect:
		return "session_reconnect"
	case TagSessionReset:
		return "session_reset"
	case TagSessionRetry:
		return "session_retry"
	case TagSessionRetryGlobal:
		return "session_retry_global"
	case TagSessionReconnectOk:
		return "session_reconnect_ok"
	case TagWait:
		return "wait"
	case TagMessage:
		return "message"
	case TagKeepalive2:
		return "keepalive2"
	case TagKeepalive2Ack:
		return "keepalive2_ack"
	case TagAck:
		return "ack"
	case TagCompressionRequest:
		return "compression_request"
	case TagCompressionDone:
		return "compression_done"
	default:
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
}

// Format identifies which of the four msgr2 frame encodings is active
// on a connection: the revision comes from the banner exchange and the
// Crc/Secure choice from the connection mode AuthDone carries.
type Format int

const (
	FormatRev0Crc Format = iota
	FormatRev1Crc
	FormatRev0Secure
	FormatRev1Secure
)

// HasCRC reports whether segments in this format carry a CRC32 (true
// for both Crc formats, false for both Secure formats — an AEAD tag
// authenticates the payload instead).
func (f Format) HasCRC() bool {
	return f == FormatRev0Crc || f == FormatRev1Crc
}

// SegmentPadSize is the alignment every non-first segment's on-wire
// length is rounded up to.
func (f Format) SegmentPadSize() int {
	switch f {
	case FormatRev1Secure:
		return rev1SecurePadSize
	default:
		return 1
	}
}
