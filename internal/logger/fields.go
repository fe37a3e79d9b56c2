package logger

import (
	"log/slog"
)

// Standard field keys for structured logging of msgr2/CephX connection activity.
// Use these keys consistently across all log statements for log aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Connection & State Machine
	// ========================================================================
	KeyConnID    = "conn_id"   // Connection correlation ID
	KeyState     = "state"     // Connection state machine phase
	KeyPeer      = "peer"      // Peer entity name (mon.0, osd.3, ...)
	KeyPeerAddr  = "peer_addr" // Peer network address
	KeyRevision  = "revision"  // Negotiated msgr2 revision (0 or 1)
	KeyFrameTag  = "frame_tag" // Frame tag being processed
	KeyFrameLen  = "frame_len" // Total encoded frame length in bytes
	KeySegment   = "segment"   // Segment index within a frame
	KeyMsgrMode  = "msgr_mode" // Negotiated connection mode: crc or secure

	// ========================================================================
	// CephX Authentication
	// ========================================================================
	KeyAuthMethod = "auth_method" // Authentication method requested (cephx, none)
	KeyEntity     = "entity"      // Requesting entity name
	KeyTicketType = "ticket_type" // Service ticket type requested

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Numeric error code
	KeyField      = "field"       // Offending wire field name on decode failure
	KeyAttempt    = "attempt"     // Retry attempt number
)

// ----------------------------------------------------------------------------
// Field constructors for type safety
// ----------------------------------------------------------------------------

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// ConnID returns a slog.Attr for the connection correlation ID
func ConnID(id string) slog.Attr {
	return slog.String(KeyConnID, id)
}

// State returns a slog.Attr for the connection state machine phase
func State(s string) slog.Attr {
	return slog.String(KeyState, s)
}

// Peer returns a slog.Attr for the peer entity name
func Peer(name string) slog.Attr {
	return slog.String(KeyPeer, name)
}

// PeerAddr returns a slog.Attr for the peer network address
func PeerAddr(addr string) slog.Attr {
	return slog.String(KeyPeerAddr, addr)
}

// Revision returns a slog.Attr for the negotiated msgr2 revision
func Revision(rev int) slog.Attr {
	return slog.Int(KeyRevision, rev)
}

// FrameTag returns a slog.Attr for the frame tag being processed
func FrameTag(tag string) slog.Attr {
	return slog.String(KeyFrameTag, tag)
}

// FrameLen returns a slog.Attr for the total encoded frame length
func FrameLen(n int) slog.Attr {
	return slog.Int(KeyFrameLen, n)
}

// Segment returns a slog.Attr for a segment index within a frame
func Segment(idx int) slog.Attr {
	return slog.Int(KeySegment, idx)
}

// MsgrMode returns a slog.Attr for the negotiated connection mode
func MsgrMode(mode string) slog.Attr {
	return slog.String(KeyMsgrMode, mode)
}

// AuthMethod returns a slog.Attr for the requested authentication method
func AuthMethod(method string) slog.Attr {
	return slog.String(KeyAuthMethod, method)
}

// Entity returns a slog.Attr for a requesting entity name
func Entity(name string) slog.Attr {
	return slog.String(KeyEntity, name)
}

// TicketType returns a slog.Attr for a requested service ticket type
func TicketType(name string) slog.Attr {
	return slog.String(KeyTicketType, name)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a numeric error code
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}

// Field returns a slog.Attr naming the offending wire field on a decode failure
func Field(name string) slog.Attr {
	return slog.String(KeyField, name)
}

// Attempt returns a slog.Attr for a retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}
