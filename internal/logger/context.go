package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds connection-scoped logging context
type LogContext struct {
	TraceID   string    // OpenTelemetry trace ID
	SpanID    string    // OpenTelemetry span ID
	ConnID    string    // Connection correlation ID (uuid)
	State     string    // Connection state machine phase
	Peer      string    // Peer entity (type+name), e.g. "mon.0"
	FrameTag  string    // Last frame tag processed
	Revision  int       // Negotiated msgr2 revision (0 or 1)
	StartTime time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for a connection identified by connID.
func NewLogContext(connID string) *LogContext {
	return &LogContext{
		ConnID:    connID,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:   lc.TraceID,
		SpanID:    lc.SpanID,
		ConnID:    lc.ConnID,
		State:     lc.State,
		Peer:      lc.Peer,
		FrameTag:  lc.FrameTag,
		Revision:  lc.Revision,
		StartTime: lc.StartTime,
	}
}

// WithState returns a copy with the state machine phase set
func (lc *LogContext) WithState(state string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.State = state
	}
	return clone
}

// WithPeer returns a copy with the peer entity set
func (lc *LogContext) WithPeer(peer string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Peer = peer
	}
	return clone
}

// WithFrame returns a copy with frame tag and negotiated revision set
func (lc *LogContext) WithFrame(tag string, revision int) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.FrameTag = tag
		clone.Revision = revision
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
