package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for msgr2 connection spans.
const (
	AttrPeerAddr   = "ceph.peer_addr"
	AttrEntity     = "ceph.entity"
	AttrAuthMethod = "ceph.auth_method"
	AttrConnState  = "ceph.conn_state"
	AttrFrameTag   = "ceph.frame_tag"
	AttrFrameBytes = "ceph.frame_bytes"
	AttrSecure     = "ceph.secure"
	AttrGlobalID   = "ceph.global_id"
)

// Span names for the handshake phases and frame I/O operations.
const (
	SpanHandshake      = "ceph.handshake"
	SpanBannerExchange = "ceph.banner_exchange"
	SpanHelloExchange  = "ceph.hello_exchange"
	SpanAuthenticate   = "ceph.authenticate"
	SpanSignatureCheck = "ceph.signature_check"
	SpanIdentify       = "ceph.identify"
	SpanFrameSend      = "ceph.frame_send"
	SpanFrameRecv      = "ceph.frame_recv"
)

func PeerAddr(addr string) attribute.KeyValue   { return attribute.String(AttrPeerAddr, addr) }
func Entity(name string) attribute.KeyValue     { return attribute.String(AttrEntity, name) }
func AuthMethod(name string) attribute.KeyValue { return attribute.String(AttrAuthMethod, name) }
func ConnState(state string) attribute.KeyValue { return attribute.String(AttrConnState, state) }
func FrameTag(tag string) attribute.KeyValue    { return attribute.String(AttrFrameTag, tag) }
func FrameBytes(n int) attribute.KeyValue       { return attribute.Int(AttrFrameBytes, n) }
func Secure(secure bool) attribute.KeyValue     { return attribute.Bool(AttrSecure, secure) }
func GlobalID(id uint64) attribute.KeyValue     { return attribute.Int64(AttrGlobalID, int64(id)) }

// StartHandshakeSpan starts the root span covering one full msgr2
// handshake attempt against peerAddr.
func StartHandshakeSpan(ctx context.Context, peerAddr string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{PeerAddr(peerAddr)}, attrs...)
	return StartSpan(ctx, SpanHandshake, trace.WithAttributes(allAttrs...))
}

// StartFrameSpan starts a span for sending or receiving one frame.
func StartFrameSpan(ctx context.Context, name string, tag string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{FrameTag(tag)}, attrs...)
	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}
