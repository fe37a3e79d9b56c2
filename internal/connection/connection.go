package connection

import (
	"fmt"

	"github.com/marmos91/cephmsgr/internal/cephx"
	"github.com/marmos91/cephmsgr/internal/codec"
	"github.com/marmos91/cephmsgr/internal/cryptoutil"
	"github.com/marmos91/cephmsgr/internal/frame"
	"github.com/marmos91/cephmsgr/internal/msg"
)

// NewInactive starts a fresh client-side connection with config.
func NewInactive(config Config) *Inactive {
	return &Inactive{config: config}
}

// Banner is what this side advertises before any frame exists.
func (i *Inactive) Banner() msg.Banner {
	var supported msg.MsgrFeatures
	if i.config.SupportRev21 {
		supported |= msg.MsgrFeatureRevision1
	}
	return msg.Banner{Supported: supported}
}

// RecvBanner consumes the peer's banner, settling on a msgr2 revision
// and moving into ExchangeHello. The Inactive value should be discarded
// afterward; to retry, build a new one with NewInactive.
func (i *Inactive) RecvBanner(peer msg.Banner) (*ExchangeHello, error) {
	if peer.Required&msg.MsgrFeatureCompression != 0 {
		return nil, fmt.Errorf("connection: peer requires compression, which this client does not support")
	}
	if peer.Required&msg.MsgrFeatureRevision1 != 0 && !i.config.SupportRev21 {
		return nil, fmt.Errorf("connection: peer requires msgr2 revision 2.1, which is disabled in this client's configuration")
	}

	revision := Rev0
	if i.config.SupportRev21 && peer.Supported&msg.MsgrFeatureRevision1 != 0 {
		revision = Rev1
	}

	ownWire := i.Banner().Write()
	peerWire := peer.Write()

	return &ExchangeHello{
		core:   core{revision: revision},
		config: i.config,
		txBuf:  append([]byte(nil), ownWire[:]...),
		rxBuf:  append([]byte(nil), peerWire[:]...),
	}, nil
}

// SendHello encodes hello as a wire-ready frame and appends it to the
// transcript this side will later sign.
func (s *ExchangeHello) SendHello(hello msg.Hello) ([]byte, error) {
	return s.send(frame.TagHello, hello)
}

// RecvHello consumes the peer's raw Hello frame bytes, accumulating
// them into the transcript the peer will sign, and advances to
// Authenticating.
func (s *ExchangeHello) RecvHello(wire []byte) (*Authenticating, msg.Hello, error) {
	f, err := s.recv(wire, frame.TagHello)
	if err != nil {
		return nil, msg.Hello{}, err
	}
	hello, err := msg.DecodeHello(codec.NewReader(f.Segments[0]))
	if err != nil {
		return nil, msg.Hello{}, err
	}
	return &Authenticating{core: s.core, config: s.config, rxBuf: s.rxBuf, txBuf: s.txBuf}, hello, nil
}

// SendRequest encodes the opening AuthRequest.
func (s *Authenticating) SendRequest(req msg.AuthRequest) ([]byte, error) {
	return s.send(frame.TagAuthRequest, req)
}

// SendRequestMore encodes a follow-up AuthRequestMore (the CephX
// authenticate reply to the server's challenge).
func (s *Authenticating) SendRequestMore(req msg.AuthRequestMore) ([]byte, error) {
	return s.send(frame.TagAuthRequestMore, req)
}

// RecvReplyMore decodes the server's AuthReplyMore (for CephX, a
// CephXServerChallenge).
func (s *Authenticating) RecvReplyMore(wire []byte) (msg.AuthReplyMore, error) {
	f, err := s.recv(wire, frame.TagAuthReplyMore)
	if err != nil {
		return msg.AuthReplyMore{}, err
	}
	return msg.DecodeAuthReplyMore(codec.NewReader(f.Segments[0]))
}

// RecvNoneDone finishes an AuthMethodNone handshake: its AuthDone must
// carry no payload.
func (s *Authenticating) RecvNoneDone(wire []byte) (*ExchangingSignatures, error) {
	f, err := s.recv(wire, frame.TagAuthDone)
	if err != nil {
		return nil, err
	}
	done, err := msg.DecodeAuthDone(codec.NewReader(f.Segments[0]))
	if err != nil {
		return nil, err
	}
	if len(done.AuthPayload) != 0 {
		return nil, fmt.Errorf("connection: AuthMethodNone's AuthDone carried an unexpected payload")
	}
	return &ExchangingSignatures{core: s.core, config: s.config, rxBuf: s.rxBuf, txBuf: s.txBuf}, nil
}

// RecvCephXDone finishes a CephX handshake: it decrypts the granted
// tickets and connection secret under masterKey, and — if the server
// picked ConModeSecure — installs the session key immediately, so the
// signature exchange that follows is itself sealed under Secure
// framing, matching what a real msgr2 Rev1Secure connection does.
func (s *Authenticating) RecvCephXDone(masterKey cryptoutil.Key, wire []byte) (*ExchangingSignatures, error) {
	f, err := s.recv(wire, frame.TagAuthDone)
	if err != nil {
		return nil, err
	}
	done, err := msg.DecodeAuthDone(codec.NewReader(f.Segments[0]))
	if err != nil {
		return nil, err
	}

	cephxMsg, err := cephx.DecodeMessage(codec.NewReader(done.AuthPayload))
	if err != nil {
		return nil, err
	}
	reply, err := cephx.DecodeAuthServiceTicketReply(codec.NewReader(cephxMsg.Payload))
	if err != nil {
		return nil, err
	}
	result, err := reply.Decrypt(masterKey)
	if err != nil {
		return nil, err
	}

	next := &ExchangingSignatures{
		core:    s.core,
		config:  s.config,
		rxBuf:   s.rxBuf,
		txBuf:   s.txBuf,
		tickets: result.Tickets,
	}

	if done.ConnectionMode == msg.ConModeSecure {
		key, rxNonce, txNonce, err := splitConnectionSecret(result.ConnectionSecret)
		if err != nil {
			return nil, err
		}
		next.core.encryption.SetSecretData(key, rxNonce, txNonce)
	}

	return next, nil
}

// splitConnectionSecret divides a decrypted connection secret into its
// 16-byte AES-128 key and two 12-byte GCM nonces (rx, then tx, from
// this client's perspective), the layout CephX's Secure mode grants.
func splitConnectionSecret(secret []byte) (key cryptoutil.Key, rxNonce, txNonce [12]byte, err error) {
	if len(secret) != 40 {
		return cryptoutil.Key{}, rxNonce, txNonce, fmt.Errorf("connection: connection secret must be 40 bytes, got %d", len(secret))
	}
	var secretBytes [16]byte
	copy(secretBytes[:], secret[0:16])
	copy(rxNonce[:], secret[16:28])
	copy(txNonce[:], secret[28:40])
	return cryptoutil.NewKey(cryptoutil.Timestamp{}, secretBytes), rxNonce, txNonce, nil
}

// SendSignature computes this side's HMAC-SHA256 over everything it
// has received so far (rxBuf) and sends it, using the Auth ticket's
// session key if one was granted, or an all-zero signature for
// AuthMethodNone connections.
func (s *ExchangingSignatures) SendSignature() ([]byte, error) {
	sig := s.signatureOver(s.rxBuf)
	return s.send(frame.TagAuthSignature, sig)
}

// RecvSignature verifies the peer's signature against everything this
// side has sent so far (txBuf), and moves to Identifying on success.
func (s *ExchangingSignatures) RecvSignature(wire []byte) (*Identifying, error) {
	f, err := s.recv(wire, frame.TagAuthSignature)
	if err != nil {
		return nil, err
	}
	got, err := msg.DecodeAuthSignature(codec.NewReader(f.Segments[0]))
	if err != nil {
		return nil, err
	}
	want := s.signatureOver(s.txBuf)
	if got != want {
		return nil, fmt.Errorf("connection: transcript signature mismatch")
	}
	return &Identifying{core: s.core, config: s.config, tickets: s.tickets}, nil
}

func (s *ExchangingSignatures) signatureOver(transcript []byte) msg.AuthSignature {
	authTicket, ok := findAuthTicket(s.tickets)
	if !ok {
		return msg.AuthSignature{}
	}
	return msg.AuthSignature{SHA256: authTicket.SessionTicket.SessionKey.HMACSHA256(transcript)}
}

// SendClientIdent encodes ClientIdent.
func (s *Identifying) SendClientIdent(ident msg.ClientIdent) ([]byte, error) {
	return s.send(frame.TagClientIdent, ident)
}

// RecvServerIdent finishes the handshake, moving to Active.
func (s *Identifying) RecvServerIdent(wire []byte) (*Active, msg.ServerIdent, error) {
	f, err := s.recv(wire, frame.TagServerIdent)
	if err != nil {
		return nil, msg.ServerIdent{}, err
	}
	ident, err := msg.DecodeServerIdent(codec.NewReader(f.Segments[0]))
	if err != nil {
		return nil, msg.ServerIdent{}, err
	}
	return &Active{core: s.core, tickets: s.tickets}, ident, nil
}

// Send encodes any Tag-identified message via its own Encode method and
// wraps it in a frame ready for the wire.
func (s *Active) Send(tag frame.Tag, payload interface{ Encode(*codec.Writer) }) ([]byte, error) {
	return s.send(tag, payload)
}

// SendFrame wraps an already-built envelope/frame with this
// connection's current format and (if Secure) encryption.
func (s *Active) SendFrame(f frame.Frame) ([]byte, error) {
	return encodeFrame(f, &s.core.encryption, s.format())
}

// RecvFrame unseals and decodes a raw wire buffer into a Frame, without
// assuming anything about its Tag — used for the open-ended set of
// application Message envelopes Active exchanges.
func (s *Active) RecvFrame(wire []byte) (frame.Frame, error) {
	return decodeFrame(wire, &s.core.encryption, s.format())
}

// --- shared send/recv plumbing -------------------------------------------------

type encodable interface {
	Encode(*codec.Writer)
}

// send encodes payload, frames it under tag, seals/serializes it for
// c's current format, and — when txBuf is non-nil — appends the wire
// bytes to the transcript this side will later sign. Every state except
// Active tracks a transcript; Active has no further need of one once
// negotiated.
func send(c *core, txBuf *[]byte, tag frame.Tag, payload encodable) ([]byte, error) {
	w := codec.NewWriter()
	payload.Encode(w)
	f, err := frame.NewFrame(tag, w.Bytes())
	if err != nil {
		return nil, err
	}
	wire, err := encodeFrame(f, &c.encryption, c.format())
	if err != nil {
		return nil, err
	}
	if txBuf != nil {
		*txBuf = append(*txBuf, wire...)
	}
	return wire, nil
}

// recv is send's inverse: it unseals/decodes wire for c's current
// format, validates the frame carries the expected tag, and (when rxBuf
// is non-nil) accumulates the raw bytes into the transcript the peer
// will sign.
func recv(c *core, rxBuf *[]byte, wire []byte, want frame.Tag) (frame.Frame, error) {
	if rxBuf != nil {
		*rxBuf = append(*rxBuf, wire...)
	}
	f, err := decodeFrame(wire, &c.encryption, c.format())
	if err != nil {
		return frame.Frame{}, err
	}
	if f.Tag != want {
		return frame.Frame{}, fmt.Errorf("connection: expected %v frame, got %v", want, f.Tag)
	}
	if len(f.Segments) == 0 {
		return frame.Frame{}, fmt.Errorf("connection: %v frame carried no segments", want)
	}
	return f, nil
}

func (s *ExchangeHello) send(tag frame.Tag, payload encodable) ([]byte, error) {
	return send(&s.core, &s.txBuf, tag, payload)
}

func (s *ExchangeHello) recv(wire []byte, want frame.Tag) (frame.Frame, error) {
	return recv(&s.core, &s.rxBuf, wire, want)
}

func (s *Authenticating) send(tag frame.Tag, payload encodable) ([]byte, error) {
	return send(&s.core, &s.txBuf, tag, payload)
}

func (s *Authenticating) recv(wire []byte, want frame.Tag) (frame.Frame, error) {
	return recv(&s.core, &s.rxBuf, wire, want)
}

func (s *ExchangingSignatures) send(tag frame.Tag, payload encodable) ([]byte, error) {
	return send(&s.core, &s.txBuf, tag, payload)
}

func (s *ExchangingSignatures) recv(wire []byte, want frame.Tag) (frame.Frame, error) {
	return recv(&s.core, &s.rxBuf, wire, want)
}

func (s *Identifying) send(tag frame.Tag, payload encodable) ([]byte, error) {
	return send(&s.core, nil, tag, payload)
}

func (s *Identifying) recv(wire []byte, want frame.Tag) (frame.Frame, error) {
	return recv(&s.core, nil, wire, want)
}

func (s *Active) send(tag frame.Tag, payload encodable) ([]byte, error) {
	return send(&s.core, nil, tag, payload)
}
