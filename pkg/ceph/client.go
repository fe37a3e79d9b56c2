package ceph

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/cephmsgr/internal/cephx"
	"github.com/marmos91/cephmsgr/internal/codec"
	"github.com/marmos91/cephmsgr/internal/connection"
	"github.com/marmos91/cephmsgr/internal/frame"
	"github.com/marmos91/cephmsgr/internal/logger"
	"github.com/marmos91/cephmsgr/internal/msg"
	"github.com/marmos91/cephmsgr/internal/wireaddr"
	"github.com/marmos91/cephmsgr/pkg/metrics"
	"github.com/marmos91/cephmsgr/pkg/telemetry"
)

// Client is a fully negotiated msgr2 connection: a live net.Conn driven
// through internal/connection's typestate machine all the way to
// Active, ready to exchange application Message frames.
type Client struct {
	conn   net.Conn
	active *connection.Active
	connID string
	m      *metrics.ConnectionMetrics
}

// Dial opens a TCP connection to addr, announcing entityType to the
// peer's Hello, and drives the full handshake: banner negotiation,
// CephX authentication, transcript signatures, and
// ClientIdent/ServerIdent. m may be nil.
func Dial(ctx context.Context, addr string, entityType wireaddr.EntityType, cfg Config, m *metrics.ConnectionMetrics) (*Client, error) {
	connID := uuid.NewString()
	lc := logger.NewLogContext(connID).WithPeer(addr)
	ctx = logger.WithContext(ctx, lc)

	ctx, span := telemetry.StartHandshakeSpan(ctx, addr, telemetry.Entity(entity(cfg)))
	defer span.End()

	start := time.Now()
	dialer := net.Dialer{Timeout: cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("ceph: dial %s: %w", addr, err)
	}

	active, err := handshake(ctx, conn, addr, entityType, cfg)
	if err != nil {
		_ = conn.Close()
		telemetry.RecordError(ctx, err)
		if m != nil {
			m.RecordHandshake("cephx", time.Since(start).Seconds(), false)
		}
		logger.ErrorCtx(ctx, "msgr2 handshake failed", logger.Err(err), logger.DurationMs(logger.Duration(start)))
		return nil, err
	}

	if m != nil {
		m.RecordHandshake("cephx", time.Since(start).Seconds(), true)
		m.ConnectionOpened()
	}
	logger.InfoCtx(ctx, "msgr2 handshake complete", logger.DurationMs(logger.Duration(start)))

	return &Client{conn: conn, active: active, connID: connID, m: m}, nil
}

func entity(cfg Config) string {
	return cfg.Entity.String()
}

// handshake drives conn through every internal/connection state in
// turn, reading and writing exactly the bytes each state's Send*/Recv*
// methods expect.
func handshake(ctx context.Context, conn net.Conn, addr string, entityType wireaddr.EntityType, cfg Config) (*connection.Active, error) {
	inactive := connection.NewInactive(cfg.connectionConfig())

	ownBanner := inactive.Banner().Write()
	if err := writeWire(conn, ownBanner[:]); err != nil {
		return nil, err
	}
	peerBanner, err := readBanner(conn)
	if err != nil {
		return nil, err
	}
	exchangeHello, err := inactive.RecvBanner(peerBanner)
	if err != nil {
		return nil, fmt.Errorf("ceph: negotiating banner: %w", err)
	}

	localNonce, err := randomNonce32()
	if err != nil {
		return nil, err
	}
	localAddr, err := entityAddressFromNetAddr(conn.LocalAddr(), localNonce)
	if err != nil {
		return nil, err
	}
	peerAddr, err := entityAddressFromNetAddr(conn.RemoteAddr(), 0)
	if err != nil {
		return nil, err
	}

	authenticating, _, err := exchangeHelloStep(conn, exchangeHello, msg.Hello{EntityType: entityType, PeerAddress: peerAddr})
	if err != nil {
		return nil, err
	}

	exchangingSignatures, err := authenticateStep(ctx, conn, authenticating, addr, cfg)
	if err != nil {
		return nil, err
	}

	identifying, err := signatureStep(conn, exchangingSignatures)
	if err != nil {
		return nil, err
	}

	active, err := identifyStep(conn, identifying, localAddr, peerAddr)
	if err != nil {
		return nil, err
	}

	_ = ctx // reserved for future per-phase span scoping
	return active, nil
}

func exchangeHelloStep(conn net.Conn, s *connection.ExchangeHello, hello msg.Hello) (*connection.Authenticating, msg.Hello, error) {
	wire, err := s.SendHello(hello)
	if err != nil {
		return nil, msg.Hello{}, fmt.Errorf("ceph: encoding Hello: %w", err)
	}
	if err := writeWire(conn, wire); err != nil {
		return nil, msg.Hello{}, err
	}
	peerWire, err := readFrame(conn, s.Format())
	if err != nil {
		return nil, msg.Hello{}, err
	}
	return s.RecvHello(peerWire)
}

func authenticateStep(ctx context.Context, conn net.Conn, s *connection.Authenticating, addr string, cfg Config) (*connection.ExchangingSignatures, error) {
	reqWire, err := s.SendRequest(msg.AuthRequest{
		Method:         msg.AuthMethodCephX,
		PreferredModes: cfg.preferredModes(),
		AuthPayload:    cephxAuthRequestPayload(cfg.Entity),
	})
	if err != nil {
		return nil, fmt.Errorf("ceph: encoding AuthRequest: %w", err)
	}
	if err := writeWire(conn, reqWire); err != nil {
		return nil, err
	}

	replyWire, err := readFrame(conn, s.Format())
	if err != nil {
		return nil, err
	}
	replyMore, err := s.RecvReplyMore(replyWire)
	if err != nil {
		return nil, fmt.Errorf("ceph: decoding AuthReplyMore: %w", err)
	}

	cephxChallengeMsg, err := cephx.DecodeMessage(codec.NewReader(replyMore.Payload))
	if err != nil {
		return nil, fmt.Errorf("ceph: decoding CephX challenge envelope: %w", err)
	}
	serverChallenge, err := cephx.DecodeServerChallenge(codec.NewReader(cephxChallengeMsg.Payload))
	if err != nil {
		return nil, fmt.Errorf("ceph: decoding CephXServerChallenge: %w", err)
	}

	clientChallenge, err := nextClientChallenge(ctx, cfg.NonceStore, addr)
	if err != nil {
		return nil, err
	}
	authKey, err := cephx.ComputeAuthenticateKey(serverChallenge.Challenge, clientChallenge, cfg.Keyring)
	if err != nil {
		return nil, fmt.Errorf("ceph: deriving authenticate key: %w", err)
	}

	authenticate := cephx.Authenticate{
		ClientChallenge: clientChallenge,
		Key:             authKey,
		OldTicket:       cephx.TicketBlob{Blob: cfg.OldTicket},
		OtherKeys:       cfg.otherKeys(),
	}
	authenticateMsg := cephx.NewMessage(cephx.MessageGetAuthSessionKey, authenticate)
	w := codec.NewWriter()
	authenticateMsg.Encode(w)

	moreWire, err := s.SendRequestMore(msg.AuthRequestMore{Payload: w.Bytes()})
	if err != nil {
		return nil, fmt.Errorf("ceph: encoding AuthRequestMore: %w", err)
	}
	if err := writeWire(conn, moreWire); err != nil {
		return nil, err
	}

	doneWire, err := readFrame(conn, s.Format())
	if err != nil {
		return nil, err
	}
	return s.RecvCephXDone(cfg.Keyring, doneWire)
}

func signatureStep(conn net.Conn, s *connection.ExchangingSignatures) (*connection.Identifying, error) {
	wire, err := s.SendSignature()
	if err != nil {
		return nil, fmt.Errorf("ceph: encoding AuthSignature: %w", err)
	}
	if err := writeWire(conn, wire); err != nil {
		return nil, err
	}
	peerWire, err := readFrame(conn, s.Format())
	if err != nil {
		return nil, err
	}
	return s.RecvSignature(peerWire)
}

func identifyStep(conn net.Conn, s *connection.Identifying, localAddr, target wireaddr.EntityAddress) (*connection.Active, error) {
	ident := msg.ClientIdent{
		Addresses: []wireaddr.EntityAddress{localAddr},
		Target:    target,
		GlobalSeq: 1,
	}
	wire, err := s.SendClientIdent(ident)
	if err != nil {
		return nil, fmt.Errorf("ceph: encoding ClientIdent: %w", err)
	}
	if err := writeWire(conn, wire); err != nil {
		return nil, err
	}
	peerWire, err := readFrame(conn, s.Format())
	if err != nil {
		return nil, err
	}
	active, _, err := s.RecvServerIdent(peerWire)
	return active, err
}

// AuthTicket returns the Auth-service ticket granted during the
// handshake, if any.
func (c *Client) AuthTicket() (cephx.Ticket, bool) {
	return c.active.AuthTicket()
}

// Secure reports whether this connection negotiated CephX's Secure
// mode (Rev1Secure framing) rather than plain Crc framing.
func (c *Client) Secure() bool {
	return c.active.Format() == frame.FormatRev1Secure
}

// Send encodes payload under tag and writes it to the peer.
func (c *Client) Send(tag frame.Tag, payload interface{ Encode(*codec.Writer) }) error {
	wire, err := c.active.Send(tag, payload)
	if err != nil {
		return fmt.Errorf("ceph: encoding %v: %w", tag, err)
	}
	if err := writeWire(c.conn, wire); err != nil {
		return err
	}
	if c.m != nil {
		c.m.RecordFrameSent(tag.String(), len(wire))
	}
	return nil
}

// RecvFrame reads and decodes the next frame from the peer, without
// assuming anything about its tag.
func (c *Client) RecvFrame() (frame.Frame, error) {
	wire, err := readFrame(c.conn, c.active.Format())
	if err != nil {
		return frame.Frame{}, err
	}
	f, err := c.active.RecvFrame(wire)
	if err != nil {
		return frame.Frame{}, err
	}
	if c.m != nil {
		c.m.RecordFrameReceived(f.Tag.String(), len(wire))
	}
	return f, nil
}

// Close tears down the underlying TCP connection.
func (c *Client) Close() error {
	if c.m != nil {
		c.m.ConnectionClosed()
	}
	return c.conn.Close()
}
