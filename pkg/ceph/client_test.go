package ceph

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/cephmsgr/internal/cephx"
	"github.com/marmos91/cephmsgr/internal/codec"
	"github.com/marmos91/cephmsgr/internal/cryptoutil"
	"github.com/marmos91/cephmsgr/internal/frame"
	"github.com/marmos91/cephmsgr/internal/msg"
	"github.com/marmos91/cephmsgr/internal/wireaddr"
)

// rawBytes is a trivial cryptoutil.Encodable wrapping an already-encoded
// buffer, used by the fake monitor below to seal payloads by hand.
type rawBytes []byte

func (r rawBytes) Encode(w *codec.Writer) { w.WriteRaw(r) }

func testKey(b byte) cryptoutil.Key {
	var secret [16]byte
	for i := range secret {
		secret[i] = b
	}
	return cryptoutil.NewKey(cryptoutil.Timestamp{TvSec: 1}, secret)
}

func encodeFrame(t *testing.T, format frame.Format, tag frame.Tag, payload interface{ Encode(*codec.Writer) }) []byte {
	t.Helper()
	w := codec.NewWriter()
	payload.Encode(w)
	f, err := frame.NewFrame(tag, w.Bytes())
	require.NoError(t, err)
	wire, err := f.Encode(format)
	require.NoError(t, err)
	return wire
}

func writeFrame(t *testing.T, conn net.Conn, format frame.Format, tag frame.Tag, payload interface{ Encode(*codec.Writer) }) {
	t.Helper()
	_, err := conn.Write(encodeFrame(t, format, tag, payload))
	require.NoError(t, err)
}

func readFrameRaw(t *testing.T, conn net.Conn, format frame.Format) []byte {
	t.Helper()
	wire, err := readFrame(conn, format)
	require.NoError(t, err)
	return wire
}

func decodeFrameRaw(t *testing.T, wire []byte) frame.Frame {
	t.Helper()
	p, err := frame.DecodePreamble(wire[:frame.PreambleSize], frame.FormatRev0Crc)
	require.NoError(t, err)
	f, err := frame.Decode(p, wire[frame.PreambleSize:])
	require.NoError(t, err)
	return f
}

// buildAuthDoneWire assembles a full AuthDone frame granting a single
// Auth-service ticket and the given connection secret, serialized for
// format — the server's half of the CephX GetAuthSessionKey exchange.
func buildAuthDoneWire(t *testing.T, format frame.Format, globalID uint64, mode msg.ConMode, masterKey, sessionKey cryptoutil.Key, secret []byte) []byte {
	t.Helper()

	ticketInfoW := codec.NewWriter()
	ticketInfoW.WriteUint32(uint32(wireaddr.EntityTypeAuth))
	ticketInfoW.WriteUint8(1)
	sealed, err := cryptoutil.SealEncBl(cephx.ServiceTicket{SessionKey: sessionKey, Validity: cryptoutil.Timestamp{TvSec: 100}}, masterKey)
	require.NoError(t, err)
	ticketInfoW.WriteBytes(sealed)
	refresh := cephx.MaybeEncryptedTicketBlob{Encrypted: false, Plain: cephx.TicketBlob{SecretID: 1, Blob: []byte("refresh")}}
	refresh.Encode(ticketInfoW)

	mainW := codec.NewWriter()
	mainW.WriteUint8(1)
	mainW.WriteUint32(1)
	mainW.WriteRaw(ticketInfoW.Bytes())

	sealedSecret, err := cryptoutil.SealEncBl(rawBytes(secret), sessionKey)
	require.NoError(t, err)
	secretFieldW := codec.NewWriter()
	secretFieldW.WriteBytes(sealedSecret)

	replyW := codec.NewWriter()
	replyW.WriteBytes(mainW.Bytes())
	replyW.WriteBytes(secretFieldW.Bytes())
	replyW.WriteBytes(nil)

	headerW := codec.NewWriter()
	headerW.WriteUint16(uint16(cephx.MessageGetAuthSessionKey))
	headerW.WriteUint32(0)
	headerW.WriteRaw(replyW.Bytes())

	done := msg.AuthDone{GlobalID: globalID, ConnectionMode: mode, AuthPayload: headerW.Bytes()}
	return encodeFrame(t, format, frame.TagAuthDone, done)
}

// fakeMonitor drives the server side of a CephX Crc-mode handshake over
// conn. It signs the transcript the way a real auth service does: its
// AuthSignature covers everything the client sent, byte for byte, since
// that's what the client's own ExchangingSignatures.RecvSignature
// checks its signature against.
func fakeMonitor(t *testing.T, conn net.Conn, masterKey, sessionKey cryptoutil.Key) {
	t.Helper()
	format := frame.FormatRev0Crc // banner negotiation settles on Rev0: Config.SupportRev21 defaults false

	var clientBanner [msg.BannerSize]byte
	_, err := readFull(conn, clientBanner[:])
	require.NoError(t, err)

	serverBanner := msg.Banner{Supported: msg.MsgrFeatureRevision1}
	serverBannerWire := serverBanner.Write()
	_, err = conn.Write(serverBannerWire[:])
	require.NoError(t, err)

	helloWire := readFrameRaw(t, conn, format)
	decodeFrameRaw(t, helloWire)
	writeFrame(t, conn, format, frame.TagHello, msg.Hello{EntityType: wireaddr.EntityTypeMon})

	reqWire := readFrameRaw(t, conn, format)
	reqFrame := decodeFrameRaw(t, reqWire)
	_, err = msg.DecodeAuthRequest(codec.NewReader(reqFrame.Segments[0]))
	require.NoError(t, err)

	cw := codec.NewWriter()
	cw.WriteUint8(1) // CephXServerChallenge's struct version
	cw.WriteUint64(0xabcd)

	mw := codec.NewWriter()
	mw.WriteUint16(uint16(cephx.MessageGetAuthSessionKey))
	mw.WriteUint32(0) // ResponseHeader.Status: success
	mw.WriteRaw(cw.Bytes())
	writeFrame(t, conn, format, frame.TagAuthReplyMore, msg.AuthReplyMore{Payload: mw.Bytes()})

	moreWire := readFrameRaw(t, conn, format)
	moreFrame := decodeFrameRaw(t, moreWire)
	_, err = msg.DecodeAuthRequestMore(codec.NewReader(moreFrame.Segments[0]))
	require.NoError(t, err)

	secret := make([]byte, 40)
	for i := range secret {
		secret[i] = byte(i + 1)
	}
	doneWire := buildAuthDoneWire(t, format, 99, msg.ConModeCrc, masterKey, sessionKey, secret)
	_, err = conn.Write(doneWire)
	require.NoError(t, err)

	clientTranscript := append(append([]byte(nil), clientBanner[:]...), helloWire...)
	clientTranscript = append(clientTranscript, reqWire...)
	clientTranscript = append(clientTranscript, moreWire...)
	peerSig := msg.AuthSignature{SHA256: sessionKey.HMACSHA256(clientTranscript)}
	writeFrame(t, conn, format, frame.TagAuthSignature, peerSig)

	sigWire := readFrameRaw(t, conn, format)
	sigFrame := decodeFrameRaw(t, sigWire)
	_, err = msg.DecodeAuthSignature(codec.NewReader(sigFrame.Segments[0]))
	require.NoError(t, err)

	identWire := readFrameRaw(t, conn, format)
	identFrame := decodeFrameRaw(t, identWire)
	_, err = msg.DecodeClientIdent(codec.NewReader(identFrame.Segments[0]))
	require.NoError(t, err)

	writeFrame(t, conn, format, frame.TagServerIdent, msg.ServerIdent{Gid: 2, GlobalSeq: 1})

	msgWire := readFrameRaw(t, conn, format)
	msgFrame := decodeFrameRaw(t, msgWire)
	env, err := msg.DecodeEnvelope(msgFrame)
	require.NoError(t, err)
	require.Equal(t, []byte("ping"), env.Front)

	reply := msg.Envelope{Front: []byte("pong")}
	f, err := reply.ToFrame()
	require.NoError(t, err)
	replyWire, err := f.Encode(format)
	require.NoError(t, err)
	_, err = conn.Write(replyWire)
	require.NoError(t, err)
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func TestDial_CephXCrcMode_ReachesActiveAndExchangesMessage(t *testing.T) {
	// A real TCP loopback listener, not net.Pipe: entityAddressFromNetAddr
	// needs *net.TCPAddr from LocalAddr/RemoteAddr, which net.Pipe's
	// in-memory endpoints don't provide.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	masterKey := testKey(0x55)
	sessionKey := testKey(0x66)

	done := make(chan struct{})
	go func() {
		defer close(done)
		serverConn, acceptErr := ln.Accept()
		require.NoError(t, acceptErr)
		defer serverConn.Close()
		fakeMonitor(t, serverConn, masterKey, sessionKey)
	}()

	clientConn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer clientConn.Close()

	cfg := Config{
		Entity:  wireaddr.EntityName{Type: wireaddr.EntityTypeClient, Name: "admin"},
		Keyring: masterKey,
	}

	active, err := handshake(context.Background(), clientConn, ln.Addr().String(), wireaddr.EntityTypeClient, cfg)
	require.NoError(t, err)

	ticket, ok := active.AuthTicket()
	require.True(t, ok)
	require.Equal(t, sessionKey, ticket.SessionTicket.SessionKey)

	ping := msg.Envelope{Front: []byte("ping")}
	f, err := ping.ToFrame()
	require.NoError(t, err)
	wire, err := active.SendFrame(f)
	require.NoError(t, err)
	_, err = clientConn.Write(wire)
	require.NoError(t, err)

	replyWire, err := readFrame(clientConn, active.Format())
	require.NoError(t, err)
	replyFrame, err := active.RecvFrame(replyWire)
	require.NoError(t, err)
	reply, err := msg.DecodeEnvelope(replyFrame)
	require.NoError(t, err)
	require.Equal(t, []byte("pong"), reply.Front)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fake monitor did not finish")
	}
}
