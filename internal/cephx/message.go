package cephx

import (
	"encoding/binary"
	"fmt"

	"github.com/marmos91/cephmsgr/internal/codec"
	"github.com/marmos91/cephmsgr/internal/cryptoutil"
	"github.com/marmos91/cephmsgr/internal/wireaddr"
)

// MessageType tags the operation requested/answered by a CephXMessage
// payload.
type MessageType uint16

const (
	MessageGetAuthSessionKey      MessageType = 0x0100
	MessageGetPrincipalSessionKey MessageType = 0x0200
	MessageGetRotatingKey         MessageType = 0x0400
)

func messageTypeFromU16(v uint16) (MessageType, error) {
	switch MessageType(v) {
	case MessageGetAuthSessionKey, MessageGetPrincipalSessionKey, MessageGetRotatingKey:
		return MessageType(v), nil
	default:
		return 0, codec.UnknownValue("CephXMessageType", v)
	}
}

// ResponseHeader precedes every CephXMessage payload sent by a server:
// the message type being answered, and a status code (0 == success).
type ResponseHeader struct {
	Type   MessageType
	Status uint32
}

func DecodeResponseHeader(r *codec.Reader) (ResponseHeader, error) {
	rawTy, err := r.ReadUint16()
	if err != nil {
		return ResponseHeader{}, err.(*codec.DecodeError).ForField("ty")
	}
	ty, err := messageTypeFromU16(rawTy)
	if err != nil {
		return ResponseHeader{}, err
	}
	status, err := r.ReadUint32()
	if err != nil {
		return ResponseHeader{}, err.(*codec.DecodeError).ForField("status")
	}
	return ResponseHeader{Type: ty, Status: status}, nil
}

// Message is a type-tagged CephX payload, the unit exchanged inside an
// AuthRequest/AuthRequestMore/AuthDone's opaque auth_payload field.
type Message struct {
	Type    MessageType
	Payload []byte
}

// NewMessage encodes payload and tags it with ty.
func NewMessage(ty MessageType, payload cryptoutil.Encodable) Message {
	w := codec.NewWriter()
	payload.Encode(w)
	return Message{Type: ty, Payload: w.Bytes()}
}

func (m Message) Encode(w *codec.Writer) {
	w.WriteUint16(uint16(m.Type))
	w.WriteRaw(m.Payload)
}

// DecodeMessage reads a ResponseHeader followed by its payload, failing
// if the header reports a non-zero (error) status.
func DecodeMessage(r *codec.Reader) (Message, error) {
	header, err := DecodeResponseHeader(r)
	if err != nil {
		return Message{}, err
	}
	if header.Status != 0 {
		return Message{}, fmt.Errorf("cephx: error status %d for message type %v", header.Status, header.Type)
	}
	return Message{Type: header.Type, Payload: r.Remaining()}, nil
}

// AuthenticateKey is the derived proof-of-possession value a client
// sends back to the server after a challenge/response exchange: the XOR
// of every 8-byte chunk of the AES-CBC-sealed (server_challenge,
// client_challenge) pair, encrypted under the shared secret.
type AuthenticateKey uint64

// challengeBlob is the plaintext ComputeAuthenticateKey seals: the two
// challenge values, little-endian, back to back.
type challengeBlob struct {
	serverChallenge uint64
	clientChallenge uint64
}

func (b challengeBlob) Encode(w *codec.Writer) {
	w.WriteUint64(b.serverChallenge)
	w.WriteUint64(b.clientChallenge)
}

// ComputeAuthenticateKey derives the key CephXAuthenticate.Key carries,
// per the Ceph wire protocol's challenge/response scheme.
func ComputeAuthenticateKey(serverChallenge, clientChallenge uint64, key cryptoutil.Key) (AuthenticateKey, error) {
	sealed, err := cryptoutil.SealEncBl(challengeBlob{serverChallenge, clientChallenge}, key)
	if err != nil {
		return 0, err
	}

	var k uint64
	for len(sealed) >= 8 {
		k ^= binary.LittleEndian.Uint64(sealed[:8])
		sealed = sealed[8:]
	}
	return AuthenticateKey(k), nil
}

// Authenticate is the client's response to a server challenge: the
// client's own challenge value, the derived AuthenticateKey, an
// optional ticket to refresh, and the set of additional service types
// being requested.
type Authenticate struct {
	ClientChallenge uint64
	Key             AuthenticateKey
	OldTicket       TicketBlob
	OtherKeys       map[wireaddr.EntityType]struct{}
}

func (a Authenticate) Encode(w *codec.Writer) {
	w.WriteUint8(3)
	w.WriteUint64(a.ClientChallenge)
	w.WriteUint64(uint64(a.Key))
	a.OldTicket.Encode(w)

	var mask uint32
	for t := range a.OtherKeys {
		mask |= uint32(t)
	}
	w.WriteUint32(mask)
}

// ServerChallenge is the unauthenticated challenge value sent by a
// server to kick off the CephX handshake.
type ServerChallenge struct {
	Challenge uint64
}

func DecodeServerChallenge(r *codec.Reader) (ServerChallenge, error) {
	version, err := r.ReadUint8()
	if err != nil {
		return ServerChallenge{}, err.(*codec.DecodeError).ForField("version")
	}
	if version != 1 {
		return ServerChallenge{}, codec.UnexpectedVersion("CephXServerChallenge", version, 1, 1)
	}
	challenge, err := r.ReadUint64()
	if err != nil {
		return ServerChallenge{}, err.(*codec.DecodeError).ForField("challenge")
	}
	return ServerChallenge{Challenge: challenge}, nil
}
