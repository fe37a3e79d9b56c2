// Package cephx implements the CephX authentication subprotocol carried
// inside msgr2's auth frames: challenge/response key derivation, ticket
// blobs, and the session-key/connection-secret material a successful
// handshake produces.
package cephx

import (
	"github.com/marmos91/cephmsgr/internal/codec"
	"github.com/marmos91/cephmsgr/internal/cryptoutil"
	"github.com/marmos91/cephmsgr/internal/wireaddr"
)

// TicketBlob is an opaque, secret-ID-tagged blob: generally the
// encoded-and-encrypted form of a ServiceTicket.
type TicketBlob struct {
	SecretID uint64
	Blob     []byte
}

func (t TicketBlob) Encode(w *codec.Writer) {
	w.WriteUint8(1)
	w.WriteUint64(t.SecretID)
	w.WriteBytes(t.Blob)
}

func DecodeTicketBlob(r *codec.Reader) (TicketBlob, error) {
	version, err := r.ReadUint8()
	if err != nil {
		return TicketBlob{}, err.(*codec.DecodeError).ForField("version")
	}
	if version != 1 {
		return TicketBlob{}, codec.UnexpectedVersion("CephXTicketBlob", version, 1, 1)
	}
	secretID, err := r.ReadUint64()
	if err != nil {
		return TicketBlob{}, err.(*codec.DecodeError).ForField("secret_id")
	}
	blob, err := r.ReadBytesCopy()
	if err != nil {
		return TicketBlob{}, err.(*codec.DecodeError).ForField("blob")
	}
	return TicketBlob{SecretID: secretID, Blob: blob}, nil
}

// ServiceTicket is the session key and validity window minted for a
// single service (auth, mon, osd, ...), sealed inside a TicketBlob or a
// service ticket info entry.
type ServiceTicket struct {
	SessionKey cryptoutil.Key
	Validity   cryptoutil.Timestamp
}

func (t ServiceTicket) Encode(w *codec.Writer) {
	w.WriteUint8(1)
	t.SessionKey.Encode(w)
	t.Validity.Encode(w)
}

func DecodeServiceTicket(r *codec.Reader) (ServiceTicket, error) {
	version, err := r.ReadUint8()
	if err != nil {
		return ServiceTicket{}, err.(*codec.DecodeError).ForField("version")
	}
	if version != 1 {
		return ServiceTicket{}, codec.UnexpectedVersion("CephXServiceTicket", version, 1, 1)
	}
	key, err := cryptoutil.DecodeKey(r)
	if err != nil {
		return ServiceTicket{}, err
	}
	validity, err := cryptoutil.DecodeTimestamp(r)
	if err != nil {
		return ServiceTicket{}, err
	}
	return ServiceTicket{SessionKey: key, Validity: validity}, nil
}

// AuthCaps is the capability grant attached to an AuthTicket.
type AuthCaps struct {
	AllowAll bool
	Caps     []byte
}

func (c AuthCaps) Encode(w *codec.Writer) {
	w.WriteUint8(1)
	w.WriteBool(c.AllowAll)
	w.WriteBytes(c.Caps)
}

func DecodeAuthCaps(r *codec.Reader) (AuthCaps, error) {
	version, err := r.ReadUint8()
	if err != nil {
		return AuthCaps{}, err.(*codec.DecodeError).ForField("version")
	}
	if version != 1 {
		return AuthCaps{}, codec.UnexpectedVersion("AuthCapsInfo", version, 1, 1)
	}
	allowAll, err := r.ReadBool()
	if err != nil {
		return AuthCaps{}, err.(*codec.DecodeError).ForField("allow_all")
	}
	caps, err := r.ReadBytesCopy()
	if err != nil {
		return AuthCaps{}, err.(*codec.DecodeError).ForField("caps")
	}
	return AuthCaps{AllowAll: allowAll, Caps: caps}, nil
}

// AuthTicket is the identity Ceph's auth service vouches for: an entity
// name, a cluster-assigned global ID, a validity window, and a
// capability grant.
type AuthTicket struct {
	Name     wireaddr.EntityName
	GlobalID uint64
	Created  cryptoutil.Timestamp
	Expires  cryptoutil.Timestamp
	Caps     AuthCaps
	Flags    uint32
}

// authUIDDefault mirrors CEPH_AUTH_UID_DEFAULT: the sentinel "no
// specific UID" value every AuthTicket carries in its uid slot.
const authUIDDefault = ^uint64(0)

func (t AuthTicket) Encode(w *codec.Writer) {
	w.WriteUint8(2)
	t.Name.Encode(w)
	w.WriteUint64(t.GlobalID)
	w.WriteUint64(authUIDDefault)
	t.Created.Encode(w)
	t.Expires.Encode(w)
	t.Caps.Encode(w)
	w.WriteUint32(t.Flags)
}

func DecodeAuthTicket(r *codec.Reader) (AuthTicket, error) {
	version, err := r.ReadUint8()
	if err != nil {
		return AuthTicket{}, err.(*codec.DecodeError).ForField("version")
	}
	if version != 2 {
		return AuthTicket{}, codec.UnexpectedVersion("AuthTicket", version, 2, 2)
	}
	name, err := wireaddr.DecodeEntityName(r)
	if err != nil {
		return AuthTicket{}, err
	}
	globalID, err := r.ReadUint64()
	if err != nil {
		return AuthTicket{}, err.(*codec.DecodeError).ForField("global_id")
	}
	if _, err := r.ReadUint64(); err != nil { // uid, always authUIDDefault
		return AuthTicket{}, err.(*codec.DecodeError).ForField("uid")
	}
	created, err := cryptoutil.DecodeTimestamp(r)
	if err != nil {
		return AuthTicket{}, err
	}
	expires, err := cryptoutil.DecodeTimestamp(r)
	if err != nil {
		return AuthTicket{}, err
	}
	caps, err := DecodeAuthCaps(r)
	if err != nil {
		return AuthTicket{}, err
	}
	flags, err := r.ReadUint32()
	if err != nil {
		return AuthTicket{}, err.(*codec.DecodeError).ForField("flags")
	}
	return AuthTicket{Name: name, GlobalID: globalID, Created: created, Expires: expires, Caps: caps, Flags: flags}, nil
}

// ServiceTicketInfo pairs an AuthTicket with the session key a client
// uses to talk to the service that issued it.
type ServiceTicketInfo struct {
	AuthTicket AuthTicket
	SessionKey cryptoutil.Key
}

func (i ServiceTicketInfo) Encode(w *codec.Writer) {
	w.WriteUint8(1)
	i.AuthTicket.Encode(w)
	i.SessionKey.Encode(w)
}

func DecodeServiceTicketInfo(r *codec.Reader) (ServiceTicketInfo, error) {
	version, err := r.ReadUint8()
	if err != nil {
		return ServiceTicketInfo{}, err.(*codec.DecodeError).ForField("version")
	}
	if version != 1 {
		return ServiceTicketInfo{}, codec.UnexpectedVersion("CephXServiceTicketInfo", version, 1, 1)
	}
	ticket, err := DecodeAuthTicket(r)
	if err != nil {
		return ServiceTicketInfo{}, err
	}
	key, err := cryptoutil.DecodeKey(r)
	if err != nil {
		return ServiceTicketInfo{}, err
	}
	return ServiceTicketInfo{AuthTicket: ticket, SessionKey: key}, nil
}

// MaybeEncryptedTicketBlob is a refresh ticket that may or may not
// already be encrypted for the target service, as carried inside
// AuthServiceTicketInfo.
type MaybeEncryptedTicketBlob struct {
	Encrypted bool
	Plain     TicketBlob // valid iff !Encrypted
	Raw       []byte     // valid iff Encrypted
}

func (b MaybeEncryptedTicketBlob) Encode(w *codec.Writer) {
	w.WriteBool(b.Encrypted)
	if b.Encrypted {
		w.WriteBytes(b.Raw)
	} else {
		inner := codec.NewWriter()
		b.Plain.Encode(inner)
		w.WriteBytes(inner.Bytes())
	}
}

func DecodeMaybeEncryptedTicketBlob(r *codec.Reader) (MaybeEncryptedTicketBlob, error) {
	encrypted, err := r.ReadBool()
	if err != nil {
		return MaybeEncryptedTicketBlob{}, err.(*codec.DecodeError).ForField("encrypted")
	}
	blob, err := r.ReadBytesCopy()
	if err != nil {
		return MaybeEncryptedTicketBlob{}, err.(*codec.DecodeError).ForField("blob")
	}
	if encrypted {
		return MaybeEncryptedTicketBlob{Encrypted: true, Raw: blob}, nil
	}
	plain, err := DecodeTicketBlob(codec.NewReader(blob))
	if err != nil {
		return MaybeEncryptedTicketBlob{}, err
	}
	return MaybeEncryptedTicketBlob{Plain: plain}, nil
}

// Ticket is a fully decrypted service ticket, ready for use against the
// entity type it was minted for.
type Ticket struct {
	Type          wireaddr.EntityType
	SessionTicket ServiceTicket
	RefreshTicket MaybeEncryptedTicketBlob
}

// TicketsAndConnectionSecret is the outcome of decrypting an
// AuthServiceTicketReply: every ticket the auth service granted, plus
// the raw connection secret a Secure-mode connection splits into its
// frame encryption key and nonces.
type TicketsAndConnectionSecret struct {
	Tickets          []Ticket
	ConnectionSecret []byte
}
