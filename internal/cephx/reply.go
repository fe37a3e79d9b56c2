package cephx

import (
	"fmt"

	"github.com/marmos91/cephmsgr/internal/codec"
	"github.com/marmos91/cephmsgr/internal/cryptoutil"
	"github.com/marmos91/cephmsgr/internal/wireaddr"
)

// serviceTicketInfo is one entry of a ServiceTicketReply: the service
// this ticket is for, its session ticket (still encrypted under the
// master/session key it was requested with), and a refresh ticket.
type serviceTicketInfo struct {
	Type                    wireaddr.EntityType
	EncryptedSessionTicket  []byte
	RefreshTicket           MaybeEncryptedTicketBlob
}

func decodeServiceTicketInfo(r *codec.Reader) (serviceTicketInfo, error) {
	rawTy, err := r.ReadUint32()
	if err != nil {
		return serviceTicketInfo{}, err.(*codec.DecodeError).ForField("ty")
	}
	ty, err := wireaddr.EntityTypeFromByte(uint8(rawTy))
	if err != nil {
		return serviceTicketInfo{}, err
	}
	version, err := r.ReadUint8()
	if err != nil {
		return serviceTicketInfo{}, err.(*codec.DecodeError).ForField("version")
	}
	if version != 1 {
		return serviceTicketInfo{}, codec.UnexpectedVersion("AuthServiceTicketInfo", version, 1, 1)
	}
	session, err := r.ReadBytesCopy()
	if err != nil {
		return serviceTicketInfo{}, err.(*codec.DecodeError).ForField("encrypted_session_ticket")
	}
	refresh, err := DecodeMaybeEncryptedTicketBlob(r)
	if err != nil {
		return serviceTicketInfo{}, err
	}
	return serviceTicketInfo{Type: ty, EncryptedSessionTicket: session, RefreshTicket: refresh}, nil
}

// serviceTicketReply is a version-prefixed list of serviceTicketInfo
// entries, itself carried as a length-prefixed byte string inside
// AuthServiceTicketReply.
type serviceTicketReply struct {
	Tickets []serviceTicketInfo
}

func decodeServiceTicketReplyBytes(b []byte) (serviceTicketReply, error) {
	if len(b) == 0 {
		return serviceTicketReply{}, nil
	}
	r := codec.NewReader(b)
	version, err := r.ReadUint8()
	if err != nil {
		return serviceTicketReply{}, err.(*codec.DecodeError).ForField("version")
	}
	if version != 1 {
		return serviceTicketReply{}, codec.UnexpectedVersion("ServiceTicketReply", version, 1, 1)
	}
	tickets, err := codec.ReadSlice(r, decodeServiceTicketInfo)
	if err != nil {
		return serviceTicketReply{}, err
	}
	return serviceTicketReply{Tickets: tickets}, nil
}

// AuthServiceTicketReply is the server's answer to a successful
// CephXAuthenticate: a reply carrying the auth service's own ticket, an
// encrypted connection secret, and any additional tickets requested via
// Authenticate.OtherKeys.
type AuthServiceTicketReply struct {
	serviceTicketReply   serviceTicketReply
	ConnectionSecret     []byte
	extraServiceTickets  serviceTicketReply
}

// DecodeAuthServiceTicketReply reads an AuthServiceTicketReply from the
// decrypted GetAuthSessionKey response payload.
func DecodeAuthServiceTicketReply(r *codec.Reader) (AuthServiceTicketReply, error) {
	mainBytes, err := r.ReadBytesCopy()
	if err != nil {
		return AuthServiceTicketReply{}, err.(*codec.DecodeError).ForField("service_ticket_reply")
	}
	main, err := decodeServiceTicketReplyBytes(mainBytes)
	if err != nil {
		return AuthServiceTicketReply{}, err
	}

	secret, err := r.ReadBytesCopy()
	if err != nil {
		return AuthServiceTicketReply{}, err.(*codec.DecodeError).ForField("connection_secret")
	}

	extraBytes, err := r.ReadBytesCopy()
	if err != nil {
		return AuthServiceTicketReply{}, err.(*codec.DecodeError).ForField("extra_service_tickets")
	}
	extra, err := decodeServiceTicketReplyBytes(extraBytes)
	if err != nil {
		return AuthServiceTicketReply{}, err
	}

	return AuthServiceTicketReply{
		serviceTicketReply:  main,
		ConnectionSecret:    secret,
		extraServiceTickets: extra,
	}, nil
}

// Decrypt unwraps the reply's nested enc_bl layers under masterKey: the
// auth service's own session ticket, the connection secret (itself
// sealed under that session key), and every additionally granted
// ticket.
func (reply AuthServiceTicketReply) Decrypt(masterKey cryptoutil.Key) (TicketsAndConnectionSecret, error) {
	if len(reply.serviceTicketReply.Tickets) != 1 {
		return TicketsAndConnectionSecret{}, fmt.Errorf("cephx: expected exactly one ticket from the auth service, got %d", len(reply.serviceTicketReply.Tickets))
	}
	authInfo := reply.serviceTicketReply.Tickets[0]
	if authInfo.Type != wireaddr.EntityTypeAuth {
		return TicketsAndConnectionSecret{}, fmt.Errorf("cephx: expected an Auth-service ticket, got %v", authInfo.Type)
	}

	authServiceTicket, err := cryptoutil.OpenEncBl(authInfo.EncryptedSessionTicket, masterKey, DecodeServiceTicket)
	if err != nil {
		return TicketsAndConnectionSecret{}, fmt.Errorf("cephx: decrypting auth service ticket: %w", err)
	}

	connR := codec.NewReader(reply.ConnectionSecret)
	connSealed, err := connR.ReadBytesCopy()
	if err != nil {
		return TicketsAndConnectionSecret{}, err.(*codec.DecodeError).ForField("connection_secret_inner")
	}
	connectionSecret, err := cryptoutil.OpenEncBl(connSealed, authServiceTicket.SessionKey, func(r *codec.Reader) ([]byte, error) {
		return r.ReadRaw(r.Len())
	})
	if err != nil {
		return TicketsAndConnectionSecret{}, fmt.Errorf("cephx: decrypting connection secret: %w", err)
	}

	var tickets []Ticket
	for _, info := range reply.extraServiceTickets.Tickets {
		sessionTicket, err := cryptoutil.OpenEncBl(info.EncryptedSessionTicket, authServiceTicket.SessionKey, DecodeServiceTicket)
		if err != nil {
			return TicketsAndConnectionSecret{}, fmt.Errorf("cephx: decrypting service ticket for %v: %w", info.Type, err)
		}
		tickets = append(tickets, Ticket{Type: info.Type, SessionTicket: sessionTicket, RefreshTicket: info.RefreshTicket})
	}
	tickets = append(tickets, Ticket{Type: wireaddr.EntityTypeAuth, SessionTicket: authServiceTicket, RefreshTicket: authInfo.RefreshTicket})

	return TicketsAndConnectionSecret{Tickets: tickets, ConnectionSecret: connectionSecret}, nil
}
