package connection

import (
	"github.com/marmos91/cephmsgr/internal/cephx"
	"github.com/marmos91/cephmsgr/internal/frame"
)

// core holds the fields every state past Inactive needs: which msgr2
// revision was negotiated and the (possibly still unset) Secure-mode
// encryption material.
type core struct {
	revision   Revision
	encryption FrameEncryption
}

// format derives the frame format this connection currently uses from
// its revision and whether Secure-mode encryption has been installed.
func (c *core) format() frame.Format {
	secure := c.encryption.IsSecure()
	switch {
	case c.revision == Rev0 && !secure:
		return frame.FormatRev0Crc
	case c.revision == Rev1 && !secure:
		return frame.FormatRev1Crc
	case c.revision == Rev0 && secure:
		return frame.FormatRev0Secure
	default:
		return frame.FormatRev1Secure
	}
}

// Inactive is a freshly created connection that has not yet exchanged
// banners with its peer.
type Inactive struct {
	config Config
}

// ExchangeHello is negotiating msgr2 revision via Hello exchange, after
// a compatible banner pair has been observed.
type ExchangeHello struct {
	core
	config Config
	rxBuf  []byte
	txBuf  []byte
}

// Authenticating is running the CephX (or None) handshake.
type Authenticating struct {
	core
	config Config
	rxBuf  []byte
	txBuf  []byte
}

// ExchangingSignatures is verifying the HMAC-SHA256 transcript
// signatures that close out authentication. If AuthDone granted a
// Secure connection mode, the session key is already installed by the
// time this state is entered, so the signatures themselves travel
// sealed under Rev1Secure framing — matching what a real msgr2
// connection does.
type ExchangingSignatures struct {
	core
	config  Config
	rxBuf   []byte
	txBuf   []byte
	tickets []cephx.Ticket
}

// Identifying is exchanging ClientIdent/ServerIdent.
type Identifying struct {
	core
	config  Config
	tickets []cephx.Ticket
}

// Active is a fully negotiated connection, free to send and receive
// application Message envelopes.
type Active struct {
	core
	tickets []cephx.Ticket
}

// Format reports the frame format this state currently reads and
// writes, so a transport driving the connection over a real net.Conn
// knows how many wire bytes to read before decoding the next frame.
func (s *ExchangeHello) Format() frame.Format        { return s.core.format() }
func (s *Authenticating) Format() frame.Format       { return s.core.format() }
func (s *ExchangingSignatures) Format() frame.Format { return s.core.format() }
func (s *Identifying) Format() frame.Format          { return s.core.format() }
func (s *Active) Format() frame.Format               { return s.core.format() }

// AuthTicket returns the Auth-service ticket minted during
// authentication, if any (it won't be, for AuthMethodNone connections).
func (s *Active) AuthTicket() (cephx.Ticket, bool) {
	return findAuthTicket(s.tickets)
}

func findAuthTicket(tickets []cephx.Ticket) (cephx.Ticket, bool) {
	for _, t := range tickets {
		if t.Type == authEntityType {
			return t, true
		}
	}
	return cephx.Ticket{}, false
}
