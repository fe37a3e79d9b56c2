package connection

import (
	"github.com/marmos91/cephmsgr/internal/wireaddr"
)

// authEntityType identifies the auth-service ticket among a CephX
// reply's granted tickets.
const authEntityType = wireaddr.EntityTypeAuth

// Config holds the client-side choices that don't change across a
// connection's lifetime: whether to offer msgr2 revision 2.1, which
// additional service tickets to request alongside the mandatory Auth
// ticket, and an old ticket blob to present for renewal (empty for a
// fresh session).
type Config struct {
	SupportRev21 bool
	TicketsFor   []wireaddr.EntityType
	OldTicket    []byte
}
