package msg

import (
	"github.com/marmos91/cephmsgr/internal/codec"
	"github.com/marmos91/cephmsgr/internal/wireaddr"
)

// Hello is the first frame-carried message: each side states what kind
// of entity it is and what address it observes the peer as having.
type Hello struct {
	EntityType  wireaddr.EntityType
	PeerAddress wireaddr.EntityAddress
}

func (h Hello) Encode(w *codec.Writer) {
	h.EntityType.Encode(w)
	h.PeerAddress.Encode(w)
}

func DecodeHello(r *codec.Reader) (Hello, error) {
	entityType, err := r.ReadUint8()
	if err != nil {
		return Hello{}, err.(*codec.DecodeError).ForField("entity_type")
	}
	ty, err := wireaddr.EntityTypeFromByte(entityType)
	if err != nil {
		return Hello{}, err
	}
	addr, err := wireaddr.DecodeEntityAddress(r)
	if err != nil {
		return Hello{}, err
	}
	return Hello{EntityType: ty, PeerAddress: addr}, nil
}
