package wireaddr

import "github.com/marmos91/cephmsgr/internal/codec"

// EntityType identifies the kind of Ceph daemon on the other end of a
// connection, as opposed to EntityAddressType which only describes the
// addressing scheme in use.
type EntityType uint8

const (
	EntityTypeMon    EntityType = 0x01
	EntityTypeMds    EntityType = 0x02
	EntityTypeOsd    EntityType = 0x04
	EntityTypeClient EntityType = 0x08
	EntityTypeMgr    EntityType = 0x10
	EntityTypeAuth   EntityType = 0x20
	EntityTypeAny    EntityType = 0xFF
)

func (t EntityType) String() string {
	switch t {
	case EntityTypeMon:
		return "mon"
	case EntityTypeMds:
		return "mds"
	case EntityTypeOsd:
		return "osd"
	case EntityTypeClient:
		return "client"
	case EntityTypeMgr:
		return "mgr"
	case EntityTypeAuth:
		return "auth"
	case EntityTypeAny:
		return "any"
	default:
		return "unknown"
	}
}

// EntityTypeFromByte validates a raw wire byte against the known
// EntityType enumerants.
func EntityTypeFromByte(v uint8) (EntityType, error) {
	switch v {
	case 0x01, 0x02, 0x04, 0x08, 0x10, 0x20, 0xFF:
		return EntityType(v), nil
	default:
		return 0, codec.UnknownValue("EntityType", v)
	}
}

// Encode writes the EntityType as its single-byte wire tag.
func (t EntityType) Encode(w *codec.Writer) {
	w.WriteUint8(uint8(t))
}
