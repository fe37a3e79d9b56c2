package wireaddr

import "github.com/marmos91/cephmsgr/internal/codec"

// EntityName identifies a specific Ceph entity, e.g. "client.admin" or
// "mon.a": a daemon type plus an instance name.
type EntityName struct {
	Type EntityType
	Name string
}

// Encode writes the entity type widened to a u32 tag, followed by the
// name as a length-prefixed byte string.
func (n EntityName) Encode(w *codec.Writer) {
	w.WriteUint32(uint32(n.Type))
	w.WriteWireString(n.Name)
}

// DecodeEntityName reads an EntityName in the same layout Encode writes.
func DecodeEntityName(r *codec.Reader) (EntityName, error) {
	rawTy, err := r.ReadUint32()
	if err != nil {
		return EntityName{}, err.(*codec.DecodeError).ForField("ty")
	}
	ty, err := EntityTypeFromByte(uint8(rawTy))
	if err != nil {
		return EntityName{}, err
	}
	name, err := r.ReadWireString()
	if err != nil {
		return EntityName{}, err.(*codec.DecodeError).ForField("name")
	}
	return EntityName{Type: ty, Name: name}, nil
}

// String renders the entity name in Ceph's canonical "type.name" form.
func (n EntityName) String() string {
	return n.Type.String() + "." + n.Name
}
