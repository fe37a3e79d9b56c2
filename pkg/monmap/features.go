package monmap

import "github.com/marmos91/cephmsgr/internal/codec"

// MonFeatures is the bitmask of persistent/optional features a monitor
// map (or monitor) advertises — distinct from CephFeatureSet, which
// gates msgr2 connection negotiation rather than monmap semantics.
type MonFeatures struct {
	Value uint64
}

func (f MonFeatures) Encode(w *codec.Writer) {
	sw := codec.BeginStructCompat(w, 1, 1)
	w.WriteUint64(f.Value)
	sw.End()
}

func DecodeMonFeatures(r *codec.Reader) (MonFeatures, error) {
	hdr, err := codec.ReadStructCompat(r, "MonFeatures", 1, 1, 1)
	if err != nil {
		return MonFeatures{}, err
	}
	value, err := hdr.Inner.ReadUint64()
	if err != nil {
		return MonFeatures{}, err.(*codec.DecodeError).ForField("value")
	}
	return MonFeatures{Value: value}, nil
}
