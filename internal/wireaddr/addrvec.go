package wireaddr

import "github.com/marmos91/cephmsgr/internal/codec"

// addrVecMarker distinguishes the modern multi-address encoding from a
// legacy single-EntityAddress encoding older daemons used; this codec
// only ever produces and expects the modern form.
const addrVecMarker = 2

// EncodeAddrVec writes a []EntityAddress in the marker+count+elements
// form MonInfo.public_addrs (and similarly-shaped fields) use.
func EncodeAddrVec(w *codec.Writer, addrs []EntityAddress) {
	w.WriteUint8(addrVecMarker)
	w.WriteUint32(uint32(len(addrs)))
	for _, a := range addrs {
		a.Encode(w)
	}
}

// DecodeAddrVec parses the marker+count+elements form.
func DecodeAddrVec(r *codec.Reader) ([]EntityAddress, error) {
	marker, err := r.ReadUint8()
	if err != nil {
		return nil, err.(*codec.DecodeError).ForField("addrvec_marker")
	}
	if marker != addrVecMarker {
		return nil, codec.UnknownValue("AddrVecMarker", marker)
	}
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err.(*codec.DecodeError).ForField("addrvec_count")
	}
	out := make([]EntityAddress, 0, n)
	for i := uint32(0); i < n; i++ {
		addr, err := DecodeEntityAddress(r)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}
