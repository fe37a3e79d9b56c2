package monmap

import (
	"github.com/marmos91/cephmsgr/internal/codec"
	"github.com/marmos91/cephmsgr/internal/wireaddr"
)

// MonInfo describes one monitor in a MonMap: its name, the addresses it
// listens on, its election priority/weight, and its CRUSH location.
type MonInfo struct {
	Name          string
	PublicAddrs   []wireaddr.EntityAddress
	Priority      uint16
	Weight        uint16
	CrushLocation map[string]string
}

// Encode writes MonInfo in its version-5/compat-1 wire form: a
// [version, compat] byte pair, a u32 length, then the MonInfo9_5 body
// with no further framing of its own. The original reference
// implementation never finished this method; this is the completed
// form, matching what MonInfo's Decode already expects to read back.
func (m MonInfo) Encode(w *codec.Writer) {
	w.WriteUint8(5)
	w.WriteUint8(1)
	lenOff := w.ReserveUint32()
	bodyStart := w.Len()

	w.WriteWireString(m.Name)
	wireaddr.EncodeAddrVec(w, m.PublicAddrs)
	w.WriteUint16(m.Priority)
	w.WriteUint16(m.Weight)
	codec.WriteMap(w, m.CrushLocation, (*codec.Writer).WriteWireString, (*codec.Writer).WriteWireString)

	w.PatchUint32(lenOff, uint32(w.Len()-bodyStart))
}

// DecodeMonInfo parses the [version, compat] outer byte pair, the u32
// body length, and the unframed MonInfo9_5 fields that follow.
func DecodeMonInfo(r *codec.Reader) (MonInfo, error) {
	version, err := r.ReadUint8()
	if err != nil {
		return MonInfo{}, err.(*codec.DecodeError).ForField("version")
	}
	if version != 5 {
		return MonInfo{}, codec.UnexpectedVersion("MonInfo", version, 5, 5)
	}
	compat, err := r.ReadUint8()
	if err != nil {
		return MonInfo{}, err.(*codec.DecodeError).ForField("compat")
	}
	if compat != 1 {
		return MonInfo{}, codec.UnexpectedVersion("MonInfo", compat, 1, 1)
	}

	n, err := r.ReadUint32()
	if err != nil {
		return MonInfo{}, err.(*codec.DecodeError).ForField("struct_len")
	}
	raw, err := r.ReadRaw(int(n))
	if err != nil {
		return MonInfo{}, err.(*codec.DecodeError).ForField("struct_body")
	}
	body := codec.NewReader(raw)

	name, err := body.ReadWireString()
	if err != nil {
		return MonInfo{}, err.(*codec.DecodeError).ForField("name")
	}
	addrs, err := wireaddr.DecodeAddrVec(body)
	if err != nil {
		return MonInfo{}, err
	}
	priority, err := body.ReadUint16()
	if err != nil {
		return MonInfo{}, err.(*codec.DecodeError).ForField("priority")
	}
	weight, err := body.ReadUint16()
	if err != nil {
		return MonInfo{}, err.(*codec.DecodeError).ForField("weight")
	}
	crushLocation, err := codec.ReadMap(body, (*codec.Reader).ReadWireString, (*codec.Reader).ReadWireString)
	if err != nil {
		return MonInfo{}, err
	}

	return MonInfo{
		Name:          name,
		PublicAddrs:   addrs,
		Priority:      priority,
		Weight:        weight,
		CrushLocation: crushLocation,
	}, nil
}
