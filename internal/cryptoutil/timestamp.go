package cryptoutil

import "github.com/marmos91/cephmsgr/internal/codec"

// Timestamp is Ceph's plain (unversioned) wire timestamp: seconds and
// nanoseconds since the Unix epoch, each a little-endian u32.
type Timestamp struct {
	TvSec  uint32
	TvNsec uint32
}

func (t Timestamp) Encode(w *codec.Writer) {
	w.WriteUint32(t.TvSec)
	w.WriteUint32(t.TvNsec)
}

func DecodeTimestamp(r *codec.Reader) (Timestamp, error) {
	sec, err := r.ReadUint32()
	if err != nil {
		return Timestamp{}, err.(*codec.DecodeError).ForField("tv_sec")
	}
	nsec, err := r.ReadUint32()
	if err != nil {
		return Timestamp{}, err.(*codec.DecodeError).ForField("tv_nsec")
	}
	return Timestamp{TvSec: sec, TvNsec: nsec}, nil
}
