// Package monmap decodes the monitor map messages a CephX/msgr2
// client receives from a monitor: cluster identity, monitor addresses,
// and the feature bits gating the rest of the handshake.
package monmap

import (
	"encoding/hex"
	"fmt"

	"github.com/marmos91/cephmsgr/internal/codec"
)

// Uuid is a 16-byte cluster fsid, carried on the wire as a plain
// fixed-size byte array with no version framing.
type Uuid [16]byte

func (u Uuid) String() string {
	return fmt.Sprintf("%s-%s-%s-%s-%s",
		hex.EncodeToString(u[0:4]),
		hex.EncodeToString(u[4:6]),
		hex.EncodeToString(u[6:8]),
		hex.EncodeToString(u[8:10]),
		hex.EncodeToString(u[10:16]))
}

func (u Uuid) Encode(w *codec.Writer) {
	w.WriteRaw(u[:])
}

func DecodeUuid(r *codec.Reader) (Uuid, error) {
	b, err := r.ReadFixed(16)
	if err != nil {
		return Uuid{}, err.(*codec.DecodeError).ForField("fsid")
	}
	var u Uuid
	copy(u[:], b)
	return u, nil
}
