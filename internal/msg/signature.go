package msg

import "github.com/marmos91/cephmsgr/internal/codec"

// AuthSignature carries one side's HMAC-SHA256 over the handshake
// transcript, exchanged at the end of CephX authentication. A
// zero-signature is valid for a connection authenticated with
// AuthMethodNone.
type AuthSignature struct {
	SHA256 [32]byte
}

func (s AuthSignature) Encode(w *codec.Writer) {
	w.WriteRaw(s.SHA256[:])
}

func DecodeAuthSignature(r *codec.Reader) (AuthSignature, error) {
	b, err := r.ReadFixed(32)
	if err != nil {
		return AuthSignature{}, err.(*codec.DecodeError).ForField("sha256")
	}
	var sig AuthSignature
	copy(sig.SHA256[:], b)
	return sig, nil
}

// IdentMissingFeatures is sent instead of ServerIdent when the server
// requires msgr2 features the client didn't advertise.
type IdentMissingFeatures struct {
	Features MsgrFeatures
}

func (m IdentMissingFeatures) Encode(w *codec.Writer) {
	w.WriteUint64(uint64(m.Features))
}

func DecodeIdentMissingFeatures(r *codec.Reader) (IdentMissingFeatures, error) {
	v, err := r.ReadUint64()
	if err != nil {
		return IdentMissingFeatures{}, err.(*codec.DecodeError).ForField("features")
	}
	return IdentMissingFeatures{Features: MsgrFeatures(v)}, nil
}
