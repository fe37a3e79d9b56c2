package msg

import (
	"github.com/marmos91/cephmsgr/internal/codec"
	"github.com/marmos91/cephmsgr/internal/wireaddr"
)

// ClientIdent is sent by the client once authentication signatures
// have been exchanged: the addresses it can be reached at, which
// address it believes it's talking to, and the feature/flag bits that
// govern the rest of the session.
type ClientIdent struct {
	Addresses         []wireaddr.EntityAddress
	Target            wireaddr.EntityAddress
	Gid               int64
	GlobalSeq         uint64
	SupportedFeatures MsgrFeatures
	RequiredFeatures  MsgrFeatures
	Flags             uint64
	Cookie            uint64
}

func (c ClientIdent) Encode(w *codec.Writer) {
	wireaddr.EncodeAddrVec(w, c.Addresses)
	c.Target.Encode(w)
	w.WriteInt64(c.Gid)
	w.WriteUint64(c.GlobalSeq)
	w.WriteUint64(uint64(c.SupportedFeatures))
	w.WriteUint64(uint64(c.RequiredFeatures))
	w.WriteUint64(c.Flags)
	w.WriteUint64(c.Cookie)
}

func DecodeClientIdent(r *codec.Reader) (ClientIdent, error) {
	addresses, err := wireaddr.DecodeAddrVec(r)
	if err != nil {
		return ClientIdent{}, err
	}
	target, err := wireaddr.DecodeEntityAddress(r)
	if err != nil {
		return ClientIdent{}, err
	}
	gid, err := r.ReadInt64()
	if err != nil {
		return ClientIdent{}, err.(*codec.DecodeError).ForField("gid")
	}
	globalSeq, err := r.ReadUint64()
	if err != nil {
		return ClientIdent{}, err.(*codec.DecodeError).ForField("global_seq")
	}
	supported, err := r.ReadUint64()
	if err != nil {
		return ClientIdent{}, err.(*codec.DecodeError).ForField("supported_features")
	}
	required, err := r.ReadUint64()
	if err != nil {
		return ClientIdent{}, err.(*codec.DecodeError).ForField("required_features")
	}
	flags, err := r.ReadUint64()
	if err != nil {
		return ClientIdent{}, err.(*codec.DecodeError).ForField("flags")
	}
	cookie, err := r.ReadUint64()
	if err != nil {
		return ClientIdent{}, err.(*codec.DecodeError).ForField("cookie")
	}
	return ClientIdent{
		Addresses:         addresses,
		Target:            target,
		Gid:               gid,
		GlobalSeq:         globalSeq,
		SupportedFeatures: MsgrFeatures(supported),
		RequiredFeatures:  MsgrFeatures(required),
		Flags:             flags,
		Cookie:            cookie,
	}, nil
}

// ServerIdent is the server's reply to ClientIdent, completing the
// Identifying state. Struct version 2.
type ServerIdent struct {
	Addresses         []wireaddr.EntityAddress
	Gid               int64
	GlobalSeq         uint64
	SupportedFeatures wireaddr.CephFeatureSet
	RequiredFeatures  wireaddr.CephFeatureSet
	Flags             uint64
	Cookie            uint64
}

func (s ServerIdent) Encode(w *codec.Writer) {
	sw := codec.BeginStruct(w, 2)
	wireaddr.EncodeAddrVec(w, s.Addresses)
	w.WriteInt64(s.Gid)
	w.WriteUint64(s.GlobalSeq)
	w.WriteUint64(s.SupportedFeatures.Bits)
	w.WriteUint64(s.RequiredFeatures.Bits)
	w.WriteUint64(s.Flags)
	w.WriteUint64(s.Cookie)
	sw.End()
}

func DecodeServerIdent(r *codec.Reader) (ServerIdent, error) {
	hdr, err := codec.ReadStruct(r, "ServerIdent", 2, 2)
	if err != nil {
		return ServerIdent{}, err
	}
	body := hdr.Inner

	addresses, err := wireaddr.DecodeAddrVec(body)
	if err != nil {
		return ServerIdent{}, err
	}
	gid, err := body.ReadInt64()
	if err != nil {
		return ServerIdent{}, err.(*codec.DecodeError).ForField("gid")
	}
	globalSeq, err := body.ReadUint64()
	if err != nil {
		return ServerIdent{}, err.(*codec.DecodeError).ForField("global_seq")
	}
	supported, err := body.ReadUint64()
	if err != nil {
		return ServerIdent{}, err.(*codec.DecodeError).ForField("supported_features")
	}
	required, err := body.ReadUint64()
	if err != nil {
		return ServerIdent{}, err.(*codec.DecodeError).ForField("required_features")
	}
	flags, err := body.ReadUint64()
	if err != nil {
		return ServerIdent{}, err.(*codec.DecodeError).ForField("flags")
	}
	cookie, err := body.ReadUint64()
	if err != nil {
		return ServerIdent{}, err.(*codec.DecodeError).ForField("cookie")
	}
	return ServerIdent{
		Addresses:         addresses,
		Gid:               gid,
		GlobalSeq:         globalSeq,
		SupportedFeatures: wireaddr.TryFromBits(supported),
		RequiredFeatures:  wireaddr.TryFromBits(required),
		Flags:             flags,
		Cookie:            cookie,
	}, nil
}
