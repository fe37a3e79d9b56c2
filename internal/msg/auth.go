package msg

import (
	"fmt"

	"github.com/marmos91/cephmsgr/internal/codec"
)

// AuthMethod identifies the authentication scheme a client proposes in
// AuthRequest. Only CephX is implemented; None exists for test fixtures
// and Gss/Unknown are recognized on the wire but no handshake path here
// authenticates with them.
type AuthMethod uint8

const (
	AuthMethodUnknown AuthMethod = 0
	AuthMethodNone    AuthMethod = 1
	AuthMethodCephX   AuthMethod = 2
	AuthMethodGss     AuthMethod = 4
)

func AuthMethodFromU32(v uint32) (AuthMethod, error) {
	switch v {
	case 0, 1, 2, 4:
		return AuthMethod(v), nil
	default:
		return 0, codec.UnknownValue("AuthMethod", v)
	}
}

// ConMode is the connection integrity/confidentiality mode a peer can
// propose or accept: Crc (authenticated but plaintext) or Secure (AEAD
// encrypted).
type ConMode uint8

const (
	ConModeUnknown ConMode = 0
	ConModeCrc     ConMode = 1
	ConModeSecure  ConMode = 2
)

func ConModeFromU32(v uint32) (ConMode, error) {
	switch v {
	case 0, 1, 2:
		return ConMode(v), nil
	default:
		return 0, codec.UnknownValue("ConMode", v)
	}
}

// AuthRequest is the client's opening CephX move: its chosen method, an
// ordered list of acceptable connection modes, and a method-specific
// payload (for CephX: struct version 10, entity name, global_id=0).
type AuthRequest struct {
	Method          AuthMethod
	PreferredModes  []ConMode
	AuthPayload     []byte
}

func (a AuthRequest) Encode(w *codec.Writer) {
	w.WriteUint32(uint32(a.Method))
	w.WriteUint32(uint32(len(a.PreferredModes)))
	for _, m := range a.PreferredModes {
		w.WriteUint32(uint32(m))
	}
	w.WriteBytes(a.AuthPayload)
}

func DecodeAuthRequest(r *codec.Reader) (AuthRequest, error) {
	rawMethod, err := r.ReadUint32()
	if err != nil {
		return AuthRequest{}, err.(*codec.DecodeError).ForField("method")
	}
	method, err := AuthMethodFromU32(rawMethod)
	if err != nil {
		return AuthRequest{}, err
	}
	n, err := r.ReadUint32()
	if err != nil {
		return AuthRequest{}, err.(*codec.DecodeError).ForField("preferred_modes")
	}
	modes := make([]ConMode, 0, n)
	for i := uint32(0); i < n; i++ {
		raw, err := r.ReadUint32()
		if err != nil {
			return AuthRequest{}, err.(*codec.DecodeError).ForField("preferred_modes")
		}
		mode, err := ConModeFromU32(raw)
		if err != nil {
			return AuthRequest{}, err
		}
		modes = append(modes, mode)
	}
	payload, err := r.ReadBytesCopy()
	if err != nil {
		return AuthRequest{}, err.(*codec.DecodeError).ForField("auth_payload")
	}
	return AuthRequest{Method: method, PreferredModes: modes, AuthPayload: payload}, nil
}

// AuthReplyMore carries an opaque, method-specific payload from the
// server; for CephX it is a CephXServerChallenge.
type AuthReplyMore struct {
	Payload []byte
}

func (a AuthReplyMore) Encode(w *codec.Writer) {
	w.WriteBytes(a.Payload)
}

func DecodeAuthReplyMore(r *codec.Reader) (AuthReplyMore, error) {
	payload, err := r.ReadBytesCopy()
	if err != nil {
		return AuthReplyMore{}, err.(*codec.DecodeError).ForField("payload")
	}
	return AuthReplyMore{Payload: payload}, nil
}

// AuthRequestMore is the client's follow-up after receiving the
// server's challenge; for CephX, its payload is a CephXMessage wrapping
// a CephXAuthenticate.
type AuthRequestMore struct {
	Payload []byte
}

func (a AuthRequestMore) Encode(w *codec.Writer) {
	w.WriteBytes(a.Payload)
}

func DecodeAuthRequestMore(r *codec.Reader) (AuthRequestMore, error) {
	payload, err := r.ReadBytesCopy()
	if err != nil {
		return AuthRequestMore{}, err.(*codec.DecodeError).ForField("payload")
	}
	return AuthRequestMore{Payload: payload}, nil
}

// AuthDone finishes the CephX exchange: the issued global id, the
// connection mode the server picked, and an opaque payload (for CephX,
// a CephXMessage wrapping an AuthServiceTicketReply).
type AuthDone struct {
	GlobalID         uint64
	ConnectionMode   ConMode
	AuthPayload      []byte
}

func (a AuthDone) Encode(w *codec.Writer) {
	w.WriteUint64(a.GlobalID)
	w.WriteUint32(uint32(a.ConnectionMode))
	w.WriteBytes(a.AuthPayload)
}

func DecodeAuthDone(r *codec.Reader) (AuthDone, error) {
	globalID, err := r.ReadUint64()
	if err != nil {
		return AuthDone{}, err.(*codec.DecodeError).ForField("global_id")
	}
	rawMode, err := r.ReadUint32()
	if err != nil {
		return AuthDone{}, err.(*codec.DecodeError).ForField("connection_mode")
	}
	mode, err := ConModeFromU32(rawMode)
	if err != nil {
		return AuthDone{}, err
	}
	payload, err := r.ReadBytesCopy()
	if err != nil {
		return AuthDone{}, err.(*codec.DecodeError).ForField("auth_payload")
	}
	return AuthDone{GlobalID: globalID, ConnectionMode: mode, AuthPayload: payload}, nil
}

// AuthBadMethod is sent instead of AuthReplyMore when the server
// rejects the client's proposed method/modes entirely.
type AuthBadMethod struct {
	Method         AuthMethod
	Result         uint32
	AllowedMethods []AuthMethod
	AllowedModes   []ConMode
}

func DecodeAuthBadMethod(r *codec.Reader) (AuthBadMethod, error) {
	rawMethod, err := r.ReadUint32()
	if err != nil {
		return AuthBadMethod{}, err.(*codec.DecodeError).ForField("method")
	}
	method, err := AuthMethodFromU32(rawMethod)
	if err != nil {
		return AuthBadMethod{}, err
	}
	result, err := r.ReadUint32()
	if err != nil {
		return AuthBadMethod{}, err.(*codec.DecodeError).ForField("result")
	}
	allowedMethods, err := codec.ReadSlice(r, func(r *codec.Reader) (AuthMethod, error) {
		v, err := r.ReadUint32()
		if err != nil {
			return 0, err
		}
		return AuthMethodFromU32(v)
	})
	if err != nil {
		return AuthBadMethod{}, err
	}
	allowedModes, err := codec.ReadSlice(r, func(r *codec.Reader) (ConMode, error) {
		v, err := r.ReadUint32()
		if err != nil {
			return 0, err
		}
		return ConModeFromU32(v)
	})
	if err != nil {
		return AuthBadMethod{}, err
	}
	return AuthBadMethod{
		Method:         method,
		Result:         result,
		AllowedMethods: allowedMethods,
		AllowedModes:   allowedModes,
	}, nil
}

func (m AuthMethod) String() string {
	switch m {
	case AuthMethodUnknown:
		return "unknown"
	case AuthMethodNone:
		return "none"
	case AuthMethodCephX:
		return "cephx"
	case AuthMethodGss:
		return "gss"
	default:
		return fmt.Sprintf("AuthMethod(%d)", uint8(m))
	}
}

func (m ConMode) String() string {
	switch m {
	case ConModeUnknown:
		return "unknown"
	case ConModeCrc:
		return "crc"
	case ConModeSecure:
		return "secure"
	default:
		return fmt.Sprintf("ConMode(%d)", uint8(m))
	}
}
