package msg

import (
	"github.com/marmos91/cephmsgr/internal/codec"
	"github.com/marmos91/cephmsgr/internal/cryptoutil"
)

// Keepalive2 carries a timestamp the peer is expected to echo back
// verbatim in Keepalive2Ack, letting either side measure round-trip
// time without a separate ping message.
type Keepalive2 struct {
	Timestamp cryptoutil.Timestamp
}

func (k Keepalive2) Encode(w *codec.Writer) {
	k.Timestamp.Encode(w)
}

func DecodeKeepalive2(r *codec.Reader) (Keepalive2, error) {
	ts, err := cryptoutil.DecodeTimestamp(r)
	if err != nil {
		return Keepalive2{}, err
	}
	return Keepalive2{Timestamp: ts}, nil
}

// Keepalive2Ack echoes the timestamp from the Keepalive2 it answers.
type Keepalive2Ack struct {
	Timestamp cryptoutil.Timestamp
}

func (k Keepalive2Ack) Encode(w *codec.Writer) {
	k.Timestamp.Encode(w)
}

func DecodeKeepalive2Ack(r *codec.Reader) (Keepalive2Ack, error) {
	ts, err := cryptoutil.DecodeTimestamp(r)
	if err != nil {
		return Keepalive2Ack{}, err
	}
	return Keepalive2Ack{Timestamp: ts}, nil
}
