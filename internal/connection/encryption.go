// Package connection implements the sans-I/O msgr2 client connection
// state machine: banner negotiation, Hello exchange, CephX
// authentication, transcript signature verification, and the
// Identifying/Active handoff. Every state is its own Go type; moving
// between states consumes the old value and returns the new one, the
// same ownership-transfer shape the reference implementation expresses
// with Rust's typestate generics.
package connection

import (
	"encoding/binary"
	"fmt"

	"github.com/marmos91/cephmsgr/internal/cryptoutil"
)

// Revision is the msgr2 protocol revision a connection settled on
// during banner negotiation.
type Revision int

const (
	Rev0 Revision = iota
	Rev1
)

// nonce is a per-direction AEAD nonce counter: the first call to next
// returns start unmodified; every later call returns the value current
// held before stepping it. Drawing start a second time means the
// 8-byte counter has wrapped all the way around and the caller must
// treat the nonce space as exhausted rather than reuse a value.
type nonce struct {
	start     [12]byte
	current   [12]byte
	usedStart bool
}

func newNonce(start [12]byte) nonce {
	return nonce{start: start, current: start}
}

// next draws the next nonce value and steps the counter forward.
func (n *nonce) next() ([12]byte, error) {
	out := n.current
	if out == n.start {
		if n.usedStart {
			return [12]byte{}, fmt.Errorf("connection: AEAD nonce space exhausted")
		}
		n.usedStart = true
	}
	n.step()
	return out, nil
}

// step advances current's low 8 bytes as a little-endian counter,
// wrapping on overflow, matching Rev1's nonce-stepping scheme.
func (n *nonce) step() {
	counter := binary.LittleEndian.Uint64(n.current[4:12])
	counter++
	binary.LittleEndian.PutUint64(n.current[4:12], counter)
}

// FrameEncryption tracks whether a connection has moved into a Secure
// mode and, if so, the AEAD key and per-direction nonce counters used
// to seal frame data after the CephX ticket exchange.
type FrameEncryption struct {
	secure  bool
	key     cryptoutil.Key
	rxNonce nonce
	txNonce nonce
}

// IsSecure reports whether a session key has been installed.
func (e *FrameEncryption) IsSecure() bool {
	return e.secure
}

// SetSecretData installs the session key and per-direction starting
// nonces negotiated via AuthDone's connection secret, switching the
// connection into Secure mode.
func (e *FrameEncryption) SetSecretData(key cryptoutil.Key, rxNonce, txNonce [12]byte) {
	e.secure = true
	e.key = key
	e.rxNonce = newNonce(rxNonce)
	e.txNonce = newNonce(txNonce)
}

// SessionKey returns the installed key, if any.
func (e *FrameEncryption) SessionKey() (cryptoutil.Key, bool) {
	if !e.secure {
		return cryptoutil.Key{}, false
	}
	return e.key, true
}

// nextRxNonce draws the next nonce for unsealing an inbound frame.
func (e *FrameEncryption) nextRxNonce() ([12]byte, error) {
	return e.rxNonce.next()
}

// nextTxNonce draws the next nonce for sealing an outbound frame.
func (e *FrameEncryption) nextTxNonce() ([12]byte, error) {
	return e.txNonce.next()
}
