package ceph

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/marmos91/cephmsgr/internal/codec"
	"github.com/marmos91/cephmsgr/internal/wireaddr"
	"github.com/marmos91/cephmsgr/pkg/store"
)

// cephxAuthRequestPayload builds AuthRequest's method-specific payload
// for CephX: a version-10 struct wrapping the client's entity name and
// a global_id of 0, the form every first-contact auth request uses
// before the cluster has assigned this client an identity.
func cephxAuthRequestPayload(entity wireaddr.EntityName) []byte {
	w := codec.NewWriter()
	sw := codec.BeginStruct(w, 10)
	entity.Encode(w)
	w.WriteUint64(0)
	sw.End()
	return w.Bytes()
}

// randomClientChallenge produces a non-zero, unpredictable challenge
// value for CephXAuthenticate. A zero challenge is rejected by any real
// auth service, so this retries the vanishingly unlikely all-zero draw
// rather than ever handing one back.
func randomClientChallenge() (uint64, error) {
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, fmt.Errorf("ceph: generating client challenge: %w", err)
		}
		v := binary.LittleEndian.Uint64(buf[:])
		if v != 0 {
			return v, nil
		}
	}
}

// nextClientChallenge draws a randomClientChallenge, retrying the draw
// if nonceStore is non-nil and already has this exact value recorded
// for addr. A real draw colliding with a past one is vanishingly
// unlikely on a healthy RNG; this only guards a low-entropy host
// repeating itself across process restarts, per the CephX invariant
// that client_challenge must never be predictable or reused.
func nextClientChallenge(ctx context.Context, nonceStore *store.Store, addr string) (uint64, error) {
	for {
		challenge, err := randomClientChallenge()
		if err != nil {
			return 0, err
		}
		if nonceStore == nil {
			return challenge, nil
		}
		err = nonceStore.RecordNonce(ctx, addr, challenge)
		if err == nil {
			return challenge, nil
		}
		if errors.Is(err, store.ErrNonceReused) {
			continue
		}
		return 0, fmt.Errorf("ceph: recording client challenge: %w", err)
	}
}

// randomNonce32 is used for EntityAddress nonces and ClientIdent's
// cookie/global_seq fields, which only need to disambiguate this
// client's addresses/sessions from others', not resist cryptanalysis.
func randomNonce32() (uint32, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("ceph: generating nonce: %w", err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}
