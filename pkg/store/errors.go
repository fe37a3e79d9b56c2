package store

import "errors"

// ErrNonceReused is returned by RecordNonce when the given nonce has
// already been recorded for the cluster.
var ErrNonceReused = errors.New("store: nonce already recorded")
