package store

// Key namespace, mirroring the teacher's pkg/metadata/store/badger
// prefixed-key design: one prefix per data type so range scans and key
// collisions stay predictable without a schema.
//
// Data Type          Prefix   Key Format              Value Type
// ============================================================================
// Used nonce         "n:"     n:<scope>:<nonce-hex>   unix timestamp (binary)
// Cached MonMap      "m:"     m:<fsid>                MonMap (JSON)
//
// The nonce ledger's scope is caller-chosen: pkg/ceph scopes it by peer
// address, since the cluster fsid isn't known until after the CephX
// handshake the ledger guards completes.

const (
	prefixNonce  = "n:"
	prefixMonMap = "m:"
)

func keyNonce(scope, nonceHex string) []byte {
	return []byte(prefixNonce + scope + ":" + nonceHex)
}

func keyNoncePrefix(scope string) []byte {
	return []byte(prefixNonce + scope + ":")
}

func keyMonMap(fsid string) []byte {
	return []byte(prefixMonMap + fsid)
}
