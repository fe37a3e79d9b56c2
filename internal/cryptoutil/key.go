// Package cryptoutil implements the symmetric primitives CephX and msgr2
// layer on top of a shared secret: AES-128-CBC with a fixed IV for the
// enc_bl envelope used throughout the auth handshake, AES-128-GCM for
// secure-mode frame payloads, and HMAC-SHA256 for the post-auth
// transcript signature exchange.
package cryptoutil

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"

	"github.com/marmos91/cephmsgr/internal/codec"
)

// cephAESIV is the fixed initialization vector Ceph uses for every
// AES-128-CBC enc_bl operation. Reusing a fixed IV is only safe because
// each encrypted blob is a single, freshly generated 16-byte secret or
// short handshake value, never attacker-controlled repeated plaintext.
var cephAESIV = []byte("cephsageyudagreg")

// AuthMagic is the sentinel value prefixed to every enc_bl plaintext so
// a decrypting peer can detect the wrong key was used instead of merely
// producing PKCS#7-padding garbage.
const AuthMagic uint64 = 0xff009cad8826aa55

// Key is a CephX secret: the shared key material from a ceph.keyring
// entry, or a session key minted during the auth handshake.
type Key struct {
	Type    uint16
	Created Timestamp
	Secret  []byte
}

// NewKey wraps a 16-byte AES-128 secret as a type-1 (AES) key.
func NewKey(created Timestamp, secret [16]byte) Key {
	return Key{Type: 1, Created: created, Secret: secret[:]}
}

// Encode writes the key in the {ty, created, len-prefixed secret} layout
// CephX keyrings and rotating keys use on the wire.
func (k Key) Encode(w *codec.Writer) {
	w.WriteUint16(k.Type)
	k.Created.Encode(w)
	w.WriteUint16(uint16(len(k.Secret)))
	w.WriteRaw(k.Secret)
}

// DecodeKey reads a Key in the layout Encode writes.
func DecodeKey(r *codec.Reader) (Key, error) {
	ty, err := r.ReadUint16()
	if err != nil {
		return Key{}, err.(*codec.DecodeError).ForField("ty")
	}
	created, err := DecodeTimestamp(r)
	if err != nil {
		return Key{}, err
	}
	n, err := r.ReadUint16()
	if err != nil {
		return Key{}, err.(*codec.DecodeError).ForField("secret_len")
	}
	secret, err := r.ReadFixed(int(n))
	if err != nil {
		return Key{}, err.(*codec.DecodeError).ForField("secret")
	}
	return Key{Type: ty, Created: created, Secret: secret}, nil
}

// HMACSHA256 signs buf with the key's secret, matching the transcript
// signatures exchanged during ExchangingSignatures.
func (k Key) HMACSHA256(buf []byte) [32]byte {
	mac := hmac.New(sha256.New, k.Secret)
	mac.Write(buf)
	var out [32]byte
	copy(out[:], mac.Sum(nil))
	return out
}

// EncryptCBC seals data with AES-128-CBC/PKCS#7 under the fixed Ceph IV,
// growing the returned slice to the padded ciphertext length.
func (k Key) EncryptCBC(data []byte) ([]byte, error) {
	block, err := aes.NewCipher(k.Secret)
	if err != nil {
		return nil, fmt.Errorf("cryptoutil: new AES cipher: %w", err)
	}
	padded := pkcs7Pad(data, block.BlockSize())
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, cephAESIV).CryptBlocks(out, padded)
	return out, nil
}

// DecryptCBC reverses EncryptCBC, validating and stripping the PKCS#7
// padding. It returns an error (rather than panicking) on malformed
// padding, since a decryption under the wrong key produces exactly that.
func (k Key) DecryptCBC(data []byte) ([]byte, error) {
	block, err := aes.NewCipher(k.Secret)
	if err != nil {
		return nil, fmt.Errorf("cryptoutil: new AES cipher: %w", err)
	}
	if len(data) == 0 || len(data)%block.BlockSize() != 0 {
		return nil, fmt.Errorf("cryptoutil: ciphertext is not a multiple of the block size")
	}
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, cephAESIV).CryptBlocks(out, data)
	return pkcs7Unpad(out, block.BlockSize())
}

// EncryptGCM seals data in place with AES-128-GCM under nonce, returning
// the detached 16-byte authentication tag. aad is always empty for
// msgr2 frame payloads.
func (k Key) EncryptGCM(nonce [12]byte, data []byte) ([16]byte, error) {
	aead, err := newGCM(k.Secret)
	if err != nil {
		return [16]byte{}, err
	}
	sealed := aead.Seal(nil, nonce[:], data, nil)
	copy(data, sealed[:len(data)])
	var tag [16]byte
	copy(tag[:], sealed[len(data):])
	return tag, nil
}

// DecryptGCM opens a GCM-sealed frame payload in place: data must be the
// ciphertext with its 16-byte tag appended. The returned slice aliases
// data and is the verified plaintext.
func (k Key) DecryptGCM(nonce [12]byte, data []byte) ([]byte, error) {
	aead, err := newGCM(k.Secret)
	if err != nil {
		return nil, err
	}
	if len(data) < aead.Overhead() {
		return nil, fmt.Errorf("cryptoutil: ciphertext shorter than GCM tag")
	}
	plain, err := aead.Open(data[:0], nonce[:], data, nil)
	if err != nil {
		return nil, fmt.Errorf("cryptoutil: GCM authentication failed: %w", err)
	}
	return plain, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptoutil: new AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptoutil: new GCM AEAD: %w", err)
	}
	return aead, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+padLen)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(padLen)
	}
	return out
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cryptoutil: empty padded buffer")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, fmt.Errorf("cryptoutil: invalid PKCS#7 padding")
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("cryptoutil: invalid PKCS#7 padding")
		}
	}
	return data[:len(data)-padLen], nil
}
