package cryptoutil

import "github.com/marmos91/cephmsgr/internal/codec"

// Encodable is anything that can serialize itself into a Writer, the
// shape every enc_bl payload type implements.
type Encodable interface {
	Encode(w *codec.Writer)
}

// SealEncBl encodes t, prefixes it with the struct version byte and the
// AuthMagic sentinel, then seals the result with AES-128-CBC under key.
// This is the "enc_bl" envelope CephX wraps every session key, ticket,
// and challenge blob in.
func SealEncBl(t Encodable, key Key) ([]byte, error) {
	w := codec.NewWriter()
	w.WriteUint8(1)
	w.WriteUint64(AuthMagic)
	t.Encode(w)
	return key.EncryptCBC(w.Bytes())
}

// OpenEncBl reverses SealEncBl: it decrypts sealed under key, checks the
// struct version and AuthMagic sentinel, and hands the remaining bytes
// to decode.
func OpenEncBl[T any](sealed []byte, key Key, decode func(*codec.Reader) (T, error)) (T, error) {
	var zero T
	plain, err := key.DecryptCBC(sealed)
	if err != nil {
		return zero, codec.Custom("enc_bl decryption failed: %v", err)
	}

	r := codec.NewReader(plain)
	version, rerr := r.ReadUint8()
	if rerr != nil {
		return zero, rerr
	}
	if version != 1 {
		return zero, codec.UnexpectedVersion("enc_bl", version, 1, 1)
	}

	magic, rerr := r.ReadUint64()
	if rerr != nil {
		return zero, rerr
	}
	if magic != AuthMagic {
		return zero, codec.Custom("bad auth magic in enc_bl payload")
	}

	return decode(r)
}

// SealEncBlFramed is SealEncBl followed by a u32 length prefix, the form
// enc_bl payloads take when embedded inside another struct's byte-string
// field (e.g. CephXServiceTicket's session_key is not framed this way,
// but the outer connection_secret cbl is).
func SealEncBlFramed(t Encodable, key Key) ([]byte, error) {
	sealed, err := SealEncBl(t, key)
	if err != nil {
		return nil, err
	}
	w := codec.NewWriter()
	w.WriteBytes(sealed)
	return w.Bytes(), nil
}
