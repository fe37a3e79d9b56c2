package cryptoutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKey_CBCRoundTrip(t *testing.T) {
	key := NewKey(Timestamp{TvSec: 1763662875, TvNsec: 702926448}, [16]byte{
		157, 25, 114, 34, 166, 24, 254, 3, 91, 218, 89, 106, 184, 116, 189, 55,
	})

	plain := []byte("a challenge blob that isn't block-aligned")
	sealed, err := key.EncryptCBC(plain)
	require.NoError(t, err)
	require.NotEqual(t, plain, sealed)

	opened, err := key.DecryptCBC(sealed)
	require.NoError(t, err)
	require.Equal(t, plain, opened)
}

func TestKey_DecryptCBC_WrongKeyFails(t *testing.T) {
	key := NewKey(Timestamp{}, [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16})
	wrong := NewKey(Timestamp{}, [16]byte{16, 15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1})

	sealed, err := key.EncryptCBC([]byte("sixteen byte msg"))
	require.NoError(t, err)

	_, err = wrong.DecryptCBC(sealed)
	require.Error(t, err)
}

func TestKey_GCMRoundTrip(t *testing.T) {
	key := NewKey(Timestamp{}, [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16})
	nonce := [12]byte{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}

	plain := []byte("frame payload bytes")
	data := append([]byte(nil), plain...)

	tag, err := key.EncryptGCM(nonce, data)
	require.NoError(t, err)

	sealed := append(data, tag[:]...)
	opened, err := key.DecryptGCM(nonce, sealed)
	require.NoError(t, err)
	require.Equal(t, plain, opened)
}

func TestKey_HMACSHA256_Deterministic(t *testing.T) {
	key := NewKey(Timestamp{}, [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16})
	a := key.HMACSHA256([]byte("transcript bytes"))
	b := key.HMACSHA256([]byte("transcript bytes"))
	require.Equal(t, a, b)

	c := key.HMACSHA256([]byte("different transcript"))
	require.NotEqual(t, a, c)
}
