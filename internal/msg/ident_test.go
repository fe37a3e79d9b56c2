package msg

import (
	"net"
	"testing"

	"github.com/marmos91/cephmsgr/internal/codec"
	"github.com/marmos91/cephmsgr/internal/wireaddr"
	"github.com/stretchr/testify/require"
)

func sampleAddress(port uint16) wireaddr.EntityAddress {
	return wireaddr.EntityAddress{
		Type:  wireaddr.EntityAddressMsgr2,
		Nonce: 1,
		Address: &wireaddr.InetAddress{
			IP:   net.IPv4(10, 0, 1, 222),
			Port: port,
		},
	}
}

func TestClientIdent_RoundTrip(t *testing.T) {
	orig := ClientIdent{
		Addresses:         []wireaddr.EntityAddress{sampleAddress(3300)},
		Target:            sampleAddress(3300),
		Gid:               -1,
		GlobalSeq:         7,
		SupportedFeatures: MsgrFeatureRevision1 | MsgrFeatureCompression,
		RequiredFeatures:  MsgrFeatureRevision1,
		Flags:             0,
		Cookie:            0xDEADBEEF,
	}

	w := codec.NewWriter()
	orig.Encode(w)

	got, err := DecodeClientIdent(codec.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Equal(t, orig.Gid, got.Gid)
	require.Equal(t, orig.GlobalSeq, got.GlobalSeq)
	require.Equal(t, orig.SupportedFeatures, got.SupportedFeatures)
	require.Equal(t, orig.RequiredFeatures, got.RequiredFeatures)
	require.Equal(t, orig.Cookie, got.Cookie)
	require.Len(t, got.Addresses, 1)
}

func TestServerIdent_RoundTrip(t *testing.T) {
	orig := ServerIdent{
		Addresses:         []wireaddr.EntityAddress{sampleAddress(6789)},
		Gid:               42,
		GlobalSeq:         9,
		SupportedFeatures: wireaddr.TryFromBits(1023),
		RequiredFeatures:  wireaddr.TryFromBits(0),
		Flags:             0,
		Cookie:            0x1234,
	}

	w := codec.NewWriter()
	orig.Encode(w)

	got, err := DecodeServerIdent(codec.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Equal(t, orig.Gid, got.Gid)
	require.Equal(t, orig.GlobalSeq, got.GlobalSeq)
	require.Equal(t, orig.SupportedFeatures.Bits, got.SupportedFeatures.Bits)
	require.Equal(t, orig.Cookie, got.Cookie)
	require.Len(t, got.Addresses, 1)
}
