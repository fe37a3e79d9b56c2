package wireaddr

import (
	"net"
	"testing"

	"github.com/marmos91/cephmsgr/internal/codec"
	"github.com/stretchr/testify/require"
)

// sanityCheckV6 is a real wire capture of a Legacy EntityAddress carrying
// an IPv6 socket address, nonce 42, port 1337, flowinfo 9001, scope_id
// 3999.
var sanityCheckV6 = []byte{
	1, 1, 1, 40, 0, 0, 0, 1, 0, 0, 0, 42, 0, 0, 0, 28, 0, 0, 0, 10, 0, 5, 57,
	41, 35, 0, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 159,
	15, 0, 0,
}

func TestDecodeEntityAddress_SanityCheckV6(t *testing.T) {
	r := codec.NewReader(sanityCheckV6)
	addr, err := DecodeEntityAddress(r)
	require.NoError(t, err)

	require.Equal(t, EntityAddressLegacy, addr.Type)
	require.Equal(t, uint32(42), addr.Nonce)
	require.NotNil(t, addr.Address)
	require.Equal(t, uint16(1337), addr.Address.Port)
	require.Equal(t, uint32(9001), addr.Address.FlowInfo)
	require.Equal(t, uint32(3999), addr.Address.ScopeID)

	wantIP := net.IP{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	require.True(t, addr.Address.IP.Equal(wantIP))
	require.Equal(t, 0, r.Len(), "entire fixture should be consumed")
}

func TestEntityAddress_RoundTripV4(t *testing.T) {
	orig := EntityAddress{
		Type:  EntityAddressMsgr2,
		Nonce: 7,
		Address: &InetAddress{
			IP:   net.IPv4(192, 168, 1, 1),
			Port: 6789,
		},
	}

	w := codec.NewWriter()
	orig.Encode(w)

	got, err := DecodeEntityAddress(codec.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Equal(t, orig.Type, got.Type)
	require.Equal(t, orig.Nonce, got.Nonce)
	require.NotNil(t, got.Address)
	require.True(t, got.Address.IP.To4().Equal(orig.Address.IP.To4()))
	require.Equal(t, orig.Address.Port, got.Address.Port)
}

func TestEntityAddress_RoundTripV6(t *testing.T) {
	orig := EntityAddress{
		Type:  EntityAddressLegacy,
		Nonce: 42,
		Address: &InetAddress{
			IP:       net.IP{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
			Port:     1337,
			FlowInfo: 9001,
			ScopeID:  3999,
		},
	}

	w := codec.NewWriter()
	orig.Encode(w)
	require.Equal(t, sanityCheckV6, w.Bytes())

	got, err := DecodeEntityAddress(codec.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Equal(t, orig, got)
}

func TestEntityAddress_RoundTripNone(t *testing.T) {
	orig := EntityAddress{Type: EntityAddressAny, Nonce: 99}

	w := codec.NewWriter()
	orig.Encode(w)

	got, err := DecodeEntityAddress(codec.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Equal(t, orig, got)
}

func TestEntityAddressType_UnknownValue(t *testing.T) {
	buf := []byte{1, 1, 1, 12, 0, 0, 0, 9, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	_, err := DecodeEntityAddress(codec.NewReader(buf))
	require.Error(t, err)
}
