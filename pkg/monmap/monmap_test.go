package monmap

import (
	"net"
	"testing"

	"github.com/marmos91/cephmsgr/internal/codec"
	"github.com/marmos91/cephmsgr/internal/cryptoutil"
	"github.com/marmos91/cephmsgr/internal/wireaddr"
	"github.com/stretchr/testify/require"
)

// monMap9_6 is a real wire capture of a version-9/compat-6 MonMap
// carrying a single monitor ("ceph01") with a msgr2 and a legacy
// address.
var monMap9_6 = []byte{
	9, 6, // version, compat
	210, 0, 0, 0, // struct len
	213, 24, 184, 84, 231, 33, 17, 240, 137, 38, 188, 36, 17, 128, 136, 187, // fsid
	1, 0, 0, 0, // epoch
	255, 138, 86, 105, 208, 152, 56, 40, // last_changed
	255, 138, 86, 105, 208, 152, 56, 40, // created
	1, 1, 8, 0, 0, 0, 255, 3, 0, 0, 0, 0, 0, 0, // persistent_features
	1, 1, 8, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // optional_features
	1, 0, 0, 0, // mon_info map count
	6, 0, 0, 0, 99, 101, 112, 104, 48, 49, // key "ceph01"
	5, 1, 93, 0, 0, 0, 6, 0, 0, 0, 99, 101,
	112, 104, 48, 49, 2, 2, 0, 0, 0, 1, 1, 1, 28, 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 16, 0, 0, 0, 2,
	0, 12, 228, 10, 0, 1, 222, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 28, 0, 0, 0, 1, 0, 0, 0, 0, 0,
	0, 0, 16, 0, 0, 0, 2, 0, 26, 133, 10, 0, 1, 222, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 1, 0, 0, 0, 6, 0, 0, 0, 99, 101, 112, 104, 48, 49, 18, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
}

func TestDecodeMonMap_9_6(t *testing.T) {
	mm, err := DecodeMonMap(monMap9_6)
	require.NoError(t, err)

	require.Equal(t, uint32(1), mm.Epoch)
	require.Equal(t, Uuid{213, 24, 184, 84, 231, 33, 17, 240, 137, 38, 188, 36, 17, 128, 136, 187}, mm.Fsid)
	require.Equal(t, cryptoutil.Timestamp{TvSec: 1767279359, TvNsec: 674797776}, mm.LastChanged)
	require.Equal(t, cryptoutil.Timestamp{TvSec: 1767279359, TvNsec: 674797776}, mm.Created)
	require.Equal(t, MonFeatures{Value: 1023}, mm.PersistentFeatures)
	require.Equal(t, MonFeatures{Value: 0}, mm.OptionalFeatures)
	require.Equal(t, [1]byte{18}, mm.MinMonRelease)
	require.Equal(t, [1]byte{1}, mm.Strategy)
	require.Equal(t, []string{"ceph01"}, mm.Ranks)
	require.Empty(t, mm.RemovedRanks)
	require.False(t, mm.StretchModeEnabled)
	require.Equal(t, "", mm.TiebreakerMon)
	require.Empty(t, mm.StretchMarkedDownMons)
	require.Empty(t, mm.DisallowedLeaders)

	require.Len(t, mm.MonInfo, 1)
	mi, ok := mm.MonInfo["ceph01"]
	require.True(t, ok)
	require.Equal(t, "ceph01", mi.Name)
	require.Equal(t, uint16(0), mi.Priority)
	require.Equal(t, uint16(0), mi.Weight)
	require.Empty(t, mi.CrushLocation)
	require.Len(t, mi.PublicAddrs, 2)

	ip := net.IPv4(10, 0, 1, 222)

	msgr2Addr := mi.PublicAddrs[0]
	require.Equal(t, wireaddr.EntityAddressMsgr2, msgr2Addr.Type)
	require.Equal(t, uint32(0), msgr2Addr.Nonce)
	require.True(t, msgr2Addr.Address.IP.To4().Equal(ip))
	require.Equal(t, uint16(3300), msgr2Addr.Address.Port)

	legacyAddr := mi.PublicAddrs[1]
	require.Equal(t, wireaddr.EntityAddressLegacy, legacyAddr.Type)
	require.Equal(t, uint32(0), legacyAddr.Nonce)
	require.True(t, legacyAddr.Address.IP.To4().Equal(ip))
	require.Equal(t, uint16(6789), legacyAddr.Address.Port)
}

func TestMonInfo_EncodeDecodeRoundTrip(t *testing.T) {
	orig := MonInfo{
		Name: "ceph02",
		PublicAddrs: []wireaddr.EntityAddress{
			{
				Type:  wireaddr.EntityAddressMsgr2,
				Nonce: 1,
				Address: &wireaddr.InetAddress{
					IP:   net.IPv4(10, 0, 1, 223),
					Port: 3300,
				},
			},
		},
		Priority:      1,
		Weight:        2,
		CrushLocation: map[string]string{"rack": "r1"},
	}

	w := codec.NewWriter()
	orig.Encode(w)

	got, err := DecodeMonInfo(codec.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Equal(t, orig.Name, got.Name)
	require.Equal(t, orig.Priority, got.Priority)
	require.Equal(t, orig.Weight, got.Weight)
	require.Equal(t, orig.CrushLocation, got.CrushLocation)
	require.Len(t, got.PublicAddrs, 1)
	require.Equal(t, orig.PublicAddrs[0].Type, got.PublicAddrs[0].Type)
	require.Equal(t, orig.PublicAddrs[0].Nonce, got.PublicAddrs[0].Nonce)
}

func TestMonFeatures_EncodeFixture(t *testing.T) {
	f := MonFeatures{Value: 0xAABBCC}
	w := codec.NewWriter()
	f.Encode(w)
	require.Equal(t, []byte{1, 1, 8, 0, 0, 0, 0xCC, 0xBB, 0xAA, 0, 0, 0, 0, 0}, w.Bytes())

	got, err := DecodeMonFeatures(codec.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Equal(t, f, got)
}
