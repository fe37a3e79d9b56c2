// Package msg implements the typed msgr2 protocol messages carried
// inside frames: the banner exchanged before any frame exists, and
// every Tag-identified message the connection state machine sends and
// receives afterward.
package msg

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

var bannerHeader = []byte("ceph v2\n")

// BannerSize is the fixed wire size of a Banner: the 8-byte header, a
// 2-byte inner length (always 16), and two 8-byte feature masks.
const BannerSize = 26

// MsgrFeatures is the small msgr2-level feature mask exchanged in the
// banner, distinct from CephFeatureSet (which gates the rest of the
// handshake once a connection is established). Bit 0 is revision-2.1
// support; bit 1 is "compression required".
type MsgrFeatures uint64

const (
	MsgrFeatureRevision1  MsgrFeatures = 1 << 0
	MsgrFeatureCompression MsgrFeatures = 1 << 1
)

// Banner is the very first thing exchanged on a msgr2 connection,
// before any frame preamble exists: each side advertises what it
// supports and what it requires the peer to support.
type Banner struct {
	Supported MsgrFeatures
	Required  MsgrFeatures
}

// Write serializes the banner into its fixed 26-byte wire form.
func (b Banner) Write() [BannerSize]byte {
	var out [BannerSize]byte
	copy(out[:8], bannerHeader)
	binary.LittleEndian.PutUint16(out[8:10], 16)
	binary.LittleEndian.PutUint64(out[10:18], uint64(b.Supported))
	binary.LittleEndian.PutUint64(out[18:26], uint64(b.Required))
	return out
}

// ParseBanner validates and decodes a BannerSize-byte buffer.
func ParseBanner(data [BannerSize]byte) (Banner, error) {
	if !bytes.Equal(data[:8], bannerHeader) {
		return Banner{}, fmt.Errorf("msg: banner header mismatch")
	}
	innerLen := binary.LittleEndian.Uint16(data[8:10])
	if innerLen != 16 {
		return Banner{}, fmt.Errorf("msg: banner inner length must be 16, got %d", innerLen)
	}
	supported := MsgrFeatures(binary.LittleEndian.Uint64(data[10:18]))
	required := MsgrFeatures(binary.LittleEndian.Uint64(data[18:26]))
	return Banner{Supported: supported, Required: required}, nil
}
