// Package frame implements msgr2's wire framing: the fixed-size
// preamble, up to four length-and-alignment-tagged segments, and the
// trailing epilogue that carries per-segment CRCs (or, in secure mode,
// an AEAD authentication tag in their place).
package frame

import "hash/crc32"

// cephCRCTable is Ceph's CRC32 parameterization: the same generator
// polynomial as CRC-32C/Castagnoli (0x1EDC6F41 normal form, 0x82F63B78
// reflected), but — critically — NOT the CRC-32C algorithm itself: Ceph
// never XORs the running CRC with 0xFFFFFFFF on exit, and it uses two
// different seed values depending on what's being checksummed (see
// preambleCRC and segmentCRC below). Reusing Go's crc32.Castagnoli
// checksum function directly would silently produce the wrong value.
var cephCRCTable = crc32.MakeTable(0x82f63b78)

// crcUpdate runs the reflected table-driven CRC32 step starting from
// crc, without the pre/post complement crc32.Update applies — Ceph's
// CRC parameters already bake the seed into init and never complement
// the result (xorout = 0).
func crcUpdate(crc uint32, data []byte) uint32 {
	for _, b := range data {
		crc = cephCRCTable[byte(crc)^b] ^ (crc >> 8)
	}
	return crc
}

// preambleCRC checksums the 28-byte preamble body (tag, segment count,
// segment details, flags, reserved byte) with a zero seed.
func preambleCRC(data []byte) uint32 {
	return crcUpdate(0, data)
}

// segmentCRC checksums one frame segment with an all-ones seed, the
// parameterization Rev0Crc/Rev1Crc use for every segment's CRC in the
// epilogue (and, for segment 0 under Rev1Crc, the inline CRC that
// follows it directly).
func segmentCRC(data []byte) uint32 {
	return crcUpdate(0xFFFFFFFF, data)
}
