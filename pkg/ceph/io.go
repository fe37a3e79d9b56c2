package ceph

import (
	"fmt"
	"io"
	"net"

	"github.com/marmos91/cephmsgr/internal/frame"
	"github.com/marmos91/cephmsgr/internal/msg"
)

// writeWire pushes pre-serialized bytes (a banner or a frame) to conn;
// kept as a named helper so every write site wraps errors the same way.
func writeWire(conn net.Conn, wire []byte) error {
	if _, err := conn.Write(wire); err != nil {
		return fmt.Errorf("ceph: writing to peer: %w", err)
	}
	return nil
}

func readBanner(conn net.Conn) (msg.Banner, error) {
	var buf [msg.BannerSize]byte
	if _, err := io.ReadFull(conn, buf[:]); err != nil {
		return msg.Banner{}, fmt.Errorf("ceph: reading peer banner: %w", err)
	}
	return msg.ParseBanner(buf)
}

// readFrame reads exactly one wire-ready frame from conn for format:
// the same byte slice internal/connection's Recv* methods expect to
// unseal/decode in one call. Rev1Secure frames are a fixed size;
// Rev0Crc/Rev1Crc frames carry a fixed 32-byte preamble declaring the
// variable-length trailer that follows it.
func readFrame(conn net.Conn, format frame.Format) ([]byte, error) {
	if format == frame.FormatRev1Secure {
		buf := make([]byte, frame.PreambleLen(frame.FormatRev1Secure))
		if _, err := io.ReadFull(conn, buf); err != nil {
			return nil, fmt.Errorf("ceph: reading secure frame: %w", err)
		}
		return buf, nil
	}
	if !format.HasCRC() {
		return nil, fmt.Errorf("ceph: %v frames are not implemented by this client", format)
	}

	preambleBuf := make([]byte, frame.PreambleSize)
	if _, err := io.ReadFull(conn, preambleBuf); err != nil {
		return nil, fmt.Errorf("ceph: reading frame preamble: %w", err)
	}
	preamble, err := frame.DecodePreamble(preambleBuf, format)
	if err != nil {
		return nil, err
	}

	trailer := make([]byte, preamble.TrailerLen())
	if _, err := io.ReadFull(conn, trailer); err != nil {
		return nil, fmt.Errorf("ceph: reading frame trailer: %w", err)
	}
	return append(preambleBuf, trailer...), nil
}
