package ceph

import (
	"fmt"
	"net"

	"github.com/marmos91/cephmsgr/internal/wireaddr"
)

// entityAddressFromNetAddr renders a dialed TCP endpoint as the
// EntityAddress msgr2's Hello/ClientIdent messages carry.
func entityAddressFromNetAddr(addr net.Addr, nonce uint32) (wireaddr.EntityAddress, error) {
	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok {
		return wireaddr.EntityAddress{}, fmt.Errorf("ceph: expected a *net.TCPAddr, got %T", addr)
	}
	return wireaddr.EntityAddress{
		Type:  wireaddr.EntityAddressMsgr2,
		Nonce: nonce,
		Address: &wireaddr.InetAddress{
			IP:   tcpAddr.IP,
			Port: uint16(tcpAddr.Port),
		},
	}, nil
}
