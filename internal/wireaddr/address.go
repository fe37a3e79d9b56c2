package wireaddr

import (
	"fmt"
	"net"

	"github.com/marmos91/cephmsgr/internal/codec"
)

const (
	afInet  uint16 = 2
	afInet6 uint16 = 10
)

// EntityAddressType identifies what kind of peer an EntityAddress refers
// to at the communication level, not the Ceph daemon type (see EntityType
// for that).
type EntityAddressType uint32

const (
	EntityAddressNone   EntityAddressType = 0
	EntityAddressLegacy EntityAddressType = 1
	EntityAddressMsgr2  EntityAddressType = 2
	EntityAddressAny    EntityAddressType = 3
	EntityAddressCidr   EntityAddressType = 4
)

// entityAddressTypeFromU32 validates a raw wire value against the known
// EntityAddressType enumerants.
func entityAddressTypeFromU32(v uint32) (EntityAddressType, error) {
	switch v {
	case 0, 1, 2, 3, 4:
		return EntityAddressType(v), nil
	default:
		return 0, codec.UnknownValue("EntityAddressType", v)
	}
}

func (t EntityAddressType) String() string {
	switch t {
	case EntityAddressNone:
		return "none"
	case EntityAddressLegacy:
		return "legacy"
	case EntityAddressMsgr2:
		return "msgr2"
	case EntityAddressAny:
		return "any"
	case EntityAddressCidr:
		return "cidr"
	default:
		return fmt.Sprintf("EntityAddressType(%d)", uint32(t))
	}
}

// InetAddress is a socket address as carried inside an EntityAddress: an
// IPv4 or IPv6 IP, a port, and (for v6) the flow label and scope id that
// net.UDPAddr/net.TCPAddr don't expose directly on the wire format.
type InetAddress struct {
	IP       net.IP
	Port     uint16
	FlowInfo uint32 // IPv6 only
	ScopeID  uint32 // IPv6 only
}

// IsV6 reports whether the address should be encoded in the 26-byte IPv6
// form rather than the 6-byte IPv4 form.
func (a InetAddress) IsV6() bool {
	return a.IP.To4() == nil
}

// EntityAddress is a msgr2 peer address: the addressing scheme in use,
// a disambiguating nonce, and an optional socket address. The wire form
// is a version-prefixed struct (version bytes are always [1, 1, 1] for
// any address produced by a NAUTILUS-or-later entity).
type EntityAddress struct {
	Type    EntityAddressType
	Nonce   uint32
	Address *InetAddress // nil means no socket address present
}

// Encode writes the EntityAddress in its version-prefixed wire form.
func (a EntityAddress) Encode(w *codec.Writer) {
	var addressLen uint32
	if a.Address != nil {
		if a.Address.IsV6() {
			addressLen = 28 // family + port + flowinfo + 16-byte ip + scope_id
		} else {
			addressLen = 16 // classic sockaddr_in size: family + port + 4-byte ip + 8 bytes padding
		}
	}

	// Address version byte (feature ADDR2 present), then the {version,
	// compat} pair used by every version-prefixed struct in this codec.
	w.WriteUint8(1)
	w.WriteUint8(1)
	w.WriteUint8(1)

	dataLen := 4 + 4 + 4 + addressLen // type + nonce + address_len + address bytes
	w.WriteUint32(dataLen)
	w.WriteUint32(uint32(a.Type))
	w.WriteUint32(a.Nonce)
	w.WriteUint32(addressLen)

	if a.Address == nil {
		return
	}

	addr := a.Address
	if addr.IsV6() {
		w.WriteUint16(afInet6)
		w.WriteUint16BE(addr.Port)
		w.WriteUint32(addr.FlowInfo)
		ip := addr.IP.To16()
		w.WriteRaw(ip)
		w.WriteUint32(addr.ScopeID)
	} else {
		w.WriteUint16(afInet)
		w.WriteUint16BE(addr.Port)
		ip := addr.IP.To4()
		w.WriteRaw(ip)
		w.WriteRaw(make([]byte, 8)) // sin_zero padding
	}
}

// DecodeEntityAddress parses an EntityAddress from its version-prefixed
// wire form, following the struct's self-declared length so that fields
// appended by a newer writer are skipped rather than rejected.
func DecodeEntityAddress(r *codec.Reader) (EntityAddress, error) {
	addressVersion, err := r.ReadUint8()
	if err != nil {
		return EntityAddress{}, err.(*codec.DecodeError).ForField("address_version")
	}
	if addressVersion != 1 {
		return EntityAddress{}, codec.UnexpectedVersion("EntityAddress.address_version", addressVersion, 1, 1)
	}

	hdr, err := codec.ReadStructCompat(r, "EntityAddress", 1, 1, 1)
	if err != nil {
		return EntityAddress{}, err
	}
	body := hdr.Inner

	rawTy, err := body.ReadUint32()
	if err != nil {
		return EntityAddress{}, err.(*codec.DecodeError).ForField("ty")
	}
	ty, err := entityAddressTypeFromU32(rawTy)
	if err != nil {
		return EntityAddress{}, err
	}

	nonce, err := body.ReadUint32()
	if err != nil {
		return EntityAddress{}, err.(*codec.DecodeError).ForField("nonce")
	}

	addressLen, err := body.ReadUint32()
	if err != nil {
		return EntityAddress{}, err.(*codec.DecodeError).ForField("address_len")
	}

	if addressLen == 0 {
		return EntityAddress{Type: ty, Nonce: nonce}, nil
	}

	family, err := body.ReadUint16()
	if err != nil {
		return EntityAddress{}, err.(*codec.DecodeError).ForField("family")
	}

	var addr InetAddress
	switch family {
	case afInet:
		port, err := body.ReadUint16BE()
		if err != nil {
			return EntityAddress{}, err.(*codec.DecodeError).ForField("port")
		}
		octets, err := body.ReadFixed(4)
		if err != nil {
			return EntityAddress{}, err.(*codec.DecodeError).ForField("ipv4")
		}
		if _, err := body.ReadRaw(8); err != nil { // sin_zero padding
			return EntityAddress{}, err.(*codec.DecodeError).ForField("sin_zero")
		}
		addr = InetAddress{IP: net.IPv4(octets[0], octets[1], octets[2], octets[3]), Port: port}
	case afInet6:
		port, err := body.ReadUint16BE()
		if err != nil {
			return EntityAddress{}, err.(*codec.DecodeError).ForField("port")
		}
		flowInfo, err := body.ReadUint32()
		if err != nil {
			return EntityAddress{}, err.(*codec.DecodeError).ForField("flowinfo")
		}
		octets, err := body.ReadFixed(16)
		if err != nil {
			return EntityAddress{}, err.(*codec.DecodeError).ForField("ipv6")
		}
		scopeID, err := body.ReadUint32()
		if err != nil {
			return EntityAddress{}, err.(*codec.DecodeError).ForField("scope_id")
		}
		addr = InetAddress{IP: net.IP(octets), Port: port, FlowInfo: flowInfo, ScopeID: scopeID}
	default:
		return EntityAddress{}, codec.UnknownValue("AddressFamily", family)
	}

	return EntityAddress{Type: ty, Nonce: nonce, Address: &addr}, nil
}
