package transport

import (
	"encoding/binary"
	"hash/fnv"
	"net"
	"net/netip"
)

// Family is the address family of an Address.
type Family uint8

const (
	FamilyIPv4 Family = 4
	FamilyIPv6 Family = 6
)

// String returns the string representation of the family.
func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "ipv4"
	case FamilyIPv6:
		return "ipv6"
	default:
		return "unknown"
	}
}

// Address is a UDP endpoint tagged with its family. IPv4-mapped IPv6
// addresses are stored as IPv4.
type Address struct {
	family Family
	ap     netip.AddrPort
}

// AddressFrom converts an AddrPort into an Address.
func AddressFrom(ap netip.AddrPort) Address {
	ip := ap.Addr().Unmap()
	family := FamilyIPv6
	if ip.Is4() {
		family = FamilyIPv4
	}
	return Address{family: family, ap: netip.AddrPortFrom(ip, ap.Port())}
}

// ParseAddress parses "host:port" where host is a literal IP.
func ParseAddress(s string) (Address, error) {
	ap, err := netip.ParseAddrPort(s)
	if err != nil {
		return Address{}, err
	}
	return AddressFrom(ap), nil
}

// ResolveAddress resolves "host:port", looking the host up if needed.
func ResolveAddress(s string) (Address, error) {
	ua, err := net.ResolveUDPAddr("udp", s)
	if err != nil {
		return Address{}, err
	}
	return AddressFrom(ua.AddrPort()), nil
}

// Family returns the address family.
func (a Address) Family() Family {
	return a.family
}

// IP returns the IP address.
func (a Address) IP() netip.Addr {
	return a.ap.Addr()
}

// Port returns the UDP port.
func (a Address) Port() uint16 {
	return a.ap.Port()
}

// AddrPort returns the address as a netip.AddrPort.
func (a Address) AddrPort() netip.AddrPort {
	return a.ap
}

// IsValid reports whether the address was initialized.
func (a Address) IsValid() bool {
	return a.ap.IsValid()
}

// String returns the address as "ip:port".
func (a Address) String() string {
	if !a.IsValid() {
		return ""
	}
	return a.ap.String()
}

// Token derives a client token from the IP, ignoring the port. IPv4
// addresses map to their 32-bit value; IPv6 addresses are hashed.
func (a Address) Token() uint32 {
	ip := a.ap.Addr()
	if a.family == FamilyIPv4 {
		b := ip.As4()
		return binary.BigEndian.Uint32(b[:])
	}
	b := ip.As16()
	h := fnv.New32a()
	h.Write(b[:])
	return h.Sum32()
}
