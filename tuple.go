package communityid

import (
	"bytes"
	"errors"
	"fmt"
	"net"
)

// Tuple validation failures reported by Calc. Wrapped errors carry the
// offending detail; match with errors.Is.
var (
	ErrMissingAddress       = errors.New("communityid: missing source or destination address")
	ErrAddressLength        = errors.New("communityid: address is not 4 or 16 bytes")
	ErrMixedAddressFamilies = errors.New("communityid: source and destination address families differ")
)

// FlowTuple describes a single observed flow: the IP protocol, the
// endpoint addresses in capture orientation, and optionally the transport
// ports in host byte order. For ICMP and ICMPv6 the port slots carry the
// message type (source) and code (destination) instead of real ports.
//
// Build values with MakeFlowTuple or MakeFlowTupleWithPorts; a FlowTuple
// assembled directly from a literal is treated as portless.
type FlowTuple struct {
	Protocol        uint8
	SourceIP        net.IP
	DestinationIP   net.IP
	SourcePort      uint16
	DestinationPort uint16

	hasPorts bool
}

// MakeFlowTuple describes a flow for a protocol without usable port
// numbers, such as OSPF or an ICMP message this package has no pairing
// rule for at decode time.
func MakeFlowTuple(proto uint8, saddr, daddr net.IP) FlowTuple {
	return FlowTuple{
		Protocol:      proto,
		SourceIP:      saddr,
		DestinationIP: daddr,
	}
}

// MakeFlowTupleWithPorts describes a flow including its transport ports.
// For ICMP and ICMPv6, pass the message type as sport and the code as
// dport; the pairing rules turn those into port equivalents.
func MakeFlowTupleWithPorts(proto uint8, saddr, daddr net.IP, sport, dport uint16) FlowTuple {
	return FlowTuple{
		Protocol:        proto,
		SourceIP:        saddr,
		DestinationIP:   daddr,
		SourcePort:      sport,
		DestinationPort: dport,
		hasPorts:        true,
	}
}

// String renders the tuple in capture orientation, not canonical order.
func (t FlowTuple) String() string {
	if !t.hasPorts {
		return fmt.Sprintf("%s<->%s/%d", t.SourceIP, t.DestinationIP, t.Protocol)
	}
	return fmt.Sprintf("%s:%d<->%s:%d/%d",
		t.SourceIP, t.SourcePort, t.DestinationIP, t.DestinationPort, t.Protocol)
}

// canonical is a flow tuple reduced to exactly what gets hashed: raw 4- or
// 16-byte addresses, endpoints in canonical order, ICMP port equivalents
// applied.
type canonical struct {
	proto        uint8
	saddr, daddr []byte
	sport, dport uint16
	hasPorts     bool
}

// canonicalize validates the tuple and returns a fresh canonical value.
// The receiver is never modified, so hashing both directions of a flow
// from shared tuples is safe.
func (t FlowTuple) canonicalize() (canonical, error) {
	saddr, err := addrBytes(t.SourceIP)
	if err != nil {
		return canonical{}, err
	}
	daddr, err := addrBytes(t.DestinationIP)
	if err != nil {
		return canonical{}, err
	}
	if len(saddr) != len(daddr) {
		return canonical{}, ErrMixedAddressFamilies
	}

	c := canonical{
		proto:    t.Protocol,
		saddr:    saddr,
		daddr:    daddr,
		hasPorts: t.hasPorts,
	}
	oneWay := false
	if t.hasPorts {
		c.sport, c.dport, oneWay = portEquivalents(t.Protocol, t.SourcePort, t.DestinationPort)
	}
	// One-way flows keep capture orientation; anything else is ordered so
	// both directions hash identically.
	if oneWay || c.ordered() {
		return c, nil
	}
	return canonical{
		proto:    c.proto,
		saddr:    c.daddr,
		daddr:    c.saddr,
		sport:    c.dport,
		dport:    c.sport,
		hasPorts: c.hasPorts,
	}, nil
}

// ordered reports whether the endpoints already sort source-first.
// Addresses compare bytewise from the most significant byte; ports break
// ties numerically. A portless tuple with equal addresses stays as given.
func (c canonical) ordered() bool {
	switch bytes.Compare(c.saddr, c.daddr) {
	case -1:
		return true
	case 0:
		return !c.hasPorts || c.sport < c.dport
	default:
		return false
	}
}

// addrBytes pins ip to its wire form: 4 bytes for IPv4, 16 for IPv6.
// IPv4-mapped IPv6 addresses collapse to their 4-byte form, matching how
// every deployed implementation hashes them.
func addrBytes(ip net.IP) ([]byte, error) {
	if ip == nil {
		return nil, ErrMissingAddress
	}
	if v4 := ip.To4(); v4 != nil {
		return v4, nil
	}
	if len(ip) == net.IPv6len {
		return ip, nil
	}
	return nil, fmt.Errorf("%w: got %d bytes", ErrAddressLength, len(ip))
}
