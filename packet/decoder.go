// Package packet reduces captured packets to the flow tuples that
// identify them.
package packet

import (
	"fmt"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	communityid "github.com/corelight/go-community-id"
)

// Decoded is one captured packet reduced to what flow identification
// needs: when it was seen, how many bytes were captured, and its tuple in
// capture orientation.
type Decoded struct {
	Timestamp time.Time
	Length    int
	Tuple     communityid.FlowTuple
}

// Decoder turns captured packets into flow tuples.
type Decoder interface {
	Decode(raw gopacket.Packet) (*Decoded, error)
}

// StandardDecoder handles IPv4 and IPv6 packets carrying TCP, UDP, SCTP,
// ICMP or ICMPv6. Any other payload yields a portless tuple over the IP
// protocol number, so every routable packet still gets an identifier.
type StandardDecoder struct{}

func (d *StandardDecoder) Decode(raw gopacket.Packet) (*Decoded, error) {
	proto, saddr, daddr, err := d.decodeIPLayer(raw)
	if err != nil {
		return nil, fmt.Errorf("IP layer parsing failed: %w", err)
	}

	meta := raw.Metadata()
	return &Decoded{
		Timestamp: meta.Timestamp,
		Length:    meta.CaptureLength,
		Tuple:     d.decodeTransportLayer(raw, proto, saddr, daddr),
	}, nil
}

func (d *StandardDecoder) decodeIPLayer(raw gopacket.Packet) (uint8, net.IP, net.IP, error) {
	if ipv4Layer := raw.Layer(layers.LayerTypeIPv4); ipv4Layer != nil {
		ipv4 := ipv4Layer.(*layers.IPv4)
		return uint8(ipv4.Protocol), ipv4.SrcIP, ipv4.DstIP, nil
	}

	if ipv6Layer := raw.Layer(layers.LayerTypeIPv6); ipv6Layer != nil {
		ipv6 := ipv6Layer.(*layers.IPv6)
		return uint8(ipv6.NextHeader), ipv6.SrcIP, ipv6.DstIP, nil
	}

	return 0, nil, nil, fmt.Errorf("no supported IP layer found")
}

// decodeTransportLayer dispatches on the layers gopacket actually decoded
// rather than the IP header's next-protocol field, so IPv6 extension
// header chains land on the real transport. ICMP types and codes ride in
// the port slots.
func (d *StandardDecoder) decodeTransportLayer(raw gopacket.Packet, proto uint8, saddr, daddr net.IP) communityid.FlowTuple {
	if tcpLayer := raw.Layer(layers.LayerTypeTCP); tcpLayer != nil {
		tcp := tcpLayer.(*layers.TCP)
		return communityid.MakeFlowTupleWithPorts(communityid.ProtoTCP,
			saddr, daddr, uint16(tcp.SrcPort), uint16(tcp.DstPort))
	}

	if udpLayer := raw.Layer(layers.LayerTypeUDP); udpLayer != nil {
		udp := udpLayer.(*layers.UDP)
		return communityid.MakeFlowTupleWithPorts(communityid.ProtoUDP,
			saddr, daddr, uint16(udp.SrcPort), uint16(udp.DstPort))
	}

	if sctpLayer := raw.Layer(layers.LayerTypeSCTP); sctpLayer != nil {
		sctp := sctpLayer.(*layers.SCTP)
		return communityid.MakeFlowTupleWithPorts(communityid.ProtoSCTP,
			saddr, daddr, uint16(sctp.SrcPort), uint16(sctp.DstPort))
	}

	if icmpLayer := raw.Layer(layers.LayerTypeICMPv4); icmpLayer != nil {
		icmp := icmpLayer.(*layers.ICMPv4)
		return communityid.MakeFlowTupleWithPorts(communityid.ProtoICMP,
			saddr, daddr, uint16(icmp.TypeCode.Type()), uint16(icmp.TypeCode.Code()))
	}

	if icmp6Layer := raw.Layer(layers.LayerTypeICMPv6); icmp6Layer != nil {
		icmp6 := icmp6Layer.(*layers.ICMPv6)
		return communityid.MakeFlowTupleWithPorts(communityid.ProtoICMP6,
			saddr, daddr, uint16(icmp6.TypeCode.Type()), uint16(icmp6.TypeCode.Code()))
	}

	return communityid.MakeFlowTuple(proto, saddr, daddr)
}
