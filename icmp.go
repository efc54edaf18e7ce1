package communityid

// ICMP and ICMPv6 carry no ports, but most of their traffic still pairs up
// into request/reply conversations. Following Zeek's model, the message
// type and code ride in the port slots, and for types with a well-known
// counterpart the counterpart replaces the destination slot. A request and
// its reply then produce the same port pair, so they order and hash to the
// same identifier. Types without a counterpart mark the flow one-way.

// ICMP message types with a pairing rule.
const (
	icmpEchoReply      = 0
	icmpEcho           = 8
	icmpRouterAdvert   = 9
	icmpRouterSolicit  = 10
	icmpTimestamp      = 13
	icmpTimestampReply = 14
	icmpInfoRequest    = 15
	icmpInfoReply      = 16
	icmpMaskRequest    = 17
	icmpMaskReply      = 18
)

// ICMPv6 message types with a pairing rule.
const (
	icmp6EchoRequest     = 128
	icmp6EchoReply       = 129
	icmp6MLDListenQuery  = 130
	icmp6MLDListenReport = 131
	icmp6RouterSolicit   = 133
	icmp6RouterAdvert    = 134
	icmp6NeighborSolicit = 135
	icmp6NeighborAdvert  = 136
	icmp6WRURequest      = 139
	icmp6WRUReply        = 140
	icmp6HAADRequest     = 144
	icmp6HAADReply       = 145
)

// icmpEquiv maps an ICMP message type to the type expected in response.
// Both directions of each conversation are present, so lookups never need
// a reverse pass.
var icmpEquiv = map[uint16]uint16{
	icmpEcho:           icmpEchoReply,
	icmpEchoReply:      icmpEcho,
	icmpTimestamp:      icmpTimestampReply,
	icmpTimestampReply: icmpTimestamp,
	icmpInfoRequest:    icmpInfoReply,
	icmpInfoReply:      icmpInfoRequest,
	icmpRouterSolicit:  icmpRouterAdvert,
	icmpRouterAdvert:   icmpRouterSolicit,
	icmpMaskRequest:    icmpMaskReply,
	icmpMaskReply:      icmpMaskRequest,
}

// icmp6Equiv is the ICMPv6 counterpart of icmpEquiv.
var icmp6Equiv = map[uint16]uint16{
	icmp6EchoRequest:     icmp6EchoReply,
	icmp6EchoReply:       icmp6EchoRequest,
	icmp6MLDListenQuery:  icmp6MLDListenReport,
	icmp6MLDListenReport: icmp6MLDListenQuery,
	icmp6RouterSolicit:   icmp6RouterAdvert,
	icmp6RouterAdvert:    icmp6RouterSolicit,
	icmp6NeighborSolicit: icmp6NeighborAdvert,
	icmp6NeighborAdvert:  icmp6NeighborSolicit,
	icmp6WRURequest:      icmp6WRUReply,
	icmp6WRUReply:        icmp6WRURequest,
	icmp6HAADRequest:     icmp6HAADReply,
	icmp6HAADReply:       icmp6HAADRequest,
}

// portEquivalents returns the port pair used for ordering and hashing,
// plus whether the flow is one-way. For ICMP and ICMPv6, sport holds the
// message type: when the type has a counterpart the destination slot
// becomes that counterpart (the code in dport is dropped); otherwise the
// pair passes through unchanged and the flow is one-way. Every other
// protocol passes through as a two-way flow.
func portEquivalents(proto uint8, sport, dport uint16) (uint16, uint16, bool) {
	var equiv map[uint16]uint16
	switch proto {
	case ProtoICMP:
		equiv = icmpEquiv
	case ProtoICMP6:
		equiv = icmp6Equiv
	default:
		return sport, dport, false
	}
	if counterpart, ok := equiv[sport]; ok {
		return sport, counterpart, false
	}
	return sport, dport, true
}
