package riostack

// Stats holds the monotonic 32-bit counters described in spec.md §3
// and §4.F, extended with the partner-side mirror counters restored
// from original_source/sw/stack/riostack.h (the distillation dropped
// them, but they are pure observability and cost nothing behavioral
// to carry). All fields are incremented only from inside
// Stack.PortAddSymbol/Stack.PortGetSymbol and are read-only from the
// outside; wrap-around is permitted and not guarded against.
type Stats struct {
	// Local receiver counters.
	InboundPacketComplete        uint32
	InboundPacketRetry           uint32
	InboundErrorControlCrc       uint32
	InboundErrorPacketAckId      uint32
	InboundErrorPacketCrc        uint32
	InboundErrorIllegalCharacter uint32
	InboundErrorGeneral          uint32
	InboundErrorPacketUnsupported uint32

	// Local transmitter counters.
	OutboundPacketComplete      uint32
	OutboundLinkLatencyMax      uint32
	OutboundPacketRetry         uint32
	OutboundErrorTimeout        uint32
	OutboundErrorPacketAccepted uint32
	OutboundErrorPacketRetry    uint32

	// Counters describing conditions reported by the link partner,
	// learned from its link-request/link-response/not-accepted
	// traffic rather than observed locally.
	PartnerLinkRequest          uint32
	PartnerErrorControlCrc      uint32
	PartnerErrorPacketAckId     uint32
	PartnerErrorPacketCrc       uint32
	PartnerErrorIllegalCharacter uint32
	PartnerErrorGeneral         uint32
}
