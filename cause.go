package riostack

// NotAcceptedCause is reported to the link partner on a
// packet-not-accepted control symbol, and locally in
// Stack.RxErrorCause. Values follow
// original_source/sw/stack/riostack.h's
// RioStackPacketNotAcceptedCause_t verbatim.
type NotAcceptedCause uint8

const (
	CauseReserved          NotAcceptedCause = 0
	CauseUnexpectedAckId   NotAcceptedCause = 1
	CauseControlCRC        NotAcceptedCause = 2
	CauseNonMaintenance    NotAcceptedCause = 3
	CausePacketCRC         NotAcceptedCause = 4
	CauseIllegalCharacter  NotAcceptedCause = 5
	CauseNoResource        NotAcceptedCause = 6
	CauseDescrambler       NotAcceptedCause = 7
	CauseGeneral           NotAcceptedCause = 31
)

func (c NotAcceptedCause) String() string {
	switch c {
	case CauseReserved:
		return "reserved"
	case CauseUnexpectedAckId:
		return "unexpected-ackid"
	case CauseControlCRC:
		return "control-crc"
	case CauseNonMaintenance:
		return "non-maintenance"
	case CausePacketCRC:
		return "packet-crc"
	case CauseIllegalCharacter:
		return "illegal-character"
	case CauseNoResource:
		return "no-resource"
	case CauseDescrambler:
		return "descrambler"
	case CauseGeneral:
		return "general"
	default:
		return "unknown"
	}
}
