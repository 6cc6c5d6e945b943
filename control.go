package riostack

// Control-symbol stype0 classes. There is no authoritative bit table
// in either spec.md or original_source/sw/stack/riostack.h (the header
// only names the control-symbol roles, not their wire encoding), so
// this table is an implementation choice; see DESIGN.md. It keeps the
// field layout spec.md §6 mandates: a 19-bit data field {stype0:3,
// parameter0:5, parameter1:5, stype1:3, cmd:3} plus a 5-bit CRC,
// packed MSB-first into a 24-bit word.
const (
	stype0Status           uint8 = 0
	stype0PacketAccepted   uint8 = 1
	stype0PacketRetry      uint8 = 2
	stype0PacketNotAccept  uint8 = 3
	stype0StartOfPacket    uint8 = 4
	stype0EndOfPacket      uint8 = 5
	stype0ControlOp        uint8 = 6
	stype0Reserved         uint8 = 7
)

// stype1 sub-selectors under stype0ControlOp.
const (
	stype1RestartFromRetry uint8 = 0
	stype1LinkRequest      uint8 = 1
	stype1LinkResponse     uint8 = 2
)

// controlFields is the decoded, CRC-verified content of one control
// symbol.
type controlFields struct {
	stype0     uint8
	parameter0 uint8
	parameter1 uint8
	stype1     uint8
	cmd        uint8
}

func packControlWord(f controlFields) uint32 {
	data19 := (uint32(f.stype0&0x7) << 16) |
		(uint32(f.parameter0&0x1F) << 11) |
		(uint32(f.parameter1&0x1F) << 6) |
		(uint32(f.stype1&0x7) << 3) |
		uint32(f.cmd&0x7)
	return (data19 << 5) | uint32(crc5(data19))
}

// decodeControlWord verifies the CRC-5 and extracts the fields. ok is
// false on CRC mismatch, in which case the caller should count a
// control-CRC error and drop the symbol.
func decodeControlWord(word uint32) (f controlFields, ok bool) {
	word &= 0xFFFFFF
	gotCrc := uint8(word & 0x1F)
	data19 := (word >> 5) & 0x7FFFF
	if crc5(data19) != gotCrc {
		return controlFields{}, false
	}
	f.stype0 = uint8((data19 >> 16) & 0x7)
	f.parameter0 = uint8((data19 >> 11) & 0x1F)
	f.parameter1 = uint8((data19 >> 6) & 0x1F)
	f.stype1 = uint8((data19 >> 3) & 0x7)
	f.cmd = uint8(data19 & 0x7)
	return f, true
}

// --- constructors -----------------------------------------------------

func encodeStatus(ownStatus uint8, bufferStatus uint8) Symbol {
	return ControlSymbol(packControlWord(controlFields{
		stype0:     stype0Status,
		parameter0: ownStatus & 0x1F,
		parameter1: bufferStatus & 0x1F,
	}))
}

func encodePacketAccepted(ackId uint8) Symbol {
	return ControlSymbol(packControlWord(controlFields{
		stype0:     stype0PacketAccepted,
		parameter0: ackId & 0x1F,
	}))
}

func encodePacketRetry(ackId uint8) Symbol {
	return ControlSymbol(packControlWord(controlFields{
		stype0:     stype0PacketRetry,
		parameter0: ackId & 0x1F,
	}))
}

func encodePacketNotAccepted(ackId uint8, cause NotAcceptedCause) Symbol {
	return ControlSymbol(packControlWord(controlFields{
		stype0:     stype0PacketNotAccept,
		parameter0: ackId & 0x1F,
		parameter1: uint8(cause) & 0x1F,
	}))
}

func encodeStartOfPacket(ackId uint8) Symbol {
	return ControlSymbol(packControlWord(controlFields{
		stype0:     stype0StartOfPacket,
		parameter0: ackId & 0x1F,
	}))
}

// encodeEndOfPacket packs the 16-bit packet CRC across the four
// non-stype0 fields (5+5+3+3 == 16 bits).
func encodeEndOfPacket(crc CRC16) Symbol {
	v := uint32(crc)
	return ControlSymbol(packControlWord(controlFields{
		stype0:     stype0EndOfPacket,
		parameter0: uint8((v >> 11) & 0x1F),
		parameter1: uint8((v >> 6) & 0x1F),
		stype1:     uint8((v >> 3) & 0x7),
		cmd:        uint8(v & 0x7),
	}))
}

func decodeEndOfPacketCRC(f controlFields) CRC16 {
	v := (uint32(f.parameter0&0x1F) << 11) |
		(uint32(f.parameter1&0x1F) << 6) |
		(uint32(f.stype1&0x7) << 3) |
		uint32(f.cmd&0x7)
	return CRC16(v)
}

func encodeRestartFromRetry() Symbol {
	return ControlSymbol(packControlWord(controlFields{
		stype0: stype0ControlOp,
		stype1: stype1RestartFromRetry,
	}))
}

func encodeLinkRequestInputStatus() Symbol {
	return ControlSymbol(packControlWord(controlFields{
		stype0: stype0ControlOp,
		stype1: stype1LinkRequest,
	}))
}

func encodeLinkResponse(expectedAckId uint8, bufferStatus uint8) Symbol {
	return ControlSymbol(packControlWord(controlFields{
		stype0:     stype0ControlOp,
		stype1:     stype1LinkResponse,
		parameter0: expectedAckId & 0x1F,
		parameter1: bufferStatus & 0x1F,
	}))
}
