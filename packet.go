package riostack

// Packet is a caller-owned, ordered sequence of 32-bit words. The
// stack treats it as an opaque blob: header decoding, payload CRC
// format and transaction semantics belong to the packet layer, which
// is out of scope (spec §1). The stack's own per-word running CRC16
// (crc.go) is a link-level integrity check, independent of whatever
// the packet layer embeds in its payload.
type Packet []uint32

// validLength reports whether n words is an acceptable packet length:
// non-zero and no larger than MaxPacketWords.
func validLength(n int) bool {
	return n > 0 && n <= MaxPacketWords
}
