package riostack

// Wire and window constants from the RapidIO Serial Physical Layer
// specification (Part 6), as used by the link-layer core.
const (
	// MaxPacketWords is the largest packet the stack will carry, in
	// 32-bit words (69 words == 276 bytes, per the RapidIO spec).
	MaxPacketWords = 69

	// SlotWords is the size of one queue slot: the packet plus one
	// word used to record how many of the remaining words are valid.
	SlotWords = MaxPacketWords + 1

	// AckIdSpace is the size of the modular ackId space (5 bits).
	AckIdSpace = 32

	// NStatusRx is the minimum number of valid inbound status
	// control-symbols required before the receiver considers the
	// link initialized.
	NStatusRx = 7

	// NStatusTx is the minimum number of status control-symbols the
	// transmitter must emit before it may consider the link
	// initialized.
	NStatusTx = 15
)
