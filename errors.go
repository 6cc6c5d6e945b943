package riostack

import "errors"

// Sentinel errors for caller-usage violations. The protocol itself
// never surfaces an error from the stack's API (spec §7); these are
// reserved for preconditions the caller is responsible for upholding,
// mirroring how the teacher's errors.go separates programmer misuse
// from wire conditions.
var (
	ErrQueueFull       = errors.New("riostack: outbound queue has no available slot")
	ErrQueueEmpty      = errors.New("riostack: inbound queue is empty")
	ErrPacketTooLarge  = errors.New("riostack: packet exceeds MaxPacketWords")
	ErrPacketEmpty     = errors.New("riostack: packet has no words")
	ErrBufferTooSmall  = errors.New("riostack: backing buffer cannot hold one slot")
)
