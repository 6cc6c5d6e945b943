package riostack

import log "github.com/sirupsen/logrus"

// RxState is one of the receiver's five link-initialization and
// steady-state states.
type RxState uint8

const (
	RxUninitialized RxState = iota
	RxPortInitialized
	RxLinkInitialized
	RxInputRetryStopped
	RxInputErrorStopped
)

func (st RxState) String() string {
	switch st {
	case RxUninitialized:
		return "uninitialized"
	case RxPortInitialized:
		return "port-initialized"
	case RxLinkInitialized:
		return "link-initialized"
	case RxInputRetryStopped:
		return "input-retry-stopped"
	case RxInputErrorStopped:
		return "input-error-stopped"
	default:
		return "unknown"
	}
}

// rxErrorStop records the cause and drops the receiver into
// INPUT_ERROR_STOPPED, demanding a packet-not-accepted be emitted by
// the transmitter side of this same stack instance.
func (s *Stack) rxErrorStop(cause NotAcceptedCause) {
	s.rxErrorCause = cause
	s.rxAssembling = false
	s.rxCounter = 0
	s.rxState = RxInputErrorStopped
	s.demand = demandPacketNotAccepted
	s.demandAckId = s.rxAssembleAckId
	s.demandCause = cause
	log.Debugf("[RX] error-stopped cause=%s ackId=%d", cause, s.demandAckId)
}

func (s *Stack) handleStatus() {
	if s.rxState != RxPortInitialized {
		return
	}
	s.rxStatusReceived++
	if s.rxStatusReceived >= NStatusRx {
		s.rxState = RxLinkInitialized
		log.Debugf("[RX] link initialized after %d status symbols", s.rxStatusReceived)
	}
}

func (s *Stack) handleStartOfPacket(fields controlFields) {
	if s.rxState != RxLinkInitialized {
		return
	}
	ackId := fields.parameter0

	if s.rxQueue.AvailableCount() == 0 {
		s.Stats.InboundPacketRetry++
		s.rxState = RxInputRetryStopped
		s.demand = demandPacketRetry
		s.demandAckId = ackId
		log.Warnf("[RX] no resource for ackId=%d, demanding retry", ackId)
		return
	}

	if ackId != s.rxAckId {
		s.Stats.InboundErrorPacketAckId++
		s.rxAssembleAckId = ackId
		s.rxErrorStop(CauseUnexpectedAckId)
		return
	}

	s.rxAssembling = true
	s.rxAssembleAckId = ackId
	s.rxCounter = 0
	s.rxCrc = CRC16(0xFFFF)
}

func (s *Stack) handleData(word uint32) {
	if s.rxState != RxLinkInitialized || !s.rxAssembling {
		return
	}
	if s.rxCounter >= MaxPacketWords {
		s.Stats.InboundErrorGeneral++
		s.rxErrorStop(CauseGeneral)
		return
	}
	s.rxBuf[s.rxCounter] = word
	s.rxCounter++
	s.rxCrc.wordBigEndian(word)
}

func (s *Stack) handleEndOfPacket(fields controlFields) {
	if s.rxState != RxLinkInitialized || !s.rxAssembling {
		return
	}
	wantCrc := decodeEndOfPacketCRC(fields)

	if s.rxCounter == 0 {
		s.Stats.InboundErrorGeneral++
		s.rxErrorStop(CauseGeneral)
		return
	}
	if wantCrc != s.rxCrc {
		s.Stats.InboundErrorPacketCrc++
		s.rxErrorStop(CausePacketCRC)
		return
	}

	_ = s.rxQueue.EnqueueBack(s.rxBuf[:s.rxCounter])
	s.Stats.InboundPacketComplete++
	log.Debugf("[RX] packet complete ackId=%d words=%d", s.rxAckId, s.rxCounter)
	s.rxAckId = (s.rxAckId + 1) % AckIdSpace
	s.rxAssembling = false
	s.rxCounter = 0
}

func (s *Stack) handleRestartFromRetry() {
	if s.rxState == RxInputRetryStopped {
		s.rxState = RxLinkInitialized
		s.rxAssembling = false
		s.rxCounter = 0
		log.Debugf("[RX] restarted from retry, link-initialized")
	}
}

// handleLinkRequest answers the link partner's recovery probe with a
// link-response, regardless of this receiver's own state: the
// partner's transmitter may be recovering from a condition (e.g. a
// timeout) that this receiver never observed.
func (s *Stack) handleLinkRequest() {
	s.Stats.PartnerLinkRequest++
	s.demand = demandLinkResponse
	s.demandAckId = s.rxAckId
	if s.rxState == RxInputErrorStopped {
		s.rxPendingRecoveryAck = true
	}
	log.Debugf("[RX] link-request received, demanding link-response ackId=%d", s.rxAckId)
}
