package riostack

import log "github.com/sirupsen/logrus"

// TxState is one of the transmitter's link-initialization,
// steady-state and recovery states. SEND_PACKET_RETRY,
// SEND_PACKET_NOT_ACCEPTED and SEND_LINK_RESPONSE from spec.md §4.D
// are modeled as a single pending demand (stack.go's demandKind)
// rather than as persisted states, since each is a one-shot emission
// made by a single portGetSymbol call; see DESIGN.md.
type TxState uint8

const (
	TxUninitialized TxState = iota
	TxPortInitialized
	TxLinkInitialized
	TxOutputRetryStopped
	TxOutputErrorStopped
)

func (st TxState) String() string {
	switch st {
	case TxUninitialized:
		return "uninitialized"
	case TxPortInitialized:
		return "port-initialized"
	case TxLinkInitialized:
		return "link-initialized"
	case TxOutputRetryStopped:
		return "output-retry-stopped"
	case TxOutputErrorStopped:
		return "output-error-stopped"
	default:
		return "unknown"
	}
}

func (s *Stack) txErrorStop() {
	s.txState = TxOutputErrorStopped
	s.txFraming = false
	log.Warnf("[TX] error-stopped, issuing link-request")
}

func (s *Stack) handlePacketAccepted(fields controlFields) {
	if s.txState != TxLinkInitialized {
		return
	}
	ackId := fields.parameter0
	if ackId == s.txAckId {
		latency := s.portTime - s.txFrameTimeout[ackId]
		if latency > s.Stats.OutboundLinkLatencyMax {
			s.Stats.OutboundLinkLatencyMax = latency
		}
		s.txQueue.DiscardFront()
		s.txAckId = (s.txAckId + 1) % AckIdSpace
		s.Stats.OutboundPacketComplete++
		log.Debugf("[TX] packet accepted ackId=%d latency=%d", ackId, latency)
	} else {
		s.Stats.OutboundErrorPacketAccepted++
		s.txErrorStop()
	}
}

func (s *Stack) handlePacketRetryFromPeer(fields controlFields) {
	if s.txState != TxLinkInitialized {
		return
	}
	ackId := fields.parameter0
	if ackId == s.txAckId {
		s.txQueue.RewindWindow()
		s.txAckIdWindow = s.txAckId
		s.txFraming = false
		s.pendingSymbol = encodeRestartFromRetry()
		s.pendingValid = true
		s.Stats.OutboundPacketRetry++
		log.Debugf("[TX] rewinding window for retry at ackId=%d", ackId)
	} else {
		s.Stats.OutboundErrorPacketRetry++
		s.txErrorStop()
	}
}

func (s *Stack) handlePacketNotAcceptedFromPeer(fields controlFields) {
	if s.txState != TxLinkInitialized {
		return
	}
	switch NotAcceptedCause(fields.parameter1) {
	case CauseControlCRC:
		s.Stats.PartnerErrorControlCrc++
	case CausePacketCRC:
		s.Stats.PartnerErrorPacketCrc++
	case CauseUnexpectedAckId:
		s.Stats.PartnerErrorPacketAckId++
	case CauseIllegalCharacter:
		s.Stats.PartnerErrorIllegalCharacter++
	default:
		s.Stats.PartnerErrorGeneral++
	}
	s.txErrorStop()
}

func (s *Stack) handleLinkResponse(fields controlFields) {
	if s.txState != TxOutputErrorStopped {
		return
	}
	peerExpected := fields.parameter0
	// Outstanding packets before the peer's expected ackId reached the
	// peer even though their packet-accepted did not reach this side;
	// release them instead of sending them again.
	outstanding := (s.txAckIdWindow + AckIdSpace - s.txAckId) % AckIdSpace
	delivered := (peerExpected + AckIdSpace - s.txAckId) % AckIdSpace
	if delivered <= outstanding {
		for ; delivered > 0; delivered-- {
			s.txQueue.DiscardFront()
			s.Stats.OutboundPacketComplete++
		}
	}
	s.txAckId = peerExpected
	s.txAckIdWindow = peerExpected
	s.txQueue.RewindWindow()
	s.txFraming = false
	s.txState = TxLinkInitialized
	log.Debugf("[TX] resynchronized via link-response, txAckId=%d", peerExpected)
}

// checkTimeouts scans the outstanding ackId range for an expired
// retransmission timer. O(window size), as spec.md §5 requires.
func (s *Stack) checkTimeouts() {
	if s.txState != TxLinkInitialized {
		return
	}
	for id := s.txAckId; id != s.txAckIdWindow; id = (id + 1) % AckIdSpace {
		if s.portTime-s.txFrameTimeout[id] >= s.portTimeout {
			s.Stats.OutboundErrorTimeout++
			s.txErrorStop()
			return
		}
	}
}

func clampBufferStatus(n int) uint8 {
	if n < 0 {
		return 0
	}
	if n > 31 {
		return 31
	}
	return uint8(n)
}

// txGetSymbol implements the emission-priority order of spec.md §4.D.
func (s *Stack) txGetSymbol() Symbol {
	if !s.portUp || s.txState == TxUninitialized {
		return IdleSymbol()
	}

	s.checkTimeouts()

	if s.pendingValid {
		sym := s.pendingSymbol
		s.pendingValid = false
		return sym
	}

	// A packet-accepted notification owed to the peer always goes out
	// before any demand raised by the receiver side: PACKET_RETRY and
	// PACKET_NOT_ACCEPTED report against the peer's outstanding txAckId,
	// so every earlier packet this receiver already completed must be
	// acknowledged first or that ackId would no longer match.
	if s.txState == TxLinkInitialized && s.rxAckIdAcked != s.rxAckId {
		ackId := s.rxAckIdAcked
		s.rxAckIdAcked = (s.rxAckIdAcked + 1) % AckIdSpace
		return encodePacketAccepted(ackId)
	}

	if s.demand != demandNone {
		return s.emitDemand()
	}

	switch s.txState {
	case TxPortInitialized:
		sym := encodeStatus(1, clampBufferStatus(s.rxQueue.AvailableCount()))
		s.txStatusCounter++
		if s.txStatusCounter >= NStatusTx && s.rxState == RxLinkInitialized {
			s.txState = TxLinkInitialized
			s.txBufferStatus = AckIdSpace - 1
			log.Debugf("[TX] link initialized after %d status symbols", s.txStatusCounter)
		}
		return sym

	case TxOutputErrorStopped:
		return encodeLinkRequestInputStatus()

	case TxLinkInitialized:
		return s.txSteadyStateSymbol()
	}

	return IdleSymbol()
}

func (s *Stack) emitDemand() Symbol {
	var sym Symbol
	switch s.demand {
	case demandPacketRetry:
		sym = encodePacketRetry(s.demandAckId)
	case demandPacketNotAccepted:
		sym = encodePacketNotAccepted(s.demandAckId, s.demandCause)
	case demandLinkResponse:
		sym = encodeLinkResponse(s.demandAckId, clampBufferStatus(s.rxQueue.AvailableCount()))
		if s.rxPendingRecoveryAck {
			s.rxState = RxLinkInitialized
			s.rxPendingRecoveryAck = false
			log.Debugf("[RX] link-initialized after emitting link-response")
		}
	}
	s.demand = demandNone
	return sym
}

func (s *Stack) txSteadyStateSymbol() Symbol {
	if s.txFraming {
		if s.txCounter < len(s.txFrameWords) {
			w := s.txFrameWords[s.txCounter]
			s.txFrameCrc.wordBigEndian(w)
			s.txCounter++
			return DataSymbol(w)
		}
		sym := encodeEndOfPacket(s.txFrameCrc)
		s.txFrameTimeout[s.txFrameAckId] = s.portTime
		s.txAckIdWindow = (s.txAckIdWindow + 1) % AckIdSpace
		s.txQueue.AdvanceWindow()
		s.txFraming = false
		return sym
	}

	if s.txQueue.WindowOpen() && s.txQueue.WindowLen() < AckIdSpace && s.txBufferStatus > 0 {
		pkt := s.txQueue.GetWindow()
		s.txFrameWords = pkt
		s.txFrameAckId = s.txAckIdWindow
		s.txFrameCrc = CRC16(0xFFFF)
		s.txCounter = 0
		s.txFraming = true
		return encodeStartOfPacket(s.txFrameAckId)
	}

	return IdleSymbol()
}
