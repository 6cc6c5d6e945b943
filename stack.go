package riostack

import log "github.com/sirupsen/logrus"

// demandKind is a one-shot control symbol the transmitter must emit
// ahead of its own status, link-request and packet traffic, raised by
// the receiver side in reaction to an inbound condition. txGetSymbol
// emits it once any pending RESTART_FROM_RETRY and every
// packet-accepted this side still owes have gone out, which is what
// makes PACKET_RETRY / PACKET_NOT_ACCEPTED / LINK_RESPONSE correct even
// though they are not persisted TxStates; see transmitter.go.
type demandKind uint8

const (
	demandNone demandKind = iota
	demandPacketRetry
	demandPacketNotAccepted
	demandLinkResponse
)

// Stack is one end of a RapidIO serial link: a single-threaded,
// allocation-free, callback-free aggregate of receiver state,
// transmitter state and the two packet queues, modeled directly on
// original_source/sw/stack/riostack.h's RioStack_t. Callers drive it
// by feeding inbound symbols to PortAddSymbol and pulling outbound
// symbols from PortGetSymbol; there is no internal goroutine and no
// notification mechanism, so the two FSMs only ever talk to each
// other through the fields on this struct.
type Stack struct {
	Stats Stats

	portUp      bool
	portTime    uint32
	portTimeout uint32

	// Cross-FSM signaling. demand is raised by the receiver side and
	// drained by the transmitter side on its next symbol request.
	demand      demandKind
	demandAckId uint8
	demandCause NotAcceptedCause

	// pendingSymbol/pendingValid is a second, higher-priority slot
	// reserved for RESTART_FROM_RETRY, which must be sent exactly once
	// immediately after the window rewind that provokes it.
	pendingSymbol Symbol
	pendingValid  bool

	// Receiver state.
	rxState              RxState
	rxStatusReceived     int
	rxAckId              uint8
	rxAckIdAcked         uint8
	rxAssembling         bool
	rxAssembleAckId      uint8
	rxCounter            int
	rxBuf                [MaxPacketWords]uint32
	rxCrc                CRC16
	rxErrorCause         NotAcceptedCause
	rxPendingRecoveryAck bool
	rxQueue              *Queue

	// Transmitter state.
	txState         TxState
	txStatusCounter int
	txBufferStatus  uint8
	txAckId         uint8
	txAckIdWindow   uint8
	txFraming       bool
	txFrameWords    []uint32
	txFrameAckId    uint8
	txFrameCrc      CRC16
	txCounter       int
	txFrameTimeout  [AckIdSpace]uint32
	txQueue         *Queue
}

// Open builds a Stack over caller-owned backing buffers for the
// inbound and outbound queues, matching the teacher's habit of taking
// a preallocated buffer in New-style constructors (internal/fifo.NewFifo)
// rather than allocating internally. Both sides start UNINITIALIZED;
// call PortSetStatus(true) once the physical layer reports light.
func Open(rxWords, txWords []uint32) *Stack {
	return &Stack{
		rxQueue: NewQueue(rxWords),
		txQueue: NewQueue(txWords),
	}
}

// PortSetStatus reflects the physical layer's link-up signal. Raising
// it from down brings both FSMs to their PORT_INITIALIZED state ready
// to exchange status symbols; queued-but-unsent packets are kept, but
// everything about where the link had gotten to is discarded, since a
// physical-layer bounce invalidates ackId synchronization entirely.
// Dropping it does the same reset and additionally halts symbol
// traffic (PortGetSymbol returns Idle, PortAddSymbol is ignored).
func (s *Stack) PortSetStatus(up bool) {
	wasUp := s.portUp
	s.portUp = up
	if up == wasUp {
		return
	}
	s.rxState = RxUninitialized
	s.txState = TxUninitialized
	s.rxStatusReceived = 0
	s.txStatusCounter = 0
	s.rxAckId = 0
	s.rxAckIdAcked = 0
	s.txAckId = 0
	s.txAckIdWindow = 0
	s.rxAssembling = false
	s.rxCounter = 0
	s.txFraming = false
	s.demand = demandNone
	s.pendingValid = false
	s.rxPendingRecoveryAck = false
	s.rxQueue.RewindWindow()
	s.txQueue.RewindWindow()
	if up {
		s.rxState = RxPortInitialized
		s.txState = TxPortInitialized
		log.Infof("[LINK] port up, negotiating")
	} else {
		log.Infof("[LINK] port down")
	}
}

// PortSetTime feeds the current free-running port clock, in whatever
// units the caller's PortSetTimeout also uses. The stack never reads a
// real clock itself (spec's Non-goals exclude OS/clock ownership); the
// caller is expected to call this once per PortGetSymbol/PortAddSymbol
// cycle, or close to it.
func (s *Stack) PortSetTime(t uint32) { s.portTime = t }

// PortSetTimeout sets the retransmission timeout, in PortSetTime units.
func (s *Stack) PortSetTimeout(t uint32) { s.portTimeout = t }

// PortAddSymbol feeds one inbound symbol to the receiver FSM.
func (s *Stack) PortAddSymbol(sym Symbol) {
	if !s.portUp {
		return
	}
	switch sym.Type {
	case SymbolControl:
		fields, ok := decodeControlWord(sym.Data)
		if !ok {
			s.Stats.InboundErrorControlCrc++
			if s.rxState == RxLinkInitialized {
				s.rxAssembleAckId = s.rxAckId
				s.rxErrorStop(CauseControlCRC)
			}
			return
		}
		s.handleControl(fields)
	case SymbolData:
		s.handleData(sym.Data)
	case SymbolError:
		s.Stats.InboundErrorIllegalCharacter++
		if s.rxState == RxLinkInitialized {
			s.rxAssembleAckId = s.rxAckId
			s.rxErrorStop(CauseIllegalCharacter)
		}
	case SymbolIdle:
	}
}

// handleControl routes a CRC-verified control symbol by its stype0 (and,
// for the ControlOp class, stype1) rather than by current FSM state: a
// LINK_REQUEST must be answered no matter what state this side's
// receiver happens to be in, since it reports a condition observed by
// the link partner's transmitter, not by this receiver.
func (s *Stack) handleControl(fields controlFields) {
	switch fields.stype0 {
	case stype0Status:
		s.handleStatus()
	case stype0PacketAccepted:
		s.handlePacketAccepted(fields)
	case stype0PacketRetry:
		s.handlePacketRetryFromPeer(fields)
	case stype0PacketNotAccept:
		s.handlePacketNotAcceptedFromPeer(fields)
	case stype0StartOfPacket:
		s.handleStartOfPacket(fields)
	case stype0EndOfPacket:
		s.handleEndOfPacket(fields)
	case stype0ControlOp:
		switch fields.stype1 {
		case stype1RestartFromRetry:
			s.handleRestartFromRetry()
		case stype1LinkRequest:
			s.handleLinkRequest()
		case stype1LinkResponse:
			s.handleLinkResponse(fields)
		}
	default:
		s.Stats.InboundErrorPacketUnsupported++
	}
}

// PortGetSymbol pulls the next outbound symbol from the transmitter
// FSM. Called once per link cycle regardless of whether there is
// anything useful to send; Idle is a legitimate, frequent result.
func (s *Stack) PortGetSymbol() Symbol {
	return s.txGetSymbol()
}

// SetOutboundPacket enqueues pkt for transmission. The stack copies
// nothing eagerly out of pkt beyond what Queue.EnqueueBack copies; the
// caller may reuse pkt's backing array immediately after this returns.
func (s *Stack) SetOutboundPacket(pkt []uint32) error {
	if !validLength(len(pkt)) {
		if len(pkt) == 0 {
			return ErrPacketEmpty
		}
		return ErrPacketTooLarge
	}
	return s.txQueue.EnqueueBack(pkt)
}

// GetInboundPacket removes and returns the oldest fully received
// packet, or ErrQueueEmpty if none is available. The returned slice
// aliases the stack's internal ring buffer rather than a fresh copy,
// matching the zero-allocation contract Queue.Front/GetWindow already
// keep; it is only valid until the next call that mutates the inbound
// queue.
func (s *Stack) GetInboundPacket() ([]uint32, error) {
	if s.rxQueue.UsedCount() == 0 {
		return nil, ErrQueueEmpty
	}
	pkt := s.rxQueue.Front()
	s.rxQueue.DiscardFront()
	return pkt, nil
}

func (s *Stack) GetOutboundQueueLength() int    { return s.txQueue.UsedCount() }
func (s *Stack) GetOutboundQueueAvailable() int { return s.txQueue.AvailableCount() }
func (s *Stack) GetInboundQueueLength() int     { return s.rxQueue.UsedCount() }
func (s *Stack) GetInboundQueueAvailable() int  { return s.rxQueue.AvailableCount() }

// LinkIsInitialized reports whether both directions of the link have
// completed status-symbol negotiation and are exchanging packets.
func (s *Stack) LinkIsInitialized() bool {
	return s.rxState == RxLinkInitialized && s.txState == TxLinkInitialized
}

// Status is a deprecated alias for LinkIsInitialized, kept for parity
// with RIOSTACK_getStatus in original_source/sw/stack/riostack.h.
//
// Deprecated: use LinkIsInitialized.
func (s *Stack) Status() bool { return s.LinkIsInitialized() }
