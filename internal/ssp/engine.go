// Package ssp implements the State Synchronization Protocol: a diff-based
// reliable-delivery layer over the roaming UDP datagram channel, with
// heartbeats, retransmission of the latest unacked payload, and timestamp
// echo for RTT measurement.
package ssp

import (
	"sync"
	"time"

	"moshcore/internal/datagram"
	"moshcore/internal/wire"
)

const (
	// heartbeatTick is how often the engine wakes to consider
	// retransmitting or sending a heartbeat.
	heartbeatTick = 250 * time.Millisecond
	// retransmitAfter is the minimum quiet time before an unacked payload
	// is resent verbatim.
	retransmitAfter = time.Second
	// heartbeatAfter is the minimum quiet time before an idle connection
	// sends a heartbeat to keep NAT mappings open and RTT fresh.
	heartbeatAfter = 3 * time.Second

	protocolVersion = 2
)

// Endpoint is the roaming datagram transport the engine sends and receives
// through. internal/endpoint.Endpoint satisfies this.
type Endpoint interface {
	Send([]byte) error
	OnReceive(func([]byte))
	OnViabilityChanged(func(bool))
}

// TerminalFeed receives bytes and resize events decoded from inbound
// HostMessages. internal/term.State (via a small adapter) satisfies this.
type TerminalFeed interface {
	Feed(data []byte)
	Resize(width, height int)
}

// SenderState tracks the local outbound diff in flight.
type SenderState struct {
	CurrentNum        uint64
	AckedNum          uint64
	UnackedKeystrokes []byte
	UnackedResize     *wire.Resize
	LastSendTime      time.Time
}

// ReceiverState tracks what has been accepted from the peer.
type ReceiverState struct {
	CurrentNum                  uint64
	LastRemoteTimestamp         uint16
	LastRemoteTimestampReceived time.Time
	haveRemoteTimestamp         bool
}

// Engine is the client-side SSP state machine: one serializing owner of
// SenderState/ReceiverState, driven by inbound datagrams, queued local
// input, and a 250ms heartbeat wheel. All sender/receiver state mutation
// happens under one mutex; the reassembler is used outside it, only from
// the endpoint's receive callback. Nothing here ever blocks on the network.
type Engine struct {
	mu sync.Mutex

	codec      *datagram.Codec
	fragmenter *datagram.Fragmenter
	assembler  *datagram.Assembler
	endpoint   Endpoint
	feed       TerminalFeed

	sender   SenderState
	receiver ReceiverState

	epoch       time.Time
	outboundSeq uint64

	stopCh  chan struct{}
	stopped bool
}

// New builds an engine bound to a 16-byte session key, a roaming endpoint,
// and the terminal feed that inbound host bytes/resizes are delivered to.
// mtu bounds fragment size; a non-positive value uses datagram.DefaultMTU.
func New(key []byte, ep Endpoint, feed TerminalFeed, mtu int) *Engine {
	return &Engine{
		codec:      datagram.NewCodec(key),
		fragmenter: datagram.NewFragmenter(mtu),
		assembler:  datagram.NewAssembler(),
		endpoint:   ep,
		feed:       feed,
		stopCh:     make(chan struct{}),
	}
}

// Start registers the engine as the endpoint's receiver, stamps the session
// epoch, sends one initial datagram to establish the flow, and launches the
// heartbeat/retransmit loop.
func (e *Engine) Start() {
	e.mu.Lock()
	e.epoch = time.Now()
	e.mu.Unlock()

	e.endpoint.OnReceive(e.handleDatagram)

	e.mu.Lock()
	e.sendLocked()
	e.mu.Unlock()

	go e.heartbeatLoop()
}

// Stop disables the heartbeat timer and detaches from the endpoint.
// In-flight callbacks from before Stop are allowed to finish; none start
// after it returns. Stop is idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	e.mu.Unlock()

	close(e.stopCh)
	e.endpoint.OnReceive(nil)
}

// QueueKeystrokes appends bytes to the unacked keystroke buffer. If nothing
// was already in flight, this advances CurrentNum by one. Either way, the
// full unacked set is sent immediately.
func (e *Engine) QueueKeystrokes(data []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sender.UnackedKeystrokes = append(e.sender.UnackedKeystrokes, data...)
	e.advanceIfIdleLocked()
	e.sendLocked()
}

// QueueResize replaces the pending resize. Same advance-and-send-immediately
// rule as QueueKeystrokes.
func (e *Engine) QueueResize(cols, rows int32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sender.UnackedResize = &wire.Resize{Width: cols, Height: rows}
	e.advanceIfIdleLocked()
	e.sendLocked()
}

func (e *Engine) advanceIfIdleLocked() {
	if e.sender.CurrentNum == e.sender.AckedNum {
		e.sender.CurrentNum = e.sender.AckedNum + 1
	}
}

// Snapshot returns copies of the current sender/receiver state, for tests
// and diagnostics; it takes the engine's lock.
func (e *Engine) Snapshot() (SenderState, ReceiverState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sender
	s.UnackedKeystrokes = append([]byte(nil), e.sender.UnackedKeystrokes...)
	return s, e.receiver
}

func (e *Engine) heartbeatLoop() {
	ticker := time.NewTicker(heartbeatTick)
	defer ticker.Stop()
	for {
		select {
		case <-e.stopCh:
			return
		case <-ticker.C:
			e.mu.Lock()
			now := time.Now()
			quiet := now.Sub(e.sender.LastSendTime)
			if e.sender.AckedNum < e.sender.CurrentNum && quiet > retransmitAfter {
				e.sendLocked()
			} else if quiet > heartbeatAfter {
				e.sendLocked()
			}
			e.mu.Unlock()
		}
	}
}

// sendLocked builds and transmits one TransportInstruction carrying the
// full current unacked set (or, when idle, an empty heartbeat diff),
// fragmenting and sealing one datagram per fragment. Caller must hold mu.
func (e *Engine) sendLocked() {
	ts := e.localTimestampLocked()
	tsReply := e.remoteTimestampReplyLocked()

	var msg wire.UserMessage
	if len(e.sender.UnackedKeystrokes) > 0 {
		msg.Instructions = append(msg.Instructions, wire.UserInstruction{
			Keystroke: &wire.Keystroke{Keys: append([]byte(nil), e.sender.UnackedKeystrokes...)},
		})
	}
	if e.sender.UnackedResize != nil {
		r := *e.sender.UnackedResize
		msg.Instructions = append(msg.Instructions, wire.UserInstruction{Resize: &r})
	}

	ti := wire.TransportInstruction{
		ProtocolVersion: protocolVersion,
		OldNum:          e.sender.AckedNum,
		NewNum:          e.sender.CurrentNum,
		AckNum:          e.receiver.CurrentNum,
		ThrowawayNum:    e.sender.AckedNum,
		Diff:            msg.Marshal(),
	}

	fragments, err := e.fragmenter.Fragment(ti.Marshal())
	if err != nil {
		// Compression failure on a freshly marshaled instruction would be a
		// library defect, not a recoverable runtime condition; drop this
		// send attempt and let the next heartbeat tick retry.
		return
	}

	for _, f := range fragments {
		p := datagram.Packet{
			SequenceNumber: e.outboundSeq,
			Direction:      datagram.ToServer,
			Timestamp:      ts,
			TimestampReply: tsReply,
			Payload:        f.Serialize(),
		}
		e.outboundSeq++
		_ = e.endpoint.Send(e.codec.Seal(p))
	}

	e.sender.LastSendTime = time.Now()
}

func (e *Engine) localTimestampLocked() uint16 {
	return uint16(time.Since(e.epoch).Milliseconds() % 65536)
}

func (e *Engine) remoteTimestampReplyLocked() uint16 {
	if !e.receiver.haveRemoteTimestamp {
		return 0
	}
	elapsed := time.Since(e.receiver.LastRemoteTimestampReceived).Milliseconds()
	return uint16((int64(e.receiver.LastRemoteTimestamp) + elapsed) % 65536)
}

// handleDatagram is the endpoint's receive callback: open the packet,
// update RTT bookkeeping, feed any completed fragment into the reassembler,
// and apply the resulting TransportInstruction.
func (e *Engine) handleDatagram(wireBytes []byte) {
	p, err := e.codec.Open(wireBytes, datagram.ToClient)
	if err != nil {
		return // silently discard; the peer will retransmit
	}

	e.mu.Lock()
	e.receiver.LastRemoteTimestamp = p.Timestamp
	e.receiver.LastRemoteTimestampReceived = time.Now()
	e.receiver.haveRemoteTimestamp = true
	e.mu.Unlock()

	frag, err := datagram.ParseFragment(p.Payload)
	if err != nil {
		return
	}

	data, ready, err := e.assembler.Push(frag)
	if err != nil || !ready {
		return
	}

	ti, err := wire.UnmarshalTransportInstruction(data)
	if err != nil {
		return
	}

	e.applyInstruction(ti)
}

func (e *Engine) applyInstruction(ti wire.TransportInstruction) {
	e.mu.Lock()

	if ti.AckNum > e.sender.AckedNum {
		e.sender.AckedNum = ti.AckNum
		if e.sender.AckedNum >= e.sender.CurrentNum {
			e.sender.UnackedKeystrokes = nil
			e.sender.UnackedResize = nil
			e.sender.CurrentNum = e.sender.AckedNum
		}
	}

	advanced := ti.NewNum > e.receiver.CurrentNum
	if advanced {
		e.receiver.CurrentNum = ti.NewNum
	}
	e.mu.Unlock()

	if !advanced {
		return
	}

	host, err := wire.UnmarshalHostMessage(ti.Diff)
	if err != nil {
		return
	}
	for _, instr := range host.Instructions {
		if instr.HostBytes != nil && e.feed != nil {
			e.feed.Feed(instr.HostBytes.HostString)
		}
		if instr.Resize != nil && e.feed != nil {
			e.feed.Resize(int(instr.Resize.Width), int(instr.Resize.Height))
		}
	}

	e.mu.Lock()
	e.sendLocked()
	e.mu.Unlock()
}
