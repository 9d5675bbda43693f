// Package endpoint implements the roaming UDP datagram socket the SSP
// engine sends and receives through. It deliberately knows nothing about
// SSP, OCB3, or sequence numbers: it is a connected datagram socket with two
// hooks ("viability lost", "better path available") that transparently swap
// the underlying socket to the same peer without disturbing anything above
// it.
package endpoint

import (
	"context"
	"fmt"
	"net"
	"sync"
)

// maxDatagramSize bounds a single UDP read; Mosh datagrams are well under
// the default MTU budget (internal/datagram.DefaultMTU), so this generously
// covers jumbo-frame paths too.
const maxDatagramSize = 65507

// Endpoint is a roaming connected-UDP abstraction. All exported methods are
// safe for concurrent use; receive callbacks fire from the endpoint's own
// goroutine and must not block.
type Endpoint struct {
	host string
	port int

	mu     sync.Mutex
	conn   *net.UDPConn
	cancel context.CancelFunc

	onReceive   func([]byte)
	onViability func(viable bool)
}

// Dial opens the initial connected socket to (host, port) and starts the
// receive loop.
func Dial(host string, port int) (*Endpoint, error) {
	e := &Endpoint{host: host, port: port}
	if err := e.open(); err != nil {
		return nil, err
	}
	return e, nil
}

// OnReceive registers the callback invoked with each datagram's payload as
// it arrives. Only one callback is held; registering again replaces it.
func (e *Endpoint) OnReceive(cb func([]byte)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onReceive = cb
}

// OnViabilityChanged registers the callback invoked with false when a read
// on the current socket fails, just before that socket is replaced. It is
// never invoked with true.
func (e *Endpoint) OnViabilityChanged(cb func(viable bool)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onViability = cb
}

// Send writes a sealed datagram to the current socket.
func (e *Endpoint) Send(b []byte) error {
	e.mu.Lock()
	conn := e.conn
	e.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("endpoint: no active socket")
	}
	_, err := conn.Write(b)
	return err
}

// NotifyBetterPath triggers the "better path available" roaming hook: the
// caller (e.g. a platform network-change observer) believes a better route
// to the same peer now exists, so the socket is replaced without touching
// any SSP state.
func (e *Endpoint) NotifyBetterPath() error {
	return e.replace()
}

// Close tears the endpoint down permanently.
func (e *Endpoint) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
	if e.conn != nil {
		err := e.conn.Close()
		e.conn = nil
		return err
	}
	return nil
}

// open resolves and connects a new UDP socket, replacing any prior one, and
// starts its receive loop.
func (e *Endpoint) open() error {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", e.host, e.port))
	if err != nil {
		return err
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())

	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	if e.conn != nil {
		_ = e.conn.Close()
	}
	e.conn = conn
	e.cancel = cancel
	e.mu.Unlock()

	go e.receiveLoop(ctx, conn)
	return nil
}

// replace implements the shared roaming procedure: cancel the current
// socket, open a fresh one to the same (host, port), restart the receive
// loop. Sequence numbers and all SSP state above this layer are untouched.
func (e *Endpoint) replace() error {
	return e.open()
}

func (e *Endpoint) receiveLoop(ctx context.Context, conn *net.UDPConn) {
	buf := make([]byte, maxDatagramSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := conn.Read(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				// This socket was superseded; not a viability loss.
				return
			default:
			}
			e.notifyViability(false)
			// Cancel the failed socket and open a fresh one to the same
			// peer; SSP state above this layer is untouched.
			_ = e.replace()
			return
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])

		e.mu.Lock()
		cb := e.onReceive
		e.mu.Unlock()
		if cb != nil {
			cb(payload)
		}
	}
}

func (e *Endpoint) notifyViability(viable bool) {
	e.mu.Lock()
	cb := e.onViability
	e.mu.Unlock()
	if cb != nil {
		cb(viable)
	}
}
