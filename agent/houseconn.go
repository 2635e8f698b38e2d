package agent

import (
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/kartnagrale/auction-core/protocol"
)

// requestTimeout bounds a known-fast house request (spec.md §5: "10s for
// known-fast operations, unbounded for PlaceBid which may legitimately
// block until the house replies").
const requestTimeout = 10 * time.Second

// listenerMaxRetries is how many times the listener retries its receive
// loop after an I/O failure before giving up on this house connection
// (spec.md §5).
const listenerMaxRetries = 3

// houseConn is the Agent-side handle for one connected Auction House: a
// connection, a response queue, and a listener task (spec.md §4.5,
// AgentView). The listener is the sole reader of conn; every request is
// submitted under writeMu and then awaits its reply on respCh, so
// exactly one request is ever outstanding at a time (spec.md §9 "Async
// notifications + request/reply on one channel").
type houseConn struct {
	houseID int64
	conn    *protocol.Conn

	writeMu sync.Mutex
	respCh  chan *protocol.Envelope

	onNotification func(houseID int64, n protocol.BidStatusNotification)

	closeOnce sync.Once
	closed    chan struct{}
}

func dialHouse(houseID int64, host string, port int, onNotification func(int64, protocol.BidStatusNotification)) (*houseConn, error) {
	nc, err := net.DialTimeout("tcp", fmt.Sprintf("%s:%d", host, port), requestTimeout)
	if err != nil {
		return nil, fmt.Errorf("agent: dial house %d at %s:%d: %w", houseID, host, port, err)
	}
	hc := &houseConn{
		houseID:        houseID,
		conn:           protocol.NewConn(nc),
		respCh:         make(chan *protocol.Envelope, 1),
		onNotification: onNotification,
		closed:         make(chan struct{}),
	}
	go hc.listen()
	return hc, nil
}

// listen is the single reader task for this house connection (spec.md
// §5: "the listener must be the only reader"). It classifies every
// inbound frame: BID_STATUS_NOTIFICATION dispatches immediately;
// everything else is handed to whichever caller is waiting on respCh.
func (hc *houseConn) listen() {
	failures := 0
	for {
		env, err := hc.conn.Recv()
		if err != nil {
			select {
			case <-hc.closed:
				return
			default:
			}
			failures++
			if failures > listenerMaxRetries {
				log.Printf("agent: house %d listener giving up after %d failures: %v", hc.houseID, failures, err)
				hc.Close()
				return
			}
			time.Sleep(1 * time.Second)
			continue
		}
		failures = 0

		if env.Tag == protocol.TagBidStatusNotification {
			var n protocol.BidStatusNotification
			if decErr := protocol.Decode(env, &n); decErr != nil {
				log.Printf("agent: house %d: decoding notification: %v", hc.houseID, decErr)
				continue
			}
			hc.onNotification(hc.houseID, n)
			continue
		}

		select {
		case hc.respCh <- env:
		case <-hc.closed:
			return
		}
	}
}

// request sends one frame and waits for the next non-notification reply,
// serializing with any concurrent caller on the same house connection.
// A zero timeout waits indefinitely (used by PlaceBid per spec.md §5).
func (hc *houseConn) request(tag protocol.Tag, payload any, timeout time.Duration) (*protocol.Envelope, error) {
	hc.writeMu.Lock()
	defer hc.writeMu.Unlock()

	if err := hc.conn.Send(tag, payload); err != nil {
		return nil, protocol.Transport("sending %s: %v", tag, err)
	}

	if timeout <= 0 {
		select {
		case env := <-hc.respCh:
			return env, nil
		case <-hc.closed:
			return nil, protocol.Transport("house %d connection closed", hc.houseID)
		}
	}

	select {
	case env := <-hc.respCh:
		return env, nil
	case <-time.After(timeout):
		return nil, protocol.Transport("timed out waiting for reply to %s", tag)
	case <-hc.closed:
		return nil, protocol.Transport("house %d connection closed", hc.houseID)
	}
}

func (hc *houseConn) Close() {
	hc.closeOnce.Do(func() {
		close(hc.closed)
		hc.conn.Close()
	})
}
