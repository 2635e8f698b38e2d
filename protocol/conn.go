package protocol

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// maxFrameSize guards against a corrupt or hostile length prefix turning
// a single frame into an unbounded allocation.
const maxFrameSize = 16 << 20 // 16 MiB

// Envelope is the tagged variant every frame carries: a short type tag
// plus a payload whose shape the tag determines (spec.md §9).
type Envelope struct {
	Tag     Tag             `json:"tag"`
	Payload json.RawMessage `json:"payload"`
}

// Conn wraps a net.Conn with the framing spec.md §6 recommends: a 4-byte
// big-endian length prefix followed by that many bytes of JSON. Writes are
// serialized under writeMu so that a reply frame and an unsolicited
// notification pushed from a different goroutine never interleave
// mid-frame on the same socket (spec.md §5, "serialize per session").
// Conn does not serialize reads: callers that need single-reader
// discipline (the Agent's per-house listener) are expected to enforce it
// themselves by having exactly one goroutine call Recv.
type Conn struct {
	nc net.Conn
	r  *bufio.Reader

	writeMu sync.Mutex
}

func NewConn(nc net.Conn) *Conn {
	return &Conn{nc: nc, r: bufio.NewReader(nc)}
}

// Send marshals payload to JSON and writes one framed envelope.
func (c *Conn) Send(tag Tag, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("protocol: marshal %s payload: %w", tag, err)
	}
	env := Envelope{Tag: tag, Payload: body}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("protocol: marshal envelope: %w", err)
	}
	if len(data) > maxFrameSize {
		return fmt.Errorf("protocol: frame too large: %d bytes", len(data))
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(data)))
	if _, err := c.nc.Write(hdr[:]); err != nil {
		return err
	}
	_, err = c.nc.Write(data)
	return err
}

// Recv blocks for the next framed envelope. It is not safe to call Recv
// from more than one goroutine on the same Conn concurrently.
func (c *Conn) Recv() (*Envelope, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(c.r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > maxFrameSize {
		return nil, fmt.Errorf("protocol: frame too large: %d bytes", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.r, buf); err != nil {
		return nil, err
	}
	var env Envelope
	if err := json.Unmarshal(buf, &env); err != nil {
		return nil, fmt.Errorf("protocol: corrupt frame: %w", err)
	}
	return &env, nil
}

// Decode unmarshals an envelope's payload into v.
func Decode(env *Envelope, v any) error {
	return json.Unmarshal(env.Payload, v)
}

func (c *Conn) Close() error {
	return c.nc.Close()
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.nc.RemoteAddr()
}

// SetReadDeadline sets the read deadline of the underlying socket, for the
// request-socket read timeout of spec.md §5. Conn sets no deadline of its
// own; the caller picks it (bankclient uses 10s per round trip).
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.nc.SetReadDeadline(t)
}
