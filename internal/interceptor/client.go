package interceptor

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/emoon/remotelink/internal/protocol"
	"github.com/emoon/remotelink/internal/rlog"
)

// client is the one connection to the file server. A request holds the
// mutex across its entire round trip: this trades throughput for
// simplicity and matches the protocol's at-most-one-inflight rule. A
// caller wanting parallelism opens additional Clients keyed by thread.
type client struct {
	addr string

	mu   sync.Mutex
	conn net.Conn

	nextID uint64
}

func newClient(addr string) *client {
	return &client{addr: addr}
}

// dialLocked lazily connects. Must be called with mu held.
func (c *client) dialLocked() error {
	if c.conn != nil {
		return nil
	}
	conn, err := net.DialTimeout("tcp", c.addr, protocol.DefaultTimeout)
	if err != nil {
		return errors.Wrapf(err, "interceptor: connect to %s", c.addr)
	}
	c.conn = conn
	return nil
}

// call performs one request/response round trip, holding the connection
// mutex for the whole duration. On timeout or transport failure the
// connection is closed so the next call reconnects lazily.
func (c *client) call(req *protocol.Request) (*protocol.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req.ID = atomic.AddUint64(&c.nextID, 1)

	if err := c.dialLocked(); err != nil {
		return nil, err
	}
	deadline := time.Now().Add(protocol.DefaultTimeout)
	_ = c.conn.SetDeadline(deadline)

	if err := req.Encode(c.conn); err != nil {
		c.closeLocked()
		return nil, errors.Wrap(err, "interceptor: send request")
	}
	resp, err := protocol.DecodeResponse(c.conn, req.Op)
	if err != nil {
		rlog.Debugf(c.addr, "transport failure on %s: %v", req.Op, err)
		c.closeLocked()
		return nil, err
	}
	return resp, nil
}

func (c *client) closeLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// close tears down the connection, used at process exit.
func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}
