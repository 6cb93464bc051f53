// Package fileserver implements the developer-host side of the
// file-access protocol: accept connections, resolve paths against a
// single served root with traversal prevention, perform read-only
// filesystem operations, and return responses. There are no write,
// rename, create, or delete op codes — the read-only contract is
// enforced by their absence, not by a runtime check.
package fileserver

import (
	"io"
	"net"
	"sync"

	stderrors "errors"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/emoon/remotelink/internal/protocol"
	"github.com/emoon/remotelink/internal/rlog"
)

// DefaultMaxConnections bounds concurrent connections. Connections beyond
// it are accepted and then immediately closed.
const DefaultMaxConnections = 64

// Server serves a single directory read-only over the file-access
// protocol.
type Server struct {
	root           string
	maxHandles     int
	maxConnections int

	mu        sync.Mutex
	listener  net.Listener
	conns     int
	shutdown  chan struct{}
}

// New resolves root to an absolute path and returns a Server ready to
// Serve. maxHandles
// bounds the per-connection handle table (Open Question 2: default 256,
// overridable).
func New(root string, maxHandles int) (*Server, error) {
	abs, err := mustAbs(root)
	if err != nil {
		return nil, err
	}
	if maxHandles <= 0 {
		maxHandles = protocolDefaultMaxHandles
	}
	return &Server{
		root:           abs,
		maxHandles:     maxHandles,
		maxConnections: DefaultMaxConnections,
		shutdown:       make(chan struct{}),
	}, nil
}

const protocolDefaultMaxHandles = 256

// Serve accepts connections on addr until the listener is closed. Each
// connection is handled by its own goroutine via an errgroup; workers
// share no mutable state but the accept loop itself.
func (s *Server) Serve(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "fileserver: listen on %s", addr)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	rlog.Logf(addr, "serving %s read-only", s.root)

	var g errgroup.Group
	for {
		c, err := ln.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return g.Wait()
			default:
			}
			return errors.Wrap(err, "fileserver: accept")
		}
		s.mu.Lock()
		tooMany := s.conns >= s.maxConnections
		if !tooMany {
			s.conns++
		}
		s.mu.Unlock()
		if tooMany {
			_ = c.Close()
			continue
		}
		g.Go(func() error {
			defer s.connDone()
			s.serveConn(c)
			return nil
		})
	}
}

func (s *Server) connDone() {
	s.mu.Lock()
	s.conns--
	s.mu.Unlock()
}

// Close stops accepting new connections. Connections already in flight
// run to completion.
func (s *Server) Close() error {
	close(s.shutdown)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// serveConn handles requests serially on c until the peer closes or an
// unrecoverable framing error occurs. Each connection owns its own
// handle table; handles never cross connections.
func (s *Server) serveConn(c net.Conn) {
	defer c.Close()
	cn := &conn{root: s.root, handles: newHandleTable(s.maxHandles)}
	defer cn.handles.closeAll()

	for {
		req, err := protocol.DecodeRequest(c)
		if err != nil {
			if !isCleanClose(err) {
				rlog.Debugf(c.RemoteAddr(), "closing connection: %v", err)
			}
			return
		}
		resp := cn.handle(req)
		if err := resp.Encode(c, req.Op); err != nil {
			rlog.Debugf(c.RemoteAddr(), "write failed, closing: %v", err)
			return
		}
	}
}

func isCleanClose(err error) bool {
	return stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF)
}
