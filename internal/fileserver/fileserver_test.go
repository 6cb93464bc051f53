package fileserver

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emoon/remotelink/internal/protocol"
)

func startTestServer(t *testing.T, root string) net.Conn {
	t.Helper()
	srv, err := New(root, 8)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	go func() {
		_ = srv.Serve(addr)
	}()
	t.Cleanup(func() { _ = srv.Close() })

	var conn net.Conn
	for i := 0; i < 50; i++ {
		conn, err = net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestOpenReadClose(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "test.txt"), []byte("abcdefgh"), 0o644))
	conn := startTestServer(t, root)

	req := &protocol.Request{ID: 1, Op: protocol.OpOpen, Path: "test.txt"}
	require.NoError(t, req.Encode(conn))
	resp, err := protocol.DecodeResponse(conn, protocol.OpOpen)
	require.NoError(t, err)
	require.True(t, resp.OK())
	assert.Equal(t, int64(8), resp.Size)
	handle := resp.Handle

	rreq := &protocol.Request{ID: 2, Op: protocol.OpRead, Handle: handle, Offset: 0, Length: 8}
	require.NoError(t, rreq.Encode(conn))
	rresp, err := protocol.DecodeResponse(conn, protocol.OpRead)
	require.NoError(t, err)
	assert.Equal(t, "abcdefgh", string(rresp.Data))

	creq := &protocol.Request{ID: 3, Op: protocol.OpClose, Handle: handle}
	require.NoError(t, creq.Encode(conn))
	cresp, err := protocol.DecodeResponse(conn, protocol.OpClose)
	require.NoError(t, err)
	assert.True(t, cresp.OK())
}

func TestOpenMissingFileReturnsNoEnt(t *testing.T) {
	root := t.TempDir()
	conn := startTestServer(t, root)

	req := &protocol.Request{ID: 1, Op: protocol.OpOpen, Path: "neither.txt"}
	require.NoError(t, req.Encode(conn))
	resp, err := protocol.DecodeResponse(conn, protocol.OpOpen)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrnoNoEnt, resp.Errno)
}

func TestTraversalIsRejected(t *testing.T) {
	root := t.TempDir()
	conn := startTestServer(t, root)

	req := &protocol.Request{ID: 1, Op: protocol.OpStat, Path: "../etc/passwd"}
	require.NoError(t, req.Encode(conn))
	resp, err := protocol.DecodeResponse(conn, protocol.OpStat)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrnoAccess, resp.Errno)
}

func TestReaddirElidesDotEntries(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))
	conn := startTestServer(t, root)

	req := &protocol.Request{ID: 1, Op: protocol.OpReaddir, Path: "."}
	require.NoError(t, req.Encode(conn))
	resp, err := protocol.DecodeResponse(conn, protocol.OpReaddir)
	require.NoError(t, err)
	names := map[string]protocol.FileType{}
	for _, e := range resp.Entries {
		names[e.Name] = e.Type
	}
	assert.Contains(t, names, "a.txt")
	assert.Contains(t, names, "sub")
	assert.NotContains(t, names, ".")
	assert.NotContains(t, names, "..")
}

func TestReadIsPreadEquivalent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "f.txt"), []byte("0123456789"), 0o644))
	conn := startTestServer(t, root)

	req := &protocol.Request{ID: 1, Op: protocol.OpOpen, Path: "f.txt"}
	require.NoError(t, req.Encode(conn))
	resp, err := protocol.DecodeResponse(conn, protocol.OpOpen)
	require.NoError(t, err)
	handle := resp.Handle

	r1 := &protocol.Request{ID: 2, Op: protocol.OpRead, Handle: handle, Offset: 5, Length: 3}
	require.NoError(t, r1.Encode(conn))
	resp1, err := protocol.DecodeResponse(conn, protocol.OpRead)
	require.NoError(t, err)
	assert.Equal(t, "567", string(resp1.Data))

	r2 := &protocol.Request{ID: 3, Op: protocol.OpRead, Handle: handle, Offset: 0, Length: 3}
	require.NoError(t, r2.Encode(conn))
	resp2, err := protocol.DecodeResponse(conn, protocol.OpRead)
	require.NoError(t, err)
	assert.Equal(t, "012", string(resp2.Data))
}
