package interceptor

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emoon/remotelink/internal/protocol"
)

// fakeServer answers exactly one OPEN request successfully, then closes,
// enough to exercise client.call's round trip without a real
// fileserver.Server.
func fakeServer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		req, err := protocol.DecodeRequest(conn)
		if err != nil {
			return
		}
		resp := &protocol.Response{ID: req.ID, Handle: 7, Size: 3}
		_ = resp.Encode(conn, req.Op)
	}()
	return ln.Addr().String()
}

func TestClientCallRoundTrip(t *testing.T) {
	addr := fakeServer(t)
	c := newClient(addr)
	defer c.close()

	resp, err := c.call(&protocol.Request{Op: protocol.OpOpen, Path: "f"})
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, uint32(7), resp.Handle)
}

func TestClientCallFailedDialLeavesNoConnection(t *testing.T) {
	c := newClient("127.0.0.1:1") // nothing listening
	_, err := c.call(&protocol.Request{Op: protocol.OpOpen, Path: "f"})
	assert.Error(t, err)
	assert.Nil(t, c.conn, "failed dial must leave no dangling connection")
}
