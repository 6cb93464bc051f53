package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, req *Request) *Request {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, req.Encode(&buf))
	got, err := DecodeRequest(&buf)
	require.NoError(t, err)
	return got
}

func TestRequestRoundTrip(t *testing.T) {
	cases := []*Request{
		{ID: 1, Op: OpOpen, Path: "a/b.txt", Flags: ORdonly},
		{ID: 2, Op: OpRead, Handle: 9, Offset: 128, Length: 4096},
		{ID: 3, Op: OpClose, Handle: 9},
		{ID: 4, Op: OpStat, Path: "a/b.txt"},
		{ID: 5, Op: OpAccess, Path: "a/b.txt", Mode: 4},
		{ID: 6, Op: OpReaddir, Path: "."},
		{ID: 7, Op: OpFetch, Path: "libs/libfoo.so"},
	}
	for _, want := range cases {
		got := roundTrip(t, want)
		assert.Equal(t, want, got)
	}
}

func TestResponseRoundTripOpen(t *testing.T) {
	want := &Response{ID: 1, Handle: 3, Size: 1024, ModTime: 99}
	var buf bytes.Buffer
	require.NoError(t, want.Encode(&buf, OpOpen))
	got, err := DecodeResponse(&buf, OpOpen)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResponseRoundTripRead(t *testing.T) {
	want := &Response{ID: 2, Data: []byte("payload")}
	var buf bytes.Buffer
	require.NoError(t, want.Encode(&buf, OpRead))
	got, err := DecodeResponse(&buf, OpRead)
	require.NoError(t, err)
	assert.Equal(t, want.Data, got.Data)
}

func TestResponseRoundTripReaddir(t *testing.T) {
	want := &Response{ID: 3, Entries: []DirEntry{
		{Name: "a.txt", Type: FileTypeRegular},
		{Name: "sub", Type: FileTypeDir},
	}}
	var buf bytes.Buffer
	require.NoError(t, want.Encode(&buf, OpReaddir))
	got, err := DecodeResponse(&buf, OpReaddir)
	require.NoError(t, err)
	assert.Equal(t, want.Entries, got.Entries)
}

func TestResponseErrorShortCircuitsPayload(t *testing.T) {
	want := &Response{ID: 4, Errno: ErrnoNoEnt}
	var buf bytes.Buffer
	require.NoError(t, want.Encode(&buf, OpOpen))
	got, err := DecodeResponse(&buf, OpOpen)
	require.NoError(t, err)
	assert.Equal(t, ErrnoNoEnt, got.Errno)
	assert.False(t, got.OK())
}

func TestUnknownRequestOpIsRejected(t *testing.T) {
	req := &Request{ID: 1, Op: Op(255)}
	var buf bytes.Buffer
	assert.Error(t, req.Encode(&buf))
}
