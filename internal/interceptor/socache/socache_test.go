package socache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emoon/remotelink/internal/protocol"
)

func fakeCaller(t *testing.T, data []byte, calls *int) Caller {
	return func(req *protocol.Request) (*protocol.Response, error) {
		switch req.Op {
		case protocol.OpStat:
			return &protocol.Response{Size: int64(len(data)), ModTime: 42}, nil
		case protocol.OpFetch:
			*calls++
			return &protocol.Response{Size: int64(len(data)), ModTime: 42, Data: data}, nil
		default:
			t.Fatalf("unexpected op %v", req.Op)
			return nil, nil
		}
	}
}

func TestResolveFetchesOnce(t *testing.T) {
	dir := t.TempDir()
	var fetches int
	c := New(filepath.Join(dir, "cache"), fakeCaller(t, []byte("hello.so"), &fetches))

	p1, err := c.Resolve("libs/libfoo.so")
	require.NoError(t, err)
	assert.FileExists(t, p1)

	p2, err := c.Resolve("libs/libfoo.so")
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
	assert.Equal(t, 1, fetches, "second resolve should reuse the cached file, not re-fetch")
}

func TestResolveRefetchesAfterCacheFileRemoved(t *testing.T) {
	dir := t.TempDir()
	var fetches int
	c := New(filepath.Join(dir, "cache"), fakeCaller(t, []byte("hello.so"), &fetches))

	p1, err := c.Resolve("libs/libfoo.so")
	require.NoError(t, err)
	require.NoError(t, os.Remove(p1))

	_, err = c.Resolve("libs/libfoo.so")
	require.NoError(t, err)
	assert.Equal(t, 2, fetches)
}

func TestRemoveAllDeletesCacheDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	var fetches int
	c := New(dir, fakeCaller(t, []byte("x"), &fetches))
	_, err := c.Resolve("a.so")
	require.NoError(t, err)

	c.RemoveAll()
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}
