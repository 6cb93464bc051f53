package interceptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirTableAllocAndIterate(t *testing.T) {
	tb := newDirTable()
	h := tb.alloc(&dirEntry{
		path: "sub",
		entries: []dirItem{
			{name: "a.txt"},
			{name: "nested", isDir: true},
		},
	})

	e, ok := tb.get(h)
	require.True(t, ok)

	name, isDir, ok := e.nextName()
	require.True(t, ok)
	assert.Equal(t, "a.txt", name)
	assert.False(t, isDir)

	name, isDir, ok = e.nextName()
	require.True(t, ok)
	assert.Equal(t, "nested", name)
	assert.True(t, isDir)

	_, _, ok = e.nextName()
	assert.False(t, ok, "exhausted listing must report end of stream")
}

func TestDirTableFreeRemovesEntry(t *testing.T) {
	tb := newDirTable()
	h := tb.alloc(&dirEntry{path: "x"})
	tb.free(h)
	_, ok := tb.get(h)
	assert.False(t, ok)
}
