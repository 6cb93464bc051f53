package vfd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocFreeRoundTrip(t *testing.T) {
	tb := New(2)
	fd1, err := tb.Alloc(&Entry{Path: "a", Size: 8})
	require.NoError(t, err)
	assert.True(t, IsVFD(fd1))

	fd2, err := tb.Alloc(&Entry{Path: "b", Size: 4})
	require.NoError(t, err)
	assert.NotEqual(t, fd1, fd2)

	_, err = tb.Alloc(&Entry{Path: "c", Size: 1})
	assert.ErrorIs(t, err, ErrTableFull)

	tb.Free(fd1)
	fd3, err := tb.Alloc(&Entry{Path: "c", Size: 1})
	require.NoError(t, err)
	assert.Equal(t, fd1, fd3, "freed slot should be reused")

	e, ok := tb.Lookup(fd2)
	require.True(t, ok)
	assert.Equal(t, "b", e.Path)
}

func TestLookupRejectsRealFD(t *testing.T) {
	tb := New(4)
	_, ok := tb.Lookup(3)
	assert.False(t, ok)
}

func TestMarkAllDead(t *testing.T) {
	tb := New(4)
	fd, err := tb.Alloc(&Entry{Path: "a"})
	require.NoError(t, err)
	tb.MarkAllDead()
	e, ok := tb.Lookup(fd)
	require.True(t, ok)
	assert.True(t, e.Dead)
}

func TestFreeUnknownIsNoop(t *testing.T) {
	tb := New(2)
	tb.Free(Base + 5) // never allocated
	assert.Equal(t, 0, tb.Len())
}

func TestSetOffsetUpdatesEntry(t *testing.T) {
	tb := New(2)
	fd, err := tb.Alloc(&Entry{Path: "a"})
	require.NoError(t, err)

	tb.SetOffset(fd, 42)
	e, ok := tb.Lookup(fd)
	require.True(t, ok)
	assert.Equal(t, int64(42), e.Offset)
}

func TestSetOffsetOnUnknownFDIsNoop(t *testing.T) {
	tb := New(2)
	tb.SetOffset(Base+5, 42) // never allocated, must not panic
}
