// Package vfd implements the bounded virtual-file-descriptor table the
// Interceptor keeps for open remote files. A VFD is valid between a
// successful open and the matching close; no other states exist.
package vfd

import (
	"errors"
	"sync"
)

// Base is chosen high enough that a VFD can never collide with a
// descriptor the real kernel hands back in the same process.
const Base = 1 << 20

// ErrTableFull is returned when every slot up to the configured capacity
// is in use.
var ErrTableFull = errors.New("vfd: too many open files")

// Entry describes one open remote file.
type Entry struct {
	Handle uint32 // server-side handle id for this VFD
	Path   string
	Offset int64
	Size   int64
	// Dead is set once the connection backing this VFD has been torn
	// down; further reads/seeks surface EIO until Close.
	Dead bool
}

// Table is the process-wide, mutex-protected set of live VFDs. At most
// Cap entries exist at once; Alloc returns the lowest free index.
type Table struct {
	mu      sync.Mutex
	cap     int
	entries map[int]*Entry
}

// New creates a table bounded at cap entries.
func New(cap int) *Table {
	return &Table{cap: cap, entries: make(map[int]*Entry, cap)}
}

// Alloc reserves the lowest free VFD for entry, returning the VFD (already
// offset by Base) or ErrTableFull.
func (t *Table) Alloc(e *Entry) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.entries) >= t.cap {
		return 0, ErrTableFull
	}
	for idx := 0; idx < t.cap; idx++ {
		if _, used := t.entries[idx]; !used {
			t.entries[idx] = e
			return Base + idx, nil
		}
	}
	return 0, ErrTableFull
}

// IsVFD reports whether fd falls in the range this table could have
// issued. It does not imply the VFD is currently live.
func IsVFD(fd int) bool {
	return fd >= Base
}

// Lookup returns the entry for fd, or (nil, false) if fd is not a live
// VFD in this table.
func (t *Table) Lookup(fd int) (*Entry, bool) {
	if !IsVFD(fd) {
		return nil, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[fd-Base]
	return e, ok
}

// Free releases fd. Freeing an already-free or unknown fd is a no-op so
// close() stays idempotent at the table layer; the caller distinguishes
// "never existed" from "already closed" via Lookup before calling Free.
func (t *Table) Free(fd int) {
	if !IsVFD(fd) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, fd-Base)
}

// SetOffset updates the cached offset for fd, used by lseek. A no-op on
// an unknown fd.
func (t *Table) SetOffset(fd int, offset int64) {
	if !IsVFD(fd) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[fd-Base]; ok {
		e.Offset = offset
	}
}

// MarkAllDead flags every live VFD as Dead, used when the connection to
// the file server is torn down. Existing VFDs remain allocated — only
// close() may remove them — but further I/O on them yields EIO.
func (t *Table) MarkAllDead() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.entries {
		e.Dead = true
	}
}

// Len reports the number of live VFDs, for tests and diagnostics.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
